package view

import (
	"encoding/json"
	"time"
)

type ErrorHandling string

const (
	ErrorHandlingSkip ErrorHandling = "skip"
	ErrorHandlingStop ErrorHandling = "stop"
	ErrorHandlingFlag ErrorHandling = "flag"
)

type ImportJobStatus string

const (
	ImportStatusPending    ImportJobStatus = "pending"
	ImportStatusProcessing ImportJobStatus = "processing"
	ImportStatusCompleted  ImportJobStatus = "completed"
	ImportStatusFailed     ImportJobStatus = "failed"
)

// FieldMapping maps a source header to an entity field name. Empty value means the column is skipped.
type FieldMapping map[string]string

func (m FieldMapping) MarshalJSON() ([]byte, error) {
	out := make(map[string]*string, len(m))
	for header, field := range m {
		if field == "" {
			out[header] = nil
			continue
		}
		f := field
		out[header] = &f
	}
	return json.Marshal(out)
}

type ImportOptions struct {
	ErrorHandling           ErrorHandling `json:"errorHandling" validate:"omitempty,oneof=skip stop flag"`
	UpdateExisting          bool          `json:"updateExisting"`
	CreateMissingReferences bool          `json:"createMissingReferences"`
}

type ParsedRow map[string]string

type ParsedFile struct {
	Headers    []string    `json:"headers"`
	SampleRows []ParsedRow `json:"sampleRows"`
	TotalRows  int         `json:"totalRows"`
	Rows       []ParsedRow `json:"-"`
}

type ParseImportFileReq struct {
	FileData   string `json:"fileData" validate:"required"`
	FileName   string `json:"fileName" validate:"required"`
	EntityType string `json:"entityType"`
}

type ParseImportFileResp struct {
	Headers          []string     `json:"headers"`
	SampleRows       []ParsedRow  `json:"sampleRows"`
	TotalRows        int          `json:"totalRows"`
	SuggestedMapping FieldMapping `json:"suggestedMapping,omitempty"`
}

type ValidateImportDataReq struct {
	EntityType   string       `json:"entityType" validate:"required"`
	FileData     string       `json:"fileData" validate:"required"`
	FileName     string       `json:"fileName" validate:"required"`
	FieldMapping FieldMapping `json:"fieldMapping" validate:"required"`
}

type ValidationIssue struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationResult struct {
	TotalRows int               `json:"totalRows"`
	ValidRows int               `json:"validRows"`
	ErrorRows int               `json:"errorRows"`
	Errors    []ValidationIssue `json:"errors"`
	Warnings  []ValidationIssue `json:"warnings"`
}

type CreateImportJobReq struct {
	EntityType    string        `json:"entityType" validate:"required"`
	FileName      string        `json:"fileName" validate:"required"`
	FileData      string        `json:"fileData" validate:"required"`
	FieldMapping  FieldMapping  `json:"fieldMapping" validate:"required"`
	ImportOptions ImportOptions `json:"importOptions"`
}

type ImportJob struct {
	Id            string            `json:"id"`
	EntityType    string            `json:"entityType"`
	FileName      string            `json:"fileName"`
	FileSizeBytes int64             `json:"fileSizeBytes"`
	FieldMapping  FieldMapping      `json:"fieldMapping"`
	ImportOptions ImportOptions     `json:"importOptions"`
	Status        ImportJobStatus   `json:"status"`
	TotalRows     int               `json:"totalRows"`
	ProcessedRows int               `json:"processedRows"`
	SuccessRows   int               `json:"successRows"`
	CreatedRows   int               `json:"createdRows"`
	UpdatedRows   int               `json:"updatedRows"`
	ErrorRows     int               `json:"errorRows"`
	Errors        []ValidationIssue `json:"errors,omitempty"`
	ErrorMessage  string            `json:"errorMessage,omitempty"`
	CreatedBy     string            `json:"createdBy"`
	CreatedAt     time.Time         `json:"createdAt"`
	StartedAt     *time.Time        `json:"startedAt,omitempty"`
	CompletedAt   *time.Time        `json:"completedAt,omitempty"`
}

type ImportJobs struct {
	Jobs []ImportJob `json:"jobs"`
}

type ImportJobsFilter struct {
	Status string
	Limit  int
	Offset int
}
