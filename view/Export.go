package view

import "time"

type ExportFormat string

const (
	ExportFormatCsv   ExportFormat = "csv"
	ExportFormatExcel ExportFormat = "excel"
	ExportFormatJson  ExportFormat = "json"
)

func (f ExportFormat) Extension() string {
	switch f {
	case ExportFormatExcel:
		return "xlsx"
	case ExportFormatJson:
		return "json"
	default:
		return "csv"
	}
}

func (f ExportFormat) ContentType() string {
	switch f {
	case ExportFormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ExportFormatJson:
		return "application/json"
	default:
		return "text/csv"
	}
}

type ExportJobStatus string

const (
	ExportStatusPending    ExportJobStatus = "pending"
	ExportStatusProcessing ExportJobStatus = "processing"
	ExportStatusCompleted  ExportJobStatus = "completed"
	ExportStatusFailed     ExportJobStatus = "failed"
	ExportStatusExpired    ExportJobStatus = "expired"
)

type ExportFilters struct {
	DateFrom *time.Time        `json:"dateFrom,omitempty"`
	DateTo   *time.Time        `json:"dateTo,omitempty"`
	Status   string            `json:"status,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
}

type CreateExportJobReq struct {
	EntityType     string        `json:"entityType" validate:"required"`
	ExportName     string        `json:"exportName"`
	Columns        []string      `json:"columns" validate:"required,min=1"`
	Format         ExportFormat  `json:"format" validate:"required,oneof=csv excel json"`
	Filters        ExportFilters `json:"filters"`
	IncludeHeaders *bool         `json:"includeHeaders"`
}

type ExportJob struct {
	Id             string          `json:"id"`
	EntityType     string          `json:"entityType"`
	ExportName     string          `json:"exportName"`
	Columns        []string        `json:"columns"`
	Format         ExportFormat    `json:"format"`
	Filters        ExportFilters   `json:"filters"`
	IncludeHeaders bool            `json:"includeHeaders"`
	Status         ExportJobStatus `json:"status"`
	RecordCount    int             `json:"recordCount"`
	FileName       string          `json:"fileName,omitempty"`
	FileSizeBytes  int64           `json:"fileSizeBytes"`
	ErrorMessage   string          `json:"errorMessage,omitempty"`
	CreatedBy      string          `json:"createdBy"`
	CreatedAt      time.Time       `json:"createdAt"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
	ExpiresAt      *time.Time      `json:"expiresAt,omitempty"`
}

type ExportJobs struct {
	Jobs []ExportJob `json:"jobs"`
}

type ExportJobsFilter struct {
	Status     string
	EntityType string
	Limit      int
	Offset     int
}

type ExportDownload struct {
	Url       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
