package view

import "time"

type ArchiveReason string

const (
	ArchiveReasonManual          ArchiveReason = "manual"
	ArchiveReasonGdprRequest     ArchiveReason = "gdpr_request"
	ArchiveReasonRetentionPolicy ArchiveReason = "retention_policy"
	ArchiveReasonBulkOperation   ArchiveReason = "bulk_operation"
)

func ValidArchiveReason(reason ArchiveReason) bool {
	switch reason {
	case ArchiveReasonManual, ArchiveReasonGdprRequest, ArchiveReasonRetentionPolicy, ArchiveReasonBulkOperation:
		return true
	}
	return false
}

type ArchivedRecord struct {
	Id             string                 `json:"id"`
	EntityType     string                 `json:"entityType"`
	OriginalId     string                 `json:"originalId"`
	Data           map[string]interface{} `json:"data"`
	ArchivedAt     time.Time              `json:"archivedAt"`
	ArchivedBy     string                 `json:"archivedBy"`
	ArchiveReason  ArchiveReason          `json:"archiveReason"`
	RetentionUntil *time.Time             `json:"retentionUntil"`
}

type ArchiveRecordReq struct {
	EntityType     string        `json:"entityType" validate:"required"`
	RecordId       string        `json:"recordId" validate:"required"`
	Reason         ArchiveReason `json:"reason"`
	RetentionUntil *time.Time    `json:"retentionUntil"`
}

type ArchivedRecordsFilter struct {
	EntityType string
	Limit      int
	Offset     int
}

type ArchivedRecords struct {
	Records []ArchivedRecord `json:"records"`
	Total   int              `json:"total"`
}

type BulkUpdateReq struct {
	EntityType string                 `json:"entityType" validate:"required"`
	RecordIds  []string               `json:"recordIds" validate:"required,min=1"`
	Updates    map[string]interface{} `json:"updates" validate:"required"`
}

type BulkDeleteReq struct {
	EntityType string   `json:"entityType" validate:"required"`
	RecordIds  []string `json:"recordIds" validate:"required,min=1"`
	Archive    *bool    `json:"archive"`
}

type BulkError struct {
	Id      string `json:"id"`
	Message string `json:"message"`
}

type BulkResult struct {
	Processed int         `json:"processed"`
	Failed    int         `json:"failed"`
	Errors    []BulkError `json:"errors,omitempty"`
}
