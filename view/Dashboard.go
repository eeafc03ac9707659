package view

import "time"

type DashboardStats struct {
	TotalImports      int          `json:"totalImports"`
	TotalExports      int          `json:"totalExports"`
	PendingDuplicates int          `json:"pendingDuplicates"`
	PendingGdpr       int          `json:"pendingGdpr"`
	ArchivedRecords   int          `json:"archivedRecords"`
	ActiveImports     int          `json:"activeImports"`
	ActiveExports     int          `json:"activeExports"`
	OverdueGdpr       int          `json:"overdueGdpr"`
	RecentOperations  []AuditEntry `json:"recentOperations"`
}

type AuditAction string

const (
	AuditImportCreated      AuditAction = "data.import.created"
	AuditExportCreated      AuditAction = "data.export.created"
	AuditDuplicatesDetected AuditAction = "data.duplicates.detect"
	AuditDuplicateMerged    AuditAction = "data.duplicates.merged"
	AuditDuplicateDismissed AuditAction = "data.duplicates.dismissed"
	AuditRecordArchived     AuditAction = "data.record.archived"
	AuditRecordRestored     AuditAction = "data.record.restored"
	AuditRecordDeleted      AuditAction = "data.record.deleted"
	AuditBulkUpdate         AuditAction = "data.bulk.update"
	AuditBulkDelete         AuditAction = "data.bulk.delete"
	AuditGdprCreated        AuditAction = "data.gdpr.created"
	AuditGdprProcessed      AuditAction = "data.gdpr.processed"
)

type AuditEntry struct {
	Id         string                 `json:"id"`
	Action     AuditAction            `json:"action"`
	EntityType string                 `json:"entityType,omitempty"`
	EntityId   string                 `json:"entityId,omitempty"`
	ActorId    string                 `json:"actorId"`
	Details    map[string]interface{} `json:"details,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
}
