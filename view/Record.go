package view

import "time"

// Record is a live entity row keyed by database column.
type Record map[string]interface{}

const (
	ColumnId        = "id"
	ColumnOrgId     = "org_id"
	ColumnCreatedAt = "created_at"
	ColumnUpdatedAt = "updated_at"
	ColumnDeletedAt = "deleted_at"
	ColumnStatus    = "status"
)

func (r Record) Id() string {
	if id, ok := r[ColumnId].(string); ok {
		return id
	}
	return ""
}

type RecordFilter struct {
	DateFrom *time.Time
	DateTo   *time.Time
	Status   string
	// column -> value, compared as text
	Equals map[string]string
}
