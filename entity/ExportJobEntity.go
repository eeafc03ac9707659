package entity

import (
	"time"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
)

type ExportJobEntity struct {
	tableName struct{} `pg:"export_job"`

	Id             string             `pg:"id, pk, type:varchar"`
	OrgId          string             `pg:"org_id, type:varchar"`
	EntityType     string             `pg:"entity_type, type:varchar"`
	ExportName     string             `pg:"export_name, type:varchar"`
	Columns        []string           `pg:"columns, type:varchar[], array"`
	Format         string             `pg:"format, type:varchar"`
	Filters        view.ExportFilters `pg:"filters, type:jsonb"`
	IncludeHeaders bool               `pg:"include_headers, type:boolean, use_zero"`
	Status         string             `pg:"status, type:varchar"`
	RecordCount    int                `pg:"record_count, type:integer, use_zero"`
	FileName       string             `pg:"file_name, type:varchar"`
	FilePath       string             `pg:"file_path, type:varchar"`
	FileSizeBytes  int64              `pg:"file_size_bytes, type:bigint, use_zero"`
	ErrorMessage   string             `pg:"error_message, type:varchar"`
	CreatedBy      string             `pg:"created_by, type:varchar"`
	CreatedAt      time.Time          `pg:"created_at, type:timestamp without time zone"`
	CompletedAt    *time.Time         `pg:"completed_at, type:timestamp without time zone"`
	ExpiresAt      *time.Time         `pg:"expires_at, type:timestamp without time zone"`
}

// ExportFileEntity holds the generated file when object storage is not configured.
type ExportFileEntity struct {
	tableName struct{} `pg:"export_file"`

	JobId string `pg:"job_id, pk, type:varchar"`
	Data  []byte `pg:"data, type:bytea"`
}

func MakeExportJobView(ent ExportJobEntity) view.ExportJob {
	return view.ExportJob{
		Id:             ent.Id,
		EntityType:     ent.EntityType,
		ExportName:     ent.ExportName,
		Columns:        ent.Columns,
		Format:         view.ExportFormat(ent.Format),
		Filters:        ent.Filters,
		IncludeHeaders: ent.IncludeHeaders,
		Status:         view.ExportJobStatus(ent.Status),
		RecordCount:    ent.RecordCount,
		FileName:       ent.FileName,
		FileSizeBytes:  ent.FileSizeBytes,
		ErrorMessage:   ent.ErrorMessage,
		CreatedBy:      ent.CreatedBy,
		CreatedAt:      ent.CreatedAt,
		CompletedAt:    ent.CompletedAt,
		ExpiresAt:      ent.ExpiresAt,
	}
}
