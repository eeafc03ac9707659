package entity

import (
	"time"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
)

type ImportJobEntity struct {
	tableName struct{} `pg:"import_job"`

	Id            string                 `pg:"id, pk, type:varchar"`
	OrgId         string                 `pg:"org_id, type:varchar"`
	EntityType    string                 `pg:"entity_type, type:varchar"`
	FileName      string                 `pg:"file_name, type:varchar"`
	FilePath      string                 `pg:"file_path, type:varchar"`
	FileSizeBytes int64                  `pg:"file_size_bytes, type:bigint, use_zero"`
	FileChecksum  string                 `pg:"file_checksum, type:varchar"`
	FieldMapping  map[string]string      `pg:"field_mapping, type:jsonb"`
	ImportOptions view.ImportOptions     `pg:"import_options, type:jsonb"`
	Status        string                 `pg:"status, type:varchar"`
	TotalRows     int                    `pg:"total_rows, type:integer, use_zero"`
	ProcessedRows int                    `pg:"processed_rows, type:integer, use_zero"`
	SuccessRows   int                    `pg:"success_rows, type:integer, use_zero"`
	CreatedRows   int                    `pg:"created_rows, type:integer, use_zero"`
	UpdatedRows   int                    `pg:"updated_rows, type:integer, use_zero"`
	ErrorRows     int                    `pg:"error_rows, type:integer, use_zero"`
	Errors        []view.ValidationIssue `pg:"errors, type:jsonb"`
	ErrorMessage  string                 `pg:"error_message, type:varchar"`
	CreatedBy     string                 `pg:"created_by, type:varchar"`
	CreatedAt     time.Time              `pg:"created_at, type:timestamp without time zone"`
	StartedAt     *time.Time             `pg:"started_at, type:timestamp without time zone"`
	CompletedAt   *time.Time             `pg:"completed_at, type:timestamp without time zone"`
}

// ImportRowFlagEntity keeps data-quality issues of rows committed under the "flag" policy.
type ImportRowFlagEntity struct {
	tableName struct{} `pg:"import_row_flag"`

	JobId    string                 `pg:"job_id, pk, type:varchar"`
	RowNum   int                    `pg:"row_num, pk, type:integer"`
	RecordId string                 `pg:"record_id, type:varchar"`
	Issues   []view.ValidationIssue `pg:"issues, type:jsonb"`
}

func MakeImportJobView(ent ImportJobEntity) view.ImportJob {
	return view.ImportJob{
		Id:            ent.Id,
		EntityType:    ent.EntityType,
		FileName:      ent.FileName,
		FileSizeBytes: ent.FileSizeBytes,
		FieldMapping:  view.FieldMapping(ent.FieldMapping),
		ImportOptions: ent.ImportOptions,
		Status:        view.ImportJobStatus(ent.Status),
		TotalRows:     ent.TotalRows,
		ProcessedRows: ent.ProcessedRows,
		SuccessRows:   ent.SuccessRows,
		CreatedRows:   ent.CreatedRows,
		UpdatedRows:   ent.UpdatedRows,
		ErrorRows:     ent.ErrorRows,
		Errors:        ent.Errors,
		ErrorMessage:  ent.ErrorMessage,
		CreatedBy:     ent.CreatedBy,
		CreatedAt:     ent.CreatedAt,
		StartedAt:     ent.StartedAt,
		CompletedAt:   ent.CompletedAt,
	}
}
