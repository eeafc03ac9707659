package entity

import (
	"time"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
)

type GdprRequestEntity struct {
	tableName struct{} `pg:"gdpr_request"`

	Id               string         `pg:"id, pk, type:varchar"`
	OrgId            string         `pg:"org_id, type:varchar"`
	RequestNumber    string         `pg:"request_number, type:varchar"`
	RequestType      string         `pg:"request_type, type:varchar"`
	SubjectEmail     string         `pg:"subject_email, type:varchar"`
	SubjectName      string         `pg:"subject_name, type:varchar"`
	SubjectPhone     string         `pg:"subject_phone, type:varchar"`
	Status           string         `pg:"status, type:varchar"`
	DueDate          time.Time      `pg:"due_date, type:timestamp without time zone"`
	DataFound        map[string]int `pg:"data_found, type:jsonb"`
	AnonymizedCounts map[string]int `pg:"anonymized_counts, type:jsonb"`
	ExportFileName   string         `pg:"export_file_name, type:varchar"`
	ExportFilePath   string         `pg:"export_file_path, type:varchar"`
	Notes            string         `pg:"notes, type:varchar"`
	ComplianceNotes  string         `pg:"compliance_notes, type:varchar"`
	CreatedBy        string         `pg:"created_by, type:varchar"`
	CreatedAt        time.Time      `pg:"created_at, type:timestamp without time zone"`
	ProcessedBy      string         `pg:"processed_by, type:varchar"`
	ProcessedAt      *time.Time     `pg:"processed_at, type:timestamp without time zone"`
}

// GdprExportFileEntity holds portability bundles when object storage is not configured.
type GdprExportFileEntity struct {
	tableName struct{} `pg:"gdpr_export_file"`

	RequestId string `pg:"request_id, pk, type:varchar"`
	Data      []byte `pg:"data, type:bytea"`
}

func MakeGdprRequestView(ent GdprRequestEntity) view.GdprRequest {
	return view.GdprRequest{
		Id:               ent.Id,
		RequestNumber:    ent.RequestNumber,
		RequestType:      view.GdprRequestType(ent.RequestType),
		SubjectEmail:     ent.SubjectEmail,
		SubjectName:      ent.SubjectName,
		SubjectPhone:     ent.SubjectPhone,
		Status:           view.GdprStatus(ent.Status),
		DueDate:          ent.DueDate,
		DataFound:        ent.DataFound,
		AnonymizedCounts: ent.AnonymizedCounts,
		ExportFileName:   ent.ExportFileName,
		Notes:            ent.Notes,
		ComplianceNotes:  ent.ComplianceNotes,
		CreatedBy:        ent.CreatedBy,
		CreatedAt:        ent.CreatedAt,
		ProcessedBy:      ent.ProcessedBy,
		ProcessedAt:      ent.ProcessedAt,
	}
}
