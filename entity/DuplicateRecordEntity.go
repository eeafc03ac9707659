package entity

import (
	"time"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
)

// DuplicateRecordEntity stores a candidate pair with RecordId1 < RecordId2.
type DuplicateRecordEntity struct {
	tableName struct{} `pg:"duplicate_record"`

	Id              string     `pg:"id, pk, type:varchar"`
	OrgId           string     `pg:"org_id, type:varchar"`
	EntityType      string     `pg:"entity_type, type:varchar"`
	RecordId1       string     `pg:"record_id_1, type:varchar"`
	RecordId2       string     `pg:"record_id_2, type:varchar"`
	ConfidenceScore float64    `pg:"confidence_score, type:double precision, use_zero"`
	MatchFields     []string   `pg:"match_fields, type:varchar[], array"`
	Status          string     `pg:"status, type:varchar"`
	MergedIntoId    string     `pg:"merged_into_id, type:varchar"`
	DismissedReason string     `pg:"dismissed_reason, type:varchar"`
	ReviewedBy      string     `pg:"reviewed_by, type:varchar"`
	ReviewedAt      *time.Time `pg:"reviewed_at, type:timestamp without time zone"`
	CreatedAt       time.Time  `pg:"created_at, type:timestamp without time zone"`
	UpdatedAt       time.Time  `pg:"updated_at, type:timestamp without time zone"`
}

func MakeDuplicateRecordView(ent DuplicateRecordEntity) view.DuplicateRecord {
	matchFields := ent.MatchFields
	if matchFields == nil {
		matchFields = []string{}
	}
	return view.DuplicateRecord{
		Id:              ent.Id,
		EntityType:      ent.EntityType,
		RecordId1:       ent.RecordId1,
		RecordId2:       ent.RecordId2,
		ConfidenceScore: ent.ConfidenceScore,
		Band:            view.BandOf(ent.ConfidenceScore),
		MatchFields:     matchFields,
		Status:          view.DuplicateStatus(ent.Status),
		MergedIntoId:    ent.MergedIntoId,
		DismissedReason: ent.DismissedReason,
		ReviewedBy:      ent.ReviewedBy,
		ReviewedAt:      ent.ReviewedAt,
		CreatedAt:       ent.CreatedAt,
	}
}
