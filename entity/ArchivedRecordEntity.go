package entity

import (
	"time"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
)

type ArchivedRecordEntity struct {
	tableName struct{} `pg:"archived_record"`

	Id             string                 `pg:"id, pk, type:varchar"`
	OrgId          string                 `pg:"org_id, type:varchar"`
	EntityType     string                 `pg:"entity_type, type:varchar"`
	OriginalId     string                 `pg:"original_id, type:varchar"`
	Data           map[string]interface{} `pg:"data, type:jsonb"`
	ArchivedAt     time.Time              `pg:"archived_at, type:timestamp without time zone"`
	ArchivedBy     string                 `pg:"archived_by, type:varchar"`
	ArchiveReason  string                 `pg:"archive_reason, type:varchar"`
	RetentionUntil *time.Time             `pg:"retention_until, type:timestamp without time zone"`
}

func MakeArchivedRecordView(ent ArchivedRecordEntity) view.ArchivedRecord {
	return view.ArchivedRecord{
		Id:             ent.Id,
		EntityType:     ent.EntityType,
		OriginalId:     ent.OriginalId,
		Data:           ent.Data,
		ArchivedAt:     ent.ArchivedAt,
		ArchivedBy:     ent.ArchivedBy,
		ArchiveReason:  view.ArchiveReason(ent.ArchiveReason),
		RetentionUntil: ent.RetentionUntil,
	}
}
