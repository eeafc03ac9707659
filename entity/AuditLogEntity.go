package entity

import (
	"time"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
)

type AuditLogEntity struct {
	tableName struct{} `pg:"audit_log"`

	Id         string                 `pg:"id, pk, type:varchar"`
	OrgId      string                 `pg:"org_id, type:varchar"`
	Action     string                 `pg:"action, type:varchar"`
	EntityType string                 `pg:"entity_type, type:varchar"`
	EntityId   string                 `pg:"entity_id, type:varchar"`
	ActorId    string                 `pg:"actor_id, type:varchar"`
	Details    map[string]interface{} `pg:"details, type:jsonb"`
	CreatedAt  time.Time              `pg:"created_at, type:timestamp without time zone"`
}

func MakeAuditEntryView(ent AuditLogEntity) view.AuditEntry {
	return view.AuditEntry{
		Id:         ent.Id,
		Action:     view.AuditAction(ent.Action),
		EntityType: ent.EntityType,
		EntityId:   ent.EntityId,
		ActorId:    ent.ActorId,
		Details:    ent.Details,
		CreatedAt:  ent.CreatedAt,
	}
}
