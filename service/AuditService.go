package service

import (
	"context"
	"time"

	secctx "github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/context"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/entity"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/repository"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type AuditService interface {
	// TrackEvent never fails the calling operation, storage errors are only logged.
	TrackEvent(ctx context.Context, secCtx secctx.SecurityContext, action view.AuditAction, entityType string, entityId string, details map[string]interface{})
	GetRecentEntries(ctx context.Context, orgId string, limit int) ([]view.AuditEntry, error)
}

func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditServiceImpl{auditRepo: auditRepo}
}

type auditServiceImpl struct {
	auditRepo repository.AuditRepository
}

func (a auditServiceImpl) TrackEvent(ctx context.Context, secCtx secctx.SecurityContext, action view.AuditAction, entityType string, entityId string, details map[string]interface{}) {
	ent := &entity.AuditLogEntity{
		Id:         uuid.New().String(),
		OrgId:      secCtx.GetOrgId(),
		Action:     string(action),
		EntityType: entityType,
		EntityId:   entityId,
		ActorId:    secCtx.GetUserId(),
		Details:    details,
		CreatedAt:  time.Now(),
	}
	if err := a.auditRepo.StoreEntry(context.WithoutCancel(ctx), ent); err != nil {
		log.Errorf("Failed to store audit entry %s for %s %s: %s", action, entityType, entityId, err.Error())
	}
}

func (a auditServiceImpl) GetRecentEntries(ctx context.Context, orgId string, limit int) ([]view.AuditEntry, error) {
	ents, err := a.auditRepo.GetRecentEntries(ctx, orgId, limit)
	if err != nil {
		return nil, err
	}
	result := make([]view.AuditEntry, 0, len(ents))
	for _, ent := range ents {
		result = append(result, entity.MakeAuditEntryView(ent))
	}
	return result, nil
}
