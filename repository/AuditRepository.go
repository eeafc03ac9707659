package repository

import (
	"context"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/db"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/entity"
	"github.com/go-pg/pg/v10"
)

type AuditRepository interface {
	StoreEntry(ctx context.Context, ent *entity.AuditLogEntity) error
	GetRecentEntries(ctx context.Context, orgId string, limit int) ([]entity.AuditLogEntity, error)
}

func NewAuditRepository(cp db.ConnectionProvider) AuditRepository {
	return &auditRepositoryImpl{cp: cp}
}

type auditRepositoryImpl struct {
	cp db.ConnectionProvider
}

func (a auditRepositoryImpl) StoreEntry(ctx context.Context, ent *entity.AuditLogEntity) error {
	_, err := a.cp.GetConnection().ModelContext(ctx, ent).Insert()
	return err
}

func (a auditRepositoryImpl) GetRecentEntries(ctx context.Context, orgId string, limit int) ([]entity.AuditLogEntity, error) {
	var result []entity.AuditLogEntity
	err := a.cp.GetConnection().ModelContext(ctx, &result).
		Where("org_id = ?", orgId).
		OrderExpr("created_at DESC").
		Limit(limit).
		Select()
	if err != nil {
		if err == pg.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return result, nil
}
