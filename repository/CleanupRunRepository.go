package repository

import (
	"context"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/db"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/entity"
	"github.com/go-pg/pg/v10"
)

type CleanupRunRepository interface {
	StoreRun(ctx context.Context, ent *entity.CleanupRunEntity) error
	UpdateRun(ctx context.Context, ent *entity.CleanupRunEntity) error
	GetLastRun(ctx context.Context, jobType string) (*entity.CleanupRunEntity, error)
}

func NewCleanupRunRepository(cp db.ConnectionProvider) CleanupRunRepository {
	return &cleanupRunRepositoryImpl{cp: cp}
}

type cleanupRunRepositoryImpl struct {
	cp db.ConnectionProvider
}

func (c cleanupRunRepositoryImpl) StoreRun(ctx context.Context, ent *entity.CleanupRunEntity) error {
	_, err := c.cp.GetConnection().ModelContext(ctx, ent).Insert()
	return err
}

func (c cleanupRunRepositoryImpl) UpdateRun(ctx context.Context, ent *entity.CleanupRunEntity) error {
	_, err := c.cp.GetConnection().ModelContext(ctx, ent).WherePK().Update()
	return err
}

func (c cleanupRunRepositoryImpl) GetLastRun(ctx context.Context, jobType string) (*entity.CleanupRunEntity, error) {
	result := new(entity.CleanupRunEntity)
	err := c.cp.GetConnection().ModelContext(ctx, result).
		Where("job_type = ?", jobType).
		OrderExpr("started_at DESC").
		Limit(1).
		Select()
	if err != nil {
		if err == pg.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return result, nil
}
