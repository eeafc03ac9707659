package repository

import (
	"context"
	"time"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/db"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/entity"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
)

type ExportJobRepository interface {
	CreateJob(ctx context.Context, ent *entity.ExportJobEntity) error
	GetJob(ctx context.Context, orgId string, id string) (*entity.ExportJobEntity, error)
	ListJobs(ctx context.Context, orgId string, filter view.ExportJobsFilter) ([]entity.ExportJobEntity, error)
	UpdateJob(ctx context.Context, ent *entity.ExportJobEntity) error
	CountJobs(ctx context.Context, orgId string, statuses ...view.ExportJobStatus) (int, error)
	GetExpiredJobs(ctx context.Context, expiredBefore time.Time, limit int) ([]entity.ExportJobEntity, error)
	MarkExpired(ctx context.Context, ids []string) (int, error)

	StoreFile(ctx context.Context, jobId string, data []byte) error
	GetFile(ctx context.Context, jobId string) ([]byte, error)
	DeleteFiles(ctx context.Context, jobIds []string) (int, error)
}

func NewExportJobRepository(cp db.ConnectionProvider) ExportJobRepository {
	return &exportJobRepositoryImpl{cp: cp}
}

type exportJobRepositoryImpl struct {
	cp db.ConnectionProvider
}

func (e exportJobRepositoryImpl) CreateJob(ctx context.Context, ent *entity.ExportJobEntity) error {
	_, err := e.cp.GetConnection().ModelContext(ctx, ent).Insert()
	if err != nil {
		return errors.Wrap(err, "failed to insert export job")
	}
	return nil
}

func (e exportJobRepositoryImpl) GetJob(ctx context.Context, orgId string, id string) (*entity.ExportJobEntity, error) {
	result := new(entity.ExportJobEntity)
	err := e.cp.GetConnection().ModelContext(ctx, result).
		Where("id = ?", id).
		Where("org_id = ?", orgId).
		Select()
	if err != nil {
		if err == pg.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return result, nil
}

func (e exportJobRepositoryImpl) ListJobs(ctx context.Context, orgId string, filter view.ExportJobsFilter) ([]entity.ExportJobEntity, error) {
	var result []entity.ExportJobEntity
	query := e.cp.GetConnection().ModelContext(ctx, &result).
		Where("org_id = ?", orgId)
	if filter.Status != "" {
		query.Where("status = ?", filter.Status)
	}
	if filter.EntityType != "" {
		query.Where("entity_type = ?", filter.EntityType)
	}
	err := query.OrderExpr("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Select()
	if err != nil {
		if err == pg.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return result, nil
}

func (e exportJobRepositoryImpl) UpdateJob(ctx context.Context, ent *entity.ExportJobEntity) error {
	_, err := e.cp.GetConnection().ModelContext(ctx, ent).WherePK().Update()
	if err != nil {
		return errors.Wrapf(err, "failed to update export job %s", ent.Id)
	}
	return nil
}

func (e exportJobRepositoryImpl) CountJobs(ctx context.Context, orgId string, statuses ...view.ExportJobStatus) (int, error) {
	query := e.cp.GetConnection().ModelContext(ctx, (*entity.ExportJobEntity)(nil)).
		Where("org_id = ?", orgId)
	if len(statuses) > 0 {
		query.Where("status in (?)", pg.In(statuses))
	}
	return query.Count()
}

func (e exportJobRepositoryImpl) GetExpiredJobs(ctx context.Context, expiredBefore time.Time, limit int) ([]entity.ExportJobEntity, error) {
	var result []entity.ExportJobEntity
	err := e.cp.GetConnection().ModelContext(ctx, &result).
		Where("status = ?", view.ExportStatusCompleted).
		Where("expires_at < ?", expiredBefore).
		OrderExpr("expires_at").
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

func (e exportJobRepositoryImpl) MarkExpired(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := e.cp.GetConnection().ModelContext(ctx, (*entity.ExportJobEntity)(nil)).
		Set("status = ?", view.ExportStatusExpired).
		Where("id in (?)", pg.In(ids)).
		Update()
	if err != nil {
		return 0, errors.Wrap(err, "failed to mark export jobs as expired")
	}
	return result.RowsAffected(), nil
}

func (e exportJobRepositoryImpl) StoreFile(ctx context.Context, jobId string, data []byte) error {
	ent := &entity.ExportFileEntity{JobId: jobId, Data: data}
	_, err := e.cp.GetConnection().ModelContext(ctx, ent).
		OnConflict("(job_id) DO UPDATE").
		Set("data = EXCLUDED.data").
		Insert()
	if err != nil {
		return errors.Wrapf(err, "failed to store file of export job %s", jobId)
	}
	return nil
}

func (e exportJobRepositoryImpl) GetFile(ctx context.Context, jobId string) ([]byte, error) {
	ent := new(entity.ExportFileEntity)
	err := e.cp.GetConnection().ModelContext(ctx, ent).
		Where("job_id = ?", jobId).
		Select()
	if err != nil {
		if err == pg.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return ent.Data, nil
}

func (e exportJobRepositoryImpl) DeleteFiles(ctx context.Context, jobIds []string) (int, error) {
	if len(jobIds) == 0 {
		return 0, nil
	}
	result, err := e.cp.GetConnection().ModelContext(ctx, (*entity.ExportFileEntity)(nil)).
		Where("job_id in (?)", pg.In(jobIds)).
		Delete()
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete export files")
	}
	return result.RowsAffected(), nil
}
