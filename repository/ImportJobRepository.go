package repository

import (
	"context"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/db"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/entity"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
)

type ImportJobRepository interface {
	CreateJob(ctx context.Context, ent *entity.ImportJobEntity) error
	GetJob(ctx context.Context, orgId string, id string) (*entity.ImportJobEntity, error)
	ListJobs(ctx context.Context, orgId string, filter view.ImportJobsFilter) ([]entity.ImportJobEntity, error)
	UpdateJob(ctx context.Context, ent *entity.ImportJobEntity) error
	StoreRowFlags(ctx context.Context, flags []entity.ImportRowFlagEntity) error
	CountJobs(ctx context.Context, orgId string, statuses ...view.ImportJobStatus) (int, error)
}

func NewImportJobRepository(cp db.ConnectionProvider) ImportJobRepository {
	return &importJobRepositoryImpl{cp: cp}
}

type importJobRepositoryImpl struct {
	cp db.ConnectionProvider
}

func (i importJobRepositoryImpl) CreateJob(ctx context.Context, ent *entity.ImportJobEntity) error {
	_, err := i.cp.GetConnection().ModelContext(ctx, ent).Insert()
	if err != nil {
		return errors.Wrap(err, "failed to insert import job")
	}
	return nil
}

func (i importJobRepositoryImpl) GetJob(ctx context.Context, orgId string, id string) (*entity.ImportJobEntity, error) {
	result := new(entity.ImportJobEntity)
	err := i.cp.GetConnection().ModelContext(ctx, result).
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

func (i importJobRepositoryImpl) ListJobs(ctx context.Context, orgId string, filter view.ImportJobsFilter) ([]entity.ImportJobEntity, error) {
	var result []entity.ImportJobEntity
	query := i.cp.GetConnection().ModelContext(ctx, &result).
		Where("org_id = ?", orgId)
	if filter.Status != "" {
		query.Where("status = ?", filter.Status)
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

func (i importJobRepositoryImpl) UpdateJob(ctx context.Context, ent *entity.ImportJobEntity) error {
	_, err := i.cp.GetConnection().ModelContext(ctx, ent).WherePK().Update()
	if err != nil {
		return errors.Wrapf(err, "failed to update import job %s", ent.Id)
	}
	return nil
}

func (i importJobRepositoryImpl) StoreRowFlags(ctx context.Context, flags []entity.ImportRowFlagEntity) error {
	if len(flags) == 0 {
		return nil
	}
	_, err := i.cp.GetConnection().ModelContext(ctx, &flags).
		OnConflict("(job_id, row_num) DO UPDATE").
		Set("record_id = EXCLUDED.record_id, issues = EXCLUDED.issues").
		Insert()
	if err != nil {
		return errors.Wrap(err, "failed to store import row flags")
	}
	return nil
}

func (i importJobRepositoryImpl) CountJobs(ctx context.Context, orgId string, statuses ...view.ImportJobStatus) (int, error) {
	query := i.cp.GetConnection().ModelContext(ctx, (*entity.ImportJobEntity)(nil)).
		Where("org_id = ?", orgId)
	if len(statuses) > 0 {
		query.Where("status in (?)", pg.In(statuses))
	}
	return query.Count()
}
