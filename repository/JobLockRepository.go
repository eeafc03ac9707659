package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/db"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/entity"
	"github.com/go-pg/pg/v10"
)

var (
	ErrLockNotHeld  = errors.New("job lock is not held by this owner")
	ErrLockNotFound = errors.New("job lock not found")
)

const clockSkewMargin = 10 * time.Second

type JobLockRepository interface {
	// TryAcquire takes the lock when it is free or its lease has run out.
	TryAcquire(ctx context.Context, name string, ownerId string, lease time.Duration) (*entity.JobLockEntity, error)
	Extend(ctx context.Context, name string, ownerId string, lease time.Duration, version int64) (int64, error)
	Release(ctx context.Context, name string, ownerId string) error
	GetLock(ctx context.Context, name string) (*entity.JobLockEntity, error)
}

func NewJobLockRepository(cp db.ConnectionProvider) JobLockRepository {
	return &jobLockRepositoryImpl{cp: cp}
}

type jobLockRepositoryImpl struct {
	cp db.ConnectionProvider
}

func (r jobLockRepositoryImpl) TryAcquire(ctx context.Context, name string, ownerId string, lease time.Duration) (*entity.JobLockEntity, error) {
	now := time.Now().UTC()
	lock := &entity.JobLockEntity{
		Name:       name,
		OwnerId:    ownerId,
		AcquiredAt: now,
		ExpiresAt:  now.Add(lease),
		Version:    1,
	}
	result, err := r.cp.GetConnection().ModelContext(ctx, lock).
		OnConflict("(name) DO UPDATE").
		Set("owner_id = EXCLUDED.owner_id").
		Set("acquired_at = EXCLUDED.acquired_at").
		Set("expires_at = EXCLUDED.expires_at").
		Set("version = job_lock_entity.version + 1").
		Where("job_lock_entity.expires_at < ?", now.Add(-clockSkewMargin)).
		Returning("version").
		Insert()
	if err != nil {
		if err == pg.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to acquire job lock %s: %w", name, err)
	}
	if result.RowsAffected() == 0 {
		return nil, nil
	}
	return lock, nil
}

func (r jobLockRepositoryImpl) Extend(ctx context.Context, name string, ownerId string, lease time.Duration, version int64) (int64, error) {
	result, err := r.cp.GetConnection().ModelContext(ctx, (*entity.JobLockEntity)(nil)).
		Set("expires_at = ?", time.Now().UTC().Add(lease)).
		Set("version = version + 1").
		Where("name = ?", name).
		Where("owner_id = ?", ownerId).
		Where("version = ?", version).
		Update()
	if err != nil {
		return 0, fmt.Errorf("failed to extend job lock %s: %w", name, err)
	}
	if result.RowsAffected() == 0 {
		return 0, ErrLockNotHeld
	}
	return version + 1, nil
}

func (r jobLockRepositoryImpl) Release(ctx context.Context, name string, ownerId string) error {
	result, err := r.cp.GetConnection().ModelContext(ctx, (*entity.JobLockEntity)(nil)).
		Where("name = ?", name).
		Where("owner_id = ?", ownerId).
		Delete()
	if err != nil {
		return fmt.Errorf("failed to release job lock %s: %w", name, err)
	}
	if result.RowsAffected() == 0 {
		return ErrLockNotHeld
	}
	return nil
}

func (r jobLockRepositoryImpl) GetLock(ctx context.Context, name string) (*entity.JobLockEntity, error) {
	var lock entity.JobLockEntity
	err := r.cp.GetConnection().ModelContext(ctx, &lock).
		Where("name = ?", name).
		Select()
	if err != nil {
		if errors.Is(err, pg.ErrNoRows) {
			return nil, ErrLockNotFound
		}
		return nil, fmt.Errorf("failed to get job lock %s: %w", name, err)
	}
	return &lock, nil
}
