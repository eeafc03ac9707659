// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

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

// SnapshotFunc builds the archive row for a locked live record. The record is nil when it does not exist.
type SnapshotFunc func(record view.Record) (*entity.ArchivedRecordEntity, error)

// RestoreFunc resolves the live table and row for a locked archive entry. The entry is nil when it does not exist.
type RestoreFunc func(ent *entity.ArchivedRecordEntity) (string, view.Record, error)

type ArchiveRepository interface {
	ArchiveRecord(ctx context.Context, table string, orgId string, recordId string, snapshot SnapshotFunc) (*entity.ArchivedRecordEntity, error)
	RestoreRecord(ctx context.Context, orgId string, archivedId string, restore RestoreFunc) (*entity.ArchivedRecordEntity, error)
	GetArchived(ctx context.Context, orgId string, id string) (*entity.ArchivedRecordEntity, error)
	ListArchived(ctx context.Context, orgId string, filter view.ArchivedRecordsFilter) ([]entity.ArchivedRecordEntity, int, error)
	CountArchived(ctx context.Context, orgId string) (int, error)
	DeleteArchived(ctx context.Context, orgId string, id string) (bool, error)
	GetExpiredIds(ctx context.Context, expiredBefore time.Time, limit int) ([]string, error)
	DeleteByIds(ctx context.Context, ids []string) (int, error)
}

func NewArchiveRepository(cp db.ConnectionProvider) ArchiveRepository {
	return &archiveRepositoryImpl{cp: cp}
}

type archiveRepositoryImpl struct {
	cp db.ConnectionProvider
}

func (a archiveRepositoryImpl) ArchiveRecord(ctx context.Context, table string, orgId string, recordId string, snapshot SnapshotFunc) (*entity.ArchivedRecordEntity, error) {
	var result *entity.ArchivedRecordEntity
	err := a.cp.GetConnection().RunInTransaction(ctx, func(tx *pg.Tx) error {
		record, err := selectRecord(ctx, tx, table, orgId, recordId, includeDeleted, true)
		if err != nil {
			return err
		}
		ent, err := snapshot(record)
		if err != nil {
			return err
		}
		if _, err = deleteRecord(ctx, tx, table, orgId, recordId); err != nil {
			return err
		}
		if _, err = tx.ModelContext(ctx, ent).Insert(); err != nil {
			return errors.Wrapf(err, "failed to insert archive entry for %s", recordId)
		}
		result = ent
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (a archiveRepositoryImpl) RestoreRecord(ctx context.Context, orgId string, archivedId string, restore RestoreFunc) (*entity.ArchivedRecordEntity, error) {
	var result *entity.ArchivedRecordEntity
	err := a.cp.GetConnection().RunInTransaction(ctx, func(tx *pg.Tx) error {
		ent := new(entity.ArchivedRecordEntity)
		err := tx.ModelContext(ctx, ent).
			Where("id = ?", archivedId).
			Where("org_id = ?", orgId).
			For("UPDATE").
			Select()
		if err != nil {
			if err != pg.ErrNoRows {
				return err
			}
			ent = nil
		}
		table, record, err := restore(ent)
		if err != nil {
			return err
		}
		exists, err := recordExists(ctx, tx, table, ent.OriginalId)
		if err != nil {
			return err
		}
		if exists {
			return ErrRecordExists
		}
		if err = restoreRecord(ctx, tx, table, record); err != nil {
			return err
		}
		if _, err = tx.ModelContext(ctx, ent).WherePK().Delete(); err != nil {
			return errors.Wrapf(err, "failed to delete archive entry %s", archivedId)
		}
		result = ent
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (a archiveRepositoryImpl) GetArchived(ctx context.Context, orgId string, id string) (*entity.ArchivedRecordEntity, error) {
	result := new(entity.ArchivedRecordEntity)
	err := a.cp.GetConnection().ModelContext(ctx, result).
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

func (a archiveRepositoryImpl) ListArchived(ctx context.Context, orgId string, filter view.ArchivedRecordsFilter) ([]entity.ArchivedRecordEntity, int, error) {
	var result []entity.ArchivedRecordEntity
	query := a.cp.GetConnection().ModelContext(ctx, &result).
		Where("org_id = ?", orgId)
	if filter.EntityType != "" {
		query.Where("entity_type = ?", filter.EntityType)
	}
	total, err := query.OrderExpr("archived_at DESC, id").
		Limit(filter.Limit).
		Offset(filter.Offset).
		SelectAndCount()
	if err != nil {
		if err == pg.ErrNoRows {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	return result, total, nil
}

func (a archiveRepositoryImpl) CountArchived(ctx context.Context, orgId string) (int, error) {
	return a.cp.GetConnection().ModelContext(ctx, (*entity.ArchivedRecordEntity)(nil)).
		Where("org_id = ?", orgId).
		Count()
}

func (a archiveRepositoryImpl) DeleteArchived(ctx context.Context, orgId string, id string) (bool, error) {
	result, err := a.cp.GetConnection().ModelContext(ctx, (*entity.ArchivedRecordEntity)(nil)).
		Where("id = ?", id).
		Where("org_id = ?", orgId).
		Delete()
	if err != nil {
		return false, errors.Wrapf(err, "failed to delete archive entry %s", id)
	}
	return result.RowsAffected() > 0, nil
}

func (a archiveRepositoryImpl) GetExpiredIds(ctx context.Context, expiredBefore time.Time, limit int) ([]string, error) {
	var ids []string
	err := a.cp.GetConnection().ModelContext(ctx, (*entity.ArchivedRecordEntity)(nil)).
		Column("id").
		Where("retention_until is not null").
		Where("retention_until < ?", expiredBefore).
		OrderExpr("retention_until").
		Limit(limit).
		Select(&ids)
	if err != nil {
		if err == pg.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return ids, nil
}

func (a archiveRepositoryImpl) DeleteByIds(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := a.cp.GetConnection().ModelContext(ctx, (*entity.ArchivedRecordEntity)(nil)).
		Where("id in (?)", pg.In(ids)).
		Delete()
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete expired archive entries")
	}
	return result.RowsAffected(), nil
}
