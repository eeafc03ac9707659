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

const MergedRecordDismissReason = "record merged"

// MergeFunc validates the locked pair and returns the values to write into the kept record.
// Returning an error rolls the merge back.
type MergeFunc func(dup *entity.DuplicateRecordEntity, keep view.Record, lose view.Record) (view.Record, error)

type MergeParams struct {
	OrgId       string
	DuplicateId string
	KeepId      string
	LoseId      string
	Table       string
	Relations   []view.Relation
	ReviewedBy  string
	Merge       MergeFunc
}

type DuplicateRepository interface {
	GetDuplicate(ctx context.Context, orgId string, id string) (*entity.DuplicateRecordEntity, error)
	GetByPair(ctx context.Context, orgId string, entityType string, recordId1 string, recordId2 string) (*entity.DuplicateRecordEntity, error)
	ListDuplicates(ctx context.Context, orgId string, filter view.DuplicatesFilter) ([]entity.DuplicateRecordEntity, int, error)
	CountDuplicates(ctx context.Context, orgId string, status view.DuplicateStatus) (int, error)
	CreateDuplicate(ctx context.Context, ent *entity.DuplicateRecordEntity) error
	UpdateScore(ctx context.Context, id string, confidence float64, matchFields []string) error
	DismissDuplicate(ctx context.Context, orgId string, id string, reason string, reviewedBy string) (bool, error)
	MergeDuplicate(ctx context.Context, params MergeParams) error
}

func NewDuplicateRepository(cp db.ConnectionProvider) DuplicateRepository {
	return &duplicateRepositoryImpl{cp: cp}
}

type duplicateRepositoryImpl struct {
	cp db.ConnectionProvider
}

func (d duplicateRepositoryImpl) GetDuplicate(ctx context.Context, orgId string, id string) (*entity.DuplicateRecordEntity, error) {
	result := new(entity.DuplicateRecordEntity)
	err := d.cp.GetConnection().ModelContext(ctx, result).
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

func (d duplicateRepositoryImpl) GetByPair(ctx context.Context, orgId string, entityType string, recordId1 string, recordId2 string) (*entity.DuplicateRecordEntity, error) {
	result := new(entity.DuplicateRecordEntity)
	err := d.cp.GetConnection().ModelContext(ctx, result).
		Where("org_id = ?", orgId).
		Where("entity_type = ?", entityType).
		Where("record_id_1 = ?", recordId1).
		Where("record_id_2 = ?", recordId2).
		Select()
	if err != nil {
		if err == pg.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return result, nil
}

func (d duplicateRepositoryImpl) ListDuplicates(ctx context.Context, orgId string, filter view.DuplicatesFilter) ([]entity.DuplicateRecordEntity, int, error) {
	var result []entity.DuplicateRecordEntity
	query := d.cp.GetConnection().ModelContext(ctx, &result).
		Where("org_id = ?", orgId)
	if filter.MinConfidence != nil {
		query.Where("confidence_score >= ?", *filter.MinConfidence)
	}
	if filter.EntityType != "" {
		query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.Status != "" {
		query.Where("status = ?", filter.Status)
	}
	total, err := query.OrderExpr("confidence_score DESC, created_at, id").
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

func (d duplicateRepositoryImpl) CountDuplicates(ctx context.Context, orgId string, status view.DuplicateStatus) (int, error) {
	return d.cp.GetConnection().ModelContext(ctx, (*entity.DuplicateRecordEntity)(nil)).
		Where("org_id = ?", orgId).
		Where("status = ?", status).
		Count()
}

func (d duplicateRepositoryImpl) CreateDuplicate(ctx context.Context, ent *entity.DuplicateRecordEntity) error {
	_, err := d.cp.GetConnection().ModelContext(ctx, ent).
		OnConflict("(org_id, entity_type, record_id_1, record_id_2) DO NOTHING").
		Insert()
	if err != nil {
		return errors.Wrap(err, "failed to insert duplicate record")
	}
	return nil
}

func (d duplicateRepositoryImpl) UpdateScore(ctx context.Context, id string, confidence float64, matchFields []string) error {
	_, err := d.cp.GetConnection().ModelContext(ctx, (*entity.DuplicateRecordEntity)(nil)).
		Set("confidence_score = ?", confidence).
		Set("match_fields = ?", pg.Array(matchFields)).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Where("status = ?", view.DuplicateStatusPending).
		Update()
	if err != nil {
		return errors.Wrapf(err, "failed to update score of duplicate record %s", id)
	}
	return nil
}

func (d duplicateRepositoryImpl) DismissDuplicate(ctx context.Context, orgId string, id string, reason string, reviewedBy string) (bool, error) {
	now := time.Now()
	result, err := d.cp.GetConnection().ModelContext(ctx, (*entity.DuplicateRecordEntity)(nil)).
		Set("status = ?", view.DuplicateStatusDismissed).
		Set("dismissed_reason = ?", reason).
		Set("reviewed_by = ?", reviewedBy).
		Set("reviewed_at = ?", now).
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Where("org_id = ?", orgId).
		Where("status = ?", view.DuplicateStatusPending).
		Update()
	if err != nil {
		return false, errors.Wrapf(err, "failed to dismiss duplicate record %s", id)
	}
	return result.RowsAffected() > 0, nil
}

func (d duplicateRepositoryImpl) MergeDuplicate(ctx context.Context, params MergeParams) error {
	return d.cp.GetConnection().RunInTransaction(ctx, func(tx *pg.Tx) error {
		dup := new(entity.DuplicateRecordEntity)
		err := tx.ModelContext(ctx, dup).
			Where("id = ?", params.DuplicateId).
			Where("org_id = ?", params.OrgId).
			For("UPDATE").
			Select()
		if err != nil {
			if err != pg.ErrNoRows {
				return err
			}
			dup = nil
		}
		var keep, lose view.Record
		if dup != nil {
			keep, err = selectRecord(ctx, tx, params.Table, params.OrgId, params.KeepId, liveOnly, true)
			if err != nil {
				return err
			}
			lose, err = selectRecord(ctx, tx, params.Table, params.OrgId, params.LoseId, liveOnly, true)
			if err != nil {
				return err
			}
		}
		updates, err := params.Merge(dup, keep, lose)
		if err != nil {
			return err
		}

		if _, err = updateRecord(ctx, tx, params.Table, params.OrgId, params.KeepId, updates); err != nil {
			return err
		}
		for _, rel := range params.Relations {
			_, err = tx.ExecContext(ctx, `update ? set ? = ? where ? = ? and org_id = ?`,
				pg.Ident(rel.Table), pg.Ident(rel.Column), params.KeepId, pg.Ident(rel.Column), params.LoseId, params.OrgId)
			if err != nil {
				return errors.Wrapf(err, "failed to repoint %s.%s", rel.Table, rel.Column)
			}
		}
		if _, err = deleteRecord(ctx, tx, params.Table, params.OrgId, params.LoseId); err != nil {
			return err
		}

		now := time.Now()
		_, err = tx.ModelContext(ctx, (*entity.DuplicateRecordEntity)(nil)).
			Set("status = ?", view.DuplicateStatusMerged).
			Set("merged_into_id = ?", params.KeepId).
			Set("reviewed_by = ?", params.ReviewedBy).
			Set("reviewed_at = ?", now).
			Set("updated_at = ?", now).
			Where("id = ?", params.DuplicateId).
			Update()
		if err != nil {
			return errors.Wrapf(err, "failed to mark duplicate record %s as merged", params.DuplicateId)
		}
		_, err = tx.ModelContext(ctx, (*entity.DuplicateRecordEntity)(nil)).
			Set("status = ?", view.DuplicateStatusDismissed).
			Set("dismissed_reason = ?", MergedRecordDismissReason).
			Set("reviewed_by = ?", params.ReviewedBy).
			Set("reviewed_at = ?", now).
			Set("updated_at = ?", now).
			Where("org_id = ?", params.OrgId).
			Where("entity_type = ?", dup.EntityType).
			Where("status = ?", view.DuplicateStatusPending).
			Where("id != ?", params.DuplicateId).
			Where("(record_id_1 = ? or record_id_2 = ?)", params.LoseId, params.LoseId).
			Update()
		if err != nil {
			return errors.Wrap(err, "failed to dismiss pairs of the merged record")
		}
		return nil
	})
}
