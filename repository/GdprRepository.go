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
	"fmt"
	"time"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/db"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/entity"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
)

// AnonymizeTarget overwrites Values in every row of Table whose subject columns match the data subject.
type AnonymizeTarget struct {
	Table          string
	SubjectColumns []string
	Values         view.Record
}

type GdprRepository interface {
	// CreateRequest assigns the next request number with the given prefix inside the organization.
	CreateRequest(ctx context.Context, ent *entity.GdprRequestEntity, numberPrefix string) error
	GetRequest(ctx context.Context, orgId string, id string) (*entity.GdprRequestEntity, error)
	ListRequests(ctx context.Context, orgId string, filter view.GdprRequestsFilter) ([]entity.GdprRequestEntity, int, error)
	UpdateRequest(ctx context.Context, ent *entity.GdprRequestEntity) error
	CountRequests(ctx context.Context, orgId string, statuses ...view.GdprStatus) (int, error)
	CountOverdue(ctx context.Context, orgId string, now time.Time) (int, error)
	AnonymizeSubject(ctx context.Context, orgId string, subject string, targets []AnonymizeTarget) (map[string]int, error)
	StoreExportFile(ctx context.Context, requestId string, data []byte) error
	GetExportFile(ctx context.Context, requestId string) ([]byte, error)
}

func NewGdprRepository(cp db.ConnectionProvider) GdprRepository {
	return &gdprRepositoryImpl{cp: cp}
}

type gdprRepositoryImpl struct {
	cp db.ConnectionProvider
}

func (g gdprRepositoryImpl) CreateRequest(ctx context.Context, ent *entity.GdprRequestEntity, numberPrefix string) error {
	return g.cp.GetConnection().RunInTransaction(ctx, func(tx *pg.Tx) error {
		_, err := tx.ExecContext(ctx, `select pg_advisory_xact_lock(hashtext(?))`, ent.OrgId+":"+numberPrefix)
		if err != nil {
			return errors.Wrap(err, "failed to lock request numbers")
		}
		count, err := tx.ModelContext(ctx, (*entity.GdprRequestEntity)(nil)).
			Where("org_id = ?", ent.OrgId).
			Where("request_number like ?", numberPrefix+"%").
			Count()
		if err != nil {
			return err
		}
		ent.RequestNumber = fmt.Sprintf("%s%04d", numberPrefix, count+1)
		if _, err = tx.ModelContext(ctx, ent).Insert(); err != nil {
			return errors.Wrap(err, "failed to insert gdpr request")
		}
		return nil
	})
}

func (g gdprRepositoryImpl) GetRequest(ctx context.Context, orgId string, id string) (*entity.GdprRequestEntity, error) {
	result := new(entity.GdprRequestEntity)
	err := g.cp.GetConnection().ModelContext(ctx, result).
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

func (g gdprRepositoryImpl) ListRequests(ctx context.Context, orgId string, filter view.GdprRequestsFilter) ([]entity.GdprRequestEntity, int, error) {
	var result []entity.GdprRequestEntity
	query := g.cp.GetConnection().ModelContext(ctx, &result).
		Where("org_id = ?", orgId)
	if filter.Status != "" {
		query.Where("status = ?", filter.Status)
	}
	total, err := query.OrderExpr("created_at DESC").
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

func (g gdprRepositoryImpl) UpdateRequest(ctx context.Context, ent *entity.GdprRequestEntity) error {
	_, err := g.cp.GetConnection().ModelContext(ctx, ent).WherePK().Update()
	if err != nil {
		return errors.Wrapf(err, "failed to update gdpr request %s", ent.Id)
	}
	return nil
}

func (g gdprRepositoryImpl) CountRequests(ctx context.Context, orgId string, statuses ...view.GdprStatus) (int, error) {
	query := g.cp.GetConnection().ModelContext(ctx, (*entity.GdprRequestEntity)(nil)).
		Where("org_id = ?", orgId)
	if len(statuses) > 0 {
		query.Where("status in (?)", pg.In(statuses))
	}
	return query.Count()
}

func (g gdprRepositoryImpl) CountOverdue(ctx context.Context, orgId string, now time.Time) (int, error) {
	return g.cp.GetConnection().ModelContext(ctx, (*entity.GdprRequestEntity)(nil)).
		Where("org_id = ?", orgId).
		Where("status not in (?)", pg.In([]view.GdprStatus{view.GdprStatusCompleted, view.GdprStatusRejected})).
		Where("due_date < ?", now).
		Count()
}

func (g gdprRepositoryImpl) AnonymizeSubject(ctx context.Context, orgId string, subject string, targets []AnonymizeTarget) (map[string]int, error) {
	counts := make(map[string]int, len(targets))
	err := g.cp.GetConnection().RunInTransaction(ctx, func(tx *pg.Tx) error {
		for _, target := range targets {
			columns := sortedColumns(target.Values)
			if len(columns) == 0 || len(target.SubjectColumns) == 0 {
				continue
			}
			query := tx.ModelContext(ctx).TableExpr("? AS t", pg.Ident(target.Table))
			for _, column := range columns {
				query = query.Set("? = ?", pg.Ident(column), target.Values[column])
			}
			var ids []string
			_, err := query.
				Where("t.org_id = ?", orgId).
				WhereGroup(subjectMatch(target.SubjectColumns, subject)).
				Returning("t.id").
				Update(&ids)
			if err != nil {
				return errors.Wrapf(err, "failed to anonymize subject rows in %s", target.Table)
			}
			counts[target.Table] = len(ids)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (g gdprRepositoryImpl) StoreExportFile(ctx context.Context, requestId string, data []byte) error {
	ent := &entity.GdprExportFileEntity{RequestId: requestId, Data: data}
	_, err := g.cp.GetConnection().ModelContext(ctx, ent).
		OnConflict("(request_id) DO UPDATE").
		Set("data = EXCLUDED.data").
		Insert()
	if err != nil {
		return errors.Wrapf(err, "failed to store export of gdpr request %s", requestId)
	}
	return nil
}

func (g gdprRepositoryImpl) GetExportFile(ctx context.Context, requestId string) ([]byte, error) {
	ent := new(entity.GdprExportFileEntity)
	err := g.cp.GetConnection().ModelContext(ctx, ent).
		Where("request_id = ?", requestId).
		Select()
	if err != nil {
		if err == pg.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return ent.Data, nil
}
