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

package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	secctx "github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/context"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/entity"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/exception"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/metrics"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/repository"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
)

type MergeService interface {
	Merge(ctx context.Context, secCtx secctx.SecurityContext, duplicateId string, req view.MergeDuplicatesReq) error
}

func NewMergeService(registry EntitySchemaRegistry, duplicateRepo repository.DuplicateRepository, auditService AuditService) MergeService {
	return &mergeServiceImpl{
		registry:      registry,
		duplicateRepo: duplicateRepo,
		auditService:  auditService,
	}
}

type mergeServiceImpl struct {
	registry      EntitySchemaRegistry
	duplicateRepo repository.DuplicateRepository
	auditService  AuditService
}

func (m mergeServiceImpl) Merge(ctx context.Context, secCtx secctx.SecurityContext, duplicateId string, req view.MergeDuplicatesReq) error {
	orgId := secCtx.GetOrgId()
	dup, err := m.duplicateRepo.GetDuplicate(ctx, orgId, duplicateId)
	if err != nil {
		return err
	}
	if dup == nil {
		return duplicateNotFound(duplicateId)
	}
	schema, err := m.registry.GetSchema(dup.EntityType)
	if err != nil {
		return err
	}
	overrides, err := resolveOverrides(schema, req.FieldOverrides)
	if err != nil {
		return err
	}

	var filled []string
	err = m.duplicateRepo.MergeDuplicate(ctx, repository.MergeParams{
		OrgId:       orgId,
		DuplicateId: duplicateId,
		KeepId:      req.KeepRecordId,
		LoseId:      req.MergeRecordId,
		Table:       schema.Table,
		Relations:   schema.Relations,
		ReviewedBy:  secCtx.GetUserId(),
		Merge: func(locked *entity.DuplicateRecordEntity, keep view.Record, lose view.Record) (view.Record, error) {
			if locked == nil {
				return nil, duplicateNotFound(duplicateId)
			}
			if view.DuplicateStatus(locked.Status) != view.DuplicateStatusPending {
				return nil, duplicateAlreadyResolved(duplicateId, locked.Status)
			}
			if !samePair(locked, req.KeepRecordId, req.MergeRecordId) {
				return nil, &exception.CustomError{
					Status:  http.StatusBadRequest,
					Code:    exception.InvalidMergePair,
					Message: exception.InvalidMergePairMsg,
					Params:  map[string]interface{}{"id": duplicateId, "keepId": req.KeepRecordId, "mergeId": req.MergeRecordId},
				}
			}
			if keep == nil {
				return nil, recordNotFound(req.KeepRecordId, schema.Name)
			}
			if lose == nil {
				return nil, recordNotFound(req.MergeRecordId, schema.Name)
			}
			updates := MergeValues(keep, lose, schema.Fields)
			for column := range updates {
				filled = append(filled, column)
			}
			for column, value := range overrides {
				updates[column] = value
			}
			updates[view.ColumnUpdatedAt] = time.Now()
			return updates, nil
		},
	})
	if err != nil {
		return err
	}
	metrics.RecordsMerged.WithLabelValues(schema.Name).Inc()
	m.auditService.TrackEvent(ctx, secCtx, view.AuditDuplicateMerged, schema.Name, req.KeepRecordId, map[string]interface{}{
		"duplicateId":    duplicateId,
		"mergedRecordId": req.MergeRecordId,
		"filledColumns":  filled,
	})
	return nil
}

// MergeValues returns the importable columns where keep has no value and lose has one.
// Non-empty values of keep are never part of the result.
func MergeValues(keep view.Record, lose view.Record, fields []view.EntityFieldDescriptor) view.Record {
	updates := view.Record{}
	for _, f := range fields {
		if !f.Importable {
			continue
		}
		if !isEmptyValue(keep[f.DbColumn]) || isEmptyValue(lose[f.DbColumn]) {
			continue
		}
		updates[f.DbColumn] = lose[f.DbColumn]
	}
	return updates
}

func isEmptyValue(value interface{}) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func samePair(dup *entity.DuplicateRecordEntity, keepId string, loseId string) bool {
	return (dup.RecordId1 == keepId && dup.RecordId2 == loseId) || (dup.RecordId1 == loseId && dup.RecordId2 == keepId)
}

// resolveOverrides maps keys given by field name or column to columns of importable fields
// and converts the values to the field types.
func resolveOverrides(schema *view.EntitySchema, overrides map[string]interface{}) (view.Record, error) {
	result := view.Record{}
	for key, value := range overrides {
		f := schema.FieldByNameOrColumn(key)
		if f == nil || !f.Importable {
			return nil, invalidUpdateValue(key, "field can not be updated")
		}
		converted, err := ConvertAny(*f, value)
		if err != nil {
			return nil, invalidUpdateValue(key, err.Error())
		}
		result[f.DbColumn] = converted
	}
	return result, nil
}

func invalidUpdateValue(field string, reason string) error {
	return &exception.CustomError{
		Status:  http.StatusBadRequest,
		Code:    exception.InvalidUpdateValue,
		Message: exception.InvalidUpdateValueMsg,
		Params:  map[string]interface{}{"field": field, "reason": reason},
	}
}

func recordNotFound(id string, entityType string) error {
	return &exception.CustomError{
		Status:  http.StatusNotFound,
		Code:    exception.RecordNotFound,
		Message: exception.RecordNotFoundMsg,
		Params:  map[string]interface{}{"id": id, "entityType": entityType},
	}
}
