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
	"errors"
	"net/http"
	"time"

	secctx "github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/context"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/entity"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/exception"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/metrics"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/repository"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
	"github.com/google/uuid"
)

type ArchiveService interface {
	Archive(ctx context.Context, secCtx secctx.SecurityContext, req view.ArchiveRecordReq) (*view.ArchivedRecord, error)
	Restore(ctx context.Context, secCtx secctx.SecurityContext, archivedId string) error
	PermanentlyDelete(ctx context.Context, secCtx secctx.SecurityContext, archivedId string) error
	ListArchived(ctx context.Context, secCtx secctx.SecurityContext, filter view.ArchivedRecordsFilter) (*view.ArchivedRecords, error)
	BulkDelete(ctx context.Context, secCtx secctx.SecurityContext, req view.BulkDeleteReq) (*view.BulkResult, error)
	BulkUpdate(ctx context.Context, secCtx secctx.SecurityContext, req view.BulkUpdateReq) (*view.BulkResult, error)
	// PurgeExpired permanently removes archive entries whose retention ended before the given time.
	PurgeExpired(ctx context.Context, expiredBefore time.Time, batchSize int) (int, error)
}

func NewArchiveService(
	registry EntitySchemaRegistry,
	archiveRepo repository.ArchiveRepository,
	recordRepo repository.RecordRepository,
	auditService AuditService,
	defaultRetentionDays int,
	maxBulkItems int) ArchiveService {
	return &archiveServiceImpl{
		registry:             registry,
		archiveRepo:          archiveRepo,
		recordRepo:           recordRepo,
		auditService:         auditService,
		defaultRetentionDays: defaultRetentionDays,
		maxBulkItems:         maxBulkItems,
	}
}

type archiveServiceImpl struct {
	registry             EntitySchemaRegistry
	archiveRepo          repository.ArchiveRepository
	recordRepo           repository.RecordRepository
	auditService         AuditService
	defaultRetentionDays int
	maxBulkItems         int
}

func (a archiveServiceImpl) Archive(ctx context.Context, secCtx secctx.SecurityContext, req view.ArchiveRecordReq) (*view.ArchivedRecord, error) {
	if req.Reason == "" {
		req.Reason = view.ArchiveReasonManual
	}
	if !view.ValidArchiveReason(req.Reason) {
		return nil, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.InvalidArchiveReason,
			Message: exception.InvalidArchiveReasonMsg,
			Params:  map[string]interface{}{"reason": req.Reason},
		}
	}
	ent, err := a.archive(ctx, secCtx, req)
	if err != nil {
		return nil, err
	}
	a.auditService.TrackEvent(ctx, secCtx, view.AuditRecordArchived, req.EntityType, req.RecordId, map[string]interface{}{
		"archivedId": ent.Id,
		"reason":     req.Reason,
	})
	result := entity.MakeArchivedRecordView(*ent)
	return &result, nil
}

func (a archiveServiceImpl) archive(ctx context.Context, secCtx secctx.SecurityContext, req view.ArchiveRecordReq) (*entity.ArchivedRecordEntity, error) {
	schema, err := a.registry.GetSchema(req.EntityType)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	retentionUntil := req.RetentionUntil
	if retentionUntil == nil && a.defaultRetentionDays > 0 {
		r := now.AddDate(0, 0, a.defaultRetentionDays)
		retentionUntil = &r
	}
	ent, err := a.archiveRepo.ArchiveRecord(ctx, schema.Table, secCtx.GetOrgId(), req.RecordId, func(record view.Record) (*entity.ArchivedRecordEntity, error) {
		if record == nil {
			return nil, recordNotFound(req.RecordId, req.EntityType)
		}
		return &entity.ArchivedRecordEntity{
			Id:             uuid.New().String(),
			OrgId:          secCtx.GetOrgId(),
			EntityType:     req.EntityType,
			OriginalId:     req.RecordId,
			Data:           record,
			ArchivedAt:     now,
			ArchivedBy:     secCtx.GetUserId(),
			ArchiveReason:  string(req.Reason),
			RetentionUntil: retentionUntil,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	metrics.ArchiveOperations.WithLabelValues(req.EntityType, "archive").Inc()
	return ent, nil
}

func (a archiveServiceImpl) Restore(ctx context.Context, secCtx secctx.SecurityContext, archivedId string) error {
	var entityType, originalId string
	ent, err := a.archiveRepo.RestoreRecord(ctx, secCtx.GetOrgId(), archivedId, func(ent *entity.ArchivedRecordEntity) (string, view.Record, error) {
		if ent == nil {
			return "", nil, archivedRecordNotFound(archivedId)
		}
		entityType, originalId = ent.EntityType, ent.OriginalId
		schema, err := a.registry.GetSchema(ent.EntityType)
		if err != nil {
			return "", nil, err
		}
		return schema.Table, RestoredRecord(ent), nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrRecordExists) {
			return &exception.CustomError{
				Status:  http.StatusConflict,
				Code:    exception.RestoreConflict,
				Message: exception.RestoreConflictMsg,
				Params:  map[string]interface{}{"id": originalId, "archivedId": archivedId, "entityType": entityType},
			}
		}
		return err
	}
	metrics.ArchiveOperations.WithLabelValues(ent.EntityType, "restore").Inc()
	a.auditService.TrackEvent(ctx, secCtx, view.AuditRecordRestored, ent.EntityType, ent.OriginalId, map[string]interface{}{"archivedId": archivedId})
	return nil
}

// RestoredRecord is the live row recreated from an archive snapshot under its original id.
func RestoredRecord(ent *entity.ArchivedRecordEntity) view.Record {
	record := make(view.Record, len(ent.Data)+3)
	for k, v := range ent.Data {
		record[k] = v
	}
	record[view.ColumnId] = ent.OriginalId
	record[view.ColumnOrgId] = ent.OrgId
	record[view.ColumnDeletedAt] = nil
	record[view.ColumnUpdatedAt] = time.Now()
	return record
}

func (a archiveServiceImpl) PermanentlyDelete(ctx context.Context, secCtx secctx.SecurityContext, archivedId string) error {
	ent, err := a.archiveRepo.GetArchived(ctx, secCtx.GetOrgId(), archivedId)
	if err != nil {
		return err
	}
	if ent == nil {
		return archivedRecordNotFound(archivedId)
	}
	deleted, err := a.archiveRepo.DeleteArchived(ctx, secCtx.GetOrgId(), archivedId)
	if err != nil {
		return err
	}
	if !deleted {
		return archivedRecordNotFound(archivedId)
	}
	metrics.ArchiveOperations.WithLabelValues(ent.EntityType, "delete").Inc()
	a.auditService.TrackEvent(ctx, secCtx, view.AuditRecordDeleted, ent.EntityType, ent.OriginalId, map[string]interface{}{"archivedId": archivedId})
	return nil
}

func (a archiveServiceImpl) ListArchived(ctx context.Context, secCtx secctx.SecurityContext, filter view.ArchivedRecordsFilter) (*view.ArchivedRecords, error) {
	if filter.EntityType != "" {
		if _, err := a.registry.GetSchema(filter.EntityType); err != nil {
			return nil, err
		}
	}
	ents, total, err := a.archiveRepo.ListArchived(ctx, secCtx.GetOrgId(), filter)
	if err != nil {
		return nil, err
	}
	result := &view.ArchivedRecords{Records: make([]view.ArchivedRecord, 0, len(ents)), Total: total}
	for _, ent := range ents {
		result.Records = append(result.Records, entity.MakeArchivedRecordView(ent))
	}
	return result, nil
}

func (a archiveServiceImpl) BulkDelete(ctx context.Context, secCtx secctx.SecurityContext, req view.BulkDeleteReq) (*view.BulkResult, error) {
	schema, err := a.registry.GetSchema(req.EntityType)
	if err != nil {
		return nil, err
	}
	if err = a.checkBulkSize(req.RecordIds); err != nil {
		return nil, err
	}
	archive := req.Archive != nil && *req.Archive
	result := &view.BulkResult{}
	for _, id := range req.RecordIds {
		if archive {
			_, err = a.archive(ctx, secCtx, view.ArchiveRecordReq{EntityType: req.EntityType, RecordId: id, Reason: view.ArchiveReasonBulkOperation})
		} else {
			err = a.softDelete(ctx, schema, secCtx.GetOrgId(), id)
		}
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, view.BulkError{Id: id, Message: err.Error()})
			continue
		}
		result.Processed++
	}
	a.auditService.TrackEvent(ctx, secCtx, view.AuditBulkDelete, req.EntityType, "", map[string]interface{}{
		"ids":       req.RecordIds,
		"archive":   archive,
		"processed": result.Processed,
		"failed":    result.Failed,
	})
	return result, nil
}

func (a archiveServiceImpl) softDelete(ctx context.Context, schema *view.EntitySchema, orgId string, id string) error {
	now := time.Now()
	updated, err := a.recordRepo.UpdateRecord(ctx, schema.Table, orgId, id, view.Record{
		view.ColumnDeletedAt: now,
		view.ColumnUpdatedAt: now,
	})
	if err != nil {
		return err
	}
	if !updated {
		return recordNotFound(id, schema.Name)
	}
	return nil
}

func (a archiveServiceImpl) BulkUpdate(ctx context.Context, secCtx secctx.SecurityContext, req view.BulkUpdateReq) (*view.BulkResult, error) {
	schema, err := a.registry.GetSchema(req.EntityType)
	if err != nil {
		return nil, err
	}
	if err = a.checkBulkSize(req.RecordIds); err != nil {
		return nil, err
	}
	updates := view.Record{}
	for key, value := range req.Updates {
		f := schema.FieldByNameOrColumn(key)
		if f == nil || !f.Importable {
			continue
		}
		converted, err := ConvertAny(*f, value)
		if err != nil {
			return nil, invalidUpdateValue(f.Name, err.Error())
		}
		updates[f.DbColumn] = converted
	}
	if len(updates) == 0 {
		return nil, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.NoValidUpdateFields,
			Message: exception.NoValidUpdateFieldsMsg,
		}
	}
	updates[view.ColumnUpdatedAt] = time.Now()

	result := &view.BulkResult{}
	for _, id := range req.RecordIds {
		updated, err := a.recordRepo.UpdateRecord(ctx, schema.Table, secCtx.GetOrgId(), id, updates)
		if err == nil && !updated {
			err = recordNotFound(id, schema.Name)
		}
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, view.BulkError{Id: id, Message: err.Error()})
			continue
		}
		result.Processed++
	}
	columns := make([]string, 0, len(updates))
	for column := range updates {
		columns = append(columns, column)
	}
	a.auditService.TrackEvent(ctx, secCtx, view.AuditBulkUpdate, req.EntityType, "", map[string]interface{}{
		"ids":       req.RecordIds,
		"columns":   columns,
		"processed": result.Processed,
		"failed":    result.Failed,
	})
	return result, nil
}

func (a archiveServiceImpl) PurgeExpired(ctx context.Context, expiredBefore time.Time, batchSize int) (int, error) {
	total := 0
	for {
		ids, err := a.archiveRepo.GetExpiredIds(ctx, expiredBefore, batchSize)
		if err != nil {
			return total, err
		}
		if len(ids) == 0 {
			return total, nil
		}
		deleted, err := a.archiveRepo.DeleteByIds(ctx, ids)
		if err != nil {
			return total, err
		}
		total += deleted
		metrics.ArchiveOperations.WithLabelValues("", "purge").Add(float64(deleted))
		if len(ids) < batchSize {
			return total, nil
		}
	}
}

func (a archiveServiceImpl) checkBulkSize(ids []string) error {
	if len(ids) > a.maxBulkItems {
		return &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.TooManyRecordIds,
			Message: exception.TooManyRecordIdsMsg,
			Params:  map[string]interface{}{"count": len(ids), "max": a.maxBulkItems},
		}
	}
	return nil
}

func archivedRecordNotFound(id string) error {
	return &exception.CustomError{
		Status:  http.StatusNotFound,
		Code:    exception.ArchivedRecordNotFound,
		Message: exception.ArchivedRecordNotFoundMsg,
		Params:  map[string]interface{}{"id": id},
	}
}
