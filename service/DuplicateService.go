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
	"fmt"
	"net/http"
	"time"

	secctx "github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/context"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/entity"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/exception"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/metrics"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/repository"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/utils"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// listing shows likely matches unless the caller asks for a different threshold
const defaultListMinConfidence = 0.5

type DuplicateSettings struct {
	MinConfidence float64
	MaxBlockSize  int
	PageSize      int
}

type DuplicateService interface {
	// DetectDuplicates starts a background detection run. Only one run per organization and entity type is allowed.
	DetectDuplicates(ctx context.Context, secCtx secctx.SecurityContext, entityType string) error
	Detect(ctx context.Context, orgId string, entityType string) (*view.DetectionResult, error)
	ListDuplicates(ctx context.Context, secCtx secctx.SecurityContext, filter view.DuplicatesFilter) (*view.Duplicates, error)
	GetDuplicateRecords(ctx context.Context, secCtx secctx.SecurityContext, id string) (*view.DuplicateRecords, error)
	DismissDuplicate(ctx context.Context, secCtx secctx.SecurityContext, id string, reason string) error
}

func NewDuplicateService(
	registry EntitySchemaRegistry,
	duplicateRepo repository.DuplicateRepository,
	recordRepo repository.RecordRepository,
	lockService JobLockService,
	auditService AuditService,
	settings DuplicateSettings) DuplicateService {
	return &duplicateServiceImpl{
		registry:      registry,
		duplicateRepo: duplicateRepo,
		recordRepo:    recordRepo,
		lockService:   lockService,
		auditService:  auditService,
		settings:      settings,
	}
}

type duplicateServiceImpl struct {
	registry      EntitySchemaRegistry
	duplicateRepo repository.DuplicateRepository
	recordRepo    repository.RecordRepository
	lockService   JobLockService
	auditService  AuditService
	settings      DuplicateSettings
}

func DetectionLockName(orgId string, entityType string) string {
	return fmt.Sprintf("duplicates:%s:%s", orgId, entityType)
}

func (d duplicateServiceImpl) DetectDuplicates(ctx context.Context, secCtx secctx.SecurityContext, entityType string) error {
	if _, err := d.detectableSchema(entityType); err != nil {
		return err
	}
	orgId := secCtx.GetOrgId()
	lock, err := d.lockService.TryLock(ctx, DetectionLockName(orgId, entityType))
	if err != nil {
		return err
	}
	if lock == nil {
		return &exception.CustomError{
			Status:  http.StatusConflict,
			Code:    exception.DetectionAlreadyRunning,
			Message: exception.DetectionAlreadyRunningMsg,
			Params:  map[string]interface{}{"entityType": entityType},
		}
	}
	utils.SafeAsync(func() {
		runCtx := context.Background()
		defer d.lockService.Unlock(runCtx, lock)
		result, err := d.Detect(runCtx, orgId, entityType)
		if err != nil {
			log.Errorf("Duplicate detection for %s in organization %s failed: %s", entityType, orgId, err.Error())
			return
		}
		d.auditService.TrackEvent(runCtx, secCtx, view.AuditDuplicatesDetected, entityType, "", map[string]interface{}{
			"scanned": result.Scanned,
			"created": result.Created,
			"updated": result.Updated,
			"skipped": result.Skipped,
		})
	})
	return nil
}

func (d duplicateServiceImpl) Detect(ctx context.Context, orgId string, entityType string) (*view.DetectionResult, error) {
	start := time.Now()
	schema, err := d.detectableSchema(entityType)
	if err != nil {
		return nil, err
	}
	records := make([]ScoringRecord, 0)
	afterId := ""
	for {
		page, err := d.recordRepo.ListRecords(ctx, schema.Table, orgId, view.RecordFilter{}, afterId, d.settings.PageSize)
		if err != nil {
			return nil, err
		}
		for _, record := range page {
			records = append(records, NewScoringRecord(schema, record))
		}
		if len(page) < d.settings.PageSize {
			break
		}
		afterId = page[len(page)-1].Id()
	}

	candidates, stats := FindCandidates(schema.DuplicateFields, records, d.settings.MaxBlockSize, d.settings.MinConfidence)
	if stats.SkippedBlocks > 0 {
		log.Warnf("Duplicate detection for %s skipped %d blocks larger than %d records", entityType, stats.SkippedBlocks, d.settings.MaxBlockSize)
	}
	result := &view.DetectionResult{
		Scanned:       len(records),
		Blocks:        stats.Blocks,
		SkippedBlocks: stats.SkippedBlocks,
		PairsCompared: stats.PairsCompared,
	}
	for _, c := range candidates {
		existing, err := d.duplicateRepo.GetByPair(ctx, orgId, entityType, c.RecordId1, c.RecordId2)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if view.DuplicateStatus(existing.Status) != view.DuplicateStatusPending {
				result.Skipped++
				continue
			}
			if err = d.duplicateRepo.UpdateScore(ctx, existing.Id, c.ConfidenceScore, c.MatchFields); err != nil {
				return nil, err
			}
			result.Updated++
			continue
		}
		now := time.Now()
		ent := &entity.DuplicateRecordEntity{
			Id:              uuid.New().String(),
			OrgId:           orgId,
			EntityType:      entityType,
			RecordId1:       c.RecordId1,
			RecordId2:       c.RecordId2,
			ConfidenceScore: c.ConfidenceScore,
			MatchFields:     c.MatchFields,
			Status:          string(view.DuplicateStatusPending),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err = d.duplicateRepo.CreateDuplicate(ctx, ent); err != nil {
			return nil, err
		}
		result.Created++
	}
	metrics.DuplicateDetectionDuration.WithLabelValues(entityType).Observe(time.Since(start).Seconds())
	metrics.DuplicatePairsFound.WithLabelValues(entityType).Add(float64(result.Created))
	log.Infof("Duplicate detection for %s in organization %s: %d records, %d pairs compared, %d created, %d updated, %d skipped in %d ms",
		entityType, orgId, result.Scanned, result.PairsCompared, result.Created, result.Updated, result.Skipped, time.Since(start).Milliseconds())
	return result, nil
}

func (d duplicateServiceImpl) ListDuplicates(ctx context.Context, secCtx secctx.SecurityContext, filter view.DuplicatesFilter) (*view.Duplicates, error) {
	if filter.EntityType != "" {
		if _, err := d.registry.GetSchema(filter.EntityType); err != nil {
			return nil, err
		}
	}
	if filter.Status == "" {
		filter.Status = view.DuplicateStatusPending
	}
	if filter.MinConfidence == nil {
		minConfidence := defaultListMinConfidence
		filter.MinConfidence = &minConfidence
	}
	ents, total, err := d.duplicateRepo.ListDuplicates(ctx, secCtx.GetOrgId(), filter)
	if err != nil {
		return nil, err
	}
	result := &view.Duplicates{Duplicates: make([]view.DuplicateRecord, 0, len(ents)), Total: total}
	for _, ent := range ents {
		result.Duplicates = append(result.Duplicates, entity.MakeDuplicateRecordView(ent))
	}
	return result, nil
}

func (d duplicateServiceImpl) GetDuplicateRecords(ctx context.Context, secCtx secctx.SecurityContext, id string) (*view.DuplicateRecords, error) {
	dup, err := d.getDuplicate(ctx, secCtx.GetOrgId(), id)
	if err != nil {
		return nil, err
	}
	schema, err := d.registry.GetSchema(dup.EntityType)
	if err != nil {
		return nil, err
	}
	records := make([]view.Record, 0, 2)
	for _, recordId := range []string{dup.RecordId1, dup.RecordId2} {
		record, err := d.recordRepo.GetRecord(ctx, schema.Table, secCtx.GetOrgId(), recordId)
		if err != nil {
			return nil, err
		}
		if record != nil {
			records = append(records, record)
		}
	}
	return &view.DuplicateRecords{
		Duplicate: entity.MakeDuplicateRecordView(*dup),
		Records:   records,
		EntityConfig: view.EntityTypeDetails{
			Name:        schema.Name,
			DisplayName: schema.DisplayName,
			Fields:      schema.Fields,
		},
	}, nil
}

func (d duplicateServiceImpl) DismissDuplicate(ctx context.Context, secCtx secctx.SecurityContext, id string, reason string) error {
	dup, err := d.getDuplicate(ctx, secCtx.GetOrgId(), id)
	if err != nil {
		return err
	}
	if view.DuplicateStatus(dup.Status) != view.DuplicateStatusPending {
		return duplicateAlreadyResolved(id, dup.Status)
	}
	dismissed, err := d.duplicateRepo.DismissDuplicate(ctx, secCtx.GetOrgId(), id, reason, secCtx.GetUserId())
	if err != nil {
		return err
	}
	if !dismissed {
		// resolved concurrently
		current, err := d.getDuplicate(ctx, secCtx.GetOrgId(), id)
		if err != nil {
			return err
		}
		return duplicateAlreadyResolved(id, current.Status)
	}
	d.auditService.TrackEvent(ctx, secCtx, view.AuditDuplicateDismissed, dup.EntityType, id, map[string]interface{}{"reason": reason})
	return nil
}

func (d duplicateServiceImpl) getDuplicate(ctx context.Context, orgId string, id string) (*entity.DuplicateRecordEntity, error) {
	dup, err := d.duplicateRepo.GetDuplicate(ctx, orgId, id)
	if err != nil {
		return nil, err
	}
	if dup == nil {
		return nil, duplicateNotFound(id)
	}
	return dup, nil
}

func (d duplicateServiceImpl) detectableSchema(entityType string) (*view.EntitySchema, error) {
	schema, err := d.registry.GetSchema(entityType)
	if err != nil {
		return nil, err
	}
	if len(schema.DuplicateFields) == 0 {
		return nil, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.DetectionNotSupported,
			Message: exception.DetectionNotSupportedMsg,
			Params:  map[string]interface{}{"entityType": entityType},
		}
	}
	return schema, nil
}

func duplicateNotFound(id string) error {
	return &exception.CustomError{
		Status:  http.StatusNotFound,
		Code:    exception.DuplicateNotFound,
		Message: exception.DuplicateNotFoundMsg,
		Params:  map[string]interface{}{"id": id},
	}
}

func duplicateAlreadyResolved(id string, status string) error {
	return &exception.CustomError{
		Status:  http.StatusConflict,
		Code:    exception.DuplicateAlreadyResolved,
		Message: exception.DuplicateAlreadyResolvedMsg,
		Params:  map[string]interface{}{"id": id, "status": status},
	}
}
