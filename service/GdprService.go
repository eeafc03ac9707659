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
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/archive"
	secctx "github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/context"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/entity"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/exception"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/metrics"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/repository"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/iancoleman/orderedmap"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"
)

const AnonymizedName = "Anonymized"

const manifestFileName = "manifest.json"

type GdprService interface {
	CreateRequest(ctx context.Context, secCtx secctx.SecurityContext, req view.CreateGdprRequestReq) (*view.GdprRequest, error)
	GetRequest(ctx context.Context, secCtx secctx.SecurityContext, id string) (*view.GdprRequest, error)
	ListRequests(ctx context.Context, secCtx secctx.SecurityContext, filter view.GdprRequestsFilter) (*view.GdprRequests, error)
	ProcessRequest(ctx context.Context, secCtx secctx.SecurityContext, id string, req view.ProcessGdprRequestReq) (*view.GdprRequest, error)
	GetExportFile(ctx context.Context, secCtx secctx.SecurityContext, id string) (string, []byte, error)
}

func NewGdprService(
	registry EntitySchemaRegistry,
	gdprRepo repository.GdprRepository,
	recordRepo repository.RecordRepository,
	storage MinioStorageService,
	auditService AuditService,
	defaultDueDays int,
	anonymizedEmailDomain string) GdprService {
	return &gdprServiceImpl{
		registry:              registry,
		gdprRepo:              gdprRepo,
		recordRepo:            recordRepo,
		storage:               storage,
		auditService:          auditService,
		defaultDueDays:        defaultDueDays,
		anonymizedEmailDomain: anonymizedEmailDomain,
	}
}

type gdprServiceImpl struct {
	registry              EntitySchemaRegistry
	gdprRepo              repository.GdprRepository
	recordRepo            repository.RecordRepository
	storage               MinioStorageService
	auditService          AuditService
	defaultDueDays        int
	anonymizedEmailDomain string
}

func GdprRequestNumberPrefix(t time.Time) string {
	return fmt.Sprintf("GDPR-%d-", t.Year())
}

func (g gdprServiceImpl) CreateRequest(ctx context.Context, secCtx secctx.SecurityContext, req view.CreateGdprRequestReq) (*view.GdprRequest, error) {
	now := time.Now()
	dueDate := now.AddDate(0, 0, g.defaultDueDays)
	if req.DueDate != nil {
		dueDate = *req.DueDate
	}
	ent := &entity.GdprRequestEntity{
		Id:           uuid.New().String(),
		OrgId:        secCtx.GetOrgId(),
		RequestType:  string(req.RequestType),
		SubjectEmail: strings.ToLower(strings.TrimSpace(req.SubjectEmail)),
		SubjectName:  req.SubjectName,
		SubjectPhone: req.SubjectPhone,
		Status:       string(view.GdprStatusPending),
		DueDate:      dueDate,
		Notes:        req.Notes,
		CreatedBy:    secCtx.GetUserId(),
		CreatedAt:    now,
	}
	if err := g.gdprRepo.CreateRequest(ctx, ent, GdprRequestNumberPrefix(now)); err != nil {
		return nil, err
	}
	g.auditService.TrackEvent(ctx, secCtx, view.AuditGdprCreated, "gdpr_request", ent.Id, map[string]interface{}{
		"requestNumber": ent.RequestNumber,
		"requestType":   ent.RequestType,
	})
	result := entity.MakeGdprRequestView(*ent)
	return &result, nil
}

func (g gdprServiceImpl) GetRequest(ctx context.Context, secCtx secctx.SecurityContext, id string) (*view.GdprRequest, error) {
	ent, err := g.getRequest(ctx, secCtx.GetOrgId(), id)
	if err != nil {
		return nil, err
	}
	result := entity.MakeGdprRequestView(*ent)
	return &result, nil
}

func (g gdprServiceImpl) ListRequests(ctx context.Context, secCtx secctx.SecurityContext, filter view.GdprRequestsFilter) (*view.GdprRequests, error) {
	ents, total, err := g.gdprRepo.ListRequests(ctx, secCtx.GetOrgId(), filter)
	if err != nil {
		return nil, err
	}
	result := &view.GdprRequests{Requests: make([]view.GdprRequest, 0, len(ents)), Total: total}
	for _, ent := range ents {
		result.Requests = append(result.Requests, entity.MakeGdprRequestView(ent))
	}
	return result, nil
}

func (g gdprServiceImpl) ProcessRequest(ctx context.Context, secCtx secctx.SecurityContext, id string, req view.ProcessGdprRequestReq) (*view.GdprRequest, error) {
	ent, err := g.getRequest(ctx, secCtx.GetOrgId(), id)
	if err != nil {
		return nil, err
	}
	if view.GdprStatus(ent.Status).Terminal() {
		return nil, &exception.CustomError{
			Status:  http.StatusConflict,
			Code:    exception.GdprRequestClosed,
			Message: exception.GdprRequestClosedMsg,
			Params:  map[string]interface{}{"id": id, "status": ent.Status},
		}
	}
	switch req.Action {
	case view.GdprActionDiscover:
		err = g.discover(ctx, ent)
	case view.GdprActionExport:
		err = g.export(ctx, ent)
	case view.GdprActionAnonymize:
		err = g.anonymize(ctx, ent)
	case view.GdprActionComplete, view.GdprActionReject:
		now := time.Now()
		ent.Status = string(view.GdprStatusCompleted)
		if req.Action == view.GdprActionReject {
			ent.Status = string(view.GdprStatusRejected)
		}
		ent.ProcessedBy = secCtx.GetUserId()
		ent.ProcessedAt = &now
		ent.ComplianceNotes = req.Notes
	default:
		return nil, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.InvalidGdprAction,
			Message: exception.InvalidGdprActionMsg,
			Params:  map[string]interface{}{"action": req.Action},
		}
	}
	if err != nil {
		return nil, err
	}
	if err = g.gdprRepo.UpdateRequest(ctx, ent); err != nil {
		return nil, err
	}
	metrics.GdprRequestsProcessed.WithLabelValues(ent.RequestType, string(req.Action)).Inc()
	g.auditService.TrackEvent(ctx, secCtx, view.AuditGdprProcessed, "gdpr_request", ent.Id, map[string]interface{}{
		"requestNumber": ent.RequestNumber,
		"action":        req.Action,
		"status":        ent.Status,
	})
	result := entity.MakeGdprRequestView(*ent)
	return &result, nil
}

func (g gdprServiceImpl) subjectSchemas() []view.EntitySchema {
	result := make([]view.EntitySchema, 0)
	for _, schema := range g.registry.All() {
		if len(schema.GdprSubjectColumns) > 0 {
			result = append(result, schema)
		}
	}
	return result
}

func (g gdprServiceImpl) discover(ctx context.Context, ent *entity.GdprRequestEntity) error {
	found := make(map[string]int)
	mutex := sync.Mutex{}
	eg, egCtx := errgroup.WithContext(ctx)
	for _, schema := range g.subjectSchemas() {
		schema := schema
		eg.Go(func() error {
			count, err := g.recordRepo.CountBySubject(egCtx, schema.Table, ent.OrgId, schema.GdprSubjectColumns, ent.SubjectEmail)
			if err != nil {
				return err
			}
			mutex.Lock()
			found[schema.Table] = count
			mutex.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	ent.DataFound = found
	ent.Status = string(view.GdprStatusInReview)
	return nil
}

func (g gdprServiceImpl) export(ctx context.Context, ent *entity.GdprRequestEntity) error {
	requestType := view.GdprRequestType(ent.RequestType)
	if requestType != view.GdprTypeDsar && requestType != view.GdprTypePortability {
		return &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.GdprExportNotAllowed,
			Message: exception.GdprExportNotAllowedMsg,
			Params:  map[string]interface{}{"type": ent.RequestType},
		}
	}
	data := view.SubjectData{}
	for _, schema := range g.subjectSchemas() {
		records, err := g.recordRepo.FindBySubject(ctx, schema.Table, ent.OrgId, schema.GdprSubjectColumns, ent.SubjectEmail)
		if err != nil {
			return err
		}
		data[schema.Table] = records
	}
	bundle, err := BuildSubjectBundle(ent, data, time.Now())
	if err != nil {
		return err
	}
	ent.ExportFileName = slug.Make(ent.RequestNumber) + ".zip"
	if g.storage.IsActive() {
		objectPath := ObjectPath(view.GDPR_BUNDLES_FOLDER, ent.OrgId, ent.Id, ent.ExportFileName)
		if err = g.storage.UploadFile(ctx, objectPath, "application/zip", bundle); err != nil {
			return err
		}
		ent.ExportFilePath = objectPath
	} else {
		if err = g.gdprRepo.StoreExportFile(ctx, ent.Id, bundle); err != nil {
			return err
		}
		ent.ExportFilePath = ""
	}
	ent.Status = string(view.GdprStatusProcessing)
	log.Infof("Portability bundle for GDPR request %s built: %d bytes", ent.RequestNumber, len(bundle))
	return nil
}

// BuildSubjectBundle packs one <table>.json file per table plus a manifest listing row counts.
func BuildSubjectBundle(ent *entity.GdprRequestEntity, data view.SubjectData, generatedAt time.Time) ([]byte, error) {
	tables := make([]string, 0, len(data))
	for table := range data {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	counts := orderedmap.New()
	files := make(map[string][]byte, len(tables)+1)
	names := make([]string, 0, len(tables)+1)
	names = append(names, manifestFileName)
	for _, table := range tables {
		records := data[table]
		if records == nil {
			records = []view.Record{}
		}
		content, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return nil, err
		}
		name := table + ".json"
		files[name] = content
		names = append(names, name)
		counts.Set(table, len(records))
	}

	manifest := orderedmap.New()
	manifest.Set("requestNumber", ent.RequestNumber)
	manifest.Set("requestType", ent.RequestType)
	manifest.Set("subjectEmail", ent.SubjectEmail)
	manifest.Set("generatedAt", generatedAt.UTC().Format(time.RFC3339))
	manifest.Set("tables", counts)
	content, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, err
	}
	files[manifestFileName] = content
	return archive.BuildZip(names, files)
}

func (g gdprServiceImpl) anonymize(ctx context.Context, ent *entity.GdprRequestEntity) error {
	targets := make([]repository.AnonymizeTarget, 0)
	for _, schema := range g.subjectSchemas() {
		values := AnonymizedValues(&schema, ent.OrgId, ent.SubjectEmail, g.anonymizedEmailDomain)
		if len(values) == 0 {
			continue
		}
		targets = append(targets, repository.AnonymizeTarget{
			Table:          schema.Table,
			SubjectColumns: schema.GdprSubjectColumns,
			Values:         values,
		})
	}
	counts, err := g.gdprRepo.AnonymizeSubject(ctx, ent.OrgId, ent.SubjectEmail, targets)
	if err != nil {
		return err
	}
	ent.AnonymizedCounts = counts
	ent.Status = string(view.GdprStatusProcessing)
	return nil
}

// AnonymizedValues returns the placeholder for every PII column of the schema.
// The pseudonymous email is stable for the same subject within an organization.
func AnonymizedValues(schema *view.EntitySchema, orgId string, subject string, emailDomain string) view.Record {
	values := view.Record{}
	for _, column := range schema.PiiColumns {
		f := schema.FieldByNameOrColumn(column)
		fieldType := view.FieldTypeString
		if f != nil {
			fieldType = f.Type
		}
		switch fieldType {
		case view.FieldTypeEmail:
			values[column] = AnonymizedEmail(orgId, subject, emailDomain)
		case view.FieldTypeString:
			values[column] = AnonymizedName
		default:
			values[column] = nil
		}
	}
	return values
}

func AnonymizedEmail(orgId string, subject string, domain string) string {
	sum := blake2b.Sum256([]byte(orgId + ":" + strings.ToLower(strings.TrimSpace(subject))))
	return fmt.Sprintf("anonymized+%s@%s", hex.EncodeToString(sum[:8]), domain)
}

func (g gdprServiceImpl) GetExportFile(ctx context.Context, secCtx secctx.SecurityContext, id string) (string, []byte, error) {
	ent, err := g.getRequest(ctx, secCtx.GetOrgId(), id)
	if err != nil {
		return "", nil, err
	}
	var data []byte
	if ent.ExportFilePath != "" && g.storage.IsActive() {
		data, err = g.storage.GetFile(ctx, ent.ExportFilePath)
	} else if ent.ExportFileName != "" {
		data, err = g.gdprRepo.GetExportFile(ctx, ent.Id)
	}
	if err != nil {
		return "", nil, err
	}
	if data == nil {
		return "", nil, &exception.CustomError{
			Status:  http.StatusConflict,
			Code:    exception.ExportNotReady,
			Message: exception.ExportNotReadyMsg,
			Params:  map[string]interface{}{"id": id, "status": ent.Status},
		}
	}
	return ent.ExportFileName, data, nil
}

func (g gdprServiceImpl) getRequest(ctx context.Context, orgId string, id string) (*entity.GdprRequestEntity, error) {
	ent, err := g.gdprRepo.GetRequest(ctx, orgId, id)
	if err != nil {
		return nil, err
	}
	if ent == nil {
		return nil, &exception.CustomError{
			Status:  http.StatusNotFound,
			Code:    exception.GdprRequestNotFound,
			Message: exception.GdprRequestNotFoundMsg,
			Params:  map[string]interface{}{"id": id},
		}
	}
	return ent, nil
}
