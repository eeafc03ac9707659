package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	secctx "github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/context"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/entity"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/exception"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/metrics"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/repository"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/utils"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shaj13/libcache"
	_ "github.com/shaj13/libcache/lru"
	log "github.com/sirupsen/logrus"
)

const exportFileApiPath = "/api/v1/data/export/jobs/%s/file"

type ExportSettings struct {
	MaxRows        int
	PageSize       int
	ExpirationDays int
	DownloadUrlTTL time.Duration
}

type ExportService interface {
	CreateExportJob(ctx context.Context, secCtx secctx.SecurityContext, req view.CreateExportJobReq) (*view.ExportJob, error)
	// Generate produces the file of a pending job. Failures are stored on the job.
	Generate(ctx context.Context, job *entity.ExportJobEntity) error
	GetExportJob(ctx context.Context, secCtx secctx.SecurityContext, id string) (*view.ExportJob, error)
	ListExportJobs(ctx context.Context, secCtx secctx.SecurityContext, filter view.ExportJobsFilter) (*view.ExportJobs, error)
	GetExportDownloadUrl(ctx context.Context, secCtx secctx.SecurityContext, id string) (*view.ExportDownload, error)
	GetExportFile(ctx context.Context, secCtx secctx.SecurityContext, id string) (string, string, []byte, error)
	// ExpireExports removes the files of completed jobs expired before the given time.
	ExpireExports(ctx context.Context, expiredBefore time.Time, batchSize int) (int, error)
}

func NewExportService(
	registry EntitySchemaRegistry,
	exportJobRepo repository.ExportJobRepository,
	recordRepo repository.RecordRepository,
	storage MinioStorageService,
	auditService AuditService,
	settings ExportSettings) ExportService {
	urlCache := libcache.LRU.New(1000)
	return &exportServiceImpl{
		registry:      registry,
		exportJobRepo: exportJobRepo,
		recordRepo:    recordRepo,
		storage:       storage,
		auditService:  auditService,
		settings:      settings,
		urlCache:      urlCache,
	}
}

type exportServiceImpl struct {
	registry      EntitySchemaRegistry
	exportJobRepo repository.ExportJobRepository
	recordRepo    repository.RecordRepository
	storage       MinioStorageService
	auditService  AuditService
	settings      ExportSettings
	urlCache      libcache.Cache
}

func (e exportServiceImpl) CreateExportJob(ctx context.Context, secCtx secctx.SecurityContext, req view.CreateExportJobReq) (*view.ExportJob, error) {
	schema, err := e.exportableSchema(req.EntityType)
	if err != nil {
		return nil, err
	}
	if _, err = resolveColumns(schema, req.Columns); err != nil {
		return nil, err
	}
	if _, err = buildRecordFilter(schema, req.Filters); err != nil {
		return nil, err
	}
	exportName := strings.TrimSpace(req.ExportName)
	if exportName == "" {
		exportName = req.EntityType + "-export"
	}
	includeHeaders := true
	if req.IncludeHeaders != nil {
		includeHeaders = *req.IncludeHeaders
	}
	job := &entity.ExportJobEntity{
		Id:             uuid.New().String(),
		OrgId:          secCtx.GetOrgId(),
		EntityType:     req.EntityType,
		ExportName:     exportName,
		Columns:        req.Columns,
		Format:         string(req.Format),
		Filters:        req.Filters,
		IncludeHeaders: includeHeaders,
		Status:         string(view.ExportStatusPending),
		CreatedBy:      secCtx.GetUserId(),
		CreatedAt:      time.Now(),
	}
	if err = e.exportJobRepo.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	e.auditService.TrackEvent(ctx, secCtx, view.AuditExportCreated, req.EntityType, job.Id, map[string]interface{}{
		"format":  req.Format,
		"columns": req.Columns,
	})
	result := entity.MakeExportJobView(*job)
	utils.SafeAsync(func() {
		if err := e.Generate(context.Background(), job); err != nil {
			log.Errorf("Export job %s failed: %s", job.Id, err.Error())
		}
	})
	return &result, nil
}

func (e exportServiceImpl) Generate(ctx context.Context, job *entity.ExportJobEntity) error {
	start := time.Now()
	job.Status = string(view.ExportStatusProcessing)
	if err := e.exportJobRepo.UpdateJob(ctx, job); err != nil {
		return err
	}
	genErr := e.generate(ctx, job)
	completed := time.Now()
	job.CompletedAt = &completed
	if genErr != nil {
		job.Status = string(view.ExportStatusFailed)
		job.ErrorMessage = genErr.Error()
	} else {
		job.Status = string(view.ExportStatusCompleted)
		expiresAt := completed.AddDate(0, 0, e.settings.ExpirationDays)
		job.ExpiresAt = &expiresAt
	}
	metrics.ExportJobsFinished.WithLabelValues(job.EntityType, job.Format, job.Status).Inc()
	if err := e.exportJobRepo.UpdateJob(ctx, job); err != nil {
		return err
	}
	utils.PerfLog(start, 10*time.Second, fmt.Sprintf("export job %s of %d records", job.Id, job.RecordCount))
	return genErr
}

func (e exportServiceImpl) generate(ctx context.Context, job *entity.ExportJobEntity) error {
	schema, err := e.registry.GetSchema(job.EntityType)
	if err != nil {
		return err
	}
	fields, err := resolveColumns(schema, job.Columns)
	if err != nil {
		return err
	}
	filter, err := buildRecordFilter(schema, job.Filters)
	if err != nil {
		return err
	}
	count, err := e.recordRepo.CountRecords(ctx, schema.Table, job.OrgId, filter)
	if err != nil {
		return err
	}
	if count > e.settings.MaxRows {
		return &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.ExportTooLarge,
			Message: exception.ExportTooLargeMsg,
			Params:  map[string]interface{}{"count": count, "limit": e.settings.MaxRows},
		}
	}

	writer, err := NewExportWriter(view.ExportFormat(job.Format), fields)
	if err != nil {
		return err
	}
	if job.IncludeHeaders {
		if err = writer.WriteHeader(); err != nil {
			return err
		}
	}
	exported := 0
	afterId := ""
	for {
		page, err := e.recordRepo.ListRecords(ctx, schema.Table, job.OrgId, filter, afterId, e.settings.PageSize)
		if err != nil {
			return err
		}
		for _, record := range page {
			if err = writer.WriteRecord(record); err != nil {
				return err
			}
		}
		exported += len(page)
		if len(page) < e.settings.PageSize {
			break
		}
		afterId = page[len(page)-1].Id()
	}
	data, err := writer.Close()
	if err != nil {
		return fmt.Errorf("failed to serialize export: %w", err)
	}

	format := view.ExportFormat(job.Format)
	job.FileName = ExportFileName(job.ExportName, format)
	if e.storage.IsActive() {
		job.FilePath = ObjectPath(view.EXPORT_FILES_FOLDER, job.OrgId, job.Id, job.FileName)
		if err = e.storage.UploadFile(ctx, job.FilePath, format.ContentType(), data); err != nil {
			return err
		}
	} else if err = e.exportJobRepo.StoreFile(ctx, job.Id, data); err != nil {
		return err
	}
	job.RecordCount = exported
	job.FileSizeBytes = int64(len(data))
	return nil
}

func ExportFileName(exportName string, format view.ExportFormat) string {
	name := slug.Make(exportName)
	if name == "" {
		name = "export"
	}
	return name + "." + format.Extension()
}

func (e exportServiceImpl) GetExportJob(ctx context.Context, secCtx secctx.SecurityContext, id string) (*view.ExportJob, error) {
	ent, err := e.getJob(ctx, secCtx.GetOrgId(), id)
	if err != nil {
		return nil, err
	}
	result := entity.MakeExportJobView(*ent)
	return &result, nil
}

func (e exportServiceImpl) ListExportJobs(ctx context.Context, secCtx secctx.SecurityContext, filter view.ExportJobsFilter) (*view.ExportJobs, error) {
	ents, err := e.exportJobRepo.ListJobs(ctx, secCtx.GetOrgId(), filter)
	if err != nil {
		return nil, err
	}
	result := &view.ExportJobs{Jobs: make([]view.ExportJob, 0, len(ents))}
	for _, ent := range ents {
		result.Jobs = append(result.Jobs, entity.MakeExportJobView(ent))
	}
	return result, nil
}

func (e exportServiceImpl) GetExportDownloadUrl(ctx context.Context, secCtx secctx.SecurityContext, id string) (*view.ExportDownload, error) {
	ent, err := e.getDownloadableJob(ctx, secCtx.GetOrgId(), id)
	if err != nil {
		return nil, err
	}
	if !e.storage.IsActive() || ent.FilePath == "" {
		return &view.ExportDownload{Url: fmt.Sprintf(exportFileApiPath, ent.Id), ExpiresAt: *ent.ExpiresAt}, nil
	}
	if cached, ok := e.urlCache.Load(ent.Id); ok {
		return cached.(*view.ExportDownload), nil
	}
	ttl := e.settings.DownloadUrlTTL
	if remaining := time.Until(*ent.ExpiresAt); remaining < ttl {
		ttl = remaining
	}
	url, err := e.storage.GetDownloadUrl(ctx, ent.FilePath, ent.FileName, ttl)
	if err != nil {
		return nil, err
	}
	result := &view.ExportDownload{Url: url, ExpiresAt: time.Now().Add(ttl)}
	// reuse the url for most of its lifetime only
	e.urlCache.StoreWithTTL(ent.Id, result, ttl*3/4)
	return result, nil
}

func (e exportServiceImpl) GetExportFile(ctx context.Context, secCtx secctx.SecurityContext, id string) (string, string, []byte, error) {
	ent, err := e.getDownloadableJob(ctx, secCtx.GetOrgId(), id)
	if err != nil {
		return "", "", nil, err
	}
	var data []byte
	if ent.FilePath != "" && e.storage.IsActive() {
		data, err = e.storage.GetFile(ctx, ent.FilePath)
	} else {
		data, err = e.exportJobRepo.GetFile(ctx, ent.Id)
	}
	if err != nil {
		return "", "", nil, err
	}
	if data == nil {
		return "", "", nil, exportExpired(id)
	}
	return ent.FileName, view.ExportFormat(ent.Format).ContentType(), data, nil
}

func (e exportServiceImpl) ExpireExports(ctx context.Context, expiredBefore time.Time, batchSize int) (int, error) {
	total := 0
	for {
		jobs, err := e.exportJobRepo.GetExpiredJobs(ctx, expiredBefore, batchSize)
		if err != nil {
			return total, err
		}
		if len(jobs) == 0 {
			return total, nil
		}
		ids := make([]string, 0, len(jobs))
		paths := make([]string, 0, len(jobs))
		for _, job := range jobs {
			ids = append(ids, job.Id)
			paths = append(paths, job.FilePath)
			e.urlCache.Delete(job.Id)
		}
		if err = e.storage.RemoveFiles(ctx, paths); err != nil {
			return total, err
		}
		if _, err = e.exportJobRepo.DeleteFiles(ctx, ids); err != nil {
			return total, err
		}
		marked, err := e.exportJobRepo.MarkExpired(ctx, ids)
		if err != nil {
			return total, err
		}
		total += marked
		if len(jobs) < batchSize {
			return total, nil
		}
	}
}

func (e exportServiceImpl) getJob(ctx context.Context, orgId string, id string) (*entity.ExportJobEntity, error) {
	ent, err := e.exportJobRepo.GetJob(ctx, orgId, id)
	if err != nil {
		return nil, err
	}
	if ent == nil {
		return nil, &exception.CustomError{
			Status:  http.StatusNotFound,
			Code:    exception.ExportJobNotFound,
			Message: exception.ExportJobNotFoundMsg,
			Params:  map[string]interface{}{"id": id},
		}
	}
	return ent, nil
}

func (e exportServiceImpl) getDownloadableJob(ctx context.Context, orgId string, id string) (*entity.ExportJobEntity, error) {
	ent, err := e.getJob(ctx, orgId, id)
	if err != nil {
		return nil, err
	}
	status := view.ExportJobStatus(ent.Status)
	if status == view.ExportStatusExpired || (status == view.ExportStatusCompleted && ent.ExpiresAt != nil && ent.ExpiresAt.Before(time.Now())) {
		return nil, exportExpired(id)
	}
	if status != view.ExportStatusCompleted || ent.ExpiresAt == nil {
		return nil, &exception.CustomError{
			Status:  http.StatusConflict,
			Code:    exception.ExportNotReady,
			Message: exception.ExportNotReadyMsg,
			Params:  map[string]interface{}{"id": id, "status": ent.Status},
		}
	}
	return ent, nil
}

func (e exportServiceImpl) exportableSchema(entityType string) (*view.EntitySchema, error) {
	schema, err := e.registry.GetSchema(entityType)
	if err != nil {
		return nil, err
	}
	if !schema.Exportable {
		return nil, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.EntityNotExportable,
			Message: exception.EntityNotExportableMsg,
			Params:  map[string]interface{}{"entityType": entityType},
		}
	}
	return schema, nil
}

func exportExpired(id string) error {
	return &exception.CustomError{
		Status:  http.StatusGone,
		Code:    exception.ExportExpired,
		Message: exception.ExportExpiredMsg,
		Params:  map[string]interface{}{"id": id},
	}
}

func resolveColumns(schema *view.EntitySchema, columns []string) ([]view.EntityFieldDescriptor, error) {
	fields := make([]view.EntityFieldDescriptor, 0, len(columns))
	for _, column := range columns {
		f := schema.FieldByName(column)
		if f == nil {
			return nil, &exception.CustomError{
				Status:  http.StatusBadRequest,
				Code:    exception.UnknownColumn,
				Message: exception.UnknownColumnMsg,
				Params:  map[string]interface{}{"column": column, "entityType": schema.Name},
			}
		}
		fields = append(fields, *f)
	}
	return fields, nil
}

func buildRecordFilter(schema *view.EntitySchema, filters view.ExportFilters) (view.RecordFilter, error) {
	result := view.RecordFilter{DateFrom: filters.DateFrom, DateTo: filters.DateTo}
	if filters.DateFrom != nil && filters.DateTo != nil && filters.DateFrom.After(*filters.DateTo) {
		return result, invalidExportFilter("dateFrom", "dateFrom is after dateTo")
	}
	if filters.Status != "" {
		if !hasColumn(schema, view.ColumnStatus) {
			return result, invalidExportFilter("status", fmt.Sprintf("entity type '%s' has no status", schema.Name))
		}
		result.Status = filters.Status
	}
	if len(filters.Fields) > 0 {
		result.Equals = make(map[string]string, len(filters.Fields))
		for name, value := range filters.Fields {
			f := schema.FieldByName(name)
			if f == nil {
				return result, invalidExportFilter(name, "unknown field")
			}
			result.Equals[f.DbColumn] = value
		}
	}
	return result, nil
}

func hasColumn(schema *view.EntitySchema, column string) bool {
	for _, f := range schema.Fields {
		if f.DbColumn == column {
			return true
		}
	}
	return false
}

func invalidExportFilter(filter string, reason string) error {
	return &exception.CustomError{
		Status:  http.StatusBadRequest,
		Code:    exception.InvalidExportFilter,
		Message: exception.InvalidExportFilterMsg,
		Params:  map[string]interface{}{"filter": filter, "reason": reason},
	}
}
