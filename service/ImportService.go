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

const importProgressEvery = 500

type ImportService interface {
	ParseImportFile(req view.ParseImportFileReq) (*view.ParseImportFileResp, error)
	ValidateImportData(req view.ValidateImportDataReq) (*view.ValidationResult, error)
	CreateImportJob(ctx context.Context, secCtx secctx.SecurityContext, req view.CreateImportJobReq) (*view.ImportJob, error)
	// Commit writes the rows of a pending job and leaves the job completed or failed.
	// The returned error is set only for systemic failures.
	Commit(ctx context.Context, job *entity.ImportJobEntity, rows []view.ParsedRow) error
	GetImportJob(ctx context.Context, secCtx secctx.SecurityContext, id string) (*view.ImportJob, error)
	ListImportJobs(ctx context.Context, secCtx secctx.SecurityContext, filter view.ImportJobsFilter) (*view.ImportJobs, error)
}

func NewImportService(
	registry EntitySchemaRegistry,
	fileParser FileParser,
	fieldMapper FieldMapper,
	importValidator ImportValidator,
	importJobRepo repository.ImportJobRepository,
	recordRepo repository.RecordRepository,
	storage MinioStorageService,
	auditService AuditService,
	maxStoredErrors int) ImportService {
	return &importServiceImpl{
		registry:        registry,
		fileParser:      fileParser,
		fieldMapper:     fieldMapper,
		importValidator: importValidator,
		importJobRepo:   importJobRepo,
		recordRepo:      recordRepo,
		storage:         storage,
		auditService:    auditService,
		maxStoredErrors: maxStoredErrors,
	}
}

type importServiceImpl struct {
	registry        EntitySchemaRegistry
	fileParser      FileParser
	fieldMapper     FieldMapper
	importValidator ImportValidator
	importJobRepo   repository.ImportJobRepository
	recordRepo      repository.RecordRepository
	storage         MinioStorageService
	auditService    AuditService
	maxStoredErrors int
}

func (i importServiceImpl) ParseImportFile(req view.ParseImportFileReq) (*view.ParseImportFileResp, error) {
	data, err := DecodeBase64File(req.FileData, req.FileName)
	if err != nil {
		return nil, err
	}
	parsed, err := i.fileParser.Parse(data, req.FileName)
	if err != nil {
		return nil, err
	}
	resp := &view.ParseImportFileResp{
		Headers:    parsed.Headers,
		SampleRows: parsed.SampleRows,
		TotalRows:  parsed.TotalRows,
	}
	if req.EntityType != "" {
		schema, err := i.importableSchema(req.EntityType)
		if err != nil {
			return nil, err
		}
		resp.SuggestedMapping = i.fieldMapper.AutoMap(parsed.Headers, schema.Fields)
	}
	return resp, nil
}

func (i importServiceImpl) ValidateImportData(req view.ValidateImportDataReq) (*view.ValidationResult, error) {
	if _, err := i.importableSchema(req.EntityType); err != nil {
		return nil, err
	}
	data, err := DecodeBase64File(req.FileData, req.FileName)
	if err != nil {
		return nil, err
	}
	parsed, err := i.fileParser.Parse(data, req.FileName)
	if err != nil {
		return nil, err
	}
	return i.importValidator.Validate(req.EntityType, parsed.Rows, req.FieldMapping)
}

func (i importServiceImpl) CreateImportJob(ctx context.Context, secCtx secctx.SecurityContext, req view.CreateImportJobReq) (*view.ImportJob, error) {
	schema, err := i.importableSchema(req.EntityType)
	if err != nil {
		return nil, err
	}
	if req.ImportOptions.ErrorHandling == "" {
		req.ImportOptions.ErrorHandling = view.ErrorHandlingSkip
	}
	data, err := DecodeBase64File(req.FileData, req.FileName)
	if err != nil {
		return nil, err
	}
	parsed, err := i.fileParser.Parse(data, req.FileName)
	if err != nil {
		return nil, err
	}
	if err = i.fieldMapper.ValidateMapping(req.FieldMapping, schema); err != nil {
		return nil, err
	}

	job := &entity.ImportJobEntity{
		Id:            uuid.New().String(),
		OrgId:         secCtx.GetOrgId(),
		EntityType:    req.EntityType,
		FileName:      req.FileName,
		FileSizeBytes: int64(len(data)),
		FileChecksum:  utils.GetEncodedXXHash128(data),
		FieldMapping:  req.FieldMapping,
		ImportOptions: req.ImportOptions,
		Status:        string(view.ImportStatusPending),
		TotalRows:     parsed.TotalRows,
		CreatedBy:     secCtx.GetUserId(),
		CreatedAt:     time.Now(),
	}
	if i.storage.IsActive() {
		job.FilePath = ObjectPath(view.IMPORT_FILES_FOLDER, job.OrgId, job.Id, req.FileName)
		if err = i.storage.UploadFile(ctx, job.FilePath, "application/octet-stream", data); err != nil {
			return nil, err
		}
	}
	if err = i.importJobRepo.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	i.auditService.TrackEvent(ctx, secCtx, view.AuditImportCreated, req.EntityType, job.Id, map[string]interface{}{
		"fileName":      req.FileName,
		"totalRows":     parsed.TotalRows,
		"errorHandling": req.ImportOptions.ErrorHandling,
	})

	result := entity.MakeImportJobView(*job)
	rows := parsed.Rows
	utils.SafeAsync(func() {
		if err := i.Commit(context.Background(), job, rows); err != nil {
			log.Errorf("Import job %s failed: %s", job.Id, err.Error())
		}
	})
	return &result, nil
}

func (i importServiceImpl) Commit(ctx context.Context, job *entity.ImportJobEntity, rows []view.ParsedRow) error {
	start := time.Now()
	job.Status = string(view.ImportStatusProcessing)
	job.StartedAt = &start
	if err := i.importJobRepo.UpdateJob(ctx, job); err != nil {
		return err
	}

	err := i.commitRows(ctx, job, rows)
	completed := time.Now()
	job.CompletedAt = &completed
	if err != nil {
		job.Status = string(view.ImportStatusFailed)
		job.ErrorMessage = err.Error()
	} else if job.Status == string(view.ImportStatusProcessing) {
		job.Status = string(view.ImportStatusCompleted)
	}
	metrics.ImportJobsFinished.WithLabelValues(job.EntityType, job.Status).Inc()
	metrics.ImportedRows.WithLabelValues(job.EntityType, "created").Add(float64(job.CreatedRows))
	metrics.ImportedRows.WithLabelValues(job.EntityType, "updated").Add(float64(job.UpdatedRows))
	metrics.ImportedRows.WithLabelValues(job.EntityType, "error").Add(float64(job.ErrorRows))

	if updErr := i.importJobRepo.UpdateJob(ctx, job); updErr != nil {
		log.Errorf("Failed to store final state of import job %s: %s", job.Id, updErr.Error())
		if err == nil {
			err = updErr
		}
	}
	log.Infof("Import job %s finished with status %s: %d created, %d updated, %d errors in %d ms",
		job.Id, job.Status, job.CreatedRows, job.UpdatedRows, job.ErrorRows, completed.Sub(start).Milliseconds())
	return err
}

// commitRows returns an error only for failures not caused by row content.
// A stop caused by a bad row is reported through the job status.
func (i importServiceImpl) commitRows(ctx context.Context, job *entity.ImportJobEntity, rows []view.ParsedRow) error {
	schema, err := i.registry.GetSchema(job.EntityType)
	if err != nil {
		return err
	}
	validated, err := i.importValidator.ValidateRows(schema, rows, job.FieldMapping)
	if err != nil {
		return err
	}
	var uniqueColumn string
	if job.ImportOptions.UpdateExisting && schema.UniqueField != "" {
		if f := schema.FieldByName(schema.UniqueField); f != nil {
			uniqueColumn = f.DbColumn
		}
	}
	policy := job.ImportOptions.ErrorHandling
	var flags []entity.ImportRowFlagEntity

	for _, row := range validated {
		if !row.Valid() && policy != view.ErrorHandlingFlag {
			job.ProcessedRows++
			i.rowFailed(job, row.Errors...)
			if policy == view.ErrorHandlingStop {
				job.Status = string(view.ImportStatusFailed)
				job.ErrorMessage = fmt.Sprintf("Import stopped at row %d: %s", row.RowNum, issuesToString(row.Errors))
				return nil
			}
			continue
		}

		recordId, created, err := i.writeRow(ctx, job, schema, uniqueColumn, row.Values)
		job.ProcessedRows++
		if err != nil {
			if !repository.IsRowRejected(err) {
				return err
			}
			i.rowFailed(job, issue(row.RowNum, "", err.Error()))
			if policy == view.ErrorHandlingStop {
				job.Status = string(view.ImportStatusFailed)
				job.ErrorMessage = fmt.Sprintf("Import stopped at row %d: %s", row.RowNum, err.Error())
				return nil
			}
			continue
		}
		job.SuccessRows++
		if created {
			job.CreatedRows++
		} else {
			job.UpdatedRows++
		}
		if !row.Valid() {
			flags = append(flags, entity.ImportRowFlagEntity{JobId: job.Id, RowNum: row.RowNum, RecordId: recordId, Issues: row.Errors})
		}

		if job.ProcessedRows%importProgressEvery == 0 {
			if err = i.importJobRepo.UpdateJob(ctx, job); err != nil {
				return err
			}
		}
	}
	if len(flags) > 0 {
		if err = i.importJobRepo.StoreRowFlags(ctx, flags); err != nil {
			return err
		}
	}
	return nil
}

func (i importServiceImpl) writeRow(ctx context.Context, job *entity.ImportJobEntity, schema *view.EntitySchema, uniqueColumn string, values view.Record) (string, bool, error) {
	now := time.Now()
	if uniqueColumn != "" {
		if key, ok := values[uniqueColumn]; ok && key != nil {
			existing, err := i.recordRepo.FindByColumn(ctx, schema.Table, job.OrgId, uniqueColumn, key)
			if err != nil {
				return "", false, err
			}
			if existing != nil {
				update := make(view.Record, len(values)+1)
				for k, v := range values {
					update[k] = v
				}
				update[view.ColumnUpdatedAt] = now
				if _, err = i.recordRepo.UpdateRecord(ctx, schema.Table, job.OrgId, existing.Id(), update); err != nil {
					return "", false, err
				}
				return existing.Id(), false, nil
			}
		}
	}
	record := make(view.Record, len(values)+4)
	for k, v := range values {
		record[k] = v
	}
	record[view.ColumnId] = uuid.New().String()
	record[view.ColumnOrgId] = job.OrgId
	record[view.ColumnCreatedAt] = now
	record[view.ColumnUpdatedAt] = now
	if err := i.recordRepo.InsertRecord(ctx, schema.Table, record); err != nil {
		return "", false, err
	}
	return record.Id(), true, nil
}

func (i importServiceImpl) rowFailed(job *entity.ImportJobEntity, issues ...view.ValidationIssue) {
	job.ErrorRows++
	job.Errors = appendCapped(job.Errors, issues, i.maxStoredErrors)
}

func (i importServiceImpl) GetImportJob(ctx context.Context, secCtx secctx.SecurityContext, id string) (*view.ImportJob, error) {
	ent, err := i.importJobRepo.GetJob(ctx, secCtx.GetOrgId(), id)
	if err != nil {
		return nil, err
	}
	if ent == nil {
		return nil, &exception.CustomError{
			Status:  http.StatusNotFound,
			Code:    exception.ImportJobNotFound,
			Message: exception.ImportJobNotFoundMsg,
			Params:  map[string]interface{}{"id": id},
		}
	}
	result := entity.MakeImportJobView(*ent)
	return &result, nil
}

func (i importServiceImpl) ListImportJobs(ctx context.Context, secCtx secctx.SecurityContext, filter view.ImportJobsFilter) (*view.ImportJobs, error) {
	ents, err := i.importJobRepo.ListJobs(ctx, secCtx.GetOrgId(), filter)
	if err != nil {
		return nil, err
	}
	result := &view.ImportJobs{Jobs: make([]view.ImportJob, 0, len(ents))}
	for _, ent := range ents {
		result.Jobs = append(result.Jobs, entity.MakeImportJobView(ent))
	}
	return result, nil
}

func (i importServiceImpl) importableSchema(entityType string) (*view.EntitySchema, error) {
	schema, err := i.registry.GetSchema(entityType)
	if err != nil {
		return nil, err
	}
	if !schema.Importable {
		return nil, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.EntityNotImportable,
			Message: exception.EntityNotImportableMsg,
			Params:  map[string]interface{}{"entityType": entityType},
		}
	}
	return schema, nil
}
