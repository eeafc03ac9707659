package service

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	secctx "github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/context"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/entity"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/exception"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImportJobRepo struct {
	mu    sync.Mutex
	jobs  map[string]entity.ImportJobEntity
	flags []entity.ImportRowFlagEntity
}

func newFakeImportJobRepo() *fakeImportJobRepo {
	return &fakeImportJobRepo{jobs: map[string]entity.ImportJobEntity{}}
}

func (f *fakeImportJobRepo) CreateJob(ctx context.Context, ent *entity.ImportJobEntity) error {
	return f.UpdateJob(ctx, ent)
}

func (f *fakeImportJobRepo) GetJob(ctx context.Context, orgId string, id string) (*entity.ImportJobEntity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok || job.OrgId != orgId {
		return nil, nil
	}
	return &job, nil
}

func (f *fakeImportJobRepo) ListJobs(ctx context.Context, orgId string, filter view.ImportJobsFilter) ([]entity.ImportJobEntity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]entity.ImportJobEntity, 0)
	for _, job := range f.jobs {
		if job.OrgId == orgId {
			result = append(result, job)
		}
	}
	return result, nil
}

func (f *fakeImportJobRepo) UpdateJob(ctx context.Context, ent *entity.ImportJobEntity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[ent.Id] = *ent
	return nil
}

func (f *fakeImportJobRepo) StoreRowFlags(ctx context.Context, flags []entity.ImportRowFlagEntity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flags = append(f.flags, flags...)
	return nil
}

func (f *fakeImportJobRepo) CountJobs(ctx context.Context, orgId string, statuses ...view.ImportJobStatus) (int, error) {
	jobs, _ := f.ListJobs(ctx, orgId, view.ImportJobsFilter{})
	if len(statuses) == 0 {
		return len(jobs), nil
	}
	count := 0
	for _, job := range jobs {
		for _, s := range statuses {
			if job.Status == string(s) {
				count++
			}
		}
	}
	return count, nil
}

type fakeExportJobRepo struct {
	mu    sync.Mutex
	jobs  map[string]entity.ExportJobEntity
	files map[string][]byte
}

func newFakeExportJobRepo() *fakeExportJobRepo {
	return &fakeExportJobRepo{jobs: map[string]entity.ExportJobEntity{}, files: map[string][]byte{}}
}

func (f *fakeExportJobRepo) CreateJob(ctx context.Context, ent *entity.ExportJobEntity) error {
	return f.UpdateJob(ctx, ent)
}

func (f *fakeExportJobRepo) GetJob(ctx context.Context, orgId string, id string) (*entity.ExportJobEntity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok || job.OrgId != orgId {
		return nil, nil
	}
	return &job, nil
}

func (f *fakeExportJobRepo) ListJobs(ctx context.Context, orgId string, filter view.ExportJobsFilter) ([]entity.ExportJobEntity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]entity.ExportJobEntity, 0)
	for _, job := range f.jobs {
		if job.OrgId == orgId {
			result = append(result, job)
		}
	}
	return result, nil
}

func (f *fakeExportJobRepo) UpdateJob(ctx context.Context, ent *entity.ExportJobEntity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[ent.Id] = *ent
	return nil
}

func (f *fakeExportJobRepo) CountJobs(ctx context.Context, orgId string, statuses ...view.ExportJobStatus) (int, error) {
	jobs, _ := f.ListJobs(ctx, orgId, view.ExportJobsFilter{})
	if len(statuses) == 0 {
		return len(jobs), nil
	}
	count := 0
	for _, job := range jobs {
		for _, s := range statuses {
			if job.Status == string(s) {
				count++
			}
		}
	}
	return count, nil
}

func (f *fakeExportJobRepo) GetExpiredJobs(ctx context.Context, expiredBefore time.Time, limit int) ([]entity.ExportJobEntity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]entity.ExportJobEntity, 0)
	for _, job := range f.jobs {
		if job.Status == string(view.ExportStatusCompleted) && job.ExpiresAt != nil && job.ExpiresAt.Before(expiredBefore) && len(result) < limit {
			result = append(result, job)
		}
	}
	return result, nil
}

func (f *fakeExportJobRepo) MarkExpired(ctx context.Context, ids []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		job := f.jobs[id]
		job.Status = string(view.ExportStatusExpired)
		f.jobs[id] = job
	}
	return len(ids), nil
}

func (f *fakeExportJobRepo) StoreFile(ctx context.Context, jobId string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[jobId] = data
	return nil
}

func (f *fakeExportJobRepo) GetFile(ctx context.Context, jobId string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.files[jobId], nil
}

func (f *fakeExportJobRepo) DeleteFiles(ctx context.Context, jobIds []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range jobIds {
		delete(f.files, id)
	}
	return len(jobIds), nil
}

func inactiveStorage(t *testing.T) MinioStorageService {
	storage, err := NewMinioStorageService(&view.MinioStorageCreds{IsActive: false})
	require.NoError(t, err)
	return storage
}

type importFixture struct {
	records *fakeRecordRepo
	jobs    *fakeImportJobRepo
	service ImportService
}

func newImportFixture(t *testing.T) *importFixture {
	registry := testRegistry()
	mapper := NewFieldMapper()
	records := newFakeRecordRepo()
	jobs := newFakeImportJobRepo()
	return &importFixture{
		records: records,
		jobs:    jobs,
		service: NewImportService(registry, NewFileParser(5, 10), mapper, NewImportValidator(registry, mapper, 100),
			jobs, records, inactiveStorage(t), NewAuditService(&fakeAuditRepo{}), 50),
	}
}

var importRows = []view.ParsedRow{
	{"Name": "Jane Doe", "Mail": "jane@x.com", "Years": "5"},
	{"Name": "John Roe", "Mail": "not-an-email", "Years": "3"},
	{"Name": "Ann Lee", "Mail": "ann@z.com", "Years": ""},
}

func importJob(policy view.ErrorHandling, updateExisting bool) *entity.ImportJobEntity {
	return &entity.ImportJobEntity{
		Id:            "job-" + string(policy),
		OrgId:         testOrgId,
		EntityType:    "candidate",
		FieldMapping:  map[string]string{"Name": "fullName", "Mail": "email", "Years": "yearsExperience"},
		ImportOptions: view.ImportOptions{ErrorHandling: policy, UpdateExisting: updateExisting},
		Status:        string(view.ImportStatusPending),
		TotalRows:     len(importRows),
	}
}

func TestCommitSkipPolicy(t *testing.T) {
	f := newImportFixture(t)
	job := importJob(view.ErrorHandlingSkip, false)

	require.NoError(t, f.service.Commit(context.Background(), job, importRows))

	assert.Equal(t, string(view.ImportStatusCompleted), job.Status)
	assert.Equal(t, 3, job.ProcessedRows)
	assert.Equal(t, 2, job.SuccessRows)
	assert.Equal(t, 2, job.CreatedRows)
	assert.Equal(t, 1, job.ErrorRows)
	require.Len(t, job.Errors, 1)
	assert.Equal(t, 2, job.Errors[0].Row)
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.CompletedAt)
	assert.Len(t, f.records.sorted("candidates", testOrgId), 2)
	assert.Equal(t, string(view.ImportStatusCompleted), f.jobs.jobs[job.Id].Status)
}

func TestCommitStopPolicy(t *testing.T) {
	f := newImportFixture(t)
	job := importJob(view.ErrorHandlingStop, false)

	require.NoError(t, f.service.Commit(context.Background(), job, importRows))

	assert.Equal(t, string(view.ImportStatusFailed), job.Status)
	assert.Contains(t, job.ErrorMessage, "row 2")
	assert.Equal(t, 2, job.ProcessedRows)
	assert.Equal(t, 1, job.CreatedRows)
	assert.Len(t, f.records.sorted("candidates", testOrgId), 1)
}

func TestCommitFlagPolicy(t *testing.T) {
	f := newImportFixture(t)
	job := importJob(view.ErrorHandlingFlag, false)

	require.NoError(t, f.service.Commit(context.Background(), job, importRows))

	assert.Equal(t, string(view.ImportStatusCompleted), job.Status)
	assert.Equal(t, 3, job.CreatedRows)
	assert.Equal(t, 0, job.ErrorRows)
	require.Len(t, f.jobs.flags, 1)
	assert.Equal(t, 2, f.jobs.flags[0].RowNum)
	flagged := f.records.get("candidates", f.jobs.flags[0].RecordId)
	require.NotNil(t, flagged)
	assert.Equal(t, "John Roe", flagged["full_name"])
	assert.Nil(t, flagged["email"])
}

func TestCommitUpdatesExistingByUniqueField(t *testing.T) {
	f := newImportFixture(t)
	f.records.put("candidates", view.Record{"id": "c1", "org_id": testOrgId, "full_name": "Jane Old", "email": "jane@x.com"})
	job := importJob(view.ErrorHandlingSkip, true)

	require.NoError(t, f.service.Commit(context.Background(), job, importRows))

	assert.Equal(t, 1, job.UpdatedRows)
	assert.Equal(t, 1, job.CreatedRows)
	existing := f.records.get("candidates", "c1")
	assert.Equal(t, "Jane Doe", existing["full_name"])
	assert.Equal(t, int64(5), existing["years_experience"])
}

func TestCreateImportJob(t *testing.T) {
	f := newImportFixture(t)
	secCtx := secctx.CreateFromId("user-1", testOrgId)
	file := base64.StdEncoding.EncodeToString([]byte("Full Name,Email Address\nJane Doe,jane@x.com\nJohn Roe,john@y.com\n"))

	_, err := f.service.CreateImportJob(context.Background(), secCtx, view.CreateImportJobReq{
		EntityType:   "candidate",
		FileName:     "people.csv",
		FileData:     file,
		FieldMapping: view.FieldMapping{"Full Name": "fullName", "Email Address": "fullName"},
	})
	assert.Equal(t, exception.MalformedFieldMapping, errorCode(err))

	job, err := f.service.CreateImportJob(context.Background(), secCtx, view.CreateImportJobReq{
		EntityType:   "candidate",
		FileName:     "people.csv",
		FileData:     file,
		FieldMapping: view.FieldMapping{"Full Name": "fullName", "Email Address": "email"},
	})
	require.NoError(t, err)
	assert.Equal(t, view.ImportStatusPending, job.Status)
	assert.Equal(t, 2, job.TotalRows)

	assert.Eventually(t, func() bool {
		current, err := f.service.GetImportJob(context.Background(), secCtx, job.Id)
		return err == nil && current.Status == view.ImportStatusCompleted && current.CreatedRows == 2
	}, 5*time.Second, 10*time.Millisecond)

	_, err = f.service.GetImportJob(context.Background(), secctx.CreateFromId("x", "other-org"), job.Id)
	assert.Equal(t, exception.ImportJobNotFound, errorCode(err))
}

func TestParseImportFileSuggestsMapping(t *testing.T) {
	f := newImportFixture(t)
	resp, err := f.service.ParseImportFile(view.ParseImportFileReq{
		FileData:   base64.StdEncoding.EncodeToString([]byte("Full Name,Shoe Size\nJane,42\n")),
		FileName:   "a.csv",
		EntityType: "candidate",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalRows)
	assert.Equal(t, "fullName", resp.SuggestedMapping["Full Name"])
	assert.Equal(t, "", resp.SuggestedMapping["Shoe Size"])
}

type exportFixture struct {
	records *fakeRecordRepo
	jobs    *fakeExportJobRepo
	service ExportService
	secCtx  secctx.SecurityContext
}

func newExportFixture(t *testing.T, maxRows int) *exportFixture {
	records := newFakeRecordRepo()
	jobs := newFakeExportJobRepo()
	records.put("candidates", view.Record{"id": "c1", "org_id": testOrgId, "full_name": "Jane Doe", "email": "jane@x.com", "status": "active"})
	records.put("candidates", view.Record{"id": "c2", "org_id": testOrgId, "full_name": "John Roe", "email": "john@y.com", "status": "passive"})
	records.put("candidates", view.Record{"id": "c3", "org_id": testOrgId, "full_name": "Gone", "email": "gone@y.com", "status": "active", "deleted_at": time.Now()})
	records.put("candidates", view.Record{"id": "c4", "org_id": testOrgId, "full_name": "Ann Lee", "email": "ann@z.com", "status": "active"})
	return &exportFixture{
		records: records,
		jobs:    jobs,
		service: NewExportService(testRegistry(), jobs, records, inactiveStorage(t), NewAuditService(&fakeAuditRepo{}), ExportSettings{
			MaxRows:        maxRows,
			PageSize:       1,
			ExpirationDays: 7,
			DownloadUrlTTL: time.Hour,
		}),
		secCtx: secctx.CreateFromId("user-1", testOrgId),
	}
}

func exportJob(format view.ExportFormat, filters view.ExportFilters) *entity.ExportJobEntity {
	return &entity.ExportJobEntity{
		Id:             "export-1",
		OrgId:          testOrgId,
		EntityType:     "candidate",
		ExportName:     "Active Candidates",
		Columns:        []string{"fullName", "email"},
		Format:         string(format),
		Filters:        filters,
		IncludeHeaders: true,
		Status:         string(view.ExportStatusPending),
	}
}

func TestGenerateExport(t *testing.T) {
	f := newExportFixture(t, 100)
	ctx := context.Background()
	job := exportJob(view.ExportFormatCsv, view.ExportFilters{Status: "active"})

	require.NoError(t, f.service.Generate(ctx, job))
	assert.Equal(t, string(view.ExportStatusCompleted), job.Status)
	assert.Equal(t, 2, job.RecordCount)
	assert.Equal(t, "active-candidates.csv", job.FileName)
	require.NotNil(t, job.ExpiresAt)

	fileName, contentType, data, err := f.service.GetExportFile(ctx, f.secCtx, job.Id)
	require.NoError(t, err)
	assert.Equal(t, "active-candidates.csv", fileName)
	assert.Equal(t, "text/csv", contentType)
	assert.Equal(t, "fullName,email\nJane Doe,jane@x.com\nAnn Lee,ann@z.com\n", string(data))

	download, err := f.service.GetExportDownloadUrl(ctx, f.secCtx, job.Id)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/data/export/jobs/export-1/file", download.Url)
}

func TestGenerateExportTooLarge(t *testing.T) {
	f := newExportFixture(t, 2)
	job := exportJob(view.ExportFormatJson, view.ExportFilters{})

	err := f.service.Generate(context.Background(), job)
	assert.Equal(t, exception.ExportTooLarge, errorCode(err))
	assert.Equal(t, string(view.ExportStatusFailed), job.Status)
	assert.NotEmpty(t, job.ErrorMessage)

	_, _, _, err = f.service.GetExportFile(context.Background(), f.secCtx, job.Id)
	assert.Equal(t, exception.ExportNotReady, errorCode(err))
}

func TestExpireExports(t *testing.T) {
	f := newExportFixture(t, 100)
	ctx := context.Background()
	job := exportJob(view.ExportFormatCsv, view.ExportFilters{})
	require.NoError(t, f.service.Generate(ctx, job))

	expired, err := f.service.ExpireExports(ctx, time.Now().AddDate(0, 0, 8), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Empty(t, f.jobs.files)

	_, _, _, err = f.service.GetExportFile(ctx, f.secCtx, job.Id)
	assert.Equal(t, exception.ExportExpired, errorCode(err))
}

func TestCreateExportJobValidation(t *testing.T) {
	f := newExportFixture(t, 100)
	ctx := context.Background()

	_, err := f.service.CreateExportJob(ctx, f.secCtx, view.CreateExportJobReq{EntityType: "candidate", Columns: []string{"shoeSize"}, Format: view.ExportFormatCsv})
	assert.Equal(t, exception.UnknownColumn, errorCode(err))

	_, err = f.service.CreateExportJob(ctx, f.secCtx, view.CreateExportJobReq{
		EntityType: "candidate",
		Columns:    []string{"email"},
		Format:     view.ExportFormatCsv,
		Filters:    view.ExportFilters{Fields: map[string]string{"mood": "good"}},
	})
	assert.Equal(t, exception.InvalidExportFilter, errorCode(err))

	from := time.Now()
	to := from.Add(-time.Hour)
	_, err = f.service.CreateExportJob(ctx, f.secCtx, view.CreateExportJobReq{
		EntityType: "candidate",
		Columns:    []string{"email"},
		Format:     view.ExportFormatCsv,
		Filters:    view.ExportFilters{DateFrom: &from, DateTo: &to},
	})
	assert.Equal(t, exception.InvalidExportFilter, errorCode(err))
}

func TestCommitInsertsWhenMatchIsSoftDeleted(t *testing.T) {
	f := newImportFixture(t)
	f.records.put("candidates", view.Record{"id": "c1", "org_id": testOrgId, "full_name": "Jane Old", "email": "jane@x.com", "deleted_at": time.Now()})
	job := importJob(view.ErrorHandlingSkip, true)

	require.NoError(t, f.service.Commit(context.Background(), job, importRows))

	assert.Equal(t, 0, job.UpdatedRows)
	assert.Equal(t, 2, job.CreatedRows)
	assert.Equal(t, "Jane Old", f.records.get("candidates", "c1")["full_name"])

	live, err := f.records.FindByColumn(context.Background(), "candidates", testOrgId, "email", "jane@x.com")
	require.NoError(t, err)
	require.NotNil(t, live)
	assert.NotEqual(t, "c1", live.Id())
	assert.Equal(t, "Jane Doe", live["full_name"])
}

func TestExportReimportRoundTrip(t *testing.T) {
	schema := candidateSchema(t)
	source := view.Record{
		"id":                  "c9",
		"org_id":              testOrgId,
		"full_name":           "Jane Doe",
		"email":               "jane@x.com",
		"phone":               "+1 (555) 123-4567",
		"linkedin_url":        "https://linkedin.com/in/jane",
		"current_title":       "Staff Engineer",
		"current_company":     "Acme, Inc.",
		"location":            "Berlin",
		"years_experience":    int64(7),
		"desired_salary":      120000.5,
		"available_from":      "2024-03-01",
		"willing_to_relocate": true,
		"status":              "passive",
		"source":              "referral",
		"created_at":          time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	columns := make([]string, 0, len(schema.Fields))
	for _, field := range schema.Fields {
		columns = append(columns, field.Name)
	}

	for _, format := range []view.ExportFormat{view.ExportFormatCsv, view.ExportFormatExcel, view.ExportFormatJson} {
		t.Run(string(format), func(t *testing.T) {
			ctx := context.Background()
			records := newFakeRecordRepo()
			records.put("candidates", source)
			exporter := NewExportService(testRegistry(), newFakeExportJobRepo(), records, inactiveStorage(t), NewAuditService(&fakeAuditRepo{}), ExportSettings{
				MaxRows:        100,
				PageSize:       10,
				ExpirationDays: 7,
				DownloadUrlTTL: time.Hour,
			})
			job := exportJob(format, view.ExportFilters{})
			job.Columns = columns
			require.NoError(t, exporter.Generate(ctx, job))
			fileName, _, data, err := exporter.GetExportFile(ctx, secctx.CreateFromId("user-1", testOrgId), job.Id)
			require.NoError(t, err)

			parsed, err := NewFileParser(5, 10).Parse(data, fileName)
			require.NoError(t, err)
			assert.Equal(t, columns, parsed.Headers)
			mapping := make(map[string]string, len(parsed.Headers))
			for _, header := range parsed.Headers {
				mapping[header] = header
			}

			importer := newImportFixture(t)
			reimport := &entity.ImportJobEntity{
				Id:            "job-round-trip",
				OrgId:         testOrgId,
				EntityType:    "candidate",
				FieldMapping:  mapping,
				ImportOptions: view.ImportOptions{ErrorHandling: view.ErrorHandlingStop},
				Status:        string(view.ImportStatusPending),
				TotalRows:     parsed.TotalRows,
			}
			require.NoError(t, importer.service.Commit(ctx, reimport, parsed.Rows))
			require.Equal(t, string(view.ImportStatusCompleted), reimport.Status, reimport.ErrorMessage)
			assert.Equal(t, 1, reimport.CreatedRows)

			imported := importer.records.sorted("candidates", testOrgId)
			require.Len(t, imported, 1)
			assert.NotEqual(t, "c9", imported[0].Id())
			for _, field := range schema.ImportableFields() {
				assert.Equal(t, source[field.DbColumn], imported[0][field.DbColumn], field.Name)
			}
		})
	}
}
