package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/archive"
	secctx "github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/context"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/entity"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/exception"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/repository"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGdprRepo struct {
	records  *fakeRecordRepo
	requests map[string]*entity.GdprRequestEntity
	files    map[string][]byte
}

func newFakeGdprRepo(records *fakeRecordRepo) *fakeGdprRepo {
	return &fakeGdprRepo{records: records, requests: map[string]*entity.GdprRequestEntity{}, files: map[string][]byte{}}
}

func (f *fakeGdprRepo) CreateRequest(ctx context.Context, ent *entity.GdprRequestEntity, numberPrefix string) error {
	count := 0
	for _, r := range f.requests {
		if r.OrgId == ent.OrgId && strings.HasPrefix(r.RequestNumber, numberPrefix) {
			count++
		}
	}
	ent.RequestNumber = fmt.Sprintf("%s%04d", numberPrefix, count+1)
	c := *ent
	f.requests[ent.Id] = &c
	return nil
}

func (f *fakeGdprRepo) GetRequest(ctx context.Context, orgId string, id string) (*entity.GdprRequestEntity, error) {
	r := f.requests[id]
	if r == nil || r.OrgId != orgId {
		return nil, nil
	}
	c := *r
	return &c, nil
}

func (f *fakeGdprRepo) ListRequests(ctx context.Context, orgId string, filter view.GdprRequestsFilter) ([]entity.GdprRequestEntity, int, error) {
	result := make([]entity.GdprRequestEntity, 0)
	for _, r := range f.requests {
		if r.OrgId == orgId {
			result = append(result, *r)
		}
	}
	return result, len(result), nil
}

func (f *fakeGdprRepo) UpdateRequest(ctx context.Context, ent *entity.GdprRequestEntity) error {
	c := *ent
	f.requests[ent.Id] = &c
	return nil
}

func (f *fakeGdprRepo) CountRequests(ctx context.Context, orgId string, statuses ...view.GdprStatus) (int, error) {
	count := 0
	for _, r := range f.requests {
		for _, s := range statuses {
			if r.OrgId == orgId && r.Status == string(s) {
				count++
			}
		}
	}
	return count, nil
}

func (f *fakeGdprRepo) CountOverdue(ctx context.Context, orgId string, now time.Time) (int, error) {
	count := 0
	for _, r := range f.requests {
		if r.OrgId == orgId && !view.GdprStatus(r.Status).Terminal() && r.DueDate.Before(now) {
			count++
		}
	}
	return count, nil
}

func (f *fakeGdprRepo) AnonymizeSubject(ctx context.Context, orgId string, subject string, targets []repository.AnonymizeTarget) (map[string]int, error) {
	counts := map[string]int{}
	for _, target := range targets {
		matches, _ := f.records.FindBySubject(ctx, target.Table, orgId, target.SubjectColumns, subject)
		for _, r := range matches {
			f.records.UpdateRecord(ctx, target.Table, orgId, r.Id(), target.Values)
		}
		counts[target.Table] = len(matches)
	}
	return counts, nil
}

func (f *fakeGdprRepo) StoreExportFile(ctx context.Context, requestId string, data []byte) error {
	f.files[requestId] = data
	return nil
}

func (f *fakeGdprRepo) GetExportFile(ctx context.Context, requestId string) ([]byte, error) {
	return f.files[requestId], nil
}

type gdprFixture struct {
	records *fakeRecordRepo
	repo    *fakeGdprRepo
	service GdprService
	secCtx  secctx.SecurityContext
}

func newGdprFixture(t *testing.T) *gdprFixture {
	records := newFakeRecordRepo()
	repo := newFakeGdprRepo(records)
	storage, err := NewMinioStorageService(&view.MinioStorageCreds{IsActive: false})
	require.NoError(t, err)
	records.put("candidates", view.Record{"id": "c1", "org_id": testOrgId, "full_name": "Jane Doe", "email": "jane@x.com", "phone": "5551234567", "years_experience": int64(4)})
	records.put("candidates", view.Record{"id": "c2", "org_id": testOrgId, "full_name": "Bob Stone", "email": "bob@y.com"})
	records.put("contacts", view.Record{"id": "k1", "org_id": testOrgId, "first_name": "Jane", "last_name": "Doe", "email": "Jane@X.com"})
	records.put("candidates", view.Record{"id": "c9", "org_id": "other-org", "full_name": "Jane Doe", "email": "jane@x.com"})
	return &gdprFixture{
		records: records,
		repo:    repo,
		service: NewGdprService(testRegistry(), repo, records, storage, NewAuditService(&fakeAuditRepo{}), 30, "anonymized.invalid"),
		secCtx:  secctx.CreateFromId("dpo", testOrgId),
	}
}

func (f *gdprFixture) create(t *testing.T, requestType view.GdprRequestType) *view.GdprRequest {
	req, err := f.service.CreateRequest(context.Background(), f.secCtx, view.CreateGdprRequestReq{
		RequestType:  requestType,
		SubjectEmail: " Jane@X.com ",
	})
	require.NoError(t, err)
	return req
}

func (f *gdprFixture) process(id string, action view.GdprAction) (*view.GdprRequest, error) {
	return f.service.ProcessRequest(context.Background(), f.secCtx, id, view.ProcessGdprRequestReq{Action: action})
}

func TestCreateGdprRequestNumbering(t *testing.T) {
	f := newGdprFixture(t)
	first := f.create(t, view.GdprTypeDsar)
	second := f.create(t, view.GdprTypeErasure)

	prefix := GdprRequestNumberPrefix(time.Now())
	assert.Equal(t, prefix+"0001", first.RequestNumber)
	assert.Equal(t, prefix+"0002", second.RequestNumber)
	assert.Equal(t, "jane@x.com", first.SubjectEmail)
	assert.Equal(t, view.GdprStatusPending, first.Status)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), first.DueDate, time.Minute)
}

func TestGdprDiscover(t *testing.T) {
	f := newGdprFixture(t)
	req := f.create(t, view.GdprTypeDsar)

	processed, err := f.process(req.Id, view.GdprActionDiscover)
	require.NoError(t, err)
	assert.Equal(t, view.GdprStatusInReview, processed.Status)
	assert.Equal(t, 1, processed.DataFound["candidates"])
	assert.Equal(t, 1, processed.DataFound["contacts"])
	assert.Equal(t, 0, processed.DataFound["leads"])
}

func TestGdprExportBundle(t *testing.T) {
	f := newGdprFixture(t)
	req := f.create(t, view.GdprTypePortability)

	processed, err := f.process(req.Id, view.GdprActionExport)
	require.NoError(t, err)
	assert.Equal(t, view.GdprStatusProcessing, processed.Status)
	assert.True(t, strings.HasSuffix(processed.ExportFileName, ".zip"))

	fileName, data, err := f.service.GetExportFile(context.Background(), f.secCtx, req.Id)
	require.NoError(t, err)
	assert.Equal(t, processed.ExportFileName, fileName)

	files, err := archive.ReadZip(data)
	require.NoError(t, err)
	require.Contains(t, files, "manifest.json")
	require.Contains(t, files, "candidates.json")

	var candidates []map[string]interface{}
	require.NoError(t, json.Unmarshal(files["candidates.json"], &candidates))
	require.Len(t, candidates, 1)
	assert.Equal(t, "c1", candidates[0]["id"])

	var manifest map[string]interface{}
	require.NoError(t, json.Unmarshal(files["manifest.json"], &manifest))
	assert.Equal(t, req.RequestNumber, manifest["requestNumber"])
	assert.Equal(t, float64(1), manifest["tables"].(map[string]interface{})["contacts"])
}

func TestGdprExportNotAllowedForErasure(t *testing.T) {
	f := newGdprFixture(t)
	req := f.create(t, view.GdprTypeErasure)

	_, err := f.process(req.Id, view.GdprActionExport)
	assert.Equal(t, exception.GdprExportNotAllowed, errorCode(err))

	_, _, err = f.service.GetExportFile(context.Background(), f.secCtx, req.Id)
	assert.Equal(t, exception.ExportNotReady, errorCode(err))
}

func TestGdprAnonymize(t *testing.T) {
	f := newGdprFixture(t)
	req := f.create(t, view.GdprTypeErasure)

	processed, err := f.process(req.Id, view.GdprActionAnonymize)
	require.NoError(t, err)
	assert.Equal(t, 1, processed.AnonymizedCounts["candidates"])
	assert.Equal(t, 1, processed.AnonymizedCounts["contacts"])

	c1 := f.records.get("candidates", "c1")
	assert.Equal(t, AnonymizedName, c1["full_name"])
	assert.Equal(t, AnonymizedEmail(testOrgId, "jane@x.com", "anonymized.invalid"), c1["email"])
	assert.Nil(t, c1["phone"])
	assert.Equal(t, int64(4), c1["years_experience"])

	assert.Equal(t, "bob@y.com", f.records.get("candidates", "c2")["email"])
	assert.Equal(t, "jane@x.com", f.records.get("candidates", "c9")["email"])
}

func TestGdprTerminalRequestIsClosed(t *testing.T) {
	f := newGdprFixture(t)
	req := f.create(t, view.GdprTypeDsar)

	completed, err := f.service.ProcessRequest(context.Background(), f.secCtx, req.Id, view.ProcessGdprRequestReq{Action: view.GdprActionComplete, Notes: "done"})
	require.NoError(t, err)
	assert.Equal(t, view.GdprStatusCompleted, completed.Status)
	assert.Equal(t, "dpo", completed.ProcessedBy)
	assert.Equal(t, "done", completed.ComplianceNotes)

	_, err = f.process(req.Id, view.GdprActionDiscover)
	assert.Equal(t, exception.GdprRequestClosed, errorCode(err))

	other := f.create(t, view.GdprTypeDsar)
	_, err = f.process(other.Id, "shred")
	assert.Equal(t, exception.InvalidGdprAction, errorCode(err))

	_, err = f.service.GetRequest(context.Background(), secctx.CreateFromId("x", "other-org"), other.Id)
	assert.Equal(t, exception.GdprRequestNotFound, errorCode(err))
}

func TestAnonymizedEmail(t *testing.T) {
	first := AnonymizedEmail("org-1", "Jane@X.com", "example.invalid")
	assert.Equal(t, first, AnonymizedEmail("org-1", " jane@x.com", "example.invalid"))
	assert.NotEqual(t, first, AnonymizedEmail("org-2", "jane@x.com", "example.invalid"))
	assert.Regexp(t, regexp.MustCompile(`^anonymized\+[0-9a-f]{16}@example\.invalid$`), first)
}

func TestAnonymizedValues(t *testing.T) {
	schema := candidateSchema(t)
	values := AnonymizedValues(schema, "org-1", "jane@x.com", "example.invalid")

	assert.Len(t, values, len(schema.PiiColumns))
	assert.Equal(t, AnonymizedName, values["full_name"])
	assert.Equal(t, AnonymizedName, values["location"])
	assert.Nil(t, values["phone"])
	assert.Nil(t, values["linkedin_url"])
	assert.Contains(t, values["email"], "@example.invalid")
}

func TestBuildSubjectBundle(t *testing.T) {
	ent := &entity.GdprRequestEntity{RequestNumber: "GDPR-2024-0007", RequestType: "dsar", SubjectEmail: "jane@x.com"}
	generatedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	data, err := BuildSubjectBundle(ent, view.SubjectData{
		"leads":      nil,
		"candidates": {{"id": "c1", "email": "jane@x.com"}},
	}, generatedAt)
	require.NoError(t, err)

	files, err := archive.ReadZip(data)
	require.NoError(t, err)
	assert.Len(t, files, 3)
	assert.JSONEq(t, "[]", string(files["leads.json"]))

	manifest := string(files["manifest.json"])
	assert.Less(t, strings.Index(manifest, "requestNumber"), strings.Index(manifest, "tables"))
	assert.Less(t, strings.Index(manifest, `"candidates"`), strings.Index(manifest, `"leads"`))
	assert.Contains(t, manifest, "2024-05-01T10:00:00Z")
}
