package service

import (
	"context"
	"testing"
	"time"

	secctx "github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/context"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/entity"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDashboardStats(t *testing.T) {
	records := newFakeRecordRepo()
	imports := newFakeImportJobRepo()
	exports := newFakeExportJobRepo()
	duplicates := newFakeDuplicateRepo(records)
	archive := newFakeArchiveRepo(records)
	gdpr := newFakeGdprRepo(records)
	audit := &fakeAuditRepo{}
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, imports.CreateJob(ctx, &entity.ImportJobEntity{Id: "i1", OrgId: testOrgId, Status: string(view.ImportStatusCompleted)}))
	require.NoError(t, imports.CreateJob(ctx, &entity.ImportJobEntity{Id: "i2", OrgId: testOrgId, Status: string(view.ImportStatusProcessing)}))
	require.NoError(t, imports.CreateJob(ctx, &entity.ImportJobEntity{Id: "i3", OrgId: "other-org", Status: string(view.ImportStatusPending)}))
	require.NoError(t, exports.CreateJob(ctx, &entity.ExportJobEntity{Id: "e1", OrgId: testOrgId, Status: string(view.ExportStatusPending)}))
	duplicates.dups["d1"] = &entity.DuplicateRecordEntity{Id: "d1", OrgId: testOrgId, Status: string(view.DuplicateStatusPending)}
	duplicates.dups["d2"] = &entity.DuplicateRecordEntity{Id: "d2", OrgId: testOrgId, Status: string(view.DuplicateStatusMerged)}
	archive.archived["a1"] = &entity.ArchivedRecordEntity{Id: "a1", OrgId: testOrgId, EntityType: "candidate", ArchivedAt: now}
	gdpr.requests["g1"] = &entity.GdprRequestEntity{Id: "g1", OrgId: testOrgId, Status: string(view.GdprStatusInReview), DueDate: now.Add(-time.Hour)}
	gdpr.requests["g2"] = &entity.GdprRequestEntity{Id: "g2", OrgId: testOrgId, Status: string(view.GdprStatusCompleted), DueDate: now.Add(-time.Hour)}

	auditService := NewAuditService(audit)
	secCtx := secctx.CreateFromId("user-1", testOrgId)
	auditService.TrackEvent(ctx, secCtx, view.AuditImportCreated, "candidate", "i1", nil)
	auditService.TrackEvent(ctx, secCtx, view.AuditExportCreated, "candidate", "e1", nil)

	stats, err := NewDashboardService(imports, exports, duplicates, archive, gdpr, auditService).GetDashboardStats(ctx, secCtx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalImports)
	assert.Equal(t, 1, stats.ActiveImports)
	assert.Equal(t, 1, stats.TotalExports)
	assert.Equal(t, 1, stats.ActiveExports)
	assert.Equal(t, 1, stats.PendingDuplicates)
	assert.Equal(t, 1, stats.ArchivedRecords)
	assert.Equal(t, 1, stats.PendingGdpr)
	assert.Equal(t, 1, stats.OverdueGdpr)
	require.Len(t, stats.RecentOperations, 2)
	assert.Equal(t, view.AuditExportCreated, stats.RecentOperations[0].Action)
}

func TestGetDashboardStatsEmptyOrg(t *testing.T) {
	records := newFakeRecordRepo()
	stats, err := NewDashboardService(newFakeImportJobRepo(), newFakeExportJobRepo(), newFakeDuplicateRepo(records),
		newFakeArchiveRepo(records), newFakeGdprRepo(records), NewAuditService(&fakeAuditRepo{})).
		GetDashboardStats(context.Background(), secctx.CreateFromId("user-1", testOrgId))
	require.NoError(t, err)
	assert.Equal(t, view.DashboardStats{RecentOperations: []view.AuditEntry{}}, *stats)
}
