package service

import (
	"context"
	"time"

	secctx "github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/context"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/repository"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
	"golang.org/x/sync/errgroup"
)

const recentOperationsLimit = 10

type DashboardService interface {
	GetDashboardStats(ctx context.Context, secCtx secctx.SecurityContext) (*view.DashboardStats, error)
}

func NewDashboardService(
	importJobRepo repository.ImportJobRepository,
	exportJobRepo repository.ExportJobRepository,
	duplicateRepo repository.DuplicateRepository,
	archiveRepo repository.ArchiveRepository,
	gdprRepo repository.GdprRepository,
	auditService AuditService) DashboardService {
	return &dashboardServiceImpl{
		importJobRepo: importJobRepo,
		exportJobRepo: exportJobRepo,
		duplicateRepo: duplicateRepo,
		archiveRepo:   archiveRepo,
		gdprRepo:      gdprRepo,
		auditService:  auditService,
	}
}

type dashboardServiceImpl struct {
	importJobRepo repository.ImportJobRepository
	exportJobRepo repository.ExportJobRepository
	duplicateRepo repository.DuplicateRepository
	archiveRepo   repository.ArchiveRepository
	gdprRepo      repository.GdprRepository
	auditService  AuditService
}

func (d dashboardServiceImpl) GetDashboardStats(ctx context.Context, secCtx secctx.SecurityContext) (*view.DashboardStats, error) {
	orgId := secCtx.GetOrgId()
	stats := &view.DashboardStats{}
	// every goroutine writes its own field
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		stats.TotalImports, err = d.importJobRepo.CountJobs(ctx, orgId)
		return
	})
	eg.Go(func() (err error) {
		stats.ActiveImports, err = d.importJobRepo.CountJobs(ctx, orgId, view.ImportStatusPending, view.ImportStatusProcessing)
		return
	})
	eg.Go(func() (err error) {
		stats.TotalExports, err = d.exportJobRepo.CountJobs(ctx, orgId)
		return
	})
	eg.Go(func() (err error) {
		stats.ActiveExports, err = d.exportJobRepo.CountJobs(ctx, orgId, view.ExportStatusPending, view.ExportStatusProcessing)
		return
	})
	eg.Go(func() (err error) {
		stats.PendingDuplicates, err = d.duplicateRepo.CountDuplicates(ctx, orgId, view.DuplicateStatusPending)
		return
	})
	eg.Go(func() (err error) {
		stats.ArchivedRecords, err = d.archiveRepo.CountArchived(ctx, orgId)
		return
	})
	eg.Go(func() (err error) {
		stats.PendingGdpr, err = d.gdprRepo.CountRequests(ctx, orgId, view.GdprStatusPending, view.GdprStatusInReview, view.GdprStatusProcessing)
		return
	})
	eg.Go(func() (err error) {
		stats.OverdueGdpr, err = d.gdprRepo.CountOverdue(ctx, orgId, time.Now())
		return
	})
	eg.Go(func() (err error) {
		stats.RecentOperations, err = d.auditService.GetRecentEntries(ctx, orgId, recentOperationsLimit)
		return
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if stats.RecentOperations == nil {
		stats.RecentOperations = make([]view.AuditEntry, 0)
	}
	return stats, nil
}
