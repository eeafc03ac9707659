package cleanup

import (
	"context"
	"time"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/service"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/service/cleanup/logger"
)

const defaultBatchSize = 500

type archiveRetentionProcessor struct {
	archiveService service.ArchiveService
	batchSize      int
}

func NewArchiveRetentionProcessor(archiveService service.ArchiveService) JobProcessor {
	return &archiveRetentionProcessor{archiveService: archiveService, batchSize: defaultBatchSize}
}

func (p *archiveRetentionProcessor) Process(ctx context.Context, expiredBefore time.Time, deletedItems *int) error {
	logger.Debugf(ctx, "Purging archive entries with retention before %s", expiredBefore.Format(time.RFC3339))
	deleted, err := p.archiveService.PurgeExpired(ctx, expiredBefore, p.batchSize)
	*deletedItems += deleted
	return err
}

type expiredExportsProcessor struct {
	exportService service.ExportService
	batchSize     int
}

func NewExpiredExportsProcessor(exportService service.ExportService) JobProcessor {
	return &expiredExportsProcessor{exportService: exportService, batchSize: defaultBatchSize}
}

func (p *expiredExportsProcessor) Process(ctx context.Context, expiredBefore time.Time, deletedItems *int) error {
	logger.Debugf(ctx, "Expiring exports with expiration before %s", expiredBefore.Format(time.RFC3339))
	expired, err := p.exportService.ExpireExports(ctx, expiredBefore, p.batchSize)
	*deletedItems += expired
	return err
}
