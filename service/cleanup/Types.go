package cleanup

import (
	"context"
	"time"
)

type jobType string
type jobStatus string

const (
	ArchiveRetentionJob jobType = "archive-retention"
	ExpiredExportsJob   jobType = "export-expiration"

	statusRunning  jobStatus = "running"
	statusComplete jobStatus = "complete"
	statusError    jobStatus = "error"
	statusTimeout  jobStatus = "timeout"
)

// JobProcessor removes everything that expired before the given time and reports the number of removed items.
type JobProcessor interface {
	Process(ctx context.Context, expiredBefore time.Time, deletedItems *int) error
}

type jobConfig struct {
	jobType    jobType
	instanceId string
	timeout    time.Duration
}
