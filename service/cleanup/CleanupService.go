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

package cleanup

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/exception"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/repository"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/service"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

const (
	defaultCleanupJobTimeout = 6 * time.Hour
	cleanupJobTimeoutBuffer  = 10 * time.Minute
)

type CleanupService interface {
	CreateArchiveRetentionJob(archiveService service.ArchiveService, schedule string, timeoutMinutes int) error
	CreateExpiredExportsJob(exportService service.ExportService, schedule string, timeoutMinutes int) error
	GetLastRun(ctx context.Context, jobType string) (*view.CleanupRun, error)
	Stop()
}

func NewCleanupService(runRepo repository.CleanupRunRepository, lockService service.JobLockService, instanceId string) CleanupService {
	return &cleanupServiceImpl{
		runRepo:     runRepo,
		lockService: lockService,
		instanceId:  instanceId,
		cron:        cron.New(cron.WithLocation(time.UTC)),
	}
}

type cleanupServiceImpl struct {
	runRepo     repository.CleanupRunRepository
	lockService service.JobLockService
	instanceId  string
	cron        *cron.Cron
	started     bool
}

func (c *cleanupServiceImpl) CreateArchiveRetentionJob(archiveService service.ArchiveService, schedule string, timeoutMinutes int) error {
	return c.addCleanupJob(c.newRunner(ArchiveRetentionJob, schedule, timeoutMinutes, NewArchiveRetentionProcessor(archiveService)), schedule, ArchiveRetentionJob)
}

func (c *cleanupServiceImpl) CreateExpiredExportsJob(exportService service.ExportService, schedule string, timeoutMinutes int) error {
	return c.addCleanupJob(c.newRunner(ExpiredExportsJob, schedule, timeoutMinutes, NewExpiredExportsProcessor(exportService)), schedule, ExpiredExportsJob)
}

func (c *cleanupServiceImpl) newRunner(jobType jobType, schedule string, timeoutMinutes int, processor JobProcessor) *JobRunner {
	timeout := time.Duration(timeoutMinutes) * time.Minute
	if timeout <= 0 {
		timeout = calculateCleanupJobTimeout(schedule, jobType)
	}
	return &JobRunner{
		runRepo:     c.runRepo,
		lockService: c.lockService,
		config: jobConfig{
			jobType:    jobType,
			instanceId: c.instanceId,
			timeout:    timeout,
		},
		processor: processor,
		now:       time.Now,
	}
}

func (c *cleanupServiceImpl) GetLastRun(ctx context.Context, jobType string) (*view.CleanupRun, error) {
	if jobType != string(ArchiveRetentionJob) && jobType != string(ExpiredExportsJob) {
		return nil, &exception.CustomError{
			Status:  http.StatusNotFound,
			Code:    exception.CleanupJobNotFound,
			Message: exception.CleanupJobNotFoundMsg,
			Params:  map[string]interface{}{"jobType": jobType},
		}
	}
	ent, err := c.runRepo.GetLastRun(ctx, jobType)
	if err != nil {
		return nil, err
	}
	if ent == nil {
		return nil, nil
	}
	return &view.CleanupRun{
		RunId:        ent.RunId,
		JobType:      ent.JobType,
		InstanceId:   ent.InstanceId,
		Status:       ent.Status,
		Details:      ent.Details,
		StartedAt:    ent.StartedAt,
		FinishedAt:   ent.FinishedAt,
		DeletedItems: ent.DeletedItems,
	}, nil
}

func (c *cleanupServiceImpl) Stop() {
	<-c.cron.Stop().Done()
}

// calculateCleanupJobTimeout keeps a run shorter than the interval between two scheduled runs.
func calculateCleanupJobTimeout(schedule string, jobType jobType) time.Duration {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Warnf("Failed to parse cron schedule '%s' for %s job: %v. Using default timeout.", schedule, jobType, err)
		return defaultCleanupJobTimeout
	}
	next1 := sched.Next(time.Now())
	next2 := sched.Next(next1)
	interval := next2.Sub(next1)
	if interval <= cleanupJobTimeoutBuffer {
		return time.Duration(float64(interval) * 0.9)
	}
	return interval - cleanupJobTimeoutBuffer
}

func (c *cleanupServiceImpl) addCleanupJob(job cron.Job, schedule string, jobType jobType) error {
	if schedule == "" {
		log.Infof("%s job is disabled: no schedule", jobType)
		return nil
	}
	wrappedJob := cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger)).Then(job)
	if _, err := c.cron.AddJob(schedule, wrappedJob); err != nil {
		log.Warnf("%s job wasn't added for schedule - %s. With error - %s", jobType, schedule, err)
		return fmt.Errorf("invalid schedule for %s job: %w", jobType, err)
	}
	if !c.started {
		c.cron.Start()
		c.started = true
	}
	log.Infof("%s job was created with schedule - %s", jobType, schedule)
	return nil
}
