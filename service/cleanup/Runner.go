package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/entity"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/repository"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/service"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/service/cleanup/logger"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/utils"
	"github.com/google/uuid"
)

const (
	maxErrorMessageLength = 1000
	updateContextTimeout  = 10 * time.Second
)

type JobRunner struct {
	runRepo     repository.CleanupRunRepository
	lockService service.JobLockService
	config      jobConfig
	processor   JobProcessor
	now         func() time.Time
}

func LockName(jobType jobType) string {
	return "cleanup:" + string(jobType)
}

func (r *JobRunner) Run() {
	jobId := uuid.New().String()
	deletedItems := 0

	jobCtx, jobCancel := context.WithTimeout(context.Background(), r.config.timeout)
	defer jobCancel()
	jobCtx = logger.WithJob(jobCtx, string(r.config.jobType), jobId)

	run := &entity.CleanupRunEntity{
		RunId:        jobId,
		JobType:      string(r.config.jobType),
		InstanceId:   r.config.instanceId,
		StartedAt:    r.now(),
		Status:       string(statusRunning),
		DeleteBefore: r.now(),
	}

	defer func() {
		if err := recover(); err != nil {
			logger.Errorf(jobCtx, "cleanup job failed with panic: %v", err)
			r.finish(jobCtx, run, statusError, fmt.Sprintf("panic: %v", err), deletedItems)
		}
	}()

	lock, err := r.lockService.TryLock(jobCtx, LockName(r.config.jobType))
	if err != nil {
		logger.Errorf(jobCtx, "Failed to acquire lock: %v", err)
		return
	}
	if lock == nil {
		logger.Info(jobCtx, "job skipped - lock is held by another instance")
		return
	}
	defer func() {
		releaseCtx, cancel := createContextForUpdate(jobCtx)
		defer cancel()
		r.lockService.Unlock(releaseCtx, lock)
	}()
	go func() {
		select {
		case <-lock.Lost():
			logger.Warnf(jobCtx, "Lock %s lost, canceling cleanup job", lock.Name)
			jobCancel()
		case <-jobCtx.Done():
		}
	}()

	logger.Infof(jobCtx, "Starting cleanup job, timeout %v", r.config.timeout)
	if err = r.runRepo.StoreRun(jobCtx, run); err != nil {
		logger.Errorf(jobCtx, "Failed to store cleanup run: %v", err)
		return
	}

	status := statusComplete
	errorMessage := ""
	err = utils.SafeSync(func() error {
		return r.processor.Process(jobCtx, run.DeleteBefore, &deletedItems)
	})
	if err != nil {
		logger.Warnf(jobCtx, "Cleanup finished with error: %v", err)
		status = determineJobStatus(jobCtx, err)
		errorMessage = fmt.Sprintf("%s cleanup stopped: %s", r.config.jobType, err.Error())
	}
	r.finish(jobCtx, run, status, errorMessage, deletedItems)
}

func (r *JobRunner) finish(ctx context.Context, run *entity.CleanupRunEntity, status jobStatus, errorMessage string, deletedItems int) {
	updateCtx, cancel := createContextForUpdate(ctx)
	defer cancel()

	finishedAt := r.now()
	run.FinishedAt = &finishedAt
	run.Status = string(status)
	run.Details = formatErrorMessage(errorMessage)
	run.DeletedItems = deletedItems
	if err := r.runRepo.UpdateRun(updateCtx, run); err != nil {
		logger.Errorf(ctx, "Failed to save cleanup run state: %v, status: %s, deletedItems: %d", err, status, deletedItems)
		return
	}
	logger.Infof(ctx, "job finished with status '%s'. Deleted %d items.", status, deletedItems)
}

func createContextForUpdate(parentCtx context.Context) (context.Context, context.CancelFunc) {
	if parentCtx.Err() != nil {
		return context.WithTimeout(context.WithoutCancel(parentCtx), updateContextTimeout)
	}
	return parentCtx, func() {}
}

func formatErrorMessage(errorMessage string) string {
	runes := []rune(errorMessage)
	if len(runes) > maxErrorMessageLength {
		return string(runes[:maxErrorMessageLength-3]) + "..."
	}
	return errorMessage
}

func determineJobStatus(ctx context.Context, err error) jobStatus {
	if err == nil {
		return statusComplete
	}
	if ctx.Err() == context.DeadlineExceeded {
		return statusTimeout
	}
	return statusError
}
