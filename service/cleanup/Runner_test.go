package cleanup

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/entity"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/exception"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunRepo struct {
	mu   sync.Mutex
	runs map[string]entity.CleanupRunEntity
}

func (f *fakeRunRepo) StoreRun(ctx context.Context, ent *entity.CleanupRunEntity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.runs == nil {
		f.runs = map[string]entity.CleanupRunEntity{}
	}
	f.runs[ent.RunId] = *ent
	return nil
}

func (f *fakeRunRepo) UpdateRun(ctx context.Context, ent *entity.CleanupRunEntity) error {
	return f.StoreRun(ctx, ent)
}

func (f *fakeRunRepo) GetLastRun(ctx context.Context, jobType string) (*entity.CleanupRunEntity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var last *entity.CleanupRunEntity
	for _, run := range f.runs {
		if run.JobType == jobType && (last == nil || run.StartedAt.After(last.StartedAt)) {
			r := run
			last = &r
		}
	}
	return last, nil
}

type fakeLocks struct {
	held     map[string]bool
	released []string
}

func (f *fakeLocks) TryLock(ctx context.Context, name string) (*service.HeldLock, error) {
	if f.held[name] {
		return nil, nil
	}
	return &service.HeldLock{Name: name}, nil
}

func (f *fakeLocks) Unlock(ctx context.Context, lock *service.HeldLock) {
	f.released = append(f.released, lock.Name)
}

type processorFunc func(ctx context.Context, expiredBefore time.Time, deletedItems *int) error

func (p processorFunc) Process(ctx context.Context, expiredBefore time.Time, deletedItems *int) error {
	return p(ctx, expiredBefore, deletedItems)
}

func newRunner(runs *fakeRunRepo, locks *fakeLocks, processor JobProcessor) *JobRunner {
	return &JobRunner{
		runRepo:     runs,
		lockService: locks,
		config:      jobConfig{jobType: ExpiredExportsJob, instanceId: "instance-1", timeout: time.Minute},
		processor:   processor,
		now:         time.Now,
	}
}

func TestRunnerRecordsCompletedRun(t *testing.T) {
	runs := &fakeRunRepo{}
	locks := &fakeLocks{}
	newRunner(runs, locks, processorFunc(func(ctx context.Context, expiredBefore time.Time, deletedItems *int) error {
		*deletedItems += 3
		return nil
	})).Run()

	last, err := runs.GetLastRun(context.Background(), string(ExpiredExportsJob))
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, string(statusComplete), last.Status)
	assert.Equal(t, 3, last.DeletedItems)
	assert.Equal(t, "instance-1", last.InstanceId)
	assert.NotNil(t, last.FinishedAt)
	assert.Equal(t, []string{LockName(ExpiredExportsJob)}, locks.released)
}

func TestRunnerRecordsProcessorError(t *testing.T) {
	runs := &fakeRunRepo{}
	newRunner(runs, &fakeLocks{}, processorFunc(func(ctx context.Context, expiredBefore time.Time, deletedItems *int) error {
		*deletedItems++
		return errors.New("storage unavailable")
	})).Run()

	last, _ := runs.GetLastRun(context.Background(), string(ExpiredExportsJob))
	require.NotNil(t, last)
	assert.Equal(t, string(statusError), last.Status)
	assert.Equal(t, 1, last.DeletedItems)
	assert.Contains(t, last.Details, "storage unavailable")
}

func TestRunnerRecordsPanic(t *testing.T) {
	runs := &fakeRunRepo{}
	newRunner(runs, &fakeLocks{}, processorFunc(func(ctx context.Context, expiredBefore time.Time, deletedItems *int) error {
		panic("boom")
	})).Run()

	last, _ := runs.GetLastRun(context.Background(), string(ExpiredExportsJob))
	require.NotNil(t, last)
	assert.Equal(t, string(statusError), last.Status)
	assert.Equal(t, string(ExpiredExportsJob)+" cleanup stopped: boom", last.Details)
	assert.Equal(t, 0, last.DeletedItems)
}

func TestRunnerSkipsWhenLockIsHeld(t *testing.T) {
	runs := &fakeRunRepo{}
	called := false
	locks := &fakeLocks{held: map[string]bool{LockName(ExpiredExportsJob): true}}
	newRunner(runs, locks, processorFunc(func(ctx context.Context, expiredBefore time.Time, deletedItems *int) error {
		called = true
		return nil
	})).Run()

	assert.False(t, called)
	assert.Empty(t, runs.runs)
	assert.Empty(t, locks.released)
}

func TestFormatErrorMessage(t *testing.T) {
	assert.Equal(t, "short", formatErrorMessage("short"))
	long := strings.Repeat("ж", 1500)
	formatted := formatErrorMessage(long)
	assert.Equal(t, maxErrorMessageLength, len([]rune(formatted)))
	assert.True(t, strings.HasSuffix(formatted, "..."))
}

func TestDetermineJobStatus(t *testing.T) {
	assert.Equal(t, statusComplete, determineJobStatus(context.Background(), nil))
	assert.Equal(t, statusError, determineJobStatus(context.Background(), errors.New("x")))

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	assert.Equal(t, statusTimeout, determineJobStatus(ctx, ctx.Err()))
}

func TestCalculateCleanupJobTimeout(t *testing.T) {
	assert.Equal(t, 50*time.Minute, calculateCleanupJobTimeout("0 * * * *", ExpiredExportsJob))
	assert.Equal(t, 9*time.Minute, calculateCleanupJobTimeout("*/10 * * * *", ExpiredExportsJob))
	assert.Equal(t, defaultCleanupJobTimeout, calculateCleanupJobTimeout("not a schedule", ExpiredExportsJob))
}

func TestGetLastRun(t *testing.T) {
	runs := &fakeRunRepo{}
	cleanup := NewCleanupService(runs, &fakeLocks{}, "instance-1")
	defer cleanup.Stop()
	ctx := context.Background()

	run, err := cleanup.GetLastRun(ctx, string(ArchiveRetentionJob))
	require.NoError(t, err)
	assert.Nil(t, run)

	_, err = cleanup.GetLastRun(ctx, "vacuum")
	var customErr *exception.CustomError
	require.ErrorAs(t, err, &customErr)
	assert.Equal(t, exception.CleanupJobNotFound, customErr.Code)

	require.NoError(t, runs.StoreRun(ctx, &entity.CleanupRunEntity{RunId: "r1", JobType: string(ArchiveRetentionJob), Status: string(statusComplete), DeletedItems: 4}))
	run, err = cleanup.GetLastRun(ctx, string(ArchiveRetentionJob))
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, 4, run.DeletedItems)
}

func TestInvalidScheduleIsRejected(t *testing.T) {
	cleanup := NewCleanupService(&fakeRunRepo{}, &fakeLocks{}, "instance-1")
	defer cleanup.Stop()
	assert.Error(t, cleanup.CreateExpiredExportsJob(nil, "every day", 0))
	assert.NoError(t, cleanup.CreateExpiredExportsJob(nil, "", 0))
}
