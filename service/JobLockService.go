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

package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/repository"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/utils"
	log "github.com/sirupsen/logrus"
)

const (
	defaultLockLease  = 60 * time.Second
	lockExtendRetries = 3
)

// HeldLock is a lease kept alive by a heartbeat until released.
type HeldLock struct {
	Name    string
	version int64
	cancel  context.CancelFunc
	lost    chan struct{}
}

// Lost is closed when the lease could not be extended and another owner may take the lock.
func (l *HeldLock) Lost() <-chan struct{} {
	return l.lost
}

type JobLockService interface {
	// TryLock returns nil when another owner holds the lock.
	TryLock(ctx context.Context, name string) (*HeldLock, error)
	Unlock(ctx context.Context, lock *HeldLock)
}

func NewJobLockService(lockRepo repository.JobLockRepository, ownerId string, lease time.Duration) JobLockService {
	if lease <= 0 {
		lease = defaultLockLease
	}
	return &jobLockServiceImpl{
		lockRepo: lockRepo,
		ownerId:  ownerId,
		lease:    lease,
		held:     make(map[string]*HeldLock),
	}
}

type jobLockServiceImpl struct {
	lockRepo repository.JobLockRepository
	ownerId  string
	lease    time.Duration
	mu       sync.Mutex
	held     map[string]*HeldLock
}

func (s *jobLockServiceImpl) TryLock(ctx context.Context, name string) (*HeldLock, error) {
	if name == "" {
		return nil, fmt.Errorf("lock name cannot be empty")
	}
	ent, err := s.lockRepo.TryAcquire(ctx, name, s.ownerId, s.lease)
	if err != nil {
		return nil, err
	}
	if ent == nil {
		return nil, nil
	}

	heartbeatCtx, cancel := context.WithCancel(context.Background())
	lock := &HeldLock{Name: name, version: ent.Version, cancel: cancel, lost: make(chan struct{})}

	s.mu.Lock()
	s.held[name] = lock
	s.mu.Unlock()

	utils.SafeAsync(func() {
		s.runHeartbeat(heartbeatCtx, lock)
	})
	log.Debugf("Acquired job lock %s with lease %s", name, s.lease)
	return lock, nil
}

func (s *jobLockServiceImpl) Unlock(ctx context.Context, lock *HeldLock) {
	if lock == nil {
		return
	}
	lock.cancel()

	s.mu.Lock()
	delete(s.held, lock.Name)
	s.mu.Unlock()

	if err := s.lockRepo.Release(ctx, lock.Name, s.ownerId); err != nil {
		if err == repository.ErrLockNotHeld {
			log.Debugf("Job lock %s was already taken over, nothing to release", lock.Name)
			return
		}
		log.Errorf("Failed to release job lock %s: %v", lock.Name, err)
		return
	}
	log.Debugf("Released job lock %s", lock.Name)
}

func (s *jobLockServiceImpl) runHeartbeat(ctx context.Context, lock *HeldLock) {
	ticker := time.NewTicker(s.lease / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Tracef("Heartbeat for job lock %s stopped", lock.Name)
			return
		case <-ticker.C:
			if err := s.extend(ctx, lock); err != nil {
				if ctx.Err() == nil {
					log.Errorf("Lost job lock %s: %v", lock.Name, err)
					close(lock.lost)
				}
				return
			}
		}
	}
}

func (s *jobLockServiceImpl) extend(ctx context.Context, lock *HeldLock) error {
	var err error
	for i := 0; i < lockExtendRetries; i++ {
		var version int64
		version, err = s.lockRepo.Extend(ctx, lock.Name, s.ownerId, s.lease, lock.version)
		if err == nil {
			lock.version = version
			log.Tracef("Extended job lock %s", lock.Name)
			return nil
		}
		if err == repository.ErrLockNotHeld {
			return err
		}
		log.Warnf("Failed to extend job lock %s (attempt %d/%d): %v", lock.Name, i+1, lockExtendRetries, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * 100 * time.Millisecond):
		}
	}
	return fmt.Errorf("failed to extend job lock after %d attempts: %w", lockExtendRetries, err)
}
