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
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"time"

	mEntity "github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/migration/entity"
	mRepository "github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/migration/repository"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/utils"
	log "github.com/sirupsen/logrus"
)

var migrationFileName = regexp.MustCompile(`^(\d+)_([a-z0-9_]+)\.up\.sql$`)

type SchemaMigration struct {
	Version  int
	Name     string
	Checksum string
	Script   string
}

type SchemaMigrationService interface {
	// Migrate applies all pending migrations and returns the resulting schema version.
	Migrate(ctx context.Context) (int, error)
}

func NewSchemaMigrationService(repo mRepository.SchemaMigrationRepository, resources fs.FS, dir string) SchemaMigrationService {
	return &schemaMigrationServiceImpl{repo: repo, resources: resources, dir: dir}
}

type schemaMigrationServiceImpl struct {
	repo      mRepository.SchemaMigrationRepository
	resources fs.FS
	dir       string
}

func (s schemaMigrationServiceImpl) Migrate(ctx context.Context) (int, error) {
	migrations, err := ReadMigrations(s.resources, s.dir)
	if err != nil {
		return 0, err
	}
	if err = s.repo.EnsureMigrationsTable(ctx); err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}
	applied, err := s.repo.GetAppliedMigrations(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	pending, currentVersion, err := PendingMigrations(migrations, applied)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		log.Infof("Database schema is up to date, version %d", currentVersion)
		return currentVersion, nil
	}
	for _, m := range pending {
		start := time.Now()
		log.Infof("Applying migration %d_%s", m.Version, m.Name)
		err = s.repo.ApplyMigration(ctx, &mEntity.SchemaMigrationEntity{
			Version:   m.Version,
			Name:      m.Name,
			Checksum:  m.Checksum,
			AppliedAt: time.Now(),
		}, m.Script)
		if err != nil {
			return currentVersion, fmt.Errorf("migration %d_%s failed: %w", m.Version, m.Name, err)
		}
		currentVersion = m.Version
		log.Infof("Migration %d_%s applied in %v", m.Version, m.Name, time.Since(start))
	}
	return currentVersion, nil
}

// ReadMigrations loads the up scripts from dir ordered by version.
func ReadMigrations(resources fs.FS, dir string) ([]SchemaMigration, error) {
	files, err := fs.ReadDir(resources, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	result := make([]SchemaMigration, 0, len(files))
	versions := make(map[int]string)
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		match := migrationFileName.FindStringSubmatch(f.Name())
		if match == nil {
			log.Warnf("Skipping unexpected file %s in migrations", f.Name())
			continue
		}
		version, _ := strconv.Atoi(match[1])
		if other, exists := versions[version]; exists {
			return nil, fmt.Errorf("migration version %d is used by both %s and %s", version, other, f.Name())
		}
		versions[version] = f.Name()
		data, err := fs.ReadFile(resources, path.Join(dir, f.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", f.Name(), err)
		}
		result = append(result, SchemaMigration{
			Version:  version,
			Name:     match[2],
			Checksum: utils.GetEncodedXXHash128(data),
			Script:   string(data),
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Version < result[j].Version })
	return result, nil
}

// PendingMigrations returns the migrations newer than the applied schema version.
// A dirty applied version stops the process until it is fixed manually.
func PendingMigrations(migrations []SchemaMigration, applied []mEntity.SchemaMigrationEntity) ([]SchemaMigration, int, error) {
	currentVersion := 0
	checksums := make(map[int]string, len(applied))
	for _, a := range applied {
		if a.Dirty {
			return nil, 0, fmt.Errorf("schema migration %d_%s is dirty, manual fix is required", a.Version, a.Name)
		}
		checksums[a.Version] = a.Checksum
		if a.Version > currentVersion {
			currentVersion = a.Version
		}
	}
	pending := make([]SchemaMigration, 0)
	for _, m := range migrations {
		if checksum, ok := checksums[m.Version]; ok {
			if checksum != "" && checksum != m.Checksum {
				log.Warnf("Migration %d_%s was changed after it had been applied", m.Version, m.Name)
			}
			continue
		}
		if m.Version < currentVersion {
			return nil, currentVersion, fmt.Errorf("migration %d_%s is older than the current schema version %d", m.Version, m.Name, currentVersion)
		}
		pending = append(pending, m)
	}
	return pending, currentVersion, nil
}
