package repository

import (
	"context"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/db"
	mEntity "github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/migration/entity"
	"github.com/go-pg/pg/v10"
)

// advisory lock key shared by all instances applying migrations
const migrationLockKey = 7246135

type SchemaMigrationRepository interface {
	EnsureMigrationsTable(ctx context.Context) error
	GetAppliedMigrations(ctx context.Context) ([]mEntity.SchemaMigrationEntity, error)
	// ApplyMigration runs the script and records its version in a single transaction.
	ApplyMigration(ctx context.Context, ent *mEntity.SchemaMigrationEntity, script string) error
}

func NewSchemaMigrationRepository(cp db.ConnectionProvider) SchemaMigrationRepository {
	return &schemaMigrationRepositoryImpl{cp: cp}
}

type schemaMigrationRepositoryImpl struct {
	cp db.ConnectionProvider
}

func (s schemaMigrationRepositoryImpl) EnsureMigrationsTable(ctx context.Context) error {
	_, err := s.cp.GetConnection().ExecContext(ctx, `create table if not exists schema_migrations
(
    version    bigint  not null primary key,
    name       varchar not null,
    checksum   varchar,
    dirty      boolean not null default false,
    applied_at timestamp without time zone not null default now()
)`)
	return err
}

func (s schemaMigrationRepositoryImpl) GetAppliedMigrations(ctx context.Context) ([]mEntity.SchemaMigrationEntity, error) {
	ents := make([]mEntity.SchemaMigrationEntity, 0)
	err := s.cp.GetConnection().ModelContext(ctx, &ents).Order("version").Select()
	if err != nil && err != pg.ErrNoRows {
		return nil, err
	}
	return ents, nil
}

func (s schemaMigrationRepositoryImpl) ApplyMigration(ctx context.Context, ent *mEntity.SchemaMigrationEntity, script string) error {
	return s.cp.GetConnection().RunInTransaction(ctx, func(tx *pg.Tx) error {
		if _, err := tx.ExecContext(ctx, "select pg_advisory_xact_lock(?)", migrationLockKey); err != nil {
			return err
		}
		applied := new(mEntity.SchemaMigrationEntity)
		err := tx.ModelContext(ctx, applied).Where("version = ?", ent.Version).Select()
		if err == nil {
			// another instance got here first
			return nil
		}
		if err != pg.ErrNoRows {
			return err
		}
		if _, err = tx.ExecContext(ctx, script); err != nil {
			return err
		}
		_, err = tx.ModelContext(ctx, ent).Insert()
		return err
	})
}
