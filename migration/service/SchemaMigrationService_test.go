package service

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/migration"
	mEntity "github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/migration/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMigrationRepo struct {
	applied []mEntity.SchemaMigrationEntity
	scripts []string
}

func (f *fakeMigrationRepo) EnsureMigrationsTable(ctx context.Context) error {
	return nil
}

func (f *fakeMigrationRepo) GetAppliedMigrations(ctx context.Context) ([]mEntity.SchemaMigrationEntity, error) {
	return f.applied, nil
}

func (f *fakeMigrationRepo) ApplyMigration(ctx context.Context, ent *mEntity.SchemaMigrationEntity, script string) error {
	f.applied = append(f.applied, *ent)
	f.scripts = append(f.scripts, script)
	return nil
}

func testResources() fstest.MapFS {
	return fstest.MapFS{
		"sql/2_second.up.sql":   {Data: []byte("create table b (id int);")},
		"sql/1_first.up.sql":    {Data: []byte("create table a (id int);")},
		"sql/10_tenth.up.sql":   {Data: []byte("create table c (id int);")},
		"sql/README.md":         {Data: []byte("notes")},
		"sql/3_second.down.sql": {Data: []byte("drop table b;")},
	}
}

func TestReadMigrationsOrdersByVersion(t *testing.T) {
	migrations, err := ReadMigrations(testResources(), "sql")
	require.NoError(t, err)
	require.Len(t, migrations, 3)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "first", migrations[0].Name)
	assert.Equal(t, 2, migrations[1].Version)
	assert.Equal(t, 10, migrations[2].Version)
	assert.NotEmpty(t, migrations[0].Checksum)
	assert.NotEqual(t, migrations[0].Checksum, migrations[1].Checksum)
}

func TestReadMigrationsRejectsDuplicateVersions(t *testing.T) {
	resources := fstest.MapFS{
		"sql/1_a.up.sql":  {Data: []byte("select 1;")},
		"sql/01_b.up.sql": {Data: []byte("select 2;")},
	}
	_, err := ReadMigrations(resources, "sql")
	assert.Error(t, err)
}

func TestMigrateAppliesOnlyPending(t *testing.T) {
	migrations, err := ReadMigrations(testResources(), "sql")
	require.NoError(t, err)
	repo := &fakeMigrationRepo{applied: []mEntity.SchemaMigrationEntity{
		{Version: 1, Name: "first", Checksum: migrations[0].Checksum},
	}}
	version, err := NewSchemaMigrationService(repo, testResources(), "sql").Migrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, version)
	assert.Equal(t, []string{"create table b (id int);", "create table c (id int);"}, repo.scripts)

	version, err = NewSchemaMigrationService(repo, testResources(), "sql").Migrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, version)
	assert.Len(t, repo.scripts, 2)
}

func TestPendingMigrationsStopsOnDirtyVersion(t *testing.T) {
	_, _, err := PendingMigrations(nil, []mEntity.SchemaMigrationEntity{{Version: 3, Name: "x", Dirty: true}})
	assert.Error(t, err)
}

func TestPendingMigrationsRejectsGaps(t *testing.T) {
	migrations := []SchemaMigration{{Version: 1, Name: "a"}, {Version: 2, Name: "b"}}
	_, _, err := PendingMigrations(migrations, []mEntity.SchemaMigrationEntity{{Version: 2, Name: "b"}})
	assert.Error(t, err)
}

func TestEmbeddedMigrationsAreReadable(t *testing.T) {
	migrations, err := ReadMigrations(migration.Resources, migration.ResourcesDir)
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Contains(t, migrations[0].Script, "create table if not exists candidates")
	assert.Contains(t, migrations[1].Script, "create table if not exists gdpr_request")
}
