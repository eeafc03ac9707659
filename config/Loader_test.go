package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) {
	path := filepath.Join(t.TempDir(), "datahub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	t.Setenv(ConfigFileEnv, path)
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	writeConfigFile(t, `
database:
  host: db.local
  password: secret
export:
  maxRows: 500
`)
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "db.local", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 500, cfg.Export.MaxRows)
	assert.Equal(t, 7, cfg.Export.ExpirationDays)
	assert.Equal(t, 365, cfg.Archive.DefaultRetentionDays)
	assert.Equal(t, 0.5, cfg.Duplicates.MinConfidence)
	assert.Equal(t, "X-Actor-Id", cfg.Security.ActorHeader)
	assert.Equal(t, "0 3 * * *", cfg.Cleanup.ArchiveRetention.Schedule)
	assert.False(t, cfg.S3Storage.Enabled)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	writeConfigFile(t, `
database:
  password: from-file
`)
	t.Setenv("DATAHUB_DATABASE_PASSWORD", "from-env")
	t.Setenv("DATAHUB_GDPR_DEFAULTDUEDAYS", "14")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, 14, cfg.Gdpr.DefaultDueDays)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	writeConfigFile(t, `
database:
  password: secret
duplicates:
  minConfidence: 1.5
`)
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "MinConfidence")
}

func TestValidateConfigRequiresBucketForS3(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, ValidateConfig(cfg))

	cfg.S3Storage.Enabled = true
	cfg.S3Storage.Url = "minio.local:9000"
	assert.Error(t, ValidateConfig(cfg))

	cfg.S3Storage.BucketName = "datahub"
	assert.NoError(t, ValidateConfig(cfg))
}

func validConfig() *Config {
	return &Config{
		Database:            DatabaseConfig{Host: "localhost", Port: 5432, Name: "datahub", Username: "datahub", Password: "secret"},
		Security:            SecurityConfig{ActorHeader: "X-Actor-Id", OrganizationHeader: "X-Org-Id"},
		TechnicalParameters: TechnicalParameters{ListenAddress: ":8080"},
		Logging:             LoggingConfig{Level: "info"},
		Import:              ImportConfig{SampleRows: 5, MaxIssuesReturned: 100, MaxStoredErrors: 100, MaxFileSizeMb: 50},
		Export:              ExportConfig{MaxRows: 100, PageSize: 10, ExpirationDays: 7, DownloadUrlTTLSec: 60},
		Duplicates:          DuplicatesConfig{MinConfidence: 0.5, MaxBlockSize: 200, PageSize: 100},
		Archive:             ArchiveConfig{DefaultRetentionDays: 365, MaxBulkItems: 1000},
		Gdpr:                GdprConfig{DefaultDueDays: 30, AnonymizedEmailDomain: "example.invalid"},
	}
}
