package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	ConfigFileEnv = "DATAHUB_CONFIG_FILE"
	envPrefix     = "DATAHUB"
)

// LoadConfig reads config.yaml (or the file named by DATAHUB_CONFIG_FILE), applies
// DATAHUB_* environment overrides and validates the result.
func LoadConfig() (*Config, error) {
	v := viper.New()
	if file := os.Getenv(ConfigFileEnv); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/datahub")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ValidateConfig(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config is invalid: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "datahub")
	v.SetDefault("database.username", "datahub")
	v.SetDefault("database.password", "")

	v.SetDefault("security.actorHeader", "X-Actor-Id")
	v.SetDefault("security.organizationHeader", "X-Org-Id")
	v.SetDefault("security.gatewayApiKey", "")
	v.SetDefault("security.allowedOrigins", []string{})
	v.SetDefault("security.identityCacheSize", 2000)
	v.SetDefault("security.identityCacheTTLSec", 300)

	v.SetDefault("technicalParameters.instanceId", "")
	v.SetDefault("technicalParameters.basePath", ".")
	v.SetDefault("technicalParameters.listenAddress", ":8080")

	v.SetDefault("monitoring.enabled", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.maxSizeMb", 100)
	v.SetDefault("logging.maxBackups", 5)
	v.SetDefault("logging.maxAgeDays", 14)

	v.SetDefault("s3Storage.enabled", false)
	v.SetDefault("s3Storage.url", "")
	v.SetDefault("s3Storage.username", "")
	v.SetDefault("s3Storage.password", "")
	v.SetDefault("s3Storage.crt", "")
	v.SetDefault("s3Storage.bucketName", "")

	v.SetDefault("import.sampleRows", 5)
	v.SetDefault("import.maxIssuesReturned", 100)
	v.SetDefault("import.maxStoredErrors", 100)
	v.SetDefault("import.maxFileSizeMb", 50)

	v.SetDefault("export.maxRows", 100000)
	v.SetDefault("export.pageSize", 1000)
	v.SetDefault("export.expirationDays", 7)
	v.SetDefault("export.downloadUrlTTLSec", 3600)

	v.SetDefault("duplicates.minConfidence", 0.5)
	v.SetDefault("duplicates.maxBlockSize", 200)
	v.SetDefault("duplicates.pageSize", 1000)

	v.SetDefault("archive.defaultRetentionDays", 365)
	v.SetDefault("archive.maxBulkItems", 1000)

	v.SetDefault("gdpr.defaultDueDays", 30)
	v.SetDefault("gdpr.anonymizedEmailDomain", "example.invalid")

	v.SetDefault("cleanup.archiveRetention.schedule", "0 3 * * *")
	v.SetDefault("cleanup.archiveRetention.timeoutMinutes", 60)
	v.SetDefault("cleanup.expiredExports.schedule", "30 3 * * *")
	v.SetDefault("cleanup.expiredExports.timeoutMinutes", 30)
}
