package config

type Config struct {
	Database            DatabaseConfig
	Security            SecurityConfig
	TechnicalParameters TechnicalParameters
	Monitoring          MonitoringConfig
	Logging             LoggingConfig
	S3Storage           S3Config
	Import              ImportConfig
	Export              ExportConfig
	Duplicates          DuplicatesConfig
	Archive             ArchiveConfig
	Gdpr                GdprConfig
	Cleanup             CleanupConfig
}

type DatabaseConfig struct {
	Host     string `validate:"required"`
	Port     int    `validate:"required"`
	Name     string `validate:"required"`
	Username string `validate:"required"`
	Password string `validate:"required" sensitive:"true"`
}

type SecurityConfig struct {
	// requests are expected to pass an authenticating gateway which sets these headers
	ActorHeader         string `validate:"required"`
	OrganizationHeader  string `validate:"required"`
	GatewayApiKey       string `sensitive:"true"`
	AllowedOrigins      []string
	IdentityCacheSize   int `validate:"gte=0"`
	IdentityCacheTTLSec int `validate:"gte=0"`
}

type TechnicalParameters struct {
	InstanceId    string
	BasePath      string
	ListenAddress string `validate:"required"`
}

type MonitoringConfig struct {
	Enabled bool
}

type LoggingConfig struct {
	Level      string `validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	File       string
	MaxSizeMb  int `validate:"gte=0"`
	MaxBackups int `validate:"gte=0"`
	MaxAgeDays int `validate:"gte=0"`
}

type S3Config struct {
	Enabled    bool
	Url        string `validate:"required_if=Enabled true"`
	Username   string
	Password   string `sensitive:"true"`
	Crt        string
	BucketName string `validate:"required_if=Enabled true"`
}

type ImportConfig struct {
	SampleRows        int `validate:"gt=0"`
	MaxIssuesReturned int `validate:"gt=0"`
	MaxStoredErrors   int `validate:"gt=0"`
	MaxFileSizeMb     int `validate:"gt=0,lte=8796093022207"` //validation was added based on security scan results to avoid integer overflow
}

type ExportConfig struct {
	MaxRows           int `validate:"gt=0"`
	PageSize          int `validate:"gt=0"`
	ExpirationDays    int `validate:"gt=0"`
	DownloadUrlTTLSec int `validate:"gt=0"`
}

type DuplicatesConfig struct {
	MinConfidence float64 `validate:"gte=0,lte=1"`
	MaxBlockSize  int     `validate:"gt=1"`
	PageSize      int     `validate:"gt=0"`
}

type ArchiveConfig struct {
	DefaultRetentionDays int `validate:"gte=0"`
	MaxBulkItems         int `validate:"gt=0"`
}

type GdprConfig struct {
	DefaultDueDays        int    `validate:"gt=0"`
	AnonymizedEmailDomain string `validate:"required"`
}

type CleanupConfig struct {
	ArchiveRetention ArchiveRetentionCleanupConfig
	ExpiredExports   ExpiredExportsCleanupConfig
}

type ArchiveRetentionCleanupConfig struct {
	Schedule       string
	TimeoutMinutes int `validate:"gte=0"`
}

type ExpiredExportsCleanupConfig struct {
	Schedule       string
	TimeoutMinutes int `validate:"gte=0"`
}
