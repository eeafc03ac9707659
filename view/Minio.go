package view

type MinioStorageCreds struct {
	BucketName      string
	IsActive        bool
	Endpoint        string
	Crt             string
	AccessKeyId     string
	SecretAccessKey string
}

// object key prefixes inside the bucket
const IMPORT_FILES_FOLDER = "imports"
const EXPORT_FILES_FOLDER = "exports"
const GDPR_BUNDLES_FOLDER = "gdpr"

type DbCredentials struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
}
