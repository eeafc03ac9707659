package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/utils"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

const removeBatchSize = 1000

// MinioStorageService keeps uploaded import files, generated exports and GDPR bundles.
// When storage is not active the callers fall back to database tables.
type MinioStorageService interface {
	IsActive() bool
	UploadFile(ctx context.Context, objectPath string, contentType string, content []byte) error
	GetFile(ctx context.Context, objectPath string) ([]byte, error)
	RemoveFiles(ctx context.Context, objectPaths []string) error
	GetDownloadUrl(ctx context.Context, objectPath string, fileName string, ttl time.Duration) (string, error)
}

func ObjectPath(folder string, orgId string, id string, fileName string) string {
	return path.Join(folder, orgId, id, fileName)
}

func NewMinioStorageService(creds *view.MinioStorageCreds) (MinioStorageService, error) {
	if !creds.IsActive {
		log.Info("S3 storage is not active, files will be kept in the database")
		return &minioStorageServiceImpl{}, nil
	}
	client, err := minio.New(creds.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(creds.AccessKeyId, creds.SecretAccessKey, ""),
		Secure:    true,
		Transport: &http.Transport{TLSClientConfig: utils.GetTLSConfig([]byte(creds.Crt))},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, creds.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", creds.BucketName, err)
	}
	if !exists {
		if err = client.MakeBucket(ctx, creds.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", creds.BucketName, err)
		}
		log.Infof("Bucket %s created", creds.BucketName)
	}
	return &minioStorageServiceImpl{client: client, bucket: creds.BucketName, active: true}, nil
}

type minioStorageServiceImpl struct {
	client *minio.Client
	bucket string
	active bool
}

func (m minioStorageServiceImpl) IsActive() bool {
	return m.active
}

func (m minioStorageServiceImpl) UploadFile(ctx context.Context, objectPath string, contentType string, content []byte) error {
	if !m.active {
		return fmt.Errorf("S3 storage is not active")
	}
	start := time.Now()
	_, err := m.client.PutObject(ctx, m.bucket, objectPath, bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", objectPath, err)
	}
	utils.PerfLog(start, 500*time.Millisecond, "upload "+objectPath+" to S3")
	return nil
}

func (m minioStorageServiceImpl) GetFile(ctx context.Context, objectPath string) ([]byte, error) {
	if !m.active {
		return nil, fmt.Errorf("S3 storage is not active")
	}
	object, err := m.client.GetObject(ctx, m.bucket, objectPath, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", objectPath, err)
	}
	defer object.Close()
	content, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", objectPath, err)
	}
	return content, nil
}

func (m minioStorageServiceImpl) RemoveFiles(ctx context.Context, objectPaths []string) error {
	if !m.active {
		return nil
	}
	paths := make([]string, 0, len(objectPaths))
	for _, objectPath := range objectPaths {
		if objectPath != "" {
			paths = append(paths, objectPath)
		}
	}
	for _, batch := range utils.SplitIntoBatches(paths, removeBatchSize) {
		objectsCh := make(chan minio.ObjectInfo, len(batch))
		for _, objectPath := range batch {
			objectsCh <- minio.ObjectInfo{Key: objectPath}
		}
		close(objectsCh)
		var firstErr error
		// the result channel must be drained to let the client finish
		for removeErr := range m.client.RemoveObjects(ctx, m.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to remove %s: %w", removeErr.ObjectName, removeErr.Err)
			}
		}
		if firstErr != nil {
			return firstErr
		}
	}
	return nil
}

func (m minioStorageServiceImpl) GetDownloadUrl(ctx context.Context, objectPath string, fileName string, ttl time.Duration) (string, error) {
	if !m.active {
		return "", fmt.Errorf("S3 storage is not active")
	}
	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	u, err := m.client.PresignedGetObject(ctx, m.bucket, objectPath, ttl, params)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", objectPath, err)
	}
	return u.String(), nil
}
