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

package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/config"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/controller"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/db"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/metrics"
	midldleware "github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/middleware"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/migration"
	mRepository "github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/migration/repository"
	mService "github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/migration/service"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/repository"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/security"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/service"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/service/cleanup"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/utils"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"gopkg.in/natefinch/lumberjack.v2"
)

const apiPrefix = "/api/v1/data"

func init() {
	log.SetFormatter(&prefixed.TextFormatter{
		DisableColors:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	})
	log.SetLevel(log.InfoLevel)
	log.SetOutput(os.Stderr)
}

func configureLogging(cfg config.LoggingConfig, basePath string) {
	logLevel, err := log.ParseLevel(cfg.Level)
	if err != nil {
		logLevel = log.InfoLevel
	}
	log.SetLevel(logLevel)

	if cfg.File == "" {
		return
	}
	fileName := cfg.File
	if !filepath.IsAbs(fileName) {
		fileName = filepath.Join(basePath, fileName)
	}
	mw := io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename:   fileName,
		MaxSize:    cfg.MaxSizeMb,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	})
	log.SetOutput(mw)
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %s", err.Error())
	}
	configureLogging(cfg.Logging, cfg.TechnicalParameters.BasePath)
	utils.PrintConfig(cfg)

	instanceId := cfg.TechnicalParameters.InstanceId
	if instanceId == "" {
		instanceId = uuid.New().String()
	}
	log.Infof("Instance id = %s", instanceId)

	readyChan := make(chan bool)
	healthController := controller.NewHealthController(readyChan)

	cp := db.NewConnectionProvider(&view.DbCredentials{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Name,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	defer cp.Close()

	migrationService := mService.NewSchemaMigrationService(mRepository.NewSchemaMigrationRepository(cp), migration.Resources, migration.ResourcesDir)
	schemaVersion, err := migrationService.Migrate(context.Background())
	if err != nil {
		log.Fatalf("Failed to migrate database schema: %s", err.Error())
	}
	log.Infof("Database schema version = %d", schemaVersion)

	minioStorageService, err := service.NewMinioStorageService(&view.MinioStorageCreds{
		BucketName:      cfg.S3Storage.BucketName,
		IsActive:        cfg.S3Storage.Enabled,
		Endpoint:        cfg.S3Storage.Url,
		Crt:             cfg.S3Storage.Crt,
		AccessKeyId:     cfg.S3Storage.Username,
		SecretAccessKey: cfg.S3Storage.Password,
	})
	if err != nil {
		log.Fatalf("Failed to create minio storage service: %s", err.Error())
	}

	registry, err := service.NewEntitySchemaRegistry(service.DefaultEntitySchemas()...)
	if err != nil {
		log.Fatalf("Failed to create entity schema registry: %s", err.Error())
	}

	recordRepository := repository.NewRecordRepository(cp)
	importJobRepository := repository.NewImportJobRepository(cp)
	exportJobRepository := repository.NewExportJobRepository(cp)
	duplicateRepository := repository.NewDuplicateRepository(cp)
	archiveRepository := repository.NewArchiveRepository(cp)
	gdprRepository := repository.NewGdprRepository(cp)
	auditRepository := repository.NewAuditRepository(cp)
	jobLockRepository := repository.NewJobLockRepository(cp)
	cleanupRunRepository := repository.NewCleanupRunRepository(cp)

	auditService := service.NewAuditService(auditRepository)
	jobLockService := service.NewJobLockService(jobLockRepository, instanceId, 0)
	fieldMapper := service.NewFieldMapper()
	fileParser := service.NewFileParser(cfg.Import.SampleRows, cfg.Import.MaxFileSizeMb)
	importValidator := service.NewImportValidator(registry, fieldMapper, cfg.Import.MaxIssuesReturned)
	importService := service.NewImportService(registry, fileParser, fieldMapper, importValidator, importJobRepository, recordRepository, minioStorageService, auditService, cfg.Import.MaxStoredErrors)
	exportService := service.NewExportService(registry, exportJobRepository, recordRepository, minioStorageService, auditService, service.ExportSettings{
		MaxRows:        cfg.Export.MaxRows,
		PageSize:       cfg.Export.PageSize,
		ExpirationDays: cfg.Export.ExpirationDays,
		DownloadUrlTTL: time.Duration(cfg.Export.DownloadUrlTTLSec) * time.Second,
	})
	duplicateService := service.NewDuplicateService(registry, duplicateRepository, recordRepository, jobLockService, auditService, service.DuplicateSettings{
		MinConfidence: cfg.Duplicates.MinConfidence,
		MaxBlockSize:  cfg.Duplicates.MaxBlockSize,
		PageSize:      cfg.Duplicates.PageSize,
	})
	mergeService := service.NewMergeService(registry, duplicateRepository, auditService)
	archiveService := service.NewArchiveService(registry, archiveRepository, recordRepository, auditService, cfg.Archive.DefaultRetentionDays, cfg.Archive.MaxBulkItems)
	gdprService := service.NewGdprService(registry, gdprRepository, recordRepository, minioStorageService, auditService, cfg.Gdpr.DefaultDueDays, cfg.Gdpr.AnonymizedEmailDomain)
	dashboardService := service.NewDashboardService(importJobRepository, exportJobRepository, duplicateRepository, archiveRepository, gdprRepository, auditService)

	cleanupService := cleanup.NewCleanupService(cleanupRunRepository, jobLockService, instanceId)
	if err = cleanupService.CreateArchiveRetentionJob(archiveService, cfg.Cleanup.ArchiveRetention.Schedule, cfg.Cleanup.ArchiveRetention.TimeoutMinutes); err != nil {
		log.Errorf("Failed to start archive retention job: %s", err.Error())
	}
	if err = cleanupService.CreateExpiredExportsJob(exportService, cfg.Cleanup.ExpiredExports.Schedule, cfg.Cleanup.ExpiredExports.TimeoutMinutes); err != nil {
		log.Errorf("Failed to start expired exports job: %s", err.Error())
	}

	security.SetupGoGuardian(security.GatewayHeaders{
		ActorHeader:        cfg.Security.ActorHeader,
		OrganizationHeader: cfg.Security.OrganizationHeader,
		ApiKey:             cfg.Security.GatewayApiKey,
	}, cfg.Security.IdentityCacheSize, time.Duration(cfg.Security.IdentityCacheTTLSec)*time.Second)

	entityController := controller.NewEntityController(registry)
	importController := controller.NewImportController(importService)
	exportController := controller.NewExportController(exportService)
	duplicateController := controller.NewDuplicateController(duplicateService, mergeService)
	archiveController := controller.NewArchiveController(archiveService)
	gdprController := controller.NewGdprController(gdprService)
	dashboardController := controller.NewDashboardController(dashboardService)
	cleanupController := controller.NewCleanupController(cleanupService)

	r := mux.NewRouter().SkipClean(true).UseEncodedPath()
	api := r.PathPrefix(apiPrefix).Subrouter()

	api.HandleFunc("/entities/importable", security.Secure(entityController.GetImportableEntities)).Methods(http.MethodGet)
	api.HandleFunc("/entities/exportable", security.Secure(entityController.GetExportableEntities)).Methods(http.MethodGet)

	api.HandleFunc("/import/parse", security.Secure(importController.ParseImportFile)).Methods(http.MethodPost)
	api.HandleFunc("/import/validate", security.Secure(importController.ValidateImportData)).Methods(http.MethodPost)
	api.HandleFunc("/import/jobs", security.Secure(importController.CreateImportJob)).Methods(http.MethodPost)
	api.HandleFunc("/import/jobs", security.Secure(importController.ListImportJobs)).Methods(http.MethodGet)
	api.HandleFunc("/import/jobs/{id}", security.Secure(importController.GetImportJob)).Methods(http.MethodGet)

	api.HandleFunc("/export/jobs", security.Secure(exportController.CreateExportJob)).Methods(http.MethodPost)
	api.HandleFunc("/export/jobs", security.Secure(exportController.ListExportJobs)).Methods(http.MethodGet)
	api.HandleFunc("/export/jobs/{id}", security.Secure(exportController.GetExportJob)).Methods(http.MethodGet)
	api.HandleFunc("/export/jobs/{id}/download", security.Secure(exportController.GetExportDownloadUrl)).Methods(http.MethodGet)
	api.HandleFunc("/export/jobs/{id}/file", security.Secure(exportController.GetExportFile)).Methods(http.MethodGet)

	api.HandleFunc("/duplicates/detect", security.Secure(duplicateController.DetectDuplicates)).Methods(http.MethodPost)
	api.HandleFunc("/duplicates", security.Secure(duplicateController.ListDuplicates)).Methods(http.MethodGet)
	api.HandleFunc("/duplicates/{id}", security.Secure(duplicateController.GetDuplicateRecords)).Methods(http.MethodGet)
	api.HandleFunc("/duplicates/{id}/merge", security.Secure(duplicateController.MergeDuplicates)).Methods(http.MethodPost)
	api.HandleFunc("/duplicates/{id}/dismiss", security.Secure(duplicateController.DismissDuplicate)).Methods(http.MethodPost)

	api.HandleFunc("/archive", security.Secure(archiveController.ArchiveRecord)).Methods(http.MethodPost)
	api.HandleFunc("/archive", security.Secure(archiveController.ListArchivedRecords)).Methods(http.MethodGet)
	api.HandleFunc("/archive/{id}/restore", security.Secure(archiveController.RestoreArchivedRecord)).Methods(http.MethodPost)
	api.HandleFunc("/archive/{id}", security.Secure(archiveController.PermanentlyDelete)).Methods(http.MethodDelete)
	api.HandleFunc("/bulk/update", security.Secure(archiveController.BulkUpdate)).Methods(http.MethodPost)
	api.HandleFunc("/bulk/delete", security.Secure(archiveController.BulkDelete)).Methods(http.MethodPost)

	api.HandleFunc("/gdpr", security.Secure(gdprController.CreateGdprRequest)).Methods(http.MethodPost)
	api.HandleFunc("/gdpr", security.Secure(gdprController.ListGdprRequests)).Methods(http.MethodGet)
	api.HandleFunc("/gdpr/{id}", security.Secure(gdprController.GetGdprRequest)).Methods(http.MethodGet)
	api.HandleFunc("/gdpr/{id}/process", security.Secure(gdprController.ProcessGdprRequest)).Methods(http.MethodPost)
	api.HandleFunc("/gdpr/{id}/export", security.Secure(gdprController.GetGdprExportFile)).Methods(http.MethodGet)

	api.HandleFunc("/dashboard", security.Secure(dashboardController.GetDashboardStats)).Methods(http.MethodGet)
	api.HandleFunc("/cleanup/{jobType}/last-run", security.Secure(cleanupController.GetLastRun)).Methods(http.MethodGet)

	if cfg.Monitoring.Enabled {
		r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
		metrics.RegisterAllPrometheusApplicationMetrics()
		r.Use(midldleware.PrometheusMiddleware)
	}
	r.HandleFunc("/live", healthController.HandleLiveRequest).Methods(http.MethodGet)
	r.HandleFunc("/ready", healthController.HandleReadyRequest).Methods(http.MethodGet)

	srv := makeServer(cfg, r)

	utils.SafeAsync(func() {
		pingCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := cp.Ping(pingCtx); err != nil {
			log.Errorf("Database is not available: %s", err.Error())
			readyChan <- false
			return
		}
		readyChan <- true
	})

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	utils.SafeAsync(func() {
		log.Infof("Listen addr = %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Http server failed: %s", err.Error())
		}
	})

	<-stop
	log.Info("Shutting down")
	cleanupService.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Failed to shutdown http server: %s", err.Error())
	}
}

func makeServer(cfg *config.Config, r *mux.Router) *http.Server {
	var corsOptions []handlers.CORSOption
	corsOptions = append(corsOptions, handlers.AllowedHeaders([]string{"Connection", "Accept-Encoding", "Content-Encoding", "X-Requested-With", "Content-Type", "Authorization",
		cfg.Security.ActorHeader, cfg.Security.OrganizationHeader}))
	if len(cfg.Security.AllowedOrigins) > 0 {
		corsOptions = append(corsOptions, handlers.AllowedOrigins(cfg.Security.AllowedOrigins))
	}
	corsOptions = append(corsOptions, handlers.AllowedMethods([]string{http.MethodPost, http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch}))

	return &http.Server{
		Handler:      handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(handlers.CompressHandler(handlers.CORS(corsOptions...)(r))),
		Addr:         cfg.TechnicalParameters.ListenAddress,
		WriteTimeout: 300 * time.Second,
		ReadTimeout:  30 * time.Second,
	}
}
