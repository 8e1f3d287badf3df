package service

import (
	"github.com/civista/nirman/internal/works/repository"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services bundles every works service.
type Services struct {
	File       *FileService
	Estimate   *EstimateService
	Asset      *AssetService
	Workflow   *WorkflowService
	Project    *ProjectService
	Dashboard  *DashboardService
	Attachment *AttachmentService
	Export     *ExportService
}

func NewServices(db *gorm.DB, logger *zap.Logger, repos *repository.Repositories, rdb *redis.Client, minioClient *minio.Client, bucket string) *Services {
	projectSvc := NewProjectService(repos)
	workflowSvc := NewWorkflowService(db, logger, repos, projectSvc)
	dashboardSvc := NewDashboardService(repos, rdb)
	workflowSvc.SetDashboard(dashboardSvc)

	return &Services{
		File:       NewFileService(db, repos),
		Estimate:   NewEstimateService(db, repos),
		Asset:      NewAssetService(db, repos),
		Workflow:   workflowSvc,
		Project:    projectSvc,
		Dashboard:  dashboardSvc,
		Attachment: NewAttachmentService(repos, minioClient, bucket),
		Export:     NewExportService(repos),
	}
}
