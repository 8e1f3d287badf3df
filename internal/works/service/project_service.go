package service

import (
	"context"
	"fmt"
	"time"

	"github.com/civista/nirman/internal/works/entity"
	"github.com/civista/nirman/internal/works/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectService reads materialized projects and implements the
// Materializer the approve transition invokes.
type ProjectService struct {
	projectRepo *repository.ProjectRepository
}

func NewProjectService(repos *repository.Repositories) *ProjectService {
	return &ProjectService{projectRepo: repos.Project}
}

// ProjectListResult pages a project listing.
type ProjectListResult struct {
	Items      []entity.Project `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// Materialize seeds one Project from the file's metadata and the active
// estimate's total, and copies every proposed asset into a permanent
// project asset. Runs inside the approve transaction.
func (s *ProjectService) Materialize(ctx context.Context, tx *gorm.DB, file *entity.File, est *entity.Estimate, assets []entity.FileAsset, actor Principal) (*entity.Project, error) {
	now := time.Now()
	fileID := file.ID
	project := &entity.Project{
		ID:              uuid.New().String(),
		FileID:          &fileID,
		NameOfWork:      file.NameOfWork,
		TypeOfWork:      file.TypeOfWork,
		WorkCategory:    file.WorkCategory,
		ProjectCategory: file.ProjectCategory,
		ApprovedBudget:  est.TotalAmount,
		ApprovedBy:      actor.UserID,
		ApprovedAt:      now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, a := range assets {
		project.Assets = append(project.Assets, entity.ProjectAsset{
			ID:             uuid.New().String(),
			ProjectID:      project.ID,
			AssetID:        a.AssetID,
			StartLatitude:  a.StartLatitude,
			StartLongitude: a.StartLongitude,
			EndLatitude:    a.EndLatitude,
			EndLongitude:   a.EndLongitude,
			LocationData:   a.LocationData,
			Description:    a.Description,
			CreatedAt:      now,
		})
	}

	if err := s.projectRepo.Create(ctx, tx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return project, nil
}

// List pages projects.
func (s *ProjectService) List(ctx context.Context, page, pageSize int, category string) (*ProjectListResult, error) {
	projects, total, err := s.projectRepo.FindAll(ctx, page, pageSize, category)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return &ProjectListResult{
		Items:      projects,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Get loads a project with its assets.
func (s *ProjectService) Get(ctx context.Context, id string) (*entity.Project, error) {
	return s.projectRepo.FindByID(ctx, id)
}
