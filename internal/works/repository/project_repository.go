package repository

import (
	"context"
	"errors"

	"github.com/civista/nirman/internal/works/entity"
	"gorm.io/gorm"
)

// ProjectRepository persists materialized projects.
type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// FindAll lists projects newest-first.
func (r *ProjectRepository) FindAll(ctx context.Context, page, pageSize int, category string) ([]entity.Project, int64, error) {
	var projects []entity.Project
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Project{})
	if category != "" {
		query = query.Where("project_category = ?", category)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&projects).Error

	return projects, total, err
}

// FindByID loads a project with its assets.
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*entity.Project, error) {
	var project entity.Project
	err := r.db.WithContext(ctx).
		Preload("Assets").
		Where("id = ?", id).
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &project, nil
}

// Create inserts a project with its assets inside the caller's transaction.
func (r *ProjectRepository) Create(ctx context.Context, tx *gorm.DB, project *entity.Project) error {
	return tx.WithContext(ctx).Create(project).Error
}
