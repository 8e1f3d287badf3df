package repository

import (
	"context"
	"errors"

	"github.com/civista/nirman/internal/works/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FileRepository persists work-item files.
type FileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{db: db}
}

// FileFilters narrows FindAll.
type FileFilters struct {
	Status     string
	HolderRole string
	CreatedBy  string
	Category   string
	Search     string
}

// FindAll lists files newest-first with optional filters.
func (r *FileRepository) FindAll(ctx context.Context, page, pageSize int, f FileFilters) ([]entity.File, int64, error) {
	var files []entity.File
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.File{})
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.HolderRole != "" {
		query = query.Where("current_holder_role = ?", f.HolderRole)
	}
	if f.CreatedBy != "" {
		query = query.Where("created_by = ?", f.CreatedBy)
	}
	if f.Category != "" {
		query = query.Where("work_category = ?", f.Category)
	}
	if f.Search != "" {
		query = query.Where("name_of_work ILIKE ?", "%"+f.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&files).Error

	return files, total, err
}

// FindByID loads a file without relations.
func (r *FileRepository) FindByID(ctx context.Context, id string) (*entity.File, error) {
	var file entity.File
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}

// FindByIDForUpdate loads a file under a row-level lock. Every workflow
// transition goes through this so concurrent actors serialize on the file
// row for the whole transaction. Must be called with a transaction handle.
func (r *FileRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*entity.File, error) {
	var file entity.File
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}

// Create inserts a file.
func (r *FileRepository) Create(ctx context.Context, file *entity.File) error {
	return r.db.WithContext(ctx).Create(file).Error
}

// Update saves a file.
func (r *FileRepository) Update(ctx context.Context, file *entity.File) error {
	return r.db.WithContext(ctx).Save(file).Error
}

// Delete removes the file row only. Callers delete the dependent rows in
// the same transaction and enforce the APPROVED guard first.
func (r *FileRepository) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	return tx.WithContext(ctx).Where("id = ?", id).Delete(&entity.File{}).Error
}

// CountPendingByRole counts files sitting in each role's inbox.
func (r *FileRepository) CountPendingByRole(ctx context.Context) (map[string]int64, error) {
	type row struct {
		CurrentHolderRole string
		N                 int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&entity.File{}).
		Select("current_holder_role, count(*) as n").
		Where("status IN ?", []string{entity.FileStatusPending, entity.FileStatusReturned}).
		Where("current_holder_role <> ''").
		Group("current_holder_role").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.CurrentHolderRole] = r.N
	}
	return counts, nil
}
