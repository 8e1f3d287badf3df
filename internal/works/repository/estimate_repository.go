package repository

import (
	"context"
	"errors"

	"github.com/civista/nirman/internal/works/entity"
	"gorm.io/gorm"
)

// EstimateRepository persists estimate versions and their items.
type EstimateRepository struct {
	db *gorm.DB
}

func NewEstimateRepository(db *gorm.DB) *EstimateRepository {
	return &EstimateRepository{db: db}
}

// FindActiveByFile loads the active estimate version with items, or
// ErrNotFound when no estimate has been saved yet.
func (r *EstimateRepository) FindActiveByFile(ctx context.Context, fileID string) (*entity.Estimate, error) {
	var est entity.Estimate
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("file_id = ? AND is_active = true", fileID).
		First(&est).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &est, nil
}

// FindActiveByFileTx is FindActiveByFile inside the caller's transaction,
// for reads that must see the locked file's consistent snapshot.
func (r *EstimateRepository) FindActiveByFileTx(ctx context.Context, tx *gorm.DB, fileID string) (*entity.Estimate, error) {
	var est entity.Estimate
	err := tx.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("file_id = ? AND is_active = true", fileID).
		First(&est).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &est, nil
}

// ListVersionsByFile returns every estimate version newest-first, items included.
func (r *EstimateRepository) ListVersionsByFile(ctx context.Context, fileID string) ([]entity.Estimate, error) {
	var versions []entity.Estimate
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("file_id = ?", fileID).
		Order("version DESC").
		Find(&versions).Error
	return versions, err
}

// MaxVersion returns the highest version number saved for a file (0 if none).
func (r *EstimateRepository) MaxVersion(ctx context.Context, tx *gorm.DB, fileID string) (int, error) {
	var max *int
	err := tx.WithContext(ctx).Model(&entity.Estimate{}).
		Select("MAX(version)").
		Where("file_id = ?", fileID).
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

// DeactivateByFile clears the active flag on the current version.
func (r *EstimateRepository) DeactivateByFile(ctx context.Context, tx *gorm.DB, fileID string) error {
	return tx.WithContext(ctx).Model(&entity.Estimate{}).
		Where("file_id = ? AND is_active = true", fileID).
		Update("is_active", false).Error
}

// Create inserts an estimate with its items.
func (r *EstimateRepository) Create(ctx context.Context, tx *gorm.DB, est *entity.Estimate) error {
	return tx.WithContext(ctx).Create(est).Error
}
