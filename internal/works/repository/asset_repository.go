package repository

import (
	"context"

	"github.com/civista/nirman/internal/works/entity"
	"gorm.io/gorm"
)

// AssetRepository persists proposed file assets.
type AssetRepository struct {
	db *gorm.DB
}

func NewAssetRepository(db *gorm.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// ListByFile returns a file's proposed assets in insertion order.
func (r *AssetRepository) ListByFile(ctx context.Context, fileID string) ([]entity.FileAsset, error) {
	var assets []entity.FileAsset
	err := r.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("created_at ASC").
		Find(&assets).Error
	return assets, err
}

// ListByFileTx is ListByFile inside the caller's transaction.
func (r *AssetRepository) ListByFileTx(ctx context.Context, tx *gorm.DB, fileID string) ([]entity.FileAsset, error) {
	var assets []entity.FileAsset
	err := tx.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("created_at ASC").
		Find(&assets).Error
	return assets, err
}

// CountByFile counts a file's proposed assets.
func (r *AssetRepository) CountByFile(ctx context.Context, tx *gorm.DB, fileID string) (int64, error) {
	var n int64
	err := tx.WithContext(ctx).Model(&entity.FileAsset{}).
		Where("file_id = ?", fileID).
		Count(&n).Error
	return n, err
}

// DeleteByFile removes every proposed asset of a file.
func (r *AssetRepository) DeleteByFile(ctx context.Context, tx *gorm.DB, fileID string) error {
	return tx.WithContext(ctx).Where("file_id = ?", fileID).Delete(&entity.FileAsset{}).Error
}

// CreateBatch inserts a set of proposed assets.
func (r *AssetRepository) CreateBatch(ctx context.Context, tx *gorm.DB, assets []entity.FileAsset) error {
	if len(assets) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&assets).Error
}
