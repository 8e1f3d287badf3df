package repository

import (
	"context"
	"errors"

	"github.com/civista/nirman/internal/works/entity"
	"gorm.io/gorm"
)

// AttachmentRepository persists supporting-document metadata rows.
type AttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) ListByFile(ctx context.Context, fileID string) ([]entity.FileAttachment, error) {
	var attachments []entity.FileAttachment
	err := r.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("created_at ASC").
		Find(&attachments).Error
	return attachments, err
}

func (r *AttachmentRepository) FindByID(ctx context.Context, id string) (*entity.FileAttachment, error) {
	var att entity.FileAttachment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&att).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &att, nil
}

func (r *AttachmentRepository) Create(ctx context.Context, att *entity.FileAttachment) error {
	return r.db.WithContext(ctx).Create(att).Error
}
