package repository

import (
	"context"

	"github.com/civista/nirman/internal/works/entity"
	"gorm.io/gorm"
)

// MovementRepository persists the append-only movement log. Append is the
// only write; nothing ever updates or deletes an entry except the cascade
// when a non-approved file is deleted outright.
type MovementRepository struct {
	db *gorm.DB
}

func NewMovementRepository(db *gorm.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

// Append writes one movement entry inside the caller's transaction.
func (r *MovementRepository) Append(ctx context.Context, tx *gorm.DB, log *entity.MovementLog) error {
	return tx.WithContext(ctx).Create(log).Error
}

// History returns a file's movements oldest-first.
func (r *MovementRepository) History(ctx context.Context, fileID string) ([]entity.MovementLog, error) {
	var logs []entity.MovementLog
	err := r.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}
