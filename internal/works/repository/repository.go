package repository

import (
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// Repositories bundles every works repository.
type Repositories struct {
	File       *FileRepository
	Estimate   *EstimateRepository
	Asset      *AssetRepository
	Movement   *MovementRepository
	Project    *ProjectRepository
	Attachment *AttachmentRepository
	User       *UserRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		File:       NewFileRepository(db),
		Estimate:   NewEstimateRepository(db),
		Asset:      NewAssetRepository(db),
		Movement:   NewMovementRepository(db),
		Project:    NewProjectRepository(db),
		Attachment: NewAttachmentRepository(db),
		User:       NewUserRepository(db),
	}
}
