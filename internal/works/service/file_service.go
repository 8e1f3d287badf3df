package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/civista/nirman/internal/works/entity"
	"github.com/civista/nirman/internal/works/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FileService covers file CRUD outside the routing transitions: creation,
// reads with embedded estimate/assets/timeline, metadata corrections and the
// administrator delete.
type FileService struct {
	db           *gorm.DB
	fileRepo     *repository.FileRepository
	estimateRepo *repository.EstimateRepository
	assetRepo    *repository.AssetRepository
	movementRepo *repository.MovementRepository
	userRepo     *repository.UserRepository
}

func NewFileService(db *gorm.DB, repos *repository.Repositories) *FileService {
	return &FileService{
		db:           db,
		fileRepo:     repos.File,
		estimateRepo: repos.Estimate,
		assetRepo:    repos.Asset,
		movementRepo: repos.Movement,
		userRepo:     repos.User,
	}
}

// CreateFileRequest carries the metadata for a new work-item file.
type CreateFileRequest struct {
	NameOfWork      string `json:"name_of_work" binding:"required"`
	TypeOfWork      string `json:"type_of_work"`
	WorkCategory    string `json:"work_category"`
	ProjectCategory string `json:"project_category"`
}

// UpdateFileRequest carries metadata corrections.
type UpdateFileRequest struct {
	NameOfWork      string `json:"name_of_work"`
	TypeOfWork      string `json:"type_of_work"`
	WorkCategory    string `json:"work_category"`
	ProjectCategory string `json:"project_category"`
}

// FileListResult pages a file listing.
type FileListResult struct {
	Items      []entity.File `json:"items"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

// MovementView is a movement entry enriched with user names for display.
type MovementView struct {
	entity.MovementLog
	FromUserName string `json:"from_user_name,omitempty"`
	ToUserName   string `json:"to_user_name,omitempty"`
}

// Create opens a new file. Only a JE may open one; the creator becomes the
// specific holder so the file starts in their personal inbox.
func (s *FileService) Create(ctx context.Context, actor Principal, req *CreateFileRequest) (*entity.File, error) {
	if actor.Role != entity.RoleJE {
		return nil, &AuthorizationError{Reason: fmt.Sprintf("only a JE may open a file, actor holds role %s", actor.Role)}
	}

	now := time.Now()
	creator := actor.UserID
	file := &entity.File{
		ID:                uuid.New().String(),
		NameOfWork:        req.NameOfWork,
		TypeOfWork:        req.TypeOfWork,
		WorkCategory:      req.WorkCategory,
		ProjectCategory:   req.ProjectCategory,
		Status:            entity.FileStatusPending,
		CurrentHolderRole: entity.RoleJE,
		CurrentHolderID:   &creator,
		CreatedBy:         creator,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.fileRepo.Create(ctx, file); err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	return file, nil
}

// Get loads a file with its active estimate, proposed assets and full
// movement timeline.
func (s *FileService) Get(ctx context.Context, id string) (*entity.File, error) {
	file, err := s.fileRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	est, err := s.estimateRepo.FindActiveByFile(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load estimate: %w", err)
	}
	file.Estimate = est

	if file.Assets, err = s.assetRepo.ListByFile(ctx, id); err != nil {
		return nil, fmt.Errorf("load assets: %w", err)
	}
	if file.Movements, err = s.movementRepo.History(ctx, id); err != nil {
		return nil, fmt.Errorf("load movements: %w", err)
	}
	return file, nil
}

// List pages files with filters. mine restricts to the actor's own files.
func (s *FileService) List(ctx context.Context, actor Principal, page, pageSize int, filters repository.FileFilters, mine bool) (*FileListResult, error) {
	if mine {
		filters.CreatedBy = actor.UserID
	}
	files, total, err := s.fileRepo.FindAll(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return &FileListResult{
		Items:      files,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Movements returns the chain of custody oldest-first with user names.
func (s *FileService) Movements(ctx context.Context, fileID string) ([]MovementView, error) {
	if _, err := s.fileRepo.FindByID(ctx, fileID); err != nil {
		return nil, err
	}
	logs, err := s.movementRepo.History(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("load movements: %w", err)
	}

	ids := make([]string, 0, len(logs)*2)
	for _, l := range logs {
		ids = append(ids, l.FromUserID)
		if l.ToUserID != nil {
			ids = append(ids, *l.ToUserID)
		}
	}
	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	views := make([]MovementView, 0, len(logs))
	for _, l := range logs {
		v := MovementView{MovementLog: l}
		if u, ok := users[l.FromUserID]; ok {
			v.FromUserName = u.Name
		}
		if l.ToUserID != nil {
			if u, ok := users[*l.ToUserID]; ok {
				v.ToUserName = u.Name
			}
		}
		views = append(views, v)
	}
	return views, nil
}

// UpdateMetadata corrects file metadata. The creator may edit while the
// file is editable; an administrator may always, including after approval.
func (s *FileService) UpdateMetadata(ctx context.Context, actor Principal, id string, req *UpdateFileRequest) (*entity.File, error) {
	file, err := s.fileRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.Role != entity.RoleAdmin {
		if file.CreatedBy != actor.UserID {
			return nil, &AuthorizationError{Reason: "only the file's creator or an administrator may edit metadata"}
		}
		if !file.Editable() {
			return nil, &AuthorizationError{Reason: "approved files accept metadata corrections from an administrator only"}
		}
	}

	if req.NameOfWork != "" {
		file.NameOfWork = req.NameOfWork
	}
	if req.TypeOfWork != "" {
		file.TypeOfWork = req.TypeOfWork
	}
	if req.WorkCategory != "" {
		file.WorkCategory = req.WorkCategory
	}
	if req.ProjectCategory != "" {
		file.ProjectCategory = req.ProjectCategory
	}
	file.UpdatedAt = time.Now()

	if err := s.fileRepo.Update(ctx, file); err != nil {
		return nil, fmt.Errorf("update file: %w", err)
	}
	return file, nil
}

// Delete removes a file and everything hanging off it. Administrator only,
// and never once the file is APPROVED: a materialized project must not be
// orphaned by deleting its source file.
func (s *FileService) Delete(ctx context.Context, actor Principal, id string) error {
	if actor.Role != entity.RoleAdmin {
		return &AuthorizationError{Reason: "only an administrator may delete a file"}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		file, err := s.fileRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if file.Status == entity.FileStatusApproved {
			return &PreconditionError{Condition: "an approved file cannot be deleted"}
		}

		// Explicit cascade: logs, assets, attachments, estimate items,
		// estimates, then the file row itself.
		if err := tx.WithContext(ctx).Where("file_id = ?", id).Delete(&entity.MovementLog{}).Error; err != nil {
			return fmt.Errorf("delete movement logs: %w", err)
		}
		if err := tx.WithContext(ctx).Where("file_id = ?", id).Delete(&entity.FileAsset{}).Error; err != nil {
			return fmt.Errorf("delete assets: %w", err)
		}
		if err := tx.WithContext(ctx).Where("file_id = ?", id).Delete(&entity.FileAttachment{}).Error; err != nil {
			return fmt.Errorf("delete attachments: %w", err)
		}
		if err := tx.WithContext(ctx).
			Where("estimate_id IN (?)", tx.Model(&entity.Estimate{}).Select("id").Where("file_id = ?", id)).
			Delete(&entity.EstimateItem{}).Error; err != nil {
			return fmt.Errorf("delete estimate items: %w", err)
		}
		if err := tx.WithContext(ctx).Where("file_id = ?", id).Delete(&entity.Estimate{}).Error; err != nil {
			return fmt.Errorf("delete estimates: %w", err)
		}
		if err := s.fileRepo.Delete(ctx, tx, id); err != nil {
			return fmt.Errorf("delete file: %w", err)
		}
		return nil
	})
}
