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

// EstimateService maintains the versioned cost sheet of a file. Saving never
// overwrites history: the current version is deactivated and a fresh version
// is written, and the file's cached estimated_amount follows the new total
// in the same transaction.
type EstimateService struct {
	db           *gorm.DB
	fileRepo     *repository.FileRepository
	estimateRepo *repository.EstimateRepository
}

func NewEstimateService(db *gorm.DB, repos *repository.Repositories) *EstimateService {
	return &EstimateService{
		db:           db,
		fileRepo:     repos.File,
		estimateRepo: repos.Estimate,
	}
}

// EstimateItemInput is one line of a cost sheet being saved.
type EstimateItemInput struct {
	Description string  `json:"description" binding:"required"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	Rate        float64 `json:"rate"`
}

// SaveEstimateRequest replaces the active item set wholesale.
type SaveEstimateRequest struct {
	Items []EstimateItemInput `json:"items" binding:"required"`
}

// Save writes a new active estimate version for the file and propagates the
// recomputed total to the file's estimated_amount cache. The file row is
// locked for the duration so estimate edits serialize against routing
// transitions on the same file.
func (s *EstimateService) Save(ctx context.Context, actor Principal, fileID string, req *SaveEstimateRequest) (*entity.Estimate, error) {
	if len(req.Items) == 0 {
		return nil, &ValidationError{Field: "items", Reason: "estimate needs at least one item"}
	}
	for i, item := range req.Items {
		if item.Quantity < 0 {
			return nil, &ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Reason: "quantity cannot be negative"}
		}
		if item.Rate < 0 {
			return nil, &ValidationError{Field: fmt.Sprintf("items[%d].rate", i), Reason: "rate cannot be negative"}
		}
	}

	var saved *entity.Estimate
	err := s.db.Transaction(func(tx *gorm.DB) error {
		file, err := s.fileRepo.FindByIDForUpdate(ctx, tx, fileID)
		if err != nil {
			return err
		}
		if !file.Editable() {
			return &PreconditionError{Condition: "an approved file's estimate cannot be changed"}
		}
		if !file.CurrentHolder().MayAct(actor.UserID, actor.Role) {
			return &AuthorizationError{Reason: fmt.Sprintf("file is currently held by %s", file.CurrentHolderRole)}
		}

		prev, err := s.estimateRepo.MaxVersion(ctx, tx, fileID)
		if err != nil {
			return fmt.Errorf("read estimate version: %w", err)
		}
		if err := s.estimateRepo.DeactivateByFile(ctx, tx, fileID); err != nil {
			return fmt.Errorf("deactivate estimate: %w", err)
		}

		now := time.Now()
		est := &entity.Estimate{
			ID:        uuid.New().String(),
			FileID:    fileID,
			Version:   prev + 1,
			IsActive:  true,
			CreatedBy: actor.UserID,
			CreatedAt: now,
		}
		var total float64
		for i, in := range req.Items {
			amount := in.Quantity * in.Rate
			total += amount
			est.Items = append(est.Items, entity.EstimateItem{
				ID:          uuid.New().String(),
				EstimateID:  est.ID,
				Description: in.Description,
				Quantity:    in.Quantity,
				Unit:        in.Unit,
				Rate:        in.Rate,
				Amount:      amount,
				SortOrder:   i,
				CreatedAt:   now,
			})
		}
		est.TotalAmount = total

		if err := s.estimateRepo.Create(ctx, tx, est); err != nil {
			return fmt.Errorf("create estimate: %w", err)
		}

		file.EstimatedAmount = total
		file.UpdatedAt = now
		if err := tx.WithContext(ctx).Save(file).Error; err != nil {
			return fmt.Errorf("update file cache: %w", err)
		}

		saved = est
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// Active returns the file's active estimate version with items.
func (s *EstimateService) Active(ctx context.Context, fileID string) (*entity.Estimate, error) {
	return s.estimateRepo.FindActiveByFile(ctx, fileID)
}

// Versions returns the full estimate history newest-first.
func (s *EstimateService) Versions(ctx context.Context, fileID string) ([]entity.Estimate, error) {
	if _, err := s.fileRepo.FindByID(ctx, fileID); err != nil {
		return nil, err
	}
	return s.estimateRepo.ListVersionsByFile(ctx, fileID)
}
