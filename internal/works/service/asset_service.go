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

// AssetService maintains the proposed asset set of a file. Replacement is
// full delete-then-insert in one transaction; this component records the
// data contract only and does no geometric validation.
type AssetService struct {
	db        *gorm.DB
	fileRepo  *repository.FileRepository
	assetRepo *repository.AssetRepository
}

func NewAssetService(db *gorm.DB, repos *repository.Repositories) *AssetService {
	return &AssetService{
		db:        db,
		fileRepo:  repos.File,
		assetRepo: repos.Asset,
	}
}

// AssetInput is one proposed segment. Endpoint coordinates are required;
// LocationData optionally carries the full vertex list for curved paths and
// then supersedes the endpoints for downstream consumers.
type AssetInput struct {
	AssetID        *string           `json:"asset_id"`
	StartLatitude  *float64          `json:"start_latitude" binding:"required"`
	StartLongitude *float64          `json:"start_longitude" binding:"required"`
	EndLatitude    *float64          `json:"end_latitude" binding:"required"`
	EndLongitude   *float64          `json:"end_longitude" binding:"required"`
	LocationData   entity.JSONBArray `json:"location_data"`
	Description    string            `json:"description"`
}

// ReplaceAssetsRequest replaces the whole proposed set.
type ReplaceAssetsRequest struct {
	Assets []AssetInput `json:"assets" binding:"required"`
}

func validCoordinate(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Replace swaps the file's proposed asset set atomically, under the same
// file-row lock the routing transitions take.
func (s *AssetService) Replace(ctx context.Context, actor Principal, fileID string, req *ReplaceAssetsRequest) ([]entity.FileAsset, error) {
	for i, in := range req.Assets {
		if in.StartLatitude == nil || in.StartLongitude == nil || in.EndLatitude == nil || in.EndLongitude == nil {
			return nil, &ValidationError{Field: fmt.Sprintf("assets[%d]", i), Reason: "start and end coordinates are required"}
		}
		if !validCoordinate(*in.StartLatitude, *in.StartLongitude) || !validCoordinate(*in.EndLatitude, *in.EndLongitude) {
			return nil, &ValidationError{Field: fmt.Sprintf("assets[%d]", i), Reason: "coordinates out of range"}
		}
	}

	var created []entity.FileAsset
	err := s.db.Transaction(func(tx *gorm.DB) error {
		file, err := s.fileRepo.FindByIDForUpdate(ctx, tx, fileID)
		if err != nil {
			return err
		}
		if !file.Editable() {
			return &PreconditionError{Condition: "an approved file's assets cannot be changed"}
		}
		if !file.CurrentHolder().MayAct(actor.UserID, actor.Role) {
			return &AuthorizationError{Reason: fmt.Sprintf("file is currently held by %s", file.CurrentHolderRole)}
		}

		if err := s.assetRepo.DeleteByFile(ctx, tx, fileID); err != nil {
			return fmt.Errorf("clear assets: %w", err)
		}

		now := time.Now()
		created = make([]entity.FileAsset, 0, len(req.Assets))
		for _, in := range req.Assets {
			created = append(created, entity.FileAsset{
				ID:             uuid.New().String(),
				FileID:         fileID,
				AssetID:        in.AssetID,
				StartLatitude:  *in.StartLatitude,
				StartLongitude: *in.StartLongitude,
				EndLatitude:    *in.EndLatitude,
				EndLongitude:   *in.EndLongitude,
				LocationData:   in.LocationData,
				Description:    in.Description,
				CreatedAt:      now,
			})
		}
		if err := s.assetRepo.CreateBatch(ctx, tx, created); err != nil {
			return fmt.Errorf("insert assets: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// List returns a file's proposed assets.
func (s *AssetService) List(ctx context.Context, fileID string) ([]entity.FileAsset, error) {
	if _, err := s.fileRepo.FindByID(ctx, fileID); err != nil {
		return nil, err
	}
	return s.assetRepo.ListByFile(ctx, fileID)
}
