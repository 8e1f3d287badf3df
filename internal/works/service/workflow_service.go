package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/civista/nirman/internal/works/entity"
	"github.com/civista/nirman/internal/works/repository"
	"github.com/civista/nirman/internal/works/sse"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Materializer converts an approved file into a permanent project. It runs
// inside the approve transaction: if it fails the whole transition rolls
// back and the file keeps its pre-approval state.
type Materializer interface {
	Materialize(ctx context.Context, tx *gorm.DB, file *entity.File, est *entity.Estimate, assets []entity.FileAsset, actor Principal) (*entity.Project, error)
}

// WorkflowService is the file state machine. Every transition locks the
// file row, re-checks custody under the lock, mutates state and appends to
// the movement log as one atomic unit.
type WorkflowService struct {
	db           *gorm.DB
	logger       *zap.Logger
	fileRepo     *repository.FileRepository
	estimateRepo *repository.EstimateRepository
	assetRepo    *repository.AssetRepository
	movementRepo *repository.MovementRepository
	materializer Materializer
	dashboard    *DashboardService
}

func NewWorkflowService(db *gorm.DB, logger *zap.Logger, repos *repository.Repositories, materializer Materializer) *WorkflowService {
	return &WorkflowService{
		db:           db,
		logger:       logger,
		fileRepo:     repos.File,
		estimateRepo: repos.Estimate,
		assetRepo:    repos.Asset,
		movementRepo: repos.Movement,
		materializer: materializer,
	}
}

// SetDashboard injects the inbox-count cache so committed transitions
// invalidate it.
func (s *WorkflowService) SetDashboard(d *DashboardService) {
	s.dashboard = d
}

// TransitionRequest carries the caller-supplied part of a transition.
type TransitionRequest struct {
	ToRole  string `json:"to_role"`
	Remarks string `json:"remarks"`
}

// lockActionable locks the file row and verifies it can still move. A file
// that turned terminal since the caller's read is a lost update, reported as
// a conflict; a live file held by someone else is an authorization failure.
func (s *WorkflowService) lockActionable(ctx context.Context, tx *gorm.DB, fileID string, actor Principal) (*entity.File, error) {
	file, err := s.fileRepo.FindByIDForUpdate(ctx, tx, fileID)
	if err != nil {
		return nil, err
	}
	switch file.Status {
	case entity.FileStatusApproved:
		return nil, &ConflictError{Reason: "file has already been approved"}
	case entity.FileStatusRejected:
		return nil, &ConflictError{Reason: "file has already been rejected"}
	}
	if !file.CurrentHolder().MayAct(actor.UserID, actor.Role) {
		return nil, &AuthorizationError{Reason: fmt.Sprintf("actor is not the current holder; file is held by %s", file.CurrentHolderRole)}
	}
	return file, nil
}

// checkProgressGates enforces the shared forward/approve preconditions:
// a non-blank estimate, then a non-empty proposed asset set. Checked in
// that order so the caller always learns the first unmet gate.
func (s *WorkflowService) checkProgressGates(ctx context.Context, tx *gorm.DB, file *entity.File) error {
	if file.EstimatedAmount <= 0 {
		return &PreconditionError{Condition: "file has a blank estimate; save a non-zero estimate before it can progress"}
	}
	n, err := s.assetRepo.CountByFile(ctx, tx, file.ID)
	if err != nil {
		return fmt.Errorf("count assets: %w", err)
	}
	if n == 0 {
		return &PreconditionError{Condition: "file has no proposed assets; add at least one before it can progress"}
	}
	return nil
}

func (s *WorkflowService) appendMovement(ctx context.Context, tx *gorm.DB, file *entity.File, actor Principal, action, toRole, remarks string) error {
	log := &entity.MovementLog{
		ID:         uuid.New().String(),
		FileID:     file.ID,
		FromUserID: actor.UserID,
		FromRole:   actor.Role,
		ToRole:     toRole,
		Action:     action,
		Remarks:    remarks,
		CreatedAt:  time.Now(),
	}
	if err := s.movementRepo.Append(ctx, tx, log); err != nil {
		return fmt.Errorf("append movement log: %w", err)
	}
	return nil
}

func (s *WorkflowService) afterCommit(ctx context.Context, fileID, action, toRole string) {
	sse.PublishFileUpdate(fileID, action, toRole)
	if s.dashboard != nil {
		s.dashboard.Invalidate(ctx)
	}
}

// Forward routes the file to another role's pool. The target only has to be
// a known routable role; the hierarchy direction is not constrained.
func (s *WorkflowService) Forward(ctx context.Context, actor Principal, fileID string, req *TransitionRequest) (*entity.File, error) {
	if !entity.IsKnownRole(req.ToRole) || req.ToRole == entity.RoleAdmin {
		return nil, &ValidationError{Field: "to_role", Reason: fmt.Sprintf("%q is not a routable role", req.ToRole)}
	}

	var updated *entity.File
	err := s.db.Transaction(func(tx *gorm.DB) error {
		file, err := s.lockActionable(ctx, tx, fileID, actor)
		if err != nil {
			return err
		}
		if err := s.checkProgressGates(ctx, tx, file); err != nil {
			return err
		}

		file.Status = entity.FileStatusPending
		file.CurrentHolderRole = req.ToRole
		file.CurrentHolderID = nil // routed to the role pool, not a person
		file.UpdatedAt = time.Now()
		if err := tx.WithContext(ctx).Save(file).Error; err != nil {
			return fmt.Errorf("update file: %w", err)
		}
		if err := s.appendMovement(ctx, tx, file, actor, entity.MovementForward, req.ToRole, req.Remarks); err != nil {
			return err
		}
		updated = file
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("file forwarded",
		zap.String("file_id", fileID),
		zap.String("from_role", actor.Role),
		zap.String("to_role", req.ToRole),
		zap.String("actor", actor.UserID),
	)
	s.afterCommit(ctx, fileID, entity.MovementForward, req.ToRole)
	return updated, nil
}

// Return sends the file back to the JE pool for correction. A reviewer may
// return an incomplete file, so no progress gates apply.
func (s *WorkflowService) Return(ctx context.Context, actor Principal, fileID string, remarks string) (*entity.File, error) {
	var updated *entity.File
	err := s.db.Transaction(func(tx *gorm.DB) error {
		file, err := s.lockActionable(ctx, tx, fileID, actor)
		if err != nil {
			return err
		}

		file.Status = entity.FileStatusReturned
		file.CurrentHolderRole = entity.RoleJE
		file.CurrentHolderID = nil
		file.UpdatedAt = time.Now()
		if err := tx.WithContext(ctx).Save(file).Error; err != nil {
			return fmt.Errorf("update file: %w", err)
		}
		if err := s.appendMovement(ctx, tx, file, actor, entity.MovementReturn, entity.RoleJE, remarks); err != nil {
			return err
		}
		updated = file
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("file returned",
		zap.String("file_id", fileID),
		zap.String("from_role", actor.Role),
		zap.String("actor", actor.UserID),
	)
	s.afterCommit(ctx, fileID, entity.MovementReturn, entity.RoleJE)
	return updated, nil
}

// Approve terminally approves the file and materializes it into a project
// in the same transaction. Requires a terminal-approval role holding the
// file, the same progress gates as Forward, and complete categorisation
// metadata for the project record.
func (s *WorkflowService) Approve(ctx context.Context, actor Principal, fileID string, remarks string) (*entity.File, *entity.Project, error) {
	if !entity.IsApprovalRole(actor.Role) {
		return nil, nil, &AuthorizationError{Reason: fmt.Sprintf("role %s cannot terminally approve a file", actor.Role)}
	}

	var (
		updated *entity.File
		project *entity.Project
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		file, err := s.lockActionable(ctx, tx, fileID, actor)
		if err != nil {
			return err
		}
		if err := s.checkProgressGates(ctx, tx, file); err != nil {
			return err
		}
		if file.WorkCategory == "" {
			return &ValidationError{Field: "work_category", Reason: "work category must be set before approval"}
		}
		if file.ProjectCategory == "" {
			return &ValidationError{Field: "project_category", Reason: "project category must be set before approval"}
		}

		est, err := s.estimateRepo.FindActiveByFileTx(ctx, tx, fileID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return &PreconditionError{Condition: "file has a blank estimate; save a non-zero estimate before it can progress"}
			}
			return fmt.Errorf("load estimate: %w", err)
		}
		assets, err := s.assetRepo.ListByFileTx(ctx, tx, fileID)
		if err != nil {
			return fmt.Errorf("load assets: %w", err)
		}

		project, err = s.materializer.Materialize(ctx, tx, file, est, assets, actor)
		if err != nil {
			return fmt.Errorf("materialize project: %w", err)
		}
		if project == nil || project.ID == "" {
			return &InvariantViolation{Detail: "materializer returned no project for approved file " + fileID}
		}

		now := time.Now()
		file.Status = entity.FileStatusApproved
		file.CurrentHolderRole = "" // no pending action remains
		file.CurrentHolderID = nil
		file.ProjectID = &project.ID
		file.UpdatedAt = now
		if err := tx.WithContext(ctx).Save(file).Error; err != nil {
			return fmt.Errorf("update file: %w", err)
		}
		if err := s.appendMovement(ctx, tx, file, actor, entity.MovementApprove, "", remarks); err != nil {
			return err
		}
		updated = file
		return nil
	})
	if err != nil {
		var iv *InvariantViolation
		if errors.As(err, &iv) {
			s.logger.Error("workflow invariant violated", zap.String("file_id", fileID), zap.String("detail", iv.Detail))
		}
		return nil, nil, err
	}

	s.logger.Info("file approved",
		zap.String("file_id", fileID),
		zap.String("project_id", project.ID),
		zap.String("actor", actor.UserID),
	)
	s.afterCommit(ctx, fileID, entity.MovementApprove, "")
	return updated, project, nil
}

// Reject terminally rejects the file for routing. No progress gates: any
// file can be rejected. The file stays editable and deletable by an
// administrator.
func (s *WorkflowService) Reject(ctx context.Context, actor Principal, fileID string, remarks string) (*entity.File, error) {
	if !entity.IsApprovalRole(actor.Role) {
		return nil, &AuthorizationError{Reason: fmt.Sprintf("role %s cannot reject a file", actor.Role)}
	}

	var updated *entity.File
	err := s.db.Transaction(func(tx *gorm.DB) error {
		file, err := s.lockActionable(ctx, tx, fileID, actor)
		if err != nil {
			return err
		}

		file.Status = entity.FileStatusRejected
		file.CurrentHolderRole = ""
		file.CurrentHolderID = nil
		file.UpdatedAt = time.Now()
		if err := tx.WithContext(ctx).Save(file).Error; err != nil {
			return fmt.Errorf("update file: %w", err)
		}
		if err := s.appendMovement(ctx, tx, file, actor, entity.MovementReject, "", remarks); err != nil {
			return err
		}
		updated = file
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("file rejected",
		zap.String("file_id", fileID),
		zap.String("actor", actor.UserID),
	)
	s.afterCommit(ctx, fileID, entity.MovementReject, "")
	return updated, nil
}
