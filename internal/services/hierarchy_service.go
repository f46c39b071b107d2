package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/contracthub/engine/internal/models"
	"github.com/contracthub/engine/internal/repository"
	appErr "github.com/contracthub/engine/pkg/errors"
	"github.com/contracthub/engine/pkg/logger"
)

// RegisterApproverInput describes one authorization registry entry.
type RegisterApproverInput struct {
	ProjectID          uuid.UUID
	UserID             string
	AuthorizationLevel models.AuthorizationLevel
	MaxApprovalValue   int64
	CanApproveTypes    []models.ChangeType
}

type HierarchyService interface {
	Register(ctx context.Context, input *RegisterApproverInput) (*models.ApprovalHierarchy, error)
	List(ctx context.Context, projectID uuid.UUID) ([]models.ApprovalHierarchy, error)
	Revoke(ctx context.Context, entryID uuid.UUID) error
}

type hierarchyService struct {
	hierarchyRepo repository.HierarchyRepository
}

func NewHierarchyService(hierarchyRepo repository.HierarchyRepository) HierarchyService {
	return &hierarchyService{hierarchyRepo: hierarchyRepo}
}

var _ HierarchyService = (*hierarchyService)(nil)

// Register creates or refreshes an approver entry. Registration is idempotent
// on (project, user, level): repeating it updates the ceiling and allowed
// types in place.
func (s *hierarchyService) Register(ctx context.Context, input *RegisterApproverInput) (*models.ApprovalHierarchy, error) {
	if len(input.CanApproveTypes) == 0 {
		return nil, appErr.New(appErr.CodeInvalid, "at least one approvable change type required")
	}

	entry := &models.ApprovalHierarchy{
		ProjectID:          input.ProjectID,
		UserID:             input.UserID,
		AuthorizationLevel: input.AuthorizationLevel,
		MaxApprovalValue:   input.MaxApprovalValue,
		CanApproveTypes:    input.CanApproveTypes,
		IsActive:           true,
	}
	if err := s.hierarchyRepo.Upsert(ctx, entry); err != nil {
		return nil, err
	}
	logger.L().Info("approver registered",
		zap.String("project_id", input.ProjectID.String()),
		zap.String("user_id", input.UserID),
		zap.String("level", string(input.AuthorizationLevel)),
	)
	return entry, nil
}

func (s *hierarchyService) List(ctx context.Context, projectID uuid.UUID) ([]models.ApprovalHierarchy, error) {
	return s.hierarchyRepo.ListByProject(ctx, projectID)
}

func (s *hierarchyService) Revoke(ctx context.Context, entryID uuid.UUID) error {
	if err := s.hierarchyRepo.Deactivate(ctx, entryID); err != nil {
		return err
	}
	logger.L().Info("approver revoked", zap.String("entry_id", entryID.String()))
	return nil
}
