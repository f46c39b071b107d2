package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/contracthub/engine/internal/models"
	"github.com/contracthub/engine/internal/repository"
	appErr "github.com/contracthub/engine/pkg/errors"
	"github.com/contracthub/engine/pkg/logger"
)

// UpdateMilestoneStatusInput carries a tracked status change for a milestone.
type UpdateMilestoneStatusInput struct {
	MilestoneID  uuid.UUID
	Status       models.MilestoneStatus
	ForecastDate *time.Time
	ActualDate   *time.Time
}

type MilestoneService interface {
	List(ctx context.Context, programmeID uuid.UUID) ([]models.ProgrammeMilestone, error)
	UpdateStatus(ctx context.Context, input *UpdateMilestoneStatusInput) (*models.ProgrammeMilestone, error)
	SetKeyDate(ctx context.Context, milestoneID uuid.UUID, isKeyDate bool) error
}

type milestoneService struct {
	milestoneRepo repository.MilestoneRepository
}

func NewMilestoneService(milestoneRepo repository.MilestoneRepository) MilestoneService {
	return &milestoneService{milestoneRepo: milestoneRepo}
}

var _ MilestoneService = (*milestoneService)(nil)

func (s *milestoneService) List(ctx context.Context, programmeID uuid.UUID) ([]models.ProgrammeMilestone, error) {
	return s.milestoneRepo.ListByProgramme(ctx, programmeID)
}

// UpdateStatus applies a status transition. Completing a milestone requires
// an actual date; every other status clears none of the tracked dates.
func (s *milestoneService) UpdateStatus(ctx context.Context, input *UpdateMilestoneStatusInput) (*models.ProgrammeMilestone, error) {
	if input.Status == models.MilestoneCompleted && input.ActualDate == nil {
		return nil, appErr.New(appErr.CodeInvalid, "completed milestone requires an actual date")
	}

	if err := s.milestoneRepo.UpdateStatus(ctx, input.MilestoneID, input.Status, input.ForecastDate, input.ActualDate); err != nil {
		return nil, err
	}
	logger.L().Info("milestone status updated",
		zap.String("milestone_id", input.MilestoneID.String()),
		zap.String("status", string(input.Status)),
	)

	var m models.ProgrammeMilestone
	if err := s.milestoneRepo.GetByID(ctx, input.MilestoneID, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *milestoneService) SetKeyDate(ctx context.Context, milestoneID uuid.UUID, isKeyDate bool) error {
	return s.milestoneRepo.SetKeyDate(ctx, milestoneID, isKeyDate)
}
