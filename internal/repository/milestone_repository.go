package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/contracthub/engine/internal/models"
	appErr "github.com/contracthub/engine/pkg/errors"
)

type MilestoneRepository interface {
	BaseRepository[models.ProgrammeMilestone]
	ListByProgramme(ctx context.Context, programmeID uuid.UUID) ([]models.ProgrammeMilestone, error)
	UpdateStatus(ctx context.Context, milestoneID uuid.UUID, status models.MilestoneStatus, forecast, actual *time.Time) error
	SetKeyDate(ctx context.Context, milestoneID uuid.UUID, isKeyDate bool) error
}

type milestoneRepository struct {
	BaseRepository[models.ProgrammeMilestone]
	db *gorm.DB
}

func NewMilestoneRepository(db *gorm.DB) MilestoneRepository {
	return &milestoneRepository{BaseRepository: NewBaseRepository[models.ProgrammeMilestone](db), db: db}
}

func (r *milestoneRepository) ListByProgramme(ctx context.Context, programmeID uuid.UUID) ([]models.ProgrammeMilestone, error) {
	var out []models.ProgrammeMilestone
	if err := r.db.WithContext(ctx).Where("programme_id = ?", programmeID).Order("planned_date ASC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list milestones failed")
	}
	return out, nil
}

func (r *milestoneRepository) UpdateStatus(ctx context.Context, milestoneID uuid.UUID, status models.MilestoneStatus, forecast, actual *time.Time) error {
	updates := map[string]any{"status": status}
	if forecast != nil {
		updates["forecast_date"] = *forecast
	}
	if actual != nil {
		updates["actual_date"] = *actual
	}
	res := r.db.WithContext(ctx).Model(&models.ProgrammeMilestone{}).Where("id = ?", milestoneID).Updates(updates)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "update milestone status failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, "milestone not found")
	}
	return nil
}

func (r *milestoneRepository) SetKeyDate(ctx context.Context, milestoneID uuid.UUID, isKeyDate bool) error {
	res := r.db.WithContext(ctx).Model(&models.ProgrammeMilestone{}).Where("id = ?", milestoneID).Update("is_key_date", isKeyDate)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "set key date failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, "milestone not found")
	}
	return nil
}
