package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/contracthub/engine/internal/models"
	appErr "github.com/contracthub/engine/pkg/errors"
)

type ActivityRepository interface {
	BaseRepository[models.Activity]
	ListByProgramme(ctx context.Context, programmeID uuid.UUID) ([]models.Activity, error)
	ListRelationships(ctx context.Context, programmeID uuid.UUID) ([]models.ActivityRelationship, error)
}

type activityRepository struct {
	BaseRepository[models.Activity]
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{BaseRepository: NewBaseRepository[models.Activity](db), db: db}
}

func (r *activityRepository) ListByProgramme(ctx context.Context, programmeID uuid.UUID) ([]models.Activity, error) {
	var out []models.Activity
	if err := r.db.WithContext(ctx).Where("programme_id = ?", programmeID).Order("outline_number ASC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list activities failed")
	}
	return out, nil
}

func (r *activityRepository) ListRelationships(ctx context.Context, programmeID uuid.UUID) ([]models.ActivityRelationship, error) {
	var out []models.ActivityRelationship
	if err := r.db.WithContext(ctx).Where("programme_id = ?", programmeID).Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list relationships failed")
	}
	return out, nil
}
