package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/contracthub/engine/internal/models"
	appErr "github.com/contracthub/engine/pkg/errors"
)

type HierarchyRepository interface {
	BaseRepository[models.ApprovalHierarchy]
	Upsert(ctx context.Context, entry *models.ApprovalHierarchy) error
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.ApprovalHierarchy, error)
	ListActiveByProject(ctx context.Context, projectID uuid.UUID) ([]models.ApprovalHierarchy, error)
	Deactivate(ctx context.Context, entryID uuid.UUID) error
}

type hierarchyRepository struct {
	BaseRepository[models.ApprovalHierarchy]
	db *gorm.DB
}

func NewHierarchyRepository(db *gorm.DB) HierarchyRepository {
	return &hierarchyRepository{BaseRepository: NewBaseRepository[models.ApprovalHierarchy](db), db: db}
}

// Upsert makes registration idempotent on (project, user, level): re-registering
// the same scope refreshes the ceiling and allowed types instead of duplicating.
func (r *hierarchyRepository) Upsert(ctx context.Context, entry *models.ApprovalHierarchy) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "project_id"}, {Name: "user_id"}, {Name: "authorization_level"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"max_approval_value", "can_approve_types", "is_active", "updated_at"}),
	}).Create(entry).Error
	if err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "upsert hierarchy entry failed")
	}
	return nil
}

func (r *hierarchyRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.ApprovalHierarchy, error) {
	var out []models.ApprovalHierarchy
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list hierarchy entries failed")
	}
	return out, nil
}

func (r *hierarchyRepository) ListActiveByProject(ctx context.Context, projectID uuid.UUID) ([]models.ApprovalHierarchy, error) {
	var out []models.ApprovalHierarchy
	if err := r.db.WithContext(ctx).Where("project_id = ? AND is_active = true", projectID).Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list active hierarchy entries failed")
	}
	return out, nil
}

// Deactivate soft-revokes an entry; history behind past decisions is preserved.
func (r *hierarchyRepository) Deactivate(ctx context.Context, entryID uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.ApprovalHierarchy{}).Where("id = ?", entryID).Update("is_active", false)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "deactivate hierarchy entry failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, "hierarchy entry not found")
	}
	return nil
}
