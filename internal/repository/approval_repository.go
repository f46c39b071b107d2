package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/contracthub/engine/internal/models"
	appErr "github.com/contracthub/engine/pkg/errors"
)

type ApprovalRepository interface {
	BaseRepository[models.ApprovalRequest]
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.ApprovalRequest, error)
	ListPending(ctx context.Context, projectID uuid.UUID) ([]models.ApprovalRequest, error)
	CreateWithAudit(ctx context.Context, req *models.ApprovalRequest, entry *models.AuditTrailEntry) error
	DecideTx(ctx context.Context, approvalID uuid.UUID, updates map[string]any, entry *models.AuditTrailEntry) (*models.ApprovalRequest, error)
}

type approvalRepository struct {
	BaseRepository[models.ApprovalRequest]
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{BaseRepository: NewBaseRepository[models.ApprovalRequest](db), db: db}
}

func (r *approvalRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.ApprovalRequest, error) {
	var out []models.ApprovalRequest
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list approvals failed")
	}
	return out, nil
}

func (r *approvalRepository) ListPending(ctx context.Context, projectID uuid.UUID) ([]models.ApprovalRequest, error) {
	var out []models.ApprovalRequest
	if err := r.db.WithContext(ctx).Where("project_id = ? AND status = ?", projectID, models.StatusPending).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list pending approvals failed")
	}
	return out, nil
}

// CreateWithAudit inserts the request and its creation audit entry together.
func (r *approvalRepository) CreateWithAudit(ctx context.Context, req *models.ApprovalRequest, entry *models.AuditTrailEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(req).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "create approval failed")
		}
		entry.ApprovalID = req.ID
		if err := tx.Create(entry).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "create audit entry failed")
		}
		return nil
	})
}

// DecideTx applies a terminal decision and its audit entry atomically,
// returning the request as it was before the update. The status update is
// guarded on the row still being pending, so a concurrent second decision
// loses and gets a conflict instead of silently overwriting.
func (r *approvalRepository) DecideTx(ctx context.Context, approvalID uuid.UUID, updates map[string]any, entry *models.AuditTrailEntry) (*models.ApprovalRequest, error) {
	var req models.ApprovalRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, "id = ?", approvalID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return appErr.New(appErr.CodeNotFound, "approval not found")
			}
			return appErr.Wrap(err, appErr.CodeInternal, "get approval failed")
		}

		res := tx.Model(&models.ApprovalRequest{}).
			Where("id = ? AND status = ?", approvalID, models.StatusPending).
			Updates(updates)
		if res.Error != nil {
			return appErr.Wrap(res.Error, appErr.CodeInternal, "update approval status failed")
		}
		if res.RowsAffected == 0 {
			return appErr.New(appErr.CodeConflict, "approval already decided").
				WithMeta("status", string(req.Status))
		}

		entry.ApprovalID = approvalID
		if err := tx.Create(entry).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "create audit entry failed")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}
