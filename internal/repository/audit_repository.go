package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/contracthub/engine/internal/models"
	appErr "github.com/contracthub/engine/pkg/errors"
)

// AuditRepository reads immutable audit trail entries. Writes only happen
// inside the approval repository's transactions, paired with the transition
// they record, and the table carries a mutation-prevention trigger.
type AuditRepository interface {
	ListByApproval(ctx context.Context, approvalID uuid.UUID) ([]models.AuditTrailEntry, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// ListByApproval returns the trail newest first.
func (r *auditRepository) ListByApproval(ctx context.Context, approvalID uuid.UUID) ([]models.AuditTrailEntry, error) {
	var out []models.AuditTrailEntry
	if err := r.db.WithContext(ctx).Where("approval_id = ?", approvalID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list audit entries failed")
	}
	return out, nil
}
