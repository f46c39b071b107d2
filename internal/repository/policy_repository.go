package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/contracthub/engine/internal/models"
	appErr "github.com/contracthub/engine/pkg/errors"
)

type PolicyRepository interface {
	BaseRepository[models.ApprovalPolicy]
	GetLatestByProject(ctx context.Context, projectID uuid.UUID, dest *models.ApprovalPolicy) error
	CreateVersion(ctx context.Context, policy *models.ApprovalPolicy) error
}

type policyRepository struct {
	BaseRepository[models.ApprovalPolicy]
	db *gorm.DB
}

func NewPolicyRepository(db *gorm.DB) PolicyRepository {
	return &policyRepository{BaseRepository: NewBaseRepository[models.ApprovalPolicy](db), db: db}
}

func (r *policyRepository) GetLatestByProject(ctx context.Context, projectID uuid.UUID, dest *models.ApprovalPolicy) error {
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("version DESC").First(dest).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return appErr.New(appErr.CodeNotFound, "no approval policy for project")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get approval policy failed")
	}
	return nil
}

// CreateVersion appends a new policy version; prior versions are never mutated.
func (r *policyRepository) CreateVersion(ctx context.Context, policy *models.ApprovalPolicy) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest models.ApprovalPolicy
		err := tx.Where("project_id = ?", policy.ProjectID).Order("version DESC").First(&latest).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			policy.Version = 1
		case err != nil:
			return appErr.Wrap(err, appErr.CodeInternal, "get latest policy version failed")
		default:
			policy.Version = latest.Version + 1
		}
		if err := tx.Create(policy).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "create policy version failed")
		}
		return nil
	})
}
