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

// SetPolicyInput carries a new policy version for a project.
type SetPolicyInput struct {
	ProjectID          uuid.UUID
	AutoApproveMaxCost int64
	MinorChangeMaxCost int64
	PMApprovalMaxCost  int64
	ClauseRates        map[string]int64
}

type PolicyService interface {
	GetLatest(ctx context.Context, projectID uuid.UUID) (*models.ApprovalPolicy, error)
	SetPolicy(ctx context.Context, input *SetPolicyInput) (*models.ApprovalPolicy, error)
}

type policyService struct {
	policyRepo repository.PolicyRepository
}

func NewPolicyService(policyRepo repository.PolicyRepository) PolicyService {
	return &policyService{policyRepo: policyRepo}
}

var _ PolicyService = (*policyService)(nil)

func (s *policyService) GetLatest(ctx context.Context, projectID uuid.UUID) (*models.ApprovalPolicy, error) {
	var p models.ApprovalPolicy
	if err := s.policyRepo.GetLatestByProject(ctx, projectID, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetPolicy appends a new policy version. The thresholds must be ordered:
// auto <= minor <= pm, otherwise the routing bands would overlap.
func (s *policyService) SetPolicy(ctx context.Context, input *SetPolicyInput) (*models.ApprovalPolicy, error) {
	if input.AutoApproveMaxCost > input.MinorChangeMaxCost || input.MinorChangeMaxCost > input.PMApprovalMaxCost {
		return nil, appErr.New(appErr.CodeInvalid, "thresholds must satisfy auto <= minor <= pm")
	}

	p := &models.ApprovalPolicy{
		ProjectID:          input.ProjectID,
		AutoApproveMaxCost: input.AutoApproveMaxCost,
		MinorChangeMaxCost: input.MinorChangeMaxCost,
		PMApprovalMaxCost:  input.PMApprovalMaxCost,
		ClauseRates:        input.ClauseRates,
	}
	if err := s.policyRepo.CreateVersion(ctx, p); err != nil {
		return nil, err
	}
	logger.L().Info("approval policy updated",
		zap.String("project_id", input.ProjectID.String()),
		zap.Int("version", p.Version),
	)
	return p, nil
}
