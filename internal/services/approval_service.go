package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/contracthub/engine/internal/events"
	"github.com/contracthub/engine/internal/metrics"
	"github.com/contracthub/engine/internal/models"
	"github.com/contracthub/engine/internal/repository"
	appErr "github.com/contracthub/engine/pkg/errors"
	"github.com/contracthub/engine/pkg/logger"
)

// Thresholds are the tier boundaries, in contract currency units. They come
// from the project's ApprovalPolicy when one exists, otherwise from config.
type Thresholds struct {
	Auto  int64
	Minor int64
	PM    int64
}

// SubmitInput describes a proposed change entering the pipeline.
type SubmitInput struct {
	ProjectID       uuid.UUID
	ChangeType      models.ChangeType
	Description     string
	ClauseReference string
	RequestedBy     string
	OriginAddress   string
	ClientIdentity  string
}

// DecideInput carries a human decision on a pending request.
type DecideInput struct {
	ApprovalID     uuid.UUID
	Approve        bool
	Reason         string
	DecidedBy      string
	ModifiedImpact *models.Impact
	OriginAddress  string
	ClientIdentity string
}

type ApprovalService interface {
	Submit(ctx context.Context, input *SubmitInput) (*models.ApprovalRequest, error)
	Decide(ctx context.Context, input *DecideInput) (*models.ApprovalRequest, error)
	DecideAuthorized(ctx context.Context, input *DecideInput) (*models.ApprovalRequest, error)
	Get(ctx context.Context, approvalID uuid.UUID) (*models.ApprovalRequest, error)
	GetPending(ctx context.Context, projectID uuid.UUID) ([]models.ApprovalRequest, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.ApprovalRequest, error)
	GetAuditTrail(ctx context.Context, approvalID uuid.UUID) ([]models.AuditTrailEntry, error)
}

type approvalService struct {
	approvalRepo  repository.ApprovalRepository
	auditRepo     repository.AuditRepository
	hierarchyRepo repository.HierarchyRepository
	policyRepo    repository.PolicyRepository
	analyzer      ImpactAnalyzer
	publisher     events.Publisher
	fallback      Thresholds
}

func NewApprovalService(
	approvalRepo repository.ApprovalRepository,
	auditRepo repository.AuditRepository,
	hierarchyRepo repository.HierarchyRepository,
	policyRepo repository.PolicyRepository,
	analyzer ImpactAnalyzer,
	publisher events.Publisher,
	fallback Thresholds,
) ApprovalService {
	return &approvalService{
		approvalRepo:  approvalRepo,
		auditRepo:     auditRepo,
		hierarchyRepo: hierarchyRepo,
		policyRepo:    policyRepo,
		analyzer:      analyzer,
		publisher:     publisher,
		fallback:      fallback,
	}
}

var _ ApprovalService = (*approvalService)(nil)

// routeTier maps an impact onto a decision tier. Critical-path exposure
// escalates to senior management regardless of cost; the delay/cost bands
// below only apply off the critical path.
func routeTier(impact models.Impact, t Thresholds) models.Tier {
	switch {
	case impact.AffectsCriticalPath:
		return models.TierSeniorManagement
	case impact.DelayDays == 0 && impact.Cost < t.Auto:
		return models.TierAuto
	case impact.DelayDays == 1 && impact.Cost < t.Minor:
		return models.TierAuto
	case impact.DelayDays <= 3 && impact.Cost < t.PM:
		return models.TierProjectManager
	default:
		return models.TierSeniorManagement
	}
}

// tierLevel maps a routing tier to the minimum authorization level that may
// decide it.
func tierLevel(tier models.Tier) models.AuthorizationLevel {
	if tier == models.TierSeniorManagement {
		return models.LevelSeniorManager
	}
	return models.LevelProjectManager
}

var levelRank = map[models.AuthorizationLevel]int{
	models.LevelProjectManager: 1,
	models.LevelSeniorManager:  2,
	models.LevelDirector:       3,
	models.LevelBoard:          4,
}

func (s *approvalService) Submit(ctx context.Context, input *SubmitInput) (*models.ApprovalRequest, error) {
	logger.L().Info("submit change for approval",
		zap.String("project_id", input.ProjectID.String()),
		zap.String("change_type", string(input.ChangeType)),
	)

	thresholds, rates := s.projectPolicy(ctx, input.ProjectID)

	impact := s.analyzer.AnalyzeWithRates(input.Description, input.ChangeType, input.ClauseReference, rates)
	tier := routeTier(impact, thresholds)

	req := &models.ApprovalRequest{
		ProjectID:   input.ProjectID,
		ChangeType:  input.ChangeType,
		Description: input.Description,
		Impact:      impact,
		Compliance:  buildCompliance(input.ClauseReference),
		Status:      models.StatusPending,
		Tier:        tier,
	}

	auto := tier == models.TierAuto
	if auto {
		now := time.Now().UTC()
		req.Status = models.StatusAutoApproved
		req.ApprovedAt = &now
	}

	changes, err := models.EncodeAuditChanges(models.CreatedAudit{Tier: tier, AutoApproved: auto})
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "encode audit changes failed")
	}
	entry := &models.AuditTrailEntry{
		Action:         models.AuditCreated,
		PerformedBy:    input.RequestedBy,
		NewStatus:      req.Status,
		Changes:        changes,
		OriginAddress:  input.OriginAddress,
		ClientIdentity: input.ClientIdentity,
	}

	if err := s.approvalRepo.CreateWithAudit(ctx, req, entry); err != nil {
		return nil, err
	}
	metrics.ApprovalsRouted.WithLabelValues(string(tier)).Inc()

	if auto {
		metrics.ApprovalDecisions.WithLabelValues("auto_approved").Inc()
		_ = s.publisher.Publish(ctx, events.SubjectApprovalCompleted, events.ApprovalCompleted{
			ApprovalID:   req.ID,
			ProjectID:    req.ProjectID,
			Approved:     true,
			AutoApproved: true,
		})
		return req, nil
	}

	s.notifyApprovers(ctx, req)
	return req, nil
}

// projectPolicy resolves the routing configuration for a project. Missing
// policy rows fall back to the configured defaults and built-in clause rates.
func (s *approvalService) projectPolicy(ctx context.Context, projectID uuid.UUID) (Thresholds, map[string]int64) {
	var policy models.ApprovalPolicy
	if err := s.policyRepo.GetLatestByProject(ctx, projectID, &policy); err != nil {
		if !appErr.IsCode(err, appErr.CodeNotFound) {
			logger.L().Warn("policy lookup failed, using fallback thresholds",
				zap.String("project_id", projectID.String()),
				zap.Error(err),
			)
		}
		return s.fallback, nil
	}
	return Thresholds{
		Auto:  policy.AutoApproveMaxCost,
		Minor: policy.MinorChangeMaxCost,
		PM:    policy.PMApprovalMaxCost,
	}, policy.ClauseRates
}

// notifyApprovers asks the external notifier to contact each registry entry
// able to decide the request. With no eligible approver registered the
// request stays pending and the tier itself is addressed so someone can fix
// the registry. Failed publishes are logged and counted, never fatal.
func (s *approvalService) notifyApprovers(ctx context.Context, req *models.ApprovalRequest) {
	msg := fmt.Sprintf("Approval required: %s (%s, cost %d, delay %d days)",
		req.Description, req.ChangeType, req.Impact.Cost, req.Impact.DelayDays)

	approvers := s.eligibleApprovers(ctx, req)
	if len(approvers) == 0 {
		logger.L().Warn("no eligible approver registered",
			zap.String("approval_id", req.ID.String()),
			zap.String("tier", string(req.Tier)),
		)
		_ = s.publisher.Publish(ctx, events.SubjectNotificationSend, events.NotificationSend{
			RecipientType:  "tier",
			RecipientID:    string(req.Tier),
			Message:        msg,
			Type:           "approval_request",
			Priority:       "high",
			ActionRequired: true,
			ApprovalID:     &req.ID,
		})
		return
	}
	for _, h := range approvers {
		_ = s.publisher.Publish(ctx, events.SubjectNotificationSend, events.NotificationSend{
			RecipientType:  "user",
			RecipientID:    h.UserID,
			Message:        msg,
			Type:           "approval_request",
			Priority:       "high",
			ActionRequired: true,
			ApprovalID:     &req.ID,
		})
	}
}

func (s *approvalService) eligibleApprovers(ctx context.Context, req *models.ApprovalRequest) []models.ApprovalHierarchy {
	entries, err := s.hierarchyRepo.ListActiveByProject(ctx, req.ProjectID)
	if err != nil {
		logger.L().Warn("hierarchy lookup failed",
			zap.String("project_id", req.ProjectID.String()),
			zap.Error(err),
		)
		return nil
	}
	minRank := levelRank[tierLevel(req.Tier)]
	var out []models.ApprovalHierarchy
	for _, h := range entries {
		if levelRank[h.AuthorizationLevel] >= minRank &&
			h.CanApprove(req.ChangeType) &&
			h.MaxApprovalValue >= req.Impact.Cost {
			out = append(out, h)
		}
	}
	return out
}

func (s *approvalService) Decide(ctx context.Context, input *DecideInput) (*models.ApprovalRequest, error) {
	return s.decide(ctx, input, nil)
}

// DecideAuthorized enforces the authorization registry before applying the
// decision: the decider must hold an active entry covering the change type
// with a value ceiling at or above the request's cost.
func (s *approvalService) DecideAuthorized(ctx context.Context, input *DecideInput) (*models.ApprovalRequest, error) {
	var req models.ApprovalRequest
	if err := s.approvalRepo.GetByID(ctx, input.ApprovalID, &req); err != nil {
		return nil, err
	}

	entries, err := s.hierarchyRepo.ListActiveByProject(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	// A user may hold several active entries with different scopes; any single
	// entry covering both the change type and the cost grants the decision.
	var (
		grant       *models.ApprovalHierarchy
		registered  bool
		bestCeiling int64 = -1
	)
	for i := range entries {
		h := &entries[i]
		if h.UserID != input.DecidedBy {
			continue
		}
		registered = true
		if !h.CanApprove(req.ChangeType) {
			continue
		}
		if h.MaxApprovalValue > bestCeiling {
			bestCeiling = h.MaxApprovalValue
		}
		if h.MaxApprovalValue < req.Impact.Cost {
			continue
		}
		grant = h
		break
	}
	if grant == nil {
		switch {
		case bestCeiling >= 0:
			return nil, appErr.New(appErr.CodeForbidden, "request cost exceeds user's approval ceiling").
				WithMeta("max_approval_value", bestCeiling).
				WithMeta("cost", req.Impact.Cost)
		case registered:
			return nil, appErr.New(appErr.CodeForbidden, "change type outside user's authorization").
				WithMeta("change_type", string(req.ChangeType))
		default:
			return nil, appErr.New(appErr.CodeForbidden, "user not registered as approver for project")
		}
	}
	return s.decide(ctx, input, grant)
}

func (s *approvalService) decide(ctx context.Context, input *DecideInput, grant *models.ApprovalHierarchy) (*models.ApprovalRequest, error) {
	logger.L().Info("decide approval",
		zap.String("approval_id", input.ApprovalID.String()),
		zap.Bool("approve", input.Approve),
		zap.String("decided_by", input.DecidedBy),
	)

	now := time.Now().UTC()
	newStatus := models.StatusRejected
	var action models.AuditAction = models.RejectedAudit{Reason: input.Reason}
	if input.Approve {
		newStatus = models.StatusApproved
		action = models.ApprovedAudit{Reason: input.Reason, ModifiedImpact: input.ModifiedImpact}
	}

	updates := map[string]any{
		"status":              newStatus,
		"authorized_by":       input.DecidedBy,
		"authorization_notes": input.Reason,
		"updated_at":          now,
	}
	if input.Approve {
		updates["approved_at"] = now
	}
	if grant != nil {
		updates["authorization_level"] = string(grant.AuthorizationLevel)
	}
	if input.ModifiedImpact != nil {
		updates["impact_delay_days"] = input.ModifiedImpact.DelayDays
		updates["impact_cost"] = input.ModifiedImpact.Cost
		updates["impact_affects_critical_path"] = input.ModifiedImpact.AffectsCriticalPath
		updates["impact_confidence"] = input.ModifiedImpact.Confidence
	}

	changes, err := models.EncodeAuditChanges(action)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "encode audit changes failed")
	}
	entry := &models.AuditTrailEntry{
		Action:         action.Kind(),
		PerformedBy:    input.DecidedBy,
		PreviousStatus: models.StatusPending,
		NewStatus:      newStatus,
		Comments:       input.Reason,
		Changes:        changes,
		OriginAddress:  input.OriginAddress,
		ClientIdentity: input.ClientIdentity,
	}

	prev, err := s.approvalRepo.DecideTx(ctx, input.ApprovalID, updates, entry)
	if err != nil {
		return nil, err
	}
	metrics.ApprovalDecisions.WithLabelValues(string(newStatus)).Inc()

	_ = s.publisher.Publish(ctx, events.SubjectApprovalCompleted, events.ApprovalCompleted{
		ApprovalID:     input.ApprovalID,
		ProjectID:      prev.ProjectID,
		Approved:       input.Approve,
		ModifiedImpact: input.ModifiedImpact,
	})

	out := *prev
	out.Status = newStatus
	out.AuthorizedBy = &input.DecidedBy
	out.AuthorizationNotes = input.Reason
	if input.Approve {
		out.ApprovedAt = &now
	}
	if grant != nil {
		lvl := string(grant.AuthorizationLevel)
		out.AuthorizationLevel = &lvl
	}
	if input.ModifiedImpact != nil {
		out.Impact = *input.ModifiedImpact
	}
	return &out, nil
}

func (s *approvalService) Get(ctx context.Context, approvalID uuid.UUID) (*models.ApprovalRequest, error) {
	var req models.ApprovalRequest
	if err := s.approvalRepo.GetByID(ctx, approvalID, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *approvalService) GetPending(ctx context.Context, projectID uuid.UUID) ([]models.ApprovalRequest, error) {
	return s.approvalRepo.ListPending(ctx, projectID)
}

func (s *approvalService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.ApprovalRequest, error) {
	return s.approvalRepo.ListByProject(ctx, projectID)
}

func (s *approvalService) GetAuditTrail(ctx context.Context, approvalID uuid.UUID) ([]models.AuditTrailEntry, error) {
	return s.auditRepo.ListByApproval(ctx, approvalID)
}
