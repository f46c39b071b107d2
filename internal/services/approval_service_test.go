package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/contracthub/engine/internal/events"
	"github.com/contracthub/engine/internal/models"
	appErr "github.com/contracthub/engine/pkg/errors"
)

var testThresholds = Thresholds{Auto: 1000, Minor: 5000, PM: 25000}

// Mock implementations

type mockApprovalRepo struct {
	mock.Mock
}

func (m *mockApprovalRepo) Create(ctx context.Context, obj *models.ApprovalRequest) error {
	args := m.Called(ctx, obj)
	return args.Error(0)
}

func (m *mockApprovalRepo) GetByID(ctx context.Context, id any, dest *models.ApprovalRequest) error {
	args := m.Called(ctx, id, dest)
	if args.Error(0) == nil && args.Get(1) != nil {
		src := args.Get(1).(*models.ApprovalRequest)
		*dest = *src
	}
	return args.Error(0)
}

func (m *mockApprovalRepo) Update(ctx context.Context, obj *models.ApprovalRequest) error {
	args := m.Called(ctx, obj)
	return args.Error(0)
}

func (m *mockApprovalRepo) Delete(ctx context.Context, id any) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockApprovalRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.ApprovalRequest, error) {
	args := m.Called(ctx, projectID)
	if v := args.Get(0); v != nil {
		return v.([]models.ApprovalRequest), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockApprovalRepo) ListPending(ctx context.Context, projectID uuid.UUID) ([]models.ApprovalRequest, error) {
	args := m.Called(ctx, projectID)
	if v := args.Get(0); v != nil {
		return v.([]models.ApprovalRequest), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockApprovalRepo) CreateWithAudit(ctx context.Context, req *models.ApprovalRequest, entry *models.AuditTrailEntry) error {
	args := m.Called(ctx, req, entry)
	if args.Error(0) == nil && req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockApprovalRepo) DecideTx(ctx context.Context, approvalID uuid.UUID, updates map[string]any, entry *models.AuditTrailEntry) (*models.ApprovalRequest, error) {
	args := m.Called(ctx, approvalID, updates, entry)
	if v := args.Get(0); v != nil {
		return v.(*models.ApprovalRequest), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAuditRepo struct {
	mock.Mock
}

func (m *mockAuditRepo) ListByApproval(ctx context.Context, approvalID uuid.UUID) ([]models.AuditTrailEntry, error) {
	args := m.Called(ctx, approvalID)
	if v := args.Get(0); v != nil {
		return v.([]models.AuditTrailEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockHierarchyRepo struct {
	mock.Mock
}

func (m *mockHierarchyRepo) Create(ctx context.Context, obj *models.ApprovalHierarchy) error {
	args := m.Called(ctx, obj)
	return args.Error(0)
}

func (m *mockHierarchyRepo) GetByID(ctx context.Context, id any, dest *models.ApprovalHierarchy) error {
	args := m.Called(ctx, id, dest)
	if args.Error(0) == nil && args.Get(1) != nil {
		src := args.Get(1).(*models.ApprovalHierarchy)
		*dest = *src
	}
	return args.Error(0)
}

func (m *mockHierarchyRepo) Update(ctx context.Context, obj *models.ApprovalHierarchy) error {
	args := m.Called(ctx, obj)
	return args.Error(0)
}

func (m *mockHierarchyRepo) Delete(ctx context.Context, id any) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockHierarchyRepo) Upsert(ctx context.Context, entry *models.ApprovalHierarchy) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockHierarchyRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.ApprovalHierarchy, error) {
	args := m.Called(ctx, projectID)
	if v := args.Get(0); v != nil {
		return v.([]models.ApprovalHierarchy), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockHierarchyRepo) ListActiveByProject(ctx context.Context, projectID uuid.UUID) ([]models.ApprovalHierarchy, error) {
	args := m.Called(ctx, projectID)
	if v := args.Get(0); v != nil {
		return v.([]models.ApprovalHierarchy), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockHierarchyRepo) Deactivate(ctx context.Context, entryID uuid.UUID) error {
	args := m.Called(ctx, entryID)
	return args.Error(0)
}

type mockPolicyRepo struct {
	mock.Mock
}

func (m *mockPolicyRepo) Create(ctx context.Context, obj *models.ApprovalPolicy) error {
	args := m.Called(ctx, obj)
	return args.Error(0)
}

func (m *mockPolicyRepo) GetByID(ctx context.Context, id any, dest *models.ApprovalPolicy) error {
	args := m.Called(ctx, id, dest)
	if args.Error(0) == nil && args.Get(1) != nil {
		src := args.Get(1).(*models.ApprovalPolicy)
		*dest = *src
	}
	return args.Error(0)
}

func (m *mockPolicyRepo) Update(ctx context.Context, obj *models.ApprovalPolicy) error {
	args := m.Called(ctx, obj)
	return args.Error(0)
}

func (m *mockPolicyRepo) Delete(ctx context.Context, id any) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockPolicyRepo) GetLatestByProject(ctx context.Context, projectID uuid.UUID, dest *models.ApprovalPolicy) error {
	args := m.Called(ctx, projectID, dest)
	if args.Error(0) == nil && args.Get(1) != nil {
		src := args.Get(1).(*models.ApprovalPolicy)
		*dest = *src
	}
	return args.Error(0)
}

func (m *mockPolicyRepo) CreateVersion(ctx context.Context, policy *models.ApprovalPolicy) error {
	args := m.Called(ctx, policy)
	return args.Error(0)
}

type capturingPublisher struct {
	published []struct {
		Subject string
		Payload any
	}
}

func (p *capturingPublisher) Publish(ctx context.Context, subject string, payload any) error {
	p.published = append(p.published, struct {
		Subject string
		Payload any
	}{subject, payload})
	return nil
}

func newTestService(approvals *mockApprovalRepo, audits *mockAuditRepo, hierarchy *mockHierarchyRepo, policies *mockPolicyRepo, pub events.Publisher) ApprovalService {
	return NewApprovalService(approvals, audits, hierarchy, policies, NewImpactAnalyzer(nil), pub, testThresholds)
}

func TestRouteTier(t *testing.T) {
	cases := []struct {
		name   string
		impact models.Impact
		want   models.Tier
	}{
		{"zero delay small cost", models.Impact{DelayDays: 0, Cost: 500}, models.TierAuto},
		{"one day under minor", models.Impact{DelayDays: 1, Cost: 3000}, models.TierAuto},
		{"three days under pm ceiling", models.Impact{DelayDays: 3, Cost: 20000}, models.TierProjectManager},
		{"cost forces pm band", models.Impact{DelayDays: 0, Cost: 10000}, models.TierProjectManager},
		{"long delay escalates", models.Impact{DelayDays: 10, Cost: 100}, models.TierSeniorManagement},
		{"cost escalates", models.Impact{DelayDays: 0, Cost: 30000}, models.TierSeniorManagement},
		{"critical path always escalates", models.Impact{DelayDays: 0, Cost: 0, AffectsCriticalPath: true}, models.TierSeniorManagement},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, routeTier(tc.impact, testThresholds))
		})
	}
}

func TestRouteTierMonotonicInCost(t *testing.T) {
	// Raising cost alone never routes to a lower tier.
	rank := map[models.Tier]int{
		models.TierAuto:             0,
		models.TierProjectManager:   1,
		models.TierSeniorManagement: 2,
	}
	for delay := 0; delay <= 5; delay++ {
		prev := -1
		for cost := int64(0); cost <= 30000; cost += 250 {
			got := rank[routeTier(models.Impact{DelayDays: delay, Cost: cost}, testThresholds)]
			require.GreaterOrEqual(t, got, prev, "delay %d cost %d", delay, cost)
			prev = got
		}
	}
}

func TestSubmitAutoApproves(t *testing.T) {
	approvals := &mockApprovalRepo{}
	audits := &mockAuditRepo{}
	hierarchy := &mockHierarchyRepo{}
	policies := &mockPolicyRepo{}
	pub := &capturingPublisher{}
	svc := newTestService(approvals, audits, hierarchy, policies, pub)

	projectID := uuid.New()
	policies.On("GetLatestByProject", mock.Anything, projectID, mock.Anything).
		Return(appErr.New(appErr.CodeNotFound, "no approval policy for project"), nil).Once()

	approvals.On("CreateWithAudit", mock.Anything,
		mock.MatchedBy(func(req *models.ApprovalRequest) bool {
			return req.Status == models.StatusAutoApproved &&
				req.Tier == models.TierAuto &&
				req.ApprovedAt != nil
		}),
		mock.MatchedBy(func(entry *models.AuditTrailEntry) bool {
			return entry.Action == models.AuditCreated &&
				entry.NewStatus == models.StatusAutoApproved
		}),
	).Return(nil).Once()

	out, err := svc.Submit(context.Background(), &SubmitInput{
		ProjectID:       projectID,
		ChangeType:      models.ResourceChange,
		Description:     "substitute equivalent sealant, no measurable delay",
		ClauseReference: "14.3",
		RequestedBy:     "planner@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusAutoApproved, out.Status)

	require.Len(t, pub.published, 1)
	require.Equal(t, events.SubjectApprovalCompleted, pub.published[0].Subject)
	evt := pub.published[0].Payload.(events.ApprovalCompleted)
	require.True(t, evt.Approved)
	require.True(t, evt.AutoApproved)

	mock.AssertExpectationsForObjects(t, approvals, policies)
}

func TestSubmitRoutesToSeniorAndNotifies(t *testing.T) {
	approvals := &mockApprovalRepo{}
	audits := &mockAuditRepo{}
	hierarchy := &mockHierarchyRepo{}
	policies := &mockPolicyRepo{}
	pub := &capturingPublisher{}
	svc := newTestService(approvals, audits, hierarchy, policies, pub)

	projectID := uuid.New()
	policies.On("GetLatestByProject", mock.Anything, projectID, mock.Anything).
		Return(appErr.New(appErr.CodeNotFound, "no approval policy for project"), nil).Once()

	approvals.On("CreateWithAudit", mock.Anything,
		mock.MatchedBy(func(req *models.ApprovalRequest) bool {
			return req.Status == models.StatusPending &&
				req.Tier == models.TierSeniorManagement &&
				req.Impact.DelayDays == 2 &&
				req.Impact.Cost == 4000 &&
				req.Impact.AffectsCriticalPath
		}),
		mock.Anything,
	).Return(nil).Once()

	hierarchy.On("ListActiveByProject", mock.Anything, projectID).Return([]models.ApprovalHierarchy{
		{
			UserID:             "pm@example.com",
			AuthorizationLevel: models.LevelProjectManager,
			MaxApprovalValue:   25000,
			CanApproveTypes:    []models.ChangeType{models.CompensationEvent},
		},
		{
			UserID:             "director@example.com",
			AuthorizationLevel: models.LevelDirector,
			MaxApprovalValue:   500000,
			CanApproveTypes:    []models.ChangeType{models.CompensationEvent},
		},
	}, nil).Once()

	out, err := svc.Submit(context.Background(), &SubmitInput{
		ProjectID:       projectID,
		ChangeType:      models.CompensationEvent,
		Description:     "Steel delivery delayed 2 days, affects critical piling works",
		ClauseReference: "60.1(12)",
		RequestedBy:     "site-agent@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, out.Status)
	require.Equal(t, models.TierSeniorManagement, out.Tier)

	// Only the director clears the senior-management bar.
	require.Len(t, pub.published, 1)
	require.Equal(t, events.SubjectNotificationSend, pub.published[0].Subject)
	n := pub.published[0].Payload.(events.NotificationSend)
	require.Equal(t, "user", n.RecipientType)
	require.Equal(t, "director@example.com", n.RecipientID)
	require.True(t, n.ActionRequired)

	mock.AssertExpectationsForObjects(t, approvals, hierarchy, policies)
}

func TestSubmitNoEligibleApprover(t *testing.T) {
	approvals := &mockApprovalRepo{}
	audits := &mockAuditRepo{}
	hierarchy := &mockHierarchyRepo{}
	policies := &mockPolicyRepo{}
	pub := &capturingPublisher{}
	svc := newTestService(approvals, audits, hierarchy, policies, pub)

	projectID := uuid.New()
	policies.On("GetLatestByProject", mock.Anything, projectID, mock.Anything).
		Return(appErr.New(appErr.CodeNotFound, "no approval policy for project"), nil).Once()
	approvals.On("CreateWithAudit", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	hierarchy.On("ListActiveByProject", mock.Anything, projectID).
		Return([]models.ApprovalHierarchy{}, nil).Once()

	out, err := svc.Submit(context.Background(), &SubmitInput{
		ProjectID:       projectID,
		ChangeType:      models.BudgetChange,
		Description:     "additional drainage works delayed 5 days",
		ClauseReference: "60.1",
		RequestedBy:     "qs@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, out.Status)

	// Request stays pending; the tier itself is addressed.
	require.Len(t, pub.published, 1)
	n := pub.published[0].Payload.(events.NotificationSend)
	require.Equal(t, "tier", n.RecipientType)
	require.Equal(t, string(models.TierSeniorManagement), n.RecipientID)
}

func TestSubmitUsesProjectPolicy(t *testing.T) {
	approvals := &mockApprovalRepo{}
	audits := &mockAuditRepo{}
	hierarchy := &mockHierarchyRepo{}
	policies := &mockPolicyRepo{}
	pub := &capturingPublisher{}
	svc := newTestService(approvals, audits, hierarchy, policies, pub)

	projectID := uuid.New()
	// Generous project policy auto-approves what the defaults would not.
	policy := &models.ApprovalPolicy{
		ProjectID:          projectID,
		Version:            2,
		AutoApproveMaxCost: 10000,
		MinorChangeMaxCost: 20000,
		PMApprovalMaxCost:  50000,
		ClauseRates:        map[string]int64{"60.1": 3000},
	}
	policies.On("GetLatestByProject", mock.Anything, projectID, mock.Anything).
		Return(nil, policy).Once()

	approvals.On("CreateWithAudit", mock.Anything,
		mock.MatchedBy(func(req *models.ApprovalRequest) bool {
			// 1 day at the project's 3000 rate, under the 20000 minor bar.
			return req.Status == models.StatusAutoApproved && req.Impact.Cost == 3000
		}),
		mock.Anything,
	).Return(nil).Once()

	out, err := svc.Submit(context.Background(), &SubmitInput{
		ProjectID:       projectID,
		ChangeType:      models.CompensationEvent,
		Description:     "survey access delayed 1 day",
		ClauseReference: "60.1",
		RequestedBy:     "planner@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusAutoApproved, out.Status)
}

func TestDecideApprove(t *testing.T) {
	approvals := &mockApprovalRepo{}
	audits := &mockAuditRepo{}
	hierarchy := &mockHierarchyRepo{}
	policies := &mockPolicyRepo{}
	pub := &capturingPublisher{}
	svc := newTestService(approvals, audits, hierarchy, policies, pub)

	approvalID := uuid.New()
	projectID := uuid.New()
	pending := &models.ApprovalRequest{
		ID:        approvalID,
		ProjectID: projectID,
		Status:    models.StatusPending,
		Tier:      models.TierProjectManager,
	}

	approvals.On("DecideTx", mock.Anything, approvalID,
		mock.MatchedBy(func(updates map[string]any) bool {
			return updates["status"] == models.StatusApproved && updates["approved_at"] != nil
		}),
		mock.MatchedBy(func(entry *models.AuditTrailEntry) bool {
			return entry.Action == models.AuditApproved &&
				entry.PreviousStatus == models.StatusPending &&
				entry.NewStatus == models.StatusApproved
		}),
	).Return(pending, nil).Once()

	out, err := svc.Decide(context.Background(), &DecideInput{
		ApprovalID: approvalID,
		Approve:    true,
		Reason:     "within budget allowance",
		DecidedBy:  "pm@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, out.Status)
	require.NotNil(t, out.ApprovedAt)
	require.Equal(t, "pm@example.com", *out.AuthorizedBy)

	require.Len(t, pub.published, 1)
	evt := pub.published[0].Payload.(events.ApprovalCompleted)
	require.Equal(t, projectID, evt.ProjectID)
	require.True(t, evt.Approved)
	require.False(t, evt.AutoApproved)

	mock.AssertExpectationsForObjects(t, approvals)
}

func TestDecideConflictOnDecidedRequest(t *testing.T) {
	approvals := &mockApprovalRepo{}
	audits := &mockAuditRepo{}
	hierarchy := &mockHierarchyRepo{}
	policies := &mockPolicyRepo{}
	pub := &capturingPublisher{}
	svc := newTestService(approvals, audits, hierarchy, policies, pub)

	approvalID := uuid.New()
	approvals.On("DecideTx", mock.Anything, approvalID, mock.Anything, mock.Anything).
		Return(nil, appErr.New(appErr.CodeConflict, "approval already decided")).Once()

	_, err := svc.Decide(context.Background(), &DecideInput{
		ApprovalID: approvalID,
		Approve:    false,
		Reason:     "duplicate submission",
		DecidedBy:  "pm@example.com",
	})
	require.Error(t, err)
	require.True(t, appErr.IsCode(err, appErr.CodeConflict))
	require.Empty(t, pub.published)
}

func TestDecideAuthorized(t *testing.T) {
	approvalID := uuid.New()
	projectID := uuid.New()
	pending := &models.ApprovalRequest{
		ID:         approvalID,
		ProjectID:  projectID,
		ChangeType: models.CompensationEvent,
		Status:     models.StatusPending,
		Impact:     models.Impact{DelayDays: 2, Cost: 4000},
	}

	t.Run("authorized user decides", func(t *testing.T) {
		approvals := &mockApprovalRepo{}
		audits := &mockAuditRepo{}
		hierarchy := &mockHierarchyRepo{}
		policies := &mockPolicyRepo{}
		pub := &capturingPublisher{}
		svc := newTestService(approvals, audits, hierarchy, policies, pub)

		approvals.On("GetByID", mock.Anything, approvalID, mock.Anything).Return(nil, pending).Once()
		hierarchy.On("ListActiveByProject", mock.Anything, projectID).Return([]models.ApprovalHierarchy{
			{
				UserID:             "pm@example.com",
				AuthorizationLevel: models.LevelProjectManager,
				MaxApprovalValue:   25000,
				CanApproveTypes:    []models.ChangeType{models.CompensationEvent},
			},
		}, nil).Once()
		approvals.On("DecideTx", mock.Anything, approvalID,
			mock.MatchedBy(func(updates map[string]any) bool {
				return updates["authorization_level"] == string(models.LevelProjectManager)
			}),
			mock.Anything,
		).Return(pending, nil).Once()

		out, err := svc.DecideAuthorized(context.Background(), &DecideInput{
			ApprovalID: approvalID,
			Approve:    true,
			Reason:     "verified against programme",
			DecidedBy:  "pm@example.com",
		})
		require.NoError(t, err)
		require.Equal(t, models.StatusApproved, out.Status)
		mock.AssertExpectationsForObjects(t, approvals, hierarchy)
	})

	t.Run("granted through a later entry", func(t *testing.T) {
		approvals := &mockApprovalRepo{}
		audits := &mockAuditRepo{}
		hierarchy := &mockHierarchyRepo{}
		policies := &mockPolicyRepo{}
		pub := &capturingPublisher{}
		svc := newTestService(approvals, audits, hierarchy, policies, pub)

		// Same user, two scopes: the first covers neither the change type nor
		// the cost, the second covers both. The second must win.
		approvals.On("GetByID", mock.Anything, approvalID, mock.Anything).Return(nil, pending).Once()
		hierarchy.On("ListActiveByProject", mock.Anything, projectID).Return([]models.ApprovalHierarchy{
			{
				UserID:             "pm@example.com",
				AuthorizationLevel: models.LevelProjectManager,
				MaxApprovalValue:   1000,
				CanApproveTypes:    []models.ChangeType{models.BudgetChange},
			},
			{
				UserID:             "pm@example.com",
				AuthorizationLevel: models.LevelSeniorManager,
				MaxApprovalValue:   100000,
				CanApproveTypes:    []models.ChangeType{models.CompensationEvent},
			},
		}, nil).Once()
		approvals.On("DecideTx", mock.Anything, approvalID,
			mock.MatchedBy(func(updates map[string]any) bool {
				return updates["authorization_level"] == string(models.LevelSeniorManager)
			}),
			mock.Anything,
		).Return(pending, nil).Once()

		out, err := svc.DecideAuthorized(context.Background(), &DecideInput{
			ApprovalID: approvalID,
			Approve:    true,
			Reason:     "within delegated authority",
			DecidedBy:  "pm@example.com",
		})
		require.NoError(t, err)
		require.Equal(t, models.StatusApproved, out.Status)
		mock.AssertExpectationsForObjects(t, approvals, hierarchy)
	})

	t.Run("every covering entry below cost", func(t *testing.T) {
		approvals := &mockApprovalRepo{}
		audits := &mockAuditRepo{}
		hierarchy := &mockHierarchyRepo{}
		policies := &mockPolicyRepo{}
		pub := &capturingPublisher{}
		svc := newTestService(approvals, audits, hierarchy, policies, pub)

		approvals.On("GetByID", mock.Anything, approvalID, mock.Anything).Return(nil, pending).Once()
		hierarchy.On("ListActiveByProject", mock.Anything, projectID).Return([]models.ApprovalHierarchy{
			{
				UserID:             "pm@example.com",
				AuthorizationLevel: models.LevelProjectManager,
				MaxApprovalValue:   500,
				CanApproveTypes:    []models.ChangeType{models.CompensationEvent},
			},
			{
				UserID:             "pm@example.com",
				AuthorizationLevel: models.LevelProjectManager,
				MaxApprovalValue:   2000,
				CanApproveTypes:    []models.ChangeType{models.CompensationEvent},
			},
		}, nil).Once()

		_, err := svc.DecideAuthorized(context.Background(), &DecideInput{
			ApprovalID: approvalID,
			Approve:    true,
			DecidedBy:  "pm@example.com",
		})
		require.Error(t, err)
		require.True(t, appErr.IsCode(err, appErr.CodeForbidden))
		require.Contains(t, err.Error(), "ceiling")
		require.Empty(t, pub.published)
	})

	t.Run("ceiling too low", func(t *testing.T) {
		approvals := &mockApprovalRepo{}
		audits := &mockAuditRepo{}
		hierarchy := &mockHierarchyRepo{}
		policies := &mockPolicyRepo{}
		pub := &capturingPublisher{}
		svc := newTestService(approvals, audits, hierarchy, policies, pub)

		approvals.On("GetByID", mock.Anything, approvalID, mock.Anything).Return(nil, pending).Once()
		hierarchy.On("ListActiveByProject", mock.Anything, projectID).Return([]models.ApprovalHierarchy{
			{
				UserID:             "pm@example.com",
				AuthorizationLevel: models.LevelProjectManager,
				MaxApprovalValue:   1000,
				CanApproveTypes:    []models.ChangeType{models.CompensationEvent},
			},
		}, nil).Once()

		_, err := svc.DecideAuthorized(context.Background(), &DecideInput{
			ApprovalID: approvalID,
			Approve:    true,
			DecidedBy:  "pm@example.com",
		})
		require.Error(t, err)
		require.True(t, appErr.IsCode(err, appErr.CodeForbidden))
		require.Empty(t, pub.published)
	})

	t.Run("change type not granted", func(t *testing.T) {
		approvals := &mockApprovalRepo{}
		audits := &mockAuditRepo{}
		hierarchy := &mockHierarchyRepo{}
		policies := &mockPolicyRepo{}
		pub := &capturingPublisher{}
		svc := newTestService(approvals, audits, hierarchy, policies, pub)

		approvals.On("GetByID", mock.Anything, approvalID, mock.Anything).Return(nil, pending).Once()
		hierarchy.On("ListActiveByProject", mock.Anything, projectID).Return([]models.ApprovalHierarchy{
			{
				UserID:             "pm@example.com",
				AuthorizationLevel: models.LevelProjectManager,
				MaxApprovalValue:   25000,
				CanApproveTypes:    []models.ChangeType{models.BudgetChange},
			},
		}, nil).Once()

		_, err := svc.DecideAuthorized(context.Background(), &DecideInput{
			ApprovalID: approvalID,
			Approve:    true,
			DecidedBy:  "pm@example.com",
		})
		require.Error(t, err)
		require.True(t, appErr.IsCode(err, appErr.CodeForbidden))
	})

	t.Run("unregistered user", func(t *testing.T) {
		approvals := &mockApprovalRepo{}
		audits := &mockAuditRepo{}
		hierarchy := &mockHierarchyRepo{}
		policies := &mockPolicyRepo{}
		pub := &capturingPublisher{}
		svc := newTestService(approvals, audits, hierarchy, policies, pub)

		approvals.On("GetByID", mock.Anything, approvalID, mock.Anything).Return(nil, pending).Once()
		hierarchy.On("ListActiveByProject", mock.Anything, projectID).
			Return([]models.ApprovalHierarchy{}, nil).Once()

		_, err := svc.DecideAuthorized(context.Background(), &DecideInput{
			ApprovalID: approvalID,
			Approve:    true,
			DecidedBy:  "stranger@example.com",
		})
		require.Error(t, err)
		require.True(t, appErr.IsCode(err, appErr.CodeForbidden))
	})
}

func TestDecideWithModifiedImpact(t *testing.T) {
	approvals := &mockApprovalRepo{}
	audits := &mockAuditRepo{}
	hierarchy := &mockHierarchyRepo{}
	policies := &mockPolicyRepo{}
	pub := &capturingPublisher{}
	svc := newTestService(approvals, audits, hierarchy, policies, pub)

	approvalID := uuid.New()
	pending := &models.ApprovalRequest{
		ID:        approvalID,
		ProjectID: uuid.New(),
		Status:    models.StatusPending,
		Impact:    models.Impact{DelayDays: 2, Cost: 4000},
	}
	modified := &models.Impact{DelayDays: 1, Cost: 2000, Confidence: 1}

	approvals.On("DecideTx", mock.Anything, approvalID,
		mock.MatchedBy(func(updates map[string]any) bool {
			return updates["impact_cost"] == int64(2000) && updates["impact_delay_days"] == 1
		}),
		mock.Anything,
	).Return(pending, nil).Once()

	out, err := svc.Decide(context.Background(), &DecideInput{
		ApprovalID:     approvalID,
		Approve:        true,
		Reason:         "negotiated down with supplier",
		DecidedBy:      "pm@example.com",
		ModifiedImpact: modified,
	})
	require.NoError(t, err)
	require.Equal(t, *modified, out.Impact)

	evt := pub.published[0].Payload.(events.ApprovalCompleted)
	require.Equal(t, modified, evt.ModifiedImpact)
}
