package types

// ProgrammeCreateRequest registers a programme shell a schedule file can be
// imported into.
type ProgrammeCreateRequest struct {
	ProjectID string `json:"project_id" validate:"required,uuid4"`
	Name      string `json:"name" validate:"required"`
}

// ApprovalSubmitRequest enters a proposed change into the pipeline.
type ApprovalSubmitRequest struct {
	ProjectID       string `json:"project_id" validate:"required,uuid4"`
	ChangeType      string `json:"change_type" validate:"required,oneof=compensation_event early_warning programme_change budget_change resource_change contract_modification procurement_change"`
	Description     string `json:"description" validate:"required"`
	ClauseReference string `json:"clause_reference"`
}

// ApprovalDecisionRequest records a human decision on a pending request.
type ApprovalDecisionRequest struct {
	Approve        bool           `json:"approve"`
	Reason         string         `json:"reason"`
	ModifiedImpact *ImpactPayload `json:"modified_impact"`
}

// ImpactPayload mirrors the impact fields a decider may adjust.
type ImpactPayload struct {
	DelayDays           int     `json:"delay_days" validate:"gte=0"`
	Cost                int64   `json:"cost" validate:"gte=0"`
	AffectsCriticalPath bool    `json:"affects_critical_path"`
	Confidence          float64 `json:"confidence" validate:"gte=0,lte=1"`
}

// HierarchyRegisterRequest adds or refreshes an approver registry entry.
type HierarchyRegisterRequest struct {
	UserID             string   `json:"user_id" validate:"required"`
	AuthorizationLevel string   `json:"authorization_level" validate:"required,oneof=project_manager senior_manager director board"`
	MaxApprovalValue   int64    `json:"max_approval_value" validate:"gte=0"`
	CanApproveTypes    []string `json:"can_approve_types" validate:"required,min=1"`
}

// MilestoneStatusRequest applies a tracked status transition.
type MilestoneStatusRequest struct {
	Status       string  `json:"status" validate:"required,oneof=not_started on_track at_risk delayed completed"`
	ForecastDate *string `json:"forecast_date"`
	ActualDate   *string `json:"actual_date"`
}

// MilestoneKeyDateRequest flags or unflags a contractual key date.
type MilestoneKeyDateRequest struct {
	IsKeyDate bool `json:"is_key_date"`
}

// PolicyPutRequest appends a new approval policy version for a project.
type PolicyPutRequest struct {
	AutoApproveMaxCost int64            `json:"auto_approve_max_cost" validate:"gte=0"`
	MinorChangeMaxCost int64            `json:"minor_change_max_cost" validate:"gte=0"`
	PMApprovalMaxCost  int64            `json:"pm_approval_max_cost" validate:"gte=0"`
	ClauseRates        map[string]int64 `json:"clause_rates"`
}
