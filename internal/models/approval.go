package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChangeType classifies the contractual mechanism behind a change event.
type ChangeType string

const (
	CompensationEvent    ChangeType = "compensation_event"
	EarlyWarning         ChangeType = "early_warning"
	ProgrammeChange      ChangeType = "programme_change"
	BudgetChange         ChangeType = "budget_change"
	ResourceChange       ChangeType = "resource_change"
	ContractModification ChangeType = "contract_modification"
	ProcurementChange    ChangeType = "procurement_change"
)

// ApprovalStatus is the lifecycle state of an approval request.
// pending transitions to exactly one of approved/rejected; auto_approved is
// terminal on creation.
type ApprovalStatus string

const (
	StatusPending      ApprovalStatus = "pending"
	StatusApproved     ApprovalStatus = "approved"
	StatusRejected     ApprovalStatus = "rejected"
	StatusAutoApproved ApprovalStatus = "auto_approved"
)

// Terminal reports whether the status admits no further transitions.
func (s ApprovalStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusAutoApproved
}

// Tier is the rank of decision-maker a change routes to.
type Tier string

const (
	TierAuto             Tier = "auto"
	TierProjectManager   Tier = "project_manager"
	TierSeniorManagement Tier = "senior_management"
)

// Impact quantifies a proposed change. Cost is in whole contract currency
// units. Confidence is the analyzer's self-assessed quality of the extraction.
type Impact struct {
	DelayDays           int     `json:"delay_days"`
	Cost                int64   `json:"cost"`
	AffectsCriticalPath bool    `json:"affects_critical_path"`
	Confidence          float64 `json:"confidence"`
}

// Compliance records the contractual validity check for a change event.
type Compliance struct {
	IsValid         bool   `json:"is_valid"`
	ClauseReference string `gorm:"type:varchar(32)" json:"clause_reference"`
	Reason          string `json:"reason"`
}

// ApprovalRequest is one proposed schedule or cost change routed through the
// tiered approval state machine.
type ApprovalRequest struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProjectID          uuid.UUID      `gorm:"type:uuid;index;not null" json:"project_id" validate:"required"`
	ChangeType         ChangeType     `gorm:"type:varchar(32);index;not null" json:"change_type" validate:"required,oneof=compensation_event early_warning programme_change budget_change resource_change contract_modification procurement_change"`
	Description        string         `gorm:"type:text;not null" json:"description" validate:"required"`
	Impact             Impact         `gorm:"embedded;embeddedPrefix:impact_" json:"impact"`
	Compliance         Compliance     `gorm:"embedded;embeddedPrefix:compliance_" json:"compliance"`
	Status             ApprovalStatus `gorm:"type:varchar(16);index;not null;default:'pending'" json:"status" validate:"required,oneof=pending approved rejected auto_approved"`
	Tier               Tier           `gorm:"type:varchar(32);not null" json:"tier"`
	AuthorizedBy       *string        `gorm:"type:varchar(128)" json:"authorized_by"`
	AuthorizationLevel *string        `gorm:"type:varchar(32)" json:"authorization_level"`
	AuthorizationNotes string         `gorm:"type:text" json:"authorization_notes"`
	ApprovedAt         *time.Time     `json:"approved_at"`
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}
