package models

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalPolicy is the per-project routing configuration: the three tier
// thresholds and the clause-family day-rate table. Versioned so threshold
// changes are traceable; the highest version for a project wins.
type ApprovalPolicy struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index:idx_policies_project_version,unique" json:"project_id" validate:"required"`
	Version   int       `gorm:"not null;default:1;index:idx_policies_project_version,unique" json:"version" validate:"gte=1"`

	// Tier thresholds, in contract currency units. A change costing below
	// AutoApproveMaxCost with no delay auto-approves; below MinorChangeMaxCost
	// it may still auto-approve when off the critical path; below
	// PMApprovalMaxCost it routes to the project manager.
	AutoApproveMaxCost int64 `gorm:"not null" json:"auto_approve_max_cost" validate:"gte=0"`
	MinorChangeMaxCost int64 `gorm:"not null" json:"minor_change_max_cost" validate:"gte=0"`
	PMApprovalMaxCost  int64 `gorm:"not null" json:"pm_approval_max_cost" validate:"gte=0"`

	// ClauseRates maps a clause-family prefix (e.g. "60.1") to a per-day cost
	// rate. Data, not logic: different NEC4 clause families carry different
	// rates.
	ClauseRates map[string]int64 `gorm:"serializer:json;type:jsonb" json:"clause_rates"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
