package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditActionKind enumerates the recordable actions against an approval.
type AuditActionKind string

const (
	AuditCreated  AuditActionKind = "created"
	AuditReviewed AuditActionKind = "reviewed"
	AuditApproved AuditActionKind = "approved"
	AuditRejected AuditActionKind = "rejected"
	AuditModified AuditActionKind = "modified"
)

// AuditAction is a tagged union of decision payloads: one variant per action
// kind, each carrying only the fields relevant to that action.
type AuditAction interface {
	Kind() AuditActionKind
}

// CreatedAudit records request creation, including system auto-approvals.
type CreatedAudit struct {
	Tier         Tier `json:"tier"`
	AutoApproved bool `json:"auto_approved"`
}

func (CreatedAudit) Kind() AuditActionKind { return AuditCreated }

// ReviewedAudit records a non-terminal review pass.
type ReviewedAudit struct {
	Comments string `json:"comments"`
}

func (ReviewedAudit) Kind() AuditActionKind { return AuditReviewed }

// ApprovedAudit records a human approval, optionally with an adjusted impact.
type ApprovedAudit struct {
	Reason         string  `json:"reason,omitempty"`
	ModifiedImpact *Impact `json:"modified_impact,omitempty"`
}

func (ApprovedAudit) Kind() AuditActionKind { return AuditApproved }

// RejectedAudit records a human rejection with its reason.
type RejectedAudit struct {
	Reason string `json:"reason"`
}

func (RejectedAudit) Kind() AuditActionKind { return AuditRejected }

// ModifiedAudit records a field-level change to a pending request.
type ModifiedAudit struct {
	Fields map[string]any `json:"fields"`
}

func (ModifiedAudit) Kind() AuditActionKind { return AuditModified }

// EncodeAuditChanges serializes an action variant into the structured changes
// payload stored on the audit entry.
func EncodeAuditChanges(a AuditAction) (datatypes.JSON, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// AuditTrailEntry is one immutable record of an action against an approval.
// Entries are append-only; a schema trigger rejects updates and deletes.
type AuditTrailEntry struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ApprovalID     uuid.UUID       `gorm:"type:uuid;index;not null" json:"approval_id" validate:"required"`
	Action         AuditActionKind `gorm:"type:varchar(16);not null" json:"action" validate:"required,oneof=created reviewed approved rejected modified"`
	PerformedBy    string          `gorm:"type:varchar(128);not null" json:"performed_by" validate:"required"`
	PreviousStatus ApprovalStatus  `gorm:"type:varchar(16)" json:"previous_status"`
	NewStatus      ApprovalStatus  `gorm:"type:varchar(16)" json:"new_status"`
	Comments       string          `gorm:"type:text" json:"comments"`
	Changes        datatypes.JSON  `gorm:"type:jsonb" json:"changes"`
	OriginAddress  string          `gorm:"type:varchar(64)" json:"origin_address"`
	ClientIdentity string          `gorm:"type:varchar(256)" json:"client_identity"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
}
