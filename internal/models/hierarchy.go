package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthorizationLevel is the rank of an approver within a project.
type AuthorizationLevel string

const (
	LevelProjectManager AuthorizationLevel = "project_manager"
	LevelSeniorManager  AuthorizationLevel = "senior_manager"
	LevelDirector       AuthorizationLevel = "director"
	LevelBoard          AuthorizationLevel = "board"
)

// ApprovalHierarchy is one authorization registry entry: a user may approve
// the listed change types up to a value ceiling. Revocation is soft so the
// history behind past decisions is preserved.
type ApprovalHierarchy struct {
	ID                 uuid.UUID          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProjectID          uuid.UUID          `gorm:"type:uuid;index;not null;index:idx_hierarchy_scope,unique" json:"project_id" validate:"required"`
	UserID             string             `gorm:"type:varchar(128);not null;index:idx_hierarchy_scope,unique" json:"user_id" validate:"required"`
	AuthorizationLevel AuthorizationLevel `gorm:"type:varchar(32);not null;index:idx_hierarchy_scope,unique" json:"authorization_level" validate:"required,oneof=project_manager senior_manager director board"`
	MaxApprovalValue   int64              `gorm:"not null" json:"max_approval_value" validate:"gte=0"`
	CanApproveTypes    []ChangeType       `gorm:"serializer:json;type:jsonb;not null" json:"can_approve_types" validate:"required,min=1"`
	IsActive           bool               `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// CanApprove reports whether the entry covers the given change type.
func (h *ApprovalHierarchy) CanApprove(ct ChangeType) bool {
	for _, t := range h.CanApproveTypes {
		if t == ct {
			return true
		}
	}
	return false
}
