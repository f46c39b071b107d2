package events

import (
	"github.com/google/uuid"

	"github.com/contracthub/engine/internal/models"
)

// Subjects consumed by external notification and dashboard collaborators.
const (
	SubjectApprovalCompleted = "approval:completed"
	SubjectNotificationSend  = "notification:send"
)

// ApprovalCompleted announces a terminal approval outcome.
type ApprovalCompleted struct {
	ApprovalID     uuid.UUID      `json:"approval_id"`
	ProjectID      uuid.UUID      `json:"project_id"`
	Approved       bool           `json:"approved"`
	AutoApproved   bool           `json:"auto_approved"`
	ModifiedImpact *models.Impact `json:"modified_impact,omitempty"`
}

// NotificationSend asks the external notifier to contact an approver.
type NotificationSend struct {
	RecipientType  string     `json:"recipient_type"`
	RecipientID    string     `json:"recipient_id"`
	Message        string     `json:"message"`
	Type           string     `json:"type"`
	Priority       string     `json:"priority"`
	ActionRequired bool       `json:"action_required"`
	ApprovalID     *uuid.UUID `json:"approval_id,omitempty"`
}
