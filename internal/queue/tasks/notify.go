package tasks

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/contracthub/engine/internal/events"
	"github.com/contracthub/engine/pkg/logger"
)

// NotifyTaskHandler consumes bus events destined for external collaborators.
// The engine does not deliver email or dashboards itself; these handlers log
// the hand-off so a stuck notification is visible in the worker's output.
type NotifyTaskHandler struct{}

func NewNotifyTaskHandler() *NotifyTaskHandler {
	return &NotifyTaskHandler{}
}

func (h *NotifyTaskHandler) HandleNotificationSend(ctx context.Context, t *asynq.Task) error {
	var n events.NotificationSend
	if err := json.Unmarshal(t.Payload(), &n); err != nil {
		logger.L().Error("invalid notification payload", zap.Error(err))
		return err
	}
	logger.L().Info("notification dispatched",
		zap.String("recipient_type", n.RecipientType),
		zap.String("recipient_id", n.RecipientID),
		zap.String("type", n.Type),
		zap.String("priority", n.Priority),
		zap.Bool("action_required", n.ActionRequired),
	)
	return nil
}

func (h *NotifyTaskHandler) HandleApprovalCompleted(ctx context.Context, t *asynq.Task) error {
	var e events.ApprovalCompleted
	if err := json.Unmarshal(t.Payload(), &e); err != nil {
		logger.L().Error("invalid approval completed payload", zap.Error(err))
		return err
	}
	logger.L().Info("approval outcome broadcast",
		zap.String("approval_id", e.ApprovalID.String()),
		zap.String("project_id", e.ProjectID.String()),
		zap.Bool("approved", e.Approved),
		zap.Bool("auto_approved", e.AutoApproved),
	)
	return nil
}
