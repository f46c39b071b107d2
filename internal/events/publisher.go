package events

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/contracthub/engine/internal/metrics"
	"github.com/contracthub/engine/pkg/logger"
)

// Publisher emits events to the bus for external consumers. Implementations
// are best-effort: callers treat a failed publish as a logged, counted side
// effect, never as grounds to roll back the state change that triggered it.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqPublisher enqueues one task per event; the worker and any external
// consumers pick them up from Redis.
type AsynqPublisher struct {
	client enqueuer
}

func NewAsynqPublisher(client *asynq.Client) *AsynqPublisher {
	return &AsynqPublisher{client: client}
}

var _ Publisher = (*AsynqPublisher)(nil)

func (p *AsynqPublisher) Publish(ctx context.Context, subject string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		metrics.NotificationDeliveryFailures.Inc()
		return err
	}
	if _, err := p.client.EnqueueContext(ctx, asynq.NewTask(subject, b)); err != nil {
		metrics.NotificationDeliveryFailures.Inc()
		logger.L().Warn("event publish failed",
			zap.String("subject", subject),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// NopPublisher discards events; used in tests and when the bus is not wired.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, subject string, payload any) error { return nil }

var _ Publisher = NopPublisher{}
