package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the engine's observable side effects. Notification delivery is
// best-effort, so its failure counter is the only signal that deliveries are
// being lost; it must stay visible even when logs are sampled.
var (
	ProgrammeImports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "programme_imports_total",
		Help: "Schedule imports by outcome.",
	}, []string{"outcome"})

	DroppedLinks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "programme_import_dropped_links_total",
		Help: "Dependency links dropped during import because an endpoint could not be resolved.",
	})

	ApprovalsRouted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "approvals_routed_total",
		Help: "Approval requests routed, by tier.",
	}, []string{"tier"})

	ApprovalDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "approval_decisions_total",
		Help: "Terminal approval decisions, by outcome.",
	}, []string{"outcome"})

	NotificationDeliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notification_delivery_failures_total",
		Help: "Event publications that failed after the state change committed.",
	})
)
