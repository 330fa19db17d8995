package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FollowToggles counts follow toggles by resulting state (followed, unfollowed).
	FollowToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialpost_follow_toggles_total",
		Help: "Total number of follow toggles by resulting state",
	}, []string{"result"})

	// MessagesSent counts direct messages persisted.
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "socialpost_messages_sent_total",
		Help: "Total number of direct messages sent",
	})

	// MessagingDenied counts conversation operations rejected by the mutual-follow gate.
	MessagingDenied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialpost_messaging_denied_total",
		Help: "Total number of messaging operations rejected because users are not mutual followers",
	}, []string{"operation"})

	// SideEffects counts best-effort side effects by job name and outcome (ok, error, panic, timeout).
	SideEffects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialpost_side_effects_total",
		Help: "Total number of best-effort side effects by outcome",
	}, []string{"job", "outcome"})

	// NotificationsCreated counts persisted notifications by type.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialpost_notifications_created_total",
		Help: "Total number of notifications created by type",
	}, []string{"type"})
)
