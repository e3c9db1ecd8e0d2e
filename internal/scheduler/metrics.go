package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionsScheduled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_transitions_scheduled_total",
			Help: "Status transition timers registered, by source status",
		},
		[]string{"from"},
	)

	transitionsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_transitions_applied_total",
			Help: "Status transitions written by a timer, by resulting status",
		},
		[]string{"to"},
	)

	transitionsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "discovery_transitions_failed_total",
			Help: "Timer callbacks or batch queries that failed",
		},
	)

	alarmsScheduled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_alarms_scheduled_total",
			Help: "Alarm timers registered, by trigger",
		},
		[]string{"trigger"},
	)

	alarmsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_alarms_dispatched_total",
			Help: "Push requests handed to the dispatcher, by trigger",
		},
		[]string{"trigger"},
	)

	alarmsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_alarms_skipped_total",
			Help: "Alarms not sent, by trigger and reason",
		},
		[]string{"trigger", "reason"},
	)
)
