package ams

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "amsd",
			Subsystem: "ams",
			Name:      "operations_total",
			Help:      "AMS operations by name and result code",
		},
		[]string{"op", "result"},
	)

	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "amsd",
			Subsystem: "ams",
			Name:      "operation_duration_seconds",
			Help:      "Wall time of completed asynchronous operations",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	actionGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "amsd",
			Subsystem: "ams",
			Name:      "action",
			Help:      "Current action (1 for the active action label, 0 otherwise)",
		},
		[]string{"action"},
	)

	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "amsd",
			Subsystem: "ams",
			Name:      "events_total",
			Help:      "Events emitted to the subscriber",
		},
		[]string{"event"},
	)
)

func init() {
	prometheus.MustRegister(operationsTotal, operationDuration, actionGauge, eventsTotal)
}

var allActions = []Action{ActionIdle, ActionLoading, ActionUnloading, ActionResetting, ActionError}

func recordOperation(op string, err error) {
	operationsTotal.WithLabelValues(op, string(ResultOf(err))).Inc()
}

func observeOperation(op string, start time.Time) {
	operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func recordAction(a Action) {
	for _, cand := range allActions {
		v := 0.0
		if cand == a {
			v = 1.0
		}
		actionGauge.WithLabelValues(string(cand)).Set(v)
	}
}

func recordEvent(name string) {
	eventsTotal.WithLabelValues(name).Inc()
}
