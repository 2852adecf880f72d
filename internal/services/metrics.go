package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	resourceConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bundle_resource_consumed_total",
			Help: "Units consumed from user bundles",
		},
		[]string{"resource"},
	)

	resourceRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bundle_resource_rejected_total",
			Help: "Consumption attempts rejected by admission checks",
		},
		[]string{"resource", "reason"},
	)

	bundleActivationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bundle_activations_total",
			Help: "User bundles activated",
		},
		[]string{"source"},
	)

	orderTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bundle_order_transitions_total",
			Help: "Order status transitions",
		},
		[]string{"status"},
	)

	paymentVerificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_verification_duration_seconds",
			Help:    "Latency of external payment verification",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	maintenanceAffectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bundle_maintenance_affected_total",
			Help: "Rows touched by maintenance jobs",
		},
		[]string{"job"},
	)

	maintenanceFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bundle_maintenance_failures_total",
			Help: "Bundles a maintenance job skipped after an error",
		},
		[]string{"job"},
	)
)
