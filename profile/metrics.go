package profile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	operationFields = "update_profile"
	operationImages = "update_profile_image"

	outcomeApplied   = "applied"
	outcomeUnchanged = "unchanged"
	outcomeConflict  = "conflict"
	outcomeRejected  = "rejected"
	outcomeFailed    = "failed"
)

var (
	updatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_updates_total",
			Help: "Total number of profile update attempts by outcome",
		},
		[]string{"operation", "outcome"},
	)

	thumbnailFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "profile_thumbnail_fallbacks_total",
			Help: "Total number of uploads stored with the original image as thumbnail",
		},
	)
)

func countOutcome(operation string, outcome string) {
	updatesTotal.WithLabelValues(operation, outcome).Inc()
}
