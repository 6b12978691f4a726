package rest

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"method", "route", "code"},
)

// MetricsHandler observes the duration of every request, labelled with the
// matched route pattern so path parameters do not blow up cardinality.
func MetricsHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()

		code := ctx.Response().StatusCode()
		if err != nil {
			code = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
		}
		requestDuration.
			WithLabelValues(ctx.Method(), ctx.Route().Path, strconv.Itoa(code)).
			Observe(time.Since(start).Seconds())
		return err
	}
}
