package mockserver

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "rco_mock_http_duration_seconds",
		Help: "Duration of requests served by the mock api.",
	}, []string{"method", "route", "status_code"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rco_mock_http_requests_total",
		Help: "Requests served by the mock api.",
	}, []string{"method", "route", "status_code"})
)

// instrument observes every request after the handler chain has run, so
// forced failures and auth rejections are counted too.
func instrument(c *fiber.Ctx) error {
	start := time.Now()

	err := c.Next()

	status := strconv.Itoa(c.Response().StatusCode())
	route := c.Route().Path

	httpDuration.WithLabelValues(c.Method(), route, status).Observe(time.Since(start).Seconds())
	httpRequests.WithLabelValues(c.Method(), route, status).Inc()

	return err
}

func requestID(c *fiber.Ctx) error {
	id := c.Get(fiber.HeaderXRequestID)
	if id == "" {
		id = uuid.NewString()
	}

	c.Set(fiber.HeaderXRequestID, id)
	c.Locals("requestID", id)

	return c.Next()
}

// errorHandler answers in the provider's {"error": "..."} shape so the
// client's message extraction sees the same body it gets in production.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}
