package middleware

import (
	"orusbank/internal/logging"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger emits one structured entry per request with its latency
// and a request id, reusing the caller's id when one is supplied.
func RequestLogger(log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDHeader, requestID)
		c.Locals("requestID", requestID)

		data := logging.NewLogData(log)
		data.AddData("request_id", requestID)
		data.AddData("method", c.Method())
		data.AddData("path", c.Path())

		stop := data.AddTiming("latency_ms")
		err := c.Next()
		stop()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		data.AddData("status", status)

		entry := data.Log()
		switch {
		case status >= fiber.StatusInternalServerError:
			entry.WithError(err).Error("request")
		case status >= fiber.StatusBadRequest:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
		return err
	}
}
