package utils

import (
	"errors"

	apperrors "orusbank/internal/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Respond sends a JSON response with the specified status code.
func Respond(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(data)
}

// Success sends a successful JSON response.
func Success(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusOK, data)
}

// BadRequest sends a JSON error response with status 400.
func BadRequest(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusBadRequest, fiber.Map{"error": message, "code": apperrors.ErrInvalidRequest.Code})
}

// Unauthorized sends a JSON error response with status 401.
func Unauthorized(c *fiber.Ctx, err *apperrors.DomainError) error {
	return Respond(c, fiber.StatusUnauthorized, fiber.Map{"error": err.Message, "code": err.Code})
}

// InternalError sends a JSON error response with status 500.
func InternalError(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusInternalServerError, fiber.Map{"error": message, "code": "INTERNAL"})
}

// StatusFor maps a domain error kind onto its HTTP status.
func StatusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation, apperrors.KindInsufficientFunds:
		return fiber.StatusBadRequest
	case apperrors.KindNotFound:
		return fiber.StatusNotFound
	case apperrors.KindConflict, apperrors.KindDuplicateOwner:
		return fiber.StatusConflict
	case apperrors.KindUnavailable:
		return fiber.StatusServiceUnavailable
	case apperrors.KindAuthentication:
		return fiber.StatusUnauthorized
	case apperrors.KindForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// Error answers err as {error, code}. Domain errors keep their message;
// anything else is logged and reported as a bare 500.
func Error(c *fiber.Ctx, err error) error {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		status := StatusFor(domainErr.Kind)
		if status >= fiber.StatusInternalServerError || domainErr.Retryable() {
			logrus.WithError(err).WithField("path", c.Path()).Warn("request failed")
		}
		return Respond(c, status, fiber.Map{"error": domainErr.Message, "code": domainErr.Code})
	}
	logrus.WithError(err).WithField("path", c.Path()).Error("unhandled error")
	return InternalError(c, "internal server error")
}
