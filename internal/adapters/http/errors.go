package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/ridekit/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, not_found, service_unavailable, generation_failed, internal_error
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	return c.Status(status).JSON(apiError(c, status, code, message))
}

func apiError(c *fiber.Ctx, status int, code string, message string) APIError {
	reqID := RequestIDFromCtx(c.UserContext())
	if reqID == "" {
		reqID, _ = c.Locals("requestid").(string)
	}
	return APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	}
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errUnavailable returns a 503 error.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusServiceUnavailable, "service_unavailable", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errFromDomain maps domain errors onto status codes.
func errFromDomain(c *fiber.Ctx, err error) error {
	var genErr *domain.GenerationError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound(c, err.Error())
	case errors.As(err, &genErr):
		e := apiError(c, fiber.StatusUnprocessableEntity, "generation_failed", err.Error())
		e.Details = genErr
		return c.Status(e.Status).JSON(e)
	case errors.Is(err, domain.ErrGenerationFailure):
		return newError(c, fiber.StatusUnprocessableEntity, "generation_failed", err.Error())
	case errors.Is(err, domain.ErrServiceUnavailable), errors.Is(err, domain.ErrExternalQuery):
		return errUnavailable(c, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return newError(c, fiber.StatusGatewayTimeout, "timeout", "request timed out")
	}
	LoggerFromCtx(c.UserContext()).Error("unhandled error", "error", err)
	return errInternal(c, "internal error")
}
