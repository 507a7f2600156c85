package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/gtrusler/lexpertchatai-sub000/internal/http/middleware"
	"github.com/gtrusler/lexpertchatai-sub000/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError maps the engine's error kinds onto HTTP statuses and
// stable machine-readable codes. Callers branch on codes, not messages.
func writeServiceError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrNotFound) {
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "resource not found")
	}
	switch service.Kind(err) {
	case service.KindValidationFailed:
		return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILED", "invalid request")
	case service.KindStorageFailed:
		return writeError(c, fiber.StatusBadGateway, "STORAGE_FAILED", "object storage unavailable")
	case service.KindMetadataFailed:
		return writeError(c, fiber.StatusInternalServerError, "METADATA_FAILED", "metadata store failure")
	case service.KindContextMissing:
		return writeError(c, fiber.StatusConflict, "CONTEXT_MISSING", "owning context could not be established")
	case service.KindTimeout:
		return writeError(c, fiber.StatusGatewayTimeout, "TIMEOUT", "backend call timed out")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
