// Package response owns the uniform envelope every endpoint answers with and
// the status code used for each outcome family.
package response

import (
	"math"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-auth/pkg/util/errorutil"
)

// Envelope is the single response shape for success and failure alike.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// Meta carries pagination details.
type Meta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int64 `json:"pages"`
}

// NewMeta computes the page count for total items split by limit.
func NewMeta(total int64, page, limit int) *Meta {
	var pages int64
	if limit > 0 {
		pages = int64(math.Ceil(float64(total) / float64(limit)))
	}
	return &Meta{Total: total, Page: page, Limit: limit, Pages: pages}
}

// Success writes a success envelope with the given status.
func Success(c *fiber.Ctx, status int, data any, message string) error {
	if message == "" {
		message = "Success"
	}
	return c.Status(status).JSON(Envelope{Success: true, Message: message, Data: data})
}

// OK 200
func OK(c *fiber.Ctx, data any, message string) error {
	return Success(c, http.StatusOK, data, message)
}

// Created 201
func Created(c *fiber.Ctx, data any, message string) error {
	return Success(c, http.StatusCreated, data, message)
}

// Paginated writes a 200 with pagination metadata.
func Paginated[T any](c *fiber.Ctx, data []T, total int64, page, limit int, message string) error {
	if message == "" {
		message = "Success"
	}
	if data == nil {
		data = []T{}
	}
	return c.Status(http.StatusOK).JSON(Envelope{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    NewMeta(total, page, limit),
	})
}

// Error writes a failure envelope. detail is omitted when empty.
func Error(c *fiber.Ctx, message string, status int, detail string) error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return c.Status(status).JSON(Envelope{Success: false, Message: message, Error: detail})
}

// ValidationError renders every failing field in one 400.
func ValidationError(c *fiber.Ctx, messages []string) error {
	return c.Status(http.StatusBadRequest).JSON(Envelope{
		Success: false,
		Message: "Validation Error",
		Error:   errorutil.JoinMessages(messages),
	})
}

// Unauthorized 401
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, orText(message, "Unauthorized"), http.StatusUnauthorized, "")
}

// Forbidden 403
func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, orText(message, "Forbidden"), http.StatusForbidden, "")
}

// NotFound 404
func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, orText(message, "Resource not found"), http.StatusNotFound, "")
}

// Conflict 409
func Conflict(c *fiber.Ctx, message string) error {
	return Error(c, orText(message, "Conflict"), http.StatusConflict, "")
}

// PayloadTooLarge 413
func PayloadTooLarge(c *fiber.Ctx, message string) error {
	return Error(c, orText(message, "Request body too large"), http.StatusRequestEntityTooLarge, "")
}

// ServiceUnavailable 503
func ServiceUnavailable(c *fiber.Ctx, message string) error {
	return Error(c, orText(message, "Service unavailable"), http.StatusServiceUnavailable, "")
}

func orText(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}
