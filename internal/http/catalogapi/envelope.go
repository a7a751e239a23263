package catalogapi

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
)

const internalFailure = "An unexpected error occurred"

func envelope[T any](c *fiber.Ctx, status, msg string, data T) domain.Envelope[T] {
	return domain.Envelope[T]{
		Status:    status,
		Message:   msg,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      c.Path(),
	}
}

func ok[T any](c *fiber.Ctx, msg string, data T) error {
	return c.JSON(envelope(c, domain.StatusSuccess, msg, data))
}

// ErrorHandler writes every failure as an error envelope. A missing product
// is a 404 carrying its lookup message; unexpected errors are logged and
// reported without detail.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := internalFailure

	var fe *fiber.Error
	var nf *services.NotFoundError
	switch {
	case errors.As(err, &nf):
		code, msg = fiber.StatusNotFound, nf.Error()
	case errors.Is(err, services.ErrLoadInProgress):
		code, msg = fiber.StatusConflict, err.Error()
	case errors.As(err, &fe):
		code = fe.Code
		if code < 500 {
			msg = fe.Message
		}
	}

	if code >= 500 {
		applog.Error(c, "catalog.error", err, map[string]any{"status": code})
	} else {
		applog.Info(c, "catalog.rejected", map[string]any{"status": code, "reason": msg})
	}
	return c.Status(code).JSON(envelope[any](c, domain.StatusError, msg, nil))
}
