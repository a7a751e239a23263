package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/apiclient"
	applog "storefront/internal/log"
	"storefront/internal/validate"
)

const genericFailure = "Something went wrong. Please try again."

// ErrorHandler answers every unhandled error with a JSON body. Server-side
// failures never leak their cause to the caller.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := genericFailure
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		if code < 500 {
			msg = fe.Message
		}
	}
	if code >= 500 {
		applog.Error(c, "server.error", err, map[string]any{"status": code})
	} else {
		applog.Security(c, "request.rejected", map[string]any{"status": code, "reason": msg})
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}

// upstream turns a catalog failure into a response error. Client errors from
// the backend keep their message; everything else is reported as unavailable.
func upstream(c *fiber.Ctx, action string, err error, notFound string) error {
	applog.Error(c, action, err, nil)
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		if apiErr.Status == fiber.StatusNotFound && notFound != "" {
			return fiber.NewError(fiber.StatusNotFound, notFound)
		}
		return fiber.NewError(apiErr.Status, apiErr.Message)
	}
	return fiber.NewError(fiber.StatusBadGateway, "The catalog is unavailable. Please try again.")
}

// bind parses the JSON body into out and checks its validate tags.
func bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"reason": "malformed body"})
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(out); err != nil {
		msg := validate.Message(err)
		applog.Security(c, "validation.fail", map[string]any{"reason": msg})
		return fiber.NewError(fiber.StatusBadRequest, msg)
	}
	return nil
}
