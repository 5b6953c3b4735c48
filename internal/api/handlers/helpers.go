package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/adsync/internal/service"
)

// respondError maps synchronizer errors onto HTTP responses.
func respondError(c *fiber.Ctx, err error) error {
	var business *service.RemoteBusinessError
	var transport *service.TransportError

	switch {
	case errors.Is(err, service.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": "),
		})
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Campaign not found",
		})
	case errors.Is(err, service.ErrPreconditionFailed):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No TikTok campaign_id associated with this campaign",
		})
	case errors.Is(err, service.ErrCredentials):
		slog.Error(err.Error())
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "TikTok credentials unavailable",
		})
	case errors.As(err, &business):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   business.Message,
			"details": business.Payload,
		})
	case errors.As(err, &transport):
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Unable to reach TikTok",
			"details": transport.Err.Error(),
		})
	default:
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
}

func badJSON(c *fiber.Ctx, err error) error {
	slog.Info(err.Error())
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Unable to parse json",
	})
}
