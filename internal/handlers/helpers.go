package handlers

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/refhub/backend/internal/services"
	"github.com/refhub/backend/pkg/utils"
)

var validate = validator.New()

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

// respondServiceError maps a typed service failure to its HTTP status
// and hides anything else behind a generic message.
func respondServiceError(c *fiber.Ctx, err error, fallback string) error {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		return utils.Error(c, domainErr.Status, domainErr.Message)
	}
	return utils.Error(c, fiber.StatusInternalServerError, fallback)
}

func pageParams(c *fiber.Ctx) (int, int) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := c.QueryInt("page_size", 10)
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return page, pageSize
}
