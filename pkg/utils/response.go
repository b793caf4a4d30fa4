package utils

import "github.com/gofiber/fiber/v2"

func Success(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// Message is a Success envelope carrying only a human-readable confirmation.
func Message(c *fiber.Ctx, status int, msg string) error {
	return Success(c, status, fiber.Map{"msg": msg})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

func Paginated(c *fiber.Ctx, data interface{}, page, pageSize int, total int64) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":   true,
		"data":      data,
		"total_num": total,
		"pagination": fiber.Map{
			"page":      page,
			"page_size": pageSize,
		},
	})
}
