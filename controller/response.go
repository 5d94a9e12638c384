package controller

import (
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/messaging"
	"github.com/gofiber/fiber/v2"
)

func success(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func failure(c *fiber.Ctx, err error) error {
	return c.Status(messaging.StatusCode(err)).JSON(fiber.Map{
		"success": false,
		"error":   messaging.PublicMessage(err),
	})
}
