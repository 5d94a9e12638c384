package controller

import (
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/messaging"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/middleware"
	"github.com/gofiber/fiber/v2"
)

// UserProfile returns the caller as seen by messaging plus their unread total.
func (h *Messaging) UserProfile(c *fiber.Ctx) error {
	caller, ok := middleware.CurrentIdentity(c)
	if !ok {
		return failure(c, messaging.ErrUnauthorized)
	}

	unread, err := h.dispatcher.Service().UnreadCount(c.UserContext(), caller)
	if err != nil {
		return failure(c, err)
	}

	return success(c, fiber.Map{
		"id":     caller.ID,
		"email":  caller.Email,
		"name":   caller.Name,
		"role":   caller.Role,
		"unread": unread.Total,
	})
}
