package controller

import (
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/messaging"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/middleware"
	"github.com/gofiber/fiber/v2"
)

type Messaging struct {
	dispatcher *messaging.Dispatcher
}

func NewMessaging(dispatcher *messaging.Dispatcher) *Messaging {
	return &Messaging{dispatcher: dispatcher}
}

// Dispatch is the single messaging endpoint. The body carries the action
// name next to its payload fields.
func (h *Messaging) Dispatch(c *fiber.Ctx) error {
	caller, ok := middleware.CurrentIdentity(c)
	if !ok {
		return failure(c, messaging.ErrUnauthorized)
	}

	req, err := messaging.DecodeRequest(c.Body())
	if err != nil {
		return failure(c, err)
	}

	result, err := h.dispatcher.Dispatch(c.UserContext(), caller, req)
	if err != nil {
		return failure(c, err)
	}
	return success(c, result)
}

// Health pings the storage backend.
func (h *Messaging) Health(c *fiber.Ctx) error {
	svc := h.dispatcher.Service()
	if err := svc.Ping(c.UserContext()); err != nil {
		return failure(c, err)
	}
	return success(c, fiber.Map{"backend": svc.Backend()})
}
