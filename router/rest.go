package router

import (
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/controller"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Rest(app *fiber.App, h *controller.Messaging, gatherer prometheus.Gatherer) {
	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/v1", logger.New())
	api.Get("/health", h.Health)

	// Messaging
	msg := api.Group("/messaging", middleware.JWT(), middleware.OTP(), middleware.Identity())
	msg.Post("", h.Dispatch)
	msg.Get("/me", h.UserProfile)
}
