package middleware

import (
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/messaging"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const identityKey = "identity"

// Identity resolves the verified token into the messaging caller.
func Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := c.Locals("user").(*jwt.Token)
		if !ok {
			return unauthorized(c, "unauthorized")
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return unauthorized(c, "unauthorized")
		}

		meta, err := utils.ExtractTokenMetadata(claims)
		if err != nil || !meta.Role.Valid() {
			return unauthorized(c, "unauthorized")
		}

		c.Locals(identityKey, messaging.Identity{
			ID:    meta.ID,
			Email: meta.Email,
			Name:  meta.Name,
			Role:  meta.Role,
		})
		return c.Next()
	}
}

// CurrentIdentity returns the caller stored by Identity.
func CurrentIdentity(c *fiber.Ctx) (messaging.Identity, bool) {
	id, ok := c.Locals(identityKey).(messaging.Identity)
	return id, ok
}
