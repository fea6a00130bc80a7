package middleware

import (
	"crypto/subtle"
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GatewayAuthMiddleware rejects any request that does not present the shared
// service token issued to the gateway. The engine is never exposed to clients
// directly; money operations only trust identity headers stamped upstream.
func GatewayAuthMiddleware() fiber.Handler {
	expected := os.Getenv("ENGINE_SERVICE_TOKEN")
	if expected == "" {
		log.Fatal("❌ ENGINE_SERVICE_TOKEN is not set, refusing to start unauthenticated")
	}

	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			log.Printf("🚫 [GATEWAY_AUTH] missing Authorization header for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "gateway authentication token missing",
			})
		}

		// The gateway sends "Bearer <token>"; a raw token is accepted too.
		token := strings.TrimPrefix(header, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			log.Printf("🚫 [GATEWAY_AUTH] invalid token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid gateway authentication token",
			})
		}

		return c.Next()
	}
}
