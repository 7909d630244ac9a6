// middleware/gateway.go
package middleware

import (
	"crypto/subtle"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ServiceTokenHeader is checked when Authorization is absent; internal callers
// such as the score service use it.
const ServiceTokenHeader = "X-Service-Token"

// GatewayAuthMiddleware admits only requests carrying the shared service
// token. With no token configured every request passes.
func GatewayAuthMiddleware(serviceToken string) fiber.Handler {
	if serviceToken == "" {
		log.Println("[Gateway] ⚠️ no service token configured, accepting unauthenticated requests")
		return passThrough
	}

	want := []byte(serviceToken)
	return func(c *fiber.Ctx) error {
		got, ok := presentedToken(c)
		if !ok {
			log.Printf("[Gateway] 🚫 %s %s without service token", c.Method(), c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "service token required"})
		}
		if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			log.Printf("[Gateway] ❌ %s %s rejected, service token mismatch", c.Method(), c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "service token rejected"})
		}
		return c.Next()
	}
}

func passThrough(c *fiber.Ctx) error { return c.Next() }

// presentedToken reads "Authorization: Bearer <t>", a bare Authorization value,
// or the service token header, in that order.
func presentedToken(c *fiber.Ctx) (string, bool) {
	if h := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); h != "" {
		if t, found := strings.CutPrefix(h, "Bearer "); found {
			return strings.TrimSpace(t), true
		}
		return h, true
	}
	if t := strings.TrimSpace(c.Get(ServiceTokenHeader)); t != "" {
		return t, true
	}
	return "", false
}
