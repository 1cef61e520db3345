package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sarthi-labs/hireflow-api/internal/utils"
)

// RoleAdmin can reach every management surface regardless of the route's
// declared role list.
const RoleAdmin = "admin"

// RequireRole guards a route group behind the given roles. Drive management
// is recruiter territory; candidates only ever hit the public surfaces.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if normalized := strings.ToLower(strings.TrimSpace(role)); normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		role = strings.ToLower(strings.TrimSpace(role))
		if role == RoleAdmin {
			return c.Next()
		}
		if _, ok := allowed[role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
