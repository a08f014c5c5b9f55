package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/scholar-ledger-api/internal/utils"
)

// RequireIdentity rejects requests whose token carried no user id or no role.
func RequireIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("user_id").(uint)
		if !ok || userID == 0 {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}
		if normalizeRoleValue(c.Locals("user_role")) == "" {
			return utils.Fail(c, fiber.StatusForbidden, "token carries no role", nil)
		}
		return c.Next()
	}
}
