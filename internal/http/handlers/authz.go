package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "sellerdash/internal/log"
)

// RequireUser lets the request through only when the session is
// authenticated with the backend. It re-checks once before redirecting
// to the dashboard's login prompt.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctrl := controller(c)
		if ctrl == nil {
			return c.Redirect("/")
		}
		if ctrl.Snapshot().Authenticated() {
			return c.Next()
		}
		if err := ctrl.CheckStatus(c.UserContext()); err != nil {
			applog.Info(c, "session.status.fail", map[string]any{"err": err.Error()})
		}
		s := ctrl.Snapshot()
		if !s.Authenticated() {
			applog.Security(c, "access.denied.unauthenticated", nil)
			return c.Redirect("/")
		}
		c.Locals("user_id", string(s.User.ID))
		return c.Next()
	}
}
