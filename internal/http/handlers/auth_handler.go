package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"sellerdash/internal/log"
	"sellerdash/internal/mlapi"
	view "sellerdash/internal/render"
	"sellerdash/internal/services"
)

type AuthHandler struct {
	Sessions *services.SessionService
	Render   view.Renderer
}

// Login asks the backend for the external login URL and sends the browser
// there. Without one the login prompt is shown with the error.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	ctrl := controller(c)
	target, err := ctrl.Authenticate(c.UserContext())
	if err != nil {
		reason := "backend"
		if errors.Is(err, mlapi.ErrMissingRedirect) {
			reason = "missing_redirect"
		}
		log.Security(c, "auth.login.fail", map[string]any{"reason": reason, "err": err.Error()})
		dv := h.Render.Dashboard(ctrl.Snapshot())
		ctrl.DismissAlert()
		return render(c.Status(fiber.StatusBadGateway), "dashboard", fiber.Map{"View": dv})
	}
	log.Audit(c, "auth.login.redirect", nil)
	return c.Redirect(target, fiber.StatusSeeOther)
}

// Logout ends the backend session best effort and always resets locally.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := sessionID(c)
	controller(c).Logout(c.UserContext())
	if err := h.Sessions.Forget(sid); err != nil {
		log.Error(c, "session.forget", err, map[string]any{"sid": sid})
	}
	expireSID(c)
	log.Audit(c, "auth.logout", map[string]any{"sid": sid})
	return c.Redirect("/", fiber.StatusSeeOther)
}
