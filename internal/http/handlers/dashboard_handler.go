package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"sellerdash/internal/log"
	"sellerdash/internal/mlapi"
	view "sellerdash/internal/render"
	"sellerdash/internal/services"
	"sellerdash/internal/validate"
	"sellerdash/internal/viewstate"
)

type DashboardHandler struct {
	Sessions *services.SessionService
	Render   view.Renderer
}

// Home checks the backend session and shows the dashboard. An
// authenticated session that has not loaded yet replays its stored
// position, or the first listing page.
func (h *DashboardHandler) Home(c *fiber.Ctx) error {
	ctrl := controller(c)
	if err := ctrl.CheckStatus(c.UserContext()); err != nil {
		log.Info(c, "session.status.fail", map[string]any{"err": err.Error()})
	}
	s := ctrl.Snapshot()
	if !s.Authenticated() {
		return h.show(c, nil)
	}
	c.Locals("user_id", string(s.User.ID))
	if s.Loaded {
		return h.show(c, nil)
	}
	return h.show(c, ctrl.ChangePage(c.UserContext(), s.Page))
}

// Items shows a page of the user's own items.
func (h *DashboardHandler) Items(c *fiber.Ctx) error {
	page := validate.Page(c.Query("page"))
	return h.show(c, controller(c).LoadListing(c.UserContext(), page))
}

// Search shows a page of marketplace results. A blank query falls back to
// the listing.
func (h *DashboardHandler) Search(c *fiber.Ctx) error {
	q, ok := validate.Q(c.Query("q"))
	if !ok {
		log.Security(c, "search.query.invalid", map[string]any{"len": len(c.Query("q"))})
		return notFound(c, fiber.StatusBadRequest, "Busca inválida")
	}
	sort := validate.Sort(c.Query("sort"))
	page := validate.Page(c.Query("page"))
	log.Info(c, "search", map[string]any{"q": q, "sort": sort, "page": page})
	return h.show(c, controller(c).Search(c.UserContext(), q, sort, page))
}

// Page moves to another page of whatever is currently shown.
func (h *DashboardHandler) Page(c *fiber.Ctx) error {
	page := validate.Page(c.Params("n"))
	return h.show(c, controller(c).ChangePage(c.UserContext(), page))
}

// Dismiss clears the alert.
func (h *DashboardHandler) Dismiss(c *fiber.Ctx) error {
	controller(c).DismissAlert()
	return c.Redirect("/", fiber.StatusSeeOther)
}

// show persists the position and renders the dashboard. A backend failure
// is rendered with its alert and 502, a backend 401 drops to the login
// prompt, and a superseded fetch shows whatever the newer one committed.
func (h *DashboardHandler) show(c *fiber.Ctx, err error) error {
	sid := sessionID(c)
	ctrl := controller(c)

	status := fiber.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, viewstate.ErrSuperseded):
		log.Info(c, "dashboard.superseded", nil)
	case mlapi.IsUnauthorized(err):
		// backend session is gone; back to the login prompt
		status = fiber.StatusUnauthorized
		ctrl.Expire()
		log.Security(c, "session.expired", map[string]any{"sid": sid})
	case mlapi.IsNetwork(err):
		status = fiber.StatusBadGateway
		log.Error(c, "dashboard.backend.unreachable", err, nil)
	default:
		status = fiber.StatusBadGateway
		log.Error(c, "dashboard.backend", err, nil)
	}

	if perr := h.Sessions.Persist(sid); perr != nil {
		log.Error(c, "session.persist", perr, map[string]any{"sid": sid})
	}

	dv := h.Render.Dashboard(ctrl.Snapshot())
	ctrl.DismissAlert()
	return render(c.Status(status), "dashboard", fiber.Map{"View": dv})
}
