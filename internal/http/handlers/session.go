package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"sellerdash/internal/services"
	"sellerdash/internal/viewstate"
)

const sidCookie = "sid"

func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies(sidCookie)
	if _, err := uuid.Parse(sid); err != nil {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     sidCookie,
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false,
		})
	}
	return sid
}

func expireSID(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sidCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}

// Session attaches the browser's view-state controller to the request and
// copies the named browser cookies into its backend cookie jar.
func Session(sessions *services.SessionService, forward []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := ensureSID(c)
		ctrl := sessions.Open(sid)

		var cookies []*http.Cookie
		for _, name := range forward {
			if v := c.Cookies(name); v != "" {
				cookies = append(cookies, &http.Cookie{Name: name, Value: v})
			}
		}
		sessions.ForwardCookies(sid, cookies)

		c.Locals("sid", sid)
		c.Locals("view", ctrl)
		if u := ctrl.Snapshot().User; u != nil {
			c.Locals("user_id", string(u.ID))
		}
		return c.Next()
	}
}

func controller(c *fiber.Ctx) *viewstate.Controller {
	ctrl, _ := c.Locals("view").(*viewstate.Controller)
	return ctrl
}

func sessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals("sid").(string)
	return sid
}
