package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"sellerdash/internal/log"
)

// Mount registers the dashboard routes. The Session middleware must
// already be installed on app.
func (d *Deps) Mount(app fiber.Router) {
	app.Get("/", d.DashboardHandler.Home)

	// Auth routes (login throttled)
	app.Get("/login", limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			log.Security(c, "rate.login.hit", nil)
			return notFound(c, fiber.StatusTooManyRequests, "Muitas tentativas. Tente novamente em instantes.")
		},
	}), d.AuthHandler.Login)
	app.Post("/logout", d.AuthHandler.Logout)

	auth := RequireUser()
	app.Get("/items", auth, d.DashboardHandler.Items)
	app.Get("/search", auth, limiter.New(limiter.Config{Max: 30, Expiration: time.Minute}), d.DashboardHandler.Search)
	app.Get("/page/:n", auth, d.DashboardHandler.Page)
	app.Post("/alert/dismiss", auth, d.DashboardHandler.Dismiss)
	app.Get("/item/:id", auth, d.ItemHandler.Detail)
}
