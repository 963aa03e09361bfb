package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "sellerdash/internal/log"
)

const friendlyError = "Algo deu errado. Tente novamente."

// ErrorHandler logs the error and shows a friendly page without leaking
// internals. fiber errors keep their status.
func ErrorHandler(c *fiber.Ctx, err error) error {
	applog.Error(c, "server.error", err, nil)
	status := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code >= 400 && fe.Code < 500 {
		status = fe.Code
	}
	// Avoid leaking internals; best-effort render
	if rerr := notFound(c, status, friendlyError); rerr != nil {
		return c.Status(status).SendString(friendlyError)
	}
	return nil
}

// CSRFError rejects a request whose csrf token did not verify.
func CSRFError(c *fiber.Ctx, err error) error {
	applog.Security(c, "csrf.fail", map[string]any{"err": err.Error()})
	return notFound(c, fiber.StatusForbidden, "Falha na verificação de segurança. Atualize a página e tente novamente.")
}

// NotFound is the catch-all for unmatched routes.
func NotFound(c *fiber.Ctx) error {
	return notFound(c, fiber.StatusNotFound, "Página não encontrada")
}

// CSRFLocals exposes the csrf middleware's token to templates.
func CSRFLocals() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok && tok != "" {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	}
}
