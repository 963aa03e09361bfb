package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"sellerdash/internal/log"
	"sellerdash/internal/mlapi"
	view "sellerdash/internal/render"
	"sellerdash/internal/validate"
)

const alertDetail = "Erro ao carregar detalhes: "

type ItemHandler struct {
	Render view.Renderer
}

// Detail shows one item. The dashboard state is left as it was.
func (h *ItemHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ItemID(c.Params("id"))
	if !ok {
		log.Security(c, "item.id.invalid", map[string]any{"id": c.Params("id")})
		return notFound(c, fiber.StatusNotFound, "Produto não encontrado")
	}

	it, err := controller(c).OpenItem(c.UserContext(), id)
	if err != nil {
		var apiErr *mlapi.APIError
		if errors.As(err, &apiErr) && apiErr.Status == fiber.StatusNotFound {
			return notFound(c, fiber.StatusNotFound, "Produto não encontrado")
		}
		log.Error(c, "item.load", err, map[string]any{"id": id})
		return render(c.Status(fiber.StatusBadGateway), "item", fiber.Map{
			"Alert": alertDetail + err.Error(),
		})
	}
	return render(c, "item", fiber.Map{"Item": h.Render.Item(*it)})
}
