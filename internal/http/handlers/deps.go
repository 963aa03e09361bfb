package handlers

import (
	view "sellerdash/internal/render"
	"sellerdash/internal/services"
)

type Deps struct {
	DashboardHandler *DashboardHandler
	AuthHandler      *AuthHandler
	ItemHandler      *ItemHandler
}

func NewDeps(sessions *services.SessionService, r view.Renderer) *Deps {
	return &Deps{
		DashboardHandler: &DashboardHandler{Sessions: sessions, Render: r},
		AuthHandler:      &AuthHandler{Sessions: sessions, Render: r},
		ItemHandler:      &ItemHandler{Render: r},
	}
}
