// Package render turns a viewstate snapshot into the data the HTML
// templates display. Nothing here performs I/O.
package render

import (
	"fmt"
	"strings"
	"time"

	"sellerdash/internal/domain"
	"sellerdash/internal/viewstate"
)

var sortLabels = map[string]string{
	domain.SortRelevance: "Mais relevantes",
	domain.SortPriceAsc:  "Menor preço",
	domain.SortPriceDesc: "Maior preço",
}

type UserCard struct {
	Name  string
	Email string
	ID    string
}

type Card struct {
	ID         string
	Title      string
	Thumbnail  string
	Price      string
	Available  int
	Sold       int
	Badge      string
	BadgeClass string
	Footer     string
	Permalink  string
}

type EmptyState struct {
	Icon    string
	Heading string
	Message string
}

type StatsPanel struct {
	Total  int
	Active int
	Sold   int
	Value  string
}

type SortOption struct {
	Value    string
	Label    string
	Selected bool
}

// DashboardView is everything the dashboard template needs.
type DashboardView struct {
	Authenticated bool
	AuthStatus    string
	AuthButton    string
	User          *UserCard

	Title       string
	Mode        string
	Query       string
	SortOptions []SortOption

	Cards      []Card
	Empty      *EmptyState
	Stats      *StatsPanel
	PageInfo   string
	Pagination *Pagination

	Loading bool
	Alert   string
}

type AttributeView struct {
	Name  string
	Value string
}

// ItemView is the single-item detail view.
type ItemView struct {
	ID            string
	Title         string
	Price         string
	MainPicture   string
	Thumbnails    []string
	Available     int
	Sold          int
	Condition     string
	StatusText    string
	StatusClass   string
	CategoryID    string
	ListingTypeID string
	Created       string
	Updated       string
	Permalink     string
	Description   []string
	Attributes    []AttributeView
}

// Renderer formats dates in Loc.
type Renderer struct {
	Loc *time.Location
}

func New(loc *time.Location) Renderer {
	if loc == nil {
		loc = time.Local
	}
	return Renderer{Loc: loc}
}

// Dashboard renders a session snapshot.
func (r Renderer) Dashboard(s viewstate.Session) DashboardView {
	v := DashboardView{
		Authenticated: s.Authenticated(),
		AuthStatus:    "Não autenticado",
		AuthButton:    "Fazer Login",
		Mode:          s.Mode.String(),
		Query:         s.Query,
		SortOptions:   sortOptions(s.SortOrder),
		Loading:       s.Loading,
		Alert:         s.Alert,
	}
	if !v.Authenticated {
		return v
	}

	v.AuthStatus = "Autenticado"
	v.AuthButton = "Sair"
	v.User = userCard(s.User)

	if s.Mode == viewstate.ModeSearch {
		v.Title = fmt.Sprintf("Resultados para: \"%s\"", s.Query)
	} else {
		v.Title = "Meus Produtos"
	}
	if !s.Loaded {
		return v
	}

	v.Cards = make([]Card, 0, len(s.Items))
	for _, it := range s.Items {
		if s.Mode == viewstate.ModeSearch {
			v.Cards = append(v.Cards, r.searchCard(it))
		} else {
			v.Cards = append(v.Cards, r.listingCard(it))
		}
	}
	if len(v.Cards) == 0 {
		v.Empty = emptyState(s.Mode)
	}
	if s.StatsVisible && s.Mode == viewstate.ModeListing {
		v.Stats = &StatsPanel{
			Total:  s.Stats.Count,
			Active: s.Stats.Active,
			Sold:   s.Stats.Sold,
			Value:  FormatPrice(s.Stats.Value, "BRL"),
		}
	}
	v.PageInfo = PageInfo(s.Page, s.TotalCount, s.PageSize)
	v.Pagination = Window(s.Page, s.TotalCount, s.PageSize)
	return v
}

// Item renders the detail view of one item.
func (r Renderer) Item(it domain.ItemDetail) ItemView {
	v := ItemView{
		ID:            it.ID,
		Title:         it.Title,
		Price:         FormatPrice(it.Price, it.CurrencyID),
		Available:     it.AvailableQuantity,
		Sold:          it.SoldQuantity,
		Condition:     ConditionText(it.Condition),
		StatusText:    StatusText(it.Status),
		StatusClass:   StatusClass(it.Status),
		CategoryID:    it.CategoryID,
		ListingTypeID: it.ListingTypeID,
		Created:       FormatDate(it.DateCreated, r.Loc),
		Updated:       FormatDate(it.LastUpdated, r.Loc),
		Permalink:     it.Permalink,
	}
	if len(it.Pictures) > 0 {
		v.MainPicture = it.Pictures[0].URL
	}
	for i := 1; i < len(it.Pictures) && i < 5; i++ {
		v.Thumbnails = append(v.Thumbnails, it.Pictures[i].URL)
	}
	if it.Description != nil && it.Description.PlainText != "" {
		v.Description = strings.Split(it.Description.PlainText, "\n")
	}
	for _, a := range it.Attributes {
		v.Attributes = append(v.Attributes, AttributeView{Name: a.Name, Value: AttributeValue(a)})
	}
	return v
}

func (r Renderer) listingCard(it domain.Item) Card {
	return Card{
		ID:         it.ID,
		Title:      it.Title,
		Thumbnail:  it.Thumbnail,
		Price:      FormatPrice(it.Price, it.CurrencyID),
		Available:  it.AvailableQuantity,
		Sold:       it.SoldQuantity,
		Badge:      StatusText(it.Status),
		BadgeClass: StatusClass(it.Status),
		Footer:     FormatDate(it.DateCreated, r.Loc),
		Permalink:  it.Permalink,
	}
}

func (r Renderer) searchCard(it domain.Item) Card {
	return Card{
		ID:         it.ID,
		Title:      it.Title,
		Thumbnail:  it.Thumbnail,
		Price:      FormatPrice(it.Price, it.CurrencyID),
		Available:  it.AvailableQuantity,
		Sold:       it.SoldQuantity,
		Badge:      it.Condition,
		BadgeClass: "status-active",
		Footer:     "Ver no ML",
		Permalink:  it.Permalink,
	}
}

func emptyState(mode viewstate.Mode) *EmptyState {
	if mode == viewstate.ModeSearch {
		return &EmptyState{
			Icon:    "fa-search",
			Heading: "Nenhum resultado encontrado",
			Message: "Tente usar termos diferentes para sua busca.",
		}
	}
	return &EmptyState{
		Icon:    "fa-box-open",
		Heading: "Nenhum produto encontrado",
		Message: "Você ainda não possui produtos cadastrados.",
	}
}

func userCard(u *domain.User) *UserCard {
	email := u.Email
	if email == "" {
		email = "Email não disponível"
	}
	return &UserCard{
		Name:  strings.TrimSpace(u.FirstName + " " + u.LastName),
		Email: email,
		ID:    "ID: " + string(u.ID),
	}
}

func sortOptions(selected string) []SortOption {
	if _, ok := sortLabels[selected]; !ok {
		selected = domain.SortRelevance
	}
	out := make([]SortOption, 0, len(domain.SortOrders))
	for _, key := range domain.SortOrders {
		out = append(out, SortOption{Value: key, Label: sortLabels[key], Selected: key == selected})
	}
	return out
}
