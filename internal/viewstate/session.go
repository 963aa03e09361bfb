// Package viewstate owns what the dashboard currently displays for one
// browser session and is the only place that triggers backend fetches.
package viewstate

import "sellerdash/internal/domain"

// Mode selects which endpoint page changes replay and whether the stats
// panel is shown.
type Mode int

const (
	ModeListing Mode = iota
	ModeSearch
)

func (m Mode) String() string {
	if m == ModeSearch {
		return "search"
	}
	return "listing"
}

// ParseMode is the inverse of String; unknown values map to ModeListing.
func ParseMode(s string) Mode {
	if s == "search" {
		return ModeSearch
	}
	return ModeListing
}

// DefaultPageSize is the number of items requested per page.
const DefaultPageSize = 12

// Stats are aggregates over the currently loaded page only.
type Stats struct {
	Count  int
	Active int
	Sold   int
	Value  float64
}

// ComputeStats aggregates items: active count, sold sum and the sum of
// price times available quantity.
func ComputeStats(items []domain.Item) Stats {
	st := Stats{Count: len(items)}
	for _, it := range items {
		if it.Status == domain.StatusActive {
			st.Active++
		}
		st.Sold += it.SoldQuantity
		st.Value += it.Price * float64(it.AvailableQuantity)
	}
	return st
}

// Session is a point-in-time copy of the controller state.
type Session struct {
	User       *domain.User
	Mode       Mode
	Query      string
	SortOrder  string
	Page       int
	PageSize   int
	TotalCount int
	Items      []domain.Item

	Stats        Stats
	StatsVisible bool

	Loading bool
	Alert   string
	// Loaded is false until the first item-set fetch succeeds.
	Loaded bool
}

// Authenticated reports whether a user identity is present.
func (s Session) Authenticated() bool { return s.User != nil }

// TotalPages is ceil(TotalCount / PageSize).
func (s Session) TotalPages() int {
	if s.PageSize <= 0 || s.TotalCount <= 0 {
		return 0
	}
	return (s.TotalCount + s.PageSize - 1) / s.PageSize
}

// Persisted is the part of a session that survives a server restart.
type Persisted struct {
	UserID    string
	Mode      Mode
	Query     string
	SortOrder string
	Page      int
}
