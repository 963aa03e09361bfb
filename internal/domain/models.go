package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Item statuses reported by the marketplace. Any other value is displayed
// with the paused style.
const (
	StatusActive = "active"
	StatusPaused = "paused"
	StatusClosed = "closed"
)

// Item is one catalog entry as returned by /my-items or /search.
// Search results omit some fields; they decode to their zero values.
type Item struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Price             float64 `json:"price"`
	CurrencyID        string  `json:"currency_id"`
	AvailableQuantity int     `json:"available_quantity"`
	SoldQuantity      int     `json:"sold_quantity"`
	Status            string  `json:"status"`
	Condition         string  `json:"condition"`
	Thumbnail         string  `json:"thumbnail"`
	CategoryID        string  `json:"category_id"`
	ListingTypeID     string  `json:"listing_type_id"`
	DateCreated       string  `json:"date_created"`
	LastUpdated       string  `json:"last_updated"`
	Permalink         string  `json:"permalink"`
}

type Picture struct {
	URL string `json:"url"`
}

type AttributeValue struct {
	Name string `json:"name"`
}

type Attribute struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	ValueName   string           `json:"value_name"`
	ValueStruct *struct {
		Number float64 `json:"number"`
		Unit   string  `json:"unit"`
	} `json:"value_struct"`
	Values []AttributeValue `json:"values"`
}

type Description struct {
	PlainText string `json:"plain_text"`
}

// ItemDetail is the extended view fetched from /item/{id} when a single item
// is opened.
type ItemDetail struct {
	Item
	Pictures    []Picture    `json:"pictures"`
	Attributes  []Attribute  `json:"attributes"`
	Description *Description `json:"description"`
}

// Page is one slice of an item set together with the total the backend
// reported for the whole set.
type Page struct {
	Items []Item
	Total int
}

// ID is an identifier the backend may encode as a JSON number or string.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Search sort keys accepted by the backend.
const (
	SortRelevance = "relevance"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

// SortOrders lists the sort keys in display order.
var SortOrders = []string{SortRelevance, SortPriceAsc, SortPriceDesc}
