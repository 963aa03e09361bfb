// Package mlapi is the HTTP client for the marketplace backend the dashboard
// talks to. The backend is a black box; this package only knows its routes
// and JSON shapes.
package mlapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sellerdash/internal/domain"
	"sellerdash/internal/metrics"
)

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Jar carries the backend session cookie. Each dashboard session gets
	// its own jar.
	Jar http.CookieJar
}

// Client calls the backend routes. It holds no view state.
type Client struct {
	client  *http.Client
	baseURL string
}

// New creates a client from cfg.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return newClient(&http.Client{Timeout: cfg.Timeout, Jar: cfg.Jar}, cfg.BaseURL)
}

// newClient lets tests inject an http.Client and an httptest base URL.
func newClient(client *http.Client, baseURL string) *Client {
	return &Client{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type authURLResponse struct {
	AuthURL string `json:"auth_url"`
}

type myItemsResponse struct {
	Items []domain.Item `json:"items"`
	Total int           `json:"total"`
}

type searchResponse struct {
	Results []domain.Item `json:"results"`
	Paging  struct {
		Total  int `json:"total"`
		Offset int `json:"offset"`
		Limit  int `json:"limit"`
	} `json:"paging"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Status performs the session check.
func (c *Client) Status(ctx context.Context) (domain.AuthStatus, error) {
	var out domain.AuthStatus
	err := c.do(ctx, http.MethodGet, "status", "/status", nil, &out)
	return out, err
}

// AuthURL obtains the external login redirect target.
func (c *Client) AuthURL(ctx context.Context) (string, error) {
	var out authURLResponse
	if err := c.do(ctx, http.MethodGet, "auth", "/auth", nil, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.AuthURL) == "" {
		return "", ErrMissingRedirect
	}
	return out.AuthURL, nil
}

// Logout ends the backend session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "logout", "/logout", nil, nil)
}

// UserInfo returns the authenticated user's profile.
func (c *Client) UserInfo(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.do(ctx, http.MethodGet, "user-info", "/user-info", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// MyItems returns one page of the user's own listings.
func (c *Client) MyItems(ctx context.Context, offset, limit int) (*domain.Page, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	var out myItemsResponse
	if err := c.do(ctx, http.MethodGet, "my-items", "/my-items", q, &out); err != nil {
		return nil, err
	}
	return &domain.Page{Items: nonNil(out.Items), Total: out.Total}, nil
}

// Search returns one page of marketplace search results.
func (c *Client) Search(ctx context.Context, query, sort string, offset, limit int) (*domain.Page, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("sort", sort)
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	var out searchResponse
	if err := c.do(ctx, http.MethodGet, "search", "/search", q, &out); err != nil {
		return nil, err
	}
	return &domain.Page{Items: nonNil(out.Results), Total: out.Paging.Total}, nil
}

// Item returns the extended detail of a single item.
func (c *Client) Item(ctx context.Context, id string) (*domain.ItemDetail, error) {
	var out domain.ItemDetail
	if err := c.do(ctx, http.MethodGet, "item", "/item/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends one request and decodes a 2xx JSON body into out (when non-nil).
// A single attempt is made.
func (c *Client) do(ctx context.Context, method, endpoint, path string, query url.Values, out any) error {
	start := time.Now()
	outcome := metrics.OutcomeOK
	defer func() { metrics.ObserveBackend(endpoint, outcome, time.Since(start)) }()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		outcome = metrics.OutcomeNetwork
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		outcome = metrics.OutcomeNetwork
		return &NetworkError{Endpoint: endpoint, Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		outcome = metrics.OutcomeNetwork
		return &NetworkError{Endpoint: endpoint, Err: err}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		outcome = metrics.OutcomeAPIError
		apiErr := &APIError{Endpoint: endpoint, Status: res.StatusCode}
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil {
			apiErr.Message = eb.Error
		}
		return apiErr
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		outcome = metrics.OutcomeDecode
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

func nonNil(items []domain.Item) []domain.Item {
	if items == nil {
		return []domain.Item{}
	}
	return items
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
