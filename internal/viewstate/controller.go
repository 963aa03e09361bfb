package viewstate

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"sellerdash/internal/domain"
	"sellerdash/internal/metrics"
)

// ErrSuperseded is returned when a fetch completed after a newer one was
// dispatched; its result was discarded.
var ErrSuperseded = errors.New("viewstate: response superseded by a newer request")

// Alert prefixes shown to the user.
const (
	alertListing  = "Erro ao carregar produtos: "
	alertSearch   = "Erro na busca: "
	alertAuth     = "Erro ao iniciar autenticação: "
	alertUserInfo = "Erro ao carregar informações do usuário: "
	alertExpired  = "Sua sessão expirou. Faça login novamente."
)

// Backend is the marketplace API as seen by the controller.
type Backend interface {
	Status(ctx context.Context) (domain.AuthStatus, error)
	AuthURL(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
	UserInfo(ctx context.Context) (*domain.User, error)
	MyItems(ctx context.Context, offset, limit int) (*domain.Page, error)
	Search(ctx context.Context, query, sort string, offset, limit int) (*domain.Page, error)
	Item(ctx context.Context, id string) (*domain.ItemDetail, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithPageSize overrides DefaultPageSize.
func WithPageSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithLogger sets the logger used for swallowed failures.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// Controller holds one session's view state. It is safe for concurrent use;
// backend calls run without the lock held and item-set responses are fenced
// by a sequence number so only the latest dispatched fetch is applied.
type Controller struct {
	backend  Backend
	logger   *zap.Logger
	pageSize int

	mu       sync.Mutex
	s        Session
	inflight int
	seq      uint64
}

// New creates a controller in the unauthenticated, listing state.
func New(backend Backend, opts ...Option) *Controller {
	c := &Controller{
		backend:  backend,
		logger:   zap.NewNop(),
		pageSize: DefaultPageSize,
	}
	for _, o := range opts {
		o(c)
	}
	c.s = Session{PageSize: c.pageSize}
	return c
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.s
	s.Loading = c.inflight > 0
	s.Items = append([]domain.Item(nil), c.s.Items...)
	if c.s.User != nil {
		u := *c.s.User
		s.User = &u
	}
	return s
}

// Persisted returns the durable part of the state.
func (c *Controller) Persisted() Persisted {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := Persisted{
		Mode:      c.s.Mode,
		Query:     c.s.Query,
		SortOrder: c.s.SortOrder,
		Page:      c.s.Page,
	}
	if c.s.User != nil {
		p.UserID = string(c.s.User.ID)
	}
	return p
}

// Restore seeds the state from a persisted record. Items are not restored;
// the next ChangePage replays the restored mode.
func (c *Controller) Restore(p Persisted) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Session{PageSize: c.pageSize, SortOrder: p.SortOrder}
	if p.UserID != "" {
		s.User = &domain.User{ID: domain.ID(p.UserID)}
	}
	if p.Page > 0 {
		s.Page = p.Page
	}
	if q := strings.TrimSpace(p.Query); p.Mode == ModeSearch && q != "" {
		s.Mode = ModeSearch
		s.Query = q
	}
	c.s = s
}

// DismissAlert clears the last surfaced error.
func (c *Controller) DismissAlert() {
	c.mu.Lock()
	c.s.Alert = ""
	c.mu.Unlock()
}

func (c *Controller) begin() {
	c.mu.Lock()
	c.inflight++
	c.mu.Unlock()
}

func (c *Controller) release() {
	c.mu.Lock()
	c.inflight--
	c.mu.Unlock()
}

// CheckStatus asks the backend whether the session is authenticated and,
// if so, loads the user profile. A different user than the one held resets
// the view.
func (c *Controller) CheckStatus(ctx context.Context) error {
	c.begin()
	defer c.release()

	st, err := c.backend.Status(ctx)
	if err != nil {
		c.logger.Warn("status check failed", zap.Error(err))
		c.mu.Lock()
		c.s.User = nil
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	if !st.Authenticated {
		c.s.User = nil
		c.mu.Unlock()
		return nil
	}
	if c.s.User != nil && c.s.User.ID != st.UserID {
		c.seq++
		c.s = Session{PageSize: c.pageSize}
	}
	if c.s.User == nil {
		c.s.User = &domain.User{ID: st.UserID}
	}
	c.mu.Unlock()

	u, err := c.backend.UserInfo(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Warn("user info failed", zap.Error(err))
		c.s.Alert = alertUserInfo + err.Error()
		return err
	}
	if c.s.User == nil || c.s.User.ID != st.UserID {
		// logged out or switched while the profile was loading
		return nil
	}
	profile := *u
	if profile.ID == "" {
		profile.ID = st.UserID
	}
	c.s.User = &profile
	return nil
}

// Authenticate returns the external login redirect target. No state
// changes except the loading flag and, on failure, the alert.
func (c *Controller) Authenticate(ctx context.Context) (string, error) {
	c.begin()
	defer c.release()

	target, err := c.backend.AuthURL(ctx)
	if err != nil {
		c.mu.Lock()
		c.s.User = nil
		c.s.Alert = alertAuth + err.Error()
		c.mu.Unlock()
		return "", err
	}
	return target, nil
}

// Logout asks the backend to end the session and then clears the local
// state whatever the outcome. Backend failures are logged only.
func (c *Controller) Logout(ctx context.Context) {
	c.begin()
	defer c.release()

	if err := c.backend.Logout(ctx); err != nil {
		c.logger.Warn("logout failed", zap.Error(err))
	}

	c.mu.Lock()
	c.seq++
	c.s = Session{PageSize: c.pageSize}
	c.mu.Unlock()
}

// Expire drops the local session after the backend stopped recognising
// it. Unlike Logout no backend call is made.
func (c *Controller) Expire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.s = Session{PageSize: c.pageSize, Alert: alertExpired}
}

// LoadListing shows page of the user's own items.
func (c *Controller) LoadListing(ctx context.Context, page int) error {
	return c.load(ctx, request{mode: ModeListing, page: page})
}

// Search shows page of the results for query. A blank query is the same
// as LoadListing(page).
func (c *Controller) Search(ctx context.Context, query, sort string, page int) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return c.LoadListing(ctx, page)
	}
	return c.load(ctx, request{mode: ModeSearch, query: query, sort: sort, page: page})
}

// ChangePage replays the current mode, query and sort with a new page.
// The page is clamped to the known page range.
func (c *Controller) ChangePage(ctx context.Context, page int) error {
	c.mu.Lock()
	req := request{mode: c.s.Mode, query: c.s.Query, sort: c.s.SortOrder, page: page}
	if last := c.s.TotalPages() - 1; c.s.Loaded && last >= 0 && req.page > last {
		req.page = last
	}
	c.mu.Unlock()

	if req.mode == ModeSearch {
		return c.Search(ctx, req.query, req.sort, req.page)
	}
	return c.LoadListing(ctx, req.page)
}

// OpenItem fetches the detail of a single item. It never touches the
// displayed item set.
func (c *Controller) OpenItem(ctx context.Context, id string) (*domain.ItemDetail, error) {
	c.begin()
	defer c.release()

	return c.backend.Item(ctx, id)
}

type request struct {
	mode  Mode
	query string
	sort  string
	page  int
	// refetch is set on the one retry made after a page past the end.
	refetch bool
}

// load fetches one item set and, if it is still the latest dispatched
// fetch, commits mode, query, sort, page, items and total together. A page
// past the end of a non-empty set is refetched once at the last page.
func (c *Controller) load(ctx context.Context, req request) error {
	if req.page < 0 {
		req.page = 0
	}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.inflight++
	c.mu.Unlock()
	defer c.release()

	offset := req.page * c.pageSize
	var (
		page *domain.Page
		err  error
	)
	if req.mode == ModeSearch {
		page, err = c.backend.Search(ctx, req.query, req.sort, offset, c.pageSize)
	} else {
		page, err = c.backend.MyItems(ctx, offset, c.pageSize)
	}

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		metrics.RecordStale(req.mode.String())
		c.logger.Debug("discarding superseded response",
			zap.String("mode", req.mode.String()),
			zap.Int("page", req.page),
			zap.Error(err),
		)
		return ErrSuperseded
	}
	if err != nil {
		if req.mode == ModeSearch {
			c.s.Alert = alertSearch + err.Error()
		} else {
			c.s.Alert = alertListing + err.Error()
		}
		c.mu.Unlock()
		return err
	}

	if last := lastPage(page.Total, c.pageSize); page.Total > 0 && req.page > last {
		if !req.refetch {
			c.mu.Unlock()
			c.logger.Debug("page past the end, refetching last page",
				zap.String("mode", req.mode.String()),
				zap.Int("page", req.page),
				zap.Int("last", last),
			)
			req.page = last
			req.refetch = true
			return c.load(ctx, req)
		}
		// the set shrank again under the retry; keep the page in range
		req.page = last
	}
	if page.Total <= 0 {
		req.page = 0
	}
	defer c.mu.Unlock()

	items := page.Items
	if len(items) > c.pageSize {
		items = items[:c.pageSize]
	}
	c.s.Mode = req.mode
	c.s.Page = req.page
	c.s.TotalCount = page.Total
	c.s.Items = items
	c.s.Loaded = true
	c.s.Alert = ""
	if req.mode == ModeSearch {
		c.s.Query = req.query
		c.s.SortOrder = req.sort
		c.s.Stats = Stats{}
		c.s.StatsVisible = false
	} else {
		c.s.Query = ""
		c.s.Stats = ComputeStats(items)
		c.s.StatsVisible = true
	}
	return nil
}

func lastPage(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total - 1) / pageSize
}
