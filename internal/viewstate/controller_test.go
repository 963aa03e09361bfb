package viewstate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"sellerdash/internal/domain"
)

type call struct {
	endpoint      string
	query, sort   string
	offset, limit int
}

// fakeBackend serves a fixed catalog and search result set. Hooks override
// individual endpoints.
type fakeBackend struct {
	mu    sync.Mutex
	calls []call

	mine    []domain.Item
	results []domain.Item

	status    domain.AuthStatus
	statusErr error
	user      *domain.User
	userErr   error
	authURL   string
	authErr   error
	logoutErr error

	myItemsHook func(offset, limit int) (*domain.Page, error)
	searchErr   error
	itemErr     error
}

func (f *fakeBackend) record(c call) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *fakeBackend) lastCall() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func (f *fakeBackend) Status(ctx context.Context) (domain.AuthStatus, error) {
	f.record(call{endpoint: "status"})
	return f.status, f.statusErr
}

func (f *fakeBackend) AuthURL(ctx context.Context) (string, error) {
	f.record(call{endpoint: "auth"})
	return f.authURL, f.authErr
}

func (f *fakeBackend) Logout(ctx context.Context) error {
	f.record(call{endpoint: "logout"})
	return f.logoutErr
}

func (f *fakeBackend) UserInfo(ctx context.Context) (*domain.User, error) {
	f.record(call{endpoint: "user-info"})
	return f.user, f.userErr
}

func (f *fakeBackend) MyItems(ctx context.Context, offset, limit int) (*domain.Page, error) {
	f.record(call{endpoint: "my-items", offset: offset, limit: limit})
	if f.myItemsHook != nil {
		return f.myItemsHook(offset, limit)
	}
	return slicePage(f.mine, offset, limit), nil
}

func (f *fakeBackend) Search(ctx context.Context, query, sort string, offset, limit int) (*domain.Page, error) {
	f.record(call{endpoint: "search", query: query, sort: sort, offset: offset, limit: limit})
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return slicePage(f.results, offset, limit), nil
}

func (f *fakeBackend) Item(ctx context.Context, id string) (*domain.ItemDetail, error) {
	f.record(call{endpoint: "item", query: id})
	if f.itemErr != nil {
		return nil, f.itemErr
	}
	return &domain.ItemDetail{Item: domain.Item{ID: id, Title: "detail " + id}}, nil
}

func slicePage(all []domain.Item, offset, limit int) *domain.Page {
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	out := []domain.Item{}
	if offset < len(all) {
		out = append(out, all[offset:end]...)
	}
	return &domain.Page{Items: out, Total: len(all)}
}

func catalog(n int, prefix string) []domain.Item {
	items := make([]domain.Item, n)
	for i := range items {
		status := domain.StatusActive
		if i%2 == 1 {
			status = domain.StatusPaused
		}
		items[i] = domain.Item{
			ID:                fmt.Sprintf("%s%d", prefix, i),
			Title:             fmt.Sprintf("item %d", i),
			Price:             10,
			AvailableQuantity: 2,
			SoldQuantity:      1,
			Status:            status,
		}
	}
	return items
}

func newBackend() *fakeBackend {
	return &fakeBackend{
		mine:    catalog(25, "MLB"),
		results: catalog(30, "SRC"),
		status:  domain.AuthStatus{Authenticated: true, UserID: "42"},
		user:    &domain.User{ID: "42", FirstName: "Ana", LastName: "Souza", Email: "ana@example.com"},
		authURL: "https://auth.example.com/login",
	}
}

func TestLoadListing_usesOffsetLimitAndShowsStats(t *testing.T) {
	b := newBackend()
	c := New(b)

	require.NoError(t, c.LoadListing(context.Background(), 1))

	assert.Equal(t, call{endpoint: "my-items", offset: 12, limit: 12}, b.lastCall())
	s := c.Snapshot()
	assert.Equal(t, ModeListing, s.Mode)
	assert.Equal(t, "", s.Query)
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, 25, s.TotalCount)
	assert.Len(t, s.Items, 12)
	assert.True(t, s.StatsVisible)
	assert.True(t, s.Loaded)
	assert.False(t, s.Loading)
	assert.Equal(t, Stats{Count: 12, Active: 6, Sold: 12, Value: 240}, s.Stats)
}

func TestLoadListing_failureKeepsPriorItems(t *testing.T) {
	b := newBackend()
	c := New(b)
	require.NoError(t, c.LoadListing(context.Background(), 0))
	before := c.Snapshot()

	b.myItemsHook = func(offset, limit int) (*domain.Page, error) {
		return nil, errors.New("boom")
	}
	err := c.LoadListing(context.Background(), 1)
	require.Error(t, err)

	after := c.Snapshot()
	assert.Equal(t, before.Items, after.Items)
	assert.Equal(t, before.TotalCount, after.TotalCount)
	assert.Equal(t, 0, after.Page)
	assert.True(t, after.StatsVisible)
	assert.Equal(t, "Erro ao carregar produtos: boom", after.Alert)
	assert.False(t, after.Loading, "loading must be released on failure")
}

func TestSearch_hidesStatsAndStoresQuery(t *testing.T) {
	b := newBackend()
	c := New(b)
	require.NoError(t, c.LoadListing(context.Background(), 0))

	require.NoError(t, c.Search(context.Background(), "  caneca  ", "price_asc", 0))

	assert.Equal(t, call{endpoint: "search", query: "caneca", sort: "price_asc", offset: 0, limit: 12}, b.lastCall())
	s := c.Snapshot()
	assert.Equal(t, ModeSearch, s.Mode)
	assert.Equal(t, "caneca", s.Query)
	assert.Equal(t, "price_asc", s.SortOrder)
	assert.Equal(t, 30, s.TotalCount)
	assert.False(t, s.StatsVisible)
	assert.Equal(t, Stats{}, s.Stats)
}

func TestSearch_blankQueryIsListing(t *testing.T) {
	b1, b2 := newBackend(), newBackend()
	viaSearch, viaListing := New(b1), New(b2)

	require.NoError(t, viaSearch.Search(context.Background(), "   ", "price_desc", 2))
	require.NoError(t, viaListing.LoadListing(context.Background(), 2))

	assert.Equal(t, b2.lastCall(), b1.lastCall())
	a, b := viaSearch.Snapshot(), viaListing.Snapshot()
	assert.Equal(t, b.Mode, a.Mode)
	assert.Equal(t, b.Query, a.Query)
	assert.Equal(t, b.Page, a.Page)
	assert.Equal(t, b.TotalCount, a.TotalCount)
	assert.Equal(t, b.Items, a.Items)
	assert.Equal(t, b.Stats, a.Stats)
	assert.Equal(t, b.StatsVisible, a.StatsVisible)
}

func TestSearch_failureKeepsListingMode(t *testing.T) {
	b := newBackend()
	c := New(b)
	require.NoError(t, c.LoadListing(context.Background(), 0))

	b.searchErr = errors.New("timeout")
	require.Error(t, c.Search(context.Background(), "caneca", "relevance", 0))

	s := c.Snapshot()
	assert.Equal(t, ModeListing, s.Mode, "mode and query are committed only on success")
	assert.Equal(t, "", s.Query)
	assert.True(t, s.StatsVisible)
	assert.Equal(t, "Erro na busca: timeout", s.Alert)
}

func TestChangePage_replaysCurrentMode(t *testing.T) {
	b := newBackend()
	c := New(b)

	require.NoError(t, c.Search(context.Background(), "caneca", "price_desc", 0))
	require.NoError(t, c.ChangePage(context.Background(), 2))
	assert.Equal(t, call{endpoint: "search", query: "caneca", sort: "price_desc", offset: 24, limit: 12}, b.lastCall())

	require.NoError(t, c.LoadListing(context.Background(), 0))
	require.NoError(t, c.ChangePage(context.Background(), 1))
	assert.Equal(t, call{endpoint: "my-items", offset: 12, limit: 12}, b.lastCall())
}

func TestChangePage_isIdempotent(t *testing.T) {
	b := newBackend()
	c := New(b)
	require.NoError(t, c.LoadListing(context.Background(), 0))

	for page := 0; page*DefaultPageSize < 25; page++ {
		require.NoError(t, c.ChangePage(context.Background(), page))
		first := c.Snapshot()
		require.NoError(t, c.ChangePage(context.Background(), page))
		second := c.Snapshot()
		assert.Equal(t, first.Items, second.Items, "page %d", page)
		assert.Equal(t, first.TotalCount, second.TotalCount, "page %d", page)
	}
}

func TestChangePage_clampsToKnownRange(t *testing.T) {
	b := newBackend()
	c := New(b)
	require.NoError(t, c.LoadListing(context.Background(), 0))

	require.NoError(t, c.ChangePage(context.Background(), 99))
	assert.Equal(t, 2, c.Snapshot().Page)

	require.NoError(t, c.ChangePage(context.Background(), -3))
	assert.Equal(t, 0, c.Snapshot().Page)
}

func TestLoadListing_pastLastPageRefetchesLastPage(t *testing.T) {
	b := newBackend()
	c := New(b)

	require.NoError(t, c.LoadListing(context.Background(), 50))
	s := c.Snapshot()
	assert.Equal(t, 2, s.Page)
	assert.Equal(t, 25, s.TotalCount)
	require.Len(t, s.Items, 1)
	assert.Equal(t, "MLB24", s.Items[0].ID)
	assert.Less(t, s.Page*s.PageSize, s.TotalCount)
	assert.Equal(t, 24, b.lastCall().offset)
}

func TestSearch_pastLastPageRefetchesLastPage(t *testing.T) {
	b := newBackend()
	c := New(b)

	require.NoError(t, c.Search(context.Background(), "x", domain.SortPriceAsc, 9))
	s := c.Snapshot()
	assert.Equal(t, 2, s.Page)
	assert.Equal(t, 30, s.TotalCount)
	assert.Len(t, s.Items, 6)
	assert.Equal(t, ModeSearch, s.Mode)
	last := b.lastCall()
	assert.Equal(t, "search", last.endpoint)
	assert.Equal(t, 24, last.offset)
	assert.Equal(t, domain.SortPriceAsc, last.sort)
}

func TestRestore_pageBeyondShrunkCatalog(t *testing.T) {
	b := newBackend()
	c := New(b)
	c.Restore(Persisted{UserID: "42", Mode: ModeListing, Page: 40})

	require.NoError(t, c.ChangePage(context.Background(), c.Snapshot().Page))
	s := c.Snapshot()
	assert.Equal(t, 2, s.Page)
	assert.Less(t, s.Page*s.PageSize, s.TotalCount)
}

func TestLoad_setShrinkingUnderRetryStaysInRange(t *testing.T) {
	b := newBackend()
	totals := []int{25, 5}
	b.myItemsHook = func(offset, limit int) (*domain.Page, error) {
		total := totals[0]
		if len(totals) > 1 {
			totals = totals[1:]
		}
		return &domain.Page{Items: []domain.Item{}, Total: total}, nil
	}
	c := New(b)

	require.NoError(t, c.LoadListing(context.Background(), 10))
	s := c.Snapshot()
	assert.Equal(t, 0, s.Page)
	assert.Equal(t, 5, s.TotalCount)
}

func TestLoad_emptySetResetsPage(t *testing.T) {
	b := newBackend()
	b.mine = nil
	c := New(b)

	require.NoError(t, c.LoadListing(context.Background(), 4))
	s := c.Snapshot()
	assert.Equal(t, 0, s.Page)
	assert.Empty(t, s.Items)
}

func TestModeTransition_statsPanel(t *testing.T) {
	b := newBackend()
	c := New(b)

	require.NoError(t, c.LoadListing(context.Background(), 0))
	assert.True(t, c.Snapshot().StatsVisible)
	require.NoError(t, c.Search(context.Background(), "caneca", "relevance", 0))
	assert.False(t, c.Snapshot().StatsVisible)
	require.NoError(t, c.LoadListing(context.Background(), 0))
	s := c.Snapshot()
	assert.True(t, s.StatsVisible)
	assert.Equal(t, ComputeStats(s.Items), s.Stats)
}

func TestLoad_itemsCappedAtPageSize(t *testing.T) {
	b := newBackend()
	b.myItemsHook = func(offset, limit int) (*domain.Page, error) {
		return &domain.Page{Items: catalog(20, "X"), Total: 20}, nil
	}
	c := New(b, WithPageSize(5))
	require.NoError(t, c.LoadListing(context.Background(), 0))
	assert.Len(t, c.Snapshot().Items, 5)
}

func TestLoad_staleResponseIsDiscarded(t *testing.T) {
	b := newBackend()
	release := make(chan struct{})
	started := make(chan struct{})
	b.myItemsHook = func(offset, limit int) (*domain.Page, error) {
		if offset == 0 {
			close(started)
			<-release
			return &domain.Page{Items: catalog(1, "OLD"), Total: 1}, nil
		}
		return &domain.Page{Items: catalog(2, "NEW"), Total: 14}, nil
	}
	c := New(b)

	errc := make(chan error, 1)
	go func() { errc <- c.LoadListing(context.Background(), 0) }()
	<-started

	require.NoError(t, c.LoadListing(context.Background(), 1))
	close(release)
	assert.ErrorIs(t, <-errc, ErrSuperseded)

	s := c.Snapshot()
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, 14, s.TotalCount)
	assert.Equal(t, "NEW0", s.Items[0].ID)
	assert.False(t, s.Loading)
}

func TestLogout_clearsStateEvenWhenBackendFails(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	b := newBackend()
	b.logoutErr = errors.New("connection reset")
	c := New(b, WithLogger(zap.New(core)))

	require.NoError(t, c.CheckStatus(context.Background()))
	require.NoError(t, c.Search(context.Background(), "caneca", "relevance", 1))

	c.Logout(context.Background())

	s := c.Snapshot()
	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Items)
	assert.Equal(t, ModeListing, s.Mode)
	assert.Equal(t, "", s.Query)
	assert.Equal(t, "", s.Alert, "logout failures are not surfaced")
	assert.Equal(t, 1, logs.FilterMessage("logout failed").Len())
}

func TestExpire_dropsUserAndFencesInflight(t *testing.T) {
	b := newBackend()
	c := New(b)
	require.NoError(t, c.CheckStatus(context.Background()))
	require.NoError(t, c.LoadListing(context.Background(), 1))

	c.Expire()
	s := c.Snapshot()
	assert.False(t, s.Authenticated())
	assert.False(t, s.Loaded)
	assert.Empty(t, s.Items)
	assert.Equal(t, alertExpired, s.Alert)
	assert.Equal(t, 0, s.Page)
}

func TestAuthenticate(t *testing.T) {
	b := newBackend()
	c := New(b)

	target, err := c.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://auth.example.com/login", target)
	assert.False(t, c.Snapshot().Loading)

	b.authErr = errors.New("URL de autenticação não recebida")
	_, err = c.Authenticate(context.Background())
	require.Error(t, err)
	s := c.Snapshot()
	assert.False(t, s.Authenticated())
	assert.Equal(t, "Erro ao iniciar autenticação: URL de autenticação não recebida", s.Alert)
	assert.False(t, s.Loading)
}

func TestCheckStatus(t *testing.T) {
	b := newBackend()
	c := New(b)

	require.NoError(t, c.CheckStatus(context.Background()))
	s := c.Snapshot()
	require.True(t, s.Authenticated())
	assert.Equal(t, "Ana", s.User.FirstName)
	assert.Equal(t, domain.ID("42"), s.User.ID)

	b.status = domain.AuthStatus{Authenticated: false}
	require.NoError(t, c.CheckStatus(context.Background()))
	assert.False(t, c.Snapshot().Authenticated())
}

func TestCheckStatus_otherUserResetsView(t *testing.T) {
	b := newBackend()
	c := New(b)
	c.Restore(Persisted{UserID: "7", Mode: ModeSearch, Query: "caneca", Page: 2})

	require.NoError(t, c.CheckStatus(context.Background()))

	s := c.Snapshot()
	assert.Equal(t, domain.ID("42"), s.User.ID)
	assert.Equal(t, ModeListing, s.Mode)
	assert.Equal(t, 0, s.Page)
}

func TestCheckStatus_userInfoFailureSurfaces(t *testing.T) {
	b := newBackend()
	b.userErr = errors.New("rate limited")
	c := New(b)

	require.Error(t, c.CheckStatus(context.Background()))
	s := c.Snapshot()
	assert.True(t, s.Authenticated(), "status succeeded so the user id is kept")
	assert.Equal(t, "Erro ao carregar informações do usuário: rate limited", s.Alert)
}

func TestOpenItem_doesNotTouchItemSet(t *testing.T) {
	b := newBackend()
	c := New(b)
	require.NoError(t, c.Search(context.Background(), "caneca", "relevance", 1))
	before := c.Snapshot()

	it, err := c.OpenItem(context.Background(), "MLB3")
	require.NoError(t, err)
	assert.Equal(t, "MLB3", it.ID)

	after := c.Snapshot()
	assert.Equal(t, before, after)
}

func TestRestore_searchWithoutQueryFallsBackToListing(t *testing.T) {
	c := New(newBackend())
	c.Restore(Persisted{UserID: "42", Mode: ModeSearch, Query: "  ", SortOrder: "price_asc", Page: 3})

	p := c.Persisted()
	assert.Equal(t, Persisted{UserID: "42", Mode: ModeListing, SortOrder: "price_asc", Page: 3}, p)
}

func TestSession_TotalPages(t *testing.T) {
	assert.Equal(t, 3, Session{TotalCount: 25, PageSize: 12}.TotalPages())
	assert.Equal(t, 2, Session{TotalCount: 24, PageSize: 12}.TotalPages())
	assert.Equal(t, 0, Session{TotalCount: 0, PageSize: 12}.TotalPages())
}
