package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"sellerdash/internal/http/handlers"
	applog "sellerdash/internal/log"
	"sellerdash/internal/mlapi"
	"sellerdash/internal/render"
	"sellerdash/internal/repos"
	"sellerdash/internal/services"
	"sellerdash/internal/viewstate"
)

// fakeBackend speaks the marketplace API. Requests carrying the cookie
// session=ok are authenticated.
type fakeBackend struct {
	mu    sync.Mutex
	calls []*url.URL

	myItemsTotal int
	searchTotal  int
	failItems    bool
	expired      bool
	failStatus   bool
	failItem     bool
	noAuthURL    bool
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls = append(f.calls, r.URL)
	f.mu.Unlock()

	authed := false
	if c, err := r.Cookie("session"); err == nil && c.Value == "ok" {
		authed = true
	}
	q := r.URL.Query()
	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	switch {
	case r.URL.Path == "/status" && f.failStatus:
		writeJSON(w, 503, map[string]any{"error": "status down"})
	case r.URL.Path == "/status":
		if authed {
			writeJSON(w, 200, map[string]any{"authenticated": true, "user_id": 7})
			return
		}
		writeJSON(w, 200, map[string]any{"authenticated": false})
	case r.URL.Path == "/auth":
		if f.noAuthURL {
			writeJSON(w, 200, map[string]any{})
			return
		}
		writeJSON(w, 200, map[string]any{"auth_url": "https://auth.example/login"})
	case r.URL.Path == "/logout" && r.Method == http.MethodPost:
		writeJSON(w, 200, map[string]any{"ok": true})
	case r.URL.Path == "/user-info":
		writeJSON(w, 200, map[string]any{"id": 7, "first_name": "Ana", "last_name": "Souza", "email": "ana@example.com"})
	case r.URL.Path == "/my-items":
		if f.expired {
			writeJSON(w, 401, map[string]any{"error": "unauthorized"})
			return
		}
		if f.failItems {
			writeJSON(w, 500, map[string]any{"error": "boom"})
			return
		}
		writeJSON(w, 200, map[string]any{"items": items("MLB", offset, limit, f.myItemsTotal), "total": f.myItemsTotal})
	case r.URL.Path == "/search":
		writeJSON(w, 200, map[string]any{
			"results": items("SRC", offset, limit, f.searchTotal),
			"paging":  map[string]any{"total": f.searchTotal},
		})
	case strings.HasPrefix(r.URL.Path, "/item/"):
		if f.failItem {
			writeJSON(w, 503, map[string]any{"error": "indisponível"})
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/item/")
		if id == "MLB404" {
			writeJSON(w, 404, map[string]any{"error": "not found"})
			return
		}
		writeJSON(w, 200, map[string]any{
			"id": id, "title": "Fone Bluetooth", "price": 1500.5, "status": "active", "condition": "new",
			"available_quantity": 3, "sold_quantity": 9,
			"date_created": "2024-01-15T10:30:00.000Z",
			"pictures":     []map[string]any{{"url": "https://img/0.jpg"}, {"url": "https://img/1.jpg"}},
			"attributes":   []map[string]any{{"name": "Marca", "value_name": "Acme"}},
			"description":  map[string]any{"plain_text": "linha 1\nlinha 2"},
		})
	default:
		writeJSON(w, 404, map[string]any{"error": "no route"})
	}
}

func (f *fakeBackend) last(path string) *url.URL {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Path == path {
			return f.calls[i]
		}
	}
	return nil
}

func items(prefix string, offset, limit, total int) []map[string]any {
	out := []map[string]any{}
	for i := offset; i < total && i < offset+limit; i++ {
		out = append(out, map[string]any{
			"id": fmt.Sprintf("%s%d", prefix, i+1), "title": fmt.Sprintf("Produto %d", i+1),
			"price": 100, "available_quantity": 2, "sold_quantity": 1, "status": "active", "condition": "new",
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type env struct {
	app     *fiber.App
	srv     *httptest.Server
	backend *fakeBackend
	db      *sqlx.DB
	logs    *observer.ObservedLogs
}

// newEnv builds the app the way main does. extra routes are mounted after
// the dashboard and before the catch-all.
func newEnv(t *testing.T, backend *fakeBackend, db *sqlx.DB, extra ...map[string]fiber.Handler) *env {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	if db == nil {
		var err error
		db, err = repos.OpenDB(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
	}

	core, logs := observer.New(zapcore.DebugLevel)
	prev := applog.L()
	applog.SetLogger(zap.New(core))
	t.Cleanup(func() { applog.SetLogger(prev) })

	sessions, err := services.NewSessionService(repos.NewSessionRepo(db),
		func(jar http.CookieJar) viewstate.Backend {
			return mlapi.New(mlapi.Config{BaseURL: srv.URL, Timeout: time.Second, Jar: jar})
		},
		services.SessionConfig{BackendURL: srv.URL, PageSize: 12})
	require.NoError(t, err)

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine, ErrorHandler: handlers.ErrorHandler})
	app.Use(requestid.New())
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		ErrorHandler:   handlers.CSRFError,
	}))
	app.Use(handlers.CSRFLocals())
	app.Use(handlers.Session(sessions, []string{"session"}))
	handlers.NewDeps(sessions, render.New(time.UTC)).Mount(app)
	for _, routes := range extra {
		for path, h := range routes {
			app.Get(path, h)
		}
	}
	app.Use(handlers.NotFound)

	return &env{app: app, srv: srv, backend: backend, db: db, logs: logs}
}

func (e *env) closeBackend() { e.srv.Close() }

// browser keeps cookies between requests like a real client.
type browser struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
}

func (e *env) browser(t *testing.T, loggedIn bool) *browser {
	b := &browser{t: t, app: e.app, cookies: map[string]string{}}
	if loggedIn {
		b.cookies["session"] = "ok"
	}
	return b
}

func (b *browser) do(req *http.Request) *http.Response {
	b.t.Helper()
	for name, v := range b.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: v})
	}
	resp, err := b.app.Test(req, 5000)
	require.NoError(b.t, err)
	for _, c := range resp.Cookies() {
		if c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c.Value
	}
	return resp
}

func (b *browser) get(path string) *http.Response {
	return b.do(httptest.NewRequest("GET", path, nil))
}

func (b *browser) post(path string, form url.Values) *http.Response {
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf", b.cookies["csrf_"])
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func doc(t *testing.T, resp *http.Response) *goquery.Document {
	t.Helper()
	defer resp.Body.Close()
	d, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return d
}

func text(d *goquery.Document, sel string) string {
	return strings.TrimSpace(d.Find(sel).First().Text())
}
