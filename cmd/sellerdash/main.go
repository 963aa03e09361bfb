package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"go.uber.org/zap"

	"sellerdash/internal/config"
	"sellerdash/internal/http/handlers"
	applog "sellerdash/internal/log"
	"sellerdash/internal/metrics"
	"sellerdash/internal/mlapi"
	"sellerdash/internal/render"
	"sellerdash/internal/repos"
	"sellerdash/internal/services"
	"sellerdash/internal/viewstate"
)

func main() {
	configPath := flag.String("config", "", "optional config file (yaml, json or toml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	zl, err := applog.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		zl, err = applog.New(cfg.LogLevel, "")
		if err != nil {
			log.Fatal(err)
		}
	}
	defer func() { _ = zl.Sync() }()
	applog.SetLogger(zl)

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		zl.Fatal("open db", zap.Error(err))
	}
	defer db.Close()

	sessions, err := services.NewSessionService(repos.NewSessionRepo(db),
		func(jar http.CookieJar) viewstate.Backend {
			return mlapi.New(mlapi.Config{BaseURL: cfg.BackendURL, Timeout: cfg.BackendTimeout, Jar: jar})
		},
		services.SessionConfig{
			BackendURL: cfg.BackendURL,
			PageSize:   cfg.PageSize,
			Idle:       cfg.SessionIdle,
			Logger:     zl.Named("viewstate"),
		})
	if err != nil {
		zl.Fatal("session service", zap.Error(err))
	}

	// Templates & app
	engine := html.New(cfg.TemplatesDir, ".html")

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: handlers.ErrorHandler,
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := string(c.Request().URI().Path())
			return strings.HasPrefix(p, "/static/") || p == "/metrics" || p == "/healthz"
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ErrorHandler:   handlers.CSRFError,
	}))
	app.Use(handlers.CSRFLocals())

	// ---------- Static & ops ----------
	log.Printf("[static] /static -> %s", cfg.StaticDir)
	app.Static("/static", cfg.StaticDir)
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// ---------- Dashboard ----------
	app.Use(handlers.Session(sessions, cfg.ForwardCookies))
	handlers.NewDeps(sessions, render.New(cfg.Location())).Mount(app)

	// 404
	app.Use(handlers.NotFound)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go sessions.Run(ctx, time.Minute)
	go func() {
		<-ctx.Done()
		zl.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			zl.Warn("shutdown", zap.Error(err))
		}
	}()

	zl.Info("listening", zap.String("port", cfg.Port), zap.String("backend", cfg.BackendURL))
	if err := app.Listen(":" + cfg.Port); err != nil {
		zl.Error("listen", zap.Error(err))
	}
	// Persist what is still in memory so a restart resumes where users were
	if n := sessions.PersistAll(); n > 0 {
		zl.Info("view-state persisted", zap.Int("sessions", n))
	}
}
