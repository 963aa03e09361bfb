package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	_ "time/tzdata" // zone data for minimal images

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port     string
	DBDSN    string
	LogFile  string
	LogLevel string

	BackendURL     string
	BackendTimeout time.Duration
	// ForwardCookies names browser cookies copied into the backend cookie jar.
	ForwardCookies []string

	PageSize     int
	TimeZone     string
	SessionIdle  time.Duration
	TemplatesDir string
	StaticDir    string
}

func defaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db_dsn", "sellerdash.db") // sqlite file in project root
	v.SetDefault("log_file", "./sellerdash.log")
	v.SetDefault("log_level", "info")
	v.SetDefault("backend_url", "http://localhost:5000/api/ml")
	v.SetDefault("backend_timeout", "15s")
	v.SetDefault("forward_cookies", []string{"session"})
	v.SetDefault("page_size", 12)
	v.SetDefault("timezone", "America/Sao_Paulo")
	v.SetDefault("session_idle", "30m")
	v.SetDefault("templates_dir", "./web/templates")
	v.SetDefault("static_dir", "./web/static")
}

// Load reads .env (if present), an optional config file at path and the
// environment, in increasing precedence.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Printf("[config] loaded .env")
	}

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
	}
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:           v.GetString("port"),
		DBDSN:          v.GetString("db_dsn"),
		LogFile:        v.GetString("log_file"),
		LogLevel:       v.GetString("log_level"),
		BackendURL:     strings.TrimRight(v.GetString("backend_url"), "/"),
		BackendTimeout: v.GetDuration("backend_timeout"),
		ForwardCookies: splitList(v.GetStringSlice("forward_cookies")),
		PageSize:       v.GetInt("page_size"),
		TimeZone:       v.GetString("timezone"),
		SessionIdle:    v.GetDuration("session_idle"),
		TemplatesDir:   v.GetString("templates_dir"),
		StaticDir:      v.GetString("static_dir"),
	}
	if cfg.BackendURL == "" {
		return Config{}, errors.New("backend_url must be set")
	}
	if cfg.PageSize <= 0 {
		return Config{}, fmt.Errorf("page_size must be positive, got %d", cfg.PageSize)
	}
	if _, err := time.LoadLocation(cfg.TimeZone); err != nil {
		return Config{}, fmt.Errorf("timezone %q: %w", cfg.TimeZone, err)
	}
	log.Printf("[config] PORT=%s DB_DSN=%s BACKEND_URL=%s PAGE_SIZE=%d LOG_FILE=%s",
		cfg.Port, cfg.DBDSN, cfg.BackendURL, cfg.PageSize, cfg.LogFile)
	return cfg, nil
}

// Location returns the configured display time zone.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// env values arrive as one comma separated string
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
