package services

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"sellerdash/internal/metrics"
	"sellerdash/internal/repos"
	"sellerdash/internal/viewstate"
)

// BackendFactory builds the backend client for one session. The jar holds
// that session's backend cookies.
type BackendFactory func(jar http.CookieJar) viewstate.Backend

type SessionConfig struct {
	// BackendURL is the origin forwarded cookies are scoped to.
	BackendURL string
	PageSize   int
	// Idle is how long an untouched session stays in memory.
	Idle time.Duration
	// Retention is how long a stored view-state row is kept.
	Retention time.Duration
	Logger    *zap.Logger
}

type liveSession struct {
	ctrl     *viewstate.Controller
	jar      http.CookieJar
	lastSeen time.Time
}

// SessionService owns one view-state controller per browser session.
type SessionService struct {
	repo       *repos.SessionRepo
	newBackend BackendFactory
	backendURL *url.URL
	pageSize   int
	idle       time.Duration
	retention  time.Duration
	logger     *zap.Logger
	now        func() time.Time

	mu   sync.Mutex
	live map[string]*liveSession
}

func NewSessionService(repo *repos.SessionRepo, factory BackendFactory, cfg SessionConfig) (*SessionService, error) {
	u, err := url.Parse(cfg.BackendURL)
	if err != nil {
		return nil, err
	}
	s := &SessionService{
		repo:       repo,
		newBackend: factory,
		backendURL: u,
		pageSize:   cfg.PageSize,
		idle:       cfg.Idle,
		retention:  cfg.Retention,
		logger:     cfg.Logger,
		now:        time.Now,
		live:       map[string]*liveSession{},
	}
	if s.pageSize <= 0 {
		s.pageSize = viewstate.DefaultPageSize
	}
	if s.idle <= 0 {
		s.idle = 30 * time.Minute
	}
	if s.retention <= 0 {
		s.retention = 30 * 24 * time.Hour
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s, nil
}

// Open returns the controller for sid, creating it (and restoring any
// stored view-state) on first use.
func (s *SessionService) Open(sid string) *viewstate.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ls, ok := s.live[sid]; ok {
		ls.lastSeen = s.now()
		return ls.ctrl
	}

	// cookiejar.New only fails on a bad PublicSuffixList
	jar, _ := cookiejar.New(nil)
	ctrl := viewstate.New(s.newBackend(jar),
		viewstate.WithPageSize(s.pageSize),
		viewstate.WithLogger(s.logger.With(zap.String("sid", sid))),
	)
	if row, err := s.repo.Get(sid); err != nil {
		s.logger.Warn("view-state restore failed", zap.String("sid", sid), zap.Error(err))
	} else if row != nil {
		ctrl.Restore(viewstate.Persisted{
			UserID:    row.UserID,
			Mode:      viewstate.ParseMode(row.Mode),
			Query:     row.Query,
			SortOrder: row.SortOrder,
			Page:      row.Page,
		})
	}
	s.live[sid] = &liveSession{ctrl: ctrl, jar: jar, lastSeen: s.now()}
	metrics.SetLiveSessions(len(s.live))
	return ctrl
}

// ForwardCookies copies browser cookies into the session's backend jar.
func (s *SessionService) ForwardCookies(sid string, cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	s.mu.Lock()
	ls, ok := s.live[sid]
	s.mu.Unlock()
	if !ok {
		return
	}
	ls.jar.SetCookies(s.backendURL, cookies)
}

// Persist stores the durable part of the session's state.
func (s *SessionService) Persist(sid string) error {
	s.mu.Lock()
	ls, ok := s.live[sid]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.save(sid, ls.ctrl)
}

func (s *SessionService) save(sid string, ctrl *viewstate.Controller) error {
	p := ctrl.Persisted()
	return s.repo.Save(repos.ViewSession{
		ID:        sid,
		UserID:    p.UserID,
		Mode:      p.Mode.String(),
		Query:     p.Query,
		SortOrder: p.SortOrder,
		Page:      p.Page,
	})
}

// PersistAll stores every in-memory session and reports how many were
// saved.
func (s *SessionService) PersistAll() int {
	s.mu.Lock()
	live := make(map[string]*viewstate.Controller, len(s.live))
	for sid, ls := range s.live {
		live[sid] = ls.ctrl
	}
	s.mu.Unlock()

	saved := 0
	for sid, ctrl := range live {
		if err := s.save(sid, ctrl); err != nil {
			s.logger.Warn("view-state persist failed", zap.String("sid", sid), zap.Error(err))
			continue
		}
		saved++
	}
	return saved
}

// Forget drops the session from memory and storage.
func (s *SessionService) Forget(sid string) error {
	s.mu.Lock()
	delete(s.live, sid)
	metrics.SetLiveSessions(len(s.live))
	s.mu.Unlock()
	return s.repo.Delete(sid)
}

// Len reports the number of sessions held in memory.
func (s *SessionService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Sweep evicts idle sessions after persisting them and purges stored rows
// past retention. It returns the number of evicted sessions.
func (s *SessionService) Sweep() int {
	now := s.now()

	s.mu.Lock()
	evicted := map[string]*viewstate.Controller{}
	for sid, ls := range s.live {
		if now.Sub(ls.lastSeen) > s.idle {
			evicted[sid] = ls.ctrl
			delete(s.live, sid)
		}
	}
	metrics.SetLiveSessions(len(s.live))
	s.mu.Unlock()

	for sid, ctrl := range evicted {
		if err := s.save(sid, ctrl); err != nil {
			s.logger.Warn("view-state persist failed", zap.String("sid", sid), zap.Error(err))
		}
	}
	if n, err := s.repo.PurgeBefore(now.Add(-s.retention)); err != nil {
		s.logger.Warn("view-state purge failed", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("view-state purged", zap.Int64("rows", n))
	}
	if len(evicted) > 0 {
		s.logger.Debug("sessions swept", zap.Int("evicted", len(evicted)))
	}
	return len(evicted)
}

// Run sweeps every interval until ctx is done.
func (s *SessionService) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep()
		}
	}
}
