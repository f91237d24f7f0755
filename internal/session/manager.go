package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ledgerdash/internal/apiclient"
	"ledgerdash/internal/cache"
	"ledgerdash/internal/log"
	"ledgerdash/internal/storage"
)

type ManagerConfig struct {
	// IdleTTL evicts in-memory sessions unused for this long. Persisted
	// values survive eviction and are rehydrated on the next request.
	IdleTTL        time.Duration
	MaxSessions    int
	RefreshTimeout time.Duration
	// TouchInterval is how often a signed-in session that is only read
	// refreshes its persisted timestamp, keeping it clear of PurgeIdle.
	TouchInterval time.Duration
	Now           func() time.Time
}

// Manager maps session cookies to live sessions.
type Manager struct {
	store    storage.Store
	api      *apiclient.Client
	logger   *log.Logger
	cfg      ManagerConfig
	sessions *cache.LRUCache[*Session]
}

func NewManager(store storage.Store, api *apiclient.Client, logger *log.Logger, cfg ManagerConfig) *Manager {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1000
	}
	if cfg.TouchInterval <= 0 {
		cfg.TouchInterval = time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	m := &Manager{
		store:    store,
		api:      api,
		logger:   logger,
		cfg:      cfg,
		sessions: cache.NewLRUCache[*Session](cfg.MaxSessions, cfg.IdleTTL),
	}
	m.sessions.OnEvict(func(id string, _ *Session) {
		m.logger.WithComponent(log.ComponentSession).Debug("Session evicted from memory", log.FieldSessionID, shortID(id))
	})
	return m
}

// NewID returns a fresh session id.
func (m *Manager) NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id has the shape NewID produces.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// Get returns the initialised session for id, rehydrating it from storage
// when it is not in memory.
func (m *Manager) Get(ctx context.Context, id string) *Session {
	sess, _ := m.sessions.GetOrCreate(id, func() *Session {
		return New(id, m.store, m.api, m.logger, Config{RefreshTimeout: m.cfg.RefreshTimeout})
	})
	sess.Initialize(ctx)
	m.keepAlive(ctx, sess)
	return sess
}

// keepAlive bumps the persisted timestamp of a signed-in session at most
// once per TouchInterval.
func (m *Manager) keepAlive(ctx context.Context, sess *Session) {
	if !sess.State().LoggedIn() || !sess.markTouched(m.cfg.Now(), m.cfg.TouchInterval) {
		return
	}
	if err := m.store.Touch(ctx, sess.ID()); err != nil {
		m.logger.WithComponent(log.ComponentStorage).WarnContext(ctx, "Failed to touch session",
			log.FieldSessionID, shortID(sess.ID()), log.FieldError, err.Error())
	}
}

// Login signs in on a freshly issued session id and retires current, so an
// id known before login never carries the authenticated session. On failure
// the fresh session is dropped and current is left as it was.
func (m *Manager) Login(ctx context.Context, current *Session, email, password string) (*Session, bool) {
	fresh := m.Get(ctx, m.NewID())
	if !fresh.Login(ctx, email, password) {
		m.Forget(fresh.ID())
		return nil, false
	}
	if current != nil {
		current.Logout(ctx)
		m.Forget(current.ID())
	}
	return fresh, true
}

// Forget drops the in-memory session for id.
func (m *Manager) Forget(id string) {
	m.sessions.Delete(id)
}

// Active returns the number of sessions held in memory.
func (m *Manager) Active() int {
	return m.sessions.Size()
}

// Cleaner exposes expiry of idle in-memory sessions to a cache.Manager.
func (m *Manager) Cleaner() cache.Cleaner {
	return m.sessions
}

// PurgeIdle drops persisted sessions idle for longer than maxIdle.
func (m *Manager) PurgeIdle(ctx context.Context, maxIdle time.Duration) int {
	n, err := m.store.PurgeIdle(ctx, m.cfg.Now().Add(-maxIdle))
	if err != nil {
		m.logger.WithComponent(log.ComponentStorage).WarnContext(ctx, "Failed to purge idle sessions", log.FieldError, err.Error())
		return 0
	}
	return int(n)
}
