// Package session holds who is logged in and which company is active for
// one browser. A Session is created per session cookie by the Manager and
// passed explicitly to handlers; there is no package-level state.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ledgerdash/internal/apiclient"
	"ledgerdash/internal/core"
	"ledgerdash/internal/log"
	"ledgerdash/internal/storage"
)

// State is an immutable snapshot of a session.
type State struct {
	User            *core.User
	Companies       []core.Company
	SelectedCompany *core.Company
	Loading         bool
}

// LoggedIn reports whether a user is present.
func (s State) LoggedIn() bool { return s.User != nil }

// Company looks id up among the user's companies.
func (s State) Company(id int64) (core.Company, bool) {
	return core.FindCompany(s.Companies, id)
}

// SelectionValid reports whether the selected company is still one of the user's companies.
func (s State) SelectionValid() bool {
	if s.SelectedCompany == nil {
		return false
	}
	_, ok := s.Company(s.SelectedCompany.ID)
	return ok
}

type Config struct {
	// RefreshTimeout bounds the background company refresh started by Initialize.
	RefreshTimeout time.Duration
	Now            func() time.Time
}

type Session struct {
	id     string
	store  storage.Store
	api    *apiclient.Client
	logger *log.Logger
	cfg    Config

	initOnce  sync.Once
	ready     chan struct{}
	readyOnce sync.Once
	bg        sync.WaitGroup

	mu        sync.RWMutex
	user      *core.User
	companies []core.Company
	selected  *core.Company
	loading   bool
	views     map[string]any
	touchedAt time.Time
}

// New returns an uninitialised session. Its API client authenticates with
// whatever token is persisted for id at call time.
func New(id string, store storage.Store, api *apiclient.Client, logger *log.Logger, cfg Config) *Session {
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = 10 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &Session{
		id:      id,
		store:   store,
		logger:  logger.WithComponent(log.ComponentSession).With(log.FieldSessionID, shortID(id)),
		cfg:     cfg,
		ready:   make(chan struct{}),
		loading: true,
		views:   make(map[string]any),
	}
	s.api = api.WithTokenSource(s.storedToken)
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (s *Session) ID() string { return s.id }

// API returns the backend client bound to this session's token.
func (s *Session) API() *apiclient.Client { return s.api }

// Ready is closed once bootstrap has finished.
func (s *Session) Ready() <-chan struct{} { return s.ready }

// Wait blocks until background work started by the session has finished.
func (s *Session) Wait() { s.bg.Wait() }

func (s *Session) storedToken(ctx context.Context) string {
	tok, ok, err := s.store.Get(ctx, s.id, storage.KeyToken)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read stored token", log.FieldError, err.Error())
		return ""
	}
	if !ok {
		return ""
	}
	return tok
}

// markTouched reports whether the last touch is older than every, recording
// now as the new touch when it is.
func (s *Session) markTouched(now time.Time, every time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.touchedAt.IsZero() && now.Sub(s.touchedAt) < every {
		return false
	}
	s.touchedAt = now
	return true
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{Loading: s.loading}
	if s.user != nil {
		u := *s.user
		st.User = &u
	}
	if s.companies != nil {
		st.Companies = append([]core.Company(nil), s.companies...)
	}
	if s.selected != nil {
		c := *s.selected
		st.SelectedCompany = &c
	}
	return st
}

func (s *Session) finishLoading() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
	s.readyOnce.Do(func() { close(s.ready) })
}

// Initialize rehydrates the session from storage. It runs once per session.
//
// With a stored token and user the session is logged in immediately, without
// asking the backend, and the company list is refreshed in the background.
// Loading ends when that refresh settles, whatever its outcome. A JWT whose
// exp has passed is discarded instead of rehydrated.
func (s *Session) Initialize(ctx context.Context) {
	s.initOnce.Do(func() { s.initialize(ctx) })
}

func (s *Session) initialize(ctx context.Context) {
	token := s.storedToken(ctx)
	user := readJSON[core.User](ctx, s, storage.KeyUser)
	selected := readJSON[core.Company](ctx, s, storage.KeySelectedCompany)

	if token == "" || user == nil {
		s.finishLoading()
		return
	}

	if tokenExpired(token, s.cfg.Now()) {
		s.logger.InfoContext(ctx, "Stored token expired, starting logged out", log.FieldUserID, user.ID)
		if err := s.store.Delete(ctx, s.id, storage.SessionKeys...); err != nil {
			s.logger.WarnContext(ctx, "Failed to clear expired session", log.FieldError, err.Error())
		}
		s.finishLoading()
		return
	}

	s.mu.Lock()
	s.user = user
	s.selected = selected
	s.mu.Unlock()

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		defer s.finishLoading()

		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RefreshTimeout)
		defer cancel()
		_ = s.RefreshCompanies(rctx)
	}()
}

func readJSON[T any](ctx context.Context, s *Session, key string) *T {
	raw, ok, err := s.store.Get(ctx, s.id, key)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read session value", "key", key, log.FieldError, err.Error())
		return nil
	}
	if !ok || raw == "" {
		return nil
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		s.logger.WarnContext(ctx, "Ignoring corrupt session value", "key", key, log.FieldError, err.Error())
		return nil
	}
	return &v
}

func tokenExpired(token string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !claims.ExpiresAt.After(now)
}

// Login exchanges credentials for a token. On success the token and user are
// persisted and the company list is refreshed. Any failure returns false and
// leaves the session as it was.
func (s *Session) Login(ctx context.Context, email, password string) bool {
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.logger.InfoContext(ctx, "Login failed", log.FieldOperation, log.OpLogin, log.FieldErrorType, apiclient.Kind(err), log.FieldError, err.Error())
		return false
	}
	if resp.AccessToken == "" {
		s.logger.WarnContext(ctx, "Login response carried no token", log.FieldOperation, log.OpLogin)
		return false
	}

	userJSON, err := json.Marshal(resp.User)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to encode user", log.FieldError, err.Error())
		return false
	}
	if err := s.persist(ctx, map[string]string{
		storage.KeyToken: resp.AccessToken,
		storage.KeyUser:  string(userJSON),
	}); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist login", log.FieldError, err.Error())
		return false
	}

	user := resp.User
	s.mu.Lock()
	s.user = &user
	s.views = make(map[string]any)
	s.mu.Unlock()
	s.finishLoading()

	s.logger.InfoContext(ctx, "User logged in", log.FieldOperation, log.OpLogin, log.FieldUserID, user.ID)
	_ = s.RefreshCompanies(ctx)
	return true
}

// persist writes all values or none.
func (s *Session) persist(ctx context.Context, values map[string]string) error {
	written := make([]string, 0, len(values))
	for k, v := range values {
		if err := s.store.Set(ctx, s.id, k, v); err != nil {
			_ = s.store.Delete(ctx, s.id, written...)
			return err
		}
		written = append(written, k)
	}
	return nil
}

// Logout clears persisted and in-memory state. It never fails and may be
// called on a session that is already logged out. Navigating to the login
// page is up to the caller.
func (s *Session) Logout(ctx context.Context) {
	if err := s.store.Delete(ctx, s.id, storage.SessionKeys...); err != nil {
		s.logger.WarnContext(ctx, "Failed to clear persisted session", log.FieldOperation, log.OpLogout, log.FieldError, err.Error())
	}

	s.mu.Lock()
	wasLoggedIn := s.user != nil
	s.user = nil
	s.companies = nil
	s.selected = nil
	s.views = make(map[string]any)
	s.mu.Unlock()
	s.finishLoading()

	if wasLoggedIn {
		s.logger.InfoContext(ctx, "User logged out", log.FieldOperation, log.OpLogout)
	}
}

// SelectCompany makes company the current one, in memory and in storage.
// Membership is not checked here; the route guard owns that invariant.
func (s *Session) SelectCompany(ctx context.Context, company core.Company) {
	s.mu.Lock()
	c := company
	s.selected = &c
	s.mu.Unlock()

	raw, err := json.Marshal(company)
	if err == nil {
		err = s.store.Set(ctx, s.id, storage.KeySelectedCompany, string(raw))
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to persist selected company", log.FieldCompanyID, company.ID, log.FieldError, err.Error())
	}
}

// ErrNotLoggedIn is returned by operations that need a user.
var ErrNotLoggedIn = errors.New("not logged in")

// RefreshCompanies reloads the user's companies. On failure the previous
// list is kept and the error is returned for display only.
func (s *Session) RefreshCompanies(ctx context.Context) error {
	s.mu.RLock()
	loggedIn := s.user != nil
	s.mu.RUnlock()
	if !loggedIn {
		return ErrNotLoggedIn
	}

	companies, err := s.api.ListCompanies(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Company refresh failed, keeping previous list",
			log.FieldOperation, log.OpRefresh, log.FieldErrorType, apiclient.Kind(err), log.FieldError, err.Error())
		return err
	}

	s.mu.Lock()
	if s.user != nil {
		s.companies = companies
	}
	s.mu.Unlock()
	s.logger.DebugContext(ctx, "Companies refreshed", "count", len(companies))
	return nil
}

// Register creates a backend account. The session stays logged out.
func (s *Session) Register(ctx context.Context, in core.RegisterRequest) error {
	if _, err := s.api.Register(ctx, in); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "User registered", "username", in.Username)
	return nil
}

// CreateCompany creates a company for the current user and refreshes the list.
func (s *Session) CreateCompany(ctx context.Context, name string) (core.Company, error) {
	if !s.State().LoggedIn() {
		return core.Company{}, ErrNotLoggedIn
	}
	company, err := s.api.CreateCompany(ctx, name)
	if err != nil {
		return core.Company{}, err
	}
	_ = s.RefreshCompanies(ctx)
	return company, nil
}

// View returns the per-session view state stored under key, creating it
// with build on first use. Views are dropped on login and logout.
func (s *Session) View(key string, build func() any) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.views[key]; ok {
		return v
	}
	v := build()
	s.views[key] = v
	return v
}
