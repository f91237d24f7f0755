package guard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerdash/internal/apiclient"
	"ledgerdash/internal/core"
	"ledgerdash/internal/log"
	"ledgerdash/internal/session"
	"ledgerdash/internal/storage"
)

var companies = []core.Company{
	{ID: 1, Name: "Acme", RoleInCompany: core.CompanyOwner},
	{ID: 5, Name: "Globex", RoleInCompany: core.CompanyEditor},
}

func loggedIn() session.State {
	return session.State{User: &core.User{ID: 1, Username: "ana"}, Companies: companies}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		state     session.State
		companyID int64
		want      Decision
	}{
		{"loading", session.State{Loading: true}, 1, Decision{State: Checking}},
		{"loading with user", session.State{Loading: true, User: &core.User{}}, 1, Decision{State: Checking}},
		{"no user", session.State{}, 1, Decision{State: Redirecting, RedirectTo: LoginPath}},
		{"no user unscoped", session.State{}, 0, Decision{State: Redirecting, RedirectTo: LoginPath}},
		{"member", loggedIn(), 5, Decision{State: Authorized, Company: companies[1]}},
		{"unscoped route", loggedIn(), 0, Decision{State: Authorized}},
		{"not a member", loggedIn(), 2, Decision{State: Redirecting, RedirectTo: CompanyPath}},
		{"no companies", session.State{User: &core.User{}}, 1, Decision{State: Redirecting, RedirectTo: CompanyPath}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.state, tt.companyID))
		})
	}
}

func TestEvaluate_EveryForeignCompanyRedirectsToPicker(t *testing.T) {
	st := loggedIn()
	for id := int64(1); id <= 200; id++ {
		d := Evaluate(st, id)
		if _, member := core.FindCompany(companies, id); member {
			assert.Equal(t, Authorized, d.State, "company %d", id)
			continue
		}
		assert.Equal(t, Decision{State: Redirecting, RedirectTo: CompanyPath}, d, "company %d", id)
	}
}

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(core.LoginResponse{AccessToken: "t", User: core.User{ID: 1, Username: "ana"}})
	})
	mux.HandleFunc("GET /api/companies", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(companies)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func guarded(sess *session.Session) (http.Handler, *core.Company) {
	var seen core.Company
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = CompanyFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	checking := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}
	mux := http.NewServeMux()
	mux.Handle("GET /companies/{companyID}/dashboard",
		Middleware(func(*http.Request) *session.Session { return sess }, checking, log.Discard())(next))
	return mux, &seen
}

func TestMiddleware(t *testing.T) {
	srv := newBackend(t)
	store := storage.NewMemoryStore()

	t.Run("checking while loading", func(t *testing.T) {
		sess := session.New("a", store, apiclient.New(srv.URL), log.Discard(), session.Config{})
		h, _ := guarded(sess)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/companies/1/dashboard", nil))
		assert.Equal(t, http.StatusAccepted, rec.Code)
	})

	t.Run("anonymous goes to login", func(t *testing.T) {
		sess := session.New("b", store, apiclient.New(srv.URL), log.Discard(), session.Config{})
		sess.Initialize(context.Background())
		<-sess.Ready()
		h, _ := guarded(sess)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/companies/1/dashboard", nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, LoginPath, rec.Header().Get("Location"))

		req := httptest.NewRequest(http.MethodGet, "/companies/1/dashboard", nil)
		req.Header.Set("HX-Request", "true")
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, LoginPath, rec.Header().Get("HX-Redirect"))
	})

	t.Run("member is authorized and selected", func(t *testing.T) {
		sess := session.New("c", store, apiclient.New(srv.URL), log.Discard(), session.Config{})
		require.True(t, sess.Login(context.Background(), "ana@example.com", "pw"))
		h, seen := guarded(sess)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/companies/5/dashboard", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(5), seen.ID)
		require.NotNil(t, sess.State().SelectedCompany)
		assert.Equal(t, int64(5), sess.State().SelectedCompany.ID)

		raw, ok, _ := store.Get(context.Background(), "c", storage.KeySelectedCompany)
		assert.True(t, ok)
		assert.Contains(t, raw, `"id":5`)
	})

	t.Run("foreign or malformed company goes to picker", func(t *testing.T) {
		sess := session.New("d", store, apiclient.New(srv.URL), log.Discard(), session.Config{})
		require.True(t, sess.Login(context.Background(), "ana@example.com", "pw"))
		h, _ := guarded(sess)

		for _, path := range []string{"/companies/99/dashboard", "/companies/abc/dashboard"} {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusSeeOther, rec.Code, path)
			assert.Equal(t, CompanyPath, rec.Header().Get("Location"), path)
		}
	})
}
