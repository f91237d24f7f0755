// Package guard decides whether a request may reach a company-scoped page.
package guard

import (
	"context"
	"net/http"
	"strconv"

	"ledgerdash/internal/core"
	"ledgerdash/internal/log"
	"ledgerdash/internal/session"
)

const (
	LoginPath   = "/login"
	CompanyPath = "/companies"
)

type State int

const (
	Checking State = iota
	Authorized
	Redirecting
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case Authorized:
		return "authorized"
	case Redirecting:
		return "redirecting"
	}
	return "unknown"
}

// Decision is the outcome of one evaluation.
type Decision struct {
	State      State
	RedirectTo string
	Company    core.Company
}

// Evaluate applies the guard rules to a session snapshot. companyID is the
// route's company, or 0 for routes that only need a user.
func Evaluate(st session.State, companyID int64) Decision {
	if st.Loading {
		return Decision{State: Checking}
	}
	if !st.LoggedIn() {
		return Decision{State: Redirecting, RedirectTo: LoginPath}
	}
	if companyID == 0 {
		return Decision{State: Authorized}
	}
	company, ok := st.Company(companyID)
	if !ok {
		return Decision{State: Redirecting, RedirectTo: CompanyPath}
	}
	return Decision{State: Authorized, Company: company}
}

type contextKey struct{}

// CompanyFromContext returns the company resolved by Middleware.
func CompanyFromContext(ctx context.Context) (core.Company, bool) {
	c, ok := ctx.Value(contextKey{}).(core.Company)
	return c, ok
}

// SessionResolver finds the session of a request.
type SessionResolver func(r *http.Request) *session.Session

// Middleware guards next. The company id comes from the {companyID} path
// value when present. Checking requests get renderChecking; redirects use
// HX-Redirect for HTMX requests and 303 otherwise. When the route names a
// company other than the selected one, it becomes the selection.
func Middleware(resolve SessionResolver, renderChecking http.HandlerFunc, logger *log.Logger) func(http.Handler) http.Handler {
	logger = logger.WithComponent(log.ComponentGuard)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := resolve(r)

			var companyID int64
			if raw := r.PathValue("companyID"); raw != "" {
				id, err := strconv.ParseInt(raw, 10, 64)
				if err != nil || id <= 0 {
					Redirect(w, r, CompanyPath)
					return
				}
				companyID = id
			}

			st := sess.State()
			d := Evaluate(st, companyID)
			switch d.State {
			case Checking:
				renderChecking(w, r)
				return
			case Redirecting:
				logger.DebugContext(r.Context(), "Redirecting",
					log.FieldPath, r.URL.Path, log.FieldGuardState, d.State.String(), "to", d.RedirectTo)
				Redirect(w, r, d.RedirectTo)
				return
			}

			ctx := r.Context()
			if companyID != 0 {
				if st.SelectedCompany == nil || *st.SelectedCompany != d.Company {
					sess.SelectCompany(ctx, d.Company)
				}
				ctx = context.WithValue(ctx, contextKey{}, d.Company)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Redirect navigates the browser to path.
func Redirect(w http.ResponseWriter, r *http.Request, path string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}
