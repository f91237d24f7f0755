package http

import (
	"context"
	"net/http"

	"ledgerdash/internal/session"
)

// SessionCookie names the cookie carrying the opaque session id.
const SessionCookie = "ledgerdash_session"

type sessionKey struct{}

func sessionFrom(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey{}).(*session.Session)
	return s
}

// withSession resolves the browser's session, issuing a new cookie when the
// request carries none or a malformed one.
func (s *Server) withSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(SessionCookie); err == nil && session.ValidID(c.Value) {
			id = c.Value
		}
		if id == "" {
			id = s.deps.Sessions.NewID()
			s.setSessionCookie(w, id)
		}

		sess := s.deps.Sessions.Get(r.Context(), id)
		next(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
