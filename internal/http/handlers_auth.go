package http

import (
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"ledgerdash/internal/apiclient"
	"ledgerdash/internal/core"
	"ledgerdash/internal/guard"
	"ledgerdash/internal/log"
)

type authForm struct {
	Username string
	Email    string
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r.Context()).State()
	switch {
	case st.Loading:
		s.renderChecking(w, r)
	case !st.LoggedIn():
		redirect(w, r, guard.LoginPath)
	case st.SelectionValid():
		redirect(w, r, fmt.Sprintf("/companies/%d/dashboard", st.SelectedCompany.ID))
	default:
		redirect(w, r, guard.CompanyPath)
	}
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if sessionFrom(r.Context()).State().LoggedIn() {
		redirect(w, r, "/")
		return
	}
	p := s.page(r, "Sign in", "")
	p.Content = authForm{}
	if r.URL.Query().Get("registered") == "1" {
		p.Notice = "Account created. You can sign in now."
	}
	s.render(w, r, http.StatusOK, "login.html", p)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if b := ParseFormOrFail(w, r); b != nil {
		b.Write(w)
		return
	}
	ctx := r.Context()
	sess := sessionFrom(ctx)
	email := sanitizeInput(r.PostForm.Get("email"))
	password := r.PostForm.Get("password")

	fail := func(msg string) {
		p := s.page(r, "Sign in", "")
		p.Error = msg
		p.Content = authForm{Email: email}
		s.render(w, r, http.StatusUnprocessableEntity, "login.html", p)
	}

	if err := (core.LoginRequest{Email: email, Password: password}).Validate(); err != nil {
		fail("Email and password are required.")
		return
	}
	sess, ok := s.deps.Sessions.Login(ctx, sess, email, password)
	if !ok {
		fail("Login failed. Check your credentials and connection.")
		return
	}
	s.setSessionCookie(w, sess.ID())

	atomic.AddInt64(&s.appMetrics.logins, 1)
	if u := sess.State().User; u != nil {
		s.deps.Activity.RecordLogin(ctx, *u)
	}
	redirect(w, r, "/")
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	p := s.page(r, "Create account", "")
	p.Content = authForm{}
	s.render(w, r, http.StatusOK, "register.html", p)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if b := ParseFormOrFail(w, r); b != nil {
		b.Write(w)
		return
	}
	ctx := r.Context()
	in := core.RegisterRequest{
		Username: sanitizeInput(r.PostForm.Get("username")),
		Email:    sanitizeInput(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}

	if err := sessionFrom(ctx).Register(ctx, in); err != nil {
		p := s.page(r, "Create account", "")
		p.Content = authForm{Username: in.Username, Email: in.Email}
		p.Error = registerMessage(err)
		log.FromContext(ctx).InfoContext(ctx, "Registration failed",
			log.FieldErrorType, apiclient.Kind(err), log.FieldError, err.Error())
		s.render(w, r, http.StatusUnprocessableEntity, "register.html", p)
		return
	}
	redirect(w, r, guard.LoginPath+"?registered=1")
}

func registerMessage(err error) string {
	var ve *apiclient.ValidationError
	if errors.As(err, &ve) {
		switch {
		case errors.Is(err, core.ErrInvalidEmail):
			return "Please enter a valid email address."
		case errors.Is(err, core.ErrEmptyName):
			return "Please choose a username."
		}
		return "Please fill in every field."
	}
	if apiclient.IsHTTPStatus(err, http.StatusConflict) || apiclient.IsHTTPStatus(err, http.StatusBadRequest) {
		return "That username or email is already taken."
	}
	return "Registration failed. Please check your connection."
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(ctx)
	user := sess.State().User
	sess.Logout(ctx)
	s.deps.Sessions.Forget(sess.ID())
	if user != nil {
		s.deps.Activity.RecordLogout(ctx, user)
	}
	redirect(w, r, guard.LoginPath)
}
