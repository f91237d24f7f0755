package http

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"ledgerdash/internal/core"
	"ledgerdash/internal/guard"
	"ledgerdash/internal/log"
	"ledgerdash/internal/middleware/trace"
	"ledgerdash/internal/screen"
)

var templateFuncs = template.FuncMap{
	"money": func(a core.Amount) string { return a.Format() },
	"lower": strings.ToLower,
	"companyPath": func(companyID int64, parts ...string) string {
		p := fmt.Sprintf("/companies/%d", companyID)
		for _, s := range parts {
			p += "/" + s
		}
		return p
	},
	"recordPath": func(companyID int64, resource string, id int64, action string) string {
		return fmt.Sprintf("/companies/%d/%s/%d/%s", companyID, resource, id, action)
	},
}

type navItem struct {
	Title  string
	Href   string
	Active bool
}

// pageData is shared by every full page. Content carries the page's own data.
type pageData struct {
	Title     string
	User      *core.User
	Companies []core.Company
	Company   *core.Company
	Nav       []navItem
	Notice    string
	Error     string
	Content   any
}

func (s *Server) page(r *http.Request, title, active string) pageData {
	p := pageData{Title: title}
	if sess := sessionFrom(r.Context()); sess != nil {
		st := sess.State()
		p.User = st.User
		p.Companies = st.Companies
	}
	if c, ok := guard.CompanyFromContext(r.Context()); ok {
		p.Company = &c
		p.Nav = companyNav(c.ID, active)
	}
	return p
}

func companyNav(companyID int64, active string) []navItem {
	items := []navItem{{Title: "Dashboard", Href: fmt.Sprintf("/companies/%d/dashboard", companyID), Active: active == "dashboard"}}
	for _, res := range screen.Resources() {
		items = append(items, navItem{
			Title:  res.ResourceTitle(),
			Href:   fmt.Sprintf("/companies/%d/%s", companyID, res.ResourceName()),
			Active: active == res.ResourceName(),
		})
	}
	return append(items, navItem{Title: "Reports", Href: fmt.Sprintf("/companies/%d/reports", companyID), Active: active == "reports"})
}

// render executes name into a buffer first so a template error never
// leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.internalError(w, r, "Something went wrong while rendering this page.", "Template execution failed", err,
			log.NewFields().WithComponent(log.ComponentTemplate).With("template", name))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderWith is render for HTMX fragments that also carry triggers.
func (s *Server) renderWith(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldComponent, log.ComponentTemplate, "template", name, log.FieldError, err.Error())
		InternalServerError("Something went wrong while rendering this page.").Write(w)
		return
	}
	b.BodyHTML(buf.String()).Write(w)
}

// renderChecking is shown while a session is still resolving its companies.
// The page polls the same URL until the guard lets it through.
func (s *Server) renderChecking(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "1")
	name := "checking.html"
	if IsHTMX(r) {
		name = "checking"
	}
	s.render(w, r, http.StatusOK, name, pageData{Title: "Loading", Content: r.URL.RequestURI()})
}

// redirect navigates with HX-Redirect for htmx and 303 otherwise.
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	guard.Redirect(w, r, path)
}

// internalError logs err and answers 500 with a reference the user can quote.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, userMsg, logMsg string, err error, fields log.LogFields) {
	ctx := r.Context()
	log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, logMsg, err, log.OpRender, fields)
	if id := trace.GetRequestID(ctx); id != "" {
		userMsg += " Reference: " + id
	}
	InternalServerError(userMsg).Write(w)
}
