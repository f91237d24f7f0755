package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"ledgerdash/internal/apiclient"
	"ledgerdash/internal/core"
	"ledgerdash/internal/guard"
	"ledgerdash/internal/log"
	"ledgerdash/internal/pdf"
	"ledgerdash/internal/screen"
	"ledgerdash/internal/services"
)

type resourceContent struct {
	CompanyID int64
	Name      string
	Title     string
	Table     screen.Table
	Dialog    screen.Dialog
	// ReadOnly hides the write controls from viewers.
	ReadOnly bool
}

// screenFor returns the session's screen for the route resource, or false
// when the resource does not exist.
func (s *Server) screenFor(r *http.Request) (screen.Handle, core.Company, bool) {
	c, _ := guard.CompanyFromContext(r.Context())
	res, ok := screen.Lookup(r.PathValue("resource"))
	if !ok {
		return nil, c, false
	}
	sess := sessionFrom(r.Context())
	key := fmt.Sprintf("screen:%d:%s", c.ID, res.ResourceName())
	h := sess.View(key, func() any {
		return res.NewScreen(sess.API(), c.ID, s.deps.Logger)
	}).(screen.Handle)
	return h, c, true
}

func contentOf(h screen.Handle) resourceContent {
	return resourceContent{
		CompanyID: h.CompanyID(),
		Name:      h.Name(),
		Title:     h.Title(),
		Table:     h.Table(),
		Dialog:    h.Dialog(),
	}
}

// respondScreen renders the table and dialog fragment for htmx, the full
// page otherwise.
func (s *Server) respondScreen(w http.ResponseWriter, r *http.Request, h screen.Handle, b *HTMXResponseBuilder) {
	content := contentOf(h)
	if c, ok := guard.CompanyFromContext(r.Context()); ok {
		content.ReadOnly = !c.RoleInCompany.CanWrite()
	}
	if IsHTMX(r) {
		s.renderWith(w, r, b, "resource_body", content)
		return
	}
	p := s.page(r, h.Title(), h.Name())
	p.Content = content
	s.render(w, r, b.statusCode, "resource.html", p)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	NotFoundError("This page does not exist.").Write(w)
}

func (s *Server) handleResource(w http.ResponseWriter, r *http.Request) {
	h, _, ok := s.screenFor(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	h.Load(r.Context())
	s.respondScreen(w, r, h, NewHTMXResponse())
}

func (s *Server) handleResourceNew(w http.ResponseWriter, r *http.Request) {
	h, _, ok := s.screenFor(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	if !IsHTMX(r) {
		h.Load(r.Context())
	}
	h.Open()
	s.respondScreen(w, r, h, NewHTMXResponse())
}

func (s *Server) handleResourceEdit(w http.ResponseWriter, r *http.Request) {
	h, _, ok := s.screenFor(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	id, err := PathID(r, "id")
	if err != nil {
		s.notFound(w, r)
		return
	}
	if !h.Edit(id) {
		// A bookmarked edit URL may arrive before the list was ever loaded.
		h.Load(r.Context())
		if !h.Edit(id) {
			s.respondScreen(w, r, h, NewHTMXResponse().Status(http.StatusNotFound).
				TriggerErrorNotification("Error", "This record cannot be edited."))
			return
		}
	}
	s.respondScreen(w, r, h, NewHTMXResponse())
}

func (s *Server) handleResourceClose(w http.ResponseWriter, r *http.Request) {
	h, _, ok := s.screenFor(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	h.Close()
	s.respondScreen(w, r, h, NewHTMXResponse())
}

func (s *Server) handleResourceSubmit(w http.ResponseWriter, r *http.Request) {
	s.submitResource(w, r, 0)
}

// handleResourceUpdate saves the edit dialog; the record id is in the path.
func (s *Server) handleResourceUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.notFound(w, r)
		return
	}
	s.submitResource(w, r, id)
}

func (s *Server) submitResource(w http.ResponseWriter, r *http.Request, id int64) {
	h, c, ok := s.screenFor(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	if b := ParseFormOrFail(w, r); b != nil {
		b.Write(w)
		return
	}
	ctx := r.Context()

	n, ok := h.Submit(ctx, id, FormValues(r.PostForm))
	if !ok {
		s.respondScreen(w, r, h, NewHTMXResponse().Status(http.StatusUnprocessableEntity).Notify(n))
		return
	}

	mutation, op := services.MutationCreated, log.OpCreate
	if id != 0 {
		mutation, op = services.MutationUpdated, log.OpUpdate
	}
	s.recordMutation(ctx, op, mutation, c.ID, h.Name(), id)

	if !IsHTMX(r) {
		redirect(w, r, fmt.Sprintf("/companies/%d/%s", c.ID, h.Name()))
		return
	}
	s.respondScreen(w, r, h, NewHTMXResponse().Notify(n).TriggerRecordsChanged(c.ID, h.Name()))
}

func (s *Server) handleResourceDelete(w http.ResponseWriter, r *http.Request) {
	h, c, ok := s.screenFor(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	id, err := PathID(r, "id")
	if err != nil {
		s.notFound(w, r)
		return
	}
	ctx := r.Context()

	n, ok := h.Delete(ctx, id, Confirmed(r))
	if !ok {
		status := http.StatusOK
		if n.Kind == screen.NoticeError {
			status = http.StatusUnprocessableEntity
		}
		s.respondScreen(w, r, h, NewHTMXResponse().Status(status).Notify(n))
		return
	}

	s.recordMutation(ctx, log.OpDelete, services.MutationDeleted, c.ID, h.Name(), id)
	if !IsHTMX(r) {
		redirect(w, r, fmt.Sprintf("/companies/%d/%s", c.ID, h.Name()))
		return
	}
	s.respondScreen(w, r, h, NewHTMXResponse().Notify(n).TriggerRecordsChanged(c.ID, h.Name()))
}

func (s *Server) recordMutation(ctx context.Context, op, mutation string, companyID int64, resource string, recordID int64) {
	s.countMutation()
	l := log.FromContext(ctx)
	log.NewStructuredLogger(l).LogRecordMutation(ctx, op, resource, companyID, recordID)
	s.deps.Activity.RecordMutation(ctx, sessionFrom(ctx).State().User, mutation, companyID, resource, recordID)
}

func (s *Server) handleInvoicePDF(w http.ResponseWriter, r *http.Request) {
	c, _ := guard.CompanyFromContext(r.Context())
	id, err := PathID(r, "id")
	if err != nil {
		s.notFound(w, r)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()
	logger := log.FromContext(ctx)

	invoices, err := sessionFrom(r.Context()).API().ListInvoices(ctx, c.ID)
	if err != nil {
		logger.WarnContext(ctx, "Invoice lookup failed", log.FieldCompanyID, c.ID, log.FieldRecordID, id,
			log.FieldErrorType, apiclient.Kind(err), log.FieldError, err.Error())
		ErrorResponse(http.StatusBadGateway, "Could not load the invoice. Please check your connection.").Write(w)
		return
	}
	var inv *core.Invoice
	for i := range invoices {
		if invoices[i].ID == id {
			inv = &invoices[i]
			break
		}
	}
	if inv == nil {
		NotFoundError("Invoice not found.").Write(w)
		return
	}

	doc, err := s.deps.Invoices.Render(ctx, c, *inv)
	if err != nil {
		s.internalError(w, r, "Could not render the invoice.", "Invoice rendering failed", err,
			log.NewFields().WithComponent(log.ComponentPDF).WithRecord("invoices", c.ID, inv.ID))
		return
	}
	atomic.AddInt64(&s.appMetrics.pdfs, 1)

	w.Header().Set("Content-Type", pdf.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="invoice-%d.pdf"`, inv.ID))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
