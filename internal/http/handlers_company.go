package http

import (
	"context"
	"fmt"
	"net/http"

	"ledgerdash/internal/apiclient"
	"ledgerdash/internal/core"
	"ledgerdash/internal/dashboard"
	"ledgerdash/internal/guard"
	"ledgerdash/internal/log"
)

type companiesContent struct {
	SelectedID int64
	Name       string
}

func (s *Server) companiesPage(r *http.Request) pageData {
	p := s.page(r, "Companies", "")
	c := companiesContent{}
	if sel := sessionFrom(r.Context()).State().SelectedCompany; sel != nil {
		c.SelectedID = sel.ID
	}
	p.Content = c
	return p
}

func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	// Picking a company is a good moment to pick up memberships granted elsewhere.
	if r.URL.Query().Get("refresh") == "1" {
		_ = sessionFrom(r.Context()).RefreshCompanies(r.Context())
	}
	name := "companies.html"
	if IsHTMX(r) {
		name = "company_list"
	}
	s.render(w, r, http.StatusOK, name, s.companiesPage(r))
}

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	if b := ParseFormOrFail(w, r); b != nil {
		b.Write(w)
		return
	}
	ctx := r.Context()
	sess := sessionFrom(ctx)
	name := sanitizeInput(r.PostForm.Get("name"))

	fail := func(msg string) {
		p := s.companiesPage(r)
		p.Error = msg
		p.Content = companiesContent{Name: name}
		if IsHTMX(r) {
			s.renderWith(w, r, NewHTMXResponse().Status(http.StatusUnprocessableEntity).
				TriggerErrorNotification("Error", msg), "company_list", p)
			return
		}
		s.render(w, r, http.StatusUnprocessableEntity, "companies.html", p)
	}

	if err := (core.CreateCompanyRequest{Name: name}).Validate(); err != nil {
		fail("Please enter a company name.")
		return
	}
	company, err := sess.CreateCompany(ctx, name)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Company creation failed",
			log.FieldOperation, log.OpCreate, log.FieldErrorType, apiclient.Kind(err), log.FieldError, err.Error())
		fail("Failed to create company. Please check your connection.")
		return
	}

	s.deps.Activity.RecordCompanyCreated(ctx, sess.State().User, company)
	if !IsHTMX(r) {
		redirect(w, r, guard.CompanyPath)
		return
	}
	s.renderWith(w, r, NewHTMXResponse().
		TriggerCompaniesChanged().
		TriggerSuccessNotification("Company created", company.Name+" is ready."),
		"company_list", s.companiesPage(r))
}

// handleSelectCompany relies on the guard, which already made the route
// company the selection.
func (s *Server) handleSelectCompany(w http.ResponseWriter, r *http.Request) {
	c, _ := guard.CompanyFromContext(r.Context())
	redirect(w, r, fmt.Sprintf("/companies/%d/dashboard", c.ID))
}

type dashboardContent struct {
	CompanyID int64
	Stats     dashboard.Stats
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	c, _ := guard.CompanyFromContext(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.DashboardTimeout)
	defer cancel()

	stats := s.deps.Dashboard.Compute(ctx, sessionFrom(r.Context()).API(), c.ID)
	content := dashboardContent{CompanyID: c.ID, Stats: stats}

	if IsHTMX(r) && r.Header.Get("HX-Target") == "stats" {
		s.render(w, r, http.StatusOK, "stats", content)
		return
	}
	p := s.page(r, c.Name, "dashboard")
	p.Content = content
	s.render(w, r, http.StatusOK, "dashboard.html", p)
}

type reportsContent struct {
	CompanyID int64
	Reports   dashboard.ReportSet
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	c, _ := guard.CompanyFromContext(r.Context())
	period := ParseReportPeriod(r.URL.Query(), s.opts.Now())

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.DashboardTimeout)
	defer cancel()
	set := s.deps.Dashboard.Reports(ctx, sessionFrom(r.Context()).API(), c.ID, period)

	status := http.StatusOK
	if set.PeriodErr != "" {
		status = http.StatusUnprocessableEntity
	}
	content := reportsContent{CompanyID: c.ID, Reports: set}
	if IsHTMX(r) && r.Header.Get("HX-Target") == "reports" {
		s.render(w, r, status, "reports_body", content)
		return
	}
	p := s.page(r, "Reports", "reports")
	p.Content = content
	s.render(w, r, status, "reports.html", p)
}
