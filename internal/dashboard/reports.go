package dashboard

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"ledgerdash/internal/apiclient"
	"ledgerdash/internal/core"
	"ledgerdash/internal/log"
)

// ReportSet holds the three backend reports for one period. A nil report
// failed to load and has its message in the matching *Err field.
type ReportSet struct {
	Period core.ReportPeriod

	ProfitAndLoss    *core.ProfitAndLossReport
	ProfitAndLossErr string
	Sales            *core.SalesReport
	SalesErr         string
	Expenses         *core.ExpenseReport
	ExpensesErr      string

	// PeriodErr is set when the period itself is invalid; nothing is fetched then.
	PeriodErr string
}

// Reports fetches the three reports concurrently. Each report fails on its own.
func (s *Service) Reports(ctx context.Context, api *apiclient.Client, companyID int64, period core.ReportPeriod) ReportSet {
	set := ReportSet{Period: period}
	if err := period.Validate(); err != nil {
		set.PeriodErr = "Invalid period: " + err.Error()
		return set
	}

	fail := func(report string, err error) string {
		s.logger.WarnContext(ctx, "Report unavailable",
			log.FieldCompanyID, companyID, log.FieldEndpoint, report,
			log.FieldErrorType, apiclient.Kind(err), log.FieldError, err.Error())
		return reportMessage(err)
	}

	var g errgroup.Group
	g.Go(func() error {
		r, err := api.ProfitAndLoss(ctx, companyID, period)
		if err != nil {
			set.ProfitAndLossErr = fail(apiclient.ReportProfitAndLoss, err)
			return nil
		}
		set.ProfitAndLoss = &r
		return nil
	})
	g.Go(func() error {
		r, err := api.SalesReport(ctx, companyID, period)
		if err != nil {
			set.SalesErr = fail(apiclient.ReportSales, err)
			return nil
		}
		set.Sales = &r
		return nil
	})
	g.Go(func() error {
		r, err := api.ExpenseReport(ctx, companyID, period)
		if err != nil {
			set.ExpensesErr = fail(apiclient.ReportExpenses, err)
			return nil
		}
		set.Expenses = &r
		return nil
	})
	_ = g.Wait()
	return set
}

func reportMessage(err error) string {
	var he *apiclient.HTTPError
	switch {
	case errors.As(err, &he):
		return fmt.Sprintf("The server could not produce this report (%d).", he.StatusCode)
	case apiclient.IsFormat(err):
		return "The server sent an unexpected response."
	default:
		return "Report unavailable. Please check your connection."
	}
}
