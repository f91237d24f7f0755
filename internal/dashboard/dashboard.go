// Package dashboard computes the per-company summary shown on the landing
// page of a company.
package dashboard

import (
	"context"
	"slices"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"ledgerdash/internal/apiclient"
	"ledgerdash/internal/core"
	"ledgerdash/internal/log"
)

// Feed names, as reported in Stats.Unavailable.
const (
	FeedIncome    = "income"
	FeedExpenses  = "expenses"
	FeedInvoices  = "invoices"
	FeedEmployees = "employees"
	FeedInventory = "inventory"
)

// Stats is the dashboard aggregate. A feed that failed to load counts as
// empty and is listed in Unavailable.
type Stats struct {
	TotalIncome         decimal.Decimal
	TotalExpenses       decimal.Decimal
	NetProfit           decimal.Decimal
	TotalInvoices       int
	TotalEmployees      int
	TotalInventoryItems int
	Unavailable         []string
}

func (s Stats) Degraded() bool { return len(s.Unavailable) > 0 }

func (s Stats) IncomeText() string   { return core.FormatCurrency(s.TotalIncome) }
func (s Stats) ExpensesText() string { return core.FormatCurrency(s.TotalExpenses) }
func (s Stats) NetText() string      { return core.FormatCurrency(s.NetProfit) }

type Service struct {
	logger *log.Logger
}

func NewService(logger *log.Logger) *Service {
	return &Service{logger: logger.WithComponent(log.ComponentDashboard)}
}

// Compute fetches the five feeds concurrently and waits for all of them.
// It never fails; each failed feed is logged and degraded to empty.
func (s *Service) Compute(ctx context.Context, api *apiclient.Client, companyID int64) Stats {
	var (
		income    []core.IncomeRecord
		expenses  []core.ExpenseRecord
		invoices  []core.Invoice
		employees []core.Employee
		inventory []core.InventoryItem

		mu          sync.Mutex
		unavailable []string
	)

	fail := func(feed string, err error) {
		s.logger.WarnContext(ctx, "Dashboard feed unavailable",
			log.FieldCompanyID, companyID, log.FieldResource, feed,
			log.FieldErrorType, apiclient.Kind(err), log.FieldError, err.Error())
		mu.Lock()
		unavailable = append(unavailable, feed)
		mu.Unlock()
	}

	// Feeds report failures through fail and never return an error, so one
	// failed feed does not cancel the others.
	var g errgroup.Group
	g.Go(func() error {
		var err error
		if income, err = api.ListIncome(ctx, companyID); err != nil {
			fail(FeedIncome, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if expenses, err = api.ListExpenses(ctx, companyID); err != nil {
			fail(FeedExpenses, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if invoices, err = api.ListInvoices(ctx, companyID); err != nil {
			fail(FeedInvoices, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if employees, err = api.ListEmployees(ctx, companyID); err != nil {
			fail(FeedEmployees, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if inventory, err = api.ListInventory(ctx, companyID); err != nil {
			fail(FeedInventory, err)
		}
		return nil
	})
	_ = g.Wait()

	stats := Aggregate(income, expenses, invoices, employees, inventory)
	slices.Sort(unavailable)
	stats.Unavailable = unavailable
	return stats
}

// Aggregate sums the feeds. Nil slices count as empty.
func Aggregate(income []core.IncomeRecord, expenses []core.ExpenseRecord, invoices []core.Invoice,
	employees []core.Employee, inventory []core.InventoryItem) Stats {
	in := decimal.Zero
	for _, r := range income {
		in = in.Add(r.Amount.Decimal())
	}
	out := decimal.Zero
	for _, r := range expenses {
		out = out.Add(r.Amount.Decimal())
	}
	return Stats{
		TotalIncome:         in,
		TotalExpenses:       out,
		NetProfit:           in.Sub(out),
		TotalInvoices:       len(invoices),
		TotalEmployees:      len(employees),
		TotalInventoryItems: len(inventory),
	}
}
