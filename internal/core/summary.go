package core

// CategoryAmount is a total aggregated by category name.
type CategoryAmount struct {
	Category string `json:"category"`
	Total    Amount `json:"total"`
}

// ReportPeriod is the inclusive date range of a backend report.
type ReportPeriod struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type ProfitAndLossReport struct {
	ReportPeriod
	TotalIncome   Amount `json:"total_income"`
	TotalExpenses Amount `json:"total_expenses"`
	NetProfit     Amount `json:"net_profit"`
}

type SalesReport struct {
	ReportPeriod
	TotalSales   Amount `json:"total_sales"`
	InvoiceCount int    `json:"invoice_count"`
}

type ExpenseReport struct {
	ReportPeriod
	TotalExpenses Amount           `json:"total_expenses"`
	ByCategory    []CategoryAmount `json:"by_category"`
}

// Validate checks the period before it is sent as a query.
func (p ReportPeriod) Validate() error {
	start, err := ParseDate(p.StartDate)
	if err != nil {
		return err
	}
	end, err := ParseDate(p.EndDate)
	if err != nil {
		return err
	}
	if end.Before(start) {
		return ErrInvalidPeriod
	}
	return nil
}
