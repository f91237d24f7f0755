package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"ledgerdash/internal/core"
)

// Report names accepted by the backend.
const (
	ReportProfitAndLoss = "profit_and_loss"
	ReportSales         = "sales_report"
	ReportExpenses      = "expense_report"
)

// HealthStatus is the payload of GET /api/health.
type HealthStatus struct {
	Status string `json:"status"`
}

func companyPath(companyID int64, resource string) string {
	return fmt.Sprintf("/api/companies/%d/%s", companyID, resource)
}

func recordPath(companyID int64, resource string, id int64) string {
	return fmt.Sprintf("%s/%d", companyPath(companyID, resource), id)
}

func list[T any](ctx context.Context, c *Client, endpoint string) ([]T, error) {
	var out []T
	if err := c.Request(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func send[T any](ctx context.Context, c *Client, method, endpoint string, body any) (T, error) {
	var out T
	err := c.Request(ctx, method, endpoint, body, &out)
	return out, err
}

// Auth

func (c *Client) Login(ctx context.Context, email, password string) (core.LoginResponse, error) {
	return send[core.LoginResponse](ctx, c, http.MethodPost, "/api/login", core.LoginRequest{Email: email, Password: password})
}

func (c *Client) Register(ctx context.Context, in core.RegisterRequest) (core.User, error) {
	return send[core.User](ctx, c, http.MethodPost, "/api/register", in)
}

// Companies

func (c *Client) ListCompanies(ctx context.Context) ([]core.Company, error) {
	return list[core.Company](ctx, c, "/api/companies")
}

func (c *Client) CreateCompany(ctx context.Context, name string) (core.Company, error) {
	return send[core.Company](ctx, c, http.MethodPost, "/api/companies", core.CreateCompanyRequest{Name: name})
}

// Income

func (c *Client) ListIncome(ctx context.Context, companyID int64) ([]core.IncomeRecord, error) {
	return list[core.IncomeRecord](ctx, c, companyPath(companyID, "income"))
}

func (c *Client) CreateIncome(ctx context.Context, companyID int64, in core.IncomeInput) (core.IncomeRecord, error) {
	return send[core.IncomeRecord](ctx, c, http.MethodPost, companyPath(companyID, "income"), in)
}

func (c *Client) UpdateIncome(ctx context.Context, companyID, incomeID int64, in core.IncomeInput) (core.IncomeRecord, error) {
	return send[core.IncomeRecord](ctx, c, http.MethodPut, recordPath(companyID, "income", incomeID), in)
}

func (c *Client) DeleteIncome(ctx context.Context, companyID, incomeID int64) error {
	return c.Request(ctx, http.MethodDelete, recordPath(companyID, "income", incomeID), nil, nil)
}

// Expenses

func (c *Client) ListExpenses(ctx context.Context, companyID int64) ([]core.ExpenseRecord, error) {
	return list[core.ExpenseRecord](ctx, c, companyPath(companyID, "expenses"))
}

func (c *Client) CreateExpense(ctx context.Context, companyID int64, in core.ExpenseInput) (core.ExpenseRecord, error) {
	return send[core.ExpenseRecord](ctx, c, http.MethodPost, companyPath(companyID, "expenses"), in)
}

// Employees

func (c *Client) ListEmployees(ctx context.Context, companyID int64) ([]core.Employee, error) {
	return list[core.Employee](ctx, c, companyPath(companyID, "employees"))
}

func (c *Client) CreateEmployee(ctx context.Context, companyID int64, in core.EmployeeInput) (core.Employee, error) {
	return send[core.Employee](ctx, c, http.MethodPost, companyPath(companyID, "employees"), in)
}

// Inventory

func (c *Client) ListInventory(ctx context.Context, companyID int64) ([]core.InventoryItem, error) {
	return list[core.InventoryItem](ctx, c, companyPath(companyID, "inventory"))
}

func (c *Client) CreateInventoryItem(ctx context.Context, companyID int64, in core.InventoryInput) (core.InventoryItem, error) {
	return send[core.InventoryItem](ctx, c, http.MethodPost, companyPath(companyID, "inventory"), in)
}

// Invoices

func (c *Client) ListInvoices(ctx context.Context, companyID int64) ([]core.Invoice, error) {
	return list[core.Invoice](ctx, c, companyPath(companyID, "invoices"))
}

func (c *Client) CreateInvoice(ctx context.Context, companyID int64, in core.InvoiceInput) (core.Invoice, error) {
	return send[core.Invoice](ctx, c, http.MethodPost, companyPath(companyID, "invoices"), in)
}

// Payroll

func (c *Client) ListPayroll(ctx context.Context, companyID int64) ([]core.SalaryRecord, error) {
	return list[core.SalaryRecord](ctx, c, companyPath(companyID, "payroll"))
}

func (c *Client) CreateSalaryRecord(ctx context.Context, companyID int64, in core.SalaryInput) (core.SalaryRecord, error) {
	return send[core.SalaryRecord](ctx, c, http.MethodPost, companyPath(companyID, "payroll"), in)
}

// Reports

func reportPath(companyID int64, report string, period core.ReportPeriod) string {
	q := url.Values{}
	q.Set("start_date", period.StartDate)
	q.Set("end_date", period.EndDate)
	return companyPath(companyID, "reports/"+report) + "?" + q.Encode()
}

func (c *Client) report(ctx context.Context, companyID int64, report string, period core.ReportPeriod, out any) error {
	if err := period.Validate(); err != nil {
		return &ValidationError{Endpoint: report, Err: err}
	}
	return c.Request(ctx, http.MethodGet, reportPath(companyID, report, period), nil, out)
}

func (c *Client) ProfitAndLoss(ctx context.Context, companyID int64, period core.ReportPeriod) (core.ProfitAndLossReport, error) {
	var r core.ProfitAndLossReport
	err := c.report(ctx, companyID, ReportProfitAndLoss, period, &r)
	return r, err
}

func (c *Client) SalesReport(ctx context.Context, companyID int64, period core.ReportPeriod) (core.SalesReport, error) {
	var r core.SalesReport
	err := c.report(ctx, companyID, ReportSales, period, &r)
	return r, err
}

func (c *Client) ExpenseReport(ctx context.Context, companyID int64, period core.ReportPeriod) (core.ExpenseReport, error) {
	var r core.ExpenseReport
	err := c.report(ctx, companyID, ReportExpenses, period, &r)
	return r, err
}

// Health probes the backend; used only for the connectivity banner.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	return send[HealthStatus](ctx, c, http.MethodGet, "/api/health", nil)
}
