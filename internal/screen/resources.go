package screen

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ledgerdash/internal/apiclient"
	"ledgerdash/internal/core"
)

func invalid(resource, field string, err error) error {
	return &apiclient.ValidationError{Endpoint: resource, Err: fmt.Errorf("%s: %w", field, err)}
}

func today() string { return time.Now().Format(core.DateLayout) }

func money(a core.Amount) string { return a.Format() }

func optionalMoney(a *core.Amount) string {
	if a == nil {
		return "-"
	}
	return a.Format()
}

func parseOptionalAmount(resource, field, raw string) (*core.Amount, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	a, err := core.ParseAmount(raw)
	if err != nil {
		return nil, invalid(resource, field, err)
	}
	return &a, nil
}

func checkbox(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// Income is the one resource the backend supports fully.
var Income = &Definition[core.IncomeRecord]{
	Name:     "income",
	Title:    "Income",
	Singular: "Income",
	Noun:     "income record",
	Fields: []Field{
		{Name: "description", Label: "Description", Type: "text", Required: true},
		{Name: "amount", Label: "Amount", Type: "number", Step: "0.01", Required: true},
		{Name: "date_received", Label: "Date received", Type: "date", Required: true},
		{Name: "category", Label: "Category", Type: "text", Required: true},
		{Name: "notes", Label: "Notes", Type: "textarea"},
	},
	Columns: []Column[core.IncomeRecord]{
		{Header: "Date", Value: func(r core.IncomeRecord) string { return r.DateReceived }},
		{Header: "Description", Value: func(r core.IncomeRecord) string { return r.Description }},
		{Header: "Category", Value: func(r core.IncomeRecord) string { return r.Category }},
		{Header: "Amount", Numeric: true, Value: func(r core.IncomeRecord) string { return money(r.Amount) }},
	},
	ID: func(r core.IncomeRecord) int64 { return r.ID },
	ToForm: func(r core.IncomeRecord) Values {
		return Values{
			"description":   r.Description,
			"amount":        r.Amount.String(),
			"date_received": r.DateReceived,
			"category":      r.Category,
			"notes":         r.Notes,
		}
	},
	Defaults: func() Values { return Values{"date_received": today()} },
	List: func(ctx context.Context, api *apiclient.Client, companyID int64) ([]core.IncomeRecord, error) {
		return api.ListIncome(ctx, companyID)
	},
	Create: func(ctx context.Context, api *apiclient.Client, companyID int64, form Values) error {
		in, err := EncodeIncome(form)
		if err != nil {
			return err
		}
		_, err = api.CreateIncome(ctx, companyID, in)
		return err
	},
	Update: func(ctx context.Context, api *apiclient.Client, companyID, id int64, form Values) error {
		in, err := EncodeIncome(form)
		if err != nil {
			return err
		}
		_, err = api.UpdateIncome(ctx, companyID, id, in)
		return err
	},
	Delete: func(ctx context.Context, api *apiclient.Client, companyID, id int64) error {
		return api.DeleteIncome(ctx, companyID, id)
	},
}

// EncodeIncome turns form values into the income payload.
func EncodeIncome(form Values) (core.IncomeInput, error) {
	amount, err := core.ParseAmount(form.Get("amount"))
	if err != nil {
		return core.IncomeInput{}, invalid("income", "amount", err)
	}
	return core.IncomeInput{
		Description:  form.Get("description"),
		Amount:       amount,
		DateReceived: form.Get("date_received"),
		Category:     form.Get("category"),
		Notes:        form.Get("notes"),
	}, nil
}

var Expenses = &Definition[core.ExpenseRecord]{
	Name:     "expenses",
	Title:    "Expenses",
	Singular: "Expense",
	Noun:     "expense record",
	Fields: []Field{
		{Name: "description", Label: "Description", Type: "text", Required: true},
		{Name: "amount", Label: "Amount", Type: "number", Step: "0.01", Required: true},
		{Name: "date_incurred", Label: "Date incurred", Type: "date", Required: true},
		{Name: "category", Label: "Category", Type: "text", Required: true},
		{Name: "vendor", Label: "Vendor", Type: "text"},
		{Name: "notes", Label: "Notes", Type: "textarea"},
	},
	Columns: []Column[core.ExpenseRecord]{
		{Header: "Date", Value: func(r core.ExpenseRecord) string { return r.DateIncurred }},
		{Header: "Description", Value: func(r core.ExpenseRecord) string { return r.Description }},
		{Header: "Category", Value: func(r core.ExpenseRecord) string { return r.Category }},
		{Header: "Vendor", Value: func(r core.ExpenseRecord) string { return r.Vendor }},
		{Header: "Amount", Numeric: true, Value: func(r core.ExpenseRecord) string { return money(r.Amount) }},
	},
	ID: func(r core.ExpenseRecord) int64 { return r.ID },
	ToForm: func(r core.ExpenseRecord) Values {
		return Values{
			"description":   r.Description,
			"amount":        r.Amount.String(),
			"date_incurred": r.DateIncurred,
			"category":      r.Category,
			"vendor":        r.Vendor,
			"notes":         r.Notes,
		}
	},
	Defaults: func() Values { return Values{"date_incurred": today()} },
	List: func(ctx context.Context, api *apiclient.Client, companyID int64) ([]core.ExpenseRecord, error) {
		return api.ListExpenses(ctx, companyID)
	},
	Create: func(ctx context.Context, api *apiclient.Client, companyID int64, form Values) error {
		amount, err := core.ParseAmount(form.Get("amount"))
		if err != nil {
			return invalid("expenses", "amount", err)
		}
		_, err = api.CreateExpense(ctx, companyID, core.ExpenseInput{
			Description:  form.Get("description"),
			Amount:       amount,
			DateIncurred: form.Get("date_incurred"),
			Category:     form.Get("category"),
			Vendor:       form.Get("vendor"),
			Notes:        form.Get("notes"),
		})
		return err
	},
}

var Inventory = &Definition[core.InventoryItem]{
	Name:     "inventory",
	Title:    "Inventory",
	Singular: "Item",
	Noun:     "inventory item",
	Fields: []Field{
		{Name: "name", Label: "Name", Type: "text", Required: true},
		{Name: "sku", Label: "SKU", Type: "text"},
		{Name: "description", Label: "Description", Type: "textarea"},
		{Name: "purchase_price", Label: "Purchase price", Type: "number", Step: "0.01"},
		{Name: "sale_price", Label: "Sale price", Type: "number", Step: "0.01"},
		{Name: "quantity_on_hand", Label: "Quantity on hand", Type: "number", Step: "1", Required: true},
		{Name: "unit_of_measure", Label: "Unit of measure", Type: "text", Placeholder: "pcs"},
	},
	Columns: []Column[core.InventoryItem]{
		{Header: "Name", Value: func(r core.InventoryItem) string { return r.Name }},
		{Header: "SKU", Value: func(r core.InventoryItem) string { return r.SKU }},
		{Header: "On hand", Numeric: true, Value: func(r core.InventoryItem) string {
			return strings.TrimSpace(strconv.FormatInt(r.QuantityOnHand, 10) + " " + r.UnitOfMeasure)
		}},
		{Header: "Purchase", Numeric: true, Value: func(r core.InventoryItem) string { return optionalMoney(r.PurchasePrice) }},
		{Header: "Sale", Numeric: true, Value: func(r core.InventoryItem) string { return optionalMoney(r.SalePrice) }},
	},
	ID: func(r core.InventoryItem) int64 { return r.ID },
	ToForm: func(r core.InventoryItem) Values {
		v := Values{
			"name":             r.Name,
			"sku":              r.SKU,
			"description":      r.Description,
			"quantity_on_hand": strconv.FormatInt(r.QuantityOnHand, 10),
			"unit_of_measure":  r.UnitOfMeasure,
		}
		if r.PurchasePrice != nil {
			v["purchase_price"] = r.PurchasePrice.String()
		}
		if r.SalePrice != nil {
			v["sale_price"] = r.SalePrice.String()
		}
		return v
	},
	Defaults: func() Values { return Values{"quantity_on_hand": "0"} },
	List: func(ctx context.Context, api *apiclient.Client, companyID int64) ([]core.InventoryItem, error) {
		return api.ListInventory(ctx, companyID)
	},
	Create: func(ctx context.Context, api *apiclient.Client, companyID int64, form Values) error {
		qty, err := strconv.ParseInt(form.Get("quantity_on_hand"), 10, 64)
		if err != nil {
			return invalid("inventory", "quantity on hand", core.ErrInvalidQuantity)
		}
		purchase, err := parseOptionalAmount("inventory", "purchase price", form.Get("purchase_price"))
		if err != nil {
			return err
		}
		sale, err := parseOptionalAmount("inventory", "sale price", form.Get("sale_price"))
		if err != nil {
			return err
		}
		_, err = api.CreateInventoryItem(ctx, companyID, core.InventoryInput{
			Name:           form.Get("name"),
			Description:    form.Get("description"),
			SKU:            form.Get("sku"),
			PurchasePrice:  purchase,
			SalePrice:      sale,
			QuantityOnHand: qty,
			UnitOfMeasure:  form.Get("unit_of_measure"),
		})
		return err
	},
}

var Invoices = &Definition[core.Invoice]{
	Name:     "invoices",
	Title:    "Invoices",
	Singular: "Invoice",
	Noun:     "invoice",
	Fields: []Field{
		{Name: "customer_name", Label: "Customer", Type: "text", Required: true},
		{Name: "customer_email", Label: "Customer email", Type: "email"},
		{Name: "customer_address", Label: "Customer address", Type: "textarea"},
		{Name: "issue_date", Label: "Issue date", Type: "date", Required: true},
		{Name: "due_date", Label: "Due date", Type: "date", Required: true},
		{Name: "status", Label: "Status", Type: "select", Options: invoiceStatusOptions(), Required: true},
		{Name: "items", Label: "Items (one per line: description | quantity | unit price)", Type: "textarea", Required: true,
			Placeholder: "Consulting hours | 10 | 85.00"},
		{Name: "notes", Label: "Notes", Type: "textarea"},
	},
	Columns: []Column[core.Invoice]{
		{Header: "#", Value: func(r core.Invoice) string { return strconv.FormatInt(r.ID, 10) }},
		{Header: "Customer", Value: func(r core.Invoice) string { return r.CustomerName }},
		{Header: "Issued", Value: func(r core.Invoice) string { return r.IssueDate }},
		{Header: "Due", Value: func(r core.Invoice) string { return r.DueDate }},
		{Header: "Status", Value: func(r core.Invoice) string { return string(r.Status) }},
		{Header: "Total", Numeric: true, Value: func(r core.Invoice) string { return money(r.TotalAmount) }},
	},
	ID: func(r core.Invoice) int64 { return r.ID },
	ToForm: func(r core.Invoice) Values {
		lines := make([]string, 0, len(r.Items))
		for _, it := range r.Items {
			lines = append(lines, fmt.Sprintf("%s | %s | %s", it.ItemDescription, it.Quantity, it.UnitPrice))
		}
		return Values{
			"customer_name":    r.CustomerName,
			"customer_email":   r.CustomerEmail,
			"customer_address": r.CustomerAddress,
			"issue_date":       r.IssueDate,
			"due_date":         r.DueDate,
			"status":           string(r.Status),
			"items":            strings.Join(lines, "\n"),
			"notes":            r.Notes,
		}
	},
	Links: func(companyID int64, r core.Invoice) []Link {
		return []Link{{Label: "PDF", Href: fmt.Sprintf("/companies/%d/invoices/%d/pdf", companyID, r.ID)}}
	},
	Defaults: func() Values {
		return Values{
			"issue_date": today(),
			"due_date":   time.Now().AddDate(0, 0, 30).Format(core.DateLayout),
			"status":     string(core.InvoiceDraft),
		}
	},
	List: func(ctx context.Context, api *apiclient.Client, companyID int64) ([]core.Invoice, error) {
		return api.ListInvoices(ctx, companyID)
	},
	Create: func(ctx context.Context, api *apiclient.Client, companyID int64, form Values) error {
		items, err := ParseInvoiceItems(form.Get("items"))
		if err != nil {
			return invalid("invoices", "items", err)
		}
		_, err = api.CreateInvoice(ctx, companyID, core.InvoiceInput{
			CustomerName:    form.Get("customer_name"),
			CustomerEmail:   form.Get("customer_email"),
			CustomerAddress: form.Get("customer_address"),
			IssueDate:       form.Get("issue_date"),
			DueDate:         form.Get("due_date"),
			Status:          core.InvoiceStatus(form.Get("status")),
			Notes:           form.Get("notes"),
			Items:           items,
		})
		return err
	},
}

func invoiceStatusOptions() []string {
	var out []string
	for _, s := range core.InvoiceStatuses() {
		out = append(out, string(s))
	}
	return out
}

// ParseInvoiceItems reads "description | quantity | unit price" lines.
// Blank lines are skipped.
func ParseInvoiceItems(raw string) ([]core.InvoiceItemInput, error) {
	var items []core.InvoiceItemInput
	for i, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) != 3 {
			return nil, fmt.Errorf("line %d: want description | quantity | unit price", i+1)
		}
		qty, err := core.ParseAmount(parts[1])
		if err != nil {
			return nil, fmt.Errorf("line %d quantity: %w", i+1, err)
		}
		price, err := core.ParseAmount(parts[2])
		if err != nil {
			return nil, fmt.Errorf("line %d unit price: %w", i+1, err)
		}
		items = append(items, core.InvoiceItemInput{
			ItemDescription: strings.TrimSpace(parts[0]),
			Quantity:        qty,
			UnitPrice:       price,
		})
	}
	if len(items) == 0 {
		return nil, core.ErrNoItems
	}
	return items, nil
}

var Employees = &Definition[core.Employee]{
	Name:     "employees",
	Title:    "Employees",
	Singular: "Employee",
	Noun:     "employee",
	Fields: []Field{
		{Name: "first_name", Label: "First name", Type: "text", Required: true},
		{Name: "last_name", Label: "Last name", Type: "text", Required: true},
		{Name: "email", Label: "Email", Type: "email", Required: true},
		{Name: "phone_number", Label: "Phone", Type: "text"},
		{Name: "position", Label: "Position", Type: "text"},
		{Name: "hire_date", Label: "Hire date", Type: "date", Required: true},
		{Name: "is_active", Label: "Active", Type: "checkbox"},
	},
	Columns: []Column[core.Employee]{
		{Header: "Name", Value: func(r core.Employee) string { return r.FullName() }},
		{Header: "Email", Value: func(r core.Employee) string { return r.Email }},
		{Header: "Position", Value: func(r core.Employee) string { return r.Position }},
		{Header: "Hired", Value: func(r core.Employee) string { return r.HireDate }},
		{Header: "Status", Value: func(r core.Employee) string {
			if r.IsActive {
				return "Active"
			}
			return "Inactive"
		}},
	},
	ID: func(r core.Employee) int64 { return r.ID },
	ToForm: func(r core.Employee) Values {
		v := Values{
			"first_name":   r.FirstName,
			"last_name":    r.LastName,
			"email":        r.Email,
			"phone_number": r.PhoneNumber,
			"position":     r.Position,
			"hire_date":    r.HireDate,
		}
		if r.IsActive {
			v["is_active"] = "on"
		}
		return v
	},
	Defaults: func() Values { return Values{"hire_date": today(), "is_active": "on"} },
	List: func(ctx context.Context, api *apiclient.Client, companyID int64) ([]core.Employee, error) {
		return api.ListEmployees(ctx, companyID)
	},
	Create: func(ctx context.Context, api *apiclient.Client, companyID int64, form Values) error {
		_, err := api.CreateEmployee(ctx, companyID, core.EmployeeInput{
			FirstName:   form.Get("first_name"),
			LastName:    form.Get("last_name"),
			Email:       form.Get("email"),
			PhoneNumber: form.Get("phone_number"),
			Position:    form.Get("position"),
			HireDate:    form.Get("hire_date"),
			IsActive:    checkbox(form.Get("is_active")),
		})
		return err
	},
}

var Payroll = &Definition[core.SalaryRecord]{
	Name:     "payroll",
	Title:    "Payroll",
	Singular: "Salary record",
	Noun:     "salary record",
	Fields: []Field{
		{Name: "employee_id", Label: "Employee ID", Type: "number", Step: "1", Required: true},
		{Name: "payment_date", Label: "Payment date", Type: "date", Required: true},
		{Name: "payment_period_start", Label: "Period start", Type: "date", Required: true},
		{Name: "payment_period_end", Label: "Period end", Type: "date", Required: true},
		{Name: "gross_amount", Label: "Gross amount", Type: "number", Step: "0.01", Required: true},
		{Name: "deductions", Label: "Deductions", Type: "number", Step: "0.01"},
		{Name: "net_amount", Label: "Net amount (blank = gross - deductions)", Type: "number", Step: "0.01"},
		{Name: "notes", Label: "Notes", Type: "textarea"},
	},
	Columns: []Column[core.SalaryRecord]{
		{Header: "Employee", Value: func(r core.SalaryRecord) string { return strconv.FormatInt(r.EmployeeID, 10) }},
		{Header: "Paid", Value: func(r core.SalaryRecord) string { return r.PaymentDate }},
		{Header: "Period", Value: func(r core.SalaryRecord) string { return r.PaymentPeriodStart + " to " + r.PaymentPeriodEnd }},
		{Header: "Gross", Numeric: true, Value: func(r core.SalaryRecord) string { return money(r.GrossAmount) }},
		{Header: "Deductions", Numeric: true, Value: func(r core.SalaryRecord) string { return money(r.Deductions) }},
		{Header: "Net", Numeric: true, Value: func(r core.SalaryRecord) string { return money(r.NetAmount) }},
	},
	ID: func(r core.SalaryRecord) int64 { return r.ID },
	ToForm: func(r core.SalaryRecord) Values {
		return Values{
			"employee_id":          strconv.FormatInt(r.EmployeeID, 10),
			"payment_date":         r.PaymentDate,
			"payment_period_start": r.PaymentPeriodStart,
			"payment_period_end":   r.PaymentPeriodEnd,
			"gross_amount":         r.GrossAmount.String(),
			"deductions":           r.Deductions.String(),
			"net_amount":           r.NetAmount.String(),
			"notes":                r.Notes,
		}
	},
	Defaults: func() Values { return Values{"payment_date": today(), "deductions": "0"} },
	List: func(ctx context.Context, api *apiclient.Client, companyID int64) ([]core.SalaryRecord, error) {
		return api.ListPayroll(ctx, companyID)
	},
	Create: func(ctx context.Context, api *apiclient.Client, companyID int64, form Values) error {
		in, err := EncodeSalary(form)
		if err != nil {
			return err
		}
		_, err = api.CreateSalaryRecord(ctx, companyID, in)
		return err
	},
}

// EncodeSalary builds the salary payload; a blank net amount is derived
// from gross minus deductions.
func EncodeSalary(form Values) (core.SalaryInput, error) {
	employeeID, err := strconv.ParseInt(form.Get("employee_id"), 10, 64)
	if err != nil {
		return core.SalaryInput{}, invalid("payroll", "employee", fmt.Errorf("must be a number"))
	}
	gross, err := core.ParseAmount(form.Get("gross_amount"))
	if err != nil {
		return core.SalaryInput{}, invalid("payroll", "gross amount", err)
	}
	deductions := core.NewAmount(0)
	if raw := form.Get("deductions"); raw != "" {
		if deductions, err = core.ParseAmount(raw); err != nil {
			return core.SalaryInput{}, invalid("payroll", "deductions", err)
		}
	}
	net := gross.Sub(deductions)
	if raw := form.Get("net_amount"); raw != "" {
		if net, err = core.ParseAmount(raw); err != nil {
			return core.SalaryInput{}, invalid("payroll", "net amount", err)
		}
	}
	return core.SalaryInput{
		EmployeeID:         employeeID,
		PaymentDate:        form.Get("payment_date"),
		GrossAmount:        gross,
		Deductions:         deductions,
		NetAmount:          net,
		PaymentPeriodStart: form.Get("payment_period_start"),
		PaymentPeriodEnd:   form.Get("payment_period_end"),
		Notes:              form.Get("notes"),
	}, nil
}

// Resources lists every screen in navigation order.
func Resources() []Resource {
	return []Resource{Income, Expenses, Invoices, Inventory, Employees, Payroll}
}

// Lookup finds a resource by its URL segment.
func Lookup(name string) (Resource, bool) {
	for _, r := range Resources() {
		if r.ResourceName() == name {
			return r, true
		}
	}
	return nil, false
}
