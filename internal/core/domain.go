package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the calendar date format exchanged with the backend.
const DateLayout = "2006-01-02"

const (
	RoleUser        UserRole = "user"
	RoleSystemAdmin UserRole = "system_admin"

	CompanyOwner  CompanyRole = "owner"
	CompanyAdmin  CompanyRole = "admin"
	CompanyEditor CompanyRole = "editor"
	CompanyViewer CompanyRole = "viewer"

	InvoiceDraft   InvoiceStatus = "Draft"
	InvoiceSent    InvoiceStatus = "Sent"
	InvoicePaid    InvoiceStatus = "Paid"
	InvoiceOverdue InvoiceStatus = "Overdue"
)

type (
	UserRole      string
	CompanyRole   string
	InvoiceStatus string

	User struct {
		ID       int64    `json:"id"`
		Username string   `json:"username"`
		Email    string   `json:"email"`
		Role     UserRole `json:"role"`
	}

	Company struct {
		ID            int64       `json:"id"`
		Name          string      `json:"name"`
		RoleInCompany CompanyRole `json:"role_in_company"`
	}

	IncomeRecord struct {
		ID           int64  `json:"id"`
		Description  string `json:"description"`
		Amount       Amount `json:"amount"`
		DateReceived string `json:"date_received"`
		Category     string `json:"category"`
		Notes        string `json:"notes,omitempty"`
		CompanyID    int64  `json:"company_id"`
		UserID       int64  `json:"user_id"`
	}

	ExpenseRecord struct {
		ID           int64  `json:"id"`
		Description  string `json:"description"`
		Amount       Amount `json:"amount"`
		DateIncurred string `json:"date_incurred"`
		Category     string `json:"category"`
		Vendor       string `json:"vendor,omitempty"`
		Notes        string `json:"notes,omitempty"`
		CompanyID    int64  `json:"company_id"`
		UserID       int64  `json:"user_id"`
	}

	InventoryItem struct {
		ID             int64   `json:"id"`
		Name           string  `json:"name"`
		Description    string  `json:"description,omitempty"`
		SKU            string  `json:"sku,omitempty"`
		PurchasePrice  *Amount `json:"purchase_price,omitempty"`
		SalePrice      *Amount `json:"sale_price,omitempty"`
		QuantityOnHand int64   `json:"quantity_on_hand"`
		UnitOfMeasure  string  `json:"unit_of_measure,omitempty"`
		CompanyID      int64   `json:"company_id"`
	}

	Invoice struct {
		ID              int64         `json:"id"`
		CustomerName    string        `json:"customer_name"`
		CustomerEmail   string        `json:"customer_email,omitempty"`
		CustomerAddress string        `json:"customer_address,omitempty"`
		IssueDate       string        `json:"issue_date"`
		DueDate         string        `json:"due_date"`
		Status          InvoiceStatus `json:"status"`
		Notes           string        `json:"notes,omitempty"`
		TotalAmount     Amount        `json:"total_amount"`
		CompanyID       int64         `json:"company_id"`
		CreatedByUserID int64         `json:"created_by_user_id"`
		Items           []InvoiceItem `json:"items"`
	}

	// InvoiceItem totals are computed by the backend; the client only displays them.
	InvoiceItem struct {
		ID              int64  `json:"id"`
		InvoiceID       int64  `json:"invoice_id"`
		ItemID          *int64 `json:"item_id,omitempty"`
		ItemDescription string `json:"item_description"`
		Quantity        Amount `json:"quantity"`
		UnitPrice       Amount `json:"unit_price"`
		TotalPrice      Amount `json:"total_price"`
	}

	Employee struct {
		ID          int64  `json:"id"`
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
		Email       string `json:"email"`
		PhoneNumber string `json:"phone_number,omitempty"`
		Position    string `json:"position,omitempty"`
		HireDate    string `json:"hire_date"`
		IsActive    bool   `json:"is_active"`
		UserID      *int64 `json:"user_id,omitempty"`
		CompanyID   int64  `json:"company_id"`
	}

	SalaryRecord struct {
		ID                 int64  `json:"id"`
		EmployeeID         int64  `json:"employee_id"`
		PaymentDate        string `json:"payment_date"`
		GrossAmount        Amount `json:"gross_amount"`
		Deductions         Amount `json:"deductions"`
		NetAmount          Amount `json:"net_amount"`
		PaymentPeriodStart string `json:"payment_period_start"`
		PaymentPeriodEnd   string `json:"payment_period_end"`
		Notes              string `json:"notes,omitempty"`
		RecordedByUserID   int64  `json:"recorded_by_user_id"`
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrEmptyCategory      = errors.New("empty category")
	ErrEmptyName          = errors.New("empty name")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidStatus      = errors.New("invalid invoice status")
	ErrInvalidPeriod      = errors.New("period end before start")
	ErrNoItems            = errors.New("invoice has no items")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrMissingCredentials = errors.New("email and password are required")
)

// Valid reports whether r is a known platform role.
func (r UserRole) Valid() bool {
	return r == RoleUser || r == RoleSystemAdmin
}

// Valid reports whether r is a known company role.
func (r CompanyRole) Valid() bool {
	switch r {
	case CompanyOwner, CompanyAdmin, CompanyEditor, CompanyViewer:
		return true
	}
	return false
}

// CanWrite is a display hint only; the backend enforces permissions.
func (r CompanyRole) CanWrite() bool {
	return r == CompanyOwner || r == CompanyAdmin || r == CompanyEditor
}

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceDraft, InvoiceSent, InvoicePaid, InvoiceOverdue:
		return true
	}
	return false
}

// InvoiceStatuses lists statuses in workflow order.
func InvoiceStatuses() []InvoiceStatus {
	return []InvoiceStatus{InvoiceDraft, InvoiceSent, InvoicePaid, InvoiceOverdue}
}

// FullName joins first and last name.
func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// FindCompany returns the company with the given id.
func FindCompany(companies []Company, id int64) (Company, bool) {
	for _, c := range companies {
		if c.ID == id {
			return c, true
		}
	}
	return Company{}, false
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func validateDate(s string) error {
	_, err := ParseDate(s)
	return err
}
