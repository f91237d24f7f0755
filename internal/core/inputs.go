package core

import (
	"fmt"
	"strings"
)

// Request schemas sent to the backend. Validate checks presence and sign
// only; business rules belong to the backend.

type (
	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	LoginResponse struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type,omitempty"`
		User        User   `json:"user"`
	}

	RegisterRequest struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	CreateCompanyRequest struct {
		Name string `json:"name"`
	}

	IncomeInput struct {
		Description  string `json:"description"`
		Amount       Amount `json:"amount"`
		DateReceived string `json:"date_received"`
		Category     string `json:"category"`
		Notes        string `json:"notes,omitempty"`
	}

	ExpenseInput struct {
		Description  string `json:"description"`
		Amount       Amount `json:"amount"`
		DateIncurred string `json:"date_incurred"`
		Category     string `json:"category"`
		Vendor       string `json:"vendor,omitempty"`
		Notes        string `json:"notes,omitempty"`
	}

	InventoryInput struct {
		Name           string  `json:"name"`
		Description    string  `json:"description,omitempty"`
		SKU            string  `json:"sku,omitempty"`
		PurchasePrice  *Amount `json:"purchase_price,omitempty"`
		SalePrice      *Amount `json:"sale_price,omitempty"`
		QuantityOnHand int64   `json:"quantity_on_hand"`
		UnitOfMeasure  string  `json:"unit_of_measure,omitempty"`
	}

	InvoiceItemInput struct {
		ItemID          *int64 `json:"item_id,omitempty"`
		ItemDescription string `json:"item_description"`
		Quantity        Amount `json:"quantity"`
		UnitPrice       Amount `json:"unit_price"`
	}

	InvoiceInput struct {
		CustomerName    string             `json:"customer_name"`
		CustomerEmail   string             `json:"customer_email,omitempty"`
		CustomerAddress string             `json:"customer_address,omitempty"`
		IssueDate       string             `json:"issue_date"`
		DueDate         string             `json:"due_date"`
		Status          InvoiceStatus      `json:"status"`
		Notes           string             `json:"notes,omitempty"`
		Items           []InvoiceItemInput `json:"items"`
	}

	EmployeeInput struct {
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
		Email       string `json:"email"`
		PhoneNumber string `json:"phone_number,omitempty"`
		Position    string `json:"position,omitempty"`
		HireDate    string `json:"hire_date"`
		IsActive    bool   `json:"is_active"`
	}

	SalaryInput struct {
		EmployeeID         int64  `json:"employee_id"`
		PaymentDate        string `json:"payment_date"`
		GrossAmount        Amount `json:"gross_amount"`
		Deductions         Amount `json:"deductions"`
		NetAmount          Amount `json:"net_amount"`
		PaymentPeriodStart string `json:"payment_period_start"`
		PaymentPeriodEnd   string `json:"payment_period_end"`
		Notes              string `json:"notes,omitempty"`
	}
)

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func validEmail(s string) bool {
	at := strings.Index(s, "@")
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t\n")
}

func (r LoginRequest) Validate() error {
	if blank(r.Email) || r.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}

func (r RegisterRequest) Validate() error {
	if blank(r.Username) {
		return ErrEmptyName
	}
	if !validEmail(r.Email) {
		return ErrInvalidEmail
	}
	if r.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}

func (r CreateCompanyRequest) Validate() error {
	if blank(r.Name) {
		return ErrEmptyName
	}
	return nil
}

func (in IncomeInput) Validate() error {
	if blank(in.Description) {
		return ErrEmptyDescription
	}
	if len(in.Description) > 200 {
		return fmt.Errorf("description too long (max 200 characters)")
	}
	if !in.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := validateDate(in.DateReceived); err != nil {
		return err
	}
	if blank(in.Category) {
		return ErrEmptyCategory
	}
	return nil
}

func (in ExpenseInput) Validate() error {
	if blank(in.Description) {
		return ErrEmptyDescription
	}
	if len(in.Description) > 200 {
		return fmt.Errorf("description too long (max 200 characters)")
	}
	if !in.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := validateDate(in.DateIncurred); err != nil {
		return err
	}
	if blank(in.Category) {
		return ErrEmptyCategory
	}
	return nil
}

func (in InventoryInput) Validate() error {
	if blank(in.Name) {
		return ErrEmptyName
	}
	if in.QuantityOnHand < 0 {
		return ErrInvalidQuantity
	}
	for _, p := range []*Amount{in.PurchasePrice, in.SalePrice} {
		if p != nil && p.IsNegative() {
			return ErrInvalidAmount
		}
	}
	return nil
}

func (in InvoiceInput) Validate() error {
	if blank(in.CustomerName) {
		return ErrEmptyName
	}
	if in.CustomerEmail != "" && !validEmail(in.CustomerEmail) {
		return ErrInvalidEmail
	}
	issue, err := ParseDate(in.IssueDate)
	if err != nil {
		return fmt.Errorf("issue date: %w", err)
	}
	due, err := ParseDate(in.DueDate)
	if err != nil {
		return fmt.Errorf("due date: %w", err)
	}
	if due.Before(issue) {
		return ErrInvalidPeriod
	}
	if !in.Status.Valid() {
		return ErrInvalidStatus
	}
	if len(in.Items) == 0 {
		return ErrNoItems
	}
	for i, it := range in.Items {
		if blank(it.ItemDescription) {
			return fmt.Errorf("item %d: %w", i+1, ErrEmptyDescription)
		}
		if !it.Quantity.IsPositive() {
			return fmt.Errorf("item %d: %w", i+1, ErrInvalidQuantity)
		}
		if it.UnitPrice.IsNegative() {
			return fmt.Errorf("item %d: %w", i+1, ErrInvalidAmount)
		}
	}
	return nil
}

func (in EmployeeInput) Validate() error {
	if blank(in.FirstName) || blank(in.LastName) {
		return ErrEmptyName
	}
	if !validEmail(in.Email) {
		return ErrInvalidEmail
	}
	return validateDate(in.HireDate)
}

func (in SalaryInput) Validate() error {
	if in.EmployeeID <= 0 {
		return fmt.Errorf("employee is required")
	}
	if err := validateDate(in.PaymentDate); err != nil {
		return fmt.Errorf("payment date: %w", err)
	}
	if !in.GrossAmount.IsPositive() || in.Deductions.IsNegative() || in.NetAmount.IsNegative() {
		return ErrInvalidAmount
	}
	start, err := ParseDate(in.PaymentPeriodStart)
	if err != nil {
		return fmt.Errorf("period start: %w", err)
	}
	end, err := ParseDate(in.PaymentPeriodEnd)
	if err != nil {
		return fmt.Errorf("period end: %w", err)
	}
	if end.Before(start) {
		return ErrInvalidPeriod
	}
	return nil
}
