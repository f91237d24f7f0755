package screen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerdash/internal/apiclient"
	"ledgerdash/internal/core"
	"ledgerdash/internal/log"
)

type incomeBackend struct {
	mu       sync.Mutex
	nextID   int64
	records  []core.IncomeRecord
	lastBody map[string]any
	lastPut  string
	failList atomic.Bool
	failSave atomic.Bool
	deletes  atomic.Int32
}

func newIncomeBackend(t *testing.T) (*incomeBackend, *apiclient.Client) {
	t.Helper()
	b := &incomeBackend{nextID: 1}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/companies/{cid}/income", func(w http.ResponseWriter, r *http.Request) {
		if b.failList.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, http.StatusOK, b.records)
	})
	mux.HandleFunc("POST /api/companies/{cid}/income", func(w http.ResponseWriter, r *http.Request) {
		if b.failSave.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		raw, rec := b.decode(r)
		b.mu.Lock()
		defer b.mu.Unlock()
		b.lastBody = raw
		rec.ID = b.nextID
		b.nextID++
		b.records = append(b.records, rec)
		writeJSON(w, http.StatusCreated, rec)
	})
	mux.HandleFunc("PUT /api/companies/{cid}/income/{id}", func(w http.ResponseWriter, r *http.Request) {
		raw, rec := b.decode(r)
		b.mu.Lock()
		defer b.mu.Unlock()
		b.lastBody = raw
		b.lastPut = r.PathValue("id")
		for i := range b.records {
			if fmt.Sprint(b.records[i].ID) == b.lastPut {
				rec.ID = b.records[i].ID
				b.records[i] = rec
			}
		}
		writeJSON(w, http.StatusOK, rec)
	})
	mux.HandleFunc("DELETE /api/companies/{cid}/income/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.deletes.Add(1)
		b.mu.Lock()
		defer b.mu.Unlock()
		kept := b.records[:0]
		for _, rec := range b.records {
			if fmt.Sprint(rec.ID) != r.PathValue("id") {
				kept = append(kept, rec)
			}
		}
		b.records = kept
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return b, apiclient.New(srv.URL)
}

func (b *incomeBackend) decode(r *http.Request) (map[string]any, core.IncomeRecord) {
	var raw map[string]any
	_ = json.NewDecoder(r.Body).Decode(&raw)
	buf, _ := json.Marshal(raw)
	var rec core.IncomeRecord
	_ = json.Unmarshal(buf, &rec)
	return raw, rec
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func salaryForm() Values {
	return Values{
		"description":   "Salary",
		"amount":        "1000.50",
		"date_received": "2024-03-01",
		"category":      "Salary",
	}
}

func TestSubmit_CreateThenListContainsRecord(t *testing.T) {
	b, api := newIncomeBackend(t)
	s := New(Income, api, 7, log.Discard())
	s.Load(context.Background())
	require.Empty(t, s.Items())

	s.Open()
	n, ok := s.Submit(context.Background(), 0, salaryForm())

	require.True(t, ok)
	assert.Equal(t, "Income added", n.Title)
	assert.Equal(t, NoticeSuccess, n.Kind)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Salary", items[0].Description)
	assert.Equal(t, "1000.5", items[0].Amount.String())

	b.mu.Lock()
	assert.Equal(t, 1000.5, b.lastBody["amount"], "amount travels as a JSON number")
	b.mu.Unlock()

	d := s.Dialog()
	assert.False(t, d.Open)
	for _, f := range d.Fields {
		assert.Empty(t, f.Value, f.Name)
	}
}

func TestDelete_RemovesRecord(t *testing.T) {
	_, api := newIncomeBackend(t)
	s := New(Income, api, 7, log.Discard())
	_, ok := s.Submit(context.Background(), 0, salaryForm())
	require.True(t, ok)
	id := s.Items()[0].ID

	n, ok := s.Delete(context.Background(), id, true)

	require.True(t, ok)
	assert.Equal(t, "Income deleted", n.Title)
	assert.Empty(t, s.Items())
}

func TestDelete_WithoutConfirmationSendsNothing(t *testing.T) {
	b, api := newIncomeBackend(t)
	s := New(Income, api, 7, log.Discard())
	_, ok := s.Submit(context.Background(), 0, salaryForm())
	require.True(t, ok)

	_, ok = s.Delete(context.Background(), s.Items()[0].ID, false)

	assert.False(t, ok)
	assert.Zero(t, b.deletes.Load())
	assert.Len(t, s.Items(), 1)
}

func TestEdit_PopulatesFormAndSubmitUpdates(t *testing.T) {
	b, api := newIncomeBackend(t)
	s := New(Income, api, 7, log.Discard())
	_, ok := s.Submit(context.Background(), 0, salaryForm())
	require.True(t, ok)
	id := s.Items()[0].ID

	require.True(t, s.Edit(id))
	d := s.Dialog()
	assert.True(t, d.Open)
	assert.True(t, d.Editing)
	values := map[string]string{}
	for _, f := range d.Fields {
		values[f.Name] = f.Value
	}
	assert.Equal(t, "Salary", values["description"])
	assert.Equal(t, "1000.5", values["amount"])

	form := salaryForm()
	form["amount"] = "1200"
	n, ok := s.Submit(context.Background(), id, form)

	require.True(t, ok)
	assert.Equal(t, "Income updated", n.Title)
	b.mu.Lock()
	assert.Equal(t, fmt.Sprint(id), b.lastPut)
	b.mu.Unlock()
	require.Len(t, s.Items(), 1)
	assert.Equal(t, "1200", s.Items()[0].Amount.String())
	assert.False(t, s.Dialog().Editing)
}

func TestSubmit_UpdatesRequestedRecordWhateverTheDialogState(t *testing.T) {
	b, api := newIncomeBackend(t)
	s := New(Income, api, 7, log.Discard())
	_, ok := s.Submit(context.Background(), 0, salaryForm())
	require.True(t, ok)
	id := s.Items()[0].ID

	require.True(t, s.Edit(id))
	// Another tab opens the create dialog on the same screen.
	s.Open()

	form := salaryForm()
	form["amount"] = "1300"
	n, ok := s.Submit(context.Background(), id, form)

	require.True(t, ok)
	assert.Equal(t, "Income updated", n.Title)
	b.mu.Lock()
	assert.Equal(t, fmt.Sprint(id), b.lastPut)
	b.mu.Unlock()
	require.Len(t, s.Items(), 1)
	assert.Equal(t, "1300", s.Items()[0].Amount.String())
}

func TestSubmit_UpdateOnCreateOnlyResource(t *testing.T) {
	_, api := newIncomeBackend(t)
	s := New(Expenses, api, 7, log.Discard())

	n, ok := s.Submit(context.Background(), 3, Values{"description": "Rent"})

	assert.False(t, ok)
	assert.Equal(t, NoticeError, n.Kind)
	assert.Contains(t, n.Message, "not supported")
	assert.False(t, s.Dialog().Open)
}

func TestEdit_UnsupportedResource(t *testing.T) {
	_, api := newIncomeBackend(t)
	s := New(Expenses, api, 7, log.Discard())
	assert.False(t, s.Edit(1))
	assert.False(t, s.Table().CanEdit)
	assert.False(t, s.Table().CanDelete)
}

func TestSubmit_FailureKeepsForm(t *testing.T) {
	b, api := newIncomeBackend(t)
	b.failSave.Store(true)
	s := New(Income, api, 7, log.Discard())
	s.Open()

	n, ok := s.Submit(context.Background(), 0, salaryForm())

	assert.False(t, ok)
	assert.Equal(t, NoticeError, n.Kind)
	assert.Contains(t, n.Message, "Failed to save income record.")
	d := s.Dialog()
	assert.True(t, d.Open)
	for _, f := range d.Fields {
		if f.Name == "amount" {
			assert.Equal(t, "1000.50", f.Value)
		}
	}
}

func TestSubmit_InvalidAmountNeverReachesBackend(t *testing.T) {
	b, api := newIncomeBackend(t)
	s := New(Income, api, 7, log.Discard())
	form := salaryForm()
	form["amount"] = "-5"

	n, ok := s.Submit(context.Background(), 0, form)

	assert.False(t, ok)
	assert.Contains(t, n.Message, "Invalid amount")
	b.mu.Lock()
	assert.Nil(t, b.lastBody)
	b.mu.Unlock()
}

func TestLoad_FailureKeepsPreviousItems(t *testing.T) {
	b, api := newIncomeBackend(t)
	s := New(Income, api, 7, log.Discard())
	_, ok := s.Submit(context.Background(), 0, salaryForm())
	require.True(t, ok)

	b.failList.Store(true)
	s.Load(context.Background())

	assert.Len(t, s.Items(), 1)
	assert.False(t, s.Table().Loading)
}

func TestParseInvoiceItems(t *testing.T) {
	items, err := ParseInvoiceItems("Consulting | 10 | 85.00\n\n  Travel|1|120,50  ")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Consulting", items[0].ItemDescription)
	assert.Equal(t, "10", items[0].Quantity.String())
	assert.Equal(t, "120.5", items[1].UnitPrice.String())

	_, err = ParseInvoiceItems("")
	assert.ErrorIs(t, err, core.ErrNoItems)

	_, err = ParseInvoiceItems("only two | parts")
	assert.Error(t, err)
}

func TestEncodeSalary_DerivesNet(t *testing.T) {
	in, err := EncodeSalary(Values{
		"employee_id":          "3",
		"payment_date":         "2024-03-31",
		"gross_amount":         "3000",
		"deductions":           "450.25",
		"payment_period_start": "2024-03-01",
		"payment_period_end":   "2024-03-31",
	})
	require.NoError(t, err)
	assert.Equal(t, "2549.75", in.NetAmount.String())

	_, err = EncodeSalary(Values{"employee_id": "x"})
	assert.True(t, apiclient.IsValidation(err))
}

func TestTable_InvoiceLinksToPDF(t *testing.T) {
	s := New(Invoices, apiclient.New("http://127.0.0.1:1"), 4, log.Discard())
	s.items = []core.Invoice{{ID: 12, CustomerName: "Initech", Status: core.InvoiceSent, TotalAmount: core.NewAmount(850)}}

	tbl := s.Table()
	require.Len(t, tbl.Rows, 1)
	require.Len(t, tbl.Rows[0].Links, 1)
	assert.Equal(t, "/companies/4/invoices/12/pdf", tbl.Rows[0].Links[0].Href)
	assert.Equal(t, "$850.00", tbl.Rows[0].Cells[len(tbl.Rows[0].Cells)-1].Text)
}

func TestLookup(t *testing.T) {
	r, ok := Lookup("payroll")
	require.True(t, ok)
	assert.Equal(t, "Payroll", r.ResourceTitle())
	_, ok = Lookup("nope")
	assert.False(t, ok)
}
