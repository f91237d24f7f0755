package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerdash/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func staticToken(tok string) TokenSource {
	return func(context.Context) string { return tok }
}

func TestRequest_Headers(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		writeJSON(w, http.StatusOK, []core.Company{})
	}))
	defer srv.Close()

	t.Run("with token", func(t *testing.T) {
		c := New(srv.URL).WithTokenSource(staticToken("abc"))
		_, err := c.ListCompanies(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "application/json", got.Get("Content-Type"))
		assert.Equal(t, "Bearer abc", got.Get("Authorization"))
	})

	t.Run("without token", func(t *testing.T) {
		c := New(srv.URL).WithTokenSource(staticToken(""))
		_, err := c.ListCompanies(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "application/json", got.Get("Content-Type"))
		assert.Empty(t, got.Get("Authorization"))
	})
}

func TestRequest_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "non-2xx with JSON body is an HTTPError",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "boom"})
			},
			check: func(t *testing.T, err error) {
				var he *HTTPError
				require.True(t, errors.As(err, &he))
				assert.Equal(t, 500, he.StatusCode)
				assert.Equal(t, "API request failed: 500 Internal Server Error", err.Error())
			},
		},
		{
			name: "401 is an HTTPError",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			check: func(t *testing.T, err error) {
				assert.True(t, IsHTTPStatus(err, http.StatusUnauthorized))
			},
		},
		{
			name: "200 with HTML is a FormatError",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				_, _ = io.WriteString(w, "<html>proxy login page</html>")
			},
			check: func(t *testing.T, err error) {
				var fe *FormatError
				require.True(t, errors.As(err, &fe))
				assert.Equal(t, "text/html", fe.ContentType)
				assert.Contains(t, fe.Snippet, "proxy login")
			},
		},
		{
			name: "malformed JSON is a FormatError",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, "{not json")
			},
			check: func(t *testing.T, err error) {
				assert.True(t, IsFormat(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := New(srv.URL).ListCompanies(context.Background())
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestRequest_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Health(context.Background())
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
	assert.Equal(t, "network_error", Kind(err))
}

func TestRequest_NoContentDelete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/companies/1/income/9", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	assert.NoError(t, New(srv.URL).DeleteIncome(context.Background(), 1, 9))
}

func TestRequest_ValidationNeverHitsNetwork(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(w, http.StatusCreated, map[string]any{})
	}))
	defer srv.Close()

	_, err := New(srv.URL).CreateIncome(context.Background(), 1, core.IncomeInput{Description: ""})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.True(t, errors.Is(err, core.ErrEmptyDescription))
	assert.Zero(t, calls)
}

func TestCreateIncome_SendsAmountAsNumber(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/companies/4/income", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusCreated, map[string]any{"id": 11, "description": body["description"], "amount": body["amount"]})
	}))
	defer srv.Close()

	in := core.IncomeInput{Description: "Retainer", Amount: core.NewAmount(250.75), DateReceived: "2024-05-02", Category: "Services"}
	rec, err := New(srv.URL).CreateIncome(context.Background(), 4, in)
	require.NoError(t, err)

	assert.Equal(t, 250.75, body["amount"])
	assert.Equal(t, "2024-05-02", body["date_received"])
	assert.Equal(t, int64(11), rec.ID)
	assert.Equal(t, "250.75", rec.Amount.String())
}

func TestReports_QueryAndValidation(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		writeJSON(w, http.StatusOK, map[string]any{"total_income": 150, "total_expenses": "30.00", "net_profit": 120})
	}))
	defer srv.Close()

	c := New(srv.URL)
	rep, err := c.ProfitAndLoss(context.Background(), 2, core.ReportPeriod{StartDate: "2024-01-01", EndDate: "2024-01-31"})
	require.NoError(t, err)
	assert.Equal(t, "/api/companies/2/reports/profit_and_loss", gotPath)
	assert.Equal(t, "end_date=2024-01-31&start_date=2024-01-01", gotQuery)
	assert.Equal(t, "120", rep.NetProfit.String())
	assert.Equal(t, "30", rep.TotalExpenses.String())

	_, err = c.SalesReport(context.Background(), 2, core.ReportPeriod{StartDate: "2024-02-01", EndDate: "2024-01-01"})
	assert.True(t, IsValidation(err))
}

func TestListNullBecomesEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, "null")
	}))
	defer srv.Close()

	items, err := New(srv.URL).ListInventory(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}
