package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerdash/internal/apiclient"
	"ledgerdash/internal/core"
	"ledgerdash/internal/log"
)

type queryLog struct {
	mu      sync.Mutex
	queries []string
}

func (q *queryLog) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queries)
}

func reportServer(t *testing.T, failing string) (*apiclient.Client, *queryLog) {
	t.Helper()
	queries := &queryLog{}
	bodies := map[string]string{
		apiclient.ReportProfitAndLoss: `{"start_date":"2025-03-01","end_date":"2025-03-31","total_income":"1000.00","total_expenses":250,"net_profit":750}`,
		apiclient.ReportSales:         `{"start_date":"2025-03-01","end_date":"2025-03-31","total_sales":900,"invoice_count":4}`,
		apiclient.ReportExpenses:      `{"start_date":"2025-03-01","end_date":"2025-03-31","total_expenses":250,"by_category":[{"category":"Rent","total":200},{"category":"Office","total":50}]}`,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/companies/{cid}/reports/{report}", func(w http.ResponseWriter, r *http.Request) {
		report := r.PathValue("report")
		queries.mu.Lock()
		queries.queries = append(queries.queries, r.URL.RawQuery)
		queries.mu.Unlock()
		if report == failing {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(bodies[report]))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return apiclient.New(srv.URL), queries
}

var march = core.ReportPeriod{StartDate: "2025-03-01", EndDate: "2025-03-31"}

func TestReports_AllLoaded(t *testing.T) {
	api, _ := reportServer(t, "")

	set := NewService(log.Discard()).Reports(context.Background(), api, 3, march)

	require.NotNil(t, set.ProfitAndLoss)
	require.NotNil(t, set.Sales)
	require.NotNil(t, set.Expenses)
	assert.Equal(t, "750", set.ProfitAndLoss.NetProfit.String())
	assert.Equal(t, 4, set.Sales.InvoiceCount)
	assert.Len(t, set.Expenses.ByCategory, 2)
	assert.Empty(t, set.PeriodErr)
}

func TestReports_OneFailureIsIsolated(t *testing.T) {
	api, _ := reportServer(t, apiclient.ReportSales)

	set := NewService(log.Discard()).Reports(context.Background(), api, 3, march)

	assert.NotNil(t, set.ProfitAndLoss)
	assert.NotNil(t, set.Expenses)
	assert.Nil(t, set.Sales)
	assert.Contains(t, set.SalesErr, "502")
}

func TestReports_InvalidPeriodFetchesNothing(t *testing.T) {
	api, queries := reportServer(t, "")

	set := NewService(log.Discard()).Reports(context.Background(), api, 3,
		core.ReportPeriod{StartDate: "2025-03-31", EndDate: "2025-03-01"})

	assert.NotEmpty(t, set.PeriodErr)
	assert.Nil(t, set.ProfitAndLoss)
	assert.Zero(t, queries.len())
}
