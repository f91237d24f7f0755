package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerdash/internal/apiclient"
	"ledgerdash/internal/core"
	"ledgerdash/internal/log"
)

func feedServer(t *testing.T, failing ...string) *apiclient.Client {
	t.Helper()
	bodies := map[string]string{
		"income":    `[{"id":1,"amount":100},{"id":2,"amount":"50"}]`,
		"expenses":  `[{"id":1,"amount":30}]`,
		"invoices":  `[{"id":1},{"id":2},{"id":3}]`,
		"employees": `[{"id":1}]`,
		"inventory": `[]`,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/companies/{cid}/{feed}", func(w http.ResponseWriter, r *http.Request) {
		feed := r.PathValue("feed")
		for _, f := range failing {
			if f == feed {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
		}
		body, ok := bodies[feed]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return apiclient.New(srv.URL)
}

func TestCompute_AllFeeds(t *testing.T) {
	stats := NewService(log.Discard()).Compute(context.Background(), feedServer(t), 1)

	assert.Equal(t, "150", stats.TotalIncome.String())
	assert.Equal(t, "30", stats.TotalExpenses.String())
	assert.Equal(t, "120", stats.NetProfit.String())
	assert.Equal(t, 3, stats.TotalInvoices)
	assert.Equal(t, 1, stats.TotalEmployees)
	assert.Equal(t, 0, stats.TotalInventoryItems)
	assert.False(t, stats.Degraded())
	assert.Equal(t, "$120.00", stats.NetText())
}

func TestCompute_FailedFeedDegradesToEmpty(t *testing.T) {
	stats := NewService(log.Discard()).Compute(context.Background(), feedServer(t, "expenses"), 1)

	assert.Equal(t, "150", stats.TotalIncome.String())
	assert.True(t, stats.TotalExpenses.IsZero())
	assert.Equal(t, "150", stats.NetProfit.String())
	assert.Equal(t, 3, stats.TotalInvoices)
	assert.Equal(t, []string{FeedExpenses}, stats.Unavailable)
}

func TestCompute_BackendDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	stats := NewService(log.Discard()).Compute(context.Background(), apiclient.New(url), 1)

	assert.True(t, stats.NetProfit.IsZero())
	assert.Len(t, stats.Unavailable, 5)
}

func TestAggregate_DecimalExact(t *testing.T) {
	var income []core.IncomeRecord
	require.NoError(t, json.Unmarshal([]byte(`[{"amount":0.1},{"amount":0.2}]`), &income))

	stats := Aggregate(income, nil, nil, nil, nil)

	assert.Equal(t, "0.3", stats.TotalIncome.String())
}
