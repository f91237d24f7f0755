package pdf

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerdash/internal/core"
	"ledgerdash/internal/log"
)

func TestRender_ProducesPDF(t *testing.T) {
	inv := core.Invoice{
		ID:           12,
		CustomerName: "Initech",
		IssueDate:    "2024-03-01",
		DueDate:      "2024-03-31",
		Status:       core.InvoiceSent,
		Notes:        "Net 30",
		TotalAmount:  core.NewAmount(970.5),
		Items: []core.InvoiceItem{
			{ItemDescription: "Consulting", Quantity: core.NewAmount(10), UnitPrice: core.NewAmount(85), TotalPrice: core.NewAmount(850)},
			{ItemDescription: "Travel", Quantity: core.NewAmount(1), UnitPrice: core.NewAmount(120.5), TotalPrice: core.NewAmount(120.5)},
		},
	}

	out, err := NewInvoiceRenderer(log.Discard()).Render(context.Background(), core.Company{ID: 4, Name: "Acme"}, inv)

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRender_NoItems(t *testing.T) {
	out, err := NewInvoiceRenderer(log.Discard()).Render(context.Background(), core.Company{Name: "Acme"}, core.Invoice{ID: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
