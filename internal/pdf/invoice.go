// Package pdf renders invoices as A4 PDF documents with maroto.
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	mcore "github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"ledgerdash/internal/core"
	"ledgerdash/internal/log"
)

var (
	colorPrimary = &props.Color{Red: 31, Green: 41, Blue: 55}
	colorGray    = &props.Color{Red: 107, Green: 114, Blue: 128}
)

// ContentType of the rendered document.
const ContentType = "application/pdf"

type InvoiceRenderer struct {
	logger *log.Logger
}

func NewInvoiceRenderer(logger *log.Logger) *InvoiceRenderer {
	return &InvoiceRenderer{logger: logger.WithComponent(log.ComponentPDF)}
}

// Render returns the PDF bytes for inv issued by company.
func (r *InvoiceRenderer) Render(ctx context.Context, company core.Company, inv core.Invoice) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).WithRightMargin(12).
		WithTopMargin(12).WithBottomMargin(12).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(fmt.Sprintf("Invoice %d", inv.ID), true).
		WithAuthor(company.Name, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(headerRow(company, inv))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(customerRow(inv))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(itemHeaderRow())
	m.AddRows(itemRows(inv.Items)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(totalRow(inv))
	if inv.Notes != "" {
		m.AddRows(row.New(12).Add(col.New(12).Add(
			text.New("Notes: "+inv.Notes, props.Text{Size: 8, Top: 3, Color: colorGray}),
		)))
	}

	doc, err := m.Generate()
	if err != nil {
		r.logger.ErrorContext(ctx, "Invoice render failed", log.FieldCompanyID, company.ID,
			log.FieldRecordID, inv.ID, log.FieldError, err.Error())
		return nil, fmt.Errorf("pdf: generate invoice %d: %w", inv.ID, err)
	}
	r.logger.DebugContext(ctx, "Invoice rendered", log.FieldCompanyID, company.ID, log.FieldRecordID, inv.ID)
	return doc.GetBytes(), nil
}

func headerRow(company core.Company, inv core.Invoice) mcore.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(company.Name, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
		),
		col.New(5).Add(
			text.New(fmt.Sprintf("INVOICE #%d", inv.ID), props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("Issued: "+inv.IssueDate, props.Text{Size: 8, Align: align.Right, Top: 7, Color: colorGray}),
			text.New("Due: "+inv.DueDate, props.Text{Size: 8, Align: align.Right, Top: 11, Color: colorGray}),
			text.New(string(inv.Status), props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 15}),
		),
	)
}

func customerRow(inv core.Invoice) mcore.Row {
	contact := inv.CustomerEmail
	if inv.CustomerAddress != "" {
		if contact != "" {
			contact += "   |   "
		}
		contact += inv.CustomerAddress
	}
	return row.New(14).Add(col.New(12).Add(
		text.New("BILL TO", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
		text.New(inv.CustomerName, props.Text{Style: fontstyle.Bold, Size: 10, Top: 5}),
		text.New(contact, props.Text{Size: 8, Top: 10, Color: colorGray}),
	))
}

func itemHeaderRow() mcore.Row {
	h := func(label string, size int, a align.Type) mcore.Col {
		return col.New(size).Add(text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Align: a, Top: 2}))
	}
	return row.New(8).Add(
		h("Description", 6, align.Left),
		h("Qty", 2, align.Right),
		h("Unit price", 2, align.Right),
		h("Total", 2, align.Right),
	)
}

func itemRows(items []core.InvoiceItem) []mcore.Row {
	rows := make([]mcore.Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, row.New(7).Add(
			col.New(6).Add(text.New(it.ItemDescription, props.Text{Size: 8, Top: 1})),
			col.New(2).Add(text.New(it.Quantity.String(), props.Text{Size: 8, Align: align.Right, Top: 1})),
			col.New(2).Add(text.New(it.UnitPrice.Format(), props.Text{Size: 8, Align: align.Right, Top: 1})),
			col.New(2).Add(text.New(it.TotalPrice.Format(), props.Text{Size: 8, Align: align.Right, Top: 1})),
		))
	}
	return rows
}

func totalRow(inv core.Invoice) mcore.Row {
	return row.New(10).Add(
		col.New(8),
		col.New(2).Add(text.New("TOTAL", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 2})),
		col.New(2).Add(text.New(inv.TotalAmount.Format(), props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Top: 2,
		})),
	)
}
