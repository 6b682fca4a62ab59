package printing

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	appbilling "github.com/bookshop/backend/internal/application/billing"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// column widths in mm; they add up to the A4 content width with 15mm margins
var lineColumns = []struct {
	title string
	width float64
	align string
}{
	{"#", 10, "C"},
	{"Code", 28, "L"},
	{"Item", 62, "L"},
	{"Qty", 16, "R"},
	{"Unit price", 26, "R"},
	{"Disc %", 14, "R"},
	{"Total", 24, "R"},
}

// BillPDFRenderer renders bills on A4 portrait pages
type BillPDFRenderer struct {
	currency string
}

// NewBillPDFRenderer creates a renderer. currency is printed next to amounts.
func NewBillPDFRenderer(currency string) *BillPDFRenderer {
	return &BillPDFRenderer{currency: currency}
}

// RenderBill renders doc to PDF bytes
func (r *BillPDFRenderer) RenderBill(ctx context.Context, doc *appbilling.BillDocument) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(doc.Bill.Lines) == 0 {
		return nil, renderError(ErrCodeEmptyBill, doc.Bill.BillNumber, "has no lines", nil)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetTitle("Bill "+doc.Bill.BillNumber, true)
	pdf.SetCreator(doc.ShopName, true)
	if !doc.IssuedAt.IsZero() {
		pdf.SetCreationDate(doc.IssuedAt)
	}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("%s  page %d/{nb}", doc.Bill.DisplayNumber, pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AliasNbPages("")
	pdf.AddPage()

	r.header(pdf, doc)
	r.lines(pdf, doc)
	r.totals(pdf, doc)

	if doc.Bill.Notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(0, 5, "Notes: "+doc.Bill.Notes, "", "L", false)
	}

	if err := pdf.Error(); err != nil {
		return nil, renderError(ErrCodeRenderFailed, doc.Bill.BillNumber, "layout failed", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, renderError(ErrCodeRenderFailed, doc.Bill.BillNumber, "pdf output failed", err)
	}
	return buf.Bytes(), nil
}

func (r *BillPDFRenderer) header(pdf *gofpdf.Fpdf, doc *appbilling.BillDocument) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, doc.ShopName, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(120, 7, "Bill "+doc.Bill.DisplayNumber, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 7, "Status: "+statusLabel(doc.Bill.Status), "", 1, "R", false, 0, "")
	pdf.CellFormat(120, 6, "Date: "+doc.Bill.BillDate.Format("2006-01-02 15:04"), "", 0, "L", false, 0, "")
	if doc.Bill.PaidAt != nil {
		pdf.CellFormat(0, 6, "Paid: "+doc.Bill.PaidAt.Format("2006-01-02"), "", 0, "R", false, 0, "")
	}
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, "Bill to", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, fmt.Sprintf("%s (%s)", doc.CustomerName, doc.CustomerAccount), "", 1, "L", false, 0, "")
	if doc.CustomerAddress != "" {
		pdf.MultiCell(0, 5, doc.CustomerAddress, "", "L", false)
	}
	pdf.Ln(6)
}

func (r *BillPDFRenderer) lines(pdf *gofpdf.Fpdf, doc *appbilling.BillDocument) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range lineColumns {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, line := range doc.Bill.Lines {
		cells := []string{
			strconv.Itoa(line.LineNo),
			line.ItemCode,
			truncate(pdf, line.ItemName, lineColumns[2].width-2),
			strconv.Itoa(line.Quantity),
			r.amount(line.UnitPrice),
			line.DiscountPercentage.StringFixed(2),
			r.amount(line.TotalPrice),
		}
		for i, col := range lineColumns {
			pdf.CellFormat(col.width, 6, cells[i], "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

func (r *BillPDFRenderer) totals(pdf *gofpdf.Fpdf, doc *appbilling.BillDocument) {
	rows := []struct {
		label string
		value decimal.Decimal
		bold  bool
	}{
		{"Subtotal", doc.Bill.Subtotal, false},
		{"Tax (" + doc.Bill.TaxRate.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%)", doc.Bill.TaxAmount, false},
		{"Discount", doc.Bill.DiscountAmount.Neg(), false},
		{"Total", doc.Bill.TotalAmount, true},
	}

	for _, row := range rows {
		style := ""
		if row.bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(130, 6, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(26, 6, row.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(24, 6, r.amount(row.value), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 6, fmt.Sprintf("%d line(s), %d unit(s)", doc.Bill.ItemCount, doc.Bill.TotalQuantity), "", 1, "L", false, 0, "")
}

func (r *BillPDFRenderer) amount(d decimal.Decimal) string {
	if r.currency == "" {
		return d.StringFixed(2)
	}
	return d.StringFixed(2) + " " + r.currency
}

// statusLabel turns PARTIAL_PAID into "Partial Paid"
func statusLabel(status string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(status, "_", " "))
}

func truncate(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

var _ appbilling.DocumentRenderer = (*BillPDFRenderer)(nil)
