// Package pdf renders invoices to A4 PDF documents: letterhead,
// narrative, fee table, totals and the bar's payment terms.
package pdf

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf/v2"

	"github.com/lexohub/lexohub/internal/bar"
	"github.com/lexohub/lexohub/internal/domain"
	"github.com/lexohub/lexohub/internal/service"
)

const (
	pageMargin = 15.0
	pageWidth  = 210.0 - 2*pageMargin

	colDate   = 24.0
	colHours  = 18.0
	colRate   = 28.0
	colAmount = 30.0
	colDesc   = pageWidth - colDate - colHours - colRate - colAmount
)

// Renderer draws invoices. Safe for concurrent use; each Render builds
// its own document.
type Renderer struct{}

// NewRenderer returns a Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render draws the invoice for the advocate and returns the PDF bytes.
func (r *Renderer) Render(adv *domain.Advocate, detail *domain.InvoiceDetail) ([]byte, error) {
	inv := detail.Invoice
	rules, err := bar.Rules(inv.Bar)
	if err != nil {
		return nil, err
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle(fmt.Sprintf("Invoice %s", inv.InvoiceNumber), false)
	doc.SetAuthor(adv.FullName, false)
	doc.SetMargins(pageMargin, pageMargin, pageMargin)
	doc.SetAutoPageBreak(true, 25)

	doc.SetFooterFunc(func() {
		doc.SetY(-20)
		doc.SetFont("Helvetica", "I", 8)
		doc.SetTextColor(120, 120, 120)
		terms := fmt.Sprintf(
			"Payment due within %d days of date of invoice. Overdue accounts bear interest at %.1f%% per month.",
			rules.PaymentTermDays, rules.LateFeePercentage*100,
		)
		doc.CellFormat(pageWidth, 4, terms, "", 1, "C", false, 0, "")
		doc.CellFormat(pageWidth, 4, fmt.Sprintf("%s  |  Page %d", inv.Bar.DisplayName(), doc.PageNo()), "", 1, "C", false, 0, "")
	})

	doc.AddPage()
	r.drawLetterhead(doc, adv, inv)
	r.drawParties(doc, detail)
	r.drawNarrative(doc, inv.Narrative)
	r.drawFeeTable(doc, detail.TimeEntries)
	r.drawTotals(doc, inv)
	r.drawBanking(doc, adv, inv)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", inv.InvoiceNumber, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawLetterhead(doc *gofpdf.Fpdf, adv *domain.Advocate, inv domain.Invoice) {
	doc.SetTextColor(20, 20, 20)
	doc.SetFont("Helvetica", "B", 16)
	doc.CellFormat(pageWidth/2, 8, adv.FullName, "", 0, "L", false, 0, "")

	title := "TAX INVOICE"
	if inv.IsProForma() {
		title = "PRO FORMA INVOICE"
	}
	doc.SetFont("Helvetica", "B", 14)
	doc.CellFormat(pageWidth/2, 8, title, "", 1, "R", false, 0, "")

	doc.SetFont("Helvetica", "", 9)
	doc.SetTextColor(90, 90, 90)
	left := []string{adv.Chambers, "Practice number " + adv.PracticeNumber}
	if adv.VATNumber != "" {
		left = append(left, "VAT registration "+adv.VATNumber)
	}
	right := []string{
		inv.InvoiceNumber,
		"Date: " + formatDate(inv.InvoiceDate),
		"Due: " + formatDate(inv.DueDate),
	}
	for i := 0; i < len(left) || i < len(right); i++ {
		l, rr := "", ""
		if i < len(left) {
			l = left[i]
		}
		if i < len(right) {
			rr = right[i]
		}
		doc.CellFormat(pageWidth/2, 4.5, l, "", 0, "L", false, 0, "")
		doc.CellFormat(pageWidth/2, 4.5, rr, "", 1, "R", false, 0, "")
	}

	doc.Ln(3)
	doc.SetDrawColor(60, 60, 60)
	y := doc.GetY()
	doc.Line(pageMargin, y, pageMargin+pageWidth, y)
	doc.Ln(4)
}

func (r *Renderer) drawParties(doc *gofpdf.Fpdf, detail *domain.InvoiceDetail) {
	m := detail.Matter
	if m == nil {
		return
	}

	doc.SetFont("Helvetica", "B", 9)
	doc.SetTextColor(90, 90, 90)
	doc.CellFormat(pageWidth/2, 5, "INSTRUCTING ATTORNEY", "", 0, "L", false, 0, "")
	doc.CellFormat(pageWidth/2, 5, "MATTER", "", 1, "L", false, 0, "")

	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(20, 20, 20)
	left := []string{m.AttorneyName, m.AttorneyFirm, m.AttorneyEmail}
	right := []string{m.Title, "Ref " + m.Reference, "Client: " + m.ClientName}
	for i := 0; i < 3; i++ {
		doc.CellFormat(pageWidth/2, 5, left[i], "", 0, "L", false, 0, "")
		doc.CellFormat(pageWidth/2, 5, right[i], "", 1, "L", false, 0, "")
	}
	doc.Ln(5)
}

func (r *Renderer) drawNarrative(doc *gofpdf.Fpdf, narrative string) {
	if narrative == "" {
		return
	}
	doc.SetFont("Helvetica", "B", 9)
	doc.SetTextColor(90, 90, 90)
	doc.CellFormat(pageWidth, 5, "FEE NARRATIVE", "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(20, 20, 20)
	doc.MultiCell(pageWidth, 5, narrative, "", "L", false)
	doc.Ln(4)
}

func (r *Renderer) drawFeeTable(doc *gofpdf.Fpdf, entries []domain.TimeEntry) {
	if len(entries) == 0 {
		return
	}

	doc.SetFont("Helvetica", "B", 9)
	doc.SetFillColor(240, 240, 240)
	doc.SetTextColor(20, 20, 20)
	doc.CellFormat(colDate, 7, "Date", "B", 0, "L", true, 0, "")
	doc.CellFormat(colDesc, 7, "Description", "B", 0, "L", true, 0, "")
	doc.CellFormat(colHours, 7, "Hours", "B", 0, "R", true, 0, "")
	doc.CellFormat(colRate, 7, "Rate", "B", 0, "R", true, 0, "")
	doc.CellFormat(colAmount, 7, "Amount", "B", 1, "R", true, 0, "")

	doc.SetFont("Helvetica", "", 9)
	for _, e := range entries {
		desc := e.Description
		if len(desc) > 72 {
			desc = desc[:69] + "..."
		}
		doc.CellFormat(colDate, 6, e.Date.Format("2006-01-02"), "", 0, "L", false, 0, "")
		doc.CellFormat(colDesc, 6, desc, "", 0, "L", false, 0, "")
		doc.CellFormat(colHours, 6, formatHours(e.DurationMinutes), "", 0, "R", false, 0, "")
		doc.CellFormat(colRate, 6, formatRand(e.Rate), "", 0, "R", false, 0, "")
		doc.CellFormat(colAmount, 6, formatRand(service.EntryFee(e.DurationMinutes, e.Rate)), "", 1, "R", false, 0, "")
	}
	doc.Ln(4)
}

func (r *Renderer) drawTotals(doc *gofpdf.Fpdf, inv domain.Invoice) {
	type row struct {
		label  string
		amount string
		bold   bool
	}
	rows := []row{{"Professional fees", formatRand(inv.TotalFees), false}}
	if inv.DiscountValue > 0 {
		rows = append(rows,
			row{"Discount", "-" + formatRand(inv.DiscountValue), false},
			row{"Fees after discount", formatRand(inv.DiscountedFees), false},
		)
	}
	rows = append(rows, row{fmt.Sprintf("VAT @ %.0f%%", inv.VATRate*100), formatRand(inv.VATAmount), false})
	if inv.Disbursements > 0 {
		rows = append(rows, row{"Disbursements", formatRand(inv.Disbursements), false})
	}
	if inv.TotalExpenses > 0 {
		rows = append(rows, row{"Recoverable expenses", formatRand(inv.TotalExpenses), false})
	}
	rows = append(rows, row{"TOTAL DUE", formatRand(inv.TotalAmount), true})
	if inv.AmountPaid > 0 {
		rows = append(rows,
			row{"Paid to date", "-" + formatRand(inv.AmountPaid), false},
			row{"BALANCE", formatRand(inv.Balance()), true},
		)
	}

	labelW := pageWidth - 70 - colAmount
	for _, rw := range rows {
		style := ""
		border := ""
		if rw.bold {
			style = "B"
			border = "T"
		}
		doc.SetFont("Helvetica", style, 10)
		doc.CellFormat(70, 6, "", "", 0, "L", false, 0, "")
		doc.CellFormat(labelW, 6, rw.label, border, 0, "R", false, 0, "")
		doc.CellFormat(colAmount, 6, rw.amount, border, 1, "R", false, 0, "")
	}
	doc.Ln(6)
}

func (r *Renderer) drawBanking(doc *gofpdf.Fpdf, adv *domain.Advocate, inv domain.Invoice) {
	if adv.BankName == "" && adv.BankAccount == "" {
		return
	}
	doc.SetFont("Helvetica", "B", 9)
	doc.SetTextColor(90, 90, 90)
	doc.CellFormat(pageWidth, 5, "BANKING DETAILS", "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 9)
	doc.SetTextColor(20, 20, 20)
	lines := []string{
		"Bank: " + adv.BankName,
		"Account: " + adv.BankAccount,
	}
	if adv.BankBranchCode != "" {
		lines = append(lines, "Branch code: "+adv.BankBranchCode)
	}
	lines = append(lines, "Reference: "+inv.InvoiceNumber)
	for _, line := range lines {
		doc.CellFormat(pageWidth, 4.5, line, "", 1, "L", false, 0, "")
	}
}

func formatDate(t time.Time) string {
	return t.Format("02 January 2006")
}

func formatHours(minutes int) string {
	return strconv.FormatFloat(float64(minutes)/60.0, 'f', 2, 64)
}

// formatRand renders an amount as "R 12 345.67" with the South African
// space thousands separator.
func formatRand(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	lead := len(whole) % 3
	if lead > 0 {
		b.WriteString(whole[:lead])
	}
	for i := lead; i < len(whole); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(whole[i : i+3])
	}

	out := "R " + b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}
