// Package pdf renders a finalized invoice as a downloadable PDF document.
package pdf

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/qalinsara/rechnung/internal/calculator"
	"github.com/qalinsara/rechnung/internal/models"
)

// Company is the issuer block printed in the document header.
type Company struct {
	Name   string
	Street string
	City   string
	Phone  string
}

// Renderer builds invoice PDFs for one company.
type Renderer struct {
	company Company
}

// NewRenderer creates a renderer with the given company header data.
func NewRenderer(company Company) *Renderer {
	return &Renderer{company: company}
}

// Filename returns the download name for an invoice document.
func Filename(inv *models.Invoice) string {
	if inv.InvoiceNumber == "" {
		return "rechnung.pdf"
	}
	return inv.InvoiceNumber + ".pdf"
}

// Render produces the PDF bytes for an invoice: company header (logo when
// available), customer block, line-item table and totals block including the
// optional tax, deposit, tax-ID and exemption-note lines. logo may be nil.
func (r *Renderer) Render(inv *models.Invoice, settings models.Settings, logo []byte) ([]byte, error) {
	totals := calculator.Compute(inv.Items, calculator.Options{
		ApplyVAT:      true,
		VATPercent:    inv.VATPercent,
		ExemptionNote: settings.SmallBusinessNote,
		ApplyDeposit:  inv.Deposit > 0,
		Deposit:       inv.Deposit,
	})

	doc := gofpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetMargins(15, 15, 15)
	doc.AliasNbPages("")
	doc.SetFooterFunc(func() {
		doc.SetY(-15)
		doc.SetFont("Helvetica", "", 8)
		doc.CellFormat(0, 10,
			tr(fmt.Sprintf("Seite %d von {nb}", doc.PageNo())),
			"", 0, "L", false, 0, "")
		doc.CellFormat(0, 10, tr(r.company.Name), "", 0, "R", false, 0, "")
	})
	doc.AddPage()

	r.header(doc, tr, inv, logo)
	r.customerBlock(doc, tr, inv)
	r.itemTable(doc, tr, inv)
	r.totalsBlock(doc, tr, inv, settings, totals)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) header(doc *gofpdf.Fpdf, tr func(string) string, inv *models.Invoice, logo []byte) {
	top := doc.GetY()

	if len(logo) > 0 {
		opts := gofpdf.ImageOptions{ImageType: imageType(logo)}
		doc.RegisterImageOptionsReader("logo", opts, bytes.NewReader(logo))
		doc.ImageOptions("logo", 15, top, 25, 0, false, opts, 0, "")
		doc.SetY(top + 28)
	} else {
		doc.SetFont("Helvetica", "B", 16)
		doc.CellFormat(0, 8, tr(r.company.Name), "", 1, "L", false, 0, "")
	}
	doc.SetFont("Helvetica", "", 9)
	for _, line := range []string{r.company.Street, r.company.City, r.company.Phone} {
		if line != "" {
			doc.CellFormat(0, 4.5, tr(line), "", 1, "L", false, 0, "")
		}
	}

	doc.SetY(top)
	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(0, 5, tr("Rechnung Nr.: "+inv.InvoiceNumber), "", 1, "R", false, 0, "")
	doc.CellFormat(0, 5, tr("Rechnungsdatum: "+inv.IssueDate), "", 1, "R", false, 0, "")
	doc.CellFormat(0, 5, tr("Liefer-/Leistungsdatum: "+inv.ServiceDate), "", 1, "R", false, 0, "")
	doc.Ln(12)
}

func (r *Renderer) customerBlock(doc *gofpdf.Fpdf, tr func(string) string, inv *models.Invoice) {
	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(0, 6, tr("Rechnung an"), "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(0, 5, tr(inv.CustomerName), "", 1, "L", false, 0, "")
	for _, line := range strings.Split(inv.CustomerAddress, "\n") {
		if line != "" {
			doc.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
		}
	}
	if inv.CustomerPhone != "" {
		doc.CellFormat(0, 5, tr(inv.CustomerPhone), "", 1, "L", false, 0, "")
	}
	doc.Ln(6)
}

func (r *Renderer) itemTable(doc *gofpdf.Fpdf, tr func(string) string, inv *models.Invoice) {
	widths := []float64{85, 30, 30, 35}
	headers := []string{"Artikel", "Menge (m²)", "Einzelpreis (€)", "Gesamt (€)"}

	doc.SetFont("Helvetica", "B", 10)
	doc.SetFillColor(243, 244, 246)
	for i, h := range headers {
		align := "R"
		if i == 0 {
			align = "L"
		}
		doc.CellFormat(widths[i], 7, tr(h), "1", 0, align, true, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont("Helvetica", "", 10)
	for _, item := range inv.Items {
		doc.CellFormat(widths[0], 6, tr(item.Description), "1", 0, "L", false, 0, "")
		doc.CellFormat(widths[1], 6, formatAmount(item.Quantity), "1", 0, "R", false, 0, "")
		doc.CellFormat(widths[2], 6, formatAmount(item.UnitPrice), "1", 0, "R", false, 0, "")
		doc.CellFormat(widths[3], 6, formatAmount(calculator.LineTotal(item)), "1", 0, "R", false, 0, "")
		doc.Ln(-1)
	}
	doc.Ln(6)
}

func (r *Renderer) totalsBlock(doc *gofpdf.Fpdf, tr func(string) string, inv *models.Invoice, settings models.Settings, totals calculator.Totals) {
	label := func(text string, amount float64, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		doc.SetFont("Helvetica", style, 10)
		doc.CellFormat(110, 6, "", "", 0, "L", false, 0, "")
		doc.CellFormat(40, 6, tr(text), "", 0, "L", false, 0, "")
		doc.CellFormat(30, 6, formatAmount(amount)+" "+tr("€"), "", 1, "R", false, 0, "")
	}

	if totals.HasTax {
		label("Zwischensumme", totals.Subtotal, false)
		label(fmt.Sprintf("zzgl. %s%% MwSt.", formatAmount(inv.VATPercent)), totals.Tax, false)
	}
	label("Gesamtsumme", totals.GrandTotal, true)
	if totals.HasDeposit {
		label("Anzahlung", totals.Deposit, false)
		label("Restbetrag", totals.Remainder, true)
	}

	doc.Ln(6)
	doc.SetFont("Helvetica", "", 9)
	if settings.TaxID != "" {
		doc.CellFormat(0, 5, tr("Steuernummer/USt-IdNr.: "+settings.TaxID), "", 1, "L", false, 0, "")
	}
	if totals.Note != "" {
		doc.CellFormat(0, 5, tr(totals.Note), "", 1, "L", false, 0, "")
	}
	if settings.BankIBAN != "" {
		doc.Ln(2)
		doc.CellFormat(0, 5, tr("Bankverbindung: "+settings.BankOwner), "", 1, "L", false, 0, "")
		doc.CellFormat(0, 5, tr(settings.BankName+"  IBAN: "+settings.BankIBAN+"  BIC: "+settings.BankBIC), "", 1, "L", false, 0, "")
	}
}

// formatAmount renders a number with German separators and two decimals,
// e.g. 1234.5 -> "1.234,50". Display concern only; stored values stay raw.
func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	parts := strings.SplitN(s, ".", 2)
	if len(parts) < 2 {
		// NaN and infinities carry no decimal point.
		return "0,00"
	}
	intPart, frac := parts[0], parts[1]

	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var grouped []string
	for len(intPart) > 3 {
		grouped = append([]string{intPart[len(intPart)-3:]}, grouped...)
		intPart = intPart[:len(intPart)-3]
	}
	grouped = append([]string{intPart}, grouped...)

	out := strings.Join(grouped, ".") + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}
