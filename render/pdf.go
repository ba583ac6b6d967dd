// Package render turns committed invoices into printable documents and
// customer-facing messages.
package render

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/satheeshds/repairbook/models"
)

const (
	fontFamily = "Arial"
	lineHeight = 10.0

	colDescription = 100.0
	colQty         = 30.0
	colPrice       = 30.0
	colTotal       = 30.0

	labelWidth = 140.0
	valueWidth = 50.0
)

// PDF lays out rec on a single A4 page. The layout is fixed; only
// description truncation depends on content.
func PDF(rec models.InvoiceRecord, p models.WorkshopProfile) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+rec.InvoiceNumber, true)
	pdf.SetCreationDate(rec.Date.Time)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	cur := p.Currency
	pdf.AddPage()

	// Workshop header.
	pdf.SetFont(fontFamily, "B", 18)
	pdf.CellFormat(0, lineHeight, tr(p.WorkshopName), "", 1, "C", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	for _, line := range []string{p.Address, p.Phone, p.Email} {
		if line != "" {
			pdf.CellFormat(0, 6, tr(line), "", 1, "C", false, 0, "")
		}
	}
	pdf.Ln(4)
	pdf.SetFont(fontFamily, "B", 16)
	pdf.CellFormat(0, lineHeight, "CAR REPAIR INVOICE", "", 1, "C", false, 0, "")

	// Customer and vehicle.
	pdf.SetFont(fontFamily, "", 12)
	pdf.CellFormat(0, lineHeight, tr("Customer: "+rec.CustomerName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight, tr("Car: "+rec.CarDetails), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight, "Date: "+rec.Date.Format("02/01/2006"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight, "Invoice #: "+rec.InvoiceNumber, "", 1, "L", false, 0, "")
	pdf.Ln(lineHeight)

	// Items.
	pdf.SetFont(fontFamily, "B", 12)
	pdf.CellFormat(colDescription, lineHeight, "Description", "1", 0, "C", false, 0, "")
	pdf.CellFormat(colQty, lineHeight, "Qty", "1", 0, "C", false, 0, "")
	pdf.CellFormat(colPrice, lineHeight, tr(fmt.Sprintf("Price (%s)", cur)), "1", 0, "C", false, 0, "")
	pdf.CellFormat(colTotal, lineHeight, tr(fmt.Sprintf("Total (%s)", cur)), "1", 1, "C", false, 0, "")
	pdf.SetFont(fontFamily, "", 12)
	for _, it := range rec.Items {
		pdf.CellFormat(colDescription, lineHeight, tr(TruncateDescription(it.Description)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colQty, lineHeight, strconv.Itoa(it.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colPrice, lineHeight, FormatAmount(it.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colTotal, lineHeight, FormatAmount(it.LineTotal), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(lineHeight)

	// Totals.
	totalRow := func(label, value string, h float64) {
		pdf.CellFormat(labelWidth, h, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(valueWidth, h, tr(value), "", 1, "R", false, 0, "")
	}
	totalRow("Subtotal:", FormatMoney(cur, rec.Subtotal), lineHeight)
	if rec.Labor != 0 {
		totalRow("Labor Charges:", FormatMoney(cur, rec.Labor), lineHeight)
	}
	if rec.Discount != 0 {
		totalRow("Discount:", "- "+FormatMoney(cur, rec.Discount), lineHeight)
	}
	pdf.SetFont(fontFamily, "B", 14)
	totalRow("GRAND TOTAL:", FormatMoney(cur, rec.GrandTotal), 15)
	pdf.Ln(lineHeight)

	// Footer.
	pdf.SetFont(fontFamily, "I", 10)
	pdf.CellFormat(0, lineHeight, "Thank you for your business!", "", 1, "C", false, 0, "")
	pdf.CellFormat(0, lineHeight, tr("Phone: "+p.Phone), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, lineHeight, tr("Workshop: "+p.WorkshopName), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering invoice %s: %w", rec.InvoiceNumber, err)
	}
	return buf.Bytes(), nil
}
