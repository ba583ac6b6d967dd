package render

import (
	"net/url"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/satheeshds/repairbook/models"
)

// MaxDescription is the longest item description printed unabridged.
const MaxDescription = 40

const ellipsis = "..."

var printer = message.NewPrinter(language.English)

// FormatAmount groups thousands and keeps at most two decimals.
func FormatAmount(v float64) string {
	return printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(2)))
}

// FormatMoney prefixes FormatAmount with the currency label.
func FormatMoney(currency string, v float64) string {
	return currency + " " + FormatAmount(v)
}

// TruncateDescription shortens s to MaxDescription runes, marking the cut.
func TruncateDescription(s string) string {
	r := []rune(s)
	if len(r) <= MaxDescription {
		return s
	}
	return string(r[:MaxDescription-len(ellipsis)]) + ellipsis
}

// DocumentFilename names the stored document of an invoice.
func DocumentFilename(invoiceNumber string) string {
	return "invoice_" + invoiceNumber + ".pdf"
}

// ShareMessage is the plain-text summary sent to the customer.
func ShareMessage(rec models.InvoiceRecord, p models.WorkshopProfile) string {
	var b strings.Builder
	b.WriteString("Invoice " + rec.InvoiceNumber + "\n")
	b.WriteString("Customer: " + rec.CustomerName + "\n")
	b.WriteString("Car: " + rec.CarDetails + "\n")
	b.WriteString("Date: " + rec.Date.Format("02/01/2006") + "\n")
	b.WriteString("Total: " + FormatMoney(p.Currency, rec.GrandTotal) + "\n")
	b.WriteString(p.WorkshopName)
	return b.String()
}

// ShareLink returns a WhatsApp deep link carrying ShareMessage.
func ShareLink(rec models.InvoiceRecord, p models.WorkshopProfile) string {
	return "https://wa.me/?text=" + percentEncode(ShareMessage(rec, p))
}

func percentEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// QuickMessages are the canned customer messages with amount filled in.
func QuickMessages(currency string, amount float64) []string {
	total := FormatMoney(currency, amount)
	return []string{
		"Assalam-o-Alaikum! Your car is ready for pickup. Total: " + total,
		"Assalam-o-Alaikum! Need approval for additional repair. Estimate: " + total,
		"Assalam-o-Alaikum! Part arrived. Can complete repair today.",
		"Assalam-o-Alaikum! Car wash completed. Ready for delivery.",
	}
}
