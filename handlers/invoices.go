package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/satheeshds/repairbook/invoicing"
	"github.com/satheeshds/repairbook/ledger"
	"github.com/satheeshds/repairbook/models"
)

type todayInvoices struct {
	Date     string                 `json:"date"`
	State    string                 `json:"state"`
	Invoices []models.InvoiceRecord `json:"invoices"`
}

// ListTodayInvoices lists the invoices recorded today
// @Summary      List today's invoices
// @Description  Get every invoice in today's ledger, oldest first. state is absent, loaded or unreadable.
// @Tags         invoices
// @Produce      json
// @Param        X-Session-Token  header    string  false  "Session token"
// @Success      200              {object}  Response{data=todayInvoices}
// @Router       /invoices/today [get]
// @Security     BasicAuth
func (a *API) ListTodayInvoices(w http.ResponseWriter, r *http.Request) {
	d := a.Ledger.TodayRecords(r.Context(), userID(r))
	if d.State == ledger.DayUnreadable {
		a.Log.Warn("today's ledger unreadable", "user", userID(r), "day", d.Date, "error", d.Err)
	}
	writeJSON(w, http.StatusOK, todayInvoices{Date: d.Date, State: d.State.String(), Invoices: d.Records})
}

// ClearTodayInvoices deletes today's ledger
// @Summary      Clear today's invoices
// @Description  Delete every invoice recorded today. The invoice counter is not rolled back.
// @Tags         invoices
// @Produce      json
// @Success      200  {object}  Response{data=map[string]bool}
// @Failure      500  {object}  Response{error=string}
// @Router       /invoices/today [delete]
// @Security     BasicAuth
func (a *API) ClearTodayInvoices(w http.ResponseWriter, r *http.Request) {
	removed, err := a.Ledger.ClearToday(r.Context(), userID(r))
	if err != nil {
		a.Log.Error("clearing today's invoices failed", "user", userID(r), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear today's invoices")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": removed})
}

// GetNextInvoiceNumber reports the number the next invoice will get
// @Summary      Next invoice number
// @Tags         invoices
// @Produce      json
// @Success      200  {object}  Response{data=map[string]string}
// @Failure      500  {object}  Response{error=string}
// @Router       /invoices/next-number [get]
// @Security     BasicAuth
func (a *API) GetNextInvoiceNumber(w http.ResponseWriter, r *http.Request) {
	n, err := a.Ledger.NextInvoiceNumber(r.Context(), userID(r))
	if err != nil {
		a.Log.Error("reading invoice counter failed", "user", userID(r), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read invoice counter")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"next_invoice_number": n})
}

// GetInvoiceDocument downloads the PDF of an invoice
// @Summary      Download invoice document
// @Tags         invoices
// @Produce      application/pdf
// @Param        number  path      string  true  "Invoice number, e.g. INV-1000"
// @Success      200     {file}    file
// @Failure      404     {object}  Response{error=string}
// @Router       /invoices/{number}/document [get]
// @Security     BasicAuth
func (a *API) GetInvoiceDocument(w http.ResponseWriter, r *http.Request) {
	data, name, err := a.Invoices.Document(userID(r), chi.URLParam(r, "number"))
	switch {
	case errors.Is(err, invoicing.ErrNoDocument):
		writeError(w, http.StatusNotFound, "document not found")
		return
	case errors.Is(err, ledger.ErrInvalidUser):
		writeError(w, http.StatusBadRequest, "invalid session")
		return
	case err != nil:
		a.Log.Error("reading invoice document failed", "user", userID(r), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read document")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
