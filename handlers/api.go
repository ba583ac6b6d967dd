package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/satheeshds/repairbook/drafts"
	"github.com/satheeshds/repairbook/invoicing"
	"github.com/satheeshds/repairbook/ledger"
	"github.com/satheeshds/repairbook/profile"
	"github.com/satheeshds/repairbook/stats"
)

// API holds the services the HTTP handlers work against.
type API struct {
	Ledger   *ledger.Ledger
	Profiles profile.Store
	Drafts   *drafts.Store
	Invoices *invoicing.Service
	Stats    *stats.Aggregator
	Log      *slog.Logger
}

// Routes mounts every API endpoint on r. Callers add authentication.
func (a *API) Routes(r chi.Router) {
	r.Use(Identify)

	// Profile
	r.Get("/profile", a.GetProfile)
	r.Put("/profile", a.UpdateProfile)

	// Drafts
	r.Post("/drafts", a.CreateDraft)
	r.Get("/drafts/{id}", a.GetDraft)
	r.Put("/drafts/{id}", a.UpdateDraft)
	r.Delete("/drafts/{id}", a.DeleteDraft)
	r.Post("/drafts/{id}/items", a.AddDraftItem)
	r.Delete("/drafts/{id}/items/{itemID}", a.RemoveDraftItem)
	r.Post("/drafts/{id}/reset", a.ResetDraft)
	r.Post("/drafts/{id}/commit", a.CommitDraft)

	// Invoices
	r.Get("/invoices/today", a.ListTodayInvoices)
	r.Delete("/invoices/today", a.ClearTodayInvoices)
	r.Get("/invoices/next-number", a.GetNextInvoiceNumber)
	r.Get("/invoices/{number}/document", a.GetInvoiceDocument)

	// Statistics
	r.Get("/stats/today", a.GetTodayStats)
	r.Get("/stats/alltime", a.GetAllTimeStats)
	r.Get("/dashboard", a.GetDashboard)
	r.Get("/reports/daily", a.GetDailyReport)
	r.Get("/messages", a.GetQuickMessages)
}

// Healthz reports liveness.
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  Response{data=map[string]string}
// @Router       /healthz [get]
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
