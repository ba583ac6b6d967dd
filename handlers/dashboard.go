package handlers

import (
	"net/http"
	"strconv"

	"github.com/satheeshds/repairbook/render"
	"github.com/satheeshds/repairbook/report"
)

// GetTodayStats retrieves today's statistics
// @Summary      Today's statistics
// @Description  Invoice count, earnings, labor, items sold, average invoice and the five most recent invoices.
// @Tags         stats
// @Produce      json
// @Success      200  {object}  Response{data=stats.TodayStats}
// @Router       /stats/today [get]
// @Security     BasicAuth
func (a *API) GetTodayStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Stats.Today(r.Context(), userID(r)))
}

// GetAllTimeStats retrieves statistics over every recorded day
// @Summary      All-time statistics
// @Tags         stats
// @Produce      json
// @Success      200  {object}  Response{data=stats.AllTimeStats}
// @Router       /stats/alltime [get]
// @Security     BasicAuth
func (a *API) GetAllTimeStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Stats.AllTime(r.Context(), userID(r)))
}

// GetDashboard retrieves dashboard summary statistics
// @Summary      Get dashboard
// @Description  Today's and all-time statistics together with the next invoice number.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  Response{data=stats.Dashboard}
// @Failure      500  {object}  Response{error=string}
// @Router       /dashboard [get]
// @Security     BasicAuth
func (a *API) GetDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := a.Stats.Dashboard(r.Context(), userID(r))
	if err != nil {
		a.Log.Error("building dashboard failed", "user", userID(r), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build dashboard")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// GetDailyReport retrieves per-day totals
// @Summary      Daily report
// @Description  One row per recorded day with invoice count, sales, labor, discount and items.
// @Tags         stats
// @Produce      json
// @Success      200  {object}  Response{data=[]report.DailyRow}
// @Failure      500  {object}  Response{error=string}
// @Router       /reports/daily [get]
// @Security     BasicAuth
func (a *API) GetDailyReport(w http.ResponseWriter, r *http.Request) {
	days, err := a.Ledger.Days(r.Context(), userID(r))
	if err != nil {
		a.Log.Error("listing ledger days failed", "user", userID(r), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	rows, err := report.Daily(r.Context(), days)
	if err != nil {
		a.Log.Error("daily report failed", "user", userID(r), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GetQuickMessages returns ready-made customer messages
// @Summary      Quick messages
// @Description  Pre-written customer messages with the amount filled in, in the profile's currency.
// @Tags         messages
// @Produce      json
// @Param        amount  query     number  false  "Amount to quote"
// @Success      200     {object}  Response{data=[]string}
// @Failure      400     {object}  Response{error=string}
// @Router       /messages [get]
// @Security     BasicAuth
func (a *API) GetQuickMessages(w http.ResponseWriter, r *http.Request) {
	var amount float64
	if s := r.URL.Query().Get("amount"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "amount must be a non-negative number")
			return
		}
		amount = v
	}
	p := a.Profiles.Load(r.Context(), userID(r))
	writeJSON(w, http.StatusOK, render.QuickMessages(p.Currency, amount))
}
