// Package stats reduces ledger contents to daily and lifetime figures.
package stats

import (
	"context"
	"log/slog"

	"github.com/satheeshds/repairbook/ledger"
	"github.com/satheeshds/repairbook/models"
)

// RecentLimit is the number of trailing invoices reported for today.
const RecentLimit = 5

// TodayStats summarises one day partition.
type TodayStats struct {
	InvoiceCount   int                    `json:"invoices_today"`
	TotalSales     float64                `json:"earnings_today"`
	LaborEarnings  float64                `json:"labor_today"`
	ItemsSold      int                    `json:"items_sold"`
	AverageInvoice float64                `json:"average_invoice"`
	Recent         []models.InvoiceRecord `json:"recent_invoices"`
}

// AllTimeStats summarises every day partition of a user.
type AllTimeStats struct {
	TotalInvoices        int     `json:"total_invoices"`
	TotalSales           float64 `json:"total_earnings"`
	LaborEarnings        float64 `json:"labor_earnings"`
	ItemsSold            int     `json:"items_sold"`
	AverageInvoice       float64 `json:"average_invoice"`
	DaysActive           int     `json:"days_active"`
	AverageDailyEarnings float64 `json:"average_daily"`
}

// Dashboard combines both views with the next invoice number.
type Dashboard struct {
	Today       TodayStats   `json:"today"`
	AllTime     AllTimeStats `json:"all_time"`
	NextInvoice string       `json:"next_invoice_number"`
}

// SummarizeDay reduces the records of a single day.
func SummarizeDay(records []models.InvoiceRecord) TodayStats {
	s := TodayStats{Recent: []models.InvoiceRecord{}}
	for _, rec := range records {
		s.TotalSales += rec.GrandTotal
		s.LaborEarnings += rec.Labor
		s.ItemsSold += len(rec.Items)
	}
	s.InvoiceCount = len(records)
	if s.InvoiceCount > 0 {
		s.AverageInvoice = s.TotalSales / float64(s.InvoiceCount)
	}
	start := len(records) - RecentLimit
	if start < 0 {
		start = 0
	}
	s.Recent = append(s.Recent, records[start:]...)
	return s
}

// Summarize reduces many days. Every day counts as active, including
// empty and unreadable ones; unreadable days add nothing else.
func Summarize(days []ledger.Day) AllTimeStats {
	var s AllTimeStats
	for _, d := range days {
		s.DaysActive++
		day := SummarizeDay(d.Records)
		s.TotalInvoices += day.InvoiceCount
		s.TotalSales += day.TotalSales
		s.LaborEarnings += day.LaborEarnings
		s.ItemsSold += day.ItemsSold
	}
	if s.TotalInvoices > 0 {
		s.AverageInvoice = s.TotalSales / float64(s.TotalInvoices)
	}
	if s.DaysActive > 0 {
		s.AverageDailyEarnings = s.LaborEarnings / float64(s.DaysActive)
	}
	return s
}

type Aggregator struct {
	ledger *ledger.Ledger
	log    *slog.Logger
}

func NewAggregator(l *ledger.Ledger, log *slog.Logger) *Aggregator {
	if log == nil {
		log = slog.Default()
	}
	return &Aggregator{ledger: l, log: log}
}

// Today never fails; an unreadable partition yields zeroed stats.
func (a *Aggregator) Today(ctx context.Context, userID string) TodayStats {
	day := a.ledger.TodayRecords(ctx, userID)
	if day.State == ledger.DayUnreadable {
		a.log.Warn("today's ledger unreadable, reporting zero", "user", userID, "day", day.Date, "error", day.Err)
		return SummarizeDay(nil)
	}
	return SummarizeDay(day.Records)
}

// AllTime never fails; unreadable partitions are skipped and logged.
func (a *Aggregator) AllTime(ctx context.Context, userID string) AllTimeStats {
	days, err := a.ledger.Days(ctx, userID)
	if err != nil {
		a.log.Warn("listing ledger days failed, reporting zero", "user", userID, "error", err)
		return AllTimeStats{}
	}
	for _, d := range days {
		if d.State == ledger.DayUnreadable {
			a.log.Warn("skipping unreadable ledger day", "user", userID, "day", d.Date, "error", d.Err)
		}
	}
	return Summarize(days)
}

func (a *Aggregator) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	next, err := a.ledger.NextInvoiceNumber(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{
		Today:       a.Today(ctx, userID),
		AllTime:     a.AllTime(ctx, userID),
		NextInvoice: next,
	}, nil
}
