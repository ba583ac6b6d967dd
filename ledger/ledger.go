package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/satheeshds/repairbook/models"
)

const (
	// NumberPrefix starts every invoice number.
	NumberPrefix = "INV-"
	// CounterBase is added to the historical invoice count when a user
	// has no stored counter.
	CounterBase = 1000
)

// FormatNumber renders counter value n as an invoice number.
func FormatNumber(n int) string {
	return fmt.Sprintf("%s%04d", NumberPrefix, n)
}

// ParseNumber extracts the counter value from an invoice number.
func ParseNumber(s string) (int, bool) {
	if !strings.HasPrefix(s, NumberPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s, NumberPrefix))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Ledger is the per-user invoice log with day partitions taken from its
// own clock. Writes for one user are serialised within the process.
type Ledger struct {
	store Store
	clock Clock
	log   *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(store Store, clock Clock, log *slog.Logger) *Ledger {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{store: store, clock: clock, log: log, locks: make(map[string]*sync.Mutex)}
}

func (l *Ledger) userLock(userID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	return m
}

// Now reads the ledger's clock.
func (l *Ledger) Now() time.Time { return l.clock.Now() }

// Today returns the day partition name for the ledger's current time.
func (l *Ledger) Today() string {
	return l.Now().Format(DayLayout)
}

// Append adds rec to today's partition.
func (l *Ledger) Append(ctx context.Context, userID string, rec models.InvoiceRecord) error {
	m := l.userLock(userID)
	m.Lock()
	defer m.Unlock()
	return l.store.Append(ctx, userID, l.Today(), rec)
}

// TodayRecords reads today's partition.
func (l *Ledger) TodayRecords(ctx context.Context, userID string) Day {
	return l.store.ReadDay(ctx, userID, l.Today())
}

// Days reads every partition the user has, in date order.
func (l *Ledger) Days(ctx context.Context, userID string) ([]Day, error) {
	names, err := l.store.ListDays(ctx, userID)
	if err != nil {
		return nil, err
	}
	days := make([]Day, 0, len(names))
	for _, name := range names {
		days = append(days, l.store.ReadDay(ctx, userID, name))
	}
	return days, nil
}

// ClearToday deletes today's partition. The counter is left untouched, so
// numbers issued today are not reused.
func (l *Ledger) ClearToday(ctx context.Context, userID string) (bool, error) {
	m := l.userLock(userID)
	m.Lock()
	defer m.Unlock()
	removed, err := l.store.ClearDay(ctx, userID, l.Today())
	if err != nil {
		return false, err
	}
	if removed {
		l.log.Info("cleared today's invoices", "user", userID, "day", l.Today())
	}
	return removed, nil
}

// NextInvoiceNumber reports the number the next committed invoice gets.
func (l *Ledger) NextInvoiceNumber(ctx context.Context, userID string) (string, error) {
	m := l.userLock(userID)
	m.Lock()
	defer m.Unlock()
	n, err := l.counter(ctx, userID, l.Today())
	if err != nil {
		return "", err
	}
	return FormatNumber(n), nil
}

// Issue mints the next number, builds the record with it, appends the
// record and then advances the counter. The record is durable before
// the counter moves. The record's date and its day partition come from
// the same clock reading.
func (l *Ledger) Issue(ctx context.Context, userID string, build func(number string, now time.Time) (models.InvoiceRecord, error)) (models.InvoiceRecord, error) {
	m := l.userLock(userID)
	m.Lock()
	defer m.Unlock()

	now := l.Now()
	day := now.Format(DayLayout)
	n, err := l.counter(ctx, userID, day)
	if err != nil {
		return models.InvoiceRecord{}, err
	}
	rec, err := build(FormatNumber(n), now)
	if err != nil {
		return models.InvoiceRecord{}, err
	}
	if err := l.store.Append(ctx, userID, day, rec); err != nil {
		return models.InvoiceRecord{}, fmt.Errorf("appending invoice: %w", err)
	}
	if err := l.store.SaveCounter(ctx, userID, n+1); err != nil {
		// Reconciliation against the day partition recovers the value.
		l.log.Error("failed to persist invoice counter", "user", userID, "counter", n+1, "error", err)
	}
	l.log.Info("invoice issued", "user", userID, "number", rec.InvoiceNumber, "day", day, "grand_total", rec.GrandTotal)
	return rec, nil
}

// counter returns the stored counter, bootstrapping it from the invoice
// count when absent, and moves it past any number already used on day.
// Callers hold the user lock.
func (l *Ledger) counter(ctx context.Context, userID, day string) (int, error) {
	n, ok, err := l.store.LoadCounter(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("loading counter: %w", err)
	}
	if !ok {
		days, err := l.Days(ctx, userID)
		if err != nil {
			return 0, fmt.Errorf("counting invoices: %w", err)
		}
		total := 0
		for _, d := range days {
			total += len(d.Records)
		}
		n = CounterBase + total
		l.log.Debug("bootstrapped invoice counter", "user", userID, "counter", n)
	}

	current := l.store.ReadDay(ctx, userID, day)
	for _, rec := range current.Records {
		if used, ok := ParseNumber(rec.InvoiceNumber); ok && used >= n {
			l.log.Warn("invoice counter behind ledger, advancing", "user", userID, "counter", n, "used", used)
			n = used + 1
		}
	}
	return n, nil
}
