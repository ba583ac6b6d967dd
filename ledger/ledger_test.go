package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/satheeshds/repairbook/models"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2026, 10, 16, 9, 15, 0, 0, time.Local)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestLedger(t *testing.T) (*Ledger, *FileStore, string) {
	t.Helper()
	root := t.TempDir()
	store := NewFileStore(root, quietLogger())
	return New(store, fixedClock{testNow}, quietLogger()), store, root
}

func sampleRecord(number string, grand float64) models.InvoiceRecord {
	item := models.NewRepairItem(models.RepairItemInput{Description: "Brake pads", Quantity: 1, UnitPrice: grand})
	return models.InvoiceRecord{
		InvoiceNumber: number,
		CustomerName:  "Ali",
		CarDetails:    "Corolla",
		Date:          models.Timestamp{Time: testNow},
		Items:         []models.RepairItem{item},
		Subtotal:      grand,
		GrandTotal:    grand,
		UserID:        "u1",
		WorkshopName:  "AutoCare",
	}
}

func writeDay(t *testing.T, root, user, day string, body string) string {
	t.Helper()
	dir := filepath.Join(root, user)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, "invoices_"+day+".json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write day: %v", err)
	}
	return path
}

func TestAppendRoundTrip(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()

	first := sampleRecord("INV-1000", 100)
	second := sampleRecord("INV-1001", 250)
	if err := l.Append(ctx, "u1", first); err != nil {
		t.Fatalf("append first: %v", err)
	}
	if err := l.Append(ctx, "u1", second); err != nil {
		t.Fatalf("append second: %v", err)
	}

	day := l.TodayRecords(ctx, "u1")
	if day.State != DayLoaded {
		t.Fatalf("expected loaded day, got %s (%v)", day.State, day.Err)
	}
	if len(day.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(day.Records))
	}
	last := day.Records[1]
	if last.InvoiceNumber != second.InvoiceNumber || last.GrandTotal != second.GrandTotal ||
		!last.Date.Equal(second.Date.Time) || len(last.Items) != 1 || last.Items[0] != second.Items[0] {
		t.Fatalf("round trip mismatch: got %+v want %+v", last, second)
	}
	if day.Date != "2026-10-16" {
		t.Fatalf("expected today's partition, got %q", day.Date)
	}
}

func TestReadDayAbsentAndUnreadable(t *testing.T) {
	l, _, root := newTestLedger(t)
	ctx := context.Background()

	if day := l.TodayRecords(ctx, "u1"); day.State != DayAbsent || len(day.Records) != 0 {
		t.Fatalf("expected absent empty day, got %+v", day)
	}

	writeDay(t, root, "u1", "2026-10-16", `{not json`)
	day := l.TodayRecords(ctx, "u1")
	if day.State != DayUnreadable || day.Err == nil {
		t.Fatalf("expected unreadable day with error, got %+v", day)
	}
	if day.Records == nil {
		t.Fatalf("records must never be nil")
	}
}

func TestReadDaySkipsMalformedEntries(t *testing.T) {
	l, _, root := newTestLedger(t)
	writeDay(t, root, "u1", "2026-10-16", `[{"invoice_number":"INV-1000","grand_total":10}, 42, {"invoice_number":"INV-1001","grand_total":5}]`)

	day := l.TodayRecords(context.Background(), "u1")
	if day.State != DayLoaded || len(day.Records) != 2 {
		t.Fatalf("expected 2 valid records, got %+v", day)
	}
}

func TestAppendKeepsEntriesThatFailToDecode(t *testing.T) {
	l, _, root := newTestLedger(t)
	ctx := context.Background()
	path := writeDay(t, root, "u1", "2026-10-16", `[
		{"invoice_number":"INV-1000","grand_total":10,"date":"2026-10-16 08:00:00"},
		{"invoice_number":"INV-1001","grand_total":500,"labor":100,"date":"2026-10-16T08:30:00","items":[{"desc":"Oil","qty":"2","price":250}]},
		42
	]`)

	if err := l.Append(ctx, "u1", sampleRecord("INV-1002", 30)); err != nil {
		t.Fatalf("append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var onDisk []json.RawMessage
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("day file no longer valid JSON: %v", err)
	}
	if len(onDisk) != 4 {
		t.Fatalf("expected 4 entries on disk, got %d", len(onDisk))
	}
	if string(onDisk[2]) != "42" {
		t.Fatalf("expected non-object entry kept in place, got %s", onDisk[2])
	}
	if !strings.Contains(string(onDisk[1]), `"2026-10-16T08:30:00"`) || !strings.Contains(string(onDisk[1]), `"2"`) {
		t.Fatalf("expected INV-1001 written back unchanged, got %s", onDisk[1])
	}
	if matches, _ := filepath.Glob(path + ".corrupt-*"); len(matches) != 0 {
		t.Fatalf("readable file must not be quarantined, found %v", matches)
	}

	day := l.TodayRecords(ctx, "u1")
	if day.State != DayLoaded || len(day.Records) != 3 {
		t.Fatalf("expected 3 records, got %d (%v)", len(day.Records), day.State)
	}
	second := day.Records[1]
	if second.InvoiceNumber != "INV-1001" || second.GrandTotal != 500 || second.Items[0].Quantity != 2 {
		t.Fatalf("expected INV-1001 decoded leniently, got %+v", second)
	}
	if second.Date.Hour() != 8 || second.Date.Minute() != 30 {
		t.Fatalf("expected zone-less ISO date parsed as local time, got %v", second.Date.Time)
	}
}

// steppingClock returns its times in order, repeating the last one.
type steppingClock struct {
	mu    sync.Mutex
	times []time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.times[0]
	if len(c.times) > 1 {
		c.times = c.times[1:]
	}
	return t
}

func TestIssueAtMidnightUsesOneDay(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root, quietLogger())
	clock := &steppingClock{times: []time.Time{
		time.Date(2026, 10, 16, 23, 59, 59, 0, time.Local),
		time.Date(2026, 10, 17, 0, 0, 1, 0, time.Local),
	}}
	l := New(store, clock, quietLogger())
	ctx := context.Background()

	rec, err := l.Issue(ctx, "u1", func(number string, now time.Time) (models.InvoiceRecord, error) {
		r := sampleRecord(number, 10)
		r.Date = models.Timestamp{Time: now}
		return r, nil
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	partition := rec.Date.Format(DayLayout)
	if partition != "2026-10-16" {
		t.Fatalf("expected record dated 2026-10-16, got %s", partition)
	}
	if d := store.ReadDay(ctx, "u1", partition); len(d.Records) != 1 {
		t.Fatalf("expected record in its own day's file, got %+v", d)
	}
	if d := store.ReadDay(ctx, "u1", "2026-10-17"); d.State != DayAbsent {
		t.Fatalf("expected nothing in the next day's file, got %v", d.State)
	}
}

func TestAppendQuarantinesUnreadableFile(t *testing.T) {
	l, _, root := newTestLedger(t)
	ctx := context.Background()
	path := writeDay(t, root, "u1", "2026-10-16", `garbage`)

	if err := l.Append(ctx, "u1", sampleRecord("INV-1000", 10)); err != nil {
		t.Fatalf("append: %v", err)
	}
	day := l.TodayRecords(ctx, "u1")
	if day.State != DayLoaded || len(day.Records) != 1 {
		t.Fatalf("expected fresh day with 1 record, got %+v", day)
	}

	matches, _ := filepath.Glob(path + ".corrupt-*")
	if len(matches) != 1 {
		t.Fatalf("expected quarantined copy, found %v", matches)
	}
	data, _ := os.ReadFile(matches[0])
	if string(data) != "garbage" {
		t.Fatalf("quarantined content changed: %q", data)
	}
}

func TestClearToday(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()

	removed, err := l.ClearToday(ctx, "u1")
	if err != nil || removed {
		t.Fatalf("expected no-op on absent file, got %v %v", removed, err)
	}

	l.Append(ctx, "u1", sampleRecord("INV-1000", 10))
	removed, err = l.ClearToday(ctx, "u1")
	if err != nil || !removed {
		t.Fatalf("expected removal, got %v %v", removed, err)
	}
	if day := l.TodayRecords(ctx, "u1"); day.State != DayAbsent {
		t.Fatalf("expected absent day after clear, got %s", day.State)
	}
}

func TestListDaysIgnoresOtherFiles(t *testing.T) {
	l, _, root := newTestLedger(t)
	writeDay(t, root, "u1", "2026-10-15", `[]`)
	writeDay(t, root, "u1", "2026-10-01", `[]`)
	os.WriteFile(filepath.Join(root, "u1", "counter.json"), []byte(`{"counter":1}`), 0644)
	os.WriteFile(filepath.Join(root, "u1", "notes.txt"), []byte(`x`), 0644)

	days, err := l.Days(context.Background(), "u1")
	if err != nil {
		t.Fatalf("days: %v", err)
	}
	if len(days) != 2 || days[0].Date != "2026-10-01" || days[1].Date != "2026-10-15" {
		t.Fatalf("unexpected days %+v", days)
	}

	none, err := l.Days(context.Background(), "nobody")
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no days for unknown user, got %v %v", none, err)
	}
}

func TestInvalidUserRejected(t *testing.T) {
	l, _, _ := newTestLedger(t)
	err := l.Append(context.Background(), "../escape", sampleRecord("INV-1000", 1))
	if !errors.Is(err, ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser, got %v", err)
	}
}

func TestNextInvoiceNumberBootstrap(t *testing.T) {
	l, _, root := newTestLedger(t)
	ctx := context.Background()

	n, err := l.NextInvoiceNumber(ctx, "u1")
	if err != nil || n != "INV-1000" {
		t.Fatalf("expected INV-1000 for empty ledger, got %q %v", n, err)
	}

	writeDay(t, root, "u2", "2026-10-01", `[{"invoice_number":"A"},{"invoice_number":"B"}]`)
	writeDay(t, root, "u2", "2026-10-02", `[{"invoice_number":"C"}]`)
	n, err = l.NextInvoiceNumber(ctx, "u2")
	if err != nil || n != "INV-1003" {
		t.Fatalf("expected INV-1003 from 3 historical invoices, got %q %v", n, err)
	}
}

func TestIssueAdvancesCounterByOne(t *testing.T) {
	l, store, _ := newTestLedger(t)
	ctx := context.Background()

	before, _ := l.NextInvoiceNumber(ctx, "u1")
	rec, err := l.Issue(ctx, "u1", func(number string, now time.Time) (models.InvoiceRecord, error) {
		r := sampleRecord(number, 3800)
		r.Date = models.Timestamp{Time: now}
		return r, nil
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if rec.InvoiceNumber != before {
		t.Fatalf("expected issued number %q, got %q", before, rec.InvoiceNumber)
	}
	after, _ := l.NextInvoiceNumber(ctx, "u1")
	if after != "INV-1001" {
		t.Fatalf("expected counter to advance by one, got %q", after)
	}
	stored, ok, err := store.LoadCounter(ctx, "u1")
	if err != nil || !ok || stored != 1001 {
		t.Fatalf("expected persisted counter 1001, got %d %v %v", stored, ok, err)
	}
	if day := l.TodayRecords(ctx, "u1"); len(day.Records) != 1 {
		t.Fatalf("expected 1 record in ledger, got %d", len(day.Records))
	}
}

func TestIssueBuildErrorPersistsNothing(t *testing.T) {
	l, store, _ := newTestLedger(t)
	ctx := context.Background()
	wantErr := errors.New("invalid draft")

	_, err := l.Issue(ctx, "u1", func(string, time.Time) (models.InvoiceRecord, error) {
		return models.InvoiceRecord{}, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected build error, got %v", err)
	}
	if day := l.TodayRecords(ctx, "u1"); day.State != DayAbsent {
		t.Fatalf("expected nothing persisted, got %s", day.State)
	}
	if _, ok, _ := store.LoadCounter(ctx, "u1"); ok {
		t.Fatalf("expected no counter to be stored")
	}
}

func TestCounterReconcilesWithTodaysLedger(t *testing.T) {
	l, store, _ := newTestLedger(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := l.Issue(ctx, "u1", func(number string, now time.Time) (models.InvoiceRecord, error) {
			return sampleRecord(number, 10), nil
		}); err != nil {
			t.Fatalf("issue: %v", err)
		}
	}
	// Simulate a crash between append and counter persistence.
	if err := store.SaveCounter(ctx, "u1", 1000); err != nil {
		t.Fatalf("save counter: %v", err)
	}
	n, err := l.NextInvoiceNumber(ctx, "u1")
	if err != nil || n != "INV-1002" {
		t.Fatalf("expected reconciliation to INV-1002, got %q %v", n, err)
	}
}

func TestClearTodayKeepsCounter(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()

	l.Issue(ctx, "u1", func(number string, now time.Time) (models.InvoiceRecord, error) {
		return sampleRecord(number, 10), nil
	})
	l.ClearToday(ctx, "u1")
	n, _ := l.NextInvoiceNumber(ctx, "u1")
	if n != "INV-1001" {
		t.Fatalf("expected counter to stay at INV-1001 after clear, got %q", n)
	}
}

func TestCounterFileFormat(t *testing.T) {
	_, store, root := newTestLedger(t)
	if err := store.SaveCounter(context.Background(), "u1", 1042); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "u1", "counter.json"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got map[string]int
	if err := json.Unmarshal(data, &got); err != nil || got["counter"] != 1042 {
		t.Fatalf("unexpected counter file %s", data)
	}

	os.WriteFile(filepath.Join(root, "u1", "counter.json"), []byte(`{"other":1}`), 0644)
	if _, ok, _ := store.LoadCounter(context.Background(), "u1"); ok {
		t.Fatalf("expected counter without key to be treated as absent")
	}
}

func TestFormatAndParseNumber(t *testing.T) {
	if got := FormatNumber(7); got != "INV-0007" {
		t.Fatalf("expected zero padding, got %q", got)
	}
	if got := FormatNumber(12345); got != "INV-12345" {
		t.Fatalf("unexpected %q", got)
	}
	if n, ok := ParseNumber("INV-1042"); !ok || n != 1042 {
		t.Fatalf("parse failed: %d %v", n, ok)
	}
	for _, bad := range []string{"1042", "INV-", "INV-x1", strings.Repeat("A", 3)} {
		if _, ok := ParseNumber(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}
