package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/satheeshds/repairbook/ledger"
	"github.com/satheeshds/repairbook/models"
)

// LedgerStore keeps day partitions as rows of the invoices table keyed by
// (user_id, day). Insertion order is the id order.
type LedgerStore struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

var _ ledger.Store = (*LedgerStore)(nil)

func NewLedgerStore(pool *pgxpool.Pool, log *slog.Logger) *LedgerStore {
	if log == nil {
		log = slog.Default()
	}
	return &LedgerStore{pool: pool, log: log}
}

func (s *LedgerStore) Append(ctx context.Context, userID, day string, rec models.InvoiceRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding invoice: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO invoices (user_id, day, invoice_number, record) VALUES ($1, $2, $3, $4)`,
		userID, day, rec.InvoiceNumber, string(data))
	if err != nil {
		return fmt.Errorf("inserting invoice: %w", err)
	}
	return nil
}

func (s *LedgerStore) ReadDay(ctx context.Context, userID, day string) ledger.Day {
	d := ledger.Day{Date: day, Records: []models.InvoiceRecord{}}

	rows, err := s.pool.Query(ctx,
		`SELECT record FROM invoices WHERE user_id = $1 AND day = $2 ORDER BY id`, userID, day)
	if err != nil {
		d.State, d.Err = ledger.DayUnreadable, err
		return d
	}
	raws, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		d.State, d.Err = ledger.DayUnreadable, err
		return d
	}
	if len(raws) == 0 {
		d.State = ledger.DayAbsent
		return d
	}

	d.State = ledger.DayLoaded
	for _, raw := range raws {
		rec, bad, err := models.DecodeRecord(raw)
		if err != nil {
			s.log.Warn("skipping malformed invoice row", "user", userID, "day", day, "error", err)
			continue
		}
		if len(bad) > 0 {
			s.log.Warn("invoice row has unreadable fields", "user", userID, "day", day, "fields", bad)
		}
		d.Records = append(d.Records, rec)
	}
	return d
}

func (s *LedgerStore) ListDays(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT day FROM invoices WHERE user_id = $1 ORDER BY day`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing days: %w", err)
	}
	days, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("listing days: %w", err)
	}
	return days, nil
}

func (s *LedgerStore) ClearDay(ctx context.Context, userID, day string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM invoices WHERE user_id = $1 AND day = $2`, userID, day)
	if err != nil {
		return false, fmt.Errorf("clearing day: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *LedgerStore) LoadCounter(ctx context.Context, userID string) (int, bool, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT counter FROM invoice_counters WHERE user_id = $1`, userID).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("loading counter: %w", err)
	}
	return n, true, nil
}

func (s *LedgerStore) SaveCounter(ctx context.Context, userID string, n int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO invoice_counters (user_id, counter) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET counter = EXCLUDED.counter, updated_at = now()`,
		userID, n)
	if err != nil {
		return fmt.Errorf("saving counter: %w", err)
	}
	return nil
}
