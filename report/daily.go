// Package report builds per-day breakdowns of a user's ledger using an
// embedded DuckDB database.
package report

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/satheeshds/repairbook/ledger"
)

// DailyRow is one day of the report.
type DailyRow struct {
	Day      string  `json:"day"`
	Invoices int     `json:"invoices"`
	Sales    float64 `json:"sales"`
	Labor    float64 `json:"labor"`
	Discount float64 `json:"discount"`
	Items    int     `json:"items"`
	Readable bool    `json:"readable"`
}

var schema = []string{
	`CREATE TABLE days (
		day VARCHAR PRIMARY KEY,
		readable BOOLEAN NOT NULL
	)`,
	`CREATE TABLE invoices (
		day VARCHAR NOT NULL,
		invoice_number VARCHAR,
		grand_total DOUBLE NOT NULL,
		labor DOUBLE NOT NULL,
		discount DOUBLE NOT NULL,
		items INTEGER NOT NULL
	)`,
}

const dailyQuery = `SELECT d.day, d.readable,
		COUNT(i.day),
		COALESCE(SUM(i.grand_total), 0.0),
		COALESCE(SUM(i.labor), 0.0),
		COALESCE(SUM(i.discount), 0.0),
		CAST(COALESCE(SUM(i.items), 0) AS BIGINT)
	FROM days d
	LEFT JOIN invoices i ON i.day = d.day
	GROUP BY d.day, d.readable
	ORDER BY d.day`

// Daily loads days into a scratch in-memory database and aggregates them
// per day. Days without records are reported with zeros.
func Daily(ctx context.Context, days []ledger.Day) ([]DailyRow, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	defer db.Close()
	// One connection keeps every statement on the same in-memory database.
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("creating report schema: %w", err)
		}
	}
	if err := load(ctx, db, days); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, dailyQuery)
	if err != nil {
		return nil, fmt.Errorf("querying daily report: %w", err)
	}
	defer rows.Close()

	out := []DailyRow{}
	for rows.Next() {
		var r DailyRow
		var invoices, items int64
		if err := rows.Scan(&r.Day, &r.Readable, &invoices, &r.Sales, &r.Labor, &r.Discount, &items); err != nil {
			return nil, fmt.Errorf("scanning daily report: %w", err)
		}
		r.Invoices, r.Items = int(invoices), int(items)
		out = append(out, r)
	}
	return out, rows.Err()
}

func load(ctx context.Context, db *sql.DB, days []ledger.Day) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting load: %w", err)
	}
	defer tx.Rollback()

	for _, d := range days {
		if _, err := tx.ExecContext(ctx, `INSERT INTO days (day, readable) VALUES (?, ?)`, d.Date, d.State != ledger.DayUnreadable); err != nil {
			return fmt.Errorf("loading day %s: %w", d.Date, err)
		}
		for _, rec := range d.Records {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO invoices (day, invoice_number, grand_total, labor, discount, items) VALUES (?, ?, ?, ?, ?, ?)`,
				d.Date, rec.InvoiceNumber, rec.GrandTotal, rec.Labor, rec.Discount, len(rec.Items))
			if err != nil {
				return fmt.Errorf("loading invoice %s: %w", rec.InvoiceNumber, err)
			}
		}
	}
	return tx.Commit()
}
