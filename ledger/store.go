// Package ledger stores committed invoices per user and per calendar day
// and mints invoice numbers.
package ledger

import (
	"context"
	"time"

	"github.com/satheeshds/repairbook/models"
)

// DayLayout names day partitions.
const DayLayout = "2006-01-02"

// DayState distinguishes a missing partition from one that exists but
// could not be read.
type DayState int

const (
	DayAbsent DayState = iota
	DayLoaded
	DayUnreadable
)

func (s DayState) String() string {
	switch s {
	case DayAbsent:
		return "absent"
	case DayLoaded:
		return "loaded"
	case DayUnreadable:
		return "unreadable"
	}
	return "unknown"
}

// Day is the result of reading one day partition. Records is never nil.
type Day struct {
	Date    string
	State   DayState
	Records []models.InvoiceRecord
	Err     error
}

// Store persists day partitions and the invoice counter for each user.
type Store interface {
	Append(ctx context.Context, userID, day string, rec models.InvoiceRecord) error
	ReadDay(ctx context.Context, userID, day string) Day
	ListDays(ctx context.Context, userID string) ([]string, error)
	ClearDay(ctx context.Context, userID, day string) (bool, error)
	// LoadCounter reports ok=false when no usable counter is stored.
	LoadCounter(ctx context.Context, userID string) (n int, ok bool, err error)
	SaveCounter(ctx context.Context, userID string, n int) error
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
