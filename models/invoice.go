package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the local-time layout used for the "date" key of
// ledger records.
const TimestampLayout = "2006-01-02 15:04:05"

// Timestamp is a time.Time that serializes with TimestampLayout.
type Timestamp struct {
	time.Time
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(TimestampLayout))
}

// timestampLayouts are tried in order when reading a stored date.
var timestampLayouts = []string{TimestampLayout, "2006-01-02T15:04:05", time.RFC3339Nano}

// UnmarshalJSON accepts TimestampLayout, ISO 8601 with or without a zone,
// and an empty string. Anything else leaves the zero time and is logged,
// so one odd date never hides the rest of a record.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		slog.Warn("ignoring non-string invoice date", "value", string(data))
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	slog.Warn("ignoring unparseable invoice date", "value", s)
	return nil
}

// RepairItem is one billed line. Total is fixed when the item is created.
type RepairItem struct {
	Description string  `json:"desc"`
	Quantity    int     `json:"qty"`
	UnitPrice   float64 `json:"price"`
	LineTotal   float64 `json:"total"`
}

// RepairItemInput is used for adding items to a draft.
type RepairItemInput struct {
	Description string  `json:"desc"`
	Quantity    int     `json:"qty"`
	UnitPrice   float64 `json:"price"`
}

func (i *RepairItemInput) Validate() string {
	if strings.TrimSpace(i.Description) == "" {
		return "description is required"
	}
	if i.Quantity < 1 {
		return "qty must be at least 1"
	}
	if i.UnitPrice < 0 {
		return "price must be non-negative"
	}
	return ""
}

// NewRepairItem builds an item from validated input.
func NewRepairItem(in RepairItemInput) RepairItem {
	return RepairItem{
		Description: strings.TrimSpace(in.Description),
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
		LineTotal:   float64(in.Quantity) * in.UnitPrice,
	}
}

// InvoiceRecord is a committed invoice as stored in the ledger. It is
// never modified after it has been appended.
type InvoiceRecord struct {
	InvoiceNumber string       `json:"invoice_number"`
	CustomerName  string       `json:"customer_name"`
	CarDetails    string       `json:"car_details"`
	Date          Timestamp    `json:"date"`
	Items         []RepairItem `json:"items"`
	Subtotal      float64      `json:"subtotal"`
	Labor         float64      `json:"labor"`
	Discount      float64      `json:"discount"`
	GrandTotal    float64      `json:"grand_total"`
	UserID        string       `json:"user_id"`
	WorkshopName  string       `json:"workshop_name"`
}

// SubtotalOf sums the line totals of items.
func SubtotalOf(items []RepairItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.LineTotal
	}
	return sum
}

var errNotObject = errors.New("ledger entry is not an object")

// DecodeRecord reads one stored ledger entry. Fields holding a value of
// the wrong type are left at their zero value and named in bad; numbers
// written as strings are accepted. Only an entry that is not a JSON
// object is an error.
func DecodeRecord(data []byte) (rec InvoiceRecord, bad []string, err error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return InvoiceRecord{}, nil, errNotObject
	}
	if err := json.Unmarshal(data, &rec); err == nil {
		return rec, nil, nil
	}

	rec = InvoiceRecord{}
	str := func(key string, dst *string) {
		if raw, ok := fields[key]; ok && json.Unmarshal(raw, dst) != nil {
			bad = append(bad, key)
		}
	}
	num := func(key string, dst *float64) {
		if raw, ok := fields[key]; ok {
			v, ok := lenientNumber(raw)
			if !ok {
				bad = append(bad, key)
			}
			*dst = v
		}
	}
	str("invoice_number", &rec.InvoiceNumber)
	str("customer_name", &rec.CustomerName)
	str("car_details", &rec.CarDetails)
	str("user_id", &rec.UserID)
	str("workshop_name", &rec.WorkshopName)
	num("subtotal", &rec.Subtotal)
	num("labor", &rec.Labor)
	num("discount", &rec.Discount)
	num("grand_total", &rec.GrandTotal)
	if raw, ok := fields["date"]; ok {
		json.Unmarshal(raw, &rec.Date)
	}

	rec.Items = []RepairItem{}
	if raw, ok := fields["items"]; ok {
		var items []json.RawMessage
		if json.Unmarshal(raw, &items) != nil {
			bad = append(bad, "items")
		}
		for i, entry := range items {
			item, itemBad, ok := decodeItem(entry)
			if !ok {
				bad = append(bad, fmt.Sprintf("items[%d]", i))
				continue
			}
			for _, key := range itemBad {
				bad = append(bad, fmt.Sprintf("items[%d].%s", i, key))
			}
			rec.Items = append(rec.Items, item)
		}
	}
	return rec, bad, nil
}

// decodeItem reads one item of a stored record. ok is false only when the
// entry is not an object; damaged fields are reported in bad.
func decodeItem(data []byte) (it RepairItem, bad []string, ok bool) {
	var fields map[string]json.RawMessage
	if json.Unmarshal(data, &fields) != nil || fields == nil {
		return RepairItem{}, nil, false
	}
	if raw, found := fields["desc"]; found && json.Unmarshal(raw, &it.Description) != nil {
		bad = append(bad, "desc")
	}
	num := func(key string) float64 {
		raw, found := fields[key]
		if !found {
			return 0
		}
		v, good := lenientNumber(raw)
		if !good {
			bad = append(bad, key)
		}
		return v
	}
	it.Quantity = int(num("qty"))
	it.UnitPrice = num("price")
	it.LineTotal = num("total")
	return it, bad, true
}

// lenientNumber reads a JSON number or a numeric string.
func lenientNumber(raw json.RawMessage) (float64, bool) {
	var v float64
	if json.Unmarshal(raw, &v) == nil {
		return v, true
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return v, true
		}
	}
	return 0, false
}
