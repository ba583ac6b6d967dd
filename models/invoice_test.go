package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestampAcceptsKnownLayouts(t *testing.T) {
	cases := map[string]time.Time{
		`"2026-10-16 08:30:00"`:       time.Date(2026, 10, 16, 8, 30, 0, 0, time.Local),
		`"2026-10-16T08:30:00"`:       time.Date(2026, 10, 16, 8, 30, 0, 0, time.Local),
		`"2026-10-16T08:30:00+05:00"`: time.Date(2026, 10, 16, 8, 30, 0, 0, time.FixedZone("", 5*3600)),
	}
	for in, want := range cases {
		var ts Timestamp
		if err := json.Unmarshal([]byte(in), &ts); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if !ts.Equal(want) {
			t.Fatalf("%s: expected %v, got %v", in, want, ts.Time)
		}
	}
}

func TestTimestampUnknownValueIsZero(t *testing.T) {
	for _, in := range []string{`"yesterday"`, `12345`, `""`} {
		ts := Timestamp{Time: time.Now()}
		if err := json.Unmarshal([]byte(in), &ts); err != nil {
			t.Fatalf("%s: expected no error, got %v", in, err)
		}
		if !ts.IsZero() {
			t.Fatalf("%s: expected zero time, got %v", in, ts.Time)
		}
	}
}

func TestDecodeRecordKeepsOffTypeRecords(t *testing.T) {
	rec, bad, err := DecodeRecord([]byte(`{
		"invoice_number": "INV-1001",
		"customer_name": 7,
		"grand_total": "500",
		"labor": 100,
		"date": "not a date",
		"items": [{"desc":"Oil","qty":"2","price":250,"total":500}, "junk"]
	}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.InvoiceNumber != "INV-1001" || rec.GrandTotal != 500 || rec.Labor != 100 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if len(rec.Items) != 1 || rec.Items[0].Quantity != 2 || rec.Items[0].LineTotal != 500 {
		t.Fatalf("unexpected items %+v", rec.Items)
	}
	if len(bad) != 2 || bad[0] != "customer_name" || bad[1] != "items[1]" {
		t.Fatalf("unexpected bad fields %v", bad)
	}
}

func TestDecodeRecordRejectsNonObjects(t *testing.T) {
	for _, in := range []string{`42`, `"INV-1000"`, `null`, `[1]`} {
		if _, _, err := DecodeRecord([]byte(in)); err == nil {
			t.Fatalf("%s: expected error", in)
		}
	}
}

func TestDecodeRecordWellFormed(t *testing.T) {
	rec, bad, err := DecodeRecord([]byte(`{"invoice_number":"INV-1000","grand_total":10,"date":"2026-10-16 08:00:00","items":[]}`))
	if err != nil || len(bad) != 0 || rec.GrandTotal != 10 {
		t.Fatalf("unexpected result %+v %v %v", rec, bad, err)
	}
}
