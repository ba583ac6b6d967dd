package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

var fixedNow = time.Date(2026, 10, 16, 14, 30, 0, 0, time.Local)

func TestNewRepairItemLineTotal(t *testing.T) {
	cases := []struct {
		qty   int
		price float64
		want  float64
	}{
		{1, 0, 0},
		{2, 1500, 3000},
		{3, 333.5, 1000.5},
	}
	for _, c := range cases {
		item := NewRepairItem(RepairItemInput{Description: "Oil change", Quantity: c.qty, UnitPrice: c.price})
		if item.LineTotal != c.want {
			t.Fatalf("qty=%d price=%v: expected total %v, got %v", c.qty, c.price, c.want, item.LineTotal)
		}
	}
}

func TestAddItemRejectsInvalidInput(t *testing.T) {
	d := NewDraft(fixedNow)
	inputs := []RepairItemInput{
		{Description: "   ", Quantity: 1, UnitPrice: 10},
		{Description: "Tyre", Quantity: 0, UnitPrice: 10},
		{Description: "Tyre", Quantity: 1, UnitPrice: -1},
	}
	for _, in := range inputs {
		_, err := d.AddItem(in)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected validation error for %+v, got %v", in, err)
		}
	}
	if len(d.Items) != 0 {
		t.Fatalf("expected no items after rejected adds, got %d", len(d.Items))
	}
}

func TestRemoveItemByIDAndIndex(t *testing.T) {
	d := NewDraft(fixedNow)
	a, _ := d.AddItem(RepairItemInput{Description: "A", Quantity: 1, UnitPrice: 1})
	b, _ := d.AddItem(RepairItemInput{Description: "B", Quantity: 1, UnitPrice: 2})
	c, _ := d.AddItem(RepairItemInput{Description: "C", Quantity: 1, UnitPrice: 3})

	if !d.RemoveItem(b.ID) {
		t.Fatalf("expected item %s to be removed", b.ID)
	}
	if len(d.Items) != 2 || d.Items[0].ID != a.ID || d.Items[1].ID != c.ID {
		t.Fatalf("unexpected items after removal: %+v", d.Items)
	}
	if d.RemoveItem(b.ID) {
		t.Fatalf("expected second removal of same id to fail")
	}
	if d.RemoveItemAt(5) || d.RemoveItemAt(-1) {
		t.Fatalf("expected out of range removal to fail")
	}
	if !d.RemoveItemAt(0) || d.Items[0].ID != c.ID {
		t.Fatalf("expected positional removal to shift items down, got %+v", d.Items)
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	d := NewDraft(fixedNow)
	id := d.ID
	name, car, labor, discount := "Ali", "Corolla", 10.0, 5.0
	d.Apply(DraftInput{CustomerName: &name, CarDetails: &car, Labor: &labor, Discount: &discount})
	d.AddItem(RepairItemInput{Description: "A", Quantity: 1, UnitPrice: 1})

	d.Reset()
	if d.ID != id {
		t.Fatalf("reset must keep the draft id")
	}
	if d.CustomerName != "" || d.CarDetails != "" || len(d.Items) != 0 || d.Labor != DefaultLabor || d.Discount != 0 {
		t.Fatalf("unexpected draft after reset: %+v", d)
	}
}

func TestCommitValidation(t *testing.T) {
	d := NewDraft(fixedNow)
	if _, err := d.Commit("INV-1000", fixedNow, "u", "w"); err == nil || !strings.Contains(err.Error(), "item") {
		t.Fatalf("expected missing items error, got %v", err)
	}
	d.AddItem(RepairItemInput{Description: "A", Quantity: 1, UnitPrice: 1})
	if _, err := d.Commit("INV-1000", fixedNow, "u", "w"); err == nil || !strings.Contains(err.Error(), "customer") {
		t.Fatalf("expected missing customer error, got %v", err)
	}
	name := "Ali"
	d.Apply(DraftInput{CustomerName: &name})
	if _, err := d.Commit("INV-1000", fixedNow, "u", "w"); err == nil || !strings.Contains(err.Error(), "car") {
		t.Fatalf("expected missing car error, got %v", err)
	}
}

func TestCommitScenario(t *testing.T) {
	d := NewDraft(fixedNow)
	name, car, labor, discount := "Ali", "Corolla", 1000.0, 200.0
	d.Apply(DraftInput{CustomerName: &name, CarDetails: &car, Labor: &labor, Discount: &discount})
	item, err := d.AddItem(RepairItemInput{Description: "Brake pads", Quantity: 2, UnitPrice: 1500})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if item.LineTotal != 3000 {
		t.Fatalf("expected line total 3000, got %v", item.LineTotal)
	}

	rec, err := d.Commit("INV-1000", fixedNow, "user1", "AutoCare")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if rec.Subtotal != 3000 || rec.GrandTotal != 3800 {
		t.Fatalf("expected subtotal 3000 and grand total 3800, got %v and %v", rec.Subtotal, rec.GrandTotal)
	}
	if rec.GrandTotal != SubtotalOf(rec.Items)+rec.Labor-rec.Discount {
		t.Fatalf("grand total does not match components")
	}
	if rec.UserID != "user1" || rec.WorkshopName != "AutoCare" || rec.InvoiceNumber != "INV-1000" {
		t.Fatalf("unexpected record metadata: %+v", rec)
	}

	// The record must not alias the draft's items.
	d.Items[0].Description = "changed"
	if rec.Items[0].Description != "Brake pads" {
		t.Fatalf("record items alias the draft")
	}
}

func TestInvoiceRecordJSONKeys(t *testing.T) {
	rec := InvoiceRecord{
		InvoiceNumber: "INV-1000",
		Date:          Timestamp{Time: fixedNow},
		Items:         []RepairItem{NewRepairItem(RepairItemInput{Description: "A", Quantity: 1, UnitPrice: 2})},
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"invoice_number", "customer_name", "car_details", "date", "items", "subtotal", "labor", "discount", "grand_total", "user_id", "workshop_name"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("missing key %q in %s", key, data)
		}
	}
	if raw["date"] != "2026-10-16 14:30:00" {
		t.Fatalf("unexpected date encoding %v", raw["date"])
	}
	item := raw["items"].([]any)[0].(map[string]any)
	for _, key := range []string{"desc", "qty", "price", "total"} {
		if _, ok := item[key]; !ok {
			t.Fatalf("missing item key %q", key)
		}
	}

	var back InvoiceRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if !back.Date.Equal(fixedNow) {
		t.Fatalf("expected date %v, got %v", fixedNow, back.Date)
	}
}

func TestMergeProfileOverlaysDefaults(t *testing.T) {
	p, err := MergeProfile([]byte(`{"workshop_name":"Ali Motors","phone":"0300"}`))
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	def := DefaultProfile()
	if p.WorkshopName != "Ali Motors" || p.Phone != "0300" {
		t.Fatalf("stored keys not applied: %+v", p)
	}
	if p.Currency != def.Currency || p.Address != def.Address || p.OwnerName != def.OwnerName {
		t.Fatalf("missing keys did not keep defaults: %+v", p)
	}

	if _, err := MergeProfile([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for malformed profile")
	}
}
