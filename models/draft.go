package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultLabor is the labor charge a fresh draft starts with.
const DefaultLabor = 1500

// ValidationError reports a failed precondition on user input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// DraftItem is a repair item inside a draft. ID is stable for the life of
// the draft so removals do not depend on list position.
type DraftItem struct {
	ID string `json:"id"`
	RepairItem
}

// Draft is the in-progress invoice being edited before it is committed.
type Draft struct {
	ID           string      `json:"id"`
	CustomerName string      `json:"customer_name"`
	CarDetails   string      `json:"car_details"`
	Items        []DraftItem `json:"items"`
	Labor        float64     `json:"labor"`
	Discount     float64     `json:"discount"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// DraftInput is used for updating the customer and charge fields of a draft.
type DraftInput struct {
	CustomerName *string  `json:"customer_name"`
	CarDetails   *string  `json:"car_details"`
	Labor        *float64 `json:"labor"`
	Discount     *float64 `json:"discount"`
}

func (d *DraftInput) Validate() string {
	if d.Labor != nil && *d.Labor < 0 {
		return "labor must be non-negative"
	}
	if d.Discount != nil && *d.Discount < 0 {
		return "discount must be non-negative"
	}
	return ""
}

// NewDraft returns an empty draft with default charges.
func NewDraft(now time.Time) *Draft {
	return &Draft{
		ID:        uuid.New().String(),
		Items:     []DraftItem{},
		Labor:     DefaultLabor,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy of d.
func (d *Draft) Clone() *Draft {
	c := *d
	c.Items = append([]DraftItem(nil), d.Items...)
	if c.Items == nil {
		c.Items = []DraftItem{}
	}
	return &c
}

// Apply copies the non-nil fields of in onto the draft.
func (d *Draft) Apply(in DraftInput) {
	if in.CustomerName != nil {
		d.CustomerName = *in.CustomerName
	}
	if in.CarDetails != nil {
		d.CarDetails = *in.CarDetails
	}
	if in.Labor != nil {
		d.Labor = *in.Labor
	}
	if in.Discount != nil {
		d.Discount = *in.Discount
	}
}

// AddItem validates in and appends the resulting item.
func (d *Draft) AddItem(in RepairItemInput) (DraftItem, error) {
	if msg := in.Validate(); msg != "" {
		return DraftItem{}, &ValidationError{Msg: msg}
	}
	item := DraftItem{ID: uuid.New().String(), RepairItem: NewRepairItem(in)}
	d.Items = append(d.Items, item)
	return item, nil
}

// RemoveItemAt removes the item at index, shifting later items down.
func (d *Draft) RemoveItemAt(index int) bool {
	if index < 0 || index >= len(d.Items) {
		return false
	}
	d.Items = append(d.Items[:index], d.Items[index+1:]...)
	return true
}

// RemoveItem removes the item with the given id.
func (d *Draft) RemoveItem(id string) bool {
	for i, it := range d.Items {
		if it.ID == id {
			return d.RemoveItemAt(i)
		}
	}
	return false
}

// Reset clears the draft back to a fresh state, keeping its id.
func (d *Draft) Reset() {
	d.CustomerName = ""
	d.CarDetails = ""
	d.Items = []DraftItem{}
	d.Labor = DefaultLabor
	d.Discount = 0
}

func (d *Draft) Subtotal() float64 {
	return SubtotalOf(d.repairItems())
}

func (d *Draft) GrandTotal() float64 {
	return d.Subtotal() + d.Labor - d.Discount
}

func (d *Draft) Validate() string {
	if len(d.Items) == 0 {
		return "add at least one repair item"
	}
	if strings.TrimSpace(d.CustomerName) == "" {
		return "customer name is required"
	}
	if strings.TrimSpace(d.CarDetails) == "" {
		return "car details are required"
	}
	return ""
}

// Commit freezes the draft into an invoice record. It does not touch
// storage; the caller decides the number and time.
func (d *Draft) Commit(number string, now time.Time, userID, workshopName string) (InvoiceRecord, error) {
	if msg := d.Validate(); msg != "" {
		return InvoiceRecord{}, &ValidationError{Msg: msg}
	}
	items := d.repairItems()
	subtotal := SubtotalOf(items)
	return InvoiceRecord{
		InvoiceNumber: number,
		CustomerName:  strings.TrimSpace(d.CustomerName),
		CarDetails:    strings.TrimSpace(d.CarDetails),
		Date:          Timestamp{Time: now},
		Items:         items,
		Subtotal:      subtotal,
		Labor:         d.Labor,
		Discount:      d.Discount,
		GrandTotal:    subtotal + d.Labor - d.Discount,
		UserID:        userID,
		WorkshopName:  workshopName,
	}, nil
}

func (d *Draft) repairItems() []RepairItem {
	items := make([]RepairItem, len(d.Items))
	for i, it := range d.Items {
		items[i] = it.RepairItem
	}
	return items
}
