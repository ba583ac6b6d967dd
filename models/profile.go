package models

import (
	"encoding/json"
	"strings"
)

// WorkshopProfile is the workshop display metadata printed on invoices.
type WorkshopProfile struct {
	WorkshopName string `json:"workshop_name"`
	OwnerName    string `json:"owner_name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Email        string `json:"email"`
	Currency     string `json:"currency"`
}

// DefaultProfile returns the profile used when nothing is stored.
func DefaultProfile() WorkshopProfile {
	return WorkshopProfile{
		WorkshopName: "AutoCare Repair Center",
		OwnerName:    "Workshop Owner",
		Phone:        "+92-XXX-XXXXXXX",
		Address:      "Main Road",
		Email:        "",
		Currency:     "Rs",
	}
}

// MergeProfile decodes a stored (possibly partial) profile over the
// defaults. Keys missing from data keep their default value.
func MergeProfile(data []byte) (WorkshopProfile, error) {
	p := DefaultProfile()
	if err := json.Unmarshal(data, &p); err != nil {
		return DefaultProfile(), err
	}
	return p, nil
}

func (p *WorkshopProfile) Validate() string {
	if strings.TrimSpace(p.WorkshopName) == "" {
		return "workshop_name is required"
	}
	if strings.TrimSpace(p.Currency) == "" {
		return "currency is required"
	}
	return ""
}
