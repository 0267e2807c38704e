package models

import "fmt"

// Device is a single record from the Meraki organization device listing.
// Serial is the identity key used for deduplication downstream: it becomes
// both the serial and the asset tag of the Snipe-IT hardware record.
type Device struct {
	Name         string   `json:"name"`
	Serial       string   `json:"serial"`
	Model        string   `json:"model"`
	ProductType  string   `json:"productType"`
	MAC          string   `json:"mac"`
	NetworkID    string   `json:"networkId"`
	PurchaseDate string   `json:"purchase_date,omitempty"`
	PurchaseCost *float64 `json:"purchase_cost,omitempty"`
}

// ValidationError marks a device record that cannot be mapped because a
// load-bearing field is missing. The device is skipped, not the batch.
type ValidationError struct {
	Field  string
	Serial string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("device %q missing required field %q", e.Serial, e.Field)
}
