package models

// StatusReadyToDeploy is the Snipe-IT status label assigned to every asset
// at creation time (ID 2, "Ready to Deploy" on a stock install).
const StatusReadyToDeploy = 2

// AssetPayload is the hardware record sent to Snipe-IT. AssetTag and Serial
// are always identical and serve as the deduplication key against existing
// assets.
type AssetPayload struct {
	Name         string   `json:"name"`
	Serial       string   `json:"serial"`
	AssetTag     string   `json:"asset_tag"`
	ModelID      int      `json:"model_id"`
	Category     int      `json:"category"`
	StatusID     int      `json:"status_id"`
	PurchaseDate string   `json:"purchase_date,omitempty"`
	PurchaseCost *float64 `json:"purchase_cost,omitempty"`
	Notes        string   `json:"notes"`
}

// UpdateBody shapes the payload for PUT /hardware/{id}. Serial and status_id
// are immutable through this flow: serial is the dedup key of the record we
// just matched, and deployment state is managed outside the sync.
func (p AssetPayload) UpdateBody() map[string]interface{} {
	body := map[string]interface{}{
		"name":      p.Name,
		"asset_tag": p.AssetTag,
		"model_id":  p.ModelID,
		"category":  p.Category,
		"notes":     p.Notes,
	}
	if p.PurchaseDate != "" {
		body["purchase_date"] = p.PurchaseDate
	}
	if p.PurchaseCost != nil {
		body["purchase_cost"] = *p.PurchaseCost
	}
	return body
}
