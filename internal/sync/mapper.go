// Package sync maps Meraki devices into Snipe-IT assets and drives the
// reconciliation run.
package sync

import (
	"context"
	"fmt"

	"github.com/rdelgado/meraki-snipeit-sync/internal/models"
	"github.com/rdelgado/meraki-snipeit-sync/internal/snipeit"
)

// MapDevice transforms a Meraki device into a Snipe-IT hardware payload,
// resolving its category (from productType) and model through the entity
// cache. Resolution may create taxonomy entities as a side effect. A device
// missing model or productType cannot be mapped and fails with a
// ValidationError.
func MapDevice(ctx context.Context, client *snipeit.Client, cache *snipeit.EntityCache, d models.Device) (models.AssetPayload, error) {
	if d.Model == "" {
		return models.AssetPayload{}, &models.ValidationError{Field: "model", Serial: d.Serial}
	}
	if d.ProductType == "" {
		return models.AssetPayload{}, &models.ValidationError{Field: "productType", Serial: d.Serial}
	}

	categoryID, err := client.GetOrCreateEntity(ctx, cache, "categories", d.ProductType, map[string]interface{}{
		"category_type": "asset",
	})
	if err != nil {
		return models.AssetPayload{}, fmt.Errorf("resolving category: %w", err)
	}

	modelID, err := client.GetOrCreateEntity(ctx, cache, "models", d.Model, map[string]interface{}{
		"category_id": categoryID,
	})
	if err != nil {
		return models.AssetPayload{}, fmt.Errorf("resolving model: %w", err)
	}

	return models.AssetPayload{
		Name:         d.Name,
		Serial:       d.Serial,
		AssetTag:     d.Serial, // serial doubles as the asset tag for dedup
		ModelID:      modelID,
		Category:     categoryID,
		StatusID:     models.StatusReadyToDeploy,
		PurchaseDate: d.PurchaseDate,
		PurchaseCost: d.PurchaseCost,
		Notes:        fmt.Sprintf("Imported from Meraki. MAC: %s, Network ID: %s", d.MAC, d.NetworkID),
	}, nil
}
