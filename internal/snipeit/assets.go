package snipeit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/rdelgado/meraki-snipeit-sync/internal/models"
)

// ReconcileAction names the branch UpsertAsset took.
type ReconcileAction string

const (
	ActionCreated ReconcileAction = "created"
	ActionUpdated ReconcileAction = "updated"
)

// ReconcileResult reports the outcome of an asset reconciliation.
type ReconcileResult struct {
	Action  ReconcileAction
	AssetID int
}

// hardwareRow is the subset of an asset record we read back from search
// responses.
type hardwareRow struct {
	ID       int    `json:"id"`
	AssetTag string `json:"asset_tag"`
	Serial   string `json:"serial"`
}

// FindAssetByTagOrSerial searches for an existing asset, first by asset tag
// and then by serial. The hardware search endpoint is a fuzzy text search,
// so only a row whose queried field equals the value verbatim counts as a
// hit; a partial-text match must not be mistaken for an unrelated asset.
func (c *Client) FindAssetByTagOrSerial(ctx context.Context, assetTag, serial string) (int, bool, error) {
	fields := []struct {
		name  string
		value string
	}{
		{"asset_tag", assetTag},
		{"serial", serial},
	}

	for _, f := range fields {
		if f.value == "" {
			continue
		}
		c.observeOp("asset_search")
		body, err := c.get(ctx, "/hardware", url.Values{"search": {f.value}})
		if err != nil {
			return 0, false, fmt.Errorf("searching assets by %s: %w", f.name, err)
		}

		var page rowsResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return 0, false, fmt.Errorf("parsing asset search: %w", err)
		}
		for _, raw := range page.Rows {
			var row hardwareRow
			if err := json.Unmarshal(raw, &row); err != nil {
				continue
			}
			match := row.AssetTag
			if f.name == "serial" {
				match = row.Serial
			}
			if match == f.value {
				return row.ID, true, nil
			}
		}
	}
	return 0, false, nil
}

// UpsertAsset creates the asset when no existing record matches its tag or
// serial, and updates the matched record in place otherwise. Updates omit
// serial and status_id, which this flow treats as immutable after creation.
// Running UpsertAsset twice with the same payload yields exactly one asset:
// created on the first call, updated on the second.
func (c *Client) UpsertAsset(ctx context.Context, payload models.AssetPayload) (*ReconcileResult, error) {
	id, found, err := c.FindAssetByTagOrSerial(ctx, payload.AssetTag, payload.Serial)
	if err != nil {
		return nil, err
	}

	if found {
		c.log.Debug().Int("asset_id", id).Str("serial", payload.Serial).Msg("updating existing asset")
		c.observeOp("asset_update")
		if _, err := c.put(ctx, fmt.Sprintf("/hardware/%d", id), payload.UpdateBody()); err != nil {
			return nil, fmt.Errorf("updating asset %d: %w", id, err)
		}
		return &ReconcileResult{Action: ActionUpdated, AssetID: id}, nil
	}

	c.log.Debug().Str("serial", payload.Serial).Msg("creating asset")
	c.observeOp("asset_create")
	body, err := c.post(ctx, "/hardware", payload)
	if err != nil {
		return nil, fmt.Errorf("creating asset %q: %w", payload.AssetTag, err)
	}

	// Snipe-IT answers 200 with a payload envelope. The ID is taken when
	// present but its absence is tolerated, matching the lenient upstream
	// behavior on create.
	var created createResponse
	_ = json.Unmarshal(body, &created)
	return &ReconcileResult{Action: ActionCreated, AssetID: created.Payload.ID}, nil
}
