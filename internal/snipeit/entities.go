package snipeit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// entityRow is the subset of a taxonomy object we read back from search and
// list responses.
type entityRow struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GetOrCreateEntity resolves a taxonomy entity (category or model) by name,
// creating it when it does not exist. The call is idempotent: repeated
// invocations for the same (type, name) return the same ID and issue at most
// one create in total.
//
// The search endpoint does fuzzy text matching, so results are filtered
// client-side for an exact name match; a substring hit must not bind the
// device to an unrelated entity.
func (c *Client) GetOrCreateEntity(ctx context.Context, cache *EntityCache, entityType, name string, extra map[string]interface{}) (int, error) {
	if id, ok := cache.Lookup(entityType, name); ok {
		return id, nil
	}

	c.observeOp("entity_search")
	body, err := c.get(ctx, "/"+entityType, url.Values{"search": {name}})
	if err != nil {
		return 0, fmt.Errorf("searching %s %q: %w", entityType, name, err)
	}

	var page rowsResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return 0, fmt.Errorf("parsing %s search: %w", entityType, err)
	}
	for _, raw := range page.Rows {
		var row entityRow
		if err := json.Unmarshal(raw, &row); err != nil {
			continue
		}
		if row.Name == name {
			cache.Store(entityType, name, row.ID)
			return row.ID, nil
		}
	}

	payload := map[string]interface{}{"name": name}
	for k, v := range extra {
		payload[k] = v
	}

	c.log.Info().Str("type", entityType).Str("name", name).Msg("creating entity")
	c.observeOp("entity_create")
	body, err = c.post(ctx, "/"+entityType, payload)
	if err != nil {
		return 0, fmt.Errorf("creating %s %q: %w", entityType, name, err)
	}

	var created createResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return 0, fmt.Errorf("parsing %s create response: %w", entityType, err)
	}
	if created.Payload.ID == 0 {
		return 0, fmt.Errorf("creating %s %q: no usable ID in response", entityType, name)
	}

	cache.Store(entityType, name, created.Payload.ID)
	return created.Payload.ID, nil
}
