package snipeit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// EntityCache maps (entity type, name) to the destination-assigned numeric
// ID. It lives for one run, grows monotonically, and is never evicted. At
// most one ID may ever be stored for a given key; Store keeps the first
// value it sees for a key so a racing duplicate cannot overwrite it.
type EntityCache struct {
	ids         map[string]int
	initialized bool
}

// NewEntityCache creates an empty cache.
func NewEntityCache() *EntityCache {
	return &EntityCache{ids: make(map[string]int)}
}

func cacheKey(entityType, name string) string {
	return entityType + ":" + name
}

// Lookup returns the cached ID for an entity, if present.
func (ec *EntityCache) Lookup(entityType, name string) (int, bool) {
	id, ok := ec.ids[cacheKey(entityType, name)]
	return id, ok
}

// Store records an entity ID. The first stored ID for a key wins.
func (ec *EntityCache) Store(entityType, name string, id int) {
	key := cacheKey(entityType, name)
	if _, ok := ec.ids[key]; ok {
		return
	}
	ec.ids[key] = id
}

// Len returns the number of cached entities.
func (ec *EntityCache) Len() int { return len(ec.ids) }

// Initialized reports whether prewarm has been attempted.
func (ec *EntityCache) Initialized() bool { return ec.initialized }

// PrewarmCache bulk-loads all existing categories and models into the cache
// so most lookups during the run cost nothing. Prewarm is best-effort: a
// failure leaves the cache usable but empty and the sync degrades to
// per-entity lookups. The cache is marked initialized regardless.
func (c *Client) PrewarmCache(ctx context.Context, cache *EntityCache, limit int) error {
	defer func() { cache.initialized = true }()

	var firstErr error
	for _, entityType := range []string{"categories", "models"} {
		if err := c.prewarmType(ctx, cache, entityType, limit); err != nil {
			c.log.Warn().Err(err).Str("type", entityType).Msg("cache prewarm failed, falling back to per-entity lookups")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	c.log.Info().Int("entities", cache.Len()).Msg("entity cache initialized")
	return firstErr
}

func (c *Client) prewarmType(ctx context.Context, cache *EntityCache, entityType string, limit int) error {
	c.observeOp("prewarm")
	params := url.Values{"limit": {fmt.Sprintf("%d", limit)}}
	body, err := c.get(ctx, "/"+entityType, params)
	if err != nil {
		return fmt.Errorf("listing %s: %w", entityType, err)
	}

	var page rowsResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return fmt.Errorf("parsing %s list: %w", entityType, err)
	}
	for _, raw := range page.Rows {
		var row entityRow
		if err := json.Unmarshal(raw, &row); err != nil {
			continue
		}
		if row.Name != "" && row.ID != 0 {
			cache.Store(entityType, row.Name, row.ID)
		}
	}
	return nil
}
