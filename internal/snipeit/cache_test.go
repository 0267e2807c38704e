package snipeit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEntityCache_LookupStore(t *testing.T) {
	cache := NewEntityCache()

	if _, ok := cache.Lookup("categories", "wireless"); ok {
		t.Fatal("empty cache should miss")
	}

	cache.Store("categories", "wireless", 7)
	id, ok := cache.Lookup("categories", "wireless")
	if !ok || id != 7 {
		t.Fatalf("Lookup = (%d, %v), want (7, true)", id, ok)
	}

	// Same name under a different type is a different key.
	if _, ok := cache.Lookup("models", "wireless"); ok {
		t.Error("type must be part of the cache key")
	}

	// The first stored ID for a key wins; a duplicate must never replace it.
	cache.Store("categories", "wireless", 99)
	if id, _ := cache.Lookup("categories", "wireless"); id != 7 {
		t.Errorf("Store overwrote existing ID: got %d, want 7", id)
	}
}

func TestPrewarmCache_LoadsCategoriesAndModels(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "500" {
			t.Errorf("limit = %q, want 500", got)
		}
		switch r.URL.Path {
		case "/api/v1/categories":
			w.Write([]byte(`{"total":2,"rows":[{"id":1,"name":"wireless"},{"id":2,"name":"switch"}]}`))
		case "/api/v1/models":
			w.Write([]byte(`{"total":1,"rows":[{"id":10,"name":"MR36"}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	c := newTestClient(ts)
	cache := NewEntityCache()
	if err := c.PrewarmCache(context.Background(), cache, 500); err != nil {
		t.Fatalf("PrewarmCache returned error: %v", err)
	}

	if cache.Len() != 3 {
		t.Errorf("cache.Len() = %d, want 3", cache.Len())
	}
	if id, ok := cache.Lookup("models", "MR36"); !ok || id != 10 {
		t.Errorf("Lookup(models, MR36) = (%d, %v), want (10, true)", id, ok)
	}
	if !cache.Initialized() {
		t.Error("cache should be marked initialized")
	}
}

func TestPrewarmCache_FailureIsNonFatal(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := newTestClient(ts)
	cache := NewEntityCache()
	err := c.PrewarmCache(context.Background(), cache, 500)
	if err == nil {
		t.Fatal("expected an error to be reported")
	}
	// The cache must stay usable: empty but initialized.
	if cache.Len() != 0 {
		t.Errorf("cache.Len() = %d, want 0", cache.Len())
	}
	if !cache.Initialized() {
		t.Error("cache should be marked initialized even after a failed prewarm")
	}
}
