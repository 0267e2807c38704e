package sync

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rdelgado/meraki-snipeit-sync/internal/config"
	"github.com/rdelgado/meraki-snipeit-sync/internal/snipeit"
)

// fakeSnipe emulates the subset of the Snipe-IT API the sync touches:
// fuzzy entity/hardware search, entity create, hardware create and update.
type fakeSnipe struct {
	t *testing.T

	entities      map[string]map[string]int            // type → name → id
	entityPayload map[string]map[string]interface{}    // "type:name" → create body
	nextEntityID  int

	assets      map[int]map[string]interface{}
	nextAssetID int
	lastUpdate  map[string]interface{}

	entityCreates int
	assetCreates  int
	assetUpdates  int

	srv *httptest.Server
}

func newFakeSnipe(t *testing.T) *fakeSnipe {
	f := &fakeSnipe{
		t:             t,
		entities:      map[string]map[string]int{"categories": {}, "models": {}},
		entityPayload: make(map[string]map[string]interface{}),
		nextEntityID:  1,
		assets:        make(map[int]map[string]interface{}),
		nextAssetID:   100,
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeSnipe) client() *snipeit.Client {
	return snipeit.NewClient(config.SnipeITConfig{
		BaseURL:    f.srv.URL,
		APIKey:     "secret",
		Timeout:    config.Duration(5 * time.Second),
		MaxRetries: 3,
		RetryWait:  config.Duration(10 * time.Millisecond),
	}, zerolog.Nop())
}

func (f *fakeSnipe) handle(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	switch {
	case path == "/categories" || path == "/models":
		f.handleEntities(w, r, strings.TrimPrefix(path, "/"))
	case path == "/hardware" && r.Method == http.MethodGet:
		f.searchHardware(w, r)
	case path == "/hardware" && r.Method == http.MethodPost:
		f.createHardware(w, r)
	case strings.HasPrefix(path, "/hardware/") && r.Method == http.MethodPut:
		f.updateHardware(w, r, path)
	default:
		f.t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeSnipe) handleEntities(w http.ResponseWriter, r *http.Request, entityType string) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query().Get("search")
		rows := []map[string]interface{}{}
		for name, id := range f.entities[entityType] {
			if q == "" || strings.Contains(name, q) {
				rows = append(rows, map[string]interface{}{"id": id, "name": name})
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"total": len(rows), "rows": rows})
	case http.MethodPost:
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			f.t.Fatalf("decoding entity create: %v", err)
		}
		name, _ := body["name"].(string)
		f.entityCreates++
		id := f.nextEntityID
		f.nextEntityID++
		f.entities[entityType][name] = id
		f.entityPayload[entityType+":"+name] = body
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "success", "payload": map[string]interface{}{"id": id}})
	}
}

func (f *fakeSnipe) searchHardware(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("search")
	rows := []map[string]interface{}{}
	for id, a := range f.assets {
		tag, _ := a["asset_tag"].(string)
		serial, _ := a["serial"].(string)
		if strings.Contains(tag, q) || strings.Contains(serial, q) {
			rows = append(rows, map[string]interface{}{"id": id, "asset_tag": tag, "serial": serial})
		}
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"total": len(rows), "rows": rows})
}

func (f *fakeSnipe) createHardware(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		f.t.Fatalf("decoding hardware create: %v", err)
	}
	f.assetCreates++
	id := f.nextAssetID
	f.nextAssetID++
	f.assets[id] = body
	json.NewEncoder(w).Encode(map[string]interface{}{"status": "success", "payload": map[string]interface{}{"id": id}})
}

func (f *fakeSnipe) updateHardware(w http.ResponseWriter, r *http.Request, path string) {
	var id int
	fmt.Sscanf(path, "/hardware/%d", &id)
	asset, ok := f.assets[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		f.t.Fatalf("decoding hardware update: %v", err)
	}
	f.assetUpdates++
	f.lastUpdate = body
	for k, v := range body {
		asset[k] = v
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"status": "success", "payload": map[string]interface{}{"id": id}})
}

// assetBySerial returns the stored asset with the given serial, or nil.
func (f *fakeSnipe) assetBySerial(serial string) map[string]interface{} {
	for _, a := range f.assets {
		if a["serial"] == serial {
			return a
		}
	}
	return nil
}
