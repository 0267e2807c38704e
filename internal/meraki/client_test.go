package meraki

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func newTestClient(ts *httptest.Server, perPage int) *Client {
	return &Client{
		baseURL:    ts.URL,
		apiKey:     "meraki-key",
		orgID:      "123456",
		perPage:    perPage,
		httpClient: ts.Client(),
		log:        zerolog.Nop(),
	}
}

func TestListOrganizationDevices_AuthAndPath(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer meraki-key" {
			t.Errorf("Authorization = %q, want Bearer meraki-key", got)
		}
		if r.URL.Path != "/organizations/123456/devices" {
			t.Errorf("path = %s, want /organizations/123456/devices", r.URL.Path)
		}
		w.Write([]byte(`[{"name":"AP1","serial":"Q2XX-1111","model":"MR36","productType":"wireless"}]`))
	}))
	defer ts.Close()

	c := newTestClient(ts, 1000)
	devices, err := c.ListOrganizationDevices(context.Background())
	if err != nil {
		t.Fatalf("ListOrganizationDevices returned error: %v", err)
	}
	if len(devices) != 1 || devices[0].Serial != "Q2XX-1111" {
		t.Fatalf("devices = %+v, want one device with serial Q2XX-1111", devices)
	}
}

func TestListOrganizationDevices_Pagination(t *testing.T) {
	pages := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		after := r.URL.Query().Get("startingAfter")
		switch pages {
		case 1:
			if after != "" {
				t.Errorf("first page startingAfter = %q, want empty", after)
			}
			json.NewEncoder(w).Encode([]map[string]string{
				{"serial": "Q2XX-0001"}, {"serial": "Q2XX-0002"},
			})
		case 2:
			if after != "Q2XX-0002" {
				t.Errorf("second page startingAfter = %q, want Q2XX-0002", after)
			}
			json.NewEncoder(w).Encode([]map[string]string{{"serial": "Q2XX-0003"}})
		default:
			t.Errorf("unexpected page %d", pages)
		}
	}))
	defer ts.Close()

	c := newTestClient(ts, 2)
	devices, err := c.ListOrganizationDevices(context.Background())
	if err != nil {
		t.Fatalf("ListOrganizationDevices returned error: %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("devices = %d, want 3 across pages", len(devices))
	}
	// Source order is preserved across pages.
	if devices[0].Serial != "Q2XX-0001" || devices[2].Serial != "Q2XX-0003" {
		t.Errorf("device order = %v, want source order", devices)
	}
}

func TestListOrganizationDevices_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":["Invalid API key"]}`))
	}))
	defer ts.Close()

	c := newTestClient(ts, 1000)
	if _, err := c.ListOrganizationDevices(context.Background()); err == nil {
		t.Fatal("expected an error for HTTP 401")
	}
}
