package nominatim

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/switchbackmaps/switchback/internal/geocode"
)

func newTestClient(serverURL string) *Client {
	return NewClient(ClientConfig{
		BaseURL:    serverURL,
		HTTPClient: http.DefaultClient,
	})
}

func TestClient_Search(t *testing.T) {
	var gotQuery string
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"name": "Asheville", "display_name": "Asheville, Buncombe County, North Carolina", "lat": "35.5950581", "lon": "-82.5514869", "category": "boundary", "type": "administrative"},
			{"name": "", "display_name": "Asheville Regional Airport, Fletcher", "lat": "35.4361", "lon": "-82.5418", "category": "aeroway", "type": "aerodrome"}
		]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	places, err := client.Search(context.Background(), "Asheville", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotQuery != "Asheville" {
		t.Errorf("expected query forwarded, got %q", gotQuery)
	}
	if gotUserAgent != userAgent {
		t.Errorf("expected user agent %q, got %q", userAgent, gotUserAgent)
	}

	if len(places) != 2 {
		t.Fatalf("expected 2 places, got %d", len(places))
	}
	if places[0].Name != "Asheville" || places[0].Lat != 35.5950581 {
		t.Errorf("unexpected first place %+v", places[0])
	}
	// Nameless results fall back to the display name's leading component.
	if places[1].Name != "Asheville Regional Airport" {
		t.Errorf("expected fallback name, got %q", places[1].Name)
	}
}

func TestClient_Reverse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lat") == "" || r.URL.Query().Get("lon") == "" {
			t.Error("expected lat and lon parameters")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name": "Blue Ridge Parkway", "display_name": "Blue Ridge Parkway, Asheville", "lat": "35.5", "lon": "-82.5", "category": "highway", "type": "trunk"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	place, err := client.Reverse(context.Background(), -82.5, 35.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if place.Name != "Blue Ridge Parkway" {
		t.Errorf("unexpected place %+v", place)
	}
}

func TestClient_Reverse_NoResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Nominatim returns an error object for unmappable coordinates.
		w.Write([]byte(`{"error": "Unable to geocode"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.Reverse(context.Background(), 0, 0); !errors.Is(err, geocode.ErrNoResults) {
		t.Errorf("expected ErrNoResults, got %v", err)
	}
}

func TestClient_Search_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.Search(context.Background(), "anywhere", 5); !errors.Is(err, geocode.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestClient_CheckHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": 0, "message": "OK"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if err := client.CheckHealth(context.Background()); err != nil {
		t.Errorf("expected healthy, got %v", err)
	}
}
