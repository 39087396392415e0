package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAutocompleteShortInput(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClient("key")
	c.autocompleteURL = srv.URL

	for _, input := range []string{"", "a", "ab"} {
		body, err := c.Autocomplete(context.Background(), input)
		if err != nil {
			t.Fatalf("Autocomplete(%q) error = %v", input, err)
		}
		if string(body) != `{"predictions":[]}` {
			t.Errorf("Autocomplete(%q) = %s, want empty predictions", input, body)
		}
	}
	if called {
		t.Error("short input must not reach the provider")
	}
}

func TestAutocompleteForwardsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("input") != "Hauptstr" {
			t.Errorf("input = %q", q.Get("input"))
		}
		if q.Get("key") != "key" {
			t.Errorf("key = %q", q.Get("key"))
		}
		if q.Get("language") != "de" {
			t.Errorf("language = %q", q.Get("language"))
		}
		if q.Get("components") != "country:de" {
			t.Errorf("components = %q", q.Get("components"))
		}
		w.Write([]byte(`{"predictions":[{"description":"Hauptstraße 1"}]}`))
	}))
	defer srv.Close()

	c := NewClient("key")
	c.autocompleteURL = srv.URL

	body, err := c.Autocomplete(context.Background(), "Hauptstr")
	if err != nil {
		t.Fatalf("Autocomplete() error = %v", err)
	}
	if string(body) != `{"predictions":[{"description":"Hauptstraße 1"}]}` {
		t.Errorf("body = %s, want raw passthrough", body)
	}
}

func TestReverseGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("latlng"); got != "52.52,13.405" {
			t.Errorf("latlng = %q", got)
		}
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	c := NewClient("key")
	c.geocodeURL = srv.URL

	body, err := c.ReverseGeocode(context.Background(), "52.52", "13.405")
	if err != nil {
		t.Fatalf("ReverseGeocode() error = %v", err)
	}
	if string(body) != `{"results":[]}` {
		t.Errorf("body = %s", body)
	}
}

func TestProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient("bad-key")
	c.geocodeURL = srv.URL

	if _, err := c.ReverseGeocode(context.Background(), "1", "2"); err == nil {
		t.Fatal("expected error for non-200 provider status")
	}
}
