package cms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, NewClient(srv.URL, "test-token", 5*time.Second)
}

func TestListGowns(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/gowns" {
			t.Errorf("path = %q, want /api/gowns", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want Bearer test-token", got)
		}
		if got := r.URL.Query().Get("category"); got != "ballgown" {
			t.Errorf("category = %q, want ballgown", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"1","slug":"seraphina-silk","name":"Seraphina","category":"ballgown","price_cents":45000,"available":true}]`))
	})

	gowns, err := client.ListGowns(context.Background(), "ballgown")
	if err != nil {
		t.Fatalf("ListGowns() error = %v", err)
	}
	if len(gowns) != 1 {
		t.Fatalf("len(gowns) = %d, want 1", len(gowns))
	}
	if gowns[0].Slug != "seraphina-silk" || gowns[0].PriceCents != 45000 {
		t.Errorf("gown = %+v", gowns[0])
	}
}

func TestGetGownBySlug(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/gowns/odette-tulle" {
				t.Errorf("path = %q", r.URL.Path)
			}
			w.Write([]byte(`{"id":"2","slug":"odette-tulle","name":"Odette"}`))
		})
		gown, err := client.GetGownBySlug(context.Background(), "odette-tulle")
		if err != nil {
			t.Fatalf("GetGownBySlug() error = %v", err)
		}
		if gown.Name != "Odette" {
			t.Errorf("Name = %q, want Odette", gown.Name)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		_, err := client.GetGownBySlug(context.Background(), "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestListAddonsAndCollections(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/addons":
			w.Write([]byte(`[{"id":"a1","slug":"pearl-veil","name":"Pearl Veil","price_cents":5000}]`))
		case "/api/collections":
			w.Write([]byte(`[{"id":"c1","slug":"spring-2026","name":"Spring 2026","season":"spring"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	addons, err := client.ListAddons(context.Background())
	if err != nil {
		t.Fatalf("ListAddons() error = %v", err)
	}
	if len(addons) != 1 || addons[0].Slug != "pearl-veil" {
		t.Errorf("addons = %+v", addons)
	}

	collections, err := client.ListCollections(context.Background())
	if err != nil {
		t.Fatalf("ListCollections() error = %v", err)
	}
	if len(collections) != 1 || collections[0].Season != "spring" {
		t.Errorf("collections = %+v", collections)
	}
}

func TestServerError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	if _, err := client.ListAddons(context.Background()); err == nil {
		t.Error("ListAddons() error = nil, want status error")
	}
	if _, err := client.ListAddons(context.Background()); errors.Is(err, ErrNotFound) {
		t.Error("500 mapped to ErrNotFound")
	}
}
