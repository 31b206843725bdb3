package cache

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"category":"gowns"}`)

	tests := []struct {
		name      string
		secret    string
		signature string
		want      bool
	}{
		{"valid", "shared-secret", sign("shared-secret", body), true},
		{"wrong secret", "shared-secret", sign("other-secret", body), false},
		{"tampered body signature", "shared-secret", sign("shared-secret", []byte(`{"category":"addons"}`)), false},
		{"empty signature", "shared-secret", "", false},
		{"unset secret rejects even matching", "", sign("", body), false},
		{"not hex", "shared-secret", "zzzz", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifySignature(tt.secret, body, tt.signature); got != tt.want {
				t.Errorf("VerifySignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

type stubDeleter struct {
	deleted []string
	perCall int
	err     error
}

func (s *stubDeleter) DeleteByPattern(_ context.Context, pattern string) (int, error) {
	s.deleted = append(s.deleted, pattern)
	return s.perCall, s.err
}

func TestInvalidator(t *testing.T) {
	t.Run("single category hits both patterns", func(t *testing.T) {
		stub := &stubDeleter{perCall: 3}
		inv := NewInvalidator(stub, nil)

		n, err := inv.Invalidate(context.Background(), CategoryAddons)
		if err != nil {
			t.Fatalf("Invalidate() error = %v", err)
		}
		if n != 6 {
			t.Errorf("Invalidate() = %d keys, want 6", n)
		}
		if len(stub.deleted) != 2 {
			t.Fatalf("patterns deleted = %v, want 2 entries", stub.deleted)
		}
	})

	t.Run("all categories", func(t *testing.T) {
		stub := &stubDeleter{perCall: 1}
		inv := NewInvalidator(stub, nil)

		counts, err := inv.InvalidateAll(context.Background())
		if err != nil {
			t.Fatalf("InvalidateAll() error = %v", err)
		}
		for _, cat := range Categories {
			if counts[cat] != 2 {
				t.Errorf("counts[%s] = %d, want 2", cat, counts[cat])
			}
		}
	})

	t.Run("errors surface but do not stop other categories", func(t *testing.T) {
		stub := &stubDeleter{err: errors.New("redis down")}
		inv := NewInvalidator(stub, nil)

		_, err := inv.InvalidateAll(context.Background())
		if err == nil {
			t.Fatal("InvalidateAll() error = nil, want redis error")
		}
		// One pattern attempted per category (first pattern fails, loop
		// stops within the category, continues to the next).
		if len(stub.deleted) != len(Categories) {
			t.Errorf("attempts = %d, want %d", len(stub.deleted), len(Categories))
		}
	})
}

func newWebhookRouter(secret string, stub *stubDeleter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewInvalidator(stub, nil), secret, nil)
	r := gin.New()
	r.POST("/webhooks/cms", h.Webhook)
	r.POST("/admin/cache/invalidate", h.Invalidate)
	return r
}

func TestWebhookEndpoint(t *testing.T) {
	secret := "shared-secret"

	t.Run("valid signature invalidates category", func(t *testing.T) {
		stub := &stubDeleter{perCall: 2}
		r := newWebhookRouter(secret, stub)

		body := []byte(`{"category":"gowns"}`)
		req := httptest.NewRequest(http.MethodPost, "/webhooks/cms", bytes.NewReader(body))
		req.Header.Set("X-Webhook-Signature", sign(secret, body))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
		}
		if len(stub.deleted) != 2 {
			t.Errorf("patterns deleted = %v, want gowns list and item patterns", stub.deleted)
		}
	})

	t.Run("missing signature rejected", func(t *testing.T) {
		stub := &stubDeleter{}
		r := newWebhookRouter(secret, stub)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/cms", bytes.NewReader([]byte(`{}`)))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
		if len(stub.deleted) != 0 {
			t.Error("cache touched despite rejected signature")
		}
	})

	t.Run("unknown category rejected", func(t *testing.T) {
		stub := &stubDeleter{}
		r := newWebhookRouter(secret, stub)

		body := []byte(`{"category":"veils"}`)
		req := httptest.NewRequest(http.MethodPost, "/webhooks/cms", bytes.NewReader(body))
		req.Header.Set("X-Webhook-Signature", sign(secret, body))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})

	t.Run("empty body invalidates everything", func(t *testing.T) {
		stub := &stubDeleter{perCall: 1}
		r := newWebhookRouter(secret, stub)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/cms", bytes.NewReader(nil))
		req.Header.Set("X-Webhook-Signature", sign(secret, nil))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
		}
		if len(stub.deleted) != 2*len(Categories) {
			t.Errorf("attempts = %d, want %d", len(stub.deleted), 2*len(Categories))
		}
	})

	t.Run("admin endpoint skips signature", func(t *testing.T) {
		stub := &stubDeleter{perCall: 1}
		r := newWebhookRouter(secret, stub)

		body := []byte(`{"category":"collections"}`)
		req := httptest.NewRequest(http.MethodPost, "/admin/cache/invalidate", bytes.NewReader(body))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
		}
	})
}
