package voting

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newVotingRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(nil, nil, nil)
	r := gin.New()
	r.POST("/voting/vote", h.SubmitVote)
	r.GET("/voting/results/:eventId", h.GetResults)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitVoteValidation(t *testing.T) {
	r := newVotingRouter()

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing event id", map[string]string{"option_id": "x", "email": "a@b.com"}},
		{"missing option id", map[string]string{"event_id": "x", "email": "a@b.com"}},
		{"missing email", map[string]string{"event_id": "x", "option_id": "y"}},
		{"malformed email", map[string]string{"event_id": "x", "option_id": "y", "email": "not-an-email"}},
		{"event id not a uuid", map[string]string{"event_id": "nope", "option_id": "5bd2a1ce-0a8e-4a4e-b863-5f318f7b1c3d", "email": "a@b.com"}},
		{"option id not a uuid", map[string]string{"event_id": "5bd2a1ce-0a8e-4a4e-b863-5f318f7b1c3d", "option_id": "nope", "email": "a@b.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, r, "/voting/vote", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestGetResultsInvalidID(t *testing.T) {
	r := newVotingRouter()

	req := httptest.NewRequest(http.MethodGet, "/voting/results/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400; body: %s", w.Code, w.Body.String())
	}
}
