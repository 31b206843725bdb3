package voting

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lumiere-atelier/backend/pkg/storage"
)

func newAdminRouter(t *testing.T, withS3 bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var s3 *storage.S3
	if withS3 {
		var err error
		s3, err = storage.NewS3(context.Background(), storage.S3Config{
			Region:          "eu-west-1",
			AccessKeyID:     "AKIATEST",
			SecretAccessKey: "test-secret",
			MediaBucket:     "lumiere-media-test",
		}, nil)
		if err != nil {
			t.Fatalf("NewS3() error = %v", err)
		}
	}
	h := NewAdminHandler(nil, s3, nil, nil)
	r := gin.New()
	r.GET("/admin/voting/events/:id/options/:optionId/image-url", h.GetOptionImageURL)
	return r
}

func TestGetOptionImageURLValidation(t *testing.T) {
	eventID, optionID := uuid.New(), uuid.New()

	t.Run("no media storage configured", func(t *testing.T) {
		r := newAdminRouter(t, false)
		req := httptest.NewRequest(http.MethodGet,
			"/admin/voting/events/"+eventID.String()+"/options/"+optionID.String()+"/image-url?key=x", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", w.Code)
		}
	})

	t.Run("invalid event id", func(t *testing.T) {
		r := newAdminRouter(t, true)
		req := httptest.NewRequest(http.MethodGet,
			"/admin/voting/events/nope/options/"+optionID.String()+"/image-url?key=x", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		r := newAdminRouter(t, true)
		req := httptest.NewRequest(http.MethodGet,
			"/admin/voting/events/"+eventID.String()+"/options/"+optionID.String()+"/image-url", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}
