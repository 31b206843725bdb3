package cache

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lumiere-atelier/backend/pkg/response"
)

// InvalidateRequest is the body for POST /webhooks/cms and
// POST /admin/cache/invalidate. An empty category means all categories.
type InvalidateRequest struct {
	Category string `json:"category"`
}

// Handler handles cache invalidation over HTTP: the CMS webhook and the
// equivalent admin action.
type Handler struct {
	invalidator   *Invalidator
	webhookSecret string
	logger        *zap.Logger
}

// NewHandler creates a cache invalidation handler.
func NewHandler(invalidator *Invalidator, webhookSecret string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{invalidator: invalidator, webhookSecret: webhookSecret, logger: logger}
}

// Webhook handles POST /webhooks/cms. The CMS signs the raw body with the
// shared secret (hex HMAC-SHA256 in X-Webhook-Signature).
func (h *Handler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		response.BadRequest(c, "failed to read body")
		return
	}
	if !VerifySignature(h.webhookSecret, body, c.GetHeader("X-Webhook-Signature")) {
		response.Unauthorized(c, "invalid signature")
		return
	}
	h.invalidate(c, body)
}

// Invalidate handles POST /admin/cache/invalidate (admin session required by
// the router).
func (h *Handler) Invalidate(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		response.BadRequest(c, "failed to read body")
		return
	}
	h.invalidate(c, body)
}

func (h *Handler) invalidate(c *gin.Context, body []byte) {
	var req InvalidateRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			response.BadRequest(c, "invalid request body")
			return
		}
	}

	ctx := c.Request.Context()
	if req.Category == "" {
		counts, err := h.invalidator.InvalidateAll(ctx)
		if err != nil {
			h.logger.Error("cache invalidation failed", zap.Error(err))
			response.Internal(c, "cache invalidation failed")
			return
		}
		response.OK(c, gin.H{"invalidated": counts})
		return
	}

	if !ValidCategory(req.Category) {
		response.BadRequest(c, "unknown category: "+req.Category)
		return
	}
	n, err := h.invalidator.Invalidate(ctx, Category(req.Category))
	if err != nil {
		h.logger.Error("cache invalidation failed", zap.Error(err), zap.String("category", req.Category))
		response.Internal(c, "cache invalidation failed")
		return
	}
	response.OK(c, gin.H{"invalidated": map[string]int{req.Category: n}})
}

// VerifySignature checks a hex HMAC-SHA256 signature over body against the
// shared secret. An unset secret rejects everything: webhooks are disabled
// until configured.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
