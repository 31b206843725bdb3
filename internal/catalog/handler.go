// Package catalog serves the public catalog read API: gowns, add-on
// accessories, and collections, all sourced from the CMS through the Redis
// read-through cache.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lumiere-atelier/backend/internal/cache"
	"github.com/lumiere-atelier/backend/internal/cms"
	"github.com/lumiere-atelier/backend/internal/models"
	"github.com/lumiere-atelier/backend/pkg/response"
)

// Handler handles catalog HTTP endpoints.
type Handler struct {
	cms     *cms.Client
	store   *cache.Store
	listTTL time.Duration
	itemTTL time.Duration
	logger  *zap.Logger
}

// NewHandler creates a catalog handler.
func NewHandler(cmsClient *cms.Client, store *cache.Store, listTTL, itemTTL time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{cms: cmsClient, store: store, listTTL: listTTL, itemTTL: itemTTL, logger: logger}
}

// ListGowns handles GET /catalog/gowns (?category= filters).
func (h *Handler) ListGowns(c *gin.Context) {
	category := c.Query("category")
	key := cache.ListKey(cache.CategoryGowns, category)

	var gowns []models.Gown
	err := h.store.GetOrLoad(c.Request.Context(), key, h.listTTL, &gowns, func(ctx context.Context) (interface{}, error) {
		return h.cms.ListGowns(ctx, category)
	})
	if err != nil {
		h.logger.Error("list gowns failed", zap.Error(err))
		response.Internal(c, "failed to load gowns")
		return
	}
	response.OK(c, gowns)
}

// GetGown handles GET /catalog/gowns/:slug.
func (h *Handler) GetGown(c *gin.Context) {
	slug := c.Param("slug")
	key := cache.ItemKey(cache.CategoryGowns, slug)

	var gown models.Gown
	err := h.store.GetOrLoad(c.Request.Context(), key, h.itemTTL, &gown, func(ctx context.Context) (interface{}, error) {
		return h.cms.GetGownBySlug(ctx, slug)
	})
	if err != nil {
		if errors.Is(err, cms.ErrNotFound) {
			response.NotFound(c, "gown not found")
			return
		}
		h.logger.Error("get gown failed", zap.Error(err), zap.String("slug", slug))
		response.Internal(c, "failed to load gown")
		return
	}
	response.OK(c, gown)
}

// ListAddons handles GET /catalog/addons.
func (h *Handler) ListAddons(c *gin.Context) {
	key := cache.ListKey(cache.CategoryAddons, "")

	var addons []models.Addon
	err := h.store.GetOrLoad(c.Request.Context(), key, h.listTTL, &addons, func(ctx context.Context) (interface{}, error) {
		return h.cms.ListAddons(ctx)
	})
	if err != nil {
		h.logger.Error("list addons failed", zap.Error(err))
		response.Internal(c, "failed to load addons")
		return
	}
	response.OK(c, addons)
}

// ListCollections handles GET /catalog/collections.
func (h *Handler) ListCollections(c *gin.Context) {
	key := cache.ListKey(cache.CategoryCollections, "")

	var collections []models.Collection
	err := h.store.GetOrLoad(c.Request.Context(), key, h.listTTL, &collections, func(ctx context.Context) (interface{}, error) {
		return h.cms.ListCollections(ctx)
	})
	if err != nil {
		h.logger.Error("list collections failed", zap.Error(err))
		response.Internal(c, "failed to load collections")
		return
	}
	response.OK(c, collections)
}
