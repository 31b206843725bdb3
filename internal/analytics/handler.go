package analytics

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lumiere-atelier/backend/internal/models"
	"github.com/lumiere-atelier/backend/internal/voting"
	"github.com/lumiere-atelier/backend/pkg/queue"
	"github.com/lumiere-atelier/backend/pkg/response"
	"github.com/lumiere-atelier/backend/pkg/utils"
)

// TrackRequest is the body for POST /analytics/track.
type TrackRequest struct {
	Path     string `json:"path" binding:"required"`
	Referrer string `json:"referrer"`
}

// SummaryResponse is the admin dashboard analytics shape.
type SummaryResponse struct {
	Views7d          int                 `json:"views_7d"`
	Unique7d         int                 `json:"unique_7d"`
	Views30d         int                 `json:"views_30d"`
	Unique30d        int                 `json:"unique_30d"`
	ViewsTotal       int                 `json:"views_total"`
	TopPaths         []models.PathCount  `json:"top_paths"`
	ActiveEvent      *models.VotingEvent `json:"active_event,omitempty"`
	ActiveEventVotes int                 `json:"active_event_votes"`
}

// Handler handles analytics HTTP endpoints.
type Handler struct {
	repo       *Repository
	votingRepo *voting.Repository
	queue      *queue.Queue
	logger     *zap.Logger
}

// NewHandler creates an analytics handler.
func NewHandler(repo *Repository, votingRepo *voting.Repository, q *queue.Queue, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, votingRepo: votingRepo, queue: q, logger: logger}
}

// Track handles POST /analytics/track. Fire-and-forget: the view is queued
// for the worker, and a queue failure is logged but still answered 202 so
// tracking can never break a page.
func (h *Handler) Track(c *gin.Context) {
	var req TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	payload := queue.PageViewPayload{
		Path:        req.Path,
		Referrer:    req.Referrer,
		VisitorHash: utils.HashVisitor(c.ClientIP(), c.Request.UserAgent()),
		UserAgent:   c.Request.UserAgent(),
		ViewedAt:    time.Now(),
	}
	if err := h.queue.EnqueuePageView(c.Request.Context(), payload); err != nil {
		h.logger.Warn("page view enqueue failed", zap.Error(err), zap.String("path", req.Path))
	}
	response.Accepted(c)
}

// Summary handles GET /admin/analytics/summary.
func (h *Handler) Summary(c *gin.Context) {
	ctx := c.Request.Context()
	now := time.Now()

	views7, unique7, err := h.repo.CountSince(ctx, now.AddDate(0, 0, -7))
	if err != nil {
		h.logger.Error("load 7d views failed", zap.Error(err))
		response.Internal(c, "failed to load analytics")
		return
	}
	views30, unique30, err := h.repo.CountSince(ctx, now.AddDate(0, 0, -30))
	if err != nil {
		h.logger.Error("load 30d views failed", zap.Error(err))
		response.Internal(c, "failed to load analytics")
		return
	}
	viewsTotal, _, err := h.repo.CountSince(ctx, time.Time{})
	if err != nil {
		h.logger.Error("load total views failed", zap.Error(err))
		response.Internal(c, "failed to load analytics")
		return
	}
	topPaths, err := h.repo.TopPaths(ctx, now.AddDate(0, 0, -30), 10)
	if err != nil {
		h.logger.Error("load top paths failed", zap.Error(err))
		response.Internal(c, "failed to load analytics")
		return
	}

	out := SummaryResponse{
		Views7d:    views7,
		Unique7d:   unique7,
		Views30d:   views30,
		Unique30d:  unique30,
		ViewsTotal: viewsTotal,
		TopPaths:   topPaths,
	}

	// Vote totals for the active event are a nice-to-have on the dashboard;
	// failures here degrade to page-view stats only.
	if event, err := h.votingRepo.GetActiveEvent(ctx); err == nil && event != nil {
		out.ActiveEvent = event
		if counts, err := h.votingRepo.CountVotesByOption(ctx, event.ID); err == nil {
			for _, n := range counts {
				out.ActiveEventVotes += n
			}
		}
	}

	response.OK(c, out)
}
