package voting

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumiere-atelier/backend/internal/models"
	"github.com/lumiere-atelier/backend/pkg/response"
	"github.com/lumiere-atelier/backend/pkg/utils"
)

// VoteRequest is the body for POST /voting/vote.
type VoteRequest struct {
	EventID  string `json:"event_id" binding:"required"`
	OptionID string `json:"option_id" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

// VoteResponse is the success shape for POST /voting/vote.
type VoteResponse struct {
	Message string    `json:"message"`
	VoteID  uuid.UUID `json:"vote_id"`
}

// ActiveEventResponse is the shape for GET /voting/active.
type ActiveEventResponse struct {
	Event   *models.VotingEvent   `json:"event"`
	Options []models.VotingOption `json:"options,omitempty"`
}

// Broadcaster pushes live result updates to dashboard clients.
type Broadcaster interface {
	BroadcastToEvent(eventID uuid.UUID, event string, payload interface{})
}

// Handler handles voting HTTP endpoints, public and admin.
type Handler struct {
	repo   *Repository
	hub    Broadcaster
	logger *zap.Logger
}

// NewHandler creates a voting handler.
func NewHandler(repo *Repository, hub Broadcaster, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, hub: hub, logger: logger}
}

// GetActive handles GET /voting/active. Returns the single currently-active
// event with its options, or a null event when nothing is accepting votes.
func (h *Handler) GetActive(c *gin.Context) {
	event, err := h.repo.GetActiveEvent(c.Request.Context())
	if err != nil {
		h.logger.Error("get active event failed", zap.Error(err))
		response.Internal(c, "failed to load active event")
		return
	}
	if event == nil {
		response.OK(c, ActiveEventResponse{Event: nil})
		return
	}
	options, err := h.repo.ListOptions(c.Request.Context(), event.ID)
	if err != nil {
		h.logger.Error("list options failed", zap.Error(err), zap.String("event_id", event.ID.String()))
		response.Internal(c, "failed to load options")
		return
	}
	response.OK(c, ActiveEventResponse{Event: event, Options: options})
}

// SubmitVote handles POST /voting/vote. Validates input, checks the event is
// inside its voting window, checks eligibility, verifies the option belongs
// to the event, then persists. The unique constraint at insert is the final
// duplicate gate.
func (h *Handler) SubmitVote(c *gin.Context) {
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	optionID, err := uuid.Parse(req.OptionID)
	if err != nil {
		response.BadRequest(c, "invalid option id")
		return
	}

	ctx := c.Request.Context()
	event, err := h.repo.GetEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "voting event not found")
			return
		}
		h.logger.Error("get event failed", zap.Error(err))
		response.Internal(c, "failed to load event")
		return
	}
	if !ResolveActive(event.IsActive, ResolveStatus(event.StartDate, event.EndDate, time.Now())) {
		response.BadRequest(c, "voting event is not active")
		return
	}

	emailHash := utils.HashEmail(req.Email)
	voted, err := h.repo.HasVoted(ctx, eventID, emailHash)
	if err != nil {
		h.logger.Error("eligibility check failed", zap.Error(err))
		response.Internal(c, "failed to check eligibility")
		return
	}
	if voted {
		response.BadRequest(c, "you have already voted in this event")
		return
	}

	if _, err := h.repo.GetOption(ctx, eventID, optionID); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.BadRequest(c, "option does not belong to this event")
			return
		}
		h.logger.Error("get option failed", zap.Error(err))
		response.Internal(c, "failed to load option")
		return
	}

	vote := &models.Vote{
		EventID:   eventID,
		OptionID:  optionID,
		EmailHash: emailHash,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if err := h.repo.InsertVote(ctx, vote); err != nil {
		if errors.Is(err, ErrDuplicateVote) {
			// Lost the race against a concurrent submission from the same voter.
			response.BadRequest(c, "you have already voted in this event")
			return
		}
		h.logger.Error("insert vote failed", zap.Error(err))
		response.Internal(c, "failed to record vote")
		return
	}

	h.broadcastResults(c, eventID)
	response.Created(c, VoteResponse{Message: "vote recorded", VoteID: vote.ID})
}

// GetResults handles GET /voting/results/:eventId (public) and
// GET /admin/voting/events/:id/results.
func (h *Handler) GetResults(c *gin.Context) {
	idParam := c.Param("eventId")
	if idParam == "" {
		idParam = c.Param("id")
	}
	eventID, err := uuid.Parse(idParam)
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}

	results, err := h.loadResults(c, eventID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "voting event not found")
			return
		}
		h.logger.Error("load results failed", zap.Error(err), zap.String("event_id", eventID.String()))
		response.Internal(c, "failed to load results")
		return
	}
	response.OK(c, results)
}

func (h *Handler) loadResults(c *gin.Context, eventID uuid.UUID) (*models.EventResults, error) {
	ctx := c.Request.Context()
	event, err := h.repo.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	options, err := h.repo.ListOptions(ctx, eventID)
	if err != nil {
		return nil, err
	}
	counts, err := h.repo.CountVotesByOption(ctx, eventID)
	if err != nil {
		return nil, err
	}
	total, results := CalculateResults(options, counts)
	return &models.EventResults{Event: event, TotalVotes: total, Results: results}, nil
}

// broadcastResults pushes fresh tallies to live dashboard watchers.
// Best-effort: failures are logged and never affect the vote itself.
func (h *Handler) broadcastResults(c *gin.Context, eventID uuid.UUID) {
	if h.hub == nil {
		return
	}
	results, err := h.loadResults(c, eventID)
	if err != nil {
		h.logger.Warn("results broadcast skipped", zap.Error(err), zap.String("event_id", eventID.String()))
		return
	}
	h.hub.BroadcastToEvent(eventID, "results_update", results)
}
