package voting

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumiere-atelier/backend/internal/middleware"
	"github.com/lumiere-atelier/backend/internal/models"
	"github.com/lumiere-atelier/backend/pkg/queue"
	"github.com/lumiere-atelier/backend/pkg/response"
	"github.com/lumiere-atelier/backend/pkg/storage"
)

// CreateEventRequest is the body for POST /admin/voting/events.
type CreateEventRequest struct {
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description" binding:"required"`
	StartDate   time.Time `json:"start_date" binding:"required"`
	EndDate     time.Time `json:"end_date" binding:"required"`
	Activate    bool      `json:"activate"`
}

// UpdateEventRequest is the body for PUT /admin/voting/events/:id.
// Nil dates keep the stored values; a provided pair is validated against the
// effective window.
type UpdateEventRequest struct {
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description" binding:"required"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

// OptionRequest is the body for creating or updating an option.
type OptionRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"display_order"`
}

// AdminHandler handles the admin voting endpoints. Event mutations enqueue
// best-effort S3 image cleanup through the job queue.
type AdminHandler struct {
	repo   *Repository
	s3     *storage.S3
	queue  *queue.Queue
	logger *zap.Logger
}

// NewAdminHandler creates the admin voting handler.
func NewAdminHandler(repo *Repository, s3 *storage.S3, q *queue.Queue, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{repo: repo, s3: s3, queue: q, logger: logger}
}

// ListEvents handles GET /admin/voting/events.
func (h *AdminHandler) ListEvents(c *gin.Context) {
	events, err := h.repo.ListEvents(c.Request.Context())
	if err != nil {
		h.logger.Error("list events failed", zap.Error(err))
		response.Internal(c, "failed to list events")
		return
	}
	response.OK(c, events)
}

// CreateEvent handles POST /admin/voting/events.
func (h *AdminHandler) CreateEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !req.EndDate.After(req.StartDate) {
		response.BadRequest(c, "end_date must be after start_date")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	event := &models.VotingEvent{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      ResolveStatus(req.StartDate, req.EndDate, time.Now()),
		CreatedBy:   userID,
	}
	if err := h.repo.CreateEvent(c.Request.Context(), event); err != nil {
		h.logger.Error("create event failed", zap.Error(err))
		response.Internal(c, "failed to create event")
		return
	}

	if req.Activate {
		activated, err := h.repo.ActivateEvent(c.Request.Context(), event.ID)
		if err != nil {
			h.logger.Error("activate new event failed", zap.Error(err), zap.String("event_id", event.ID.String()))
			response.Internal(c, "event created but activation failed")
			return
		}
		event = activated
	}
	response.Created(c, event)
}

// GetEvent handles GET /admin/voting/events/:id.
func (h *AdminHandler) GetEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	event, err := h.repo.GetEventByID(c.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		response.Internal(c, "failed to load event")
		return
	}
	response.OK(c, event)
}

// UpdateEvent handles PUT /admin/voting/events/:id.
func (h *AdminHandler) UpdateEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	current, err := h.repo.GetEventByID(c.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		response.Internal(c, "failed to load event")
		return
	}

	// Validate the effective window when either date changes.
	start, end := current.StartDate, current.EndDate
	if req.StartDate != nil {
		start = *req.StartDate
	}
	if req.EndDate != nil {
		end = *req.EndDate
	}
	if !end.After(start) {
		response.BadRequest(c, "end_date must be after start_date")
		return
	}

	event, err := h.repo.UpdateEvent(c.Request.Context(), eventID, req.Name, req.Description, req.StartDate, req.EndDate)
	if err != nil {
		h.logger.Error("update event failed", zap.Error(err), zap.String("event_id", eventID.String()))
		response.Internal(c, "failed to update event")
		return
	}
	response.OK(c, event)
}

// DeleteEvent handles DELETE /admin/voting/events/:id. Options and votes go
// via cascade; stored option images are cleaned up by a background job and
// may outlive the record if that job fails.
func (h *AdminHandler) DeleteEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	keys, err := h.repo.DeleteEvent(c.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		h.logger.Error("delete event failed", zap.Error(err), zap.String("event_id", eventID.String()))
		response.Internal(c, "failed to delete event")
		return
	}
	h.enqueueImageCleanup(c, eventID, keys)
	response.OK(c, gin.H{"deleted": true})
}

// ActivateEvent handles POST /admin/voting/events/:id/activate.
func (h *AdminHandler) ActivateEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	event, err := h.repo.ActivateEvent(c.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		h.logger.Error("activate event failed", zap.Error(err), zap.String("event_id", eventID.String()))
		response.Internal(c, "failed to activate event")
		return
	}
	response.OK(c, event)
}

// DeactivateEvent handles DELETE /admin/voting/events/:id/activate.
func (h *AdminHandler) DeactivateEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	event, err := h.repo.DeactivateEvent(c.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		h.logger.Error("deactivate event failed", zap.Error(err), zap.String("event_id", eventID.String()))
		response.Internal(c, "failed to deactivate event")
		return
	}
	response.OK(c, event)
}

// ListOptions handles GET /admin/voting/events/:id/options.
func (h *AdminHandler) ListOptions(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	options, err := h.repo.ListOptions(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to list options")
		return
	}
	response.OK(c, options)
}

// CreateOption handles POST /admin/voting/events/:id/options.
func (h *AdminHandler) CreateOption(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req OptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if _, err := h.repo.GetEventByID(c.Request.Context(), eventID); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		response.Internal(c, "failed to load event")
		return
	}

	option := &models.VotingOption{
		EventID:      eventID,
		Name:         req.Name,
		Description:  req.Description,
		DisplayOrder: req.DisplayOrder,
	}
	if err := h.repo.CreateOption(c.Request.Context(), option); err != nil {
		h.logger.Error("create option failed", zap.Error(err), zap.String("event_id", eventID.String()))
		response.Internal(c, "failed to create option")
		return
	}
	response.Created(c, option)
}

// UpdateOption handles PUT /admin/voting/events/:id/options/:optionId.
func (h *AdminHandler) UpdateOption(c *gin.Context) {
	eventID, optionID, ok := h.parseOptionIDs(c)
	if !ok {
		return
	}
	var req OptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	option, err := h.repo.UpdateOption(c.Request.Context(), eventID, optionID, req.Name, req.Description, req.DisplayOrder)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "option not found for this event")
			return
		}
		h.logger.Error("update option failed", zap.Error(err), zap.String("option_id", optionID.String()))
		response.Internal(c, "failed to update option")
		return
	}
	response.OK(c, option)
}

// DeleteOption handles DELETE /admin/voting/events/:id/options/:optionId.
func (h *AdminHandler) DeleteOption(c *gin.Context) {
	eventID, optionID, ok := h.parseOptionIDs(c)
	if !ok {
		return
	}
	keys, err := h.repo.DeleteOption(c.Request.Context(), eventID, optionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "option not found for this event")
			return
		}
		h.logger.Error("delete option failed", zap.Error(err), zap.String("option_id", optionID.String()))
		response.Internal(c, "failed to delete option")
		return
	}
	h.enqueueImageCleanup(c, eventID, keys)
	response.OK(c, gin.H{"deleted": true})
}

// UploadOptionImage handles POST /admin/voting/events/:id/options/:optionId/images.
// Uploads a multipart image to S3 and appends its public URL to the option.
func (h *AdminHandler) UploadOptionImage(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "media storage not configured")
		return
	}
	eventID, optionID, ok := h.parseOptionIDs(c)
	if !ok {
		return
	}
	if _, err := h.repo.GetOption(c.Request.Context(), eventID, optionID); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "option not found for this event")
			return
		}
		response.Internal(c, "failed to load option")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file (form field: file)")
		return
	}
	if file.Size > storage.MaxImageFileSize {
		response.BadRequest(c, "file size exceeds 5MB limit")
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !storage.ValidateImageFileType(contentType, file.Filename) {
		response.BadRequest(c, "invalid file type: only jpg, png, and webp images allowed")
		return
	}
	if _, okType := storage.AllowedImageTypes[contentType]; !okType {
		contentType = storage.ContentTypeForFilename(file.Filename)
	}

	src, err := file.Open()
	if err != nil {
		response.Internal(c, "failed to read upload")
		return
	}
	defer src.Close()

	key := storage.OptionImageKey(optionID.String(), file.Filename)
	url, err := h.s3.Upload(c.Request.Context(), key, contentType, src, file.Size)
	if err != nil {
		h.logger.Error("option image upload failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to upload image")
		return
	}

	option, err := h.repo.AppendOptionImage(c.Request.Context(), eventID, optionID, url, key)
	if err != nil {
		h.logger.Error("append option image failed", zap.Error(err), zap.String("option_id", optionID.String()))
		response.Internal(c, "failed to record image")
		return
	}
	response.Created(c, option)
}

// imageURLExpire bounds presigned option-image links.
const imageURLExpire = 15 * time.Minute

// GetOptionImageURL handles GET /admin/voting/events/:id/options/:optionId/image-url.
// Returns a short-lived presigned download link for one of the option's stored
// images, for dashboard previews when the media bucket is not public-read.
func (h *AdminHandler) GetOptionImageURL(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "media storage not configured")
		return
	}
	eventID, optionID, ok := h.parseOptionIDs(c)
	if !ok {
		return
	}
	key := c.Query("key")
	if key == "" {
		response.BadRequest(c, "missing key query parameter")
		return
	}

	option, err := h.repo.GetOption(c.Request.Context(), eventID, optionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "option not found for this event")
			return
		}
		response.Internal(c, "failed to load option")
		return
	}
	owned := false
	for _, k := range option.ImageKeys {
		if k == key {
			owned = true
			break
		}
	}
	if !owned {
		response.NotFound(c, "image not found on this option")
		return
	}

	url, err := h.s3.GeneratePresignedDownloadURL(c.Request.Context(), key, imageURLExpire)
	if err != nil {
		h.logger.Error("presign image url failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to generate download url")
		return
	}
	response.OK(c, gin.H{
		"url":                url,
		"bucket":             h.s3.MediaBucket(),
		"expires_in_seconds": int(imageURLExpire.Seconds()),
	})
}

func (h *AdminHandler) parseOptionIDs(c *gin.Context) (eventID, optionID uuid.UUID, ok bool) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return uuid.Nil, uuid.Nil, false
	}
	optionID, err = uuid.Parse(c.Param("optionId"))
	if err != nil {
		response.BadRequest(c, "invalid option id")
		return uuid.Nil, uuid.Nil, false
	}
	return eventID, optionID, true
}

func (h *AdminHandler) enqueueImageCleanup(c *gin.Context, eventID uuid.UUID, keys []string) {
	if h.queue == nil || len(keys) == 0 {
		return
	}
	err := h.queue.EnqueueImageCleanup(c.Request.Context(), queue.ImageCleanupPayload{
		EventID: eventID,
		S3Keys:  keys,
	})
	if err != nil {
		// Orphaned objects are acceptable; never fail the delete for this.
		h.logger.Warn("image cleanup enqueue failed", zap.Error(err), zap.String("event_id", eventID.String()))
	}
}
