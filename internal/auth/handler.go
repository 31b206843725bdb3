package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumiere-atelier/backend/internal/models"
	"github.com/lumiere-atelier/backend/pkg/response"
	"github.com/lumiere-atelier/backend/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role"` // optional, defaults to staff
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with the session token.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo   *Repository
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, jwt *JWTService, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, jwt: jwt, logger: logger}
}

// Register handles POST /auth/register. The first user ever created becomes
// an admin regardless of the requested role (bootstrap); once any user
// exists, registering further accounts requires an admin session.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	role := models.RoleStaff
	switch req.Role {
	case "", "staff":
	case "admin":
		role = models.RoleAdmin
	default:
		response.BadRequest(c, "invalid role")
		return
	}

	count, err := h.repo.Count(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to check existing users")
		return
	}
	if count == 0 {
		role = models.RoleAdmin
	} else if !h.isAdminRequest(c) {
		response.Forbidden(c, "registration requires an admin session")
		return
	}

	if _, err := h.repo.GetByEmail(c.Request.Context(), req.Email); err == nil {
		response.Conflict(c, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user, err := h.repo.Create(c.Request.Context(), req.Email, hash, req.FullName, role)
	if err != nil {
		h.logger.Error("create user failed", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	h.setSessionCookie(c, token)
	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	h.setSessionCookie(c, token)
	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Me handles GET /auth/me (JWT required). Returns the authenticated user,
// fetched fresh so role changes take effect without re-login.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := c.MustGet(ContextUserID).(uuid.UUID)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	user, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.Unauthorized(c, "unauthorized")
		return
	}
	response.OK(c, user.ToPublic())
}

// Logout handles POST /auth/logout. Clears the session cookie.
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie(SessionCookieName, "", -1, "/", "", false, true)
	response.OK(c, gin.H{"logged_out": true})
}

// isAdminRequest checks for a valid admin token on the request itself. The
// register route stays public for bootstrap, so the JWT middleware never runs
// in front of it.
func (h *Handler) isAdminRequest(c *gin.Context) bool {
	token := ""
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		token = strings.TrimPrefix(header, "Bearer ")
	} else if cookie, err := c.Cookie(SessionCookieName); err == nil {
		token = cookie
	}
	if token == "" {
		return false
	}
	claims, err := h.jwt.Validate(token)
	return err == nil && claims.Role == string(models.RoleAdmin)
}

func (h *Handler) setSessionCookie(c *gin.Context, token string) {
	maxAge := int(h.jwt.ExpireDuration().Seconds())
	c.SetCookie(SessionCookieName, token, maxAge, "/", "", false, true)
}
