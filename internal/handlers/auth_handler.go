package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/personnel_accounting/internal/audit"
	"github.com/personnel_accounting/internal/auth"
	"github.com/personnel_accounting/internal/services"
	"github.com/personnel_accounting/pkg/utils"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthHandler serves login, logout and the current user.
type AuthHandler struct {
	service services.AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(service services.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Login godoc
// @Summary Log in
// @Description Verifies the credentials and returns a JWT. Writes a LOGIN audit row.
// @Tags auth
// @Accept  json
// @Produce  json
// @Param credentials body LoginRequest true "Credentials"
// @Success 200 {object} utils.SuccessResponse{data=services.LoginResult}
// @Failure 400 {object} utils.APIErrorResponse "Invalid request parameters"
// @Failure 401 {object} utils.APIErrorResponse "Invalid username or password"
// @Failure 429 {object} utils.APIErrorResponse "Too many login attempts"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	res, err := h.service.Login(c.Request.Context(), audit.FromGin(c), req.Username, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, res, "Logged in")
}

// Logout godoc
// @Summary Log out
// @Description Invalidates the current token until it expires.
// @Tags auth
// @Security BearerAuth
// @Produce  json
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.APIErrorResponse "Token has no JTI or expiry"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	exp, ok := c.Get(auth.KeyExpires)
	expiresAt, okTime := exp.(time.Time)
	if !ok || !okTime {
		utils.RespondAPIError(c, http.StatusBadRequest, "Logout context error: EXP not found in context", nil)
		return
	}
	if err := h.service.Logout(c.Request.Context(), audit.FromGin(c), expiresAt); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, nil, "Logged out")
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Security BearerAuth
// @Produce  json
// @Success 200 {object} utils.SuccessResponse{data=models.User}
// @Failure 404 {object} utils.APIErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.service.Me(c.Request.Context(), c.GetInt64(auth.KeyUserID))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, user, "")
}
