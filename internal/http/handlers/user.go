package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bookbridge/bookbridge-backend/internal/http/response"
	"github.com/bookbridge/bookbridge-backend/internal/pkg/ctxutil"
	"github.com/bookbridge/bookbridge-backend/internal/platform/logger"
	"github.com/bookbridge/bookbridge-backend/internal/services"
)

type UserHandler struct {
	log             *logger.Logger
	userService     services.UserService
	personalization services.PersonalizationService
}

func NewUserHandler(log *logger.Logger, userService services.UserService, personalization services.PersonalizationService) *UserHandler {
	return &UserHandler{
		log:             log.With("handler", "UserHandler"),
		userService:     userService,
		personalization: personalization,
	}
}

// GET /api/v1/me
func (h *UserHandler) GetMe(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	profile, err := h.userService.GetProfile(c.Request.Context(), rd.UserID)
	if err != nil {
		h.log.Error("GetMe failed", "error", err, "user_id", rd.UserID)
		response.RespondError(c, http.StatusInternalServerError, "load_profile_failed", err)
		return
	}
	response.RespondOK(c, profile)
}

// PUT /api/v1/me/background
func (h *UserHandler) UpdateBackground(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req struct {
		SoftwareBackground string `json:"software_background"`
		HardwareBackground string `json:"hardware_background"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.userService.UpdateBackground(c.Request.Context(), rd.UserID, req.SoftwareBackground, req.HardwareBackground); err != nil {
		h.log.Error("UpdateBackground failed", "error", err, "user_id", rd.UserID)
		response.RespondError(c, http.StatusInternalServerError, "update_background_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// PUT /api/v1/me/language
func (h *UserHandler) UpdateLanguage(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req struct {
		Language string `json:"language"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.userService.UpdatePreferredLanguage(c.Request.Context(), rd.UserID, req.Language); err != nil {
		response.RespondError(c, http.StatusBadRequest, "update_language_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// PUT /api/v1/me/plan
func (h *UserHandler) UpdatePlan(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req struct {
		Plan string `json:"plan"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.userService.UpdatePlan(c.Request.Context(), rd.UserID, req.Plan); err != nil {
		response.RespondError(c, http.StatusBadRequest, "update_plan_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// PUT /api/v1/me/profile
func (h *UserHandler) UpdatePersonalizationProfile(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req struct {
		Attributes map[string]any `json:"attributes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	profile, err := h.personalization.UpdateProfile(c.Request.Context(), rd.UserID, req.Attributes)
	if err != nil {
		h.log.Error("UpdatePersonalizationProfile failed", "error", err, "user_id", rd.UserID)
		response.RespondError(c, http.StatusInternalServerError, "update_profile_failed", err)
		return
	}
	response.RespondOK(c, profile)
}
