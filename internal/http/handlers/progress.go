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

type ProgressHandler struct {
	log             *logger.Logger
	progressService services.ProgressService
}

func NewProgressHandler(log *logger.Logger, progressService services.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		log:             log.With("handler", "ProgressHandler"),
		progressService: progressService,
	}
}

// POST /api/v1/progress
func (h *ProgressHandler) Report(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req struct {
		ContentID    string  `json:"content_id"`
		Percentage   float64 `json:"percentage"`
		LastPosition int     `json:"last_position"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	contentID, err := uuid.Parse(req.ContentID)
	if err != nil || contentID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_content_id", err)
		return
	}
	row, err := h.progressService.Report(c.Request.Context(), rd.UserID, contentID, req.Percentage, req.LastPosition)
	if err != nil {
		h.log.Error("Report failed", "error", err, "user_id", rd.UserID, "content_id", contentID)
		response.RespondError(c, http.StatusBadRequest, "report_progress_failed", err)
		return
	}
	response.RespondOK(c, row)
}

// GET /api/v1/progress
func (h *ProgressHandler) List(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	rows, err := h.progressService.List(c.Request.Context(), rd.UserID)
	if err != nil {
		h.log.Error("List failed", "error", err, "user_id", rd.UserID)
		response.RespondError(c, http.StatusInternalServerError, "list_progress_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"progress": rows})
}
