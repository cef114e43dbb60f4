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

type TranslationHandler struct {
	log         *logger.Logger
	translation services.TranslationService
	userService services.UserService
}

func NewTranslationHandler(log *logger.Logger, translation services.TranslationService, userService services.UserService) *TranslationHandler {
	return &TranslationHandler{
		log:         log.With("handler", "TranslationHandler"),
		translation: translation,
		userService: userService,
	}
}

// GET /api/v1/translation/:content_id
//
// The target language comes from the lang query param, falling back to the
// reader's preferred language.
func (h *TranslationHandler) GetTranslation(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	contentID, err := uuid.Parse(c.Param("content_id"))
	if err != nil || contentID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_content_id", err)
		return
	}

	lang := c.Query("lang")
	if lang == "" {
		profile, err := h.userService.GetProfile(c.Request.Context(), rd.UserID)
		if err != nil {
			h.log.Error("GetTranslation failed (load user)", "error", err, "user_id", rd.UserID)
			response.RespondError(c, http.StatusInternalServerError, "load_user_failed", err)
			return
		}
		lang = profile.User.PreferredLanguage
	}

	res, err := h.translation.Translate(c.Request.Context(), contentID, lang)
	if err != nil {
		h.log.Error("GetTranslation failed", "error", err, "content_id", contentID, "lang", lang)
		response.RespondError(c, http.StatusInternalServerError, "translation_failed", err)
		return
	}
	response.RespondOK(c, res)
}
