package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bookbridge/bookbridge-backend/internal/http/response"
	"github.com/bookbridge/bookbridge-backend/internal/pkg/ctxutil"
	"github.com/bookbridge/bookbridge-backend/internal/platform/logger"
	"github.com/bookbridge/bookbridge-backend/internal/services"
)

const maxUploadBytes = 64 << 20

type ContentHandler struct {
	log             *logger.Logger
	contentService  services.ContentService
	personalization services.PersonalizationService
}

func NewContentHandler(log *logger.Logger, contentService services.ContentService, personalization services.PersonalizationService) *ContentHandler {
	return &ContentHandler{
		log:             log.With("handler", "ContentHandler"),
		contentService:  contentService,
		personalization: personalization,
	}
}

// POST /api/v1/content/ingest
func (h *ContentHandler) Ingest(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return
	}

	bookID, err := uuid.Parse(c.PostForm("book_id"))
	if err != nil || bookID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_book_id", err)
		return
	}
	chapter := 0
	if raw := c.PostForm("chapter"); raw != "" {
		if chapter, err = strconv.Atoi(raw); err != nil || chapter < 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_chapter", err)
			return
		}
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	if len(data) > maxUploadBytes {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large", nil)
		return
	}

	result, err := h.contentService.IngestChapter(c.Request.Context(), &services.IngestRequest{
		BookID:       bookID,
		Chapter:      chapter,
		SectionTitle: strings.TrimSpace(c.PostForm("section_title")),
		Language:     c.PostForm("language"),
		FileName:     fileHeader.Filename,
		MimeType:     fileHeader.Header.Get("Content-Type"),
		Data:         data,
	})
	if err != nil {
		h.log.Error("Ingest failed", "error", err, "book_id", bookID, "chapter", chapter)
		response.RespondError(c, http.StatusInternalServerError, "ingest_failed", err)
		return
	}
	response.RespondOK(c, result)
}

// GET /api/v1/content/:content_id
func (h *ContentHandler) GetContent(c *gin.Context) {
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
	row, err := h.contentService.GetContent(c.Request.Context(), contentID)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "content_not_found", err)
		return
	}
	response.RespondOK(c, row)
}

// POST /api/v1/content/:content_id/personalize
func (h *ContentHandler) Personalize(c *gin.Context) {
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
	result, err := h.personalization.PersonalizeContent(c.Request.Context(), rd.UserID, contentID)
	if err != nil {
		h.log.Error("Personalize failed", "error", err, "content_id", contentID, "user_id", rd.UserID)
		response.RespondError(c, http.StatusInternalServerError, "personalize_failed", err)
		return
	}
	response.RespondOK(c, result)
}

// DELETE /api/v1/books/:book_id
func (h *ContentHandler) DeleteBook(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	bookID, err := uuid.Parse(c.Param("book_id"))
	if err != nil || bookID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_book_id", err)
		return
	}
	if err := h.contentService.DeleteBook(c.Request.Context(), bookID); err != nil {
		h.log.Error("DeleteBook failed", "error", err, "book_id", bookID)
		response.RespondError(c, http.StatusInternalServerError, "delete_book_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
