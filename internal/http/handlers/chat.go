package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bookbridge/bookbridge-backend/internal/http/response"
	"github.com/bookbridge/bookbridge-backend/internal/pkg/ctxutil"
	"github.com/bookbridge/bookbridge-backend/internal/platform/logger"
	"github.com/bookbridge/bookbridge-backend/internal/services"
)

type ChatHandler struct {
	log         *logger.Logger
	chatService services.ChatService
}

func NewChatHandler(log *logger.Logger, chatService services.ChatService) *ChatHandler {
	return &ChatHandler{
		log:         log.With("handler", "ChatHandler"),
		chatService: chatService,
	}
}

// POST /api/v1/chatbot/sessions
func (h *ChatHandler) StartSession(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req struct {
		BookID       string `json:"book_id"`
		Mode         string `json:"mode"`
		SelectedText string `json:"selected_text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	bookID, err := uuid.Parse(req.BookID)
	if err != nil || bookID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_book_id", err)
		return
	}
	session, err := h.chatService.StartSession(c.Request.Context(), rd.UserID, bookID, req.Mode, req.SelectedText)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "start_session_failed", err)
		return
	}
	response.RespondOK(c, session)
}

// POST /api/v1/chatbot/query
func (h *ChatHandler) Query(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req struct {
		SessionID    string `json:"session_id"`
		BookID       string `json:"book_id"`
		Mode         string `json:"mode"`
		SelectedText string `json:"selected_text"`
		Question     string `json:"question"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var sessionID uuid.UUID
	if req.SessionID != "" {
		id, err := uuid.Parse(req.SessionID)
		if err != nil || id == uuid.Nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
			return
		}
		sessionID = id
	} else {
		// No session yet: open one against the given book before answering.
		bookID, err := uuid.Parse(req.BookID)
		if err != nil || bookID == uuid.Nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_book_id", err)
			return
		}
		session, err := h.chatService.StartSession(c.Request.Context(), rd.UserID, bookID, req.Mode, req.SelectedText)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "start_session_failed", err)
			return
		}
		sessionID = session.ID
	}
	res, err := h.chatService.Query(c.Request.Context(), &services.ChatQueryRequest{
		SessionID: sessionID,
		UserID:    rd.UserID,
		Question:  req.Question,
	})
	if err != nil {
		h.log.Error("Query failed", "error", err, "session_id", sessionID, "user_id", rd.UserID)
		response.RespondError(c, http.StatusInternalServerError, "query_failed", err)
		return
	}
	response.RespondOK(c, res)
}

// GET /api/v1/chatbot/sessions
func (h *ChatHandler) ListSessions(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	sessions, err := h.chatService.ListSessions(c.Request.Context(), rd.UserID)
	if err != nil {
		h.log.Error("ListSessions failed", "error", err, "user_id", rd.UserID)
		response.RespondError(c, http.StatusInternalServerError, "list_sessions_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"sessions": sessions})
}

// GET /api/v1/chatbot/sessions/:id/messages
func (h *ChatHandler) History(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil || sessionID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	messages, err := h.chatService.History(c.Request.Context(), rd.UserID, sessionID, limit)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	response.RespondOK(c, gin.H{"messages": messages})
}
