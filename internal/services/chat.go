package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bookbridge/bookbridge-backend/internal/data/repos"
	chattypes "github.com/bookbridge/bookbridge-backend/internal/domain/chat"
	usertypes "github.com/bookbridge/bookbridge-backend/internal/domain/user"
	"github.com/bookbridge/bookbridge-backend/internal/pkg/dbctx"
	"github.com/bookbridge/bookbridge-backend/internal/platform/logger"
	"github.com/bookbridge/bookbridge-backend/internal/platform/openai"
	"github.com/bookbridge/bookbridge-backend/internal/rag"
)

const (
	chatTopK            = 5
	chatHistoryWindow   = 10
	selectedTextWindow  = 2
	maxContextFragments = 8
)

type ChatQueryRequest struct {
	SessionID uuid.UUID
	UserID    uuid.UUID
	Question  string
}

type ChatQueryResponse struct {
	SessionID      uuid.UUID   `json:"session_id"`
	Answer         string      `json:"answer"`
	CitedContentID []uuid.UUID `json:"cited_content_ids"`
	RelevanceScore float64     `json:"relevance_score"`
}

type ChatService interface {
	StartSession(ctx context.Context, userID, bookID uuid.UUID, mode, selectedText string) (*chattypes.ChatSession, error)
	Query(ctx context.Context, req *ChatQueryRequest) (*ChatQueryResponse, error)
	ListSessions(ctx context.Context, userID uuid.UUID) ([]*chattypes.ChatSession, error)
	History(ctx context.Context, userID, sessionID uuid.UUID, limit int) ([]*chattypes.ChatMessage, error)
}

type chatService struct {
	db          *gorm.DB
	log         *logger.Logger
	ai          openai.Client
	retriever   rag.Retriever
	userRepo    repos.UserRepo
	contentRepo repos.BookContentRepo
	sessionRepo repos.ChatSessionRepo
	messageRepo repos.ChatMessageRepo
}

func NewChatService(
	db *gorm.DB,
	log *logger.Logger,
	ai openai.Client,
	retriever rag.Retriever,
	userRepo repos.UserRepo,
	contentRepo repos.BookContentRepo,
	sessionRepo repos.ChatSessionRepo,
	messageRepo repos.ChatMessageRepo,
) ChatService {
	return &chatService{
		db:          db,
		log:         log.With("service", "ChatService"),
		ai:          ai,
		retriever:   retriever,
		userRepo:    userRepo,
		contentRepo: contentRepo,
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
	}
}

func (cs *chatService) StartSession(ctx context.Context, userID, bookID uuid.UUID, mode, selectedText string) (*chattypes.ChatSession, error) {
	if mode == "" {
		mode = chattypes.ModeFullBook
	}
	if !chattypes.ValidMode(mode) {
		return nil, fmt.Errorf("unknown chat mode %q", mode)
	}
	if mode == chattypes.ModeSelectedText && strings.TrimSpace(selectedText) == "" {
		return nil, fmt.Errorf("selected_text mode requires a text selection")
	}
	if mode == chattypes.ModeFullBook {
		selectedText = ""
	}

	session := &chattypes.ChatSession{
		ID:           uuid.New(),
		UserID:       userID,
		BookID:       bookID,
		Mode:         mode,
		SelectedText: selectedText,
	}
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return cs.sessionRepo.Create(dbctx.Context{Ctx: ctx, Tx: tx}, session)
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

func (cs *chatService) Query(ctx context.Context, req *ChatQueryRequest) (*ChatQueryResponse, error) {
	if req == nil || strings.TrimSpace(req.Question) == "" {
		return nil, fmt.Errorf("question required")
	}

	session, err := cs.sessionRepo.GetByID(dbctx.Context{Ctx: ctx}, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil || session.UserID != req.UserID {
		return nil, fmt.Errorf("session %s not found", req.SessionID)
	}

	fragments, err := cs.gatherContext(ctx, session, req.Question)
	if err != nil {
		return nil, err
	}

	history, err := cs.messageRepo.ListRecent(dbctx.Context{Ctx: ctx}, session.ID, chatHistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	user, err := cs.userRepo.GetByID(dbctx.Context{Ctx: ctx}, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	system := cs.systemPrompt(session, user)
	prompt := cs.userPrompt(req.Question, fragments, history)

	started := time.Now()
	answer, err := cs.ai.GenerateText(ctx, system, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	cs.log.Info("chat answer generated",
		"user_id", req.UserID,
		"session_id", session.ID,
		"mode", session.Mode,
		"question", truncate(req.Question, 80),
		"fragments", len(fragments),
		"duration_ms", time.Since(started).Milliseconds(),
	)

	citations := make([]uuid.UUID, 0, len(fragments))
	topScore := 0.0
	for _, frag := range fragments {
		citations = append(citations, frag.Content.ID)
		if frag.RelevanceScore > topScore {
			topScore = frag.RelevanceScore
		}
	}
	citedJSON, err := json.Marshal(citations)
	if err != nil {
		return nil, fmt.Errorf("encode citations: %w", err)
	}

	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := cs.messageRepo.Create(dbc, &chattypes.ChatMessage{
			ID:        uuid.New(),
			SessionID: session.ID,
			UserID:    req.UserID,
			Role:      chattypes.RoleUser,
			Content:   req.Question,
		}); err != nil {
			return fmt.Errorf("store question: %w", err)
		}
		if err := cs.messageRepo.Create(dbc, &chattypes.ChatMessage{
			ID:              uuid.New(),
			SessionID:       session.ID,
			UserID:          req.UserID,
			Role:            chattypes.RoleAssistant,
			Content:         answer,
			RelevanceScore:  topScore,
			CitedContentIDs: citedJSON,
		}); err != nil {
			return fmt.Errorf("store answer: %w", err)
		}
		if session.Title == "" {
			// First exchange names the session.
			if err := cs.sessionRepo.SetTitle(dbc, session.ID, truncate(req.Question, 60)); err != nil {
				return fmt.Errorf("set session title: %w", err)
			}
		}
		return cs.sessionRepo.TouchLastActive(dbc, session.ID)
	})
	if err != nil {
		return nil, err
	}

	return &ChatQueryResponse{
		SessionID:      session.ID,
		Answer:         answer,
		CitedContentID: citations,
		RelevanceScore: topScore,
	}, nil
}

func (cs *chatService) ListSessions(ctx context.Context, userID uuid.UUID) ([]*chattypes.ChatSession, error) {
	return cs.sessionRepo.ListByUser(dbctx.Context{Ctx: ctx}, userID, 0)
}

func (cs *chatService) History(ctx context.Context, userID, sessionID uuid.UUID, limit int) ([]*chattypes.ChatMessage, error) {
	session, err := cs.sessionRepo.GetByID(dbctx.Context{Ctx: ctx}, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil || session.UserID != userID {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	return cs.messageRepo.ListRecent(dbctx.Context{Ctx: ctx}, sessionID, limit)
}

// gatherContext picks grounding chunks according to the session mode. In
// selected_text mode retrieval is pinned to the selection and its neighbor
// chunks; in full_book mode it runs hybrid retrieval over the whole book.
func (cs *chatService) gatherContext(ctx context.Context, session *chattypes.ChatSession, question string) ([]*rag.ContextFragment, error) {
	if session.Mode == chattypes.ModeSelectedText {
		chunks, err := cs.contentRepo.ListByBook(dbctx.Context{Ctx: ctx}, session.BookID)
		if err != nil {
			return nil, fmt.Errorf("load book chunks: %w", err)
		}
		fragments := rag.ContextForExplanation(session.SelectedText, chunks, selectedTextWindow)
		if len(fragments) > maxContextFragments {
			fragments = fragments[:maxContextFragments]
		}
		return fragments, nil
	}

	results, err := cs.retriever.SearchWithRerank(ctx, session.BookID, question, chatTopK)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	fragments := make([]*rag.ContextFragment, 0, len(results))
	for _, res := range results {
		fragments = append(fragments, &rag.ContextFragment{
			Content:        res.Content,
			RelevanceScore: res.RerankedScore,
		})
	}
	return fragments, nil
}

func (cs *chatService) systemPrompt(session *chattypes.ChatSession, user *usertypes.User) string {
	var b strings.Builder
	b.WriteString("You are a teaching assistant for a technical textbook. ")
	b.WriteString("Answer using only the provided book excerpts. ")
	b.WriteString("If the excerpts do not cover the question, say so instead of guessing.")
	if session.Mode == chattypes.ModeSelectedText {
		b.WriteString(" The reader highlighted a passage; focus your explanation on it.")
	}
	if user != nil {
		if user.SoftwareBackground != "" {
			fmt.Fprintf(&b, " The reader's software background: %s.", user.SoftwareBackground)
		}
		if user.HardwareBackground != "" {
			fmt.Fprintf(&b, " The reader's hardware background: %s.", user.HardwareBackground)
		}
		if user.PreferredLanguage != "" && user.PreferredLanguage != "en" {
			fmt.Fprintf(&b, " Answer in language %q.", user.PreferredLanguage)
		}
	}
	return b.String()
}

func (cs *chatService) userPrompt(question string, fragments []*rag.ContextFragment, history []*chattypes.ChatMessage) string {
	var b strings.Builder

	if len(fragments) > 0 {
		b.WriteString("Book excerpts:\n")
		for i, frag := range fragments {
			fmt.Fprintf(&b, "[%d]", i+1)
			if frag.Content.SectionTitle != "" {
				fmt.Fprintf(&b, " (%s)", frag.Content.SectionTitle)
			}
			b.WriteString(" ")
			b.WriteString(frag.Content.ContentText)
			b.WriteString("\n\n")
		}
	}

	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, msg := range history {
			fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
		}
		b.WriteString("\n")
	}

	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Back off to a rune boundary so multibyte text is never cut mid-rune.
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
