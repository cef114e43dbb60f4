package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	chattypes "github.com/bookbridge/bookbridge-backend/internal/domain/chat"
	contenttypes "github.com/bookbridge/bookbridge-backend/internal/domain/content"
	usertypes "github.com/bookbridge/bookbridge-backend/internal/domain/user"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *usertypes.User {
	tb.Helper()
	u := &usertypes.User{
		ID:                uuid.New(),
		Email:             email,
		Password:          "pw",
		FirstName:         "A",
		LastName:          "B",
		PreferredLanguage: "en",
		Plan:              usertypes.PlanFree,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedBookContent(tb testing.TB, ctx context.Context, tx *gorm.DB, bookID uuid.UUID, chapter, chunkIndex int, text string) *contenttypes.BookContent {
	tb.Helper()
	c := &contenttypes.BookContent{
		ID:           uuid.New(),
		BookID:       bookID,
		Chapter:      chapter,
		SectionTitle: fmt.Sprintf("Section %d.%d", chapter, chunkIndex),
		ChunkIndex:   chunkIndex,
		PageNumber:   chapter*10 + chunkIndex,
		ContentText:  text,
		ContentType:  contenttypes.ContentTypeText,
		Language:     "en",
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed book content: %v", err)
	}
	return c
}

func SeedChatSession(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, bookID uuid.UUID, mode string) *chattypes.ChatSession {
	tb.Helper()
	s := &chattypes.ChatSession{
		ID:     uuid.New(),
		UserID: userID,
		BookID: bookID,
		Mode:   mode,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed chat session: %v", err)
	}
	return s
}
