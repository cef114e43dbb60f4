package db

import (
	"fmt"

	"gorm.io/gorm"

	authtypes "github.com/bookbridge/bookbridge-backend/internal/domain/auth"
	chattypes "github.com/bookbridge/bookbridge-backend/internal/domain/chat"
	contenttypes "github.com/bookbridge/bookbridge-backend/internal/domain/content"
	usertypes "github.com/bookbridge/bookbridge-backend/internal/domain/user"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Identity + auth
		&usertypes.User{},
		&authtypes.UserToken{},

		// Book content + translation cache
		&contenttypes.BookContent{},
		&contenttypes.TranslationCache{},

		// Reading state + personalization
		&usertypes.UserProgress{},
		&usertypes.PersonalizationProfile{},

		// Chat
		&chattypes.ChatSession{},
		&chattypes.ChatMessage{},
	)
}

func EnsureContentIndexes(db *gorm.DB) error {
	// Lexical retrieval over chunk text, used by the keyword side of hybrid search.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_book_content_fts
		ON book_content
		USING GIN (to_tsvector('english', content_text))
	`).Error; err != nil {
		return fmt.Errorf("create idx_book_content_fts: %w", err)
	}

	// Neighbor lookups around a chunk.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_book_content_book_chapter_chunk
		ON book_content (book_id, chapter, chunk_index)
	`).Error; err != nil {
		return fmt.Errorf("create idx_book_content_book_chapter_chunk: %w", err)
	}

	return nil
}

func EnsureChatIndexes(db *gorm.DB) error {
	// Fast message pagination per session.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_chat_message_session_created
		ON chat_message (session_id, created_at)
	`).Error; err != nil {
		return fmt.Errorf("create idx_chat_message_session_created: %w", err)
	}

	// Session listing per user, most recent first.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_chat_session_user_last_active
		ON chat_session (user_id, last_active_at DESC)
	`).Error; err != nil {
		return fmt.Errorf("create idx_chat_session_user_last_active: %w", err)
	}

	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureContentIndexes(s.db); err != nil {
		s.log.Error("Content index migration failed", "error", err)
		return err
	}
	if err := EnsureChatIndexes(s.db); err != nil {
		s.log.Error("Chat index migration failed", "error", err)
		return err
	}
	return nil
}
