package repos

import (
	"gorm.io/gorm"

	"github.com/bookbridge/bookbridge-backend/internal/data/repos/auth"
	"github.com/bookbridge/bookbridge-backend/internal/data/repos/chat"
	"github.com/bookbridge/bookbridge-backend/internal/data/repos/content"
	"github.com/bookbridge/bookbridge-backend/internal/data/repos/user"
	"github.com/bookbridge/bookbridge-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserProgressRepo = user.UserProgressRepo
type PersonalizationProfileRepo = user.PersonalizationProfileRepo

type UserTokenRepo = auth.UserTokenRepo

type BookContentRepo = content.BookContentRepo
type TranslationCacheRepo = content.TranslationCacheRepo

type ChatSessionRepo = chat.ChatSessionRepo
type ChatMessageRepo = chat.ChatMessageRepo

// Repos bundles every repository for wiring in main.
type Repos struct {
	User                   UserRepo
	UserProgress           UserProgressRepo
	PersonalizationProfile PersonalizationProfileRepo
	UserToken              UserTokenRepo
	BookContent            BookContentRepo
	TranslationCache       TranslationCacheRepo
	ChatSession            ChatSessionRepo
	ChatMessage            ChatMessageRepo
}

func NewRepos(db *gorm.DB, baseLog *logger.Logger) *Repos {
	return &Repos{
		User:                   user.NewUserRepo(db, baseLog),
		UserProgress:           user.NewUserProgressRepo(db, baseLog),
		PersonalizationProfile: user.NewPersonalizationProfileRepo(db, baseLog),
		UserToken:              auth.NewUserTokenRepo(db, baseLog),
		BookContent:            content.NewBookContentRepo(db, baseLog),
		TranslationCache:       content.NewTranslationCacheRepo(db, baseLog),
		ChatSession:            chat.NewChatSessionRepo(db, baseLog),
		ChatMessage:            chat.NewChatMessageRepo(db, baseLog),
	}
}
