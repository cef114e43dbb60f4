package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/bookbridge/bookbridge-backend/internal/data/repos"
	"github.com/bookbridge/bookbridge-backend/internal/pkg/dbctx"
	"github.com/bookbridge/bookbridge-backend/internal/platform/logger"
)

const (
	sweepInterval       = time.Hour
	staleSessionMaxAge  = 30 * 24 * time.Hour
	sessionSweepTimeout = 2 * time.Minute
)

// Scheduler runs the background sweeps: expired translation rows, revoked
// and expired refresh tokens, and chat sessions idle past the retention cutoff.
type Scheduler struct {
	scheduler *gocron.Scheduler
	log       *logger.Logger

	translations repos.TranslationCacheRepo
	userTokens   repos.UserTokenRepo
	chatSessions repos.ChatSessionRepo
}

func New(
	log *logger.Logger,
	translations repos.TranslationCacheRepo,
	userTokens repos.UserTokenRepo,
	chatSessions repos.ChatSessionRepo,
) *Scheduler {
	return &Scheduler{
		scheduler:    gocron.NewScheduler(time.UTC),
		log:          log.With("component", "Scheduler"),
		translations: translations,
		userTokens:   userTokens,
		chatSessions: chatSessions,
	}
}

func (s *Scheduler) Start() {
	s.scheduler.Every(sweepInterval).Do(s.sweep)
	s.scheduler.StartAsync()
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sessionSweepTimeout)
	defer cancel()
	dbc := dbctx.Context{Ctx: ctx}

	if n, err := s.translations.DeleteExpired(dbc); err != nil {
		s.log.Error("Translation sweep failed", "error", err)
	} else if n > 0 {
		s.log.Info("Expired translations removed", "count", n)
	}

	if n, err := s.userTokens.DeleteExpired(dbc); err != nil {
		s.log.Error("Token sweep failed", "error", err)
	} else if n > 0 {
		s.log.Info("Expired refresh tokens removed", "count", n)
	}

	cutoff := time.Now().Add(-staleSessionMaxAge)
	if n, err := s.chatSessions.DeleteInactiveSince(dbc, cutoff); err != nil {
		s.log.Error("Session sweep failed", "error", err)
	} else if n > 0 {
		s.log.Info("Stale chat sessions removed", "count", n)
	}
}
