package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bookbridge/bookbridge-backend/internal/data/repos"
	usertypes "github.com/bookbridge/bookbridge-backend/internal/domain/user"
	"github.com/bookbridge/bookbridge-backend/internal/pkg/dbctx"
	"github.com/bookbridge/bookbridge-backend/internal/platform/logger"
)

type ProgressService interface {
	Report(ctx context.Context, userID, contentID uuid.UUID, percentage float64, lastPosition int) (*usertypes.UserProgress, error)
	Get(ctx context.Context, userID, contentID uuid.UUID) (*usertypes.UserProgress, error)
	List(ctx context.Context, userID uuid.UUID) ([]*usertypes.UserProgress, error)
}

type progressService struct {
	db           *gorm.DB
	log          *logger.Logger
	progressRepo repos.UserProgressRepo
}

func NewProgressService(db *gorm.DB, log *logger.Logger, progressRepo repos.UserProgressRepo) ProgressService {
	return &progressService{
		db:           db,
		log:          log.With("service", "ProgressService"),
		progressRepo: progressRepo,
	}
}

func (ps *progressService) Report(ctx context.Context, userID, contentID uuid.UUID, percentage float64, lastPosition int) (*usertypes.UserProgress, error) {
	if contentID == uuid.Nil {
		return nil, fmt.Errorf("content id required")
	}
	if percentage < 0 || percentage > 100 {
		return nil, fmt.Errorf("percentage %g out of range [0,100]", percentage)
	}
	if lastPosition < 0 {
		lastPosition = 0
	}

	now := time.Now()
	row := &usertypes.UserProgress{
		ID:           uuid.New(),
		UserID:       userID,
		ContentID:    contentID,
		Percentage:   percentage,
		LastPosition: lastPosition,
		Completed:    percentage >= 100,
		LastReadAt:   &now,
	}
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ps.progressRepo.Upsert(dbctx.Context{Ctx: ctx, Tx: tx}, row)
	})
	if err != nil {
		return nil, fmt.Errorf("store progress: %w", err)
	}
	return ps.progressRepo.GetByUserAndContent(dbctx.Context{Ctx: ctx}, userID, contentID)
}

func (ps *progressService) Get(ctx context.Context, userID, contentID uuid.UUID) (*usertypes.UserProgress, error) {
	return ps.progressRepo.GetByUserAndContent(dbctx.Context{Ctx: ctx}, userID, contentID)
}

func (ps *progressService) List(ctx context.Context, userID uuid.UUID) ([]*usertypes.UserProgress, error) {
	return ps.progressRepo.ListByUser(dbctx.Context{Ctx: ctx}, userID)
}
