package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bookbridge/bookbridge-backend/internal/data/repos"
	usertypes "github.com/bookbridge/bookbridge-backend/internal/domain/user"
	"github.com/bookbridge/bookbridge-backend/internal/pkg/dbctx"
	"github.com/bookbridge/bookbridge-backend/internal/platform/logger"
)

type UserProfile struct {
	User    *usertypes.User                   `json:"user"`
	Profile *usertypes.PersonalizationProfile `json:"profile,omitempty"`
}

type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserProfile, error)
	UpdateBackground(ctx context.Context, userID uuid.UUID, software, hardware string) error
	UpdatePreferredLanguage(ctx context.Context, userID uuid.UUID, language string) error
	UpdatePlan(ctx context.Context, userID uuid.UUID, plan string) error
}

type userService struct {
	db          *gorm.DB
	log         *logger.Logger
	userRepo    repos.UserRepo
	profileRepo repos.PersonalizationProfileRepo
}

func NewUserService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	profileRepo repos.PersonalizationProfileRepo,
) UserService {
	return &userService{
		db:          db,
		log:         log.With("service", "UserService"),
		userRepo:    userRepo,
		profileRepo: profileRepo,
	}
}

func (us *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*UserProfile, error) {
	dbc := dbctx.Context{Ctx: ctx}

	user, err := us.userRepo.GetByID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s not found", userID)
	}

	profile, err := us.profileRepo.GetByUserID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load personalization profile: %w", err)
	}

	return &UserProfile{User: user, Profile: profile}, nil
}

func (us *userService) UpdateBackground(ctx context.Context, userID uuid.UUID, software, hardware string) error {
	return us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return us.userRepo.UpdateBackground(dbctx.Context{Ctx: ctx, Tx: tx}, userID, software, hardware)
	})
}

func (us *userService) UpdatePreferredLanguage(ctx context.Context, userID uuid.UUID, language string) error {
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		return fmt.Errorf("language required")
	}
	return us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return us.userRepo.UpdatePreferredLanguage(dbctx.Context{Ctx: ctx, Tx: tx}, userID, language)
	})
}

func (us *userService) UpdatePlan(ctx context.Context, userID uuid.UUID, plan string) error {
	if !usertypes.ValidPlan(plan) {
		return fmt.Errorf("unknown plan %q", plan)
	}
	return us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return us.userRepo.UpdatePlan(dbctx.Context{Ctx: ctx, Tx: tx}, userID, plan)
	})
}
