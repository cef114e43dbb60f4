package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/bookbridge/bookbridge-backend/internal/data/repos"
	usertypes "github.com/bookbridge/bookbridge-backend/internal/domain/user"
	"github.com/bookbridge/bookbridge-backend/internal/pkg/dbctx"
	"github.com/bookbridge/bookbridge-backend/internal/platform/logger"
	"github.com/bookbridge/bookbridge-backend/internal/platform/openai"
)

const personalizeTimeout = 90 * time.Second

type PersonalizedContent struct {
	ContentID        uuid.UUID       `json:"content_id"`
	PersonalizedText string          `json:"personalized_text"`
	KeyConcepts      []string        `json:"key_concepts"`
	Difficulty       string          `json:"difficulty"`
	ProfileUsed      json.RawMessage `json:"profile_used,omitempty"`
}

type PersonalizationService interface {
	UpdateProfile(ctx context.Context, userID uuid.UUID, attributes map[string]any) (*usertypes.PersonalizationProfile, error)
	PersonalizeContent(ctx context.Context, userID, contentID uuid.UUID) (*PersonalizedContent, error)
}

type personalizationService struct {
	db          *gorm.DB
	log         *logger.Logger
	ai          openai.Client
	userRepo    repos.UserRepo
	profileRepo repos.PersonalizationProfileRepo
	contentRepo repos.BookContentRepo
}

func NewPersonalizationService(
	db *gorm.DB,
	log *logger.Logger,
	ai openai.Client,
	userRepo repos.UserRepo,
	profileRepo repos.PersonalizationProfileRepo,
	contentRepo repos.BookContentRepo,
) PersonalizationService {
	return &personalizationService{
		db:          db,
		log:         log.With("service", "PersonalizationService"),
		ai:          ai,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		contentRepo: contentRepo,
	}
}

func (ps *personalizationService) UpdateProfile(ctx context.Context, userID uuid.UUID, attributes map[string]any) (*usertypes.PersonalizationProfile, error) {
	if attributes == nil {
		attributes = map[string]any{}
	}
	encoded, err := json.Marshal(attributes)
	if err != nil {
		return nil, fmt.Errorf("encode attributes: %w", err)
	}

	row := &usertypes.PersonalizationProfile{
		ID:         uuid.New(),
		UserID:     userID,
		Attributes: datatypes.JSON(encoded),
	}
	err = ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ps.profileRepo.Upsert(dbctx.Context{Ctx: ctx, Tx: tx}, row)
	})
	if err != nil {
		return nil, fmt.Errorf("store profile: %w", err)
	}
	return ps.profileRepo.GetByUserID(dbctx.Context{Ctx: ctx}, userID)
}

func (ps *personalizationService) PersonalizeContent(ctx context.Context, userID, contentID uuid.UUID) (*PersonalizedContent, error) {
	ctx, cancel := context.WithTimeout(ctx, personalizeTimeout)
	defer cancel()

	user, err := ps.userRepo.GetByID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s not found", userID)
	}

	content, err := ps.contentRepo.GetByID(dbctx.Context{Ctx: ctx}, contentID)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	if content == nil {
		return nil, fmt.Errorf("content %s not found", contentID)
	}

	profile, err := ps.profileRepo.GetByUserID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	system := ps.systemPrompt(user, profile)
	out, err := ps.ai.GenerateJSON(ctx, system, content.ContentText, "personalized_content", personalizeSchema())
	if err != nil {
		return nil, fmt.Errorf("personalize content: %w", err)
	}

	result := &PersonalizedContent{ContentID: contentID}
	if profile != nil && len(profile.Attributes) > 0 {
		result.ProfileUsed = json.RawMessage(profile.Attributes)
	}
	if s, ok := out["personalized_text"].(string); ok {
		result.PersonalizedText = s
	}
	if s, ok := out["difficulty"].(string); ok {
		result.Difficulty = s
	}
	if raw, ok := out["key_concepts"].([]any); ok {
		for _, item := range raw {
			if s, ok := item.(string); ok {
				result.KeyConcepts = append(result.KeyConcepts, s)
			}
		}
	}
	if result.PersonalizedText == "" {
		return nil, fmt.Errorf("model returned no personalized text")
	}
	return result, nil
}

func (ps *personalizationService) systemPrompt(user *usertypes.User, profile *usertypes.PersonalizationProfile) string {
	prompt := "You rewrite textbook passages for a specific reader. " +
		"Preserve all technical facts; adjust examples, analogies, and depth to the reader. " +
		"Keep code blocks unchanged."
	if user.SoftwareBackground != "" {
		prompt += fmt.Sprintf(" Reader's software background: %s.", user.SoftwareBackground)
	}
	if user.HardwareBackground != "" {
		prompt += fmt.Sprintf(" Reader's hardware background: %s.", user.HardwareBackground)
	}
	if profile != nil && len(profile.Attributes) > 0 {
		prompt += fmt.Sprintf(" Reader profile attributes: %s.", string(profile.Attributes))
	}
	return prompt
}

func personalizeSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"personalized_text": map[string]any{"type": "string"},
			"key_concepts": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"difficulty": map[string]any{
				"type": "string",
				"enum": []string{"beginner", "intermediate", "advanced"},
			},
		},
		"required":             []string{"personalized_text", "key_concepts", "difficulty"},
		"additionalProperties": false,
	}
}
