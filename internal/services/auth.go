package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/bookbridge/bookbridge-backend/internal/data/repos"
	types "github.com/bookbridge/bookbridge-backend/internal/domain/auth"
	usertypes "github.com/bookbridge/bookbridge-backend/internal/domain/user"
	"github.com/bookbridge/bookbridge-backend/internal/pkg/ctxutil"
	"github.com/bookbridge/bookbridge-backend/internal/pkg/dbctx"
	"github.com/bookbridge/bookbridge-backend/internal/platform/logger"
)

type JWTClaims struct {
	Plan string `json:"plan,omitempty"`
	jwt.RegisteredClaims
}

type AuthService interface {
	RegisterUser(ctx context.Context, user *usertypes.User) (string, string, error)
	LoginUser(ctx context.Context, email, password string) (string, string, error)
	RefreshUser(ctx context.Context, refreshToken string) (string, string, error)
	LogoutUser(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) (AuthService, error) {
	if strings.TrimSpace(jwtSecretKey) == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

func (as *authService) RegisterUser(ctx context.Context, user *usertypes.User) (string, string, error) {
	if user == nil {
		return "", "", fmt.Errorf("user required")
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Email == "" || !strings.Contains(user.Email, "@") {
		return "", "", fmt.Errorf("invalid email")
	}
	if len(user.Password) < 8 {
		return "", "", fmt.Errorf("password must be at least 8 characters")
	}
	if user.PreferredLanguage == "" {
		user.PreferredLanguage = "en"
	}
	if user.Plan == "" {
		user.Plan = usertypes.PlanFree
	}
	if !usertypes.ValidPlan(user.Plan) {
		return "", "", fmt.Errorf("unknown plan %q", user.Plan)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", "", fmt.Errorf("hash password: %w", err)
	}
	user.Password = string(hashed)

	var accessToken, refreshToken string
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		exists, err := as.userRepo.EmailExists(dbc, user.Email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if exists {
			return fmt.Errorf("email already registered")
		}

		user.ID = uuid.New()
		if _, err := as.userRepo.Create(dbc, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		accessToken, refreshToken, err = as.issueTokens(dbc, user)
		return err
	})
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := as.userRepo.GetByEmail(dbctx.Context{Ctx: ctx}, email)
	if err != nil {
		return "", "", fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return "", "", fmt.Errorf("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", "", fmt.Errorf("invalid email or password")
	}

	var accessToken, refreshToken string
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		accessToken, refreshToken, txErr = as.issueTokens(dbctx.Context{Ctx: ctx, Tx: tx}, user)
		return txErr
	})
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (as *authService) RefreshUser(ctx context.Context, refreshToken string) (string, string, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", "", fmt.Errorf("refresh token required")
	}

	var accessToken, newRefreshToken string
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		existing, err := as.userTokenRepo.GetActiveByRefreshToken(dbc, refreshToken)
		if err != nil {
			return fmt.Errorf("load refresh token: %w", err)
		}
		if existing == nil {
			return fmt.Errorf("refresh token invalid or expired")
		}

		user, err := as.userRepo.GetByID(dbc, existing.UserID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if user == nil {
			return fmt.Errorf("no user for refresh token")
		}

		if err := as.userTokenRepo.Revoke(dbc, existing.ID); err != nil {
			return fmt.Errorf("revoke old token: %w", err)
		}

		accessToken, newRefreshToken, err = as.issueTokens(dbc, user)
		return err
	})
	if err != nil {
		return "", "", err
	}
	return accessToken, newRefreshToken, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return fmt.Errorf("no authenticated user in context")
	}
	return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return as.userTokenRepo.RevokeAllForUser(dbctx.Context{Ctx: ctx, Tx: tx}, rd.UserID)
	})
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, nil
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return ctx, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, fmt.Errorf("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("invalid user id in token: %w", err)
	}

	plan := claims.Plan
	if !usertypes.ValidPlan(plan) {
		plan = usertypes.PlanFree
	}

	rd := &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Plan:        plan,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

func (as *authService) issueTokens(dbc dbctx.Context, user *usertypes.User) (string, string, error) {
	now := time.Now()
	claims := JWTClaims{
		Plan: user.Plan,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return "", "", fmt.Errorf("sign access token: %w", err)
	}

	refreshToken := uuid.New().String()
	if err := as.userTokenRepo.Create(dbc, &types.UserToken{
		UserID:       user.ID,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(as.refreshTTL),
	}); err != nil {
		return "", "", fmt.Errorf("store refresh token: %w", err)
	}
	return accessToken, refreshToken, nil
}
