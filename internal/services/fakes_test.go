package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	authtypes "github.com/bookbridge/bookbridge-backend/internal/domain/auth"
	contenttypes "github.com/bookbridge/bookbridge-backend/internal/domain/content"
	usertypes "github.com/bookbridge/bookbridge-backend/internal/domain/user"
	"github.com/bookbridge/bookbridge-backend/internal/pkg/dbctx"
	"github.com/bookbridge/bookbridge-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

type fakeUserRepo struct {
	users map[uuid.UUID]*usertypes.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*usertypes.User{}}
}

func (f *fakeUserRepo) Create(_ dbctx.Context, u *usertypes.User) (*usertypes.User, error) {
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUserRepo) GetByID(_ dbctx.Context, userID uuid.UUID) (*usertypes.User, error) {
	return f.users[userID], nil
}

func (f *fakeUserRepo) GetByEmail(_ dbctx.Context, email string) (*usertypes.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) EmailExists(dbc dbctx.Context, email string) (bool, error) {
	u, _ := f.GetByEmail(dbc, email)
	return u != nil, nil
}

func (f *fakeUserRepo) UpdateBackground(_ dbctx.Context, userID uuid.UUID, software, hardware string) error {
	if u := f.users[userID]; u != nil {
		u.SoftwareBackground = software
		u.HardwareBackground = hardware
	}
	return nil
}

func (f *fakeUserRepo) UpdatePreferredLanguage(_ dbctx.Context, userID uuid.UUID, language string) error {
	if u := f.users[userID]; u != nil {
		u.PreferredLanguage = language
	}
	return nil
}

func (f *fakeUserRepo) UpdatePlan(_ dbctx.Context, userID uuid.UUID, plan string) error {
	if u := f.users[userID]; u != nil {
		u.Plan = plan
	}
	return nil
}

type fakeUserTokenRepo struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]*authtypes.UserToken
}

func newFakeUserTokenRepo() *fakeUserTokenRepo {
	return &fakeUserTokenRepo{tokens: map[uuid.UUID]*authtypes.UserToken{}}
}

func (f *fakeUserTokenRepo) Create(_ dbctx.Context, row *authtypes.UserToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	f.tokens[row.ID] = row
	return nil
}

func (f *fakeUserTokenRepo) GetActiveByRefreshToken(_ dbctx.Context, refreshToken string) (*authtypes.UserToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.tokens {
		if row.RefreshToken == refreshToken && row.RevokedAt == nil && row.ExpiresAt.After(time.Now()) {
			return row, nil
		}
	}
	return nil, nil
}

func (f *fakeUserTokenRepo) Revoke(_ dbctx.Context, tokenID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row := f.tokens[tokenID]; row != nil {
		now := time.Now()
		row.RevokedAt = &now
	}
	return nil
}

func (f *fakeUserTokenRepo) RevokeAllForUser(_ dbctx.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, row := range f.tokens {
		if row.UserID == userID && row.RevokedAt == nil {
			row.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeUserTokenRepo) DeleteExpired(_ dbctx.Context) (int64, error) { return 0, nil }

type fakeContentRepo struct {
	rows map[uuid.UUID]*contenttypes.BookContent
}

func newFakeContentRepo(rows ...*contenttypes.BookContent) *fakeContentRepo {
	f := &fakeContentRepo{rows: map[uuid.UUID]*contenttypes.BookContent{}}
	for _, row := range rows {
		f.rows[row.ID] = row
	}
	return f
}

func (f *fakeContentRepo) UpsertBatch(_ dbctx.Context, rows []*contenttypes.BookContent) error {
	for _, row := range rows {
		f.rows[row.ID] = row
	}
	return nil
}

func (f *fakeContentRepo) GetByID(_ dbctx.Context, id uuid.UUID) (*contenttypes.BookContent, error) {
	return f.rows[id], nil
}

func (f *fakeContentRepo) GetByIDs(_ dbctx.Context, ids []uuid.UUID) ([]*contenttypes.BookContent, error) {
	var out []*contenttypes.BookContent
	for _, id := range ids {
		if row := f.rows[id]; row != nil {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeContentRepo) GetNeighbors(_ dbctx.Context, bookID uuid.UUID, chapter, centerIndex, window int) ([]*contenttypes.BookContent, error) {
	var out []*contenttypes.BookContent
	for _, row := range f.rows {
		if row.BookID == bookID && row.Chapter == chapter &&
			row.ChunkIndex >= centerIndex-window && row.ChunkIndex <= centerIndex+window {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeContentRepo) SearchByTerms(_ dbctx.Context, bookID uuid.UUID, terms []string, limit int) ([]*contenttypes.BookContent, error) {
	var out []*contenttypes.BookContent
	for _, row := range f.rows {
		if row.BookID == bookID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeContentRepo) SetEmbeddingID(_ dbctx.Context, id uuid.UUID, embeddingID string) error {
	if row := f.rows[id]; row != nil {
		row.EmbeddingID = embeddingID
	}
	return nil
}

func (f *fakeContentRepo) ListByBook(_ dbctx.Context, bookID uuid.UUID) ([]*contenttypes.BookContent, error) {
	var out []*contenttypes.BookContent
	for _, row := range f.rows {
		if row.BookID == bookID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeContentRepo) DeleteByChapterFrom(_ dbctx.Context, bookID uuid.UUID, chapter, fromIndex int) ([]uuid.UUID, error) {
	var removed []uuid.UUID
	for id, row := range f.rows {
		if row.BookID == bookID && row.Chapter == chapter && row.ChunkIndex >= fromIndex {
			delete(f.rows, id)
			removed = append(removed, id)
		}
	}
	return removed, nil
}

func (f *fakeContentRepo) DeleteByBook(_ dbctx.Context, bookID uuid.UUID) (int64, error) {
	var n int64
	for id, row := range f.rows {
		if row.BookID == bookID {
			delete(f.rows, id)
			n++
		}
	}
	return n, nil
}

type fakeTranslationRepo struct {
	rows map[string]*contenttypes.TranslationCache
	hits int
}

func newFakeTranslationRepo() *fakeTranslationRepo {
	return &fakeTranslationRepo{rows: map[string]*contenttypes.TranslationCache{}}
}

func translationRowKey(contentID uuid.UUID, language string) string {
	return contentID.String() + ":" + language
}

func (f *fakeTranslationRepo) Get(_ dbctx.Context, contentID uuid.UUID, language string) (*contenttypes.TranslationCache, error) {
	return f.rows[translationRowKey(contentID, language)], nil
}

func (f *fakeTranslationRepo) Upsert(_ dbctx.Context, row *contenttypes.TranslationCache) error {
	f.rows[translationRowKey(row.ContentID, row.Language)] = row
	return nil
}

func (f *fakeTranslationRepo) IncrementHit(_ dbctx.Context, id uuid.UUID) error {
	f.hits++
	return nil
}

func (f *fakeTranslationRepo) DeleteExpired(_ dbctx.Context) (int64, error) { return 0, nil }

func (f *fakeTranslationRepo) DeleteByContent(_ dbctx.Context, contentID uuid.UUID) (int64, error) {
	var n int64
	for key, row := range f.rows {
		if row.ContentID == contentID {
			delete(f.rows, key)
			n++
		}
	}
	return n, nil
}

type fakeCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeCache) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return nil
}

func (f *fakeCache) IncrWindow(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	return 1, window, nil
}

func (f *fakeCache) Close() error { return nil }

type fakeAI struct {
	text    string
	jsonOut map[string]any
	err     error
	calls   int
}

func (f *fakeAI) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, f.err
}

func (f *fakeAI) GenerateJSON(_ context.Context, _, _, _ string, _ map[string]any) (map[string]any, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.jsonOut, nil
}

func (f *fakeAI) GenerateText(_ context.Context, _, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.text == "" {
		return "", fmt.Errorf("no canned text")
	}
	return f.text, nil
}
