package user

import (
	"context"
	"testing"

	"github.com/bookbridge/bookbridge-backend/internal/data/repos/testutil"
	types "github.com/bookbridge/bookbridge-backend/internal/domain/user"
	"github.com/bookbridge/bookbridge-backend/internal/pkg/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	created, err := repo.Create(dbc, &types.User{
		Email:             "userrepo@example.com",
		Password:          "pw",
		FirstName:         "A",
		LastName:          "B",
		PreferredLanguage: "en",
		Plan:              types.PlanFree,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(dbc, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Fatalf("GetByID: unexpected result: %+v", got)
	}

	byEmail, err := repo.GetByEmail(dbc, created.Email)
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if byEmail == nil || byEmail.Email != created.Email {
		t.Fatalf("GetByEmail: unexpected result: %+v", byEmail)
	}

	exists, err := repo.EmailExists(dbc, created.Email)
	if err != nil {
		t.Fatalf("EmailExists: %v", err)
	}
	if !exists {
		t.Fatalf("EmailExists: expected true")
	}

	if err := repo.UpdateBackground(dbc, created.ID, "intermediate", "beginner"); err != nil {
		t.Fatalf("UpdateBackground: %v", err)
	}
	if err := repo.UpdatePreferredLanguage(dbc, created.ID, "es"); err != nil {
		t.Fatalf("UpdatePreferredLanguage: %v", err)
	}
	if err := repo.UpdatePlan(dbc, created.ID, types.PlanPremium); err != nil {
		t.Fatalf("UpdatePlan: %v", err)
	}

	got, err = repo.GetByID(dbc, created.ID)
	if err != nil {
		t.Fatalf("GetByID after updates: %v", err)
	}
	if got.SoftwareBackground != "intermediate" || got.PreferredLanguage != "es" || got.Plan != types.PlanPremium {
		t.Fatalf("updates not applied: %+v", got)
	}
}

func TestUserProgressRepoUpsert(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewUserProgressRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	u := testutil.SeedUser(t, dbc.Ctx, tx, "progress@example.com")
	c := testutil.SeedBookContent(t, dbc.Ctx, tx, u.ID, 1, 0, "chunk text")

	if err := repo.Upsert(dbc, &types.UserProgress{
		UserID:     u.ID,
		ContentID:  c.ID,
		Percentage: 40,
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if err := repo.Upsert(dbc, &types.UserProgress{
		UserID:       u.ID,
		ContentID:    c.ID,
		Percentage:   100,
		LastPosition: 12,
		Completed:    true,
	}); err != nil {
		t.Fatalf("Upsert (second): %v", err)
	}

	got, err := repo.GetByUserAndContent(dbc, u.ID, c.ID)
	if err != nil {
		t.Fatalf("GetByUserAndContent: %v", err)
	}
	if got == nil || got.Percentage != 100 {
		t.Fatalf("expected percentage 100, got %+v", got)
	}
	if !got.Completed || got.LastPosition != 12 {
		t.Fatalf("expected completed at position 12, got %+v", got)
	}

	rows, err := repo.ListByUser(dbc, u.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 progress row, got %d", len(rows))
	}
}

func TestPersonalizationProfileRepoUpsert(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewPersonalizationProfileRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	u := testutil.SeedUser(t, dbc.Ctx, tx, "profile@example.com")

	if err := repo.Upsert(dbc, &types.PersonalizationProfile{
		UserID:     u.ID,
		Attributes: []byte(`{"learning_style":"visual"}`),
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if err := repo.Upsert(dbc, &types.PersonalizationProfile{
		UserID:     u.ID,
		Attributes: []byte(`{"learning_style":"hands_on"}`),
	}); err != nil {
		t.Fatalf("Upsert (second): %v", err)
	}

	got, err := repo.GetByUserID(dbc, u.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if got == nil {
		t.Fatalf("expected profile row")
	}
	if string(got.Attributes) == "" || got.UserID != u.ID {
		t.Fatalf("unexpected profile: %+v", got)
	}
}
