package memory

import (
	"context"
	"testing"
	"time"

	"github.com/kirillkom/travel-diary/internal/core/domain"
)

func TestDiaryLookupAcceptsEitherIDForm(t *testing.T) {
	ctx := context.Background()
	store := New().Ports()

	structured := "65a1b2c3d4e5f60718293a4b"
	legacy := "legacy-diary"
	for _, id := range []string{structured, legacy} {
		if err := store.Diaries.Create(ctx, &domain.Diary{ID: id, UserID: "u1", Title: id}); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}

	got, err := store.Diaries.GetByID(ctx, domain.ParseID("65A1B2C3D4E5F60718293A4B"))
	if err != nil {
		t.Fatalf("GetByID(upper hex) error = %v", err)
	}
	if got.ID != structured {
		t.Fatalf("expected %s, got %s", structured, got.ID)
	}
	if _, err := store.Diaries.GetByID(ctx, domain.ParseID(legacy)); err != nil {
		t.Fatalf("GetByID(raw) error = %v", err)
	}
	if _, err := store.Diaries.GetByID(ctx, domain.ParseID("missing")); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddCategoryDoesNotDuplicate(t *testing.T) {
	ctx := context.Background()
	store := New().Ports()
	if err := store.Diaries.Create(ctx, &domain.Diary{ID: "d1", UserID: "u1", Title: "t"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	now := time.Now()
	for i := 0; i < 2; i++ {
		if err := store.Diaries.AddCategory(ctx, "d1", domain.CategoryFamily, now); err != nil {
			t.Fatalf("AddCategory() error = %v", err)
		}
	}
	got, _ := store.Diaries.GetByID(ctx, domain.ParseID("d1"))
	if len(got.Categories) != 1 {
		t.Fatalf("expected one category, got %v", got.Categories)
	}
	if err := store.Diaries.AddCategory(ctx, "nope", domain.CategoryFamily, now); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for unknown diary, got %v", err)
	}
}

func TestAIDiaryUpsertKeepsFirstID(t *testing.T) {
	ctx := context.Background()
	store := New().Ports()

	first := &domain.AIDiary{ID: "ai-1", DiaryID: "d1", Content: "first"}
	if err := store.AIDiaries.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	second := &domain.AIDiary{ID: "ai-2", DiaryID: "d1", Content: "second"}
	if err := store.AIDiaries.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if second.ID != "ai-1" {
		t.Fatalf("expected stored id to be kept, got %s", second.ID)
	}
	got, err := store.AIDiaries.GetByDiaryID(ctx, "d1")
	if err != nil {
		t.Fatalf("GetByDiaryID() error = %v", err)
	}
	if got.Content != "second" {
		t.Fatalf("expected latest content, got %q", got.Content)
	}
}

func TestPrintableGetByDiaryIDReturnsLatest(t *testing.T) {
	ctx := context.Background()
	store := New().Ports()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"p-old", "p-new"} {
		err := store.Printables.Create(ctx, &domain.PrintableDiary{
			ID:        id,
			DiaryID:   "d1",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	got, err := store.Printables.GetByDiaryID(ctx, "d1")
	if err != nil {
		t.Fatalf("GetByDiaryID() error = %v", err)
	}
	if got.ID != "p-new" {
		t.Fatalf("expected latest printable, got %s", got.ID)
	}
	n, _ := store.Printables.DeleteByDiaryID(ctx, "d1")
	if n != 2 {
		t.Fatalf("expected 2 deleted, got %d", n)
	}
}
