package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/travel-diary/internal/core/domain"
)

// ImageRepository persists uploaded image records. Lookups accept either
// identifier form and try the structured form first.
type ImageRepository interface {
	Create(ctx context.Context, img *domain.Image) error
	GetByID(ctx context.Context, id domain.ID) (*domain.Image, error)
	MarkUsedInDiary(ctx context.Context, ids []string) error
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

// DiaryRepository persists diaries.
type DiaryRepository interface {
	Create(ctx context.Context, diary *domain.Diary) error
	GetByID(ctx context.Context, id domain.ID) (*domain.Diary, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Diary, error)
	UpdateContent(ctx context.Context, id string, content string, updatedAt time.Time) error
	AddCategory(ctx context.Context, id string, category domain.Category, updatedAt time.Time) error
	ReplaceCategories(ctx context.Context, id string, categories []string, updatedAt time.Time) error
	MarkCompleted(ctx context.Context, id string, completedAt time.Time) error
	Delete(ctx context.Context, id string) (int64, error)
}

// AIDiaryRepository persists generated diary content, one record per diary.
type AIDiaryRepository interface {
	Upsert(ctx context.Context, result *domain.AIDiary) error
	GetByDiaryID(ctx context.Context, diaryID string) (*domain.AIDiary, error)
	DeleteByDiaryID(ctx context.Context, diaryID string) (int64, error)
}

// PrintableRepository persists print-ready renderings.
type PrintableRepository interface {
	Create(ctx context.Context, printable *domain.PrintableDiary) error
	GetByID(ctx context.Context, id domain.ID) (*domain.PrintableDiary, error)
	GetByDiaryID(ctx context.Context, diaryID string) (*domain.PrintableDiary, error)
	SetThumbnail(ctx context.Context, id string, thumbnail string) error
	DeleteByDiaryID(ctx context.Context, diaryID string) (int64, error)
}

// LayoutSelectionRepository tracks the layout picked for a diary.
type LayoutSelectionRepository interface {
	Save(ctx context.Context, selection domain.LayoutSelection) error
	GetByDiaryID(ctx context.Context, diaryID string) (*domain.LayoutSelection, error)
	DeleteByDiaryID(ctx context.Context, diaryID string) (int64, error)
}

// Store groups the typed handles to every logical collection.
type Store struct {
	Images     ImageRepository
	Diaries    DiaryRepository
	AIDiaries  AIDiaryRepository
	Printables PrintableRepository
	Selections LayoutSelectionRepository
}

// ObjectStorage stores image binaries.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// ExifExtractor reads capture metadata from raw image bytes.
type ExifExtractor interface {
	Extract(data []byte) domain.ExifResult
}

// CategoryClassifier classifies diary text into a travel category. It never
// fails: any problem resolves to domain.FallbackCategory.
type CategoryClassifier interface {
	Classify(ctx context.Context, text string) domain.Category
}

// EventPublisher announces diary lifecycle events.
type EventPublisher interface {
	PublishPrintableSaved(ctx context.Context, printableID string) error
}

// ThumbnailRenderer downsizes a base64 PNG page into a base64 PNG thumbnail.
type ThumbnailRenderer interface {
	Render(pageBase64 string) (string, error)
}
