package ports

import (
	"context"
	"io"

	"github.com/kirillkom/travel-diary/internal/core/domain"
)

type UploadImageInput struct {
	UserID   string
	Filename string
	MimeType string
	Keywords []string
	TempID   string
	Body     io.Reader
}

type UploadImageResult struct {
	Image *domain.Image     `json:"image"`
	Exif  domain.ExifResult `json:"exif"`
}

// ImageService is the inbound contract for photo upload and retrieval.
type ImageService interface {
	Upload(ctx context.Context, in UploadImageInput) (*UploadImageResult, error)
	OpenFile(ctx context.Context, imageID string) (*domain.Image, io.ReadCloser, error)
}

type CreateDiaryInput struct {
	UserID   string
	Title    string
	Date     string
	ImageIDs []string
}

type SelectLayoutInput struct {
	DiaryID     string
	LayoutID    string
	LayoutIndex int
}

type SavePrintableInput struct {
	DiaryID string
	UserID  string
	Images  []string
}

type SaveAIDiaryInput struct {
	DiaryID string
	UserID  string
	Content string
}

// DiaryService is the inbound contract of the diary assembly pipeline.
type DiaryService interface {
	Create(ctx context.Context, in CreateDiaryInput) (*domain.DiaryView, error)
	UpdateContent(ctx context.Context, diaryID, content string) (*domain.Diary, error)
	List(ctx context.Context, userID string, limit int) ([]domain.DiaryView, error)
	Detail(ctx context.Context, diaryID string) (*domain.DiaryView, error)
	Delete(ctx context.Context, diaryID string) (*domain.DeleteReport, error)
	MarkCompleted(ctx context.Context, diaryID string) error
	SaveAIDiary(ctx context.Context, in SaveAIDiaryInput) (*domain.AIDiary, error)
}

// LayoutService classifies diaries and resolves layout templates.
type LayoutService interface {
	Recommend(ctx context.Context, diaryID string) (*domain.LayoutRecommendation, error)
	Reclassify(ctx context.Context, diaryID string) (*domain.LayoutRecommendation, error)
	Select(ctx context.Context, in SelectLayoutInput) (*domain.LayoutSelection, error)
	Preview(ctx context.Context, diaryID string, index int) (*LayoutPreview, error)
}

type LayoutPreview struct {
	Layout domain.LayoutTemplate `json:"layout"`
	Diary  *domain.DiaryView     `json:"diary"`
}

// PrintableService persists finalized print renderings.
type PrintableService interface {
	Save(ctx context.Context, in SavePrintableInput) (*domain.PrintableDiary, error)
	GetByDiaryID(ctx context.Context, diaryID string) (*domain.PrintableDiary, error)
	RenderThumbnail(ctx context.Context, printableID string) error
}
