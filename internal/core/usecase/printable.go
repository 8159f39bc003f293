package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/travel-diary/internal/core/domain"
	"github.com/kirillkom/travel-diary/internal/core/ports"
)

type PrintableUseCase struct {
	diaries    ports.DiaryRepository
	printables ports.PrintableRepository
	events     ports.EventPublisher
	renderer   ports.ThumbnailRenderer
}

func NewPrintableUseCase(
	store ports.Store,
	events ports.EventPublisher,
	renderer ports.ThumbnailRenderer,
) *PrintableUseCase {
	return &PrintableUseCase{
		diaries:    store.Diaries,
		printables: store.Printables,
		events:     events,
		renderer:   renderer,
	}
}

// Save stores the rendered pages of a diary and marks the diary completed.
// Page numbers are assigned in input order starting at 1.
func (uc *PrintableUseCase) Save(ctx context.Context, in ports.SavePrintableInput) (*domain.PrintableDiary, error) {
	if strings.TrimSpace(in.DiaryID) == "" {
		return nil, domain.Invalid("save printable diary", "diary id is required")
	}
	if strings.TrimSpace(in.UserID) == "" {
		return nil, domain.Invalid("save printable diary", "user id is required")
	}
	pages := make([]domain.PrintablePage, 0, len(in.Images))
	for _, img := range in.Images {
		data := stripDataURL(img)
		if data == "" {
			continue
		}
		pages = append(pages, domain.PrintablePage{PageNumber: len(pages) + 1, ImageData: data})
	}
	if len(pages) == 0 {
		return nil, domain.Invalid("save printable diary", "at least one page image is required")
	}

	diary, err := uc.diaries.GetByID(ctx, domain.ParseID(in.DiaryID))
	if err != nil {
		return nil, fmt.Errorf("fetch diary by id: %w", err)
	}

	now := time.Now().UTC()
	printable := &domain.PrintableDiary{
		ID:         domain.NewID(),
		DiaryID:    diary.ID,
		UserID:     strings.TrimSpace(in.UserID),
		Pages:      pages,
		TotalPages: len(pages),
		MimeType:   domain.PrintableMimeType,
		CreatedAt:  now,
	}
	if err := uc.printables.Create(ctx, printable); err != nil {
		return nil, fmt.Errorf("create printable diary: %w", err)
	}
	if err := uc.diaries.MarkCompleted(ctx, diary.ID, now); err != nil {
		return nil, fmt.Errorf("mark diary completed: %w", err)
	}

	if uc.events != nil {
		if err := uc.events.PublishPrintableSaved(ctx, printable.ID); err != nil {
			slog.Warn("printable_event_publish_failed", "printable_id", printable.ID, "error", err)
		}
	}
	return printable, nil
}

func (uc *PrintableUseCase) GetByDiaryID(ctx context.Context, diaryID string) (*domain.PrintableDiary, error) {
	if strings.TrimSpace(diaryID) == "" {
		return nil, domain.Invalid("fetch printable diary", "diary id is required")
	}
	diary, err := uc.diaries.GetByID(ctx, domain.ParseID(diaryID))
	if err != nil {
		return nil, fmt.Errorf("fetch diary by id: %w", err)
	}
	printable, err := uc.printables.GetByDiaryID(ctx, diary.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch printable diary: %w", err)
	}
	return printable, nil
}

// RenderThumbnail downsizes the cover page of a printable diary and stores
// the result on the record.
func (uc *PrintableUseCase) RenderThumbnail(ctx context.Context, printableID string) error {
	if uc.renderer == nil {
		return fmt.Errorf("thumbnail renderer is not configured")
	}
	printable, err := uc.printables.GetByID(ctx, domain.ParseID(printableID))
	if err != nil {
		return fmt.Errorf("fetch printable diary: %w", err)
	}
	if printable.Thumbnail != "" {
		return nil
	}
	cover := printable.CoverImage()
	if cover == "" {
		return domain.Invalid("render thumbnail", "printable diary has no pages")
	}

	thumb, err := uc.renderer.Render(cover)
	if err != nil {
		return fmt.Errorf("render thumbnail: %w", err)
	}
	if err := uc.printables.SetThumbnail(ctx, printable.ID, thumb); err != nil {
		return fmt.Errorf("store thumbnail: %w", err)
	}
	return nil
}

// stripDataURL drops a "data:image/png;base64," style prefix.
func stripDataURL(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if idx := strings.Index(s, ","); idx >= 0 {
			return s[idx+1:]
		}
	}
	return s
}
