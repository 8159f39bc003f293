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

type LayoutUseCase struct {
	diaries    ports.DiaryRepository
	selections ports.LayoutSelectionRepository
	classifier ports.CategoryClassifier
	details    ports.DiaryService
}

func NewLayoutUseCase(
	store ports.Store,
	classifier ports.CategoryClassifier,
	details ports.DiaryService,
) *LayoutUseCase {
	return &LayoutUseCase{
		diaries:    store.Diaries,
		selections: store.Selections,
		classifier: classifier,
		details:    details,
	}
}

// Recommend returns the layout pair for a diary, classifying its content
// only when no recognized category has been stored yet. A diary that cannot
// be found still yields the fallback recommendation.
func (uc *LayoutUseCase) Recommend(ctx context.Context, diaryID string) (*domain.LayoutRecommendation, error) {
	if strings.TrimSpace(diaryID) == "" {
		return nil, domain.Invalid("recommend layouts", "diary id is required")
	}

	diary, err := uc.diaries.GetByID(ctx, domain.ParseID(diaryID))
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			slog.Info("recommend_missing_diary", "diary_id", diaryID)
			rec := domain.FallbackRecommendation()
			return &rec, nil
		}
		return nil, fmt.Errorf("fetch diary by id: %w", err)
	}

	if category, ok := diary.RecognizedCategory(); ok {
		rec := domain.ResolveLayouts(category)
		return &rec, nil
	}

	if strings.TrimSpace(diary.Content) == "" {
		rec := domain.FallbackRecommendation()
		return &rec, nil
	}

	// A result produced after the caller gave up may be the fallback, and
	// storing it would pin the diary to it.
	category := uc.classifier.Classify(ctx, diary.Content)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("classify diary: %w", err)
	}
	if err := uc.diaries.AddCategory(ctx, diary.ID, category, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("store diary category: %w", err)
	}
	rec := domain.ResolveLayouts(category)
	return &rec, nil
}

// Reclassify always runs the classifier and replaces the stored categories
// with the single result.
func (uc *LayoutUseCase) Reclassify(ctx context.Context, diaryID string) (*domain.LayoutRecommendation, error) {
	if strings.TrimSpace(diaryID) == "" {
		return nil, domain.Invalid("reclassify diary", "diary id is required")
	}
	diary, err := uc.diaries.GetByID(ctx, domain.ParseID(diaryID))
	if err != nil {
		return nil, fmt.Errorf("fetch diary by id: %w", err)
	}
	if strings.TrimSpace(diary.Content) == "" {
		return nil, domain.Invalid("reclassify diary", "diary content is empty")
	}

	category := uc.classifier.Classify(ctx, diary.Content)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("classify diary: %w", err)
	}
	if err := uc.diaries.ReplaceCategories(ctx, diary.ID, []string{string(category)}, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("replace diary categories: %w", err)
	}
	rec := domain.ResolveLayouts(category)
	return &rec, nil
}

func (uc *LayoutUseCase) Select(ctx context.Context, in ports.SelectLayoutInput) (*domain.LayoutSelection, error) {
	if strings.TrimSpace(in.DiaryID) == "" {
		return nil, domain.Invalid("select layout", "diary id is required")
	}
	tpl, ok := domain.LayoutAt(in.LayoutIndex)
	if !ok {
		return nil, domain.Invalid("select layout", fmt.Sprintf("layout index %d out of range", in.LayoutIndex))
	}
	layoutID := strings.TrimSpace(in.LayoutID)
	if layoutID == "" {
		layoutID = tpl.ID
	}

	diary, err := uc.diaries.GetByID(ctx, domain.ParseID(in.DiaryID))
	if err != nil {
		return nil, fmt.Errorf("fetch diary by id: %w", err)
	}

	selection := domain.LayoutSelection{
		DiaryID:     diary.ID,
		LayoutID:    layoutID,
		LayoutIndex: in.LayoutIndex,
		SelectedAt:  time.Now().UTC(),
	}
	if err := uc.selections.Save(ctx, selection); err != nil {
		return nil, fmt.Errorf("save layout selection: %w", err)
	}
	return &selection, nil
}

func (uc *LayoutUseCase) Preview(ctx context.Context, diaryID string, index int) (*ports.LayoutPreview, error) {
	tpl, ok := domain.LayoutAt(index)
	if !ok {
		return nil, domain.Invalid("preview layout", fmt.Sprintf("layout index %d out of range", index))
	}
	view, err := uc.details.Detail(ctx, diaryID)
	if err != nil {
		return nil, err
	}
	if category, ok := view.RecognizedCategory(); ok {
		tpl.CategoryName = string(category)
	}
	return &ports.LayoutPreview{Layout: tpl, Diary: view}, nil
}
