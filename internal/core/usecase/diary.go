package usecase

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/travel-diary/internal/core/domain"
	"github.com/kirillkom/travel-diary/internal/core/ports"
)

const defaultListLimit = 50

type DiaryUseCase struct {
	store    ports.Store
	storage  ports.ObjectStorage
	location *time.Location
}

func NewDiaryUseCase(store ports.Store, storage ports.ObjectStorage, location *time.Location) *DiaryUseCase {
	if location == nil {
		location = time.UTC
	}
	return &DiaryUseCase{
		store:    store,
		storage:  storage,
		location: location,
	}
}

func (uc *DiaryUseCase) Create(ctx context.Context, in ports.CreateDiaryInput) (*domain.DiaryView, error) {
	userID := strings.TrimSpace(in.UserID)
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.Invalid("create diary", "title is required")
	}
	if userID == "" {
		return nil, domain.Invalid("create diary", "user id is required")
	}

	now := time.Now().UTC()
	images, err := uc.resolveImages(ctx, in.ImageIDs)
	if err != nil {
		return nil, err
	}

	slots := make([]domain.PhotoSlot, 0, len(images))
	usedIDs := make([]string, 0, len(images))
	for _, img := range images {
		slots = append(slots, domain.NewPhotoSlot(img, uc.location, now))
		usedIDs = append(usedIDs, img.ID)
	}

	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = now.In(uc.location).Format("2006-01-02")
	}

	diary := &domain.Diary{
		ID:         domain.NewID(),
		UserID:     userID,
		Title:      title,
		Date:       date,
		Photos:     slots,
		Categories: []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := uc.store.Diaries.Create(ctx, diary); err != nil {
		return nil, fmt.Errorf("create diary: %w", err)
	}
	if len(usedIDs) > 0 {
		if err := uc.store.Images.MarkUsedInDiary(ctx, usedIDs); err != nil {
			return nil, fmt.Errorf("mark images used in diary: %w", err)
		}
	}

	views := make([]domain.PhotoSlotView, 0, len(slots))
	for i, slot := range slots {
		views = append(views, domain.PhotoSlotView{
			PhotoSlot: slot,
			ImageData: uc.readImageData(ctx, images[i]),
		})
	}
	return &domain.DiaryView{Diary: *diary, Photos: views}, nil
}

// resolveImages looks up every referenced image, silently dropping temporary
// placeholders and ids that do not resolve.
func (uc *DiaryUseCase) resolveImages(ctx context.Context, rawIDs []string) ([]*domain.Image, error) {
	out := make([]*domain.Image, 0, len(rawIDs))
	seen := make(map[string]struct{}, len(rawIDs))
	for _, raw := range rawIDs {
		id := domain.ParseID(raw)
		if id.IsEmpty() || id.IsTemporary() {
			continue
		}
		img, err := uc.store.Images.GetByID(ctx, id)
		if err != nil {
			if domain.IsKind(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("resolve image %s: %w", id, err)
		}
		if _, dup := seen[img.ID]; dup {
			continue
		}
		seen[img.ID] = struct{}{}
		out = append(out, img)
	}
	return out, nil
}

func (uc *DiaryUseCase) UpdateContent(ctx context.Context, diaryID, content string) (*domain.Diary, error) {
	if strings.TrimSpace(diaryID) == "" {
		return nil, domain.Invalid("update diary content", "diary id is required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, domain.Invalid("update diary content", "content is required")
	}

	diary, err := uc.loadDiary(ctx, diaryID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := uc.store.Diaries.UpdateContent(ctx, diary.ID, content, now); err != nil {
		return nil, fmt.Errorf("update diary content: %w", err)
	}
	diary.Content = content
	diary.UpdatedAt = now
	return diary, nil
}

func (uc *DiaryUseCase) List(ctx context.Context, userID string, limit int) ([]domain.DiaryView, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.Invalid("list diaries", "user id is required")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	diaries, err := uc.store.Diaries.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list diaries: %w", err)
	}

	out := make([]domain.DiaryView, 0, len(diaries))
	for _, d := range diaries {
		view := domain.DiaryView{Diary: d, Photos: bareSlotViews(d.Photos)}
		thumb, err := uc.thumbnail(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		view.Thumbnail = thumb
		out = append(out, view)
	}
	return out, nil
}

func (uc *DiaryUseCase) Detail(ctx context.Context, diaryID string) (*domain.DiaryView, error) {
	if strings.TrimSpace(diaryID) == "" {
		return nil, domain.Invalid("diary detail", "diary id is required")
	}
	diary, err := uc.loadDiary(ctx, diaryID)
	if err != nil {
		return nil, err
	}

	photos, err := uc.attachImages(ctx, diary.Photos)
	if err != nil {
		return nil, err
	}
	view := &domain.DiaryView{Diary: *diary, Photos: photos}

	ai, err := uc.store.AIDiaries.GetByDiaryID(ctx, diary.ID)
	switch {
	case err == nil:
		view.AIContent = ai.Content
	case !domain.IsKind(err, domain.ErrNotFound):
		return nil, fmt.Errorf("fetch ai diary: %w", err)
	}

	thumb, err := uc.thumbnail(ctx, diary.ID)
	if err != nil {
		return nil, err
	}
	view.Thumbnail = thumb
	return view, nil
}

// Delete removes a diary and everything that references it. Related
// collections are cleaned up independently; a failure in one is logged and
// does not stop the others.
func (uc *DiaryUseCase) Delete(ctx context.Context, diaryID string) (*domain.DeleteReport, error) {
	if strings.TrimSpace(diaryID) == "" {
		return nil, domain.Invalid("delete diary", "diary id is required")
	}
	diary, err := uc.loadDiary(ctx, diaryID)
	if err != nil {
		return nil, err
	}

	report := &domain.DeleteReport{}
	imageIDs := diary.ImageIDs()
	if len(imageIDs) > 0 {
		// Records go first so a failure never leaves one pointing at a
		// removed binary.
		keys := uc.imageStorageKeys(ctx, imageIDs)
		n, err := uc.store.Images.DeleteByIDs(ctx, imageIDs)
		if err != nil {
			slog.Warn("diary_delete_images_failed", "diary_id", diary.ID, "error", err)
		} else {
			uc.deleteBinaries(ctx, keys)
		}
		report.Images = n
	}

	if _, err := uc.store.Diaries.Delete(ctx, diary.ID); err != nil {
		return nil, fmt.Errorf("delete diary: %w", err)
	}

	if n, err := uc.store.AIDiaries.DeleteByDiaryID(ctx, diary.ID); err != nil {
		slog.Warn("diary_delete_ai_failed", "diary_id", diary.ID, "error", err)
	} else {
		report.AIDiaries = n
	}
	if n, err := uc.store.Printables.DeleteByDiaryID(ctx, diary.ID); err != nil {
		slog.Warn("diary_delete_printables_failed", "diary_id", diary.ID, "error", err)
	} else {
		report.Printables = n
	}
	if n, err := uc.store.Selections.DeleteByDiaryID(ctx, diary.ID); err != nil {
		slog.Warn("diary_delete_selection_failed", "diary_id", diary.ID, "error", err)
	} else {
		report.Selections = n
	}
	return report, nil
}

func (uc *DiaryUseCase) MarkCompleted(ctx context.Context, diaryID string) error {
	if strings.TrimSpace(diaryID) == "" {
		return domain.Invalid("complete diary", "diary id is required")
	}
	diary, err := uc.loadDiary(ctx, diaryID)
	if err != nil {
		return err
	}
	if err := uc.store.Diaries.MarkCompleted(ctx, diary.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark diary completed: %w", err)
	}
	return nil
}

func (uc *DiaryUseCase) SaveAIDiary(ctx context.Context, in ports.SaveAIDiaryInput) (*domain.AIDiary, error) {
	if strings.TrimSpace(in.DiaryID) == "" {
		return nil, domain.Invalid("save ai diary", "diary id is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, domain.Invalid("save ai diary", "content is required")
	}
	diary, err := uc.loadDiary(ctx, in.DiaryID)
	if err != nil {
		return nil, err
	}

	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		userID = diary.UserID
	}
	photos := make([]domain.PhotoSlot, len(diary.Photos))
	copy(photos, diary.Photos)

	result := &domain.AIDiary{
		ID:        domain.NewID(),
		DiaryID:   diary.ID,
		UserID:    userID,
		Content:   in.Content,
		Photos:    photos,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.store.AIDiaries.Upsert(ctx, result); err != nil {
		return nil, fmt.Errorf("save ai diary: %w", err)
	}
	return result, nil
}

func (uc *DiaryUseCase) loadDiary(ctx context.Context, diaryID string) (*domain.Diary, error) {
	diary, err := uc.store.Diaries.GetByID(ctx, domain.ParseID(diaryID))
	if err != nil {
		return nil, fmt.Errorf("fetch diary by id: %w", err)
	}
	return diary, nil
}

// attachImages joins every slot with its backing image binary. Slots whose
// image no longer resolves are returned without image data.
func (uc *DiaryUseCase) attachImages(ctx context.Context, slots []domain.PhotoSlot) ([]domain.PhotoSlotView, error) {
	out := make([]domain.PhotoSlotView, 0, len(slots))
	for _, slot := range slots {
		view := domain.PhotoSlotView{PhotoSlot: slot}
		id := domain.ParseID(slot.ID)
		if id.IsEmpty() || id.IsTemporary() {
			out = append(out, view)
			continue
		}
		img, err := uc.store.Images.GetByID(ctx, id)
		switch {
		case err == nil:
			view.ImageData = uc.readImageData(ctx, img)
		case !domain.IsKind(err, domain.ErrNotFound):
			return nil, fmt.Errorf("resolve slot image %s: %w", slot.ID, err)
		}
		out = append(out, view)
	}
	return out, nil
}

func (uc *DiaryUseCase) readImageData(ctx context.Context, img *domain.Image) string {
	if img == nil || img.StorageKey == "" {
		return ""
	}
	body, err := uc.storage.Open(ctx, img.StorageKey)
	if err != nil {
		slog.Warn("image_binary_unavailable", "image_id", img.ID, "error", err)
		return ""
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		slog.Warn("image_binary_read_failed", "image_id", img.ID, "error", err)
		return ""
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func (uc *DiaryUseCase) imageStorageKeys(ctx context.Context, ids []string) []string {
	keys := make([]string, 0, len(ids))
	for _, raw := range ids {
		img, err := uc.store.Images.GetByID(ctx, domain.ParseID(raw))
		if err != nil || img.StorageKey == "" {
			continue
		}
		keys = append(keys, img.StorageKey)
	}
	return keys
}

func (uc *DiaryUseCase) deleteBinaries(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := uc.storage.Delete(ctx, key); err != nil {
			slog.Warn("image_binary_delete_failed", "storage_key", key, "error", err)
		}
	}
}

func (uc *DiaryUseCase) thumbnail(ctx context.Context, diaryID string) (string, error) {
	printable, err := uc.store.Printables.GetByDiaryID(ctx, diaryID)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("fetch printable diary: %w", err)
	}
	return printable.CoverImage(), nil
}

func bareSlotViews(slots []domain.PhotoSlot) []domain.PhotoSlotView {
	out := make([]domain.PhotoSlotView, 0, len(slots))
	for _, s := range slots {
		out = append(out, domain.PhotoSlotView{PhotoSlot: s})
	}
	return out
}
