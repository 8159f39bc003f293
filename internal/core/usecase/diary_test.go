package usecase

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/travel-diary/internal/core/domain"
	"github.com/kirillkom/travel-diary/internal/core/ports"
	"github.com/kirillkom/travel-diary/internal/infrastructure/repository/memory"
)

var seoul = time.FixedZone("KST", 9*60*60)

type diaryFixture struct {
	store   ports.Store
	storage *storageFake
	images  *ImageUseCase
	diaries *DiaryUseCase
}

func newDiaryFixture(extractor ports.ExifExtractor) *diaryFixture {
	store := memory.New().Ports()
	storage := newStorageFake()
	return &diaryFixture{
		store:   store,
		storage: storage,
		images:  NewImageUseCase(store.Images, storage, extractor, 0),
		diaries: NewDiaryUseCase(store, storage, seoul),
	}
}

func (f *diaryFixture) upload(t *testing.T, body string) *domain.Image {
	t.Helper()
	res, err := f.images.Upload(context.Background(), ports.UploadImageInput{
		UserID: "user-1", Filename: "p.jpg", MimeType: "image/jpeg", Body: strings.NewReader(body),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	return res.Image
}

func TestCreateDiaryBuildsSlotsAndMarksImagesUsed(t *testing.T) {
	// 01:30 UTC is 10:30 in Seoul.
	f := newDiaryFixture(exifAt(time.Date(2024, 5, 1, 1, 30, 0, 0, time.UTC)))
	img := f.upload(t, "photo-1")

	view, err := f.diaries.Create(context.Background(), ports.CreateDiaryInput{
		UserID:   "user-1",
		Title:    "제주도",
		ImageIDs: []string{img.ID, "temp-123", "", "not-an-image"},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(view.Photos) != 1 {
		t.Fatalf("expected 1 photo slot, got %d", len(view.Photos))
	}
	slot := view.Photos[0]
	if slot.TimeSlot != domain.TimeSlotMorning {
		t.Fatalf("expected morning slot, got %s", slot.TimeSlot)
	}
	if slot.URL != domain.ImageURL(img.ID) {
		t.Fatalf("unexpected slot url %s", slot.URL)
	}
	if slot.Exif.Location == nil {
		t.Fatalf("expected slot location")
	}
	if slot.ImageData != base64.StdEncoding.EncodeToString([]byte("photo-1")) {
		t.Fatalf("expected image data attached to created view")
	}
	if view.Date == "" || len(view.Categories) != 0 || view.Completed {
		t.Fatalf("unexpected diary defaults: %+v", view.Diary)
	}

	stored, err := f.store.Images.GetByID(context.Background(), domain.ParseID(img.ID))
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !stored.UsedInDiary {
		t.Fatalf("expected image to be marked used in diary")
	}
}

func TestCreateDiaryWithoutExifDateIsEvening(t *testing.T) {
	f := newDiaryFixture(exifFake{result: domain.ExifResult{Success: true}})
	img := f.upload(t, "photo")

	view, err := f.diaries.Create(context.Background(), ports.CreateDiaryInput{
		UserID: "user-1", Title: "t", ImageIDs: []string{img.ID},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if view.Photos[0].TimeSlot != domain.TimeSlotEvening {
		t.Fatalf("expected evening, got %s", view.Photos[0].TimeSlot)
	}
	if view.Photos[0].Timestamp == 0 {
		t.Fatalf("expected timestamp fallback to creation time")
	}
}

func TestCreateDiaryValidation(t *testing.T) {
	f := newDiaryFixture(exifFake{})

	_, err := f.diaries.Create(context.Background(), ports.CreateDiaryInput{UserID: "u"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for missing title, got %v", err)
	}
	_, err = f.diaries.Create(context.Background(), ports.CreateDiaryInput{Title: "t"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for missing user, got %v", err)
	}
}

func TestCreateDiaryPropagatesUnexpectedLookupErrors(t *testing.T) {
	f := newDiaryFixture(exifFake{})
	store := f.store
	store.Images = brokenImageRepo{store.Images}
	uc := NewDiaryUseCase(store, f.storage, seoul)

	_, err := uc.Create(context.Background(), ports.CreateDiaryInput{
		UserID: "u", Title: "t", ImageIDs: []string{"0123456789abcdef01234567"},
	})
	if err == nil || domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected unexpected error to propagate, got %v", err)
	}
}

func TestCreateDiaryFailureLeavesImagesUnused(t *testing.T) {
	f := newDiaryFixture(exifFake{})
	img := f.upload(t, "photo")
	store := f.store
	store.Diaries = failingDiaryCreateRepo{store.Diaries}
	uc := NewDiaryUseCase(store, f.storage, seoul)

	if _, err := uc.Create(context.Background(), ports.CreateDiaryInput{
		UserID: "user-1", Title: "t", ImageIDs: []string{img.ID},
	}); err == nil {
		t.Fatalf("expected create error")
	}
	stored, err := f.store.Images.GetByID(context.Background(), domain.ParseID(img.ID))
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.UsedInDiary {
		t.Fatalf("image must not be marked used without a diary")
	}
}

func TestUpdateContent(t *testing.T) {
	f := newDiaryFixture(exifFake{})
	view, err := f.diaries.Create(context.Background(), ports.CreateDiaryInput{UserID: "u", Title: "t"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated, err := f.diaries.UpdateContent(context.Background(), view.ID, "바다를 보았다")
	if err != nil {
		t.Fatalf("UpdateContent() error = %v", err)
	}
	if updated.Content != "바다를 보았다" {
		t.Fatalf("unexpected content %q", updated.Content)
	}
	if _, err := f.diaries.UpdateContent(context.Background(), view.ID, "  "); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty content, got %v", err)
	}
	if _, err := f.diaries.UpdateContent(context.Background(), "missing", "x"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDetailAttachesImagesAndAIContent(t *testing.T) {
	f := newDiaryFixture(exifFake{})
	kept := f.upload(t, "kept")
	gone := f.upload(t, "gone")

	view, err := f.diaries.Create(context.Background(), ports.CreateDiaryInput{
		UserID: "user-1", Title: "t", ImageIDs: []string{kept.ID, gone.ID},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := f.store.Images.DeleteByIDs(context.Background(), []string{gone.ID}); err != nil {
		t.Fatalf("DeleteByIDs() error = %v", err)
	}
	if _, err := f.diaries.SaveAIDiary(context.Background(), ports.SaveAIDiaryInput{
		DiaryID: view.ID, Content: "오늘은 즐거웠다",
	}); err != nil {
		t.Fatalf("SaveAIDiary() error = %v", err)
	}

	detail, err := f.diaries.Detail(context.Background(), view.ID)
	if err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
	if len(detail.Photos) != 2 {
		t.Fatalf("expected both slots, got %d", len(detail.Photos))
	}
	if detail.Photos[0].ImageData == "" {
		t.Fatalf("expected image data for resolvable slot")
	}
	if detail.Photos[1].ImageData != "" {
		t.Fatalf("expected absent image data for missing image")
	}
	if detail.AIContent != "오늘은 즐거웠다" {
		t.Fatalf("unexpected ai content %q", detail.AIContent)
	}

	if _, err := f.diaries.Detail(context.Background(), "0123456789abcdef01234567"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSaveAIDiaryIsOnePerDiary(t *testing.T) {
	f := newDiaryFixture(exifFake{})
	img := f.upload(t, "bytes")
	view, err := f.diaries.Create(context.Background(), ports.CreateDiaryInput{
		UserID: "user-1", Title: "t", ImageIDs: []string{img.ID},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	first, err := f.diaries.SaveAIDiary(context.Background(), ports.SaveAIDiaryInput{DiaryID: view.ID, Content: "v1"})
	if err != nil {
		t.Fatalf("SaveAIDiary() error = %v", err)
	}
	second, err := f.diaries.SaveAIDiary(context.Background(), ports.SaveAIDiaryInput{DiaryID: view.ID, Content: "v2"})
	if err != nil {
		t.Fatalf("SaveAIDiary() error = %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected upsert to keep id %s, got %s", first.ID, second.ID)
	}
	if second.UserID != "user-1" || len(second.Photos) != 1 {
		t.Fatalf("unexpected ai diary: %+v", second)
	}

	stored, err := f.store.AIDiaries.GetByDiaryID(context.Background(), view.ID)
	if err != nil {
		t.Fatalf("GetByDiaryID() error = %v", err)
	}
	if stored.Content != "v2" {
		t.Fatalf("expected latest content, got %q", stored.Content)
	}
}

func TestListAttachesPrintableThumbnail(t *testing.T) {
	f := newDiaryFixture(exifFake{})
	printables := NewPrintableUseCase(f.store, nil, nil)

	withPrint, err := f.diaries.Create(context.Background(), ports.CreateDiaryInput{UserID: "user-1", Title: "a"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := f.diaries.Create(context.Background(), ports.CreateDiaryInput{UserID: "user-1", Title: "b"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := f.diaries.Create(context.Background(), ports.CreateDiaryInput{UserID: "user-2", Title: "c"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := printables.Save(context.Background(), ports.SavePrintableInput{
		DiaryID: withPrint.ID, UserID: "user-1", Images: []string{"page-one", "page-two"},
	}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	list, err := f.diaries.List(context.Background(), "user-1", 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 diaries, got %d", len(list))
	}
	for _, d := range list {
		switch d.ID {
		case withPrint.ID:
			if d.Thumbnail != "page-one" {
				t.Fatalf("expected first page thumbnail, got %q", d.Thumbnail)
			}
			if !d.Completed {
				t.Fatalf("expected printable diary to be completed")
			}
		default:
			if d.Thumbnail != "" {
				t.Fatalf("expected no thumbnail, got %q", d.Thumbnail)
			}
		}
	}

	if _, err := f.diaries.List(context.Background(), " ", 0); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestDeleteRemovesEverythingReferencingDiary(t *testing.T) {
	f := newDiaryFixture(exifFake{})
	layouts := NewLayoutUseCase(f.store, &classifierFake{}, f.diaries)
	printables := NewPrintableUseCase(f.store, nil, nil)

	a := f.upload(t, "a")
	b := f.upload(t, "b")
	view, err := f.diaries.Create(context.Background(), ports.CreateDiaryInput{
		UserID: "user-1", Title: "t", ImageIDs: []string{a.ID, "temp-1", b.ID},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := f.diaries.SaveAIDiary(context.Background(), ports.SaveAIDiaryInput{DiaryID: view.ID, Content: "c"}); err != nil {
		t.Fatalf("SaveAIDiary() error = %v", err)
	}
	if _, err := printables.Save(context.Background(), ports.SavePrintableInput{
		DiaryID: view.ID, UserID: "user-1", Images: []string{"p1"},
	}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := layouts.Select(context.Background(), ports.SelectLayoutInput{DiaryID: view.ID, LayoutIndex: 3}); err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	report, err := f.diaries.Delete(context.Background(), view.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if report.Images != 2 || report.AIDiaries != 1 || report.Printables != 1 || report.Selections != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(f.storage.deleted) != 2 {
		t.Fatalf("expected 2 binaries deleted, got %v", f.storage.deleted)
	}

	ctx := context.Background()
	if _, err := f.store.Diaries.GetByID(ctx, domain.ParseID(view.ID)); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected diary gone, got %v", err)
	}
	if _, err := f.store.AIDiaries.GetByDiaryID(ctx, view.ID); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ai diary gone, got %v", err)
	}
	if _, err := f.store.Printables.GetByDiaryID(ctx, view.ID); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected printable gone, got %v", err)
	}
	if _, err := f.store.Selections.GetByDiaryID(ctx, view.ID); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected selection gone, got %v", err)
	}
	for _, id := range []string{a.ID, b.ID} {
		if _, err := f.store.Images.GetByID(ctx, domain.ParseID(id)); !domain.IsKind(err, domain.ErrNotFound) {
			t.Fatalf("expected image %s gone, got %v", id, err)
		}
	}

	if _, err := f.diaries.Delete(ctx, view.ID); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestDeleteContinuesWhenRelatedCollectionFails(t *testing.T) {
	f := newDiaryFixture(exifFake{})
	store := f.store
	store.AIDiaries = failingAIDiaryRepo{store.AIDiaries}
	uc := NewDiaryUseCase(store, f.storage, seoul)
	printables := NewPrintableUseCase(store, nil, nil)

	view, err := uc.Create(context.Background(), ports.CreateDiaryInput{UserID: "u", Title: "t"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := printables.Save(context.Background(), ports.SavePrintableInput{
		DiaryID: view.ID, UserID: "u", Images: []string{"p1"},
	}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	report, err := uc.Delete(context.Background(), view.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if report.AIDiaries != 0 || report.Printables != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if _, err := store.Diaries.GetByID(context.Background(), domain.ParseID(view.ID)); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("diary deletion must not be undone, got %v", err)
	}
}

func TestDeleteKeepsBinariesWhenImageRecordsRemain(t *testing.T) {
	f := newDiaryFixture(exifFake{})
	img := f.upload(t, "photo")
	view, err := f.diaries.Create(context.Background(), ports.CreateDiaryInput{
		UserID: "user-1", Title: "t", ImageIDs: []string{img.ID},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	store := f.store
	store.Images = failingImageDeleteRepo{store.Images}
	uc := NewDiaryUseCase(store, f.storage, seoul)
	report, err := uc.Delete(context.Background(), view.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if report.Images != 0 {
		t.Fatalf("expected no images reported, got %d", report.Images)
	}
	if len(f.storage.deleted) != 0 {
		t.Fatalf("binaries must stay while records remain, deleted %v", f.storage.deleted)
	}
	if _, err := f.storage.Open(context.Background(), img.StorageKey); err != nil {
		t.Fatalf("expected binary still readable, got %v", err)
	}
}

func TestMarkCompleted(t *testing.T) {
	f := newDiaryFixture(exifFake{})
	view, err := f.diaries.Create(context.Background(), ports.CreateDiaryInput{UserID: "u", Title: "t"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := f.diaries.MarkCompleted(context.Background(), view.ID); err != nil {
		t.Fatalf("MarkCompleted() error = %v", err)
	}
	stored, err := f.store.Diaries.GetByID(context.Background(), domain.ParseID(view.ID))
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !stored.Completed || stored.CompletedAt == nil {
		t.Fatalf("expected completed diary, got %+v", stored)
	}
	if err := f.diaries.MarkCompleted(context.Background(), "missing"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
