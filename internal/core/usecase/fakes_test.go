package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/travel-diary/internal/core/domain"
	"github.com/kirillkom/travel-diary/internal/core/ports"
)

type storageFake struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	saveErr error
}

func newStorageFake() *storageFake {
	return &storageFake{objects: make(map[string][]byte)}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader, _ int64, _ string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = raw
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f *storageFake) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

type exifFake struct {
	result domain.ExifResult
}

func (f exifFake) Extract([]byte) domain.ExifResult { return f.result }

func exifAt(t time.Time) exifFake {
	lat, lon := 37.5665, 126.978
	return exifFake{result: domain.ExifResult{
		Success:   true,
		Latitude:  &lat,
		Longitude: &lon,
		Date:      &t,
		HasGPS:    true,
	}}
}

// classifierFake maps a keyword in the text to a label and counts calls.
type classifierFake struct {
	mu     sync.Mutex
	calls  int
	labels map[string]string
}

func (f *classifierFake) Classify(_ context.Context, text string) domain.Category {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for kw, label := range f.labels {
		if strings.Contains(text, kw) {
			return domain.CategoryFromLabel(label)
		}
	}
	return domain.FallbackCategory
}

func (f *classifierFake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type publisherFake struct {
	ids []string
	err error
}

func (f *publisherFake) PublishPrintableSaved(_ context.Context, printableID string) error {
	if f.err != nil {
		return f.err
	}
	f.ids = append(f.ids, printableID)
	return nil
}

type rendererFake struct {
	in  string
	out string
	err error
}

func (f *rendererFake) Render(page string) (string, error) {
	f.in = page
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

// failingAIDiaryRepo wraps a repository and fails deletions.
type failingAIDiaryRepo struct {
	ports.AIDiaryRepository
}

func (failingAIDiaryRepo) DeleteByDiaryID(context.Context, string) (int64, error) {
	return 0, errors.New("ai collection unavailable")
}

// brokenImageRepo fails every lookup with an unexpected error.
type brokenImageRepo struct {
	ports.ImageRepository
}

func (brokenImageRepo) GetByID(context.Context, domain.ID) (*domain.Image, error) {
	return nil, errors.New("connection reset")
}

// failingDiaryCreateRepo rejects every new diary.
type failingDiaryCreateRepo struct {
	ports.DiaryRepository
}

func (failingDiaryCreateRepo) Create(context.Context, *domain.Diary) error {
	return errors.New("write conflict")
}

// failingImageDeleteRepo keeps image records when asked to delete them.
type failingImageDeleteRepo struct {
	ports.ImageRepository
}

func (failingImageDeleteRepo) DeleteByIDs(context.Context, []string) (int64, error) {
	return 0, errors.New("images collection unavailable")
}
