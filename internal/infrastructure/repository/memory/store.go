// Package memory keeps every collection in process memory. It backs tests
// and single-node deployments without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kirillkom/travel-diary/internal/core/domain"
	"github.com/kirillkom/travel-diary/internal/core/ports"
)

type Store struct {
	mu         sync.RWMutex
	images     map[string]domain.Image
	diaries    map[string]domain.Diary
	aiDiaries  map[string]domain.AIDiary
	printables map[string]domain.PrintableDiary
	selections map[string]domain.LayoutSelection
}

func New() *Store {
	return &Store{
		images:     make(map[string]domain.Image),
		diaries:    make(map[string]domain.Diary),
		aiDiaries:  make(map[string]domain.AIDiary),
		printables: make(map[string]domain.PrintableDiary),
		selections: make(map[string]domain.LayoutSelection),
	}
}

// Ports exposes the store as the typed repository set.
func (s *Store) Ports() ports.Store {
	return ports.Store{
		Images:     imageRepo{s},
		Diaries:    diaryRepo{s},
		AIDiaries:  aiDiaryRepo{s},
		Printables: printableRepo{s},
		Selections: selectionRepo{s},
	}
}

func lookup[T any](m map[string]T, id domain.ID) (T, bool) {
	for _, key := range id.Candidates() {
		if v, ok := m[key]; ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

type imageRepo struct{ s *Store }

func (r imageRepo) Create(_ context.Context, img *domain.Image) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *img
	cp.Keywords = append([]string(nil), img.Keywords...)
	r.s.images[img.ID] = cp
	return nil
}

func (r imageRepo) GetByID(_ context.Context, id domain.ID) (*domain.Image, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	img, ok := lookup(r.s.images, id)
	if !ok {
		return nil, domain.NotFound("get image", "image", id.String())
	}
	return &img, nil
}

func (r imageRepo) MarkUsedInDiary(_ context.Context, ids []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, raw := range ids {
		id := domain.ParseID(raw)
		img, ok := lookup(r.s.images, id)
		if !ok {
			continue
		}
		img.UsedInDiary = true
		r.s.images[img.ID] = img
	}
	return nil
}

func (r imageRepo) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, raw := range ids {
		img, ok := lookup(r.s.images, domain.ParseID(raw))
		if !ok {
			continue
		}
		delete(r.s.images, img.ID)
		n++
	}
	return n, nil
}

type diaryRepo struct{ s *Store }

func cloneDiary(d domain.Diary) domain.Diary {
	d.Photos = append([]domain.PhotoSlot(nil), d.Photos...)
	d.Categories = append([]string{}, d.Categories...)
	return d
}

func (r diaryRepo) Create(_ context.Context, diary *domain.Diary) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.diaries[diary.ID] = cloneDiary(*diary)
	return nil
}

func (r diaryRepo) GetByID(_ context.Context, id domain.ID) (*domain.Diary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := lookup(r.s.diaries, id)
	if !ok {
		return nil, domain.NotFound("get diary", "diary", id.String())
	}
	d = cloneDiary(d)
	return &d, nil
}

func (r diaryRepo) ListByUser(_ context.Context, userID string, limit int) ([]domain.Diary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.Diary, 0)
	for _, d := range r.s.diaries {
		if d.UserID == userID {
			out = append(out, cloneDiary(d))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r diaryRepo) update(id string, fn func(*domain.Diary)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := lookup(r.s.diaries, domain.ParseID(id))
	if !ok {
		return domain.NotFound("update diary", "diary", id)
	}
	fn(&d)
	r.s.diaries[d.ID] = d
	return nil
}

func (r diaryRepo) UpdateContent(_ context.Context, id string, content string, updatedAt time.Time) error {
	return r.update(id, func(d *domain.Diary) {
		d.Content = content
		d.UpdatedAt = updatedAt
	})
}

func (r diaryRepo) AddCategory(_ context.Context, id string, category domain.Category, updatedAt time.Time) error {
	return r.update(id, func(d *domain.Diary) {
		for _, c := range d.Categories {
			if c == string(category) {
				d.UpdatedAt = updatedAt
				return
			}
		}
		d.Categories = append(append([]string{}, d.Categories...), string(category))
		d.UpdatedAt = updatedAt
	})
}

func (r diaryRepo) ReplaceCategories(_ context.Context, id string, categories []string, updatedAt time.Time) error {
	return r.update(id, func(d *domain.Diary) {
		d.Categories = append([]string{}, categories...)
		d.UpdatedAt = updatedAt
	})
}

func (r diaryRepo) MarkCompleted(_ context.Context, id string, completedAt time.Time) error {
	return r.update(id, func(d *domain.Diary) {
		at := completedAt
		d.Completed = true
		d.CompletedAt = &at
		d.UpdatedAt = completedAt
	})
}

func (r diaryRepo) Delete(_ context.Context, id string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := lookup(r.s.diaries, domain.ParseID(id))
	if !ok {
		return 0, nil
	}
	delete(r.s.diaries, d.ID)
	return 1, nil
}

type aiDiaryRepo struct{ s *Store }

func (r aiDiaryRepo) Upsert(_ context.Context, result *domain.AIDiary) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *result
	cp.Photos = append([]domain.PhotoSlot(nil), result.Photos...)
	if prev, ok := r.s.aiDiaries[result.DiaryID]; ok {
		cp.ID = prev.ID
		result.ID = prev.ID
	}
	r.s.aiDiaries[result.DiaryID] = cp
	return nil
}

func (r aiDiaryRepo) GetByDiaryID(_ context.Context, diaryID string) (*domain.AIDiary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ai, ok := r.s.aiDiaries[diaryID]
	if !ok {
		return nil, domain.NotFound("get ai diary", "diary", diaryID)
	}
	return &ai, nil
}

func (r aiDiaryRepo) DeleteByDiaryID(_ context.Context, diaryID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.aiDiaries[diaryID]; !ok {
		return 0, nil
	}
	delete(r.s.aiDiaries, diaryID)
	return 1, nil
}

type printableRepo struct{ s *Store }

func (r printableRepo) Create(_ context.Context, p *domain.PrintableDiary) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *p
	cp.Pages = append([]domain.PrintablePage(nil), p.Pages...)
	r.s.printables[p.ID] = cp
	return nil
}

func (r printableRepo) GetByID(_ context.Context, id domain.ID) (*domain.PrintableDiary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := lookup(r.s.printables, id)
	if !ok {
		return nil, domain.NotFound("get printable diary", "printable", id.String())
	}
	return &p, nil
}

// GetByDiaryID returns the most recently created printable of a diary.
func (r printableRepo) GetByDiaryID(_ context.Context, diaryID string) (*domain.PrintableDiary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var latest *domain.PrintableDiary
	for _, p := range r.s.printables {
		if p.DiaryID != diaryID {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			cp := p
			latest = &cp
		}
	}
	if latest == nil {
		return nil, domain.NotFound("get printable diary", "diary", diaryID)
	}
	return latest, nil
}

func (r printableRepo) SetThumbnail(_ context.Context, id string, thumbnail string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := lookup(r.s.printables, domain.ParseID(id))
	if !ok {
		return domain.NotFound("set printable thumbnail", "printable", id)
	}
	p.Thumbnail = thumbnail
	r.s.printables[p.ID] = p
	return nil
}

func (r printableRepo) DeleteByDiaryID(_ context.Context, diaryID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, p := range r.s.printables {
		if p.DiaryID == diaryID {
			delete(r.s.printables, id)
			n++
		}
	}
	return n, nil
}

type selectionRepo struct{ s *Store }

func (r selectionRepo) Save(_ context.Context, sel domain.LayoutSelection) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.selections[sel.DiaryID] = sel
	return nil
}

func (r selectionRepo) GetByDiaryID(_ context.Context, diaryID string) (*domain.LayoutSelection, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sel, ok := r.s.selections[diaryID]
	if !ok {
		return nil, domain.NotFound("get layout selection", "diary", diaryID)
	}
	return &sel, nil
}

func (r selectionRepo) DeleteByDiaryID(_ context.Context, diaryID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.selections[diaryID]; !ok {
		return 0, nil
	}
	delete(r.s.selections, diaryID)
	return 1, nil
}
