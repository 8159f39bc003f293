package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kirillkom/travel-diary/internal/core/domain"
)

type DiaryRepository struct {
	db *sql.DB
}

func NewDiaryRepository(db *sql.DB) *DiaryRepository {
	return &DiaryRepository{db: db}
}

const diaryColumns = `id, user_id, title, date, photos, content, categories, completed, completed_at, created_at, updated_at`

func (r *DiaryRepository) Create(ctx context.Context, d *domain.Diary) error {
	photos, err := marshalJSON(d.Photos, "photos")
	if err != nil {
		return err
	}
	categories := d.Categories
	if categories == nil {
		categories = []string{}
	}
	cats, err := marshalJSON(categories, "categories")
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO diaries (`+diaryColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		d.ID, d.UserID, d.Title, d.Date, photos, d.Content, cats, d.Completed, d.CompletedAt,
		d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert diary: %w", err)
	}
	return nil
}

func (r *DiaryRepository) GetByID(ctx context.Context, id domain.ID) (*domain.Diary, error) {
	return firstMatch(id, "diary", func(key string) (*domain.Diary, error) {
		row := r.db.QueryRowContext(ctx, `SELECT `+diaryColumns+` FROM diaries WHERE id = $1`, key)
		return scanDiary(row)
	})
}

func (r *DiaryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Diary, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+diaryColumns+`
FROM diaries
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list diaries: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Diary, 0)
	for rows.Next() {
		d, err := scanDiary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan diary: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diaries: %w", err)
	}
	return out, nil
}

func scanDiary(row rowScanner) (*domain.Diary, error) {
	var d domain.Diary
	var photos, categories []byte
	var completedAt sql.NullTime
	err := row.Scan(
		&d.ID, &d.UserID, &d.Title, &d.Date, &photos, &d.Content, &categories,
		&d.Completed, &completedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(photos, &d.Photos, "photos"); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(categories, &d.Categories, "categories"); err != nil {
		return nil, err
	}
	if d.Categories == nil {
		d.Categories = []string{}
	}
	if completedAt.Valid {
		t := completedAt.Time
		d.CompletedAt = &t
	}
	return &d, nil
}

func (r *DiaryRepository) UpdateContent(ctx context.Context, id string, content string, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE diaries SET content = $2, updated_at = $3 WHERE id = $1
`, id, content, updatedAt)
	if err != nil {
		return fmt.Errorf("update diary content: %w", err)
	}
	return requireAffected(res, "update diary content", "diary", id)
}

// AddCategory appends category unless it is already present.
func (r *DiaryRepository) AddCategory(ctx context.Context, id string, category domain.Category, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE diaries
SET categories = CASE
		WHEN categories @> jsonb_build_array($2::text) THEN categories
		ELSE categories || jsonb_build_array($2::text)
	END,
	updated_at = $3
WHERE id = $1
`, id, string(category), updatedAt)
	if err != nil {
		return fmt.Errorf("add diary category: %w", err)
	}
	return requireAffected(res, "add diary category", "diary", id)
}

func (r *DiaryRepository) ReplaceCategories(ctx context.Context, id string, categories []string, updatedAt time.Time) error {
	if categories == nil {
		categories = []string{}
	}
	cats, err := marshalJSON(categories, "categories")
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE diaries SET categories = $2, updated_at = $3 WHERE id = $1
`, id, cats, updatedAt)
	if err != nil {
		return fmt.Errorf("replace diary categories: %w", err)
	}
	return requireAffected(res, "replace diary categories", "diary", id)
}

func (r *DiaryRepository) MarkCompleted(ctx context.Context, id string, completedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE diaries SET completed = TRUE, completed_at = $2, updated_at = $2 WHERE id = $1
`, id, completedAt)
	if err != nil {
		return fmt.Errorf("mark diary completed: %w", err)
	}
	return requireAffected(res, "mark diary completed", "diary", id)
}

func (r *DiaryRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM diaries WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete diary: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete diary rows affected: %w", err)
	}
	return n, nil
}
