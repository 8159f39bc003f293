package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kirillkom/travel-diary/internal/core/domain"
)

type AIDiaryRepository struct {
	db *sql.DB
}

func NewAIDiaryRepository(db *sql.DB) *AIDiaryRepository {
	return &AIDiaryRepository{db: db}
}

// Upsert keeps a single result per diary. The id of an existing row is
// preserved and written back into result.
func (r *AIDiaryRepository) Upsert(ctx context.Context, result *domain.AIDiary) error {
	photos, err := marshalJSON(result.Photos, "photos")
	if err != nil {
		return err
	}
	var id string
	err = r.db.QueryRowContext(ctx, `
INSERT INTO ai_diaries (id, diary_id, user_id, content, photos, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (diary_id) DO UPDATE
SET user_id = EXCLUDED.user_id, content = EXCLUDED.content, photos = EXCLUDED.photos, created_at = EXCLUDED.created_at
RETURNING id
`, result.ID, result.DiaryID, result.UserID, result.Content, photos, result.CreatedAt).Scan(&id)
	if err != nil {
		return fmt.Errorf("upsert ai diary: %w", err)
	}
	result.ID = id
	return nil
}

func (r *AIDiaryRepository) GetByDiaryID(ctx context.Context, diaryID string) (*domain.AIDiary, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, diary_id, user_id, content, photos, created_at
FROM ai_diaries
WHERE diary_id = $1
`, diaryID)

	var ai domain.AIDiary
	var photos []byte
	if err := row.Scan(&ai.ID, &ai.DiaryID, &ai.UserID, &ai.Content, &photos, &ai.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("get ai diary", "diary", diaryID)
		}
		return nil, fmt.Errorf("scan ai diary: %w", err)
	}
	if err := unmarshalJSON(photos, &ai.Photos, "photos"); err != nil {
		return nil, err
	}
	return &ai, nil
}

func (r *AIDiaryRepository) DeleteByDiaryID(ctx context.Context, diaryID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ai_diaries WHERE diary_id = $1`, diaryID)
	if err != nil {
		return 0, fmt.Errorf("delete ai diary: %w", err)
	}
	return res.RowsAffected()
}
