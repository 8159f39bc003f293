package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kirillkom/travel-diary/internal/core/domain"
)

type PrintableRepository struct {
	db *sql.DB
}

func NewPrintableRepository(db *sql.DB) *PrintableRepository {
	return &PrintableRepository{db: db}
}

const printableColumns = `id, diary_id, user_id, pages, total_pages, mime_type, thumbnail, created_at`

func (r *PrintableRepository) Create(ctx context.Context, p *domain.PrintableDiary) error {
	pages, err := marshalJSON(p.Pages, "pages")
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO printable_diaries (`+printableColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, p.ID, p.DiaryID, p.UserID, pages, p.TotalPages, p.MimeType, p.Thumbnail, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert printable diary: %w", err)
	}
	return nil
}

func (r *PrintableRepository) GetByID(ctx context.Context, id domain.ID) (*domain.PrintableDiary, error) {
	return firstMatch(id, "printable", func(key string) (*domain.PrintableDiary, error) {
		row := r.db.QueryRowContext(ctx, `SELECT `+printableColumns+` FROM printable_diaries WHERE id = $1`, key)
		return scanPrintable(row)
	})
}

// GetByDiaryID returns the most recent printable of a diary.
func (r *PrintableRepository) GetByDiaryID(ctx context.Context, diaryID string) (*domain.PrintableDiary, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+printableColumns+`
FROM printable_diaries
WHERE diary_id = $1
ORDER BY created_at DESC
LIMIT 1
`, diaryID)
	p, err := scanPrintable(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("get printable diary", "diary", diaryID)
		}
		return nil, fmt.Errorf("scan printable diary: %w", err)
	}
	return p, nil
}

func scanPrintable(row rowScanner) (*domain.PrintableDiary, error) {
	var p domain.PrintableDiary
	var pages []byte
	err := row.Scan(&p.ID, &p.DiaryID, &p.UserID, &pages, &p.TotalPages, &p.MimeType, &p.Thumbnail, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(pages, &p.Pages, "pages"); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PrintableRepository) SetThumbnail(ctx context.Context, id string, thumbnail string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE printable_diaries SET thumbnail = $2 WHERE id = $1`, id, thumbnail)
	if err != nil {
		return fmt.Errorf("set printable thumbnail: %w", err)
	}
	return requireAffected(res, "set printable thumbnail", "printable", id)
}

func (r *PrintableRepository) DeleteByDiaryID(ctx context.Context, diaryID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM printable_diaries WHERE diary_id = $1`, diaryID)
	if err != nil {
		return 0, fmt.Errorf("delete printable diaries: %w", err)
	}
	return res.RowsAffected()
}
