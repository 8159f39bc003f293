package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kirillkom/travel-diary/internal/core/domain"
)

type ImageRepository struct {
	db *sql.DB
}

func NewImageRepository(db *sql.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

func (r *ImageRepository) Create(ctx context.Context, img *domain.Image) error {
	keywords, err := marshalJSON(img.Keywords, "keywords")
	if err != nil {
		return err
	}
	exif, err := marshalJSON(img.Exif, "exif")
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO images (
	id, user_id, storage_key, filename, mime_type, size, keywords, temp_id, exif, used_in_diary, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		img.ID, img.UserID, img.StorageKey, img.Filename, img.MimeType, img.Size, keywords,
		img.TempID, exif, img.UsedInDiary, img.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

func (r *ImageRepository) GetByID(ctx context.Context, id domain.ID) (*domain.Image, error) {
	return firstMatch(id, "image", func(key string) (*domain.Image, error) {
		row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, storage_key, filename, mime_type, size, keywords, temp_id, exif, used_in_diary, created_at
FROM images
WHERE id = $1
`, key)
		return scanImage(row)
	})
}

func scanImage(row rowScanner) (*domain.Image, error) {
	var img domain.Image
	var keywords, exif []byte
	err := row.Scan(
		&img.ID, &img.UserID, &img.StorageKey, &img.Filename, &img.MimeType, &img.Size,
		&keywords, &img.TempID, &exif, &img.UsedInDiary, &img.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(keywords, &img.Keywords, "keywords"); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(exif, &img.Exif, "exif"); err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *ImageRepository) MarkUsedInDiary(ctx context.Context, ids []string) error {
	for _, raw := range ids {
		for _, key := range domain.ParseID(raw).Candidates() {
			res, err := r.db.ExecContext(ctx, `UPDATE images SET used_in_diary = TRUE WHERE id = $1`, key)
			if err != nil {
				return fmt.Errorf("mark image used: %w", err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				break
			}
		}
	}
	return nil
}

func (r *ImageRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	var total int64
	for _, raw := range ids {
		for _, key := range domain.ParseID(raw).Candidates() {
			res, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE id = $1`, key)
			if err != nil {
				return total, fmt.Errorf("delete image: %w", err)
			}
			n, _ := res.RowsAffected()
			if n > 0 {
				total += n
				break
			}
		}
	}
	return total, nil
}
