package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kirillkom/travel-diary/internal/core/domain"
)

type LayoutSelectionRepository struct {
	db *sql.DB
}

func NewLayoutSelectionRepository(db *sql.DB) *LayoutSelectionRepository {
	return &LayoutSelectionRepository{db: db}
}

func (r *LayoutSelectionRepository) Save(ctx context.Context, sel domain.LayoutSelection) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO layout_selections (diary_id, layout_id, layout_index, selected_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (diary_id) DO UPDATE
SET layout_id = EXCLUDED.layout_id, layout_index = EXCLUDED.layout_index, selected_at = EXCLUDED.selected_at
`, sel.DiaryID, sel.LayoutID, sel.LayoutIndex, sel.SelectedAt)
	if err != nil {
		return fmt.Errorf("save layout selection: %w", err)
	}
	return nil
}

func (r *LayoutSelectionRepository) GetByDiaryID(ctx context.Context, diaryID string) (*domain.LayoutSelection, error) {
	var sel domain.LayoutSelection
	err := r.db.QueryRowContext(ctx, `
SELECT diary_id, layout_id, layout_index, selected_at FROM layout_selections WHERE diary_id = $1
`, diaryID).Scan(&sel.DiaryID, &sel.LayoutID, &sel.LayoutIndex, &sel.SelectedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("get layout selection", "diary", diaryID)
		}
		return nil, fmt.Errorf("scan layout selection: %w", err)
	}
	return &sel, nil
}

func (r *LayoutSelectionRepository) DeleteByDiaryID(ctx context.Context, diaryID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM layout_selections WHERE diary_id = $1`, diaryID)
	if err != nil {
		return 0, fmt.Errorf("delete layout selection: %w", err)
	}
	return res.RowsAffected()
}
