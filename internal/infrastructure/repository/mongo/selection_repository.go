package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/kirillkom/travel-diary/internal/core/domain"
)

// LayoutSelectionRepository stores one selection per diary, keyed by the
// diary id.
type LayoutSelectionRepository struct {
	coll *mongo.Collection
}

func (r *LayoutSelectionRepository) Save(ctx context.Context, s domain.LayoutSelection) error {
	doc := selectionDoc{
		DiaryID:     s.DiaryID,
		LayoutID:    s.LayoutID,
		LayoutIndex: s.LayoutIndex,
		SelectedAt:  s.SelectedAt,
	}
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": s.DiaryID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save layout selection: %w", err)
	}
	return nil
}

func (r *LayoutSelectionRepository) GetByDiaryID(ctx context.Context, diaryID string) (*domain.LayoutSelection, error) {
	var doc selectionDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": diaryID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFound("get layout selection", "layout selection", diaryID)
	}
	if err != nil {
		return nil, fmt.Errorf("get layout selection: %w", err)
	}
	return &domain.LayoutSelection{
		DiaryID:     doc.DiaryID,
		LayoutID:    doc.LayoutID,
		LayoutIndex: doc.LayoutIndex,
		SelectedAt:  doc.SelectedAt,
	}, nil
}

func (r *LayoutSelectionRepository) DeleteByDiaryID(ctx context.Context, diaryID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"_id": diaryID})
	if err != nil {
		return 0, fmt.Errorf("delete layout selections: %w", err)
	}
	return res.DeletedCount, nil
}
