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

type PrintableRepository struct {
	coll *mongo.Collection
}

func (r *PrintableRepository) Create(ctx context.Context, p *domain.PrintableDiary) error {
	if _, err := r.coll.InsertOne(ctx, toPrintableDoc(p)); err != nil {
		return fmt.Errorf("insert printable diary: %w", err)
	}
	return nil
}

func (r *PrintableRepository) GetByID(ctx context.Context, id domain.ID) (*domain.PrintableDiary, error) {
	doc, err := findFirst[printableDoc](ctx, r.coll, id, "printable diary")
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

// GetByDiaryID returns the most recently saved printable of the diary.
func (r *PrintableRepository) GetByDiaryID(ctx context.Context, diaryID string) (*domain.PrintableDiary, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	var doc printableDoc
	err := r.coll.FindOne(ctx, bson.M{"diaryId": diaryID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFound("get printable diary", "printable diary", diaryID)
	}
	if err != nil {
		return nil, fmt.Errorf("get printable diary: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *PrintableRepository) SetThumbnail(ctx context.Context, id string, thumbnail string) error {
	res, err := r.coll.UpdateOne(ctx, anyKeyFilter(id), bson.M{"$set": bson.M{"thumbnail": thumbnail}})
	if err != nil {
		return fmt.Errorf("set printable thumbnail: %w", err)
	}
	return requireMatched(res, "set printable thumbnail", "printable diary", id)
}

func (r *PrintableRepository) DeleteByDiaryID(ctx context.Context, diaryID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"diaryId": diaryID})
	if err != nil {
		return 0, fmt.Errorf("delete printable diaries: %w", err)
	}
	return res.DeletedCount, nil
}
