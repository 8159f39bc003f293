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

type AIDiaryRepository struct {
	coll *mongo.Collection
}

// Upsert writes the result for its diary. An existing record keeps its id;
// result.ID is updated to the stored id.
func (r *AIDiaryRepository) Upsert(ctx context.Context, result *domain.AIDiary) error {
	update := bson.M{
		"$set": bson.M{
			"userId":    result.UserID,
			"content":   result.Content,
			"photos":    toSlotDocs(result.Photos),
			"createdAt": result.CreatedAt,
		},
		"$setOnInsert": bson.M{"_id": storedKey(result.ID)},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc aiDiaryDoc
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"diaryId": result.DiaryID}, update, opts).Decode(&doc)
	if err != nil {
		return fmt.Errorf("upsert ai diary: %w", err)
	}
	result.ID = idString(doc.ID)
	return nil
}

func (r *AIDiaryRepository) GetByDiaryID(ctx context.Context, diaryID string) (*domain.AIDiary, error) {
	var doc aiDiaryDoc
	err := r.coll.FindOne(ctx, bson.M{"diaryId": diaryID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFound("get ai diary", "ai diary", diaryID)
	}
	if err != nil {
		return nil, fmt.Errorf("get ai diary: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *AIDiaryRepository) DeleteByDiaryID(ctx context.Context, diaryID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"diaryId": diaryID})
	if err != nil {
		return 0, fmt.Errorf("delete ai diaries: %w", err)
	}
	return res.DeletedCount, nil
}
