package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/kirillkom/travel-diary/internal/core/domain"
)

type ImageRepository struct {
	coll *mongo.Collection
}

func (r *ImageRepository) Create(ctx context.Context, img *domain.Image) error {
	if _, err := r.coll.InsertOne(ctx, toImageDoc(img)); err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

func (r *ImageRepository) GetByID(ctx context.Context, id domain.ID) (*domain.Image, error) {
	doc, err := findFirst[imageDoc](ctx, r.coll, id, "image")
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *ImageRepository) MarkUsedInDiary(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.coll.UpdateMany(ctx, idsFilter(ids), bson.M{"$set": bson.M{"usedInDiary": true}})
	if err != nil {
		return fmt.Errorf("mark images used: %w", err)
	}
	return nil
}

func (r *ImageRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.coll.DeleteMany(ctx, idsFilter(ids))
	if err != nil {
		return 0, fmt.Errorf("delete images: %w", err)
	}
	return res.DeletedCount, nil
}

// idsFilter matches every stored form of each id.
func idsFilter(ids []string) bson.M {
	keys := bson.A{}
	for _, raw := range ids {
		for _, key := range domain.ParseID(raw).Candidates() {
			if oid, err := bson.ObjectIDFromHex(key); err == nil {
				keys = append(keys, oid)
			}
			keys = append(keys, key)
		}
	}
	return bson.M{"_id": bson.M{"$in": keys}}
}
