package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/kirillkom/travel-diary/internal/core/domain"
)

type DiaryRepository struct {
	coll *mongo.Collection
}

func (r *DiaryRepository) Create(ctx context.Context, d *domain.Diary) error {
	if _, err := r.coll.InsertOne(ctx, toDiaryDoc(d)); err != nil {
		return fmt.Errorf("insert diary: %w", err)
	}
	return nil
}

func (r *DiaryRepository) GetByID(ctx context.Context, id domain.ID) (*domain.Diary, error) {
	doc, err := findFirst[diaryDoc](ctx, r.coll, id, "diary")
	if err != nil {
		return nil, err
	}
	d := doc.toDomain()
	return &d, nil
}

func (r *DiaryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Diary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list diaries: %w", err)
	}
	var docs []diaryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode diaries: %w", err)
	}
	out := make([]domain.Diary, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toDomain())
	}
	return out, nil
}

func (r *DiaryRepository) UpdateContent(ctx context.Context, id string, content string, updatedAt time.Time) error {
	return r.update(ctx, "update diary content", id, bson.M{
		"$set": bson.M{"content": content, "updatedAt": updatedAt},
	})
}

func (r *DiaryRepository) AddCategory(ctx context.Context, id string, category domain.Category, updatedAt time.Time) error {
	return r.update(ctx, "add diary category", id, bson.M{
		"$addToSet": bson.M{"categories": string(category)},
		"$set":      bson.M{"updatedAt": updatedAt},
	})
}

func (r *DiaryRepository) ReplaceCategories(ctx context.Context, id string, categories []string, updatedAt time.Time) error {
	if categories == nil {
		categories = []string{}
	}
	return r.update(ctx, "replace diary categories", id, bson.M{
		"$set": bson.M{"categories": categories, "updatedAt": updatedAt},
	})
}

func (r *DiaryRepository) MarkCompleted(ctx context.Context, id string, completedAt time.Time) error {
	return r.update(ctx, "mark diary completed", id, bson.M{
		"$set": bson.M{"completed": true, "completedAt": completedAt, "updatedAt": completedAt},
	})
}

func (r *DiaryRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.coll.DeleteOne(ctx, anyKeyFilter(id))
	if err != nil {
		return 0, fmt.Errorf("delete diary: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *DiaryRepository) update(ctx context.Context, op, id string, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, anyKeyFilter(id), update)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireMatched(res, op, "diary", id)
}
