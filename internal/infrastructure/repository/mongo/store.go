package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/kirillkom/travel-diary/internal/core/domain"
	"github.com/kirillkom/travel-diary/internal/core/ports"
)

const (
	collImages     = "images"
	collDiaries    = "diaries"
	collAIDiaries  = "ai_diaries"
	collPrintables = "printable_diaries"
	collSelections = "layout_selections"
)

func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().
		ApplyURI(uri).
		SetAppName("travel-diary").
		SetServerSelectionTimeout(5 * time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

func NewStore(db *mongo.Database) ports.Store {
	return ports.Store{
		Images:     &ImageRepository{coll: db.Collection(collImages)},
		Diaries:    &DiaryRepository{coll: db.Collection(collDiaries)},
		AIDiaries:  &AIDiaryRepository{coll: db.Collection(collAIDiaries)},
		Printables: &PrintableRepository{coll: db.Collection(collPrintables)},
		Selections: &LayoutSelectionRepository{coll: db.Collection(collSelections)},
	}
}

// EnsureIndexes creates the indexes the repositories rely on. The unique
// index on ai_diaries.diaryId enforces one result per diary.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	models := map[string]mongo.IndexModel{
		collDiaries: {
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		collAIDiaries: {
			Keys:    bson.D{{Key: "diaryId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		collPrintables: {
			Keys: bson.D{{Key: "diaryId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	}
	for coll, model := range models {
		if _, err := db.Collection(coll).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", coll, err)
		}
	}
	return nil
}

// storedKey converts a canonical id string to the value stored in _id.
func storedKey(id string) any {
	if oid, err := bson.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

// idString renders a decoded _id back into its string form.
func idString(v any) string {
	switch id := v.(type) {
	case bson.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

// lookupFilters lists the _id filters to try in order: the native ObjectID
// first, then each literal string form.
func lookupFilters(id domain.ID) []bson.M {
	var out []bson.M
	if id.IsStructured() {
		if oid, err := bson.ObjectIDFromHex(id.Hex()); err == nil {
			out = append(out, bson.M{"_id": oid})
		}
	}
	for _, key := range id.Candidates() {
		out = append(out, bson.M{"_id": key})
	}
	return out
}

// anyKeyFilter matches a document whose _id is either form of id.
func anyKeyFilter(id string) bson.M {
	keys := bson.A{id}
	if oid, err := bson.ObjectIDFromHex(id); err == nil {
		keys = bson.A{oid, id}
	}
	return bson.M{"_id": bson.M{"$in": keys}}
}

func findFirst[T any](ctx context.Context, coll *mongo.Collection, id domain.ID, entity string) (*T, error) {
	for _, filter := range lookupFilters(id) {
		var doc T
		err := coll.FindOne(ctx, filter).Decode(&doc)
		if err == nil {
			return &doc, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("find %s: %w", entity, err)
		}
	}
	return nil, domain.NotFound("get "+entity, entity, id.String())
}

func requireMatched(res *mongo.UpdateResult, op, entity, id string) error {
	if res == nil || res.MatchedCount == 0 {
		return domain.NotFound(op, entity, id)
	}
	return nil
}
