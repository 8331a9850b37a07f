package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mediacrawler/internal/logger"
	"mediacrawler/internal/platform/mongodb"
)

// MongoStore persists documents in MongoDB, one collection per platform,
// lazily created on first write.
type MongoStore struct {
	db  *mongo.Database
	log *logger.Logger
}

func NewMongoStore(svc *mongodb.Service) *MongoStore {
	return &MongoStore{db: svc.Database(), log: logger.New("MongoStore")}
}

func (s *MongoStore) collection(platform string) *mongo.Collection {
	return s.db.Collection(CollectionName(platform))
}

func (s *MongoStore) Save(ctx context.Context, platform string, post Post, comments []Comment, meta Metadata) bool {
	postID := PostID(post)
	if postID == "" {
		s.log.LogWarnf("no post id found in post data for %s", platform)
		return false
	}

	doc := NewDocument(postID, post, comments, meta, time.Now())
	_, err := s.collection(platform).UpdateOne(
		ctx,
		bson.M{"post_id": postID},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		s.log.LogErrorf("save failed for %s/%s: %v", platform, postID, err)
		return false
	}
	return true
}

func (s *MongoStore) SaveBatch(ctx context.Context, platform string, posts []Post, comments map[string][]Comment, meta Metadata) int {
	saved := 0
	for _, post := range posts {
		postID := PostID(post)
		if postID == "" {
			continue
		}
		if s.Save(ctx, platform, post, comments[postID], meta) {
			saved++
		}
	}
	s.log.LogInfof("batch save for %s: %d/%d posts", platform, saved, len(posts))
	return saved
}

func (s *MongoStore) Posts(ctx context.Context, platform string, limit, skip int64) ([]Document, error) {
	opts := options.Find().
		SetSkip(skip).
		SetLimit(limit).
		SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := s.collection(platform).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *MongoStore) Post(ctx context.Context, platform, postID string) (*Document, error) {
	var doc Document
	err := s.collection(platform).FindOne(ctx, bson.M{"post_id": postID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *MongoStore) EnsureIndexes(ctx context.Context, platform string) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "post_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "updated_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "crawl_metadata.task_id", Value: 1}},
		},
	}
	if _, err := s.collection(platform).Indexes().CreateMany(ctx, models); err != nil {
		s.log.LogErrorf("create indexes failed for %s: %v", platform, err)
		return err
	}
	return nil
}

func (s *MongoStore) Stats(ctx context.Context, platform string) (Stats, error) {
	stats := Stats{Platform: platform}

	total, err := s.collection(platform).CountDocuments(ctx, bson.M{})
	if err != nil {
		return stats, err
	}
	stats.TotalPosts = total

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$comment_count"},
		}}},
	}
	cursor, err := s.collection(platform).Aggregate(ctx, pipeline)
	if err != nil {
		return stats, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return stats, err
	}
	if len(results) > 0 {
		stats.TotalComments = results[0].Total
	}
	return stats, nil
}
