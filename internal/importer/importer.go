// Package importer loads pre-existing crawler JSON dumps into MongoDB, one
// collection per platform. It pairs each platform's contents file with its
// comments file and joins them by content id.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mediacrawler/internal/logger"
)

// collectionMap names the target collection per dump directory. Dumps use
// long platform names, unlike the live crawl collections.
var collectionMap = map[string]string{
	"xhs":    "xhs_mongo_data",
	"douyin": "douyin_mongo_data",
	"bili":   "bili_mongo_data",
	"weibo":  "weibo_mongo_data",
}

// Files are the dump files found for one platform.
type Files struct {
	Contents string
	Comments string
}

// Combined is one imported document: a content object joined with its
// comments. Content is nil for comment groups without a matching content.
type Combined struct {
	Content      map[string]interface{}   `bson:"content" json:"content"`
	Comments     []map[string]interface{} `bson:"comments" json:"comments"`
	CommentCount int                      `bson:"comment_count" json:"comment_count"`
	ImportedAt   time.Time                `bson:"imported_at" json:"imported_at"`
}

// FindFiles walks dataDir/{platform}/json and picks out the contents and
// comments dumps. Unknown platform directories are skipped.
func FindFiles(dataDir string) (map[string]Files, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	found := make(map[string]Files)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		platform := entry.Name()
		if _, ok := collectionMap[platform]; !ok {
			continue
		}
		jsonDir := filepath.Join(dataDir, platform, "json")
		files, err := os.ReadDir(jsonDir)
		if err != nil {
			continue // platform without a json dir
		}

		var pf Files
		for _, f := range files {
			name := f.Name()
			if !strings.HasSuffix(name, ".json") {
				continue
			}
			switch {
			case strings.Contains(name, "comments"):
				pf.Comments = filepath.Join(jsonDir, name)
			case strings.Contains(name, "contents"):
				pf.Contents = filepath.Join(jsonDir, name)
			}
		}
		if pf.Contents != "" || pf.Comments != "" {
			found[platform] = pf
		}
	}
	return found, nil
}

// LoadJSON reads a dump file holding either an array of objects or a single
// object.
func LoadJSON(path string) ([]map[string]interface{}, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var list []map[string]interface{}
	if err := json.Unmarshal(b, &list); err == nil {
		return list, nil
	}
	var single map[string]interface{}
	if err := json.Unmarshal(b, &single); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return []map[string]interface{}{single}, nil
}

func contentID(m map[string]interface{}) string {
	return firstString(m, "note_id", "aweme_id", "id")
}

func commentContentID(m map[string]interface{}) string {
	return firstString(m, "note_id", "aweme_id", "oid")
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// Combine joins contents with their comments by content id. Comment groups
// with no matching content are kept with a nil content, so nothing from the
// dump is lost.
func Combine(contents, comments []map[string]interface{}, now time.Time) []Combined {
	commentsByID := make(map[string][]map[string]interface{})
	for _, c := range comments {
		if id := commentContentID(c); id != "" {
			commentsByID[id] = append(commentsByID[id], c)
		}
	}

	var combined []Combined
	seen := make(map[string]bool)
	for _, content := range contents {
		id := contentID(content)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		combined = append(combined, Combined{
			Content:      content,
			Comments:     commentsByID[id],
			CommentCount: len(commentsByID[id]),
			ImportedAt:   now,
		})
	}

	// orphan comment groups, in stable order
	var orphanIDs []string
	for id := range commentsByID {
		if !seen[id] {
			orphanIDs = append(orphanIDs, id)
		}
	}
	sort.Strings(orphanIDs)
	for _, id := range orphanIDs {
		combined = append(combined, Combined{
			Content:      nil,
			Comments:     commentsByID[id],
			CommentCount: len(commentsByID[id]),
			ImportedAt:   now,
		})
	}
	return combined
}

type Importer struct {
	db  *mongo.Database
	log *logger.Logger
}

func New(db *mongo.Database) *Importer {
	return &Importer{db: db, log: logger.New("Importer")}
}

// Run imports every discovered platform dump. With drop set, existing
// collection contents are deleted first.
func (i *Importer) Run(ctx context.Context, dataDir string, drop bool) error {
	platformFiles, err := FindFiles(dataDir)
	if err != nil {
		return err
	}
	if len(platformFiles) == 0 {
		i.log.LogWarn("no JSON dumps found")
		return nil
	}

	for platform, files := range platformFiles {
		i.log.LogInfof("processing platform %s", platform)

		var contents, comments []map[string]interface{}
		if files.Contents != "" {
			if contents, err = LoadJSON(files.Contents); err != nil {
				i.log.LogErrorf("load %s: %v", files.Contents, err)
			}
		}
		if files.Comments != "" {
			if comments, err = LoadJSON(files.Comments); err != nil {
				i.log.LogErrorf("load %s: %v", files.Comments, err)
			}
		}
		if len(contents) == 0 && len(comments) == 0 {
			i.log.LogWarnf("platform %s has no usable data, skipping", platform)
			continue
		}

		combined := Combine(contents, comments, time.Now())
		if len(combined) == 0 {
			i.log.LogWarnf("platform %s has no records with derivable ids, skipping", platform)
			continue
		}
		coll := i.db.Collection(collectionMap[platform])

		if drop {
			res, err := coll.DeleteMany(ctx, bson.M{})
			if err != nil {
				return fmt.Errorf("clear %s: %w", collectionMap[platform], err)
			}
			i.log.LogInfof("deleted %d existing documents from %s", res.DeletedCount, collectionMap[platform])
		}

		docs := make([]interface{}, len(combined))
		for idx, d := range combined {
			docs[idx] = d
		}
		res, err := coll.InsertMany(ctx, docs)
		if err != nil {
			return fmt.Errorf("insert into %s: %w", collectionMap[platform], err)
		}
		i.log.LogInfof("inserted %d documents into %s", len(res.InsertedIDs), collectionMap[platform])

		if err := i.ensureIndexes(ctx, coll); err != nil {
			i.log.LogErrorf("create indexes for %s: %v", collectionMap[platform], err)
		}
	}
	return nil
}

func (i *Importer) ensureIndexes(ctx context.Context, coll *mongo.Collection) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "content.note_id", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "content.aweme_id", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "imported_at", Value: 1}}},
	}
	_, err := coll.Indexes().CreateMany(ctx, models)
	return err
}

// Stats logs dump sizes against what is already stored per platform.
func (i *Importer) Stats(ctx context.Context, dataDir string) error {
	platformFiles, err := FindFiles(dataDir)
	if err != nil {
		return err
	}
	for platform, files := range platformFiles {
		contentsCount, commentsCount := 0, 0
		if files.Contents != "" {
			if contents, err := LoadJSON(files.Contents); err == nil {
				contentsCount = len(contents)
			}
		}
		if files.Comments != "" {
			if comments, err := LoadJSON(files.Comments); err == nil {
				commentsCount = len(comments)
			}
		}
		stored, err := i.db.Collection(collectionMap[platform]).CountDocuments(ctx, bson.M{})
		if err != nil {
			return fmt.Errorf("count %s: %w", collectionMap[platform], err)
		}
		i.log.LogInfof("%s: %d contents, %d comments in dump, %d stored in %s",
			platform, contentsCount, commentsCount, stored, collectionMap[platform])
	}
	return nil
}
