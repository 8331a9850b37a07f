// Package memory provides an in-process Store with the same upsert semantics
// as the MongoDB implementation. It backs tests and deployments without a
// MongoDB instance.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"mediacrawler/internal/core/store"
)

type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]store.Document
	indexed     map[string]bool
	lastWrite   time.Time
}

func New() *Store {
	return &Store{
		collections: make(map[string]map[string]store.Document),
		indexed:     make(map[string]bool),
	}
}

func (s *Store) coll(platform string) map[string]store.Document {
	name := store.CollectionName(platform)
	if s.collections[name] == nil {
		s.collections[name] = make(map[string]store.Document)
	}
	return s.collections[name]
}

func (s *Store) Save(ctx context.Context, platform string, post store.Post, comments []store.Comment, meta store.Metadata) bool {
	postID := store.PostID(post)
	if postID == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.coll(platform)
	// updated_at strictly increases across writes, so re-saving the same id
	// always moves it forward and ordering by updated_at stays total
	now := time.Now()
	if !now.After(s.lastWrite) {
		now = s.lastWrite.Add(time.Nanosecond)
	}
	s.lastWrite = now
	coll[postID] = store.NewDocument(postID, post, comments, meta, now)
	return true
}

func (s *Store) SaveBatch(ctx context.Context, platform string, posts []store.Post, comments map[string][]store.Comment, meta store.Metadata) int {
	saved := 0
	for _, post := range posts {
		postID := store.PostID(post)
		if postID == "" {
			continue
		}
		if s.Save(ctx, platform, post, comments[postID], meta) {
			saved++
		}
	}
	return saved
}

func (s *Store) Posts(ctx context.Context, platform string, limit, skip int64) ([]store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll := s.collections[store.CollectionName(platform)]
	docs := make([]store.Document, 0, len(coll))
	for _, doc := range coll {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UpdatedAt.After(docs[j].UpdatedAt)
	})

	if skip >= int64(len(docs)) {
		return nil, nil
	}
	docs = docs[skip:]
	if limit > 0 && int64(len(docs)) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func (s *Store) Post(ctx context.Context, platform, postID string) (*store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll := s.collections[store.CollectionName(platform)]
	if doc, ok := coll[postID]; ok {
		return &doc, nil
	}
	return nil, nil
}

func (s *Store) EnsureIndexes(ctx context.Context, platform string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// uniqueness is structural here (map keyed by post id)
	s.indexed[store.CollectionName(platform)] = true
	return nil
}

// Indexed reports whether EnsureIndexes ran for platform.
func (s *Store) Indexed(platform string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexed[store.CollectionName(platform)]
}

func (s *Store) Stats(ctx context.Context, platform string) (store.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := store.Stats{Platform: platform}
	for _, doc := range s.collections[store.CollectionName(platform)] {
		stats.TotalPosts++
		stats.TotalComments += int64(doc.CommentCount)
	}
	return stats, nil
}
