package graph

import (
	"context"
	"sync"

	"github.com/skovert/docquery/model"
)

// CacheStore holds the per-session knowledge-graph caches. The cache is an
// advisory, prune-able side artifact, not a source of truth; external
// lifecycle owns purge-on-session-delete.
type CacheStore interface {
	// Get returns the cache for a session, or nil when none exists yet
	Get(ctx context.Context, sessionID string) (*model.GraphCache, error)
	// Merge folds new entities and relationships into the session's cache,
	// creating it on first use. Entities are deduplicated by exact name
	// (first-writer-wins on category); relationships are appended without
	// dedup and truncated to the most recent model.RelationshipCap entries.
	Merge(ctx context.Context, sessionID string, entities []model.GraphEntity, relationships []model.GraphRelationship) (*model.GraphCache, error)
}

// MemoryStore is the default in-memory CacheStore. Merges for all sessions
// are serialized through one mutex, which resolves the read-modify-write race
// of concurrent graph-strategy executions for the same session.
type MemoryStore struct {
	mu     sync.Mutex
	caches map[string]*model.GraphCache
}

// NewMemoryStore creates an empty in-memory cache store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		caches: make(map[string]*model.GraphCache),
	}
}

// Get returns a copy of the session's cache, or nil when none exists
func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*model.GraphCache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache, ok := s.caches[sessionID]
	if !ok {
		return nil, nil
	}

	return copyCache(cache), nil
}

// Merge applies the merge policy and returns a copy of the updated cache
func (s *MemoryStore) Merge(ctx context.Context, sessionID string, entities []model.GraphEntity, relationships []model.GraphRelationship) (*model.GraphCache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache, ok := s.caches[sessionID]
	if !ok {
		cache = &model.GraphCache{SessionID: sessionID}
		s.caches[sessionID] = cache
	}

	names := make(map[string]bool, len(cache.Entities))
	for _, e := range cache.Entities {
		names[e.Name] = true
	}
	for _, e := range entities {
		if e.Name == "" || names[e.Name] {
			continue
		}
		names[e.Name] = true
		cache.Entities = append(cache.Entities, e)
	}

	cache.Relationships = append(cache.Relationships, relationships...)
	if len(cache.Relationships) > model.RelationshipCap {
		// Last-N retention: drop the oldest entries
		cache.Relationships = cache.Relationships[len(cache.Relationships)-model.RelationshipCap:]
	}

	return copyCache(cache), nil
}

func copyCache(cache *model.GraphCache) *model.GraphCache {
	out := &model.GraphCache{
		SessionID:     cache.SessionID,
		Entities:      make([]model.GraphEntity, len(cache.Entities)),
		Relationships: make([]model.GraphRelationship, len(cache.Relationships)),
	}
	copy(out.Entities, cache.Entities)
	copy(out.Relationships, cache.Relationships)
	return out
}
