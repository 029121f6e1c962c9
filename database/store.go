package database

import (
	"context"

	"github.com/skovert/docquery/core/pipeline"
	"github.com/skovert/docquery/helper"
	"github.com/skovert/docquery/model"
)

// GraphStore bundles the entity and relationship handlers behind the
// persistence contract the graph strategy consumes. The embedder is optional;
// when set, entity names are embedded on insert so the stored graph supports
// vector lookups later.
type GraphStore struct {
	Entities      *EntitiesDBHandler
	Relationships *RelationshipsDBHandler

	embedder pipeline.EmbedFunc
}

// NewGraphStore creates both handlers on the given database connection.
// Pass a nil embedder to store entities without vectors.
func NewGraphStore(db *helper.Database, embedder pipeline.EmbedFunc, force bool) (*GraphStore, error) {
	entities, err := NewEntitiesDBHandler(db, force)
	if err != nil {
		return nil, helper.NewError("new entities handler", err)
	}

	relationships, err := NewRelationshipsDBHandler(db, force)
	if err != nil {
		return nil, helper.NewError("new relationships handler", err)
	}

	return &GraphStore{
		Entities:      entities,
		Relationships: relationships,
		embedder:      embedder,
	}, nil
}

// UpsertEntity embeds the entity name when an embedder is configured and
// writes it idempotently
func (s *GraphStore) UpsertEntity(ctx context.Context, sessionID string, entity model.GraphEntity) error {
	var embedding []float32
	if s.embedder != nil {
		var err error
		embedding, err = s.embedder(ctx, entity.Name)
		if err != nil {
			// Stored without a vector rather than failing the upsert
			embedding = nil
		}
	}

	_, err := s.Entities.UpsertEntity(ctx, sessionID, entity, nil, embedding)
	return err
}

// UpsertRelationship writes a relationship idempotently
func (s *GraphStore) UpsertRelationship(ctx context.Context, sessionID string, relationship model.GraphRelationship) error {
	_, err := s.Relationships.UpsertRelationship(ctx, sessionID, relationship)
	return err
}

// Snapshot reads the persisted graph of a session as a cache value
func (s *GraphStore) Snapshot(ctx context.Context, sessionID string, limit int) (*model.GraphCache, error) {
	entities, err := s.Entities.SelectEntitiesBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, helper.NewError("select entities", err)
	}

	relationships, err := s.Relationships.SelectRelationshipsBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, helper.NewError("select relationships", err)
	}

	cache := &model.GraphCache{SessionID: sessionID}
	for _, e := range entities {
		cache.Entities = append(cache.Entities, model.GraphEntity{Name: e.Name, Category: e.Category})
	}
	for _, r := range relationships {
		cache.Relationships = append(cache.Relationships, model.GraphRelationship{From: r.From, To: r.To, Kind: r.Kind})
	}

	return cache, nil
}

// ClearSession removes all persisted graph data of a session
func (s *GraphStore) ClearSession(ctx context.Context, sessionID string) error {
	if err := s.Entities.DeleteEntitiesBySession(ctx, sessionID); err != nil {
		return helper.NewError("delete entities", err)
	}
	if err := s.Relationships.DeleteRelationshipsBySession(ctx, sessionID); err != nil {
		return helper.NewError("delete relationships", err)
	}
	return nil
}
