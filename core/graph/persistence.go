package graph

import (
	"context"

	"github.com/skovert/docquery/model"
)

// Persistence is the graph-database contract consumed by the entity
// persistence path. Writes must be idempotent on the entity name and on the
// (from, to, kind) relationship key.
type Persistence interface {
	UpsertEntity(ctx context.Context, sessionID string, entity model.GraphEntity) error
	UpsertRelationship(ctx context.Context, sessionID string, relationship model.GraphRelationship) error
}

// NoopPersistence is the typed disconnected state: components hold it instead
// of a nullable client when no graph database is configured.
type NoopPersistence struct{}

func (NoopPersistence) UpsertEntity(ctx context.Context, sessionID string, entity model.GraphEntity) error {
	return nil
}

func (NoopPersistence) UpsertRelationship(ctx context.Context, sessionID string, relationship model.GraphRelationship) error {
	return nil
}
