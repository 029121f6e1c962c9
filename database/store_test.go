package database

import (
	"context"
	"testing"

	"github.com/skovert/docquery/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntitiesDBHandler(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	handler, err := NewEntitiesDBHandler(db, true)
	require.NoError(t, err, "failed to create entities handler")

	ctx := context.Background()
	sessionID := "session-entities"

	t.Run("Upsert new entity", func(t *testing.T) {
		stored, err := handler.UpsertEntity(ctx, sessionID, model.GraphEntity{Name: "P1", Category: "products"}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "P1", stored.Name)
		assert.Equal(t, "products", stored.Category)
		assert.NotZero(t, stored.ID)
		assert.Equal(t, model.Metadata{}, stored.Metadata, "nil metadata should be stored as an empty object")
	})

	t.Run("Upsert existing entity keeps first write", func(t *testing.T) {
		first, err := handler.UpsertEntity(ctx, sessionID, model.GraphEntity{Name: "P2", Category: "products"}, nil, nil)
		require.NoError(t, err)

		second, err := handler.UpsertEntity(ctx, sessionID, model.GraphEntity{Name: "P2", Category: "changed"}, nil, nil)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID, "duplicate upsert should return the existing row")
		assert.Equal(t, "products", second.Category, "first write should win")
	})

	t.Run("Upsert entity with embedding", func(t *testing.T) {
		embedding := make([]float32, 384)
		embedding[0] = 1.0
		stored, err := handler.UpsertEntity(ctx, sessionID, model.GraphEntity{Name: "P3", Category: "products"}, nil, embedding)
		require.NoError(t, err)
		assert.Equal(t, "P3", stored.Name)
	})

	t.Run("Metadata round-trips through jsonb", func(t *testing.T) {
		metadata := model.Metadata{"source": "inventory.csv", "rows": float64(3)}
		_, err := handler.UpsertEntity(ctx, sessionID, model.GraphEntity{Name: "P4", Category: "products"}, metadata, nil)
		require.NoError(t, err)

		stored, err := handler.SelectEntityByName(ctx, sessionID, "P4")
		require.NoError(t, err)
		assert.Equal(t, metadata, stored.Metadata)
	})

	t.Run("Select entity by name", func(t *testing.T) {
		stored, err := handler.SelectEntityByName(ctx, sessionID, "P1")
		require.NoError(t, err)
		assert.Equal(t, "P1", stored.Name)
	})

	t.Run("Select entities by session", func(t *testing.T) {
		entities, err := handler.SelectEntitiesBySession(ctx, sessionID, 100)
		require.NoError(t, err)
		assert.Len(t, entities, 4)
	})

	t.Run("Entities are scoped per session", func(t *testing.T) {
		entities, err := handler.SelectEntitiesBySession(ctx, "other-session", 100)
		require.NoError(t, err)
		assert.Empty(t, entities)
	})

	t.Run("Delete entities by session", func(t *testing.T) {
		err := handler.DeleteEntitiesBySession(ctx, sessionID)
		require.NoError(t, err)

		entities, err := handler.SelectEntitiesBySession(ctx, sessionID, 100)
		require.NoError(t, err)
		assert.Empty(t, entities)
	})
}

func TestRelationshipsDBHandler(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	handler, err := NewRelationshipsDBHandler(db, true)
	require.NoError(t, err, "failed to create relationships handler")

	ctx := context.Background()
	sessionID := "session-relationships"

	t.Run("Upsert new relationship", func(t *testing.T) {
		stored, err := handler.UpsertRelationship(ctx, sessionID, model.GraphRelationship{From: "P1", To: "Books", Kind: "category"})
		require.NoError(t, err)
		assert.Equal(t, "P1", stored.From)
		assert.Equal(t, "Books", stored.To)
		assert.Equal(t, "category", stored.Kind)
	})

	t.Run("Upsert duplicate relationship is idempotent", func(t *testing.T) {
		first, err := handler.UpsertRelationship(ctx, sessionID, model.GraphRelationship{From: "P1", To: "9.99", Kind: "price"})
		require.NoError(t, err)

		second, err := handler.UpsertRelationship(ctx, sessionID, model.GraphRelationship{From: "P1", To: "9.99", Kind: "price"})
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID, "duplicate upsert should return the existing row")

		relationships, err := handler.SelectRelationshipsBySession(ctx, sessionID, 100)
		require.NoError(t, err)
		assert.Len(t, relationships, 2)
	})

	t.Run("Delete relationships by session", func(t *testing.T) {
		err := handler.DeleteRelationshipsBySession(ctx, sessionID)
		require.NoError(t, err)

		relationships, err := handler.SelectRelationshipsBySession(ctx, sessionID, 100)
		require.NoError(t, err)
		assert.Empty(t, relationships)
	})
}

func TestGraphStore(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	store, err := NewGraphStore(db, nil, true)
	require.NoError(t, err, "failed to create graph store")

	ctx := context.Background()
	sessionID := "session-store"

	t.Run("Upserts feed the snapshot", func(t *testing.T) {
		err := store.UpsertEntity(ctx, sessionID, model.GraphEntity{Name: "A", Category: "node"})
		require.NoError(t, err)
		err = store.UpsertEntity(ctx, sessionID, model.GraphEntity{Name: "B", Category: "node"})
		require.NoError(t, err)
		err = store.UpsertRelationship(ctx, sessionID, model.GraphRelationship{From: "A", To: "B", Kind: "links"})
		require.NoError(t, err)

		snapshot, err := store.Snapshot(ctx, sessionID, 100)
		require.NoError(t, err)
		assert.Len(t, snapshot.Entities, 2)
		assert.Len(t, snapshot.Relationships, 1)
		assert.True(t, snapshot.HasEntity("A"))
		assert.True(t, snapshot.HasEntity("B"))
	})

	t.Run("Upsert with failing embedder stores without vector", func(t *testing.T) {
		failing, err := NewGraphStore(db, func(ctx context.Context, text string) ([]float32, error) {
			return nil, assert.AnError
		}, false)
		require.NoError(t, err)

		err = failing.UpsertEntity(ctx, sessionID, model.GraphEntity{Name: "C", Category: "node"})
		assert.NoError(t, err, "embedder failure should not fail the upsert")
	})

	t.Run("Clear session removes everything", func(t *testing.T) {
		err := store.ClearSession(ctx, sessionID)
		require.NoError(t, err)

		snapshot, err := store.Snapshot(ctx, sessionID, 100)
		require.NoError(t, err)
		assert.Empty(t, snapshot.Entities)
		assert.Empty(t, snapshot.Relationships)
	})
}
