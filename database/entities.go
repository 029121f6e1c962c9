package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/skovert/docquery/helper"
	"github.com/skovert/docquery/model"
	"github.com/skovert/docquery/sql"
)

// EntitiesDBHandlerFunctions defines the interface for entity database operations.
type EntitiesDBHandlerFunctions interface {
	UpsertEntity(ctx context.Context, sessionID string, entity model.GraphEntity, metadata model.Metadata, embedding []float32) (*model.StoredEntity, error)
	SelectEntityByName(ctx context.Context, sessionID string, name string) (*model.StoredEntity, error)
	SelectEntitiesBySession(ctx context.Context, sessionID string, limit int) ([]*model.StoredEntity, error)
	DeleteEntitiesBySession(ctx context.Context, sessionID string) error
}

// EntitiesDBHandler handles entity-related database operations
type EntitiesDBHandler struct {
	db *helper.Database
}

// NewEntitiesDBHandler creates a new entities database handler.
// It initializes the database connection and loads entity-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEntitiesDBHandler(db *helper.Database, force bool) (*EntitiesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	entitiesDbHandler := &EntitiesDBHandler{
		db: db,
	}

	err := sql.LoadEntitiesSql(entitiesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load entities sql", err)
	}

	err = entitiesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EntitiesDBHandler")

	return entitiesDbHandler, nil
}

// CreateTable creates the 'graph_entities' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *EntitiesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_graph_entities();`)
	if err != nil {
		log.Panicf("error initializing graph_entities table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table graph_entities")

	return nil
}

// UpsertEntity inserts an entity or returns the existing one.
// The first write for a (session, name) pair wins. A nil metadata is stored
// as an empty object, a nil embedding as NULL.
func (h *EntitiesDBHandler) UpsertEntity(ctx context.Context, sessionID string, entity model.GraphEntity, metadata model.Metadata, embedding []float32) (*model.StoredEntity, error) {
	var vec interface{}
	if len(embedding) > 0 {
		vec = pgvector.NewVector(embedding)
	}
	if metadata == nil {
		metadata = model.Metadata{}
	}

	stored := &model.StoredEntity{}
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM upsert_graph_entity($1, $2, $3, $4, $5)`,
		sessionID,
		entity.Name,
		entity.Category,
		metadata,
		vec,
	)

	err := row.Scan(
		&stored.ID,
		&stored.SessionID,
		&stored.Name,
		&stored.Category,
		&stored.Metadata,
		&stored.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return stored, nil
}

// SelectEntityByName retrieves an entity by session and name
func (h *EntitiesDBHandler) SelectEntityByName(ctx context.Context, sessionID string, name string) (*model.StoredEntity, error) {
	stored := &model.StoredEntity{}
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_graph_entity_by_name($1, $2)`,
		sessionID,
		name,
	)

	err := row.Scan(
		&stored.ID,
		&stored.SessionID,
		&stored.Name,
		&stored.Category,
		&stored.Metadata,
		&stored.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return stored, nil
}

// SelectEntitiesBySession retrieves all entities of a session up to limit
func (h *EntitiesDBHandler) SelectEntitiesBySession(ctx context.Context, sessionID string, limit int) ([]*model.StoredEntity, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_graph_entities_by_session($1, $2)`,
		sessionID,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var entities []*model.StoredEntity
	for rows.Next() {
		stored := &model.StoredEntity{}
		err := rows.Scan(
			&stored.ID,
			&stored.SessionID,
			&stored.Name,
			&stored.Category,
			&stored.Metadata,
			&stored.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		entities = append(entities, stored)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entities, nil
}

// DeleteEntitiesBySession deletes all entities of a session
func (h *EntitiesDBHandler) DeleteEntitiesBySession(ctx context.Context, sessionID string) error {
	_, err := h.db.Instance.ExecContext(
		ctx,
		`SELECT delete_graph_entities_by_session($1)`,
		sessionID,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
