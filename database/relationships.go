package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/skovert/docquery/helper"
	"github.com/skovert/docquery/model"
	"github.com/skovert/docquery/sql"
)

// RelationshipsDBHandlerFunctions defines the interface for relationship database operations.
type RelationshipsDBHandlerFunctions interface {
	UpsertRelationship(ctx context.Context, sessionID string, relationship model.GraphRelationship) (*model.StoredRelationship, error)
	SelectRelationshipsBySession(ctx context.Context, sessionID string, limit int) ([]*model.StoredRelationship, error)
	DeleteRelationshipsBySession(ctx context.Context, sessionID string) error
}

// RelationshipsDBHandler handles relationship-related database operations
type RelationshipsDBHandler struct {
	db *helper.Database
}

// NewRelationshipsDBHandler creates a new relationships database handler.
// It initializes the database connection and loads relationship-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewRelationshipsDBHandler(db *helper.Database, force bool) (*RelationshipsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	relationshipsDbHandler := &RelationshipsDBHandler{
		db: db,
	}

	err := sql.LoadRelationshipsSql(relationshipsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load relationships sql", err)
	}

	err = relationshipsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized RelationshipsDBHandler")

	return relationshipsDbHandler, nil
}

// CreateTable creates the 'graph_relationships' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *RelationshipsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_graph_relationships();`)
	if err != nil {
		log.Panicf("error initializing graph_relationships table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table graph_relationships")

	return nil
}

// UpsertRelationship inserts a relationship or returns the existing one.
// Duplicate (session, from, to, kind) writes are idempotent.
func (h *RelationshipsDBHandler) UpsertRelationship(ctx context.Context, sessionID string, relationship model.GraphRelationship) (*model.StoredRelationship, error) {
	stored := &model.StoredRelationship{}
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM upsert_graph_relationship($1, $2, $3, $4)`,
		sessionID,
		relationship.From,
		relationship.To,
		relationship.Kind,
	)

	err := row.Scan(
		&stored.ID,
		&stored.SessionID,
		&stored.From,
		&stored.To,
		&stored.Kind,
		&stored.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return stored, nil
}

// SelectRelationshipsBySession retrieves all relationships of a session up to limit
func (h *RelationshipsDBHandler) SelectRelationshipsBySession(ctx context.Context, sessionID string, limit int) ([]*model.StoredRelationship, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_graph_relationships_by_session($1, $2)`,
		sessionID,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var relationships []*model.StoredRelationship
	for rows.Next() {
		stored := &model.StoredRelationship{}
		err := rows.Scan(
			&stored.ID,
			&stored.SessionID,
			&stored.From,
			&stored.To,
			&stored.Kind,
			&stored.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		relationships = append(relationships, stored)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return relationships, nil
}

// DeleteRelationshipsBySession deletes all relationships of a session
func (h *RelationshipsDBHandler) DeleteRelationshipsBySession(ctx context.Context, sessionID string) error {
	_, err := h.db.Instance.ExecContext(
		ctx,
		`SELECT delete_graph_relationships_by_session($1)`,
		sessionID,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
