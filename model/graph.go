package model

import "time"

// RelationshipCap bounds the relationship list of a GraphCache. When a merge
// would exceed it, the oldest entries are dropped (last-N retention).
const RelationshipCap = 500

// GraphEntity is a node in the session knowledge graph.
// Name is the unique key within a session.
type GraphEntity struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// GraphRelationship is a directed, labeled edge between two entities,
// referenced by name.
type GraphRelationship struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"`
}

// GraphCache is the per-session, advisory store of extracted entities and
// relationships. Entity names are unique; the relationship list is append-only
// and capped at RelationshipCap.
type GraphCache struct {
	SessionID     string              `json:"session_id"`
	Entities      []GraphEntity       `json:"entities"`
	Relationships []GraphRelationship `json:"relationships"`
}

// HasEntity reports whether an entity with the given name is already cached
func (c *GraphCache) HasEntity(name string) bool {
	for _, e := range c.Entities {
		if e.Name == name {
			return true
		}
	}
	return false
}

// StoredEntity is the persisted form of a graph entity
type StoredEntity struct {
	ID        int       `json:"id"`
	SessionID string    `json:"session_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Metadata  Metadata  `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}

// StoredRelationship is the persisted form of a graph relationship
type StoredRelationship struct {
	ID        int       `json:"id"`
	SessionID string    `json:"session_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}
