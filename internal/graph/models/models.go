// Package models defines the personal domain graph entities: one user owns a
// set of named nodes and the directed connections between them.
package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a graph owner. Users carry no profile of their own; identity is the
// UUID clients hold on to.
type User struct {
	ID        uuid.UUID `json:"userId"`
	CreatedAt time.Time `json:"created_at"`
}

// Node is one domain placed on a user's canvas.
type Node struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"-"`
	EnsName   string    `json:"ens_name"`
	PositionX float64   `json:"position_x"`
	PositionY float64   `json:"position_y"`
	CreatedAt time.Time `json:"created_at"`
}

// Connection is a directed edge between two nodes of the same user.
type Connection struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"-"`
	SourceNodeID uuid.UUID `json:"source_node_id"`
	TargetNodeID uuid.UUID `json:"target_node_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Graph is the complete persisted state for one user.
type Graph struct {
	Nodes       []Node       `json:"nodes"`
	Connections []Connection `json:"connections"`
}
