// Package store persists the domain graph. Implementations return sentinel
// errors; the service layer translates them into coded errors.
package store

import (
	"context"

	"github.com/google/uuid"

	"ensgraph/internal/graph/models"
)

// Store is the graph persistence contract. Lookups scoped by user return
// sentinel.ErrNotFound both for missing rows and rows owned by someone else;
// the two cases are indistinguishable on purpose.
type Store interface {
	// CreateUser inserts a user. A uuid.Nil ID asks the store to generate one.
	CreateUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)

	ListNodes(ctx context.Context, userID uuid.UUID) ([]models.Node, error)
	GetNode(ctx context.Context, nodeID, userID uuid.UUID) (*models.Node, error)
	FindNodeByName(ctx context.Context, userID uuid.UUID, ensName string) (*models.Node, error)
	// CreateNode returns sentinel.ErrConflict when the user already has a
	// node with the same name.
	CreateNode(ctx context.Context, node *models.Node) (*models.Node, error)
	UpdateNodePosition(ctx context.Context, nodeID uuid.UUID, x, y float64) (*models.Node, error)
	// DeleteNode removes the node and every connection touching it.
	DeleteNode(ctx context.Context, nodeID uuid.UUID) error

	ListConnections(ctx context.Context, userID uuid.UUID) ([]models.Connection, error)
	GetConnection(ctx context.Context, connectionID, userID uuid.UUID) (*models.Connection, error)
	FindConnection(ctx context.Context, userID, sourceNodeID, targetNodeID uuid.UUID) (*models.Connection, error)
	// CreateConnection returns sentinel.ErrConflict when the same edge
	// already exists for the user.
	CreateConnection(ctx context.Context, conn *models.Connection) (*models.Connection, error)
	DeleteConnection(ctx context.Context, connectionID uuid.UUID) error
}
