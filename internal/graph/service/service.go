// Package service enforces the graph rules: user scoping, per-user name
// uniqueness, no self-connections, and ownership checks on every mutation.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"ensgraph/internal/graph/models"
	"ensgraph/internal/graph/store"
	dErrors "ensgraph/pkg/domain-errors"
	"ensgraph/pkg/platform/sentinel"
)

// Service mediates between transport and the graph store.
type Service struct {
	store  store.Store
	logger *slog.Logger
}

func New(st store.Store, logger *slog.Logger) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	return &Service{store: st, logger: logger}, nil
}

// ParseUserID validates the opaque user identifier clients hold.
func ParseUserID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "userId parameter is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid userId UUID format")
	}
	return id, nil
}

// GetOrCreateUser returns the user with the given ID, creating it on first
// sight. Clients mint their own UUIDs and call this to register them.
func (s *Service) GetOrCreateUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, s.internal(ctx, "get user", err)
	}

	created, err := s.store.CreateUser(ctx, id)
	if err != nil {
		// Lost a race with a concurrent registration of the same ID.
		if errors.Is(err, sentinel.ErrConflict) {
			return s.store.GetUser(ctx, id)
		}
		return nil, s.internal(ctx, "create user", err)
	}
	s.logger.InfoContext(ctx, "user registered", "user_id", created.ID)
	return created, nil
}

// CreateUser mints a fresh user with a server-generated ID.
func (s *Service) CreateUser(ctx context.Context) (*models.User, error) {
	user, err := s.store.CreateUser(ctx, uuid.Nil)
	if err != nil {
		return nil, s.internal(ctx, "create user", err)
	}
	s.logger.InfoContext(ctx, "user created", "user_id", user.ID)
	return user, nil
}

// ListNodes returns the user's nodes in creation order.
func (s *Service) ListNodes(ctx context.Context, userID uuid.UUID) ([]models.Node, error) {
	nodes, err := s.store.ListNodes(ctx, userID)
	if err != nil {
		return nil, s.internal(ctx, "list nodes", err)
	}
	return nodes, nil
}

// UpsertNode creates a node, or moves the existing one when the user already
// placed that name. The bool reports whether a new node was created.
func (s *Service) UpsertNode(ctx context.Context, userID uuid.UUID, ensName string, x, y float64) (*models.Node, bool, error) {
	if ensName == "" {
		return nil, false, dErrors.New(dErrors.CodeBadRequest, "userId and ensName are required")
	}

	if _, err := s.store.GetUser(ctx, userID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, false, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, false, s.internal(ctx, "get user", err)
	}

	existing, err := s.store.FindNodeByName(ctx, userID, ensName)
	if err == nil {
		moved, err := s.store.UpdateNodePosition(ctx, existing.ID, x, y)
		if err != nil {
			return nil, false, s.internal(ctx, "update node position", err)
		}
		return moved, false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, s.internal(ctx, "find node", err)
	}

	node, err := s.store.CreateNode(ctx, &models.Node{
		UserID:    userID,
		EnsName:   ensName,
		PositionX: x,
		PositionY: y,
	})
	if err != nil {
		// A concurrent insert of the same name can still trip the unique
		// constraint after the lookup missed.
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, false, dErrors.New(dErrors.CodeConflict, "node already exists for this user")
		}
		return nil, false, s.internal(ctx, "create node", err)
	}
	return node, true, nil
}

// DeleteNode removes a node the user owns, along with its connections.
func (s *Service) DeleteNode(ctx context.Context, nodeID, userID uuid.UUID) error {
	if _, err := s.store.GetNode(ctx, nodeID, userID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "node not found or access denied")
		}
		return s.internal(ctx, "get node", err)
	}
	if err := s.store.DeleteNode(ctx, nodeID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return s.internal(ctx, "delete node", err)
	}
	return nil
}

// ListConnections returns the user's connections in creation order.
func (s *Service) ListConnections(ctx context.Context, userID uuid.UUID) ([]models.Connection, error) {
	conns, err := s.store.ListConnections(ctx, userID)
	if err != nil {
		return nil, s.internal(ctx, "list connections", err)
	}
	return conns, nil
}

// CreateConnection adds a directed edge between two nodes the user owns.
func (s *Service) CreateConnection(ctx context.Context, userID, sourceNodeID, targetNodeID uuid.UUID) (*models.Connection, error) {
	if sourceNodeID == targetNodeID {
		return nil, dErrors.New(dErrors.CodeBadRequest, "cannot connect a node to itself")
	}

	for _, nodeID := range []uuid.UUID{sourceNodeID, targetNodeID} {
		if _, err := s.store.GetNode(ctx, nodeID, userID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "one or both nodes not found or access denied")
			}
			return nil, s.internal(ctx, "get node", err)
		}
	}

	conn, err := s.store.CreateConnection(ctx, &models.Connection{
		UserID:       userID,
		SourceNodeID: sourceNodeID,
		TargetNodeID: targetNodeID,
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "connection already exists")
		}
		return nil, s.internal(ctx, "create connection", err)
	}
	return conn, nil
}

// DeleteConnection removes an edge the user owns.
func (s *Service) DeleteConnection(ctx context.Context, connectionID, userID uuid.UUID) error {
	if _, err := s.store.GetConnection(ctx, connectionID, userID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "connection not found or access denied")
		}
		return s.internal(ctx, "get connection", err)
	}
	if err := s.store.DeleteConnection(ctx, connectionID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return s.internal(ctx, "delete connection", err)
	}
	return nil
}

// GetGraph returns the user's full persisted state in one response.
func (s *Service) GetGraph(ctx context.Context, userID uuid.UUID) (*models.Graph, error) {
	nodes, err := s.ListNodes(ctx, userID)
	if err != nil {
		return nil, err
	}
	conns, err := s.ListConnections(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.Graph{Nodes: nodes, Connections: conns}, nil
}

func (s *Service) internal(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, "graph store operation failed", "op", op, "error", err)
	return dErrors.New(dErrors.CodeInternal, "internal server error")
}
