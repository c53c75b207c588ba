package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"ensgraph/internal/graph/models"
	"ensgraph/pkg/platform/sentinel"
)

// InMemory is a map-backed Store for tests and local development. It mirrors
// the relational implementation's semantics, including cascade deletion.
type InMemory struct {
	mu          sync.RWMutex
	users       map[uuid.UUID]models.User
	nodes       map[uuid.UUID]models.Node
	connections map[uuid.UUID]models.Connection
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:       make(map[uuid.UUID]models.User),
		nodes:       make(map[uuid.UUID]models.Node),
		connections: make(map[uuid.UUID]models.Connection),
	}
}

func (m *InMemory) CreateUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == uuid.Nil {
		id = uuid.New()
	}
	if _, ok := m.users[id]; ok {
		return nil, sentinel.ErrConflict
	}
	user := models.User{ID: id, CreatedAt: time.Now()}
	m.users[id] = user
	return &user, nil
}

func (m *InMemory) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &user, nil
}

func (m *InMemory) ListNodes(_ context.Context, userID uuid.UUID) ([]models.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	nodes := []models.Node{}
	for _, n := range m.nodes {
		if n.UserID == userID {
			nodes = append(nodes, n)
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].CreatedAt.Before(nodes[j].CreatedAt) })
	return nodes, nil
}

func (m *InMemory) GetNode(_ context.Context, nodeID, userID uuid.UUID) (*models.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, ok := m.nodes[nodeID]
	if !ok || node.UserID != userID {
		return nil, sentinel.ErrNotFound
	}
	return &node, nil
}

func (m *InMemory) FindNodeByName(_ context.Context, userID uuid.UUID, ensName string) (*models.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, n := range m.nodes {
		if n.UserID == userID && n.EnsName == ensName {
			node := n
			return &node, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (m *InMemory) CreateNode(_ context.Context, node *models.Node) (*models.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range m.nodes {
		if n.UserID == node.UserID && n.EnsName == node.EnsName {
			return nil, sentinel.ErrConflict
		}
	}

	created := *node
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now()
	}
	m.nodes[created.ID] = created
	return &created, nil
}

func (m *InMemory) UpdateNodePosition(_ context.Context, nodeID uuid.UUID, x, y float64) (*models.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	node, ok := m.nodes[nodeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	node.PositionX = x
	node.PositionY = y
	m.nodes[nodeID] = node
	return &node, nil
}

func (m *InMemory) DeleteNode(_ context.Context, nodeID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.nodes[nodeID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(m.nodes, nodeID)
	for id, c := range m.connections {
		if c.SourceNodeID == nodeID || c.TargetNodeID == nodeID {
			delete(m.connections, id)
		}
	}
	return nil
}

func (m *InMemory) ListConnections(_ context.Context, userID uuid.UUID) ([]models.Connection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conns := []models.Connection{}
	for _, c := range m.connections {
		if c.UserID == userID {
			conns = append(conns, c)
		}
	}
	sort.Slice(conns, func(i, j int) bool { return conns[i].CreatedAt.Before(conns[j].CreatedAt) })
	return conns, nil
}

func (m *InMemory) GetConnection(_ context.Context, connectionID, userID uuid.UUID) (*models.Connection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conn, ok := m.connections[connectionID]
	if !ok || conn.UserID != userID {
		return nil, sentinel.ErrNotFound
	}
	return &conn, nil
}

func (m *InMemory) FindConnection(_ context.Context, userID, sourceNodeID, targetNodeID uuid.UUID) (*models.Connection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.connections {
		if c.UserID == userID && c.SourceNodeID == sourceNodeID && c.TargetNodeID == targetNodeID {
			conn := c
			return &conn, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (m *InMemory) CreateConnection(_ context.Context, conn *models.Connection) (*models.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.connections {
		if c.UserID == conn.UserID && c.SourceNodeID == conn.SourceNodeID && c.TargetNodeID == conn.TargetNodeID {
			return nil, sentinel.ErrConflict
		}
	}

	created := *conn
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now()
	}
	m.connections[created.ID] = created
	return &created, nil
}

func (m *InMemory) DeleteConnection(_ context.Context, connectionID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.connections[connectionID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(m.connections, connectionID)
	return nil
}
