package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"ensgraph/internal/graph/models"
	"ensgraph/pkg/platform/sentinel"
)

const pqUniqueViolation = "23505"

// Postgres is the relational Store. Cascade deletion of a node's connections
// is enforced by the schema's foreign keys, not application code.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) CreateUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var (
		user models.User
		row  *sql.Row
	)
	if id == uuid.Nil {
		row = p.db.QueryRowContext(ctx,
			`INSERT INTO users DEFAULT VALUES RETURNING id, created_at`)
	} else {
		row = p.db.QueryRowContext(ctx,
			`INSERT INTO users (id) VALUES ($1) RETURNING id, created_at`, id)
	}
	if err := row.Scan(&user.ID, &user.CreatedAt); err != nil {
		return nil, translate(err, "create user")
	}
	return &user, nil
}

func (p *Postgres) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := p.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM users WHERE id = $1`, id).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return nil, translate(err, "get user")
	}
	return &user, nil
}

func (p *Postgres) ListNodes(ctx context.Context, userID uuid.UUID) ([]models.Node, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, user_id, ens_name, position_x, position_y, created_at
		 FROM nodes WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	nodes := []models.Node{}
	for rows.Next() {
		var n models.Node
		if err := rows.Scan(&n.ID, &n.UserID, &n.EnsName, &n.PositionX, &n.PositionY, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (p *Postgres) GetNode(ctx context.Context, nodeID, userID uuid.UUID) (*models.Node, error) {
	var n models.Node
	err := p.db.QueryRowContext(ctx,
		`SELECT id, user_id, ens_name, position_x, position_y, created_at
		 FROM nodes WHERE id = $1 AND user_id = $2`, nodeID, userID).
		Scan(&n.ID, &n.UserID, &n.EnsName, &n.PositionX, &n.PositionY, &n.CreatedAt)
	if err != nil {
		return nil, translate(err, "get node")
	}
	return &n, nil
}

func (p *Postgres) FindNodeByName(ctx context.Context, userID uuid.UUID, ensName string) (*models.Node, error) {
	var n models.Node
	err := p.db.QueryRowContext(ctx,
		`SELECT id, user_id, ens_name, position_x, position_y, created_at
		 FROM nodes WHERE user_id = $1 AND ens_name = $2`, userID, ensName).
		Scan(&n.ID, &n.UserID, &n.EnsName, &n.PositionX, &n.PositionY, &n.CreatedAt)
	if err != nil {
		return nil, translate(err, "find node by name")
	}
	return &n, nil
}

func (p *Postgres) CreateNode(ctx context.Context, node *models.Node) (*models.Node, error) {
	var n models.Node
	err := p.db.QueryRowContext(ctx,
		`INSERT INTO nodes (user_id, ens_name, position_x, position_y)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, user_id, ens_name, position_x, position_y, created_at`,
		node.UserID, node.EnsName, node.PositionX, node.PositionY).
		Scan(&n.ID, &n.UserID, &n.EnsName, &n.PositionX, &n.PositionY, &n.CreatedAt)
	if err != nil {
		return nil, translate(err, "create node")
	}
	return &n, nil
}

func (p *Postgres) UpdateNodePosition(ctx context.Context, nodeID uuid.UUID, x, y float64) (*models.Node, error) {
	var n models.Node
	err := p.db.QueryRowContext(ctx,
		`UPDATE nodes SET position_x = $1, position_y = $2, updated_at = now()
		 WHERE id = $3
		 RETURNING id, user_id, ens_name, position_x, position_y, created_at`,
		x, y, nodeID).
		Scan(&n.ID, &n.UserID, &n.EnsName, &n.PositionX, &n.PositionY, &n.CreatedAt)
	if err != nil {
		return nil, translate(err, "update node position")
	}
	return &n, nil
}

func (p *Postgres) DeleteNode(ctx context.Context, nodeID uuid.UUID) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM nodes WHERE id = $1`, nodeID)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}
	return requireAffected(res)
}

func (p *Postgres) ListConnections(ctx context.Context, userID uuid.UUID) ([]models.Connection, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, user_id, source_node_id, target_node_id, created_at
		 FROM connections WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()

	conns := []models.Connection{}
	for rows.Next() {
		var c models.Connection
		if err := rows.Scan(&c.ID, &c.UserID, &c.SourceNodeID, &c.TargetNodeID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		conns = append(conns, c)
	}
	return conns, rows.Err()
}

func (p *Postgres) GetConnection(ctx context.Context, connectionID, userID uuid.UUID) (*models.Connection, error) {
	var c models.Connection
	err := p.db.QueryRowContext(ctx,
		`SELECT id, user_id, source_node_id, target_node_id, created_at
		 FROM connections WHERE id = $1 AND user_id = $2`, connectionID, userID).
		Scan(&c.ID, &c.UserID, &c.SourceNodeID, &c.TargetNodeID, &c.CreatedAt)
	if err != nil {
		return nil, translate(err, "get connection")
	}
	return &c, nil
}

func (p *Postgres) FindConnection(ctx context.Context, userID, sourceNodeID, targetNodeID uuid.UUID) (*models.Connection, error) {
	var c models.Connection
	err := p.db.QueryRowContext(ctx,
		`SELECT id, user_id, source_node_id, target_node_id, created_at
		 FROM connections WHERE user_id = $1 AND source_node_id = $2 AND target_node_id = $3`,
		userID, sourceNodeID, targetNodeID).
		Scan(&c.ID, &c.UserID, &c.SourceNodeID, &c.TargetNodeID, &c.CreatedAt)
	if err != nil {
		return nil, translate(err, "find connection")
	}
	return &c, nil
}

func (p *Postgres) CreateConnection(ctx context.Context, conn *models.Connection) (*models.Connection, error) {
	var c models.Connection
	err := p.db.QueryRowContext(ctx,
		`INSERT INTO connections (user_id, source_node_id, target_node_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, user_id, source_node_id, target_node_id, created_at`,
		conn.UserID, conn.SourceNodeID, conn.TargetNodeID).
		Scan(&c.ID, &c.UserID, &c.SourceNodeID, &c.TargetNodeID, &c.CreatedAt)
	if err != nil {
		return nil, translate(err, "create connection")
	}
	return &c, nil
}

func (p *Postgres) DeleteConnection(ctx context.Context, connectionID uuid.UUID) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM connections WHERE id = $1`, connectionID)
	if err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}
	return requireAffected(res)
}

// translate maps driver errors onto sentinel errors.
func translate(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return sentinel.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
