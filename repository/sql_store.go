package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ammiranda/td/models"
	"github.com/google/uuid"
)

const nodeColumns = "id, title, type, status, parent_id, sort_order, path, meta, created_at, updated_at"

// siblingOrder puts explicitly ordered siblings first, then creation order.
const siblingOrder = "sort_order IS NULL, sort_order, created_at, title"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// dialect captures the differences between the SQL backends.
type dialect struct {
	numbered    bool // placeholders are $1, $2, ... instead of ?
	isDuplicate func(error) bool
}

// sqlStore implements Store on top of database/sql. Queries are written
// with ? placeholders and rebound for dialects that number them.
type sqlStore struct {
	q       querier
	dialect dialect
}

func (s *sqlStore) query(q string) string {
	if !s.dialect.numbered {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) writeErr(op string, err error) error {
	if s.dialect.isDuplicate != nil && s.dialect.isDuplicate(err) {
		return ErrDuplicateNode
	}
	return fmt.Errorf("error %s node: %w", op, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*models.Node, error) {
	var (
		n        models.Node
		typ      int
		status   string
		parentID uuid.NullUUID
		order    sql.NullFloat64
	)
	err := row.Scan(&n.ID, &n.Title, &typ, &status, &parentID, &order, &n.Path, &n.Meta, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	n.Type = models.NodeType(typ)
	n.Status = models.NodeStatus(status)
	if parentID.Valid {
		n.ParentID = &parentID.UUID
	}
	if order.Valid {
		n.Order = &order.Float64
	}
	return &n, nil
}

func nullParent(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func nullOrder(o *float64) sql.NullFloat64 {
	if o == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *o, Valid: true}
}

func utc(t time.Time) time.Time {
	return t.UTC()
}

// CreateNode inserts a new row
func (s *sqlStore) CreateNode(ctx context.Context, node *models.Node) error {
	_, err := s.q.ExecContext(ctx,
		s.query("INSERT INTO nodes ("+nodeColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		node.ID, node.Title, int(node.Type), string(node.Status), nullParent(node.ParentID),
		nullOrder(node.Order), node.Path, node.Meta, utc(node.CreatedAt), utc(node.UpdatedAt),
	)
	if err != nil {
		return s.writeErr("creating", err)
	}
	return nil
}

// GetNode retrieves a node by ID
func (s *sqlStore) GetNode(ctx context.Context, id uuid.UUID) (*models.Node, error) {
	row := s.q.QueryRowContext(ctx, s.query("SELECT "+nodeColumns+" FROM nodes WHERE id = ?"), id)
	return s.one(row)
}

// FindByAddress retrieves a node by its (path, title) pair
func (s *sqlStore) FindByAddress(ctx context.Context, path, title string) (*models.Node, error) {
	row := s.q.QueryRowContext(ctx,
		s.query("SELECT "+nodeColumns+" FROM nodes WHERE path = ? AND title = ?"), path, title)
	return s.one(row)
}

func (s *sqlStore) one(row *sql.Row) (*models.Node, error) {
	n, err := scanNode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNodeNotFound
		}
		return nil, fmt.Errorf("error getting node: %w", err)
	}
	return n, nil
}

// ListChildren retrieves the direct children of a node, or the roots
func (s *sqlStore) ListChildren(ctx context.Context, parentID *uuid.UUID) ([]*models.Node, error) {
	if parentID == nil {
		return s.many(ctx, "SELECT "+nodeColumns+" FROM nodes WHERE parent_id IS NULL ORDER BY "+siblingOrder)
	}
	return s.many(ctx, "SELECT "+nodeColumns+" FROM nodes WHERE parent_id = ? ORDER BY "+siblingOrder, *parentID)
}

// ListNodes retrieves all nodes from the database
func (s *sqlStore) ListNodes(ctx context.Context) ([]*models.Node, error) {
	return s.many(ctx, "SELECT "+nodeColumns+" FROM nodes ORDER BY type, path, "+siblingOrder)
}

func (s *sqlStore) many(ctx context.Context, q string, args ...any) ([]*models.Node, error) {
	rows, err := s.q.QueryContext(ctx, s.query(q), args...)
	if err != nil {
		return nil, fmt.Errorf("error listing nodes: %w", err)
	}
	defer rows.Close()

	nodes := []*models.Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}
	return nodes, nil
}

// UpdateNode overwrites every mutable column of a node
func (s *sqlStore) UpdateNode(ctx context.Context, node *models.Node) error {
	result, err := s.q.ExecContext(ctx,
		s.query(`UPDATE nodes SET title = ?, type = ?, status = ?, parent_id = ?, sort_order = ?,
			path = ?, meta = ?, updated_at = ? WHERE id = ?`),
		node.Title, int(node.Type), string(node.Status), nullParent(node.ParentID),
		nullOrder(node.Order), node.Path, node.Meta, utc(node.UpdatedAt), node.ID,
	)
	if err != nil {
		return s.writeErr("updating", err)
	}
	return requireRow(result)
}

// DeleteNode deletes a single row
func (s *sqlStore) DeleteNode(ctx context.Context, id uuid.UUID) error {
	result, err := s.q.ExecContext(ctx, s.query("DELETE FROM nodes WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("error deleting node: %w", err)
	}
	return requireRow(result)
}

// DeleteAll removes every row
func (s *sqlStore) DeleteAll(ctx context.Context) (int64, error) {
	result, err := s.q.ExecContext(ctx, "DELETE FROM nodes")
	if err != nil {
		return 0, fmt.Errorf("error deleting nodes: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error getting rows affected: %w", err)
	}
	return n, nil
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNodeNotFound
	}
	return nil
}

// withTx wraps fn in a database transaction
func withTx(ctx context.Context, db *sql.DB, d dialect, fn func(Store) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqlStore{q: tx, dialect: d}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}
