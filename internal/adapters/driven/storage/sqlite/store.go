package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/storefront-source/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/storefront-source/internal/core/domain"
	"github.com/custodia-labs/storefront-source/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.NodeStore = (*Store)(nil)

// DatabaseFile is the database file name inside the data directory.
const DatabaseFile = "nodes.db"

// Store is a SQLite-backed node store.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.storefront-source/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".storefront-source", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
		now:  time.Now,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_nodes.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// CreateNode stores a node and marks it touched. A node whose digest is
// unchanged keeps its stored content and creation time.
func (s *Store) CreateNode(ctx context.Context, node *domain.Node) error {
	if node == nil || node.ID == "" {
		return domain.ErrInvalidInput
	}

	children := node.Children
	if children == nil {
		children = []string{}
	}
	childrenJSON, err := json.Marshal(children)
	if err != nil {
		return fmt.Errorf("marshalling children: %w", err)
	}
	fieldsJSON, err := json.Marshal(node.Fields)
	if err != nil {
		return fmt.Errorf("marshalling fields: %w", err)
	}

	var parent sql.NullString
	if node.Parent != "" {
		parent = sql.NullString{String: node.Parent, Valid: true}
	}

	now := s.now().UnixNano()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO nodes (id, type, digest, owner, parent, children, fields, created_at, touched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = CASE WHEN nodes.digest = excluded.digest THEN nodes.type ELSE excluded.type END,
			owner = CASE WHEN nodes.digest = excluded.digest THEN nodes.owner ELSE excluded.owner END,
			parent = CASE WHEN nodes.digest = excluded.digest THEN nodes.parent ELSE excluded.parent END,
			children = CASE WHEN nodes.digest = excluded.digest THEN nodes.children ELSE excluded.children END,
			fields = CASE WHEN nodes.digest = excluded.digest THEN nodes.fields ELSE excluded.fields END,
			digest = excluded.digest,
			touched_at = excluded.touched_at
	`, node.ID, node.Internal.Type, node.Internal.ContentDigest, node.Internal.Owner,
		parent, string(childrenJSON), string(fieldsJSON), now, now)
	if err != nil {
		return fmt.Errorf("saving node: %w", err)
	}
	return nil
}

// TouchNode marks an existing node as present.
func (s *Store) TouchNode(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE nodes SET touched_at = ? WHERE id = ?", s.now().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("touching node: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("touching node: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetNode retrieves a node by id.
func (s *Store) GetNode(ctx context.Context, id string) (*domain.Node, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, type, digest, owner, parent, children, fields
		FROM nodes WHERE id = ?
	`, id)

	node, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return node, nil
}

// ListNodes returns nodes of a type ordered by id. Empty type lists all.
func (s *Store) ListNodes(ctx context.Context, nodeType string) ([]domain.Node, error) {
	query := "SELECT id, type, digest, owner, parent, children, fields FROM nodes"
	var args []any
	if nodeType != "" {
		query += " WHERE type = ?"
		args = append(args, nodeType)
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying nodes: %w", err)
	}
	defer rows.Close()

	var nodes []domain.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, *node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nodes: %w", err)
	}
	return nodes, nil
}

// Prune deletes nodes of the given types not touched since the given time.
func (s *Store) Prune(ctx context.Context, nodeTypes []string, since time.Time) (int, error) {
	if len(nodeTypes) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(nodeTypes)), ",")
	args := make([]any, 0, len(nodeTypes)+1)
	for _, t := range nodeTypes {
		args = append(args, t)
	}
	args = append(args, since.UnixNano())

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM nodes WHERE type IN ("+placeholders+") AND touched_at < ?", args...)
	if err != nil {
		return 0, fmt.Errorf("pruning nodes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning nodes: %w", err)
	}
	return int(n), nil
}

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanNode(row scanner) (*domain.Node, error) {
	var (
		node         domain.Node
		parent       sql.NullString
		childrenJSON string
		fieldsJSON   string
	)
	err := row.Scan(&node.ID, &node.Internal.Type, &node.Internal.ContentDigest,
		&node.Internal.Owner, &parent, &childrenJSON, &fieldsJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning node: %w", err)
	}

	node.Parent = parent.String
	if err := json.Unmarshal([]byte(childrenJSON), &node.Children); err != nil {
		return nil, fmt.Errorf("unmarshalling children: %w", err)
	}
	if err := json.Unmarshal([]byte(fieldsJSON), &node.Fields); err != nil {
		return nil, fmt.Errorf("unmarshalling fields: %w", err)
	}
	if node.Children == nil {
		node.Children = []string{}
	}
	return &node, nil
}
