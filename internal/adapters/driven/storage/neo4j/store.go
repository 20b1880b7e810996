// Package neo4j provides a node store backed by a Neo4j graph database.
package neo4j

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/custodia-labs/storefront-source/internal/core/domain"
	"github.com/custodia-labs/storefront-source/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.NodeStore = (*Store)(nil)

// Label is applied to every stored node.
const Label = "SourceNode"

// DefaultDatabase is used when Config.Database is empty.
const DefaultDatabase = "neo4j"

// Config holds Neo4j connection configuration.
type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

// Store keeps nodes in Neo4j.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	now      func() time.Time
}

// New connects to Neo4j and ensures the id constraint exists.
func New(ctx context.Context, cfg Config) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}

	// Verify connectivity
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("connecting to neo4j: %w", err)
	}

	database := cfg.Database
	if database == "" {
		database = DefaultDatabase
	}
	s := &Store{driver: driver, database: database, now: time.Now}

	if err := s.write(ctx, constraintQuery, nil); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("creating constraint: %w", err)
	}
	return s, nil
}

const constraintQuery = `
	CREATE CONSTRAINT source_node_id IF NOT EXISTS
	FOR (n:` + Label + `) REQUIRE n.id IS UNIQUE
`

// Unchanged digests leave content alone but still refresh touched.
const createQuery = `
	MERGE (n:` + Label + ` {id: $id})
	ON CREATE SET n.created = $now
	SET n.touched = $now
	WITH n
	WHERE n.digest IS NULL OR n.digest <> $digest
	SET n.type = $type,
		n.digest = $digest,
		n.owner = $owner,
		n.parent = $parent,
		n.children = $children,
		n.fields = $fields
`

const touchQuery = `
	MATCH (n:` + Label + ` {id: $id})
	SET n.touched = $now
	RETURN count(n) AS c
`

const getQuery = `
	MATCH (n:` + Label + ` {id: $id})
	RETURN n
`

const listQuery = `
	MATCH (n:` + Label + `)
	WHERE $type = '' OR n.type = $type
	RETURN n
	ORDER BY n.id
`

const pruneQuery = `
	MATCH (n:` + Label + `)
	WHERE n.type IN $types AND n.touched < $since
	WITH n, n.id AS id
	DETACH DELETE n
	RETURN count(id) AS c
`

// CreateNode merges a node by id and marks it touched.
func (s *Store) CreateNode(ctx context.Context, node *domain.Node) error {
	if node == nil || node.ID == "" {
		return domain.ErrInvalidInput
	}
	params, err := nodeParams(node, s.now())
	if err != nil {
		return err
	}
	if err := s.write(ctx, createQuery, params); err != nil {
		return fmt.Errorf("saving node: %w", err)
	}
	return nil
}

// TouchNode marks an existing node as present.
func (s *Store) TouchNode(ctx context.Context, id string) error {
	count, err := s.count(ctx, touchQuery, map[string]any{"id": id, "now": s.now().UnixNano()})
	if err != nil {
		return fmt.Errorf("touching node: %w", err)
	}
	if count == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetNode retrieves a node by id.
func (s *Store) GetNode(ctx context.Context, id string) (*domain.Node, error) {
	nodes, err := s.read(ctx, getQuery, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, domain.ErrNotFound
	}
	return &nodes[0], nil
}

// ListNodes returns nodes of a type ordered by id. Empty type lists all.
func (s *Store) ListNodes(ctx context.Context, nodeType string) ([]domain.Node, error) {
	return s.read(ctx, listQuery, map[string]any{"type": nodeType})
}

// Prune deletes nodes of the given types not touched since the given time.
func (s *Store) Prune(ctx context.Context, nodeTypes []string, since time.Time) (int, error) {
	if len(nodeTypes) == 0 {
		return 0, nil
	}
	count, err := s.count(ctx, pruneQuery, map[string]any{"types": nodeTypes, "since": since.UnixNano()})
	if err != nil {
		return 0, fmt.Errorf("pruning nodes: %w", err)
	}
	return int(count), nil
}

// Close closes the Neo4j connection.
func (s *Store) Close() error {
	return s.driver.Close(context.Background())
}

func (s *Store) session(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
}

func (s *Store) write(ctx context.Context, query string, params map[string]any) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	return err
}

func (s *Store) count(ctx context.Context, query string, params map[string]any) (int64, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}
		c, _ := record.Get("c")
		n, _ := c.(int64)
		return n, nil
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

func (s *Store) read(ctx context.Context, query string, params map[string]any) ([]domain.Node, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}

		var nodes []domain.Node
		for result.Next(ctx) {
			value, _ := result.Record().Get("n")
			graphNode, ok := value.(neo4j.Node)
			if !ok {
				return nil, fmt.Errorf("unexpected record value %T", value)
			}
			node, err := nodeFromProps(graphNode.Props)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, *node)
		}
		return nodes, result.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Node), nil
}

// nodeParams converts a node to query parameters. Neo4j properties cannot
// hold nested maps, so fields are stored as a JSON string.
func nodeParams(node *domain.Node, now time.Time) (map[string]any, error) {
	fieldsJSON, err := json.Marshal(node.Fields)
	if err != nil {
		return nil, fmt.Errorf("marshalling fields: %w", err)
	}
	children := node.Children
	if children == nil {
		children = []string{}
	}
	return map[string]any{
		"id":       node.ID,
		"type":     node.Internal.Type,
		"digest":   node.Internal.ContentDigest,
		"owner":    node.Internal.Owner,
		"parent":   node.Parent,
		"children": children,
		"fields":   string(fieldsJSON),
		"now":      now.UnixNano(),
	}, nil
}

// nodeFromProps is the inverse of nodeParams.
func nodeFromProps(props map[string]any) (*domain.Node, error) {
	str := func(key string) string {
		v, _ := props[key].(string)
		return v
	}

	node := &domain.Node{
		ID:     str("id"),
		Parent: str("parent"),
		Internal: domain.NodeInternal{
			Type:          str("type"),
			ContentDigest: str("digest"),
			Owner:         str("owner"),
		},
		Children: []string{},
	}
	if node.ID == "" {
		return nil, fmt.Errorf("%w: stored node has no id", domain.ErrMalformedEntity)
	}

	switch children := props["children"].(type) {
	case []string:
		node.Children = append(node.Children, children...)
	case []any:
		for _, c := range children {
			if s, ok := c.(string); ok {
				node.Children = append(node.Children, s)
			}
		}
	}

	if raw := str("fields"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &node.Fields); err != nil {
			return nil, fmt.Errorf("unmarshalling fields: %w", err)
		}
	}
	return node, nil
}
