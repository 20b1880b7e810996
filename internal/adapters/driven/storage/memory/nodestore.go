// Package memory provides an in-memory node store.
// It is used for one-shot runs and in tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/storefront-source/internal/core/domain"
	"github.com/custodia-labs/storefront-source/internal/core/ports/driven"
)

// Ensure NodeStore implements the interface.
var _ driven.NodeStore = (*NodeStore)(nil)

type entry struct {
	node    domain.Node
	touched time.Time
}

// NodeStore is an in-memory implementation of driven.NodeStore.
type NodeStore struct {
	mu    sync.RWMutex
	nodes map[string]entry
	now   func() time.Time
}

// NewNodeStore creates a new in-memory node store.
func NewNodeStore() *NodeStore {
	return &NodeStore{
		nodes: make(map[string]entry),
		now:   time.Now,
	}
}

// CreateNode stores or replaces a node and marks it touched.
func (s *NodeStore) CreateNode(_ context.Context, node *domain.Node) error {
	if node == nil || node.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[node.ID] = entry{node: cloneNode(*node), touched: s.now()}
	return nil
}

// TouchNode marks an existing node as present.
func (s *NodeStore) TouchNode(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.nodes[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.touched = s.now()
	s.nodes[id] = e
	return nil
}

// GetNode retrieves a node by id.
func (s *NodeStore) GetNode(_ context.Context, id string) (*domain.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.nodes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	n := cloneNode(e.node)
	return &n, nil
}

// ListNodes returns nodes of a type ordered by id. Empty type lists all.
func (s *NodeStore) ListNodes(_ context.Context, nodeType string) ([]domain.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Node
	for _, e := range s.nodes {
		if nodeType == "" || e.node.Internal.Type == nodeType {
			result = append(result, cloneNode(e.node))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Prune deletes nodes of the given types not touched since the given time.
func (s *NodeStore) Prune(_ context.Context, nodeTypes []string, since time.Time) (int, error) {
	types := make(map[string]struct{}, len(nodeTypes))
	for _, t := range nodeTypes {
		types[t] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for id, e := range s.nodes {
		if _, ok := types[e.node.Internal.Type]; !ok {
			continue
		}
		if e.touched.Before(since) {
			delete(s.nodes, id)
			deleted++
		}
	}
	return deleted, nil
}

// Len returns the number of stored nodes.
func (s *NodeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Close is a no-op.
func (s *NodeStore) Close() error {
	return nil
}

// cloneNode copies the node's slices and top-level field map so callers
// cannot mutate stored state.
func cloneNode(n domain.Node) domain.Node {
	out := n
	if n.Children != nil {
		out.Children = append([]string{}, n.Children...)
	}
	if n.Fields != nil {
		out.Fields = make(map[string]any, len(n.Fields))
		for k, v := range n.Fields {
			out.Fields[k] = v
		}
	}
	return out
}
