package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/storefront-source/internal/core/domain"
)

// NodeActions is the content graph's node registration capability.
// Implementations must be safe for concurrent use.
type NodeActions interface {
	// CreateNode registers a node. Re-registering a node with the same
	// id and digest is a no-op beyond marking it present.
	CreateNode(ctx context.Context, node *domain.Node) error

	// TouchNode marks an existing node as present in this run.
	// Returns domain.ErrNotFound if the node does not exist.
	TouchNode(ctx context.Context, id string) error

	// GetNode retrieves a node by id.
	// Returns domain.ErrNotFound if the node does not exist.
	GetNode(ctx context.Context, id string) (*domain.Node, error)
}

// NodeHelpers derives node ids and digests.
type NodeHelpers interface {
	// CreateNodeID returns a deterministic id for the seed.
	CreateNodeID(seed string) string

	// CreateContentDigest returns a deterministic digest of data.
	CreateContentDigest(data any) string
}

// NodeStore is a NodeActions backed by persistent or in-memory storage.
type NodeStore interface {
	NodeActions

	// ListNodes returns nodes of the given type, ordered by id.
	// An empty type lists every node.
	ListNodes(ctx context.Context, nodeType string) ([]domain.Node, error)

	// Prune deletes nodes of the given types that were neither created
	// nor touched since the given time. Returns the number deleted.
	Prune(ctx context.Context, nodeTypes []string, since time.Time) (int, error)

	// Close releases resources.
	Close() error
}
