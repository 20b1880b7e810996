package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/storefront-source/internal/core/domain"
	"github.com/custodia-labs/storefront-source/internal/core/ports/driven"
	"github.com/custodia-labs/storefront-source/internal/logger"
)

// sourceIDField is where a node keeps the entity's own id.
const sourceIDField = "shopifyId"

// NodeBuilder maps raw API entities to content nodes.
type NodeBuilder struct {
	helpers driven.NodeHelpers
}

// NewNodeBuilder creates a builder using helpers for ids and digests.
func NewNodeBuilder(helpers driven.NodeHelpers) *NodeBuilder {
	return &NodeBuilder{helpers: helpers}
}

// Build maps entity to a node of the given kind.
//
// The node id is derived from the kind and the entity's id only, so
// re-sourcing unchanged data yields the same id and digest. All entity
// fields are deep-copied onto the node; the entity's id moves to
// shopifyId. The entity is not modified.
func (b *NodeBuilder) Build(kind domain.NodeKind, entity map[string]any) (*domain.Node, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: node kind %d", domain.ErrUnsupportedType, int(kind))
	}
	if entity == nil {
		return nil, fmt.Errorf("%w: nil %s entity", domain.ErrMalformedEntity, kind)
	}
	if missing := missingFields(kind, entity); len(missing) > 0 {
		logger.Debug("%s entity is missing fields: %s", kind, strings.Join(missing, ", "))
	}

	sourceID, _ := entity["id"].(string)
	if sourceID == "" && kind.RequiresID() {
		return nil, fmt.Errorf("%w: %s entity has no id", domain.ErrMalformedEntity, kind)
	}

	fields := copyObject(entity)
	delete(fields, "id")
	if sourceID != "" {
		fields[sourceIDField] = sourceID
	} else {
		// Singletons are keyed by kind alone.
		sourceID = kind.String()
	}

	return &domain.Node{
		ID:       b.NodeID(kind, sourceID),
		Children: []string{},
		Internal: domain.NodeInternal{
			Type:          kind.TypeName(),
			ContentDigest: b.helpers.CreateContentDigest(entity),
			Owner:         domain.Owner,
		},
		Fields: fields,
	}, nil
}

// missingFields lists the kind's default query fields absent from entity.
// Overridden queries may select less, so gaps are only logged.
func missingFields(kind domain.NodeKind, entity map[string]any) []string {
	var missing []string
	for _, field := range kind.Schema() {
		if _, ok := entity[field]; !ok {
			missing = append(missing, field)
		}
	}
	return missing
}

// NodeID returns the node id for a kind and source id.
func (b *NodeBuilder) NodeID(kind domain.NodeKind, sourceID string) string {
	return b.helpers.CreateNodeID(fmt.Sprintf("%s__%s__%s", domain.TypePrefix, kind, sourceID))
}

// copyObject deep-copies a decoded JSON object.
func copyObject(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyObject(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
