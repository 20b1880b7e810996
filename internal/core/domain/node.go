package domain

import (
	"encoding/json"
	"maps"
)

// TypePrefix namespaces every node type registered by this source.
const TypePrefix = "Shopify"

// Owner is recorded on every node this source registers.
const Owner = "storefront-source"

// NodeKind enumerates the entity kinds this source turns into nodes.
// The set is closed: mappers switch over it exhaustively.
type NodeKind int

const (
	// KindShopPolicy is a shop policy (privacy, refund, shipping, terms).
	KindShopPolicy NodeKind = iota

	// KindShopDetails is the shop singleton (name, description, money format).
	KindShopDetails

	// KindPage is an online store page.
	KindPage

	// KindPageMetafield is a key/value attachment on a page.
	KindPageMetafield

	// KindMenu is a navigation menu looked up by handle.
	KindMenu
)

// AllNodeKinds returns every kind in declaration order.
func AllNodeKinds() []NodeKind {
	return []NodeKind{KindShopPolicy, KindShopDetails, KindPage, KindPageMetafield, KindMenu}
}

// String returns the unprefixed kind name.
func (k NodeKind) String() string {
	switch k {
	case KindShopPolicy:
		return "ShopPolicy"
	case KindShopDetails:
		return "ShopDetails"
	case KindPage:
		return "Page"
	case KindPageMetafield:
		return "PageMetafield"
	case KindMenu:
		return "Menu"
	default:
		return "Unknown"
	}
}

// Valid reports whether k is one of the declared kinds.
func (k NodeKind) Valid() bool {
	return k >= KindShopPolicy && k <= KindMenu
}

// TypeName returns the node type registered with the content graph,
// e.g. "ShopifyPage".
func (k NodeKind) TypeName() string {
	return TypePrefix + k.String()
}

// Schema lists the fields the default queries select for this kind.
// Extra fields from overridden queries are still copied onto the node.
func (k NodeKind) Schema() []string {
	switch k {
	case KindShopPolicy:
		return []string{"id", "handle", "title", "body", "url"}
	case KindShopDetails:
		return []string{"name", "description", "moneyFormat"}
	case KindPage:
		return []string{"id", "handle", "title", "body", "bodySummary", "updatedAt", "onlineStoreUrl", "metafields"}
	case KindPageMetafield:
		return []string{"id", "key", "value", "description"}
	case KindMenu:
		return []string{"id", "handle", "title", "items"}
	default:
		return nil
	}
}

// RequiresID reports whether entities of this kind carry a source id.
// The shop singleton has none; its id is derived from the kind alone.
func (k NodeKind) RequiresID() bool {
	return k != KindShopDetails
}

// FileNodeType is the node type used for downloaded remote files.
const FileNodeType = "File"

// NodeInternal holds the content graph bookkeeping for a node.
type NodeInternal struct {
	// Type is the registered node type, e.g. "ShopifyMenu".
	Type string `json:"type"`

	// ContentDigest changes whenever the source entity changes.
	ContentDigest string `json:"contentDigest"`

	// Owner identifies the source that registered the node.
	Owner string `json:"owner"`
}

// Node is the unit registered into the content graph.
type Node struct {
	// ID is deterministic in (type, source id).
	ID string

	// Parent is the id of the parent node, empty for top-level nodes.
	Parent string

	// Children holds child node ids. Page nodes do not link their
	// metafield children.
	Children []string

	// Internal carries type, digest and owner.
	Internal NodeInternal

	// Fields are the entity fields, copied verbatim from the source.
	Fields map[string]any
}

// Field returns a top-level entity field.
func (n *Node) Field(name string) (any, bool) {
	v, ok := n.Fields[name]
	return v, ok
}

// StringField returns a top-level string field or "".
func (n *Node) StringField(name string) string {
	s, _ := n.Fields[name].(string)
	return s
}

// MarshalJSON flattens entity fields next to the bookkeeping keys,
// matching the content graph's node shape.
func (n Node) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(n.Fields)+4)
	maps.Copy(out, n.Fields)
	out["id"] = n.ID
	out["parent"] = nullable(n.Parent)
	children := n.Children
	if children == nil {
		children = []string{}
	}
	out["children"] = children
	out["internal"] = n.Internal
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var node Node
	if v, ok := raw["id"]; ok {
		if err := json.Unmarshal(v, &node.ID); err != nil {
			return err
		}
	}
	if v, ok := raw["parent"]; ok && string(v) != "null" {
		if err := json.Unmarshal(v, &node.Parent); err != nil {
			return err
		}
	}
	if v, ok := raw["children"]; ok && string(v) != "null" {
		if err := json.Unmarshal(v, &node.Children); err != nil {
			return err
		}
	}
	if v, ok := raw["internal"]; ok {
		if err := json.Unmarshal(v, &node.Internal); err != nil {
			return err
		}
	}

	node.Fields = make(map[string]any, len(raw))
	for key, value := range raw {
		switch key {
		case "id", "parent", "children", "internal":
			continue
		}
		var field any
		if err := json.Unmarshal(value, &field); err != nil {
			return err
		}
		node.Fields[key] = field
	}

	*n = node
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
