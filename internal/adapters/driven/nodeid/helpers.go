// Package nodeid derives deterministic node ids and content digests.
package nodeid

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/storefront-source/internal/core/ports/driven"
)

// Ensure Helpers implements the interface.
var _ driven.NodeHelpers = (*Helpers)(nil)

// Helpers creates name-based (version 5) node ids within a namespace
// scoped to the owning source.
type Helpers struct {
	namespace uuid.UUID
}

// New creates helpers whose ids are namespaced by owner.
func New(owner string) *Helpers {
	return &Helpers{namespace: uuid.NewSHA1(uuid.NameSpaceURL, []byte(owner))}
}

// CreateNodeID returns the same id for the same seed.
func (h *Helpers) CreateNodeID(seed string) string {
	return uuid.NewSHA1(h.namespace, []byte(seed)).String()
}

// CreateContentDigest hashes the JSON encoding of data.
// Map keys are encoded in sorted order, so equal content gives an equal
// digest regardless of map iteration order. Strings are hashed as is.
func (h *Helpers) CreateContentDigest(data any) string {
	var b []byte
	switch v := data.(type) {
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			// Unencodable values still get a stable, distinct digest.
			encoded = []byte(fmt.Sprintf("%#v", v))
		}
		b = encoded
	}
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}
