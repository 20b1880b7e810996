package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeKind_TypeName(t *testing.T) {
	tests := []struct {
		kind     NodeKind
		expected string
	}{
		{KindShopPolicy, "ShopifyShopPolicy"},
		{KindShopDetails, "ShopifyShopDetails"},
		{KindPage, "ShopifyPage"},
		{KindPageMetafield, "ShopifyPageMetafield"},
		{KindMenu, "ShopifyMenu"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.kind.TypeName())
			assert.True(t, tt.kind.Valid())
			assert.NotEmpty(t, tt.kind.Schema())
		})
	}
}

func TestNodeKind_Unknown(t *testing.T) {
	k := NodeKind(42)

	assert.False(t, k.Valid())
	assert.Equal(t, "Unknown", k.String())
	assert.Nil(t, k.Schema())
}

func TestNodeKind_RequiresID(t *testing.T) {
	for _, k := range AllNodeKinds() {
		if k == KindShopDetails {
			assert.False(t, k.RequiresID())
			continue
		}
		assert.True(t, k.RequiresID(), k.String())
	}
}

func TestNode_MarshalJSON_FlattensFields(t *testing.T) {
	node := Node{
		ID: "node-1",
		Internal: NodeInternal{
			Type:          "ShopifyMenu",
			ContentDigest: "abc",
			Owner:         Owner,
		},
		Fields: map[string]any{
			"handle":    "main-menu",
			"shopifyId": "gid://shopify/Menu/1",
		},
	}

	data, err := json.Marshal(node)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "node-1", decoded["id"])
	assert.Equal(t, "main-menu", decoded["handle"])
	assert.Nil(t, decoded["parent"])
	assert.Equal(t, []any{}, decoded["children"])

	internal, ok := decoded["internal"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ShopifyMenu", internal["type"])
	assert.Equal(t, "abc", internal["contentDigest"])
}

func TestNode_JSONRoundTrip(t *testing.T) {
	node := Node{
		ID:       "node-2",
		Parent:   "node-1",
		Children: []string{"c1"},
		Internal: NodeInternal{Type: "ShopifyPage", ContentDigest: "d", Owner: Owner},
		Fields:   map[string]any{"title": "About"},
	}

	data, err := json.Marshal(node)
	require.NoError(t, err)

	var decoded Node
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, node, decoded)
}

func TestNode_StringField(t *testing.T) {
	node := Node{Fields: map[string]any{"title": "About", "count": 3.0}}

	assert.Equal(t, "About", node.StringField("title"))
	assert.Equal(t, "", node.StringField("count"))
	assert.Equal(t, "", node.StringField("missing"))

	v, ok := node.Field("count")
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)
}
