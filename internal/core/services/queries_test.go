package services

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/storefront-source/internal/core/domain"
	"github.com/custodia-labs/storefront-source/internal/logger"
)

func TestDefaultQueries(t *testing.T) {
	q := DefaultQueries()
	for _, name := range domain.AllQueryNames() {
		assert.NotEmpty(t, q.Get(name), name)
	}
	assert.Contains(t, q.Get(domain.QueryPages), "$after")
	assert.Contains(t, q.Get(domain.QueryMenu), "$handle")
}

func TestResolveQueries_ShallowOverride(t *testing.T) {
	q := ResolveQueries(map[string]string{"menu": "custom"})

	assert.Equal(t, "custom", q.Get(domain.QueryMenu))
	assert.Equal(t, PagesQuery, q.Get(domain.QueryPages))
	assert.Equal(t, ShopPoliciesQuery, q.Get(domain.QueryShopPolicies))
	assert.Equal(t, ShopDetailsQuery, q.Get(domain.QueryShopDetails))
}

func TestResolveQueries_EmptyOverrideKeepsDefault(t *testing.T) {
	q := ResolveQueries(map[string]string{"pages": ""})
	assert.Equal(t, PagesQuery, q.Get(domain.QueryPages))
}

func TestResolveQueries_DoesNotMutateDefaults(t *testing.T) {
	_ = ResolveQueries(map[string]string{"menu": "custom"})
	assert.Equal(t, MenuQuery, DefaultQueries().Get(domain.QueryMenu))
}

func TestResolveQueries_UnknownNameWarns(t *testing.T) {
	prevOut, prevVerbose := logger.Output(), logger.IsVerbose()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetVerbose(true)
	t.Cleanup(func() {
		logger.SetOutput(prevOut)
		logger.SetVerbose(prevVerbose)
	})

	q := ResolveQueries(map[string]string{"products": "query { products }"})

	assert.Equal(t, "query { products }", q.Get(domain.QueryName("products")))
	assert.Contains(t, buf.String(), `[WARN] query override "products" does not match any known query`)
}
