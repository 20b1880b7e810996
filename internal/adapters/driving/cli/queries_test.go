package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/storefront-source/internal/core/domain"
)

func TestQueriesCmd_Use(t *testing.T) {
	assert.Equal(t, "queries [name]", queriesCmd.Use)
}

func TestQueriesCmd_PrintsAll(t *testing.T) {
	h := setupCLITest(t)

	err := h.execute("queries")

	require.NoError(t, err)
	out := h.out.String()
	for _, name := range domain.AllQueryNames() {
		assert.Contains(t, out, "# "+string(name))
	}
	assert.Contains(t, out, "shop {")
}

func TestQueriesCmd_SingleWithOverride(t *testing.T) {
	h := setupCLITest(t)
	path := filepath.Join(t.TempDir(), "storefront-source.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
shopifyQueries:
  menu: "query Custom { menu(handle: $handle) { id } }"
`), 0600))

	err := h.execute("queries", "menu", "--config", path)

	require.NoError(t, err)
	assert.Equal(t, "query Custom { menu(handle: $handle) { id } }\n", h.out.String())
}

func TestQueriesCmd_Unknown(t *testing.T) {
	h := setupCLITest(t)

	err := h.execute("queries", "products")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQueriesCmd_AcceptsMaxOneArg(t *testing.T) {
	h := setupCLITest(t)

	err := h.execute("queries", "menu", "pages")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts at most 1 arg(s)")
}
