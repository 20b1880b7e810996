package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/storefront-source/internal/core/domain"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func noEnv(string) string { return "" }

func TestDecodeOptions_Defaults(t *testing.T) {
	opts, err := DecodeOptions(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultOptions(), opts)
}

func TestDecodeOptions_AllKeys(t *testing.T) {
	opts, err := DecodeOptions(map[string]any{
		"shopName":           "my-shop",
		"accessToken":        "token",
		"apiVersion":         "2024-04",
		"paginationSize":     50,
		"shopifyConnections": []any{"shop", "navigation"},
		"downloadImages":     false,
		"shopifyQueries":     map[string]any{"menu": "query { menu }"},
		"verbose":            false,
		"shopDetails":        true,
		"requestsPerSecond":  4.5,
		"requestTimeout":     "10s",
		"imageCacheDir":      "/tmp/images",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.Options{
		ShopName:          "my-shop",
		AccessToken:       "token",
		APIVersion:        "2024-04",
		PaginationSize:    50,
		Connections:       []string{"shop", "navigation"},
		DownloadImages:    false,
		Queries:           map[string]string{"menu": "query { menu }"},
		Verbose:           false,
		ShopDetails:       true,
		RequestsPerSecond: 4.5,
		RequestTimeout:    10 * time.Second,
		ImageCacheDir:     "/tmp/images",
	}, opts)
}

func TestDecodeOptions_WeaklyTyped(t *testing.T) {
	opts, err := DecodeOptions(map[string]any{
		"paginationSize":     "100",
		"downloadImages":     "false",
		"shopifyConnections": "shop, content",
		"requestsPerSecond":  "1",
	})
	require.NoError(t, err)

	assert.Equal(t, 100, opts.PaginationSize)
	assert.False(t, opts.DownloadImages)
	assert.Equal(t, []string{"shop", "content"}, opts.Connections)
	assert.Equal(t, 1.0, opts.RequestsPerSecond)
}

func TestDecodeOptions_ShorterConnectionListReplacesDefault(t *testing.T) {
	opts, err := DecodeOptions(map[string]any{"shopifyConnections": []any{"content"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"content"}, opts.Connections)
}

func TestDecodeOptions_EmptyConnectionListSelectsNothing(t *testing.T) {
	opts, err := DecodeOptions(map[string]any{"shopifyConnections": []any{}})
	require.NoError(t, err)
	assert.Empty(t, opts.Connections)

	sel, err := opts.Selector()
	require.NoError(t, err)
	assert.Empty(t, sel.Families())
}

func TestDecodeOptions_InvalidValue(t *testing.T) {
	_, err := DecodeOptions(map[string]any{"paginationSize": "lots"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = DecodeOptions(map[string]any{"requestTimeout": "soon"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDecodeOptions_UnknownKeysIgnored(t *testing.T) {
	opts, err := DecodeOptions(map[string]any{"shopName": "my-shop", "plugins": []any{}})
	require.NoError(t, err)
	assert.Equal(t, "my-shop", opts.ShopName)
}

func TestReadFile_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "toml",
			file: "config.toml",
			content: `
shopName = "my-shop"
paginationSize = 25
shopifyConnections = ["shop", "content"]

[shopifyQueries]
menu = "query { menu }"
`,
		},
		{
			name: "yaml",
			file: "config.yaml",
			content: `
shopName: my-shop
paginationSize: 25
shopifyConnections: [shop, content]
shopifyQueries:
  menu: "query { menu }"
`,
		},
		{
			name: "json",
			file: "config.json",
			content: `{
  "shopName": "my-shop",
  "paginationSize": 25,
  "shopifyConnections": ["shop", "content"],
  "shopifyQueries": {"menu": "query { menu }"}
}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := ReadFile(writeConfig(t, tt.file, tt.content))
			require.NoError(t, err)

			opts, err := DecodeOptions(raw)
			require.NoError(t, err)
			assert.Equal(t, "my-shop", opts.ShopName)
			assert.Equal(t, 25, opts.PaginationSize)
			assert.Equal(t, []string{"shop", "content"}, opts.Connections)
			assert.Equal(t, "query { menu }", opts.Queries["menu"])
		})
	}
}

func TestReadFile_Errors(t *testing.T) {
	_, err := ReadFile(writeConfig(t, "config.ini", "shopName=x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ReadFile(writeConfig(t, "config.toml", "shopName = "))
	assert.Error(t, err)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadFile_Empty(t *testing.T) {
	raw, err := ReadFile(writeConfig(t, "config.yaml", ""))
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestLoadOptions_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "storefront-source.toml", `
shopName = "file-shop"
accessToken = "file-token"
`)
	env := map[string]string{EnvAccessToken: "env-token"}

	opts, err := LoadOptions(path, func(k string) string { return env[k] })
	require.NoError(t, err)
	assert.Equal(t, "file-shop", opts.ShopName)
	assert.Equal(t, "env-token", opts.AccessToken)
}

func TestLoadOptions_NoFile(t *testing.T) {
	env := map[string]string{EnvShopName: "env-shop", EnvAccessToken: "env-token"}

	opts, err := LoadOptions("", func(k string) string { return env[k] })
	require.NoError(t, err)
	assert.Equal(t, "env-shop", opts.ShopName)
	assert.Equal(t, "env-token", opts.AccessToken)
	assert.Equal(t, domain.DefaultPaginationSize, opts.PaginationSize)
}

func TestLoadOptions_MissingFile(t *testing.T) {
	_, err := LoadOptions(filepath.Join(t.TempDir(), "nope.toml"), noEnv)
	assert.Error(t, err)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, Discover(dir))

	yamlPath := filepath.Join(dir, "storefront-source.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("shopName: x"), 0600))
	assert.Equal(t, yamlPath, Discover(dir))

	tomlPath := filepath.Join(dir, "storefront-source.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(`shopName = "x"`), 0600))
	assert.Equal(t, tomlPath, Discover(dir))
}
