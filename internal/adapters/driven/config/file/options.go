package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/storefront-source/internal/core/domain"
	"github.com/custodia-labs/storefront-source/internal/logger"
)

// Environment variables read by LoadOptions.
const (
	EnvShopName    = "SHOPIFY_SHOP_NAME"
	EnvAccessToken = "SHOPIFY_ACCESS_TOKEN"
)

// ConfigBaseName is the file name Discover looks for, without extension.
const ConfigBaseName = "storefront-source"

// supportedExts lists extensions in discovery order.
var supportedExts = []string{".toml", ".yaml", ".yml", ".json"}

// ErrUnsupportedFormat indicates a config file with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Discover returns the first storefront-source.{toml,yaml,yml,json} in dir,
// or "" if there is none.
func Discover(dir string) string {
	for _, ext := range supportedExts {
		p := filepath.Join(dir, ConfigBaseName+ext)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// ReadFile parses a config file into a raw option map.
func ReadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	case ".json":
		err = json.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}

	if raw == nil {
		raw = make(map[string]any)
	}
	return raw, nil
}

// DecodeOptions decodes loosely typed plugin options onto the defaults.
// Strings are accepted for numbers and booleans, a comma-separated string
// for shopifyConnections, and Go duration strings for requestTimeout.
// Unknown keys are logged and ignored.
func DecodeOptions(raw map[string]any) (domain.Options, error) {
	opts := domain.DefaultOptions()

	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ZeroFields:       true,
		Metadata:         &md,
		Result:           &opts,
	})
	if err != nil {
		return domain.Options{}, fmt.Errorf("creating decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return domain.Options{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	if len(md.Unused) > 0 {
		sort.Strings(md.Unused)
		logger.Warn("ignoring unknown options: %s", strings.Join(md.Unused, ", "))
	}

	for i, c := range opts.Connections {
		opts.Connections[i] = strings.TrimSpace(c)
	}
	return opts, nil
}

// LoadOptions reads path (if non-empty), applies environment overrides
// from getenv and decodes the result. A nil getenv reads the process
// environment.
func LoadOptions(path string, getenv func(string) string) (domain.Options, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	raw := make(map[string]any)
	if path != "" {
		loaded, err := ReadFile(path)
		if err != nil {
			return domain.Options{}, fmt.Errorf("loading config: %w", err)
		}
		raw = loaded
	}

	if v := getenv(EnvShopName); v != "" {
		raw["shopName"] = v
	}
	if v := getenv(EnvAccessToken); v != "" {
		raw["accessToken"] = v
	}

	return DecodeOptions(raw)
}
