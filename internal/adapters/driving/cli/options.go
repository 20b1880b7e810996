package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/custodia-labs/storefront-source/internal/adapters/driven/config/file"
	"github.com/custodia-labs/storefront-source/internal/core/domain"
	"github.com/custodia-labs/storefront-source/internal/logger"
)

// addOptionFlags registers the flags that mirror domain.Options.
func addOptionFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "config file (default: ./storefront-source.{toml,yaml,yml,json})")
	fs.String("shop", "", "shop name or custom domain")
	fs.String("token", "", "storefront access token")
	fs.String("api-version", "", "storefront API version")
	fs.Int("page-size", 0, "page size for paginated queries (1-250)")
	fs.String("connections", "", "comma-separated families: shop, content, navigation")
	fs.Bool("download-images", true, "download remote images as file nodes")
	fs.Bool("shop-details", false, "also source the shop details node")
	fs.BoolP("verbose", "v", true, "print per-family timings")
	fs.Float64("rps", 0, "maximum storefront requests per second")
	fs.Duration("timeout", 0, "timeout for a single request")
	fs.String("image-dir", "", "directory downloaded images are written to")
}

// resolveOptions layers the config file, environment and changed flags,
// then validates the result. It returns the options and the config file
// path that was used.
func resolveOptions(fs *pflag.FlagSet) (domain.Options, string, error) {
	opts, path, err := loadOptions(fs)
	if err != nil {
		return domain.Options{}, "", err
	}
	if err := opts.Validate(); err != nil {
		return domain.Options{}, "", err
	}
	return opts, path, nil
}

// loadOptions is resolveOptions without validation.
func loadOptions(fs *pflag.FlagSet) (domain.Options, string, error) {
	path, err := fs.GetString("config")
	if err != nil {
		return domain.Options{}, "", fmt.Errorf("getting config flag: %w", err)
	}
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = file.Discover(wd)
		}
	}

	opts, err := file.LoadOptions(path, os.Getenv)
	if err != nil {
		return domain.Options{}, "", err
	}

	if fs.Changed("shop") {
		opts.ShopName, _ = fs.GetString("shop")
	}
	if fs.Changed("token") {
		opts.AccessToken, _ = fs.GetString("token")
	}
	if fs.Changed("api-version") {
		opts.APIVersion, _ = fs.GetString("api-version")
	}
	if fs.Changed("page-size") {
		opts.PaginationSize, _ = fs.GetInt("page-size")
	}
	if fs.Changed("connections") {
		raw, _ := fs.GetString("connections")
		opts.Connections = splitList(raw)
	}
	if fs.Changed("download-images") {
		opts.DownloadImages, _ = fs.GetBool("download-images")
	}
	if fs.Changed("shop-details") {
		opts.ShopDetails, _ = fs.GetBool("shop-details")
	}
	if fs.Changed("verbose") {
		opts.Verbose, _ = fs.GetBool("verbose")
	}
	if fs.Changed("rps") {
		opts.RequestsPerSecond, _ = fs.GetFloat64("rps")
	}
	if fs.Changed("timeout") {
		opts.RequestTimeout, _ = fs.GetDuration("timeout")
	}
	if fs.Changed("image-dir") {
		opts.ImageCacheDir, _ = fs.GetString("image-dir")
	}

	return opts, path, nil
}

// applyLogging configures the logger for a run.
func applyLogging(opts domain.Options) {
	logger.SetVerbose(opts.Verbose)
	logger.SetPrefix(namespace(opts))
}

// namespace is the message prefix for a shop.
func namespace(opts domain.Options) string {
	return "storefront-source/" + opts.ShopName
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
