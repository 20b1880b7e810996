// Package cli implements the storefront-source command line.
package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/storefront-source/internal/core/domain"
	"github.com/custodia-labs/storefront-source/internal/core/ports/driven"
	"github.com/custodia-labs/storefront-source/internal/core/ports/driving"
)

// version is set at build time.
var version = "dev"

// StoreOpener opens the node store named by --store.
type StoreOpener func(ctx context.Context, kind string) (driven.NodeStore, error)

// SourcerFactory builds a sourcer registering nodes in store. It is called
// for every run so options such as the image cache dir take effect.
type SourcerFactory func(store driven.NodeStore, opts domain.Options) (driving.Sourcer, error)

// Config holds the dependencies wired by main.
type Config struct {
	OpenStore  StoreOpener
	NewSourcer SourcerFactory

	// Gatherer backs the /metrics endpoint of serve. Optional.
	Gatherer prometheus.Gatherer
}

// cliConfig holds the current configuration.
var cliConfig *Config

var rootCmd = &cobra.Command{
	Use:   "storefront-source",
	Short: "Source Shopify storefront content into a node store",
	Long: `Fetches shop policies, pages with their metafields and navigation menus
from the Shopify Storefront GraphQL API and registers them as nodes in a
local store.

Options are read from storefront-source.{toml,yaml,yml,json} in the current
directory (or --config), then SHOPIFY_SHOP_NAME and SHOPIFY_ACCESS_TOKEN,
then command line flags.`,
	SilenceUsage: true,
}

// Configure sets the dependencies used by the commands.
func Configure(cfg *Config) {
	cliConfig = cfg
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func configured() bool {
	return cliConfig != nil && cliConfig.OpenStore != nil && cliConfig.NewSourcer != nil
}
