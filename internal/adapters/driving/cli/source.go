package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/storefront-source/internal/core/domain"
	"github.com/custodia-labs/storefront-source/internal/core/ports/driven"
	"github.com/custodia-labs/storefront-source/internal/logger"
)

// watchDebounce coalesces bursts of config file events.
var watchDebounce = 500 * time.Millisecond

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Fetch storefront content into the node store",
	Long: `Fetches the selected content families from the storefront API and
registers them as nodes.

Examples:
  # Source everything into the default SQLite store
  storefront-source source --shop my-shop --token $TOKEN

  # Only menus and policies, removing nodes that disappeared upstream
  storefront-source source --connections shop,navigation --prune

  # Re-source whenever the config file changes
  storefront-source source --config storefront-source.toml --watch`,
	Args: cobra.NoArgs,
	RunE: runSource,
}

func init() {
	addOptionFlags(sourceCmd.Flags())
	sourceCmd.Flags().String("store", "sqlite", "node store: memory, sqlite or neo4j")
	sourceCmd.Flags().Bool("prune", false, "delete stored nodes of the sourced families not seen in this run")
	sourceCmd.Flags().Bool("watch", false, "re-run whenever the config file changes")
	rootCmd.AddCommand(sourceCmd)
}

func runSource(cmd *cobra.Command, _ []string) error {
	if !configured() {
		return errors.New("sourcing service not configured")
	}

	opts, path, err := resolveOptions(cmd.Flags())
	if err != nil {
		return err
	}
	kind, _ := cmd.Flags().GetString("store")
	prune, _ := cmd.Flags().GetBool("prune")
	watch, _ := cmd.Flags().GetBool("watch")
	if watch && path == "" {
		return errors.New("--watch requires a config file")
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := cliConfig.OpenStore(ctx, kind)
	if err != nil {
		return fmt.Errorf("open %s store: %w", kind, err)
	}
	defer store.Close()

	_, err = sourceOnce(ctx, cmd, store, opts, prune)
	if !watch {
		return err
	}
	if err != nil {
		logger.Error("%v", err)
	}

	cmd.Printf("Watching %s for changes...\n", path)
	return watchConfig(ctx, path, watchDebounce, func() {
		opts, _, err := resolveOptions(cmd.Flags())
		if err != nil {
			logger.Error("reload config: %v", err)
			return
		}
		if _, err := sourceOnce(ctx, cmd, store, opts, prune); err != nil {
			logger.Error("%v", err)
		}
	})
}

// sourceOnce runs one sourcing pass, prints its report and optionally
// prunes stale nodes of the sourced families.
func sourceOnce(
	ctx context.Context,
	cmd *cobra.Command,
	store driven.NodeStore,
	opts domain.Options,
	prune bool,
) (*domain.SourceReport, error) {
	applyLogging(opts)

	sourcer, err := cliConfig.NewSourcer(store, opts)
	if err != nil {
		return nil, fmt.Errorf("create sourcer: %w", err)
	}

	selector, err := opts.Selector()
	if err != nil {
		return nil, err
	}
	families := make([]string, 0, len(selector))
	for _, f := range selector.Families() {
		families = append(families, string(f))
	}
	if len(families) == 0 {
		families = append(families, "nothing")
	}
	cmd.Printf("Sourcing %s from %s...\n", strings.Join(families, ", "), opts.ShopName)

	report, err := sourcer.SourceNodes(ctx, opts)
	if err != nil {
		return report, fmt.Errorf("source nodes: %w", err)
	}
	printReport(cmd, report)

	if prune {
		nodeTypes, err := opts.NodeTypes()
		if err != nil {
			return report, err
		}
		deleted, err := store.Prune(ctx, nodeTypes, report.StartedAt)
		if err != nil {
			return report, fmt.Errorf("prune: %w", err)
		}
		cmd.Printf("Pruned %d stale nodes.\n", deleted)
	}
	return report, nil
}

func printReport(cmd *cobra.Command, report *domain.SourceReport) {
	cmd.Printf("Sourced %d nodes in %s.\n", report.Total(), report.Duration.Round(time.Millisecond))
	for _, t := range report.Types() {
		cmd.Printf("  %-24s %d\n", t, report.Nodes[t])
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
