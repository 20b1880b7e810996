package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/storefront-source/internal/core/domain"
	"github.com/custodia-labs/storefront-source/internal/core/services"
)

var queriesCmd = &cobra.Command{
	Use:   "queries [name]",
	Short: "Print the effective query documents",
	Long: `Prints the GraphQL documents a run would send, after applying the
shopifyQueries overrides from the config file.

Known names: shopPolicies, shopDetails, pages, menu.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQueries,
}

func init() {
	queriesCmd.Flags().StringP("config", "c", "", "config file (default: ./storefront-source.{toml,yaml,yml,json})")
	rootCmd.AddCommand(queriesCmd)
}

func runQueries(cmd *cobra.Command, args []string) error {
	opts, _, err := loadOptions(cmd.Flags())
	if err != nil {
		return err
	}
	queries := services.ResolveQueries(opts.Queries)

	if len(args) > 0 {
		doc := queries.Get(domain.QueryName(args[0]))
		if doc == "" {
			return fmt.Errorf("%w: unknown query %q", domain.ErrInvalidInput, args[0])
		}
		cmd.Println(strings.TrimSpace(doc))
		return nil
	}

	names := make([]string, 0, len(queries))
	for name := range queries {
		names = append(names, string(name))
	}
	sort.Strings(names)
	for _, name := range names {
		cmd.Printf("# %s\n%s\n\n", name, strings.TrimSpace(queries[domain.QueryName(name)]))
	}
	return nil
}
