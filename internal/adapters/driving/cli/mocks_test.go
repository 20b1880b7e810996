package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/storefront-source/internal/adapters/driven/config/file"
	"github.com/custodia-labs/storefront-source/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/storefront-source/internal/core/domain"
	"github.com/custodia-labs/storefront-source/internal/core/ports/driven"
	"github.com/custodia-labs/storefront-source/internal/core/ports/driving"
	"github.com/custodia-labs/storefront-source/internal/logger"
)

// mockSourcer implements driving.Sourcer for testing.
type mockSourcer struct {
	calls    []domain.Options
	report   *domain.SourceReport
	err      error
	onSource func()
}

func (m *mockSourcer) SourceNodes(_ context.Context, opts domain.Options) (*domain.SourceReport, error) {
	m.calls = append(m.calls, opts)
	if m.onSource != nil {
		m.onSource()
	}
	report := m.report
	if report == nil {
		report = &domain.SourceReport{Nodes: map[string]int{}, StartedAt: time.Now()}
	}
	return report, m.err
}

// cliHarness wires a memory store and a mock sourcer into the commands.
type cliHarness struct {
	store    *memory.NodeStore
	sourcer  *mockSourcer
	kinds    []string
	out      *bytes.Buffer
	storeErr error
}

func setupCLITest(t *testing.T) *cliHarness {
	t.Helper()

	h := &cliHarness{
		store:   memory.NewNodeStore(),
		sourcer: &mockSourcer{},
		out:     new(bytes.Buffer),
	}

	oldConfig := cliConfig
	cliConfig = &Config{
		OpenStore: func(_ context.Context, kind string) (driven.NodeStore, error) {
			h.kinds = append(h.kinds, kind)
			if h.storeErr != nil {
				return nil, h.storeErr
			}
			return h.store, nil
		},
		NewSourcer: func(driven.NodeStore, domain.Options) (driving.Sourcer, error) {
			return h.sourcer, nil
		},
	}

	t.Setenv(file.EnvShopName, "")
	t.Setenv(file.EnvAccessToken, "")

	oldOutput, oldVerbose, oldPrefix := logger.Output(), logger.IsVerbose(), logger.Prefix()
	logger.SetOutput(new(bytes.Buffer))

	rootCmd.SetOut(h.out)
	rootCmd.SetErr(h.out)

	t.Cleanup(func() {
		cliConfig = oldConfig
		logger.SetOutput(oldOutput)
		logger.SetVerbose(oldVerbose)
		logger.SetPrefix(oldPrefix)
		rootCmd.SetArgs(nil)
		resetCommands()
	})
	return h
}

// execute runs the root command with args.
func (h *cliHarness) execute(args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// resetCommands restores flag defaults and contexts, which cobra keeps
// between executions.
func resetCommands() {
	rootCmd.SetContext(context.Background())
	for _, cmd := range rootCmd.Commands() {
		cmd.SetContext(context.Background())
		resetFlags(cmd)
	}
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
}
