// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/luthersystems/flakes/analysis"
	"github.com/luthersystems/flakes/lint"
	"github.com/luthersystems/flakes/lsp"
)

// LSPCommand creates the "lsp" cobra command with optional embedder
// configuration. Embedders can pass WithAnalyzers or WithBuiltins to
// change what the server reports.
func LSPCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	var (
		stdio bool
		port  int
	)

	cmd := &cobra.Command{
		Use:   "lsp [flags]",
		Short: "Start the flakes Language Server Protocol server",
		Long: `Start an LSP server for Python source files.

The language server checks documents as they are edited and publishes
diagnostics. It also provides document symbols and quick fixes that add
"# noqa" comments.

Transport modes:
  --stdio      Use stdin/stdout for LSP communication (default)
  --port N     Listen for an LSP client on TCP port N

Examples:
  flakes lsp                         Start with stdio transport
  flakes lsp --stdio                 Same as above (explicit)
  flakes lsp --port 7998             Start with TCP on port 7998

Editor configuration (VS Code):
  Install a generic LSP client extension and configure it to run
  "flakes lsp --stdio" for .py files.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			log := newLogger()
			analyzers, err := cfg.selectAnalyzers(nil, nil)
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			srv := lsp.New(
				lsp.WithLogger(log),
				lsp.WithLinter(&lint.Linter{
					Analyzers: analyzers,
					Config: &analysis.Config{
						Doctests: viper.GetBool("doctests"),
						Builtins: cfg.builtins,
						Logger:   log,
					},
				}),
			)

			if !stdio && port > 0 {
				addr := fmt.Sprintf("localhost:%d", port)
				log.WithField("addr", addr).Info("flakes LSP server listening")
				if err := srv.RunTCP(addr); err != nil {
					return &exitError{code: 1, err: fmt.Errorf("lsp server error: %w", err)}
				}
				return nil
			}
			if err := srv.RunStdio(); err != nil {
				return &exitError{code: 1, err: fmt.Errorf("lsp server error: %w", err)}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false,
		"Use stdin/stdout for LSP communication (default behavior)")
	cmd.Flags().IntVar(&port, "port", 0,
		"TCP port for LSP server (use instead of --stdio)")

	return cmd
}

func init() {
	rootCmd.AddCommand(LSPCommand())
}
