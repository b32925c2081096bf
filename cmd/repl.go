// Copyright © 2018 The ELPS authors

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/luthersystems/flakes/analysis"
	"github.com/luthersystems/flakes/diagnostic"
	"github.com/luthersystems/flakes/lint"
	"github.com/luthersystems/flakes/repl"
)

// ReplCommand creates the "repl" cobra command.
func ReplCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	return &cobra.Command{
		Use:   "repl",
		Short: "Check Python interactively",
		Long: `Start an interactive checker for Python code.

Each statement is checked as soon as it is entered, together with
everything entered before it. A line ending in ":" starts a block that
ends at the next blank line. Unused imports are not reported, since a
later entry may use them.

Commands:
  :reset     Forget everything entered so far
  :source    Print everything entered so far

Example session:
  >>> import os
  >>> def f():
  ...     return os.path.joinn(a)
  ...
  error[undefined-name]: undefined name 'a'
  >>> :reset`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			analyzers, err := cfg.selectAnalyzers(nil, []string{lint.AnalyzerUnusedImport.Name})
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			log := newLogger()
			return repl.Run(cmd.Context(), ">>> ",
				repl.WithStderr(cmd.ErrOrStderr()),
				repl.WithColor(diagnostic.ParseColorMode(viper.GetString("color"))),
				repl.WithLogger(log),
				repl.WithLinter(&lint.Linter{
					Analyzers: analyzers,
					Config: &analysis.Config{
						Builtins: cfg.builtins,
						Logger:   log,
					},
				}))
		},
	}
}

func init() {
	rootCmd.AddCommand(ReplCommand())
}
