// Copyright © 2024 The ELPS authors

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/luthersystems/flakes/analysis"
	"github.com/luthersystems/flakes/lint"
	"github.com/luthersystems/flakes/literal"
	"github.com/luthersystems/flakes/parser"
)

const stdinName = "<stdin>"

// CheckCommand creates the "check" cobra command. Embedders can pass
// WithAnalyzers or WithBuiltins to extend the checks.
func CheckCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	cmd := &cobra.Command{
		Use:   "check [flags] [files...]",
		Short: "Check Python source files for likely mistakes",
		Long: `Check Python source files for likely mistakes.

Each file is parsed and analyzed without being imported or run. Checks
report undefined names, unused imports and variables, redefinitions,
repeated dictionary keys and other code that is almost certainly wrong.
No style issues are reported.

With no files, reads from stdin. Directories and patterns ending in
"/..." are expanded to every .py file below them.

Exit codes:
  0  No problems found
  1  One or more problems were reported
  2  Bad invocation (invalid flags, unreadable files)

To suppress diagnostics on a line, add a comment:
  import os  # noqa
  import os  # noqa: F401
  import os  # noqa: unused-import

Available checks (use --checks or --disable to select):
` + lint.AnalyzerDoc() + `
Examples:
  flakes check file.py                         # Check a single file
  flakes check ./...                           # Check every .py file below .
  flakes check --json pkg/                     # Output diagnostics as JSON
  flakes check --checks=F821,F401 file.py      # Run only specific checks
  flakes check --disable=unused-variable ./... # Skip a check
  flakes check --doctests ./...                # Check docstring examples too
  flakes check --exclude='tests' ./...         # Exclude a directory
  cat file.py | flakes check                   # Check stdin`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if viper.GetBool("list") {
				for _, name := range lint.AnalyzerNames() {
					fmt.Fprintln(cmd.OutOrStdout(), name) //nolint:errcheck // best-effort output
				}
				return nil
			}

			analyzers, err := cfg.selectAnalyzers(
				splitList(viper.GetStringSlice("checks")),
				splitList(viper.GetStringSlice("disable")))
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			log := newLogger()
			l := &lint.Linter{
				Analyzers: analyzers,
				Config: &analysis.Config{
					Doctests: viper.GetBool("doctests"),
					Builtins: append(append([]string(nil), cfg.builtins...), splitList(viper.GetStringSlice("builtins"))...),
					Literal: literal.Options{
						BytesEqualText: viper.GetBool("bytes-equal-text"),
					},
					Logger: log,
				},
			}

			var results []fileResult
			if len(args) == 0 {
				src, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return &exitError{code: 2, err: fmt.Errorf("reading stdin: %w", err)}
				}
				res, err := checkSource(cmd.Context(), l, src, stdinName)
				if err != nil {
					return &exitError{code: 2, err: err}
				}
				results = append(results, res)
			} else {
				paths, err := expandArgs(args, viper.GetStringSlice("exclude"))
				if err != nil {
					return &exitError{code: 2, err: err}
				}
				log.WithField("files", len(paths)).Debug("checking files")
				results, err = checkFiles(cmd.Context(), l, paths, viper.GetInt("jobs"))
				if err != nil {
					return &exitError{code: 2, err: err}
				}
			}

			var all []lint.Diagnostic
			for _, r := range results {
				all = append(all, r.diags...)
			}
			if len(all) == 0 {
				return nil
			}
			if viper.GetBool("json") {
				if err := lint.FormatJSON(cmd.OutOrStdout(), all); err != nil {
					return &exitError{code: 2, err: err}
				}
			} else {
				renderResults(cmd.ErrOrStderr(), results)
			}
			return &exitError{code: 1}
		},
	}

	flags := cmd.Flags()
	flags.Bool("json", false, "Output diagnostics as JSON.")
	flags.StringSlice("checks", nil, "Comma-separated checks to run, by name or code (default: all).")
	flags.StringSlice("disable", nil, "Comma-separated checks to skip, by name or code.")
	flags.Bool("list", false, "List available checks and exit.")
	flags.StringArray("exclude", nil, "Glob pattern for files to exclude (may be repeated).")
	flags.Bool("doctests", false, "Check the interactive examples in docstrings.")
	flags.StringSlice("builtins", nil, "Comma-separated names to treat as defined everywhere.")
	flags.Int("jobs", runtime.GOMAXPROCS(0), "Number of files checked concurrently.")
	flags.Bool("bytes-equal-text", false, "Treat ASCII bytes keys as equal to text keys, as in Python 2.")
	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		return viper.BindPFlags(cmd.Flags())
	}
	return cmd
}

// fileResult holds the diagnostics for one input and the source they
// refer to.
type fileResult struct {
	path  string
	src   []byte
	diags []lint.Diagnostic
}

// checkFiles checks paths with at most jobs files in flight. Results keep
// the order of paths.
func checkFiles(ctx context.Context, l *lint.Linter, paths []string, jobs int) ([]fileResult, error) {
	results := make([]fileResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if jobs < 1 {
		jobs = 1
	}
	g.SetLimit(jobs)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			src, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			res, err := checkSource(ctx, l, src, path)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// checkSource checks a single input. A syntax error is a diagnostic, not
// a failure.
func checkSource(ctx context.Context, l *lint.Linter, src []byte, path string) (fileResult, error) {
	res := fileResult{path: path, src: src}
	diags, err := l.LintFile(ctx, src, path)
	if err != nil {
		var se *parser.SyntaxError
		if !errors.As(err, &se) {
			return res, err
		}
		diags = []lint.Diagnostic{lint.SyntaxDiagnostic(se)}
	}
	res.diags = diags
	return res, nil
}

// splitList flattens comma-separated values from flags and config files.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(CheckCommand())
}
