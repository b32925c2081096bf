// Copyright © 2021 The ELPS authors

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"github.com/luthersystems/flakes/docs"
	"github.com/luthersystems/flakes/lint"
)

// ExplainCommand creates the "explain" cobra command. Analyzers added
// with WithAnalyzers can be explained too.
func ExplainCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)
	var guide bool

	cmd := &cobra.Command{
		Use:   "explain [flags] CHECK",
		Short: "Describe a check and show examples of what it reports",
		Long: `Describe a check by name or code.

The description says what the check reports and when it stays silent.
Most checks also show a short example of code that triggers them.

Examples:
  flakes explain unused-import     Describe a check by name
  flakes explain F821              Describe a check by code
  flakes explain --guide           Show the full check reference`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := bufio.NewWriter(cmd.OutOrStdout())
			defer out.Flush() //nolint:errcheck // best-effort flush on exit
			if guide {
				_, err := io.WriteString(out, docs.ChecksGuide)
				return err
			}
			if len(args) != 1 {
				_, err := io.WriteString(out, "Available checks:\n"+lint.AnalyzerDoc())
				return err
			}
			a, ok := cfg.lookup(args[0])
			if !ok {
				return &exitError{code: 2, err: fmt.Errorf("unknown check: %q", args[0])}
			}
			return renderExplanation(out, a)
		},
	}

	cmd.Flags().BoolVar(&guide, "guide", false, "Show the reference for every check.")
	return cmd
}

// lookup finds a built-in or embedder analyzer by name or code.
func (c *cmdConfig) lookup(name string) (*lint.Analyzer, bool) {
	if a, ok := lint.Lookup(name); ok {
		return a, true
	}
	for _, a := range c.analyzers {
		if strings.EqualFold(a.Name, name) || (a.Code != "" && strings.EqualFold(a.Code, name)) {
			return a, true
		}
	}
	return nil, false
}

func renderExplanation(w io.Writer, a *lint.Analyzer) error {
	header := a.Name
	if a.Code != "" {
		header += " (" + a.Code + ")"
	}
	if _, err := fmt.Fprintf(w, "%s [%s]\n\n", header, a.Severity); err != nil {
		return err
	}
	for _, para := range strings.Split(a.Doc, "\n\n") {
		para = strings.Join(strings.Fields(para), " ")
		if _, err := fmt.Fprintf(w, "%s\n\n", indent.String(wordwrap.String(para, 72), 2)); err != nil {
			return err
		}
	}
	if ex := guideSection(docs.ChecksGuide, a.Name); ex != "" {
		if _, err := fmt.Fprintf(w, "Example:\n%s\n", indent.String(ex, 2)); err != nil {
			return err
		}
	}
	return nil
}

// guideSection returns the body of the "## name" section of guide.
func guideSection(guide, name string) string {
	var b strings.Builder
	in := false
	for _, line := range strings.Split(guide, "\n") {
		if strings.HasPrefix(line, "## ") {
			if in {
				break
			}
			in = strings.TrimSpace(strings.TrimPrefix(line, "## ")) == name
			continue
		}
		if in {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return strings.Trim(b.String(), "\n")
}

func init() {
	rootCmd.AddCommand(ExplainCommand())
}
