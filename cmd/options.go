// Copyright © 2024 The ELPS authors

package cmd

import (
	"github.com/luthersystems/flakes/lint"
)

// Option configures an exported command factory (CheckCommand,
// LSPCommand, ReplCommand).
type Option func(*cmdConfig)

type cmdConfig struct {
	analyzers []*lint.Analyzer
	builtins  []string
}

// WithAnalyzers adds checks to the built-in set. Embedders use it to run
// project-specific analyzers alongside the default ones.
func WithAnalyzers(analyzers ...*lint.Analyzer) Option {
	return func(c *cmdConfig) { c.analyzers = append(c.analyzers, analyzers...) }
}

// WithBuiltins defines names in addition to the Python builtins, as for
// code that runs with injected globals.
func WithBuiltins(names ...string) Option {
	return func(c *cmdConfig) { c.builtins = append(c.builtins, names...) }
}

func newCmdConfig(opts []Option) *cmdConfig {
	var cfg cmdConfig
	for _, o := range opts {
		o(&cfg)
	}
	return &cfg
}

// selectAnalyzers resolves the --checks and --disable lists and appends
// the embedder's analyzers, which are always run.
func (c *cmdConfig) selectAnalyzers(enable, disable []string) ([]*lint.Analyzer, error) {
	analyzers, err := lint.Select(enable, disable)
	if err != nil {
		return nil, err
	}
	return append(analyzers, c.analyzers...), nil
}
