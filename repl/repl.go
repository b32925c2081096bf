// Copyright © 2018 The ELPS authors

// Package repl implements an interactive checker. Each block of Python
// entered at the prompt is checked together with the blocks before it and
// the problems found in the new block are printed right away.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"github.com/sirupsen/logrus"

	"github.com/luthersystems/flakes/diagnostic"
	"github.com/luthersystems/flakes/lint"
)

type config struct {
	stdin   io.ReadCloser
	stderr  io.Writer
	linter  *lint.Linter
	color   diagnostic.ColorMode
	history string
	log     logrus.FieldLogger
}

func newConfig(opts ...Option) *config {
	config := &config{history: historyPath()}
	for _, opt := range opts {
		opt(config)
	}
	if config.linter == nil {
		analyzers, _ := lint.Select(nil, []string{lint.AnalyzerUnusedImport.Name})
		config.linter = &lint.Linter{Analyzers: analyzers}
	}
	if config.stderr == nil {
		config.stderr = os.Stderr
	}
	if config.log == nil {
		log := logrus.New()
		log.SetOutput(io.Discard)
		config.log = log
	}
	return config
}

type Option func(*config)

// WithStdin allows overriding the input to the REPL.
func WithStdin(stdin io.ReadCloser) Option {
	return func(c *config) {
		c.stdin = stdin
	}
}

// WithStderr allows overriding the output to the REPL.
func WithStderr(stderr io.Writer) Option {
	return func(c *config) {
		c.stderr = stderr
	}
}

// WithLinter sets the checks run on each block. By default every check
// except unused-import runs, since a name imported in one block is
// usually used in a later one.
func WithLinter(l *lint.Linter) Option {
	return func(c *config) {
		c.linter = l
	}
}

// WithColor sets the color mode for rendered diagnostics.
func WithColor(mode diagnostic.ColorMode) Option {
	return func(c *config) {
		c.color = mode
	}
}

// WithHistoryFile sets the readline history file. An empty path disables
// history.
func WithHistoryFile(path string) Option {
	return func(c *config) {
		c.history = path
	}
}

// WithLogger sets the logger for session events.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *config) {
		c.log = log
	}
}

// Run reads blocks from the terminal until EOF. A line that opens a
// compound statement starts a block which ends at the next blank line.
// The commands :reset and :source clear and print the session.
func Run(ctx context.Context, prompt string, opts ...Option) error {
	cfg := newConfig(opts...)
	cont := strings.Repeat(".", len(strings.TrimRight(prompt, " ")))
	if len(prompt) > len(cont) {
		cont += strings.Repeat(" ", len(prompt)-len(cont))
	}

	ensureHistoryFilePermissions(cfg.history)
	session := NewSession(cfg.linter)
	rlCfg := &readline.Config{
		Stdout:            cfg.stderr,
		Stderr:            cfg.stderr,
		Prompt:            prompt,
		HistoryFile:       cfg.history,
		HistorySearchFold: true,
		AutoComplete:      &nameCompleter{session: session},
	}
	if cfg.stdin != nil {
		rlCfg.Stdin = cfg.stdin
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return fmt.Errorf("starting readline: %w", err)
	}
	defer rl.Close() //nolint:errcheck // best-effort cleanup

	renderer := &diagnostic.Renderer{Color: cfg.color}
	var block []string
	flush := func() {
		text := strings.Join(block, "\n")
		block = block[:0]
		rl.SetPrompt(prompt)
		pending := session.Source() + text + "\n"
		diags, err := session.Check(ctx, text)
		if err != nil {
			cfg.log.WithError(err).Error("check failed")
			fmt.Fprintln(cfg.stderr, err) //nolint:errcheck // best-effort error display
			return
		}
		renderDiagnostics(cfg.stderr, renderer, diags, pending)
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line, err := rl.ReadLine()
		if errors.Is(err, readline.ErrInterrupt) {
			block = block[:0]
			rl.SetPrompt(prompt)
			continue
		}
		if err != nil {
			if len(block) > 0 {
				flush()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if len(block) == 0 {
			switch strings.TrimSpace(line) {
			case "":
				continue
			case ":reset":
				session.Reset()
				cfg.log.Debug("session reset")
				continue
			case ":source":
				fmt.Fprint(cfg.stderr, session.Source()) //nolint:errcheck // best-effort REPL output
				continue
			}
		}

		if len(block) > 0 && strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		block = append(block, line)
		if len(block) == 1 && !opensBlock(line) {
			flush()
			continue
		}
		rl.SetPrompt(cont)
	}
}

// opensBlock reports whether line needs continuation lines, because it
// ends a compound statement header or leaves a bracket open.
func opensBlock(line string) bool {
	trimmed := strings.TrimRight(line, " \t")
	if strings.HasSuffix(trimmed, ":") || strings.HasSuffix(trimmed, "\\") || strings.HasPrefix(trimmed, "@") {
		return true
	}
	depth := 0
	for _, r := range trimmed {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '#':
			return depth > 0
		}
	}
	return depth > 0
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".flakes_history")
}

// ensureHistoryFilePermissions creates the history file if needed and
// restricts it to the owner, since it may hold source code.
func ensureHistoryFilePermissions(path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o600) //nolint:gosec // path is the user's own history file
	if err != nil {
		return
	}
	_ = f.Close()
	_ = os.Chmod(path, 0o600)
}
