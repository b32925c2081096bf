// Copyright © 2018 The ELPS authors

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "flakes",
	Short: "flakes: fast static checks for Python source",
	Long: `flakes checks Python source files for errors without importing or
running them. It reports undefined names, unused imports and variables,
redefinitions, repeated dictionary keys and mistakes in docstring examples.

flakes never reports style issues; it looks only for code that is likely
wrong.

Getting started:
  flakes check file.py            Check a single file
  flakes check ./...              Check every .py file below the directory
  flakes check --doctests pkg/... Check docstring examples too
  flakes explain unused-import    Describe a check
  flakes repl                     Check code interactively
  flakes lsp                      Serve diagnostics to an editor

Configuration:
  Flags may also be set in .flakes.yaml (in the working directory or your
  home directory) or through FLAKES_ environment variables, for example
  FLAKES_DOCTESTS=true or FLAKES_LOG_LEVEL=debug.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(os.Stderr, ee.err)
		}
		return ee.code
	}
	fmt.Fprintln(os.Stderr, err)
	return 2
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.flakes.yaml or $HOME/.flakes.yaml)")
	rootCmd.PersistentFlags().String("color", "auto",
		`Control colored output: "auto", "always", or "never".`)
	rootCmd.PersistentFlags().String("log-level", "warning",
		"Log level: panic, fatal, error, warning, info, debug or trace.")
	_ = viper.BindPFlag("color", rootCmd.PersistentFlags().Lookup("color"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".flakes")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("FLAKES")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	log := newLogger()
	if err == nil {
		log.WithField("file", viper.ConfigFileUsed()).Debug("using config file")
		return
	}
	var notFound viper.ConfigFileNotFoundError
	if cfgFile != "" || !errors.As(err, &notFound) {
		log.WithError(err).Warn("unable to read config file")
	}
}

// newLogger returns a logger writing to stderr at the configured level.
func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	level, err := logrus.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		level = logrus.WarnLevel
	}
	log.SetLevel(level)
	return log
}
