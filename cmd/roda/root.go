package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kritixilithos/roda/pkg/driver"
	"github.com/kritixilithos/roda/pkg/interpreter"
	"github.com/kritixilithos/roda/pkg/runtime"
)

var version = "dev"

type rootOptions struct {
	configPath string
	workers    int
	noDebug    bool
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{workers: -1}
	root := &cobra.Command{
		Use:   "roda",
		Short: "Run serialized Röda programs",
		Long: `roda evaluates programs and statements of the Röda pipe language that
were serialized as YAML or JSON syntax trees.

Settings come from roda.yaml, roda.yml or roda.toml in the working
directory (or --config), then RODA_* environment variables, then flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: ./roda.yaml, ./roda.yml or ./roda.toml)")
	root.PersistentFlags().IntVar(&opts.workers, "workers", -1, "maximum pipeline stages running at once (0 = unbounded)")
	root.PersistentFlags().BoolVar(&opts.noDebug, "no-debug", false, "do not record call stacks in errors")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(newRunCmd(opts), newExecCmd(opts), newVersionCmd())
	return root
}

// loadConfig merges the config file, the environment and the flags.
func (o *rootOptions) loadConfig() (*driver.Config, error) {
	cfg, err := driver.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.workers >= 0 {
		cfg.MaxWorkers = o.workers
	}
	if o.noDebug {
		cfg.Debug = false
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newInterpreter builds an engine wired to the command's standard streams.
func (o *rootOptions) newInterpreter(cmd *cobra.Command) (*interpreter.Interpreter, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := driver.NewLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	options := append(cfg.Options(),
		interpreter.WithLogger(logger),
		interpreter.WithStreams(runtime.NewLineReaderStream(cmd.InOrStdin()), runtime.NewWriterStream(cmd.OutOrStdout())),
	)
	logger.Debug("engine configured", "config", cfg.Path, "workers", cfg.MaxWorkers, "debug", cfg.Debug)
	return interpreter.New(options...), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the roda version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "roda %s\n", version)
		},
	}
}
