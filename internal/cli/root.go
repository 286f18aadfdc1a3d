// Package cli implements the usagechart terminal client.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ncecere/usage_dashboard/internal/app"
	"github.com/ncecere/usage_dashboard/internal/config"
	"github.com/ncecere/usage_dashboard/internal/sortspec"
)

type options struct {
	configFile string
	envFile    string
	baseURL    string
	sort       string
	timeout    time.Duration
	verbose    bool

	loaded *config.Config
}

// Execute runs the root command against os.Args.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "usagechart",
		Short:        "Inspect current-period credit usage from the terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.Options{ConfigFile: opts.configFile, EnvFile: opts.envFile})
			if err != nil {
				return err
			}
			if opts.baseURL != "" {
				cfg.Upstream.BaseURL = opts.baseURL
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			opts.loaded = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTable(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "Path to usage.yaml (default: ./usage.yaml or $USAGE_CONFIG_FILE)")
	flags.StringVar(&opts.envFile, "env-file", "", "Path to a .env file")
	flags.StringVar(&opts.baseURL, "base-url", "", "Override upstream.base_url")
	flags.StringVar(&opts.sort, "sort", "", "Sort state, e.g. credits_used:desc,report_name:asc")
	flags.DurationVar(&opts.timeout, "timeout", time.Minute, "Overall request timeout")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log upstream activity to stderr")

	root.AddCommand(newTableCmd(opts))
	root.AddCommand(newChartCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	return root
}

func (o *options) container(ctx context.Context, stderr io.Writer) (*app.Container, error) {
	if o.loaded == nil {
		return nil, fmt.Errorf("config not loaded")
	}
	// one-shot runs keep reports in memory and export no telemetry
	cfg := *o.loaded
	cfg.Observability = config.ObservabilityConfig{}
	cfg.Database = config.DatabaseConfig{}
	cfg.Redis = config.RedisConfig{}
	cfg.RateLimits = config.RateLimitConfig{}
	level := slog.LevelError
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	return app.NewContainer(ctx, &cfg, nil, nil, logger)
}

func (o *options) sortSpec() sortspec.Spec {
	return sortspec.Parse(o.sort)
}

func (o *options) withTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if o.timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, o.timeout)
}
