// Package cli implements the simring command line.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/simring"
	"github.com/hupe1980/simring/persistence"
)

const defaultConfigPath = "simring.yaml"

// RootOptions holds the persistent flags and the resolved configuration.
type RootOptions struct {
	ConfigPath string
	Store      string
	CacheSize  int64
	LogLevel   string
	Verbose    bool

	config *Config
	logger *simring.Logger
}

// NewRootCommand returns the simring command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "simring",
		Short:         "Similarity joins over an RDF triple ring",
		Long:          "simring builds compact triple and k-NN indexes and evaluates conjunctive queries with similarity patterns using the leapfrog triejoin.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.resolve(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", defaultConfigPath, "path to the YAML config")
	cmd.PersistentFlags().StringVarP(&opts.Store, "store", "s", "", "index store: a directory, s3://bucket/prefix or minio://bucket/prefix")
	cmd.PersistentFlags().Int64Var(&opts.CacheSize, "cache-size", 0, "block cache size in bytes (0 disables)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level: debug, info, warn or error")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "shorthand for --log-level=debug")

	cmd.AddCommand(
		NewBuildCommand(opts),
		NewQueryCommand(opts),
		NewStatsCommand(opts),
	)

	return cmd
}

func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := LoadConfig(o.ConfigPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Store = o.Store
	}

	if flags.Changed("cache-size") {
		cfg.CacheSize = o.CacheSize
	}

	if flags.Changed("log-level") {
		cfg.LogLevel = o.LogLevel
	}

	if o.Verbose {
		cfg.LogLevel = "debug"
	}

	level, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	o.config = cfg
	o.logger = simring.NewLogger(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	return nil
}

// Config returns the resolved configuration.
func (o *RootOptions) Config() *Config {
	if o.config == nil {
		return DefaultConfig()
	}

	return o.config
}

func (o *RootOptions) dbOptions() ([]simring.Option, error) {
	cfg := o.Config()

	c, err := persistence.ParseCompression(cfg.Compression)
	if err != nil {
		return nil, err
	}

	dbOpts := []simring.Option{
		simring.WithCompression(c),
		simring.WithDefaultTimeout(cfg.Query.Timeout),
	}

	if o.logger != nil {
		dbOpts = append(dbOpts, simring.WithLogger(o.logger))
	}

	if cfg.Query.MaxConcurrent > 0 {
		dbOpts = append(dbOpts, simring.WithMaxConcurrentQueries(cfg.Query.MaxConcurrent))
	}

	return dbOpts, nil
}
