// Package cli implements the zillow command tree.
package cli

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/zillowkit/acquire"
	"github.com/YuminosukeSato/zillowkit/config"
	"github.com/YuminosukeSato/zillowkit/pkg/errors"
	"github.com/YuminosukeSato/zillowkit/pkg/log"
)

// app carries the state shared by the subcommands of one invocation.
type app struct {
	cfgFile  string
	logLevel string

	cfg    *config.Config
	logger log.Logger
	runID  string
}

// NewRootCommand builds the zillow command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "zillow",
		Short:         "Acquire, prepare and model Zillow housing data",
		Long:          `zillow loads single family property records from a local cache or the properties database, cleans them for regression modelling, rescales features and scores predictions against a mean baseline.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./zillowkit.yaml when present)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")

	root.AddCommand(
		a.acquireCommand(),
		a.prepareCommand(),
		a.scaleCommand(),
		a.fitCommand(),
		a.evaluateCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return errors.NewValidationError("log-level", "must be debug, info, warn or error", cfg.Log.Level)
	}

	provider := log.NewZerologProviderWithWriter(cmd.ErrOrStderr(), level)
	provider.RouteWarnings()
	log.SetProvider(provider)

	a.cfg = cfg
	a.runID = uuid.NewString()
	a.logger = provider.GetLoggerWithName("cli").With(log.RunIDKey, a.runID)
	a.logger.Debug("command started", "command", cmd.CommandPath())
	return nil
}

// acquirer builds an Acquirer over the configured caches. cachePath overrides
// the raw cache location when non-empty.
func (a *app) acquirer(cachePath string, opts ...acquire.Option) *acquire.Acquirer {
	if cachePath == "" {
		cachePath = a.cfg.Cache.RawPath
	}
	base := []acquire.Option{
		acquire.WithCachePath(cachePath),
		acquire.WithPreparedPath(a.cfg.Cache.PreparedPath),
		acquire.WithSource(acquire.NewConfigSource(a.cfg.Database)),
		acquire.WithLogger(log.GetLoggerWithName("acquire").With(log.RunIDKey, a.runID)),
	}
	return acquire.New(append(base, opts...)...)
}
