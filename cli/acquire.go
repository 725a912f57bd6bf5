package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/zillowkit/acquire"
	"github.com/YuminosukeSato/zillowkit/pkg/log"
	"github.com/YuminosukeSato/zillowkit/prepare"
)

func (a *app) acquireCommand() *cobra.Command {
	var cachePath string

	cmd := &cobra.Command{
		Use:   "acquire",
		Short: "Load the raw property table, fetching and caching it on first use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start := time.Now()
			acq := a.acquirer(cachePath)

			df, err := acq.AcquireZillow(cmd.Context())
			if err != nil {
				return err
			}

			a.logger.Info("acquire finished",
				log.OperationKey, log.OperationFetch,
				log.CachePathKey, acq.CachePath(),
				log.SamplesKey, df.Nrow(),
				log.DurationMsKey, time.Since(start).Milliseconds(),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "%d rows, %d columns (%s)\n", df.Nrow(), df.Ncol(), acq.CachePath())
			return nil
		},
	}

	cmd.Flags().StringVar(&cachePath, "cache", "", "raw cache file (default from config)")
	return cmd
}

func (a *app) prepareCommand() *cobra.Command {
	var (
		cachePath string
		outPath   string
		dummies   bool
	)

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Clean the raw table and write it to the prepared cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start := time.Now()
			var opts []acquire.Option
			if outPath != "" {
				opts = append(opts, acquire.WithPreparedPath(outPath))
			}
			acq := a.acquirer(cachePath, opts...)

			df, err := prepare.WrangleZillow(cmd.Context(), acq)
			if err != nil {
				return err
			}
			if dummies {
				if df, err = prepare.ZillowCountyDataAsInt(df); err != nil {
					return err
				}
			}
			if err := acq.SavePrepared(df); err != nil {
				return err
			}

			a.logger.Info("prepare finished",
				log.OperationKey, log.OperationPrepare,
				log.CachePathKey, acq.PreparedPath(),
				log.SamplesKey, df.Nrow(),
				log.DurationMsKey, time.Since(start).Milliseconds(),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "%d rows, %d columns (%s)\n", df.Nrow(), df.Ncol(), acq.PreparedPath())
			return nil
		},
	}

	cmd.Flags().StringVar(&cachePath, "cache", "", "raw cache file (default from config)")
	cmd.Flags().StringVar(&outPath, "out", "", "prepared output file (default from config)")
	cmd.Flags().BoolVar(&dummies, "dummies", false, "replace county by county_LA, county_Orange and county_Ventura indicators")
	return cmd
}
