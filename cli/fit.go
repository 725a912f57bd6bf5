package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/zillowkit/acquire"
	"github.com/YuminosukeSato/zillowkit/linear"
	"github.com/YuminosukeSato/zillowkit/pkg/log"
)

func (a *app) fitCommand() *cobra.Command {
	var (
		inPath   string
		outPath  string
		features []string
		target   string
		predCol  string
	)

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a least squares model and write its predictions next to the data",
		Long: `fit regresses --target on --features of --in and writes the table with an
added prediction column to --out, ready for "zillow evaluate".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			df, err := acquire.ReadCache(inPath)
			if err != nil {
				return err
			}
			out, lr, err := linear.FitPredictColumns(df, features, target, predCol)
			if err != nil {
				return err
			}

			dst := a.acquirer("", acquire.WithPreparedPath(outPath))
			if err := dst.SavePrepared(out); err != nil {
				return err
			}

			a.logger.Info("fit finished",
				log.OperationKey, log.OperationFit,
				log.ColumnsKey, features,
				log.CachePathKey, outPath,
			)
			fmt.Fprintf(cmd.OutOrStdout(), "%s ~ %s\n", target, strings.Join(features, " + "))
			fmt.Fprintf(cmd.OutOrStdout(), "intercept %.6g\n", lr.GetIntercept())
			for i, w := range lr.GetWeights() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-9s %.6g\n", features[i], w)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "predictions: %s (%s)\n", outPath, predCol)
			return nil
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "input table")
	cmd.Flags().StringVar(&outPath, "out", "", "output table with predictions")
	cmd.Flags().StringSliceVar(&features, "features", []string{"bedrooms", "bathrooms", "area"}, "feature columns")
	cmd.Flags().StringVar(&target, "target", "taxvalue", "target column")
	cmd.Flags().StringVar(&predCol, "pred", linear.DefaultPredictionColumn, "prediction column name")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
