package cli

import (
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/zillowkit/acquire"
	"github.com/YuminosukeSato/zillowkit/metrics"
	"github.com/YuminosukeSato/zillowkit/pkg/errors"
	"github.com/YuminosukeSato/zillowkit/pkg/log"
)

func (a *app) evaluateCommand() *cobra.Command {
	var (
		inPath   string
		yCol     string
		yhatCol  string
		plotPath string
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score predictions against actual values and a mean baseline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			df, err := acquire.ReadCache(inPath)
			if err != nil {
				return err
			}
			y, err := columnVector(df, yCol)
			if err != nil {
				return err
			}
			yhat, err := columnVector(df, yhatCol)
			if err != nil {
				return err
			}

			report, err := metrics.RegressionErrors(y, yhat)
			if err != nil {
				return err
			}
			baseline, err := metrics.BaselineMeanErrors(y)
			if err != nil {
				return err
			}
			better, err := metrics.BetterThanBaseline(y, yhat)
			if err != nil {
				return err
			}

			a.logger.Info("evaluate finished",
				log.OperationKey, log.OperationEvaluate,
				log.SamplesKey, y.Len(),
				log.SSEKey, report.SSE,
				log.BaselineSSEKey, baseline.SSE,
				log.BetterThanBaselineKey, better,
			)
			writeReport(cmd.OutOrStdout(), report, baseline, y, yhat, better)

			if plotPath != "" {
				if err := metrics.PlotResiduals(y, yhat, plotPath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "residual plot: %s\n", plotPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "table holding actual and predicted values")
	cmd.Flags().StringVar(&yCol, "y", "taxvalue", "column of actual values")
	cmd.Flags().StringVar(&yhatCol, "yhat", "yhat", "column of predicted values")
	cmd.Flags().StringVar(&plotPath, "plot", "", "write a residual plot to this file (.png, .svg, .pdf)")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func writeReport(w io.Writer, r metrics.RegressionReport, b metrics.BaselineReport, y, yhat *mat.VecDense, better bool) {
	rows := []struct {
		name  string
		value float64
	}{
		{"SSE", r.SSE},
		{"ESS", r.ESS},
		{"TSS", r.TSS},
		{"MSE", r.MSE},
		{"RMSE", r.RMSE},
		{"baseline SSE", b.SSE},
		{"baseline MSE", b.MSE},
		{"baseline RMSE", b.RMSE},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%-14s %.4f\n", row.name, row.value)
	}

	if r2, err := metrics.R2Score(y, yhat); err == nil {
		fmt.Fprintf(w, "%-14s %.4f\n", "R2", r2)
	} else {
		fmt.Fprintf(w, "%-14s n/a\n", "R2")
	}
	fmt.Fprintf(w, "better than baseline: %t\n", better)
}

func columnVector(df dataframe.DataFrame, name string) (*mat.VecDense, error) {
	for i, n := range df.Names() {
		if n != name {
			continue
		}
		if typ := df.Types()[i]; typ != series.Int && typ != series.Float {
			return nil, errors.NewColumnError("evaluate", name, "column is not numeric (type "+string(typ)+")")
		}
		vals := df.Col(name).Float()
		return mat.NewVecDense(len(vals), vals), nil
	}
	return nil, errors.NewColumnError("evaluate", name, "column not found")
}
