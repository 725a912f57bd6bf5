// Package preprocessing provides feature scalers and helpers that apply them
// to named columns of a dataframe.
//
// The column helpers fit a fresh scaler on exactly the rows they are given and
// apply it once. Nothing is retained between calls, so two calls on different
// subsets (train and test, say) are not on a comparable scale. Use the scaler
// types directly when fit parameters must be reused.
package preprocessing

import (
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/zillowkit/core/model"
	"github.com/YuminosukeSato/zillowkit/pkg/errors"
	"github.com/YuminosukeSato/zillowkit/pkg/log"
)

// MinMaxScaleColumns rescales cols to the unit interval.
func MinMaxScaleColumns(df dataframe.DataFrame, cols []string) (dataframe.DataFrame, error) {
	return scaleColumns("MinMaxScaleColumns", df, cols, "MinMaxScaler", NewMinMaxScalerDefault())
}

// StandardScaleColumns rescales cols to zero mean and unit variance.
func StandardScaleColumns(df dataframe.DataFrame, cols []string) (dataframe.DataFrame, error) {
	return scaleColumns("StandardScaleColumns", df, cols, "StandardScaler", NewStandardScalerDefault())
}

// RobustScaleColumns centres cols on their median and divides by their
// interquartile range. An empty cols selects every numeric column.
func RobustScaleColumns(df dataframe.DataFrame, cols []string) (dataframe.DataFrame, error) {
	if len(cols) == 0 {
		cols = NumericColumns(df)
	}
	return scaleColumns("RobustScaleColumns", df, cols, "RobustScaler", NewRobustScalerDefault())
}

// NumericColumns returns the names of the Int and Float columns of df in table order.
func NumericColumns(df dataframe.DataFrame) []string {
	var out []string
	types := df.Types()
	for i, name := range df.Names() {
		if types[i] == series.Int || types[i] == series.Float {
			out = append(out, name)
		}
	}
	return out
}

// ColumnMatrix stacks the named Int or Float columns of df into a
// samples × features matrix. Unknown or non-numeric columns are a ColumnError
// and missing values a ValueError.
func ColumnMatrix(df dataframe.DataFrame, cols []string) (*mat.Dense, error) {
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "ColumnMatrix")
	}
	if len(cols) == 0 {
		return nil, errors.NewValueError("ColumnMatrix", "no columns selected")
	}
	return matrixFromColumns("ColumnMatrix", df, cols)
}

func scaleColumns(op string, df dataframe.DataFrame, cols []string, name string, scaler model.Transformer) (out dataframe.DataFrame, err error) {
	defer errors.Recover(&err, op)

	if df.Err != nil {
		return df, errors.Wrap(df.Err, op)
	}
	if len(cols) == 0 {
		return df, errors.NewValueError(op, "no columns to scale")
	}

	logger := log.GetLoggerWithName("preprocessing").With(
		log.ModelNameKey, name,
		log.EstimatorIDKey, uuid.New().String(),
	)
	start := time.Now()

	X, err := matrixFromColumns(op, df, cols)
	if err != nil {
		return df, err
	}
	r, c := X.Dims()
	logger.Debug("fitting scaler",
		log.OperationKey, log.OperationFitTransform,
		log.SamplesKey, r,
		log.FeaturesKey, c,
		log.ColumnsKey, cols,
	)

	scaled, err := scaler.FitTransform(X)
	if err != nil {
		logger.Error("scaler fit failed", err)
		return df, err
	}

	out = df.Copy()
	for j, colName := range cols {
		out = out.Mutate(series.New(mat.Col(nil, j, scaled), series.Float, colName))
		if out.Err != nil {
			return df, errors.Wrapf(out.Err, "%s: replacing column %q", op, colName)
		}
	}

	logger.Info("columns scaled",
		log.ColumnsKey, cols,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return out, nil
}

// matrixFromColumns stacks the named numeric columns into a samples × features matrix.
func matrixFromColumns(op string, df dataframe.DataFrame, cols []string) (*mat.Dense, error) {
	index := make(map[string]int, df.Ncol())
	for i, n := range df.Names() {
		index[n] = i
	}
	types := df.Types()

	r := df.Nrow()
	if r == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}

	X := mat.NewDense(r, len(cols), nil)
	for j, colName := range cols {
		i, ok := index[colName]
		if !ok {
			return nil, errors.NewColumnError(op, colName, "column not found")
		}
		if types[i] != series.Int && types[i] != series.Float {
			return nil, errors.NewColumnError(op, colName, "column is not numeric (type "+string(types[i])+")")
		}
		s := df.Col(colName)
		if s.HasNaN() {
			return nil, errors.NewValueError(op, "column "+colName+" contains missing values")
		}
		X.SetCol(j, s.Float())
	}
	return X, nil
}
