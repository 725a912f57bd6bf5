package linear

import (
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/zillowkit/pkg/errors"
	"github.com/YuminosukeSato/zillowkit/pkg/log"
	"github.com/YuminosukeSato/zillowkit/preprocessing"
)

// DefaultPredictionColumn は予測値を書き込む列名
const DefaultPredictionColumn = "yhat"

// FitPredictColumns は df の features 列から target 列を当てはめ、
// 予測値を predCol 列として末尾に追加した表と学習済みモデルを返す
// predCol が既に存在する場合は置き換える
func FitPredictColumns(df dataframe.DataFrame, features []string, target, predCol string) (dataframe.DataFrame, *LinearRegression, error) {
	const op = "FitPredictColumns"
	if predCol == "" {
		predCol = DefaultPredictionColumn
	}
	for _, f := range features {
		if f == target {
			return df, nil, errors.NewColumnError(op, f, "target used as a feature")
		}
	}

	X, err := preprocessing.ColumnMatrix(df, features)
	if err != nil {
		return df, nil, err
	}
	Y, err := preprocessing.ColumnMatrix(df, []string{target})
	if err != nil {
		return df, nil, err
	}
	y := mat.NewVecDense(Y.RawMatrix().Rows, mat.Col(nil, 0, Y))

	logger := log.GetLoggerWithName("linear").With(
		log.ModelNameKey, "LinearRegression",
		log.EstimatorIDKey, uuid.New().String(),
	)
	start := time.Now()

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		logger.Error("fit failed", err, log.OperationKey, log.OperationFit)
		return df, nil, err
	}
	yhat, err := lr.Predict(X)
	if err != nil {
		return df, nil, err
	}

	out := df.Mutate(series.New(mat.Col(nil, 0, yhat), series.Float, predCol))
	if out.Err != nil {
		return df, nil, errors.Wrapf(out.Err, "%s: adding %s", op, predCol)
	}

	logger.Info("model fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, y.Len(),
		log.FeaturesKey, len(features),
		log.ColumnsKey, features,
		"model.intercept", lr.Intercept,
		"model.weights", lr.GetWeights(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return out, lr, nil
}
