// Package linear は最小二乗法による線形回帰を提供する
//
// 評価対象の予測値 ŷ を作るためのモデルで、切片付きで当てはめた場合は
// ESS + SSE = TSS の分解が成り立つ。
package linear

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/zillowkit/core/model"
	"github.com/YuminosukeSato/zillowkit/core/parallel"
	"github.com/YuminosukeSato/zillowkit/metrics"
	"github.com/YuminosukeSato/zillowkit/pkg/errors"
)

// LinearRegression は線形回帰モデル
type LinearRegression struct {
	model.BaseEstimator
	Weights   *mat.VecDense // 重み（係数）
	Intercept float64       // 切片
	NFeatures int           // 特徴量の数

	fitIntercept bool
}

// NewLinearRegression は新しい線形回帰モデルを作成する（デフォルトで切片あり）
func NewLinearRegression(opts ...Option) *LinearRegression {
	lr := &LinearRegression{fitIntercept: true}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit はモデルを訓練データで学習させる
// 計画行列を QR 分解して最小二乗解を求める
func (lr *LinearRegression) Fit(X mat.Matrix, y *mat.VecDense) (err error) {
	defer errors.Recover(&err, "LinearRegression.Fit")

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if y == nil || y.Len() != r {
		got := 0
		if y != nil {
			got = y.Len()
		}
		return errors.NewDimensionError("LinearRegression.Fit", r, got, 0)
	}

	offset := 0
	if lr.fitIntercept {
		offset = 1
	}
	if r < c+offset {
		return errors.NewValueError("LinearRegression.Fit",
			fmt.Sprintf("need at least %d samples for %d parameters, got %d", c+offset, c+offset, r))
	}

	// 切片項のために X の左に 1 の列を追加する
	// 行数が閾値を超える場合は行ごとに並列でコピーする
	design := mat.NewDense(r, c+offset, nil)
	parallel.ParallelizeWithThreshold(r, parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			if lr.fitIntercept {
				design.Set(i, 0, 1)
			}
			for j := 0; j < c; j++ {
				design.Set(i, j+offset, X.At(i, j))
			}
		}
	})
	if err := errors.CheckNumericalStability("LinearRegression.Fit", design.RawMatrix().Data); err != nil {
		return err
	}
	if err := errors.CheckNumericalStability("LinearRegression.Fit", mat.Col(nil, 0, y)); err != nil {
		return err
	}

	var qr mat.QR
	qr.Factorize(design)
	var w mat.VecDense
	if err := qr.SolveVecTo(&w, false, y); err != nil {
		return errors.NewModelError("LinearRegression.Fit", "singular matrix", errors.ErrSingularMatrix)
	}

	lr.NFeatures = c
	lr.Intercept = 0
	if lr.fitIntercept {
		lr.Intercept = w.AtVec(0)
	}
	lr.Weights = mat.NewVecDense(c, nil)
	lr.Weights.CopyVec(w.SliceVec(offset, c+offset))

	lr.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行う
func (lr *LinearRegression) Predict(X mat.Matrix) (*mat.VecDense, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LinearRegression", "Predict")
	}

	r, c := X.Dims()
	if c != lr.NFeatures {
		return nil, errors.NewDimensionError("LinearRegression.Predict", lr.NFeatures, c, 1)
	}

	// y = X * weights + intercept
	predictions := mat.NewVecDense(r, nil)
	predictions.MulVec(X, lr.Weights)
	for i := 0; i < r; i++ {
		predictions.SetVec(i, predictions.AtVec(i)+lr.Intercept)
	}
	return predictions, nil
}

// GetWeights は学習された重み（係数）を返す
func (lr *LinearRegression) GetWeights() []float64 {
	if lr.Weights == nil {
		return nil
	}
	return mat.Col(nil, 0, lr.Weights)
}

// GetIntercept は学習された切片を返す
func (lr *LinearRegression) GetIntercept() float64 {
	if !lr.IsFitted() {
		return 0
	}
	return lr.Intercept
}

// Score はモデルの決定係数（R²）を計算する
func (lr *LinearRegression) Score(X mat.Matrix, y *mat.VecDense) (float64, error) {
	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(y, yPred)
}

func (lr *LinearRegression) String() string {
	if !lr.IsFitted() {
		return "LinearRegression(fitted=false)"
	}
	return fmt.Sprintf("LinearRegression(n_features=%d, intercept=%.6g)", lr.NFeatures, lr.Intercept)
}
