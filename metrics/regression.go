// Package metrics は回帰モデルの評価指標を提供する
//
// 誤差の分解（SSE, ESS, TSS）、平均値ベースラインとの比較、残差プロットを扱う。
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/zillowkit/pkg/errors"
)

// RegressionReport は RegressionErrors の結果
type RegressionReport struct {
	// SSE は残差平方和 Σ(y − ŷ)²
	SSE float64
	// ESS は説明平方和 Σ(ŷ − mean(y))²
	ESS float64
	// TSS は全平方和 Σ(y − mean(y))²
	TSS float64
	// MSE は SSE / n
	MSE float64
	// RMSE は √MSE
	RMSE float64
}

// Values は (SSE, ESS, TSS, MSE, RMSE) の順で値を返す
func (r RegressionReport) Values() (sse, ess, tss, mse, rmse float64) {
	return r.SSE, r.ESS, r.TSS, r.MSE, r.RMSE
}

// BaselineReport は BaselineMeanErrors の結果
type BaselineReport struct {
	SSE  float64
	MSE  float64
	RMSE float64
}

// Values は (SSE, MSE, RMSE) の順で値を返す
func (b BaselineReport) Values() (sse, mse, rmse float64) {
	return b.SSE, b.MSE, b.RMSE
}

// RegressionErrors は実測値 y と予測値 yhat から誤差の分解を計算する
//
// ESS + SSE = TSS が成り立つのは yhat が y の最小二乗当てはめの場合のみで、
// ここでは検証せずに各式をそのまま計算する。
func RegressionErrors(y, yhat *mat.VecDense) (RegressionReport, error) {
	yv, yhatv, err := pairValues("RegressionErrors", y, yhat)
	if err != nil {
		return RegressionReport{}, err
	}

	n := float64(len(yv))
	mean := stat.Mean(yv, nil)

	residuals := make([]float64, len(yv))
	floats.SubTo(residuals, yv, yhatv)

	var r RegressionReport
	r.SSE = sumSquaredDeviation(residuals, 0)
	r.ESS = sumSquaredDeviation(yhatv, mean)
	r.TSS = sumSquaredDeviation(yv, mean)
	r.MSE = r.SSE / n
	r.RMSE = math.Sqrt(r.MSE)
	return r, nil
}

// BaselineMeanErrors は常に mean(y) を予測するベースラインの SSE, MSE, RMSE を計算する
func BaselineMeanErrors(y *mat.VecDense) (BaselineReport, error) {
	yv, err := values("BaselineMeanErrors", y)
	if err != nil {
		return BaselineReport{}, err
	}

	var b BaselineReport
	b.SSE = sumSquaredDeviation(yv, stat.Mean(yv, nil))
	b.MSE = b.SSE / float64(len(yv))
	b.RMSE = math.Sqrt(b.MSE)
	return b, nil
}

// BetterThanBaseline はモデルの SSE がベースラインの SSE より真に小さい場合に true を返す
// 等しい場合は false
func BetterThanBaseline(y, yhat *mat.VecDense) (bool, error) {
	model, err := RegressionErrors(y, yhat)
	if err != nil {
		return false, err
	}
	baseline, err := BaselineMeanErrors(y)
	if err != nil {
		return false, err
	}
	return model.SSE < baseline.SSE, nil
}

// Residuals は y − yhat を返す
func Residuals(y, yhat *mat.VecDense) (*mat.VecDense, error) {
	if _, _, err := pairValues("Residuals", y, yhat); err != nil {
		return nil, err
	}
	res := mat.NewVecDense(y.Len(), nil)
	res.SubVec(y, yhat)
	return res, nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	r, err := RegressionErrors(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return r.MSE, nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	r, err := RegressionErrors(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return r.RMSE, nil
}

// R2Score は決定係数（R² = 1 − SSE/TSS）を計算する
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	r, err := RegressionErrors(yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// 全変動が0の場合（すべてのyTrueが同じ値）
	if r.TSS == 0 {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in yTrue)")
	}
	return 1 - r.SSE/r.TSS, nil
}

func sumSquaredDeviation(x []float64, center float64) float64 {
	var sum float64
	for _, v := range x {
		d := v - center
		sum += d * d
	}
	return sum
}

// values はベクトルを検証してスライスとして取り出す
func values(op string, v *mat.VecDense) ([]float64, error) {
	if v == nil || v.Len() == 0 {
		return nil, errors.NewValueError(op, "empty vector")
	}
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	if err := errors.CheckNumericalStability(op, out); err != nil {
		return nil, err
	}
	return out, nil
}

// pairValues は実測値と予測値の長さが一致することを検証する
func pairValues(op string, y, yhat *mat.VecDense) ([]float64, []float64, error) {
	yv, err := values(op, y)
	if err != nil {
		return nil, nil, err
	}
	if yhat == nil || yhat.Len() != len(yv) {
		got := 0
		if yhat != nil {
			got = yhat.Len()
		}
		return nil, nil, errors.NewDimensionError(op, len(yv), got, 0)
	}
	yhatv, err := values(op, yhat)
	if err != nil {
		return nil, nil, err
	}
	return yv, yhatv, nil
}
