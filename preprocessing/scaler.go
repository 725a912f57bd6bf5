package preprocessing

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/zillowkit/core/model"
	"github.com/YuminosukeSato/zillowkit/pkg/errors"
)

// 分散・範囲がこの値未満の特徴量は定数とみなし、スケールを1にする
const constantTolerance = 1e-8

// StandardScaler は標準化スケーラー
// データを平均0、標準偏差1に変換する
type StandardScaler struct {
	model.BaseEstimator

	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の標準偏差（母標準偏差）
	Scale []float64

	// NFeatures は特徴量の数
	NFeatures int

	// WithMean は平均を引くかどうか (デフォルト: true)
	WithMean bool

	// WithStd は標準偏差で割るかどうか (デフォルト: true)
	WithStd bool
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	XScaled, err := scaler.FitTransform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit は訓練データから統計情報（平均、標準偏差）を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	cols, err := columnsOf("StandardScaler.Fit", X)
	if err != nil {
		return err
	}

	c := len(cols)
	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	for j, col := range cols {
		mean, std := stat.PopMeanStdDev(col, nil)
		if s.WithMean {
			s.Mean[j] = mean
		}
		s.Scale[j] = 1.0
		// 標準偏差が0に近い場合は1のまま（ゼロ除算を避ける）
		if s.WithStd && std >= constantTolerance {
			s.Scale[j] = std
		}
	}

	s.SetFitted()
	return nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(_, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, X)
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(_, j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	}, X)
	return result, nil
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.NFeatures)
}

// MinMaxScaler はMin-Maxスケーラー
// データを指定した範囲（デフォルト[0,1]）に (x - min) / (max - min) でスケーリングする
type MinMaxScaler struct {
	model.BaseEstimator

	// DataMin は学習データの最小値
	DataMin []float64

	// DataMax は学習データの最大値
	DataMax []float64

	// Scale は各特徴量のスケール (max - min)、定数特徴量では1
	Scale []float64

	// NFeatures は特徴量の数
	NFeatures int

	// FeatureRange はスケーリング後の範囲 [min, max]
	FeatureRange [2]float64
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewMinMaxScaler([2]float64{0.0, 1.0})
//	XScaled, err := scaler.FitTransform(X)
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		FeatureRange: featureRange,
	}
}

// NewMinMaxScalerDefault はデフォルト設定([0,1]範囲)でMinMaxScalerを作成する
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// Fit は訓練データから最小値・最大値を計算する
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	if m.FeatureRange[0] >= m.FeatureRange[1] {
		return errors.NewValidationError("feature_range", "minimum must be smaller than maximum", m.FeatureRange)
	}
	cols, err := columnsOf("MinMaxScaler.Fit", X)
	if err != nil {
		return err
	}

	c := len(cols)
	m.NFeatures = c
	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)

	for j, col := range cols {
		m.DataMin[j] = floats.Min(col)
		m.DataMax[j] = floats.Max(col)

		dataRange := m.DataMax[j] - m.DataMin[j]
		if math.Abs(dataRange) < constantTolerance {
			// 定数特徴量の場合、スケールを1に設定
			m.Scale[j] = 1.0
		} else {
			m.Scale[j] = dataRange
		}
	}

	m.SetFitted()
	return nil
}

// Transform は学習済みの統計情報を使ってデータをスケーリングする
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "Transform")
	}

	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("MinMaxScaler.Transform", m.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	featureRange := m.FeatureRange[1] - m.FeatureRange[0]
	result.Apply(func(_, j int, v float64) float64 {
		// X_scaled = (X - X.min) / (X.max - X.min) * (max - min) + min
		return (v-m.DataMin[j])/m.Scale[j]*featureRange + m.FeatureRange[0]
	}, X)
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform はスケーリングされたデータを元の範囲に戻す
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("MinMaxScaler.InverseTransform", m.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	featureRange := m.FeatureRange[1] - m.FeatureRange[0]
	result.Apply(func(_, j int, v float64) float64 {
		return (v-m.FeatureRange[0])/featureRange*m.Scale[j] + m.DataMin[j]
	}, X)
	return result, nil
}

// String はスケーラーの文字列表現を返す
func (m *MinMaxScaler) String() string {
	if !m.IsFitted() {
		return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])",
			m.FeatureRange[0], m.FeatureRange[1])
	}
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f], n_features=%d)",
		m.FeatureRange[0], m.FeatureRange[1], m.NFeatures)
}

// RobustScaler は外れ値に頑健なスケーラー
// 中央値を引き、四分位範囲（IQR）で割る
type RobustScaler struct {
	model.BaseEstimator

	// Center は各特徴量の中央値
	Center []float64

	// Scale は各特徴量の四分位範囲、IQRが0の特徴量では1
	Scale []float64

	// NFeatures は特徴量の数
	NFeatures int

	// QuantileRange はIQRを計算するパーセンタイル (デフォルト: [25, 75])
	QuantileRange [2]float64
}

// NewRobustScaler は新しいRobustScalerを作成する
func NewRobustScaler(quantileRange [2]float64) *RobustScaler {
	return &RobustScaler{QuantileRange: quantileRange}
}

// NewRobustScalerDefault はデフォルト設定([25,75])でRobustScalerを作成する
func NewRobustScalerDefault() *RobustScaler {
	return NewRobustScaler([2]float64{25.0, 75.0})
}

// Fit は訓練データから中央値と四分位範囲を計算する
func (rs *RobustScaler) Fit(X mat.Matrix) error {
	q := rs.QuantileRange
	if q[0] < 0 || q[1] > 100 || q[0] >= q[1] {
		return errors.NewValidationError("quantile_range", "must satisfy 0 <= low < high <= 100", q)
	}
	cols, err := columnsOf("RobustScaler.Fit", X)
	if err != nil {
		return err
	}

	c := len(cols)
	rs.NFeatures = c
	rs.Center = make([]float64, c)
	rs.Scale = make([]float64, c)

	for j, col := range cols {
		sort.Float64s(col)
		rs.Center[j] = percentile(col, 50)
		iqr := percentile(col, q[1]) - percentile(col, q[0])
		rs.Scale[j] = 1.0
		if math.Abs(iqr) >= constantTolerance {
			rs.Scale[j] = iqr
		}
	}

	rs.SetFitted()
	return nil
}

// Transform は中央値と四分位範囲でデータをスケーリングする
func (rs *RobustScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !rs.IsFitted() {
		return nil, errors.NewNotFittedError("RobustScaler", "Transform")
	}

	r, c := X.Dims()
	if c != rs.NFeatures {
		return nil, errors.NewDimensionError("RobustScaler.Transform", rs.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(_, j int, v float64) float64 {
		return (v - rs.Center[j]) / rs.Scale[j]
	}, X)
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (rs *RobustScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := rs.Fit(X); err != nil {
		return nil, err
	}
	return rs.Transform(X)
}

// InverseTransform はスケーリングされたデータを元のスケールに戻す
func (rs *RobustScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !rs.IsFitted() {
		return nil, errors.NewNotFittedError("RobustScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != rs.NFeatures {
		return nil, errors.NewDimensionError("RobustScaler.InverseTransform", rs.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(_, j int, v float64) float64 {
		return v*rs.Scale[j] + rs.Center[j]
	}, X)
	return result, nil
}

// String はスケーラーの文字列表現を返す
func (rs *RobustScaler) String() string {
	if !rs.IsFitted() {
		return fmt.Sprintf("RobustScaler(quantile_range=[%.1f, %.1f])",
			rs.QuantileRange[0], rs.QuantileRange[1])
	}
	return fmt.Sprintf("RobustScaler(quantile_range=[%.1f, %.1f], n_features=%d)",
		rs.QuantileRange[0], rs.QuantileRange[1], rs.NFeatures)
}

// columnsOf は行列を列ごとのスライスに分解し、空データとNaN/Infを検証する
func columnsOf(op string, X mat.Matrix) ([][]float64, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}

	cols := make([][]float64, c)
	for j := range cols {
		cols[j] = mat.Col(nil, j, X)
		if err := errors.CheckNumericalStability(op, cols[j]); err != nil {
			return nil, err
		}
	}
	return cols, nil
}

// percentile はソート済みデータのpパーセンタイルを順序統計量間の線形補間で求める
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * p / 100
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}
