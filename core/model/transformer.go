package model

import "gonum.org/v1/gonum/mat"

// Transformer はデータ変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// InvertibleTransformer は変換を元のスケールに戻せるTransformer
type InvertibleTransformer interface {
	Transformer

	// InverseTransform は変換済みデータを元のスケールに戻す
	InverseTransform(X mat.Matrix) (mat.Matrix, error)
}
