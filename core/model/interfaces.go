package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/statviz/dataset"
)

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer は予測精度のスコアを計算できるモデルのインターフェース
type Scorer interface {
	// Score はモデルのスコアを計算する（大きいほど良い）
	Score(X, y mat.Matrix) (float64, error)
}

// Regressor は回帰モデルの標準的なインターフェース
type Regressor interface {
	Fitter
	Predictor
	Scorer
}

// DatasetFitter はラベル付きテーブルから直接学習できるモデルのインターフェース
type DatasetFitter interface {
	// FitDataset は列名付きデータでモデルを学習させる
	FitDataset(data *dataset.Dataset) error
}

// DatasetPredictor はラベル付きテーブルから直接予測できるモデルのインターフェース
type DatasetPredictor interface {
	// PredictDataset は列名付きデータに対する予測を行い、応答ごとの列を返す
	PredictDataset(data *dataset.Dataset) (*dataset.Dataset, error)
}
