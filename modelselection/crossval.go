package modelselection

import (
	"log/slog"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/statviz/core/model"
	"github.com/YuminosukeSato/statviz/pkg/errors"
	"github.com/YuminosukeSato/statviz/pkg/log"
)

// CrossValScore fits a fresh estimator per fold and collects train and
// test scores. newEstimator must return an unfitted estimator; folds run
// concurrently, capped by jobs (0 means one goroutine per fold).
func CrossValScore(newEstimator func() model.Regressor, X, y mat.Matrix, kf *KFold, jobs int) (*CVResult, error) {
	if newEstimator == nil {
		return nil, errors.NewValueError("CrossValScore", "nil estimator factory")
	}

	n, _ := X.Dims()
	ny, _ := y.Dims()
	if n == 0 {
		return nil, errors.NewValueError("CrossValScore", "empty data")
	}
	if ny != n {
		return nil, errors.NewDimensionError("CrossValScore", n, ny, 0)
	}
	if kf == nil {
		kf = NewKFold(5, false, 0)
	}

	folds := kf.Split(n)
	result := &CVResult{
		TrainScores: make([]float64, len(folds)),
		TestScores:  make([]float64, len(folds)),
	}
	foldErrs := make([]error, len(folds))

	sem := make(chan struct{}, workerCap(jobs, len(folds)))
	var wg sync.WaitGroup
	for idx := range folds {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			fold := folds[i]
			trainX, trainY := takeRows(X, y, fold.TrainIndices)
			testX, testY := takeRows(X, y, fold.TestIndices)

			est := newEstimator()
			if err := est.Fit(trainX, trainY); err != nil {
				foldErrs[i] = errors.Wrapf(err, "fold %d training failed", i)
				return
			}

			trainScore, err := est.Score(trainX, trainY)
			if err != nil {
				foldErrs[i] = errors.Wrapf(err, "fold %d train scoring failed", i)
				return
			}
			testScore, err := est.Score(testX, testY)
			if err != nil {
				foldErrs[i] = errors.Wrapf(err, "fold %d test scoring failed", i)
				return
			}

			result.TrainScores[i] = trainScore
			result.TestScores[i] = testScore
			slog.Debug("cross-validation fold finished",
				log.FoldKey, i, log.ScoreKey, testScore)
		}(idx)
	}
	wg.Wait()

	for _, err := range foldErrs {
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func workerCap(jobs, items int) int {
	if jobs <= 0 || jobs > items {
		return items
	}
	return jobs
}

// takeRows extracts row subsets of X and y.
func takeRows(X, y mat.Matrix, indices []int) (mat.Matrix, mat.Matrix) {
	_, xc := X.Dims()
	_, yc := y.Dims()

	xSub := mat.NewDense(len(indices), xc, nil)
	ySub := mat.NewDense(len(indices), yc, nil)
	for i, ri := range indices {
		for j := 0; j < xc; j++ {
			xSub.Set(i, j, X.At(ri, j))
		}
		for j := 0; j < yc; j++ {
			ySub.Set(i, j, y.At(ri, j))
		}
	}
	return xSub, ySub
}
