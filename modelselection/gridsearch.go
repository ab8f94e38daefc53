package modelselection

import (
	"math"

	"github.com/YuminosukeSato/statviz/core/parallel"
	"github.com/YuminosukeSato/statviz/pkg/errors"
)

// GridResult is the outcome of a one-dimensional grid search.
type GridResult struct {
	BestIndex int
	BestValue float64
	BestScore float64
	Scores    []float64
}

// GridSearch1D evaluates score over every grid value and returns the
// maximizer. Evaluations run in parallel, capped by jobs. A grid value
// whose evaluation fails aborts the search.
func GridSearch1D(score func(v float64) (float64, error), grid []float64, jobs int) (*GridResult, error) {
	if score == nil {
		return nil, errors.NewValueError("GridSearch1D", "nil score function")
	}
	if len(grid) == 0 {
		return nil, errors.NewValueError("GridSearch1D", "empty grid")
	}

	scores := make([]float64, len(grid))
	evalErrs := make([]error, len(grid))

	parallel.ParallelizeWithThreshold(len(grid), 1, jobs, func(start, end int) {
		for i := start; i < end; i++ {
			scores[i], evalErrs[i] = score(grid[i])
		}
	})

	for i, err := range evalErrs {
		if err != nil {
			return nil, errors.Wrapf(err, "grid value %g", grid[i])
		}
	}

	best := -1
	for i, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, -1) {
			continue
		}
		if best < 0 || s > scores[best] {
			best = i
		}
	}
	if best < 0 {
		return nil, errors.NewValueError("GridSearch1D", "no finite score on the grid")
	}

	return &GridResult{
		BestIndex: best,
		BestValue: grid[best],
		BestScore: scores[best],
		Scores:    scores,
	}, nil
}
