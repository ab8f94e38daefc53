// Package modelselection provides the cross-validation plumbing shared by
// the estimators: K-fold index splitting, cross-validated scoring, and a
// one-dimensional grid search used for kernel bandwidth selection. The
// parallel-jobs parameter is forwarded unmodified to the workers; nothing
// here coordinates beyond a WaitGroup.
package modelselection

import (
	"math"
	"math/rand/v2"
)

// Fold is one train/test split.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold splits row indices into k consecutive folds.
type KFold struct {
	NSplits int
	Shuffle bool
	Seed    int
}

// NewKFold creates a k-fold splitter. Fewer than 2 splits falls back to
// the 5-fold default.
func NewKFold(nSplits int, shuffle bool, seed int) *KFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &KFold{NSplits: nSplits, Shuffle: shuffle, Seed: seed}
}

// Split generates train/test indices for each fold over n samples. Fold
// sizes differ by at most one.
func (kf *KFold) Split(n int) []Fold {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	if kf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(kf.Seed), uint64(kf.Seed)))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	nSplits := kf.NSplits
	if nSplits > n {
		nSplits = n
	}

	folds := make([]Fold, nSplits)
	foldSize := n / nSplits
	remainder := n % nSplits

	current := 0
	for i := 0; i < nSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}

		test := make([]int, testSize)
		copy(test, indices[current:current+testSize])

		train := make([]int, 0, n-testSize)
		train = append(train, indices[:current]...)
		train = append(train, indices[current+testSize:]...)

		folds[i] = Fold{TrainIndices: train, TestIndices: test}
		current += testSize
	}

	return folds
}

// CVResult stores per-fold cross-validation scores.
type CVResult struct {
	TrainScores []float64
	TestScores  []float64
}

// MeanTestScore returns the mean test score across folds.
func (cv *CVResult) MeanTestScore() float64 {
	if len(cv.TestScores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range cv.TestScores {
		sum += s
	}
	return sum / float64(len(cv.TestScores))
}

// StdTestScore returns the sample standard deviation of the test scores.
func (cv *CVResult) StdTestScore() float64 {
	if len(cv.TestScores) <= 1 {
		return 0
	}
	mean := cv.MeanTestScore()
	sumSq := 0.0
	for _, s := range cv.TestScores {
		d := s - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(cv.TestScores)-1))
}
