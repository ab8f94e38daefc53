// Package kde provides one-dimensional kernel density estimation for the
// histogram-style plots. Density math is delegated: the bandwidth rule of
// thumb uses montanaflynn/stats summary statistics, the confidence band
// uses the gonum normal quantile, and cross-validated bandwidth selection
// runs through modelselection.GridSearch1D.
package kde

import (
	"log/slog"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/statviz/core/model"
	"github.com/YuminosukeSato/statviz/core/parallel"
	"github.com/YuminosukeSato/statviz/modelselection"
	"github.com/YuminosukeSato/statviz/pkg/errors"
	"github.com/YuminosukeSato/statviz/pkg/log"
)

// Kernel selects the smoothing kernel.
type Kernel string

const (
	Gaussian     Kernel = "gaussian"
	Epanechnikov Kernel = "epanechnikov"
	Tophat       Kernel = "tophat"
)

// grid evaluation switches to parallel chunks above this many points
const parallelThreshold = 512

// KDE is a univariate kernel density estimator.
type KDE struct {
	model.BaseEstimator

	kernel    Kernel
	bandwidth float64 // 0 means "derive at fit time"

	samples []float64
}

// Option configures a KDE.
type Option func(*KDE)

// WithKernel sets the smoothing kernel (default Epanechnikov, matching the
// plotting helpers).
func WithKernel(k Kernel) Option {
	return func(kd *KDE) { kd.kernel = k }
}

// WithBandwidth fixes the bandwidth instead of deriving it from the data.
func WithBandwidth(h float64) Option {
	return func(kd *KDE) { kd.bandwidth = h }
}

// New creates a KDE with the given options.
func New(opts ...Option) *KDE {
	kd := &KDE{kernel: Epanechnikov}
	for _, opt := range opts {
		opt(kd)
	}
	return kd
}

// Fit stores the sample and, when no bandwidth was given, derives one with
// the Silverman rule of thumb.
func (kd *KDE) Fit(data []float64) error {
	if len(data) == 0 {
		return errors.NewModelError("KDE.Fit", "empty data", errors.ErrEmptyData)
	}
	if _, err := kernelFunc(kd.kernel); err != nil {
		return err
	}
	if kd.bandwidth < 0 {
		return errors.NewValidationError("bandwidth", "must be positive", kd.bandwidth)
	}

	kd.samples = append([]float64(nil), data...)

	if kd.bandwidth == 0 {
		h, err := SilvermanBandwidth(kd.samples)
		if err != nil {
			return err
		}
		kd.bandwidth = h
	}

	kd.SetFitted()
	return nil
}

// Bandwidth returns the bandwidth in effect (0 before fitting when unset).
func (kd *KDE) Bandwidth() float64 { return kd.bandwidth }

// Kernel returns the configured kernel.
func (kd *KDE) Kernel() Kernel { return kd.kernel }

// NumSamples returns the number of fitted samples.
func (kd *KDE) NumSamples() int { return len(kd.samples) }

// Evaluate returns the estimated density at each point.
func (kd *KDE) Evaluate(xs []float64) ([]float64, error) {
	if err := kd.RequireFitted("KDE", "Evaluate"); err != nil {
		return nil, err
	}
	if len(xs) == 0 {
		return nil, errors.NewValueError("KDE.Evaluate", "no evaluation points")
	}

	k, err := kernelFunc(kd.kernel)
	if err != nil {
		return nil, err
	}

	n := float64(len(kd.samples))
	h := kd.bandwidth
	out := make([]float64, len(xs))

	parallel.ParallelizeWithThreshold(len(xs), parallelThreshold, 0, func(start, end int) {
		for i := start; i < end; i++ {
			sum := 0.0
			for _, xi := range kd.samples {
				sum += k((xs[i] - xi) / h)
			}
			out[i] = sum / (n * h)
		}
	})
	return out, nil
}

// Confidence returns the pointwise asymptotic (1-alpha) confidence band
// around the density estimate, clipped below at zero. The variance of the
// estimate at x is f(x)·R(K)/(n·h) with R(K) the kernel roughness.
func (kd *KDE) Confidence(xs []float64, alpha float64) (lower, upper []float64, err error) {
	if err := kd.RequireFitted("KDE", "Confidence"); err != nil {
		return nil, nil, err
	}
	if alpha <= 0 || alpha >= 1 {
		return nil, nil, errors.NewValidationError("alpha", "must be in (0, 1)", alpha)
	}

	f, err := kd.Evaluate(xs)
	if err != nil {
		return nil, nil, err
	}

	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(1 - alpha/2)
	rk := kernelRoughness(kd.kernel)
	nh := float64(len(kd.samples)) * kd.bandwidth

	lower = make([]float64, len(f))
	upper = make([]float64, len(f))
	for i, fi := range f {
		se := math.Sqrt(fi * rk / nh)
		lower[i] = math.Max(fi-z*se, 0)
		upper[i] = fi + z*se
	}
	return lower, upper, nil
}

// SelectBandwidth picks the bandwidth maximizing the K-fold
// cross-validated log-likelihood on a multiplicative grid around the rule
// of thumb, refits the estimator with it, and returns it. jobs caps the
// parallel grid evaluations.
func (kd *KDE) SelectBandwidth(kf *modelselection.KFold, jobs int) (float64, error) {
	if err := kd.RequireFitted("KDE", "SelectBandwidth"); err != nil {
		return 0, err
	}
	if kf == nil {
		kf = modelselection.NewKFold(5, true, 0)
	}

	h0, err := SilvermanBandwidth(kd.samples)
	if err != nil {
		return 0, err
	}
	grid := bandwidthGrid(h0)
	folds := kf.Split(len(kd.samples))

	score := func(h float64) (float64, error) {
		total := 0.0
		for _, fold := range folds {
			train := take(kd.samples, fold.TrainIndices)
			test := take(kd.samples, fold.TestIndices)

			sub := New(WithKernel(kd.kernel), WithBandwidth(h))
			if err := sub.Fit(train); err != nil {
				return 0, err
			}
			dens, err := sub.Evaluate(test)
			if err != nil {
				return 0, err
			}
			for _, d := range dens {
				if d <= 0 {
					// Compactly supported kernels can leave test points
					// with zero density; that bandwidth loses outright.
					return math.Inf(-1), nil
				}
				total += math.Log(d)
			}
		}
		return total, nil
	}

	res, err := modelselection.GridSearch1D(score, grid, jobs)
	if err != nil {
		return 0, err
	}
	if res.BestIndex == 0 || res.BestIndex == len(grid)-1 {
		errors.Warn(errors.NewBandwidthWarning(res.BestValue, grid[0], grid[len(grid)-1],
			"cross-validated likelihood still improving at the boundary"))
	}

	kd.bandwidth = res.BestValue
	slog.Debug("bandwidth selected",
		log.ModelNameKey, "KDE",
		log.BandwidthKey, kd.bandwidth,
		log.ScoreKey, res.BestScore)
	return kd.bandwidth, nil
}

// SilvermanBandwidth computes the rule-of-thumb bandwidth
// 0.9·min(σ, IQR/1.34)·n^(−1/5).
func SilvermanBandwidth(data []float64) (float64, error) {
	if len(data) == 0 {
		return 0, errors.NewModelError("SilvermanBandwidth", "empty data", errors.ErrEmptyData)
	}

	sigma, err := stats.StandardDeviationSample(data)
	if err != nil {
		return 0, errors.Wrap(err, "SilvermanBandwidth")
	}
	iqr, err := stats.InterQuartileRange(data)
	if err != nil {
		// IQR fails for very short samples; fall back to the spread term.
		iqr = sigma * 1.34
	}

	spread := sigma
	if iqr/1.34 < spread && iqr > 0 {
		spread = iqr / 1.34
	}
	if spread <= 0 {
		return 0, errors.NewModelError("SilvermanBandwidth", "zero spread", errors.ErrZeroVariance)
	}

	return 0.9 * spread * math.Pow(float64(len(data)), -0.2), nil
}

// bandwidthGrid is a 30-point log-spaced grid spanning 0.2·h0 to 5·h0.
func bandwidthGrid(h0 float64) []float64 {
	const points = 30
	lo, hi := math.Log(0.2*h0), math.Log(5*h0)
	grid := make([]float64, points)
	for i := range grid {
		t := float64(i) / float64(points-1)
		grid[i] = math.Exp(lo + t*(hi-lo))
	}
	return grid
}

func take(data []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = data[j]
	}
	return out
}

type kernelFn func(u float64) float64

func kernelFunc(k Kernel) (kernelFn, error) {
	switch k {
	case Gaussian:
		return func(u float64) float64 {
			return math.Exp(-0.5*u*u) / math.Sqrt(2*math.Pi)
		}, nil
	case Epanechnikov:
		return func(u float64) float64 {
			if u < -1 || u > 1 {
				return 0
			}
			return 0.75 * (1 - u*u)
		}, nil
	case Tophat:
		return func(u float64) float64 {
			if u < -1 || u > 1 {
				return 0
			}
			return 0.5
		}, nil
	default:
		return nil, errors.NewValidationError("kernel", "unknown kernel", string(k))
	}
}

// kernelRoughness is ∫K(u)²du, used by the confidence band.
func kernelRoughness(k Kernel) float64 {
	switch k {
	case Gaussian:
		return 1 / (2 * math.Sqrt(math.Pi))
	case Epanechnikov:
		return 0.6
	case Tophat:
		return 0.5
	default:
		return 0.6
	}
}
