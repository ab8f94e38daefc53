// Package mixed provides the mixed-effects regression adapter. It is a
// thin wrapper in the scikit-learn estimator mold: the caller supplies
// column labels and R-style formulas, the package does the argument
// marshaling (design-matrix assembly, formula broadcasting, level
// bookkeeping) and delegates all linear algebra to gonum. One model is
// fitted per response column, mirroring the lme4 calling convention the
// adapter wraps.
package mixed

import (
	"log/slog"
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/statviz/core/model"
	"github.com/YuminosukeSato/statviz/core/parallel"
	"github.com/YuminosukeSato/statviz/dataset"
	"github.com/YuminosukeSato/statviz/formula"
	"github.com/YuminosukeSato/statviz/metrics"
	"github.com/YuminosukeSato/statviz/modelselection"
	"github.com/YuminosukeSato/statviz/pkg/errors"
	"github.com/YuminosukeSato/statviz/pkg/log"
)

// InterceptName is the label under which the fixed intercept is reported.
const InterceptName = "(Intercept)"

// when no shrinkage is configured the moment estimate is clamped here
const (
	minShrinkage = 1e-3
	maxShrinkage = 1e3
)

// LME fits one mixed-effects model per response column.
type LME struct {
	model.BaseEstimator

	XLabels  []string
	YLabels  []string
	Formulas []string // right-hand sides; a single entry broadcasts

	shrinkage float64 // fixed variance ratio; 0 means estimate per fit

	models map[string]*responseModel
}

// responseModel is the fitted handle for a single response.
type responseModel struct {
	formula    *formula.Formula
	fixedNames []string
	fixedCoef  []float64
	random     []*randomEffect
}

// randomEffect holds the fitted coefficients of one (expr|group) term.
type randomEffect struct {
	term        formula.RandomTerm
	levelCodes  []float64
	levelLabels []string
	codeIndex   map[float64]int
	coef        []float64
}

// Option configures an LME.
type Option func(*LME)

// WithXLabels sets the predictor column labels.
func WithXLabels(labels ...string) Option {
	return func(l *LME) { l.XLabels = labels }
}

// WithYLabels sets the response column labels.
func WithYLabels(labels ...string) Option {
	return func(l *LME) { l.YLabels = labels }
}

// WithFormulas sets the model formulas, one right-hand side per response
// or a single one shared by all responses.
func WithFormulas(formulas ...string) Option {
	return func(l *LME) { l.Formulas = formulas }
}

// WithShrinkage fixes the random-effect shrinkage ratio instead of
// estimating it from the data.
func WithShrinkage(ratio float64) Option {
	return func(l *LME) { l.shrinkage = ratio }
}

// NewLME creates an LME with the given options.
func NewLME(opts ...Option) *LME {
	l := &LME{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Fit labels the columns of X and Y and fits per-response models.
func (l *LME) Fit(X, Y mat.Matrix) error {
	xr, xc := X.Dims()
	yr, yc := Y.Dims()

	if xr == 0 || xc == 0 {
		return errors.NewModelError("LME.Fit", "empty data", errors.ErrEmptyData)
	}
	if yr != xr {
		return errors.NewDimensionError("LME.Fit", xr, yr, 0)
	}
	if xc != len(l.XLabels) {
		return errors.NewDimensionError("LME.Fit", len(l.XLabels), xc, 1)
	}
	if yc != len(l.YLabels) {
		return errors.NewDimensionError("LME.Fit", len(l.YLabels), yc, 1)
	}

	xData, err := dataset.FromMatrix(X, l.XLabels)
	if err != nil {
		return err
	}
	yData, err := dataset.FromMatrix(Y, l.YLabels)
	if err != nil {
		return err
	}
	data, err := dataset.Concat(xData, yData)
	if err != nil {
		return err
	}
	return l.FitDataset(data)
}

// FitDataset fits one model per response from a labeled table. The table
// must contain every column named by XLabels, YLabels and the formulas.
func (l *LME) FitDataset(data *dataset.Dataset) error {
	if len(l.XLabels) == 0 || len(l.YLabels) == 0 || len(l.Formulas) == 0 {
		return errors.NewValidationError("LME",
			"xLabels, yLabels and formulas must all be set", nil)
	}
	if data.NumRows() == 0 {
		return errors.NewModelError("LME.FitDataset", "empty data", errors.ErrEmptyData)
	}

	formulas := l.Formulas
	if len(formulas) != len(l.YLabels) {
		if len(formulas) == 1 {
			expanded := make([]string, len(l.YLabels))
			for i := range expanded {
				expanded[i] = formulas[0]
			}
			formulas = expanded
		} else {
			return errors.NewValidationError("formulas",
				"must be a single formula, or one per response label",
				len(l.Formulas))
		}
	}

	models := make(map[string]*responseModel, len(l.YLabels))
	for i, yLabel := range l.YLabels {
		f, err := formula.ParseRHS(formulas[i])
		if err != nil {
			return err
		}
		f.Response = yLabel

		rm, err := l.fitOne(data, f)
		if err != nil {
			return err
		}
		models[yLabel] = rm

		slog.Debug("response model fitted",
			log.ModelNameKey, "LME",
			log.OperationKey, "fit",
			log.ResponseKey, yLabel,
			log.SamplesKey, data.NumRows(),
			log.FeaturesKey, len(l.XLabels))
	}

	l.models = models
	l.SetFitted()
	return nil
}

// Predict labels the columns of X and predicts every response.
func (l *LME) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := l.RequireFitted("LME", "Predict"); err != nil {
		return nil, err
	}

	_, xc := X.Dims()
	if xc != len(l.XLabels) {
		return nil, errors.NewDimensionError("LME.Predict", len(l.XLabels), xc, 1)
	}

	data, err := dataset.FromMatrix(X, l.XLabels)
	if err != nil {
		return nil, err
	}
	pred, err := l.PredictDataset(data)
	if err != nil {
		return nil, err
	}
	return pred.Matrix(), nil
}

// PredictDataset predicts every response from a labeled table, returning
// one column per response label. Grouping levels unseen at fit time
// contribute no random effect: the prediction falls back to the fixed
// part, matching lme4's allow.new.levels behavior.
func (l *LME) PredictDataset(data *dataset.Dataset) (*dataset.Dataset, error) {
	if err := l.RequireFitted("LME", "PredictDataset"); err != nil {
		return nil, err
	}
	if data.NumRows() == 0 {
		return nil, errors.NewModelError("LME.PredictDataset", "empty data", errors.ErrEmptyData)
	}

	cols := make([][]float64, len(l.YLabels))
	for i, yLabel := range l.YLabels {
		pred, err := predictOne(l.models[yLabel], data)
		if err != nil {
			return nil, err
		}
		cols[i] = pred
	}

	return dataset.New(l.YLabels, cols)
}

// predictOne evaluates one fitted response model over a labeled table.
func predictOne(rm *responseModel, data *dataset.Dataset) ([]float64, error) {
	n := data.NumRows()
	fixed, err := fixedDesign(data, rm.formula)
	if err != nil {
		return nil, err
	}

	pred := make([]float64, n)
	for r := 0; r < n; r++ {
		v := 0.0
		for c, coef := range rm.fixedCoef {
			v += fixed.At(r, c) * coef
		}
		pred[r] = v
	}

	for _, re := range rm.random {
		groupCol, err := data.Column(re.term.Group)
		if err != nil {
			return nil, err
		}
		var slopeCol []float64
		if !re.term.Intercept() {
			slopeCol, err = data.Column(re.term.Variable)
			if err != nil {
				return nil, err
			}
		}
		for r := 0; r < n; r++ {
			idx, ok := re.codeIndex[groupCol[r]]
			if !ok {
				continue // new level: fixed effects only
			}
			if re.term.Intercept() {
				pred[r] += re.coef[idx]
			} else {
				pred[r] += slopeCol[r] * re.coef[idx]
			}
		}
	}
	return pred, nil
}

// FixedEffects returns the fixed-effect coefficients of a fitted response.
func (l *LME) FixedEffects(yLabel string) (map[string]float64, error) {
	rm, err := l.response(yLabel, "FixedEffects")
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(rm.fixedNames))
	for i, name := range rm.fixedNames {
		out[name] = rm.fixedCoef[i]
	}
	return out, nil
}

// RandomEffects returns the per-level random-effect coefficients of a
// fitted response, keyed by grouping factor and level label.
func (l *LME) RandomEffects(yLabel string) (map[string]map[string]float64, error) {
	rm, err := l.response(yLabel, "RandomEffects")
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]float64, len(rm.random))
	for _, re := range rm.random {
		levels := make(map[string]float64, len(re.coef))
		for i, label := range re.levelLabels {
			levels[label] = re.coef[i]
		}
		out[re.term.Group] = levels
	}
	return out, nil
}

// Score predicts Y from X and returns the negated mean of the
// per-response root mean squared errors (larger is better).
func (l *LME) Score(X, Y mat.Matrix) (float64, error) {
	if err := l.RequireFitted("LME", "Score"); err != nil {
		return 0, err
	}

	Yp, err := l.Predict(X)
	if err != nil {
		return 0, err
	}

	rmses, err := metrics.ColumnRMSEs(Y, Yp)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for _, v := range rmses {
		sum += v
	}
	return -sum / float64(len(rmses)), nil
}

// ChooseFormula cross-validates every candidate right-hand side for each
// response and keeps the winner in Formulas. Candidates are scored by the
// negated mean root mean squared error over the folds of kf (nil falls
// back to shuffled 5-fold); jobs caps the parallel candidate evaluations.
// With refit true the estimator is refitted on the full table using the
// winning formulas. The returned map gives the chosen formula per
// response label.
func (l *LME) ChooseFormula(data *dataset.Dataset, formulas []string, kf *modelselection.KFold, jobs int, refit bool) (map[string]string, error) {
	if len(l.XLabels) == 0 || len(l.YLabels) == 0 {
		return nil, errors.NewValidationError("LME",
			"xLabels and yLabels must be set", nil)
	}
	if len(formulas) == 0 {
		return nil, errors.NewValueError("LME.ChooseFormula", "no candidate formulas")
	}
	if data.NumRows() == 0 {
		return nil, errors.NewModelError("LME.ChooseFormula", "empty data", errors.ErrEmptyData)
	}
	if kf == nil {
		kf = modelselection.NewKFold(5, true, 0)
	}
	folds := kf.Split(data.NumRows())

	winners := make([]string, len(l.YLabels))
	chosen := make(map[string]string, len(l.YLabels))
	for yi, yLabel := range l.YLabels {
		scores := make([]float64, len(formulas))
		errs := make([]error, len(formulas))
		parallel.ParallelizeWithThreshold(len(formulas), 1, jobs, func(start, end int) {
			for i := start; i < end; i++ {
				scores[i], errs[i] = l.crossValFormula(data, yLabel, formulas[i], folds)
			}
		})
		for i, err := range errs {
			if err != nil {
				return nil, errors.Wrapf(err, "formula %q for response %s", formulas[i], yLabel)
			}
		}

		best := 0
		for i, s := range scores {
			if s > scores[best] {
				best = i
			}
		}
		winners[yi] = formulas[best]
		chosen[yLabel] = formulas[best]

		slog.Debug("formula chosen",
			log.ModelNameKey, "LME",
			log.OperationKey, "choose_formula",
			log.ResponseKey, yLabel,
			log.ScoreKey, scores[best])
	}

	l.Formulas = winners
	if refit {
		if err := l.FitDataset(data); err != nil {
			return nil, err
		}
	}
	return chosen, nil
}

// crossValFormula scores one candidate right-hand side for one response as
// the negated mean per-fold RMSE.
func (l *LME) crossValFormula(data *dataset.Dataset, yLabel, rhs string, folds []modelselection.Fold) (float64, error) {
	f, err := formula.ParseRHS(rhs)
	if err != nil {
		return 0, err
	}
	f.Response = yLabel

	total := 0.0
	for _, fold := range folds {
		train, err := data.TakeRows(fold.TrainIndices)
		if err != nil {
			return 0, err
		}
		test, err := data.TakeRows(fold.TestIndices)
		if err != nil {
			return 0, err
		}

		rm, err := l.fitOne(train, f)
		if err != nil {
			return 0, err
		}
		pred, err := predictOne(rm, test)
		if err != nil {
			return 0, err
		}
		yCol, err := test.Column(yLabel)
		if err != nil {
			return 0, err
		}

		sse := 0.0
		for i, v := range yCol {
			d := v - pred[i]
			sse += d * d
		}
		total += math.Sqrt(sse / float64(len(yCol)))
	}
	return -total / float64(len(folds)), nil
}

func (l *LME) response(yLabel, method string) (*responseModel, error) {
	if err := l.RequireFitted("LME", method); err != nil {
		return nil, err
	}
	rm, ok := l.models[yLabel]
	if !ok {
		return nil, errors.NewValueError("LME."+method, "unknown response label: "+yLabel)
	}
	return rm, nil
}

// fitOne assembles the design for one response and solves the Henderson
// mixed-model equations via gonum's Cholesky factorization.
func (l *LME) fitOne(data *dataset.Dataset, f *formula.Formula) (*responseModel, error) {
	yCol, err := data.Column(f.Response)
	if err != nil {
		return nil, err
	}
	n := len(yCol)

	fixed, err := fixedDesign(data, f)
	if err != nil {
		return nil, err
	}
	_, p := fixed.Dims()

	randoms, err := randomDesigns(data, f)
	if err != nil {
		return nil, err
	}
	q := 0
	for _, re := range randoms {
		q += len(re.effect.levelCodes)
	}

	// Assemble C = [X Z].
	c := mat.NewDense(n, p+q, nil)
	for r := 0; r < n; r++ {
		for j := 0; j < p; j++ {
			c.Set(r, j, fixed.At(r, j))
		}
	}
	off := p
	for _, re := range randoms {
		for r := 0; r < n; r++ {
			idx := re.effect.codeIndex[re.groupCol[r]]
			v := 1.0
			if re.slopeCol != nil {
				v = re.slopeCol[r]
			}
			c.Set(r, off+idx, v)
		}
		off += len(re.effect.levelCodes)
	}

	shrink := l.shrinkage
	if q > 0 && shrink == 0 {
		shrink = momentShrinkage(fixed, yCol, randoms)
	}

	coef, err := solveHenderson(c, yCol, p, shrink)
	if err != nil {
		return nil, errors.NewModelError("LME.Fit", "singular design for response "+f.Response,
			errors.ErrSingularMatrix)
	}

	rm := &responseModel{
		formula:    f,
		fixedNames: fixedNames(f),
		fixedCoef:  coef[:p],
	}
	off = p
	for _, re := range randoms {
		m := len(re.effect.levelCodes)
		re.effect.coef = append([]float64(nil), coef[off:off+m]...)
		rm.random = append(rm.random, re.effect)
		off += m
	}
	return rm, nil
}

type randomDesign struct {
	effect   *randomEffect
	groupCol []float64
	slopeCol []float64 // nil for random intercepts
}

func fixedNames(f *formula.Formula) []string {
	names := make([]string, 0, len(f.Fixed)+1)
	names = append(names, InterceptName)
	return append(names, f.Fixed...)
}

// fixedDesign builds the intercept + fixed-terms matrix.
func fixedDesign(data *dataset.Dataset, f *formula.Formula) (*mat.Dense, error) {
	n := data.NumRows()
	out := mat.NewDense(n, 1+len(f.Fixed), nil)
	for r := 0; r < n; r++ {
		out.Set(r, 0, 1)
	}
	for j, term := range f.Fixed {
		col, err := data.Column(term)
		if err != nil {
			return nil, err
		}
		for r := 0; r < n; r++ {
			out.Set(r, j+1, col[r])
		}
	}
	return out, nil
}

// randomDesigns resolves grouping columns and level bookkeeping for every
// random term.
func randomDesigns(data *dataset.Dataset, f *formula.Formula) ([]*randomDesign, error) {
	out := make([]*randomDesign, 0, len(f.Random))
	for _, term := range f.Random {
		groupCol, err := data.Column(term.Group)
		if err != nil {
			return nil, err
		}

		codeIndex := make(map[float64]int)
		var codes []float64
		for _, v := range groupCol {
			if _, ok := codeIndex[v]; !ok {
				codeIndex[v] = len(codes)
				codes = append(codes, v)
			}
		}

		labels := make([]string, len(codes))
		if levels, ok := data.Levels(term.Group); ok {
			for i, code := range codes {
				labels[i] = levels[int(code)]
			}
		} else {
			for i, code := range codes {
				labels[i] = strconv.FormatFloat(code, 'g', -1, 64)
			}
		}

		rd := &randomDesign{
			effect: &randomEffect{
				term:        term,
				levelCodes:  codes,
				levelLabels: labels,
				codeIndex:   codeIndex,
			},
			groupCol: groupCol,
		}
		if !term.Intercept() {
			rd.slopeCol, err = data.Column(term.Variable)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, rd)
	}
	return out, nil
}

// solveHenderson solves (C'C + D)·b = C'y where D penalizes only the
// random-effect block with the shrinkage ratio.
func solveHenderson(c *mat.Dense, y []float64, p int, shrink float64) ([]float64, error) {
	n, total := c.Dims()

	var ctc mat.Dense
	ctc.Mul(c.T(), c)
	for j := p; j < total; j++ {
		ctc.Set(j, j, ctc.At(j, j)+shrink)
	}

	yVec := mat.NewVecDense(n, append([]float64(nil), y...))
	var cty mat.VecDense
	cty.MulVec(c.T(), yVec)

	sym := mat.NewSymDense(total, nil)
	for i := 0; i < total; i++ {
		for j := i; j < total; j++ {
			sym.SetSym(i, j, ctc.At(i, j))
		}
	}

	var chol mat.Cholesky
	if !chol.Factorize(sym) {
		return nil, errors.New("design matrix is not positive definite")
	}
	var sol mat.VecDense
	if err := chol.SolveVecTo(&sol, &cty); err != nil {
		return nil, err
	}

	out := make([]float64, total)
	copy(out, sol.RawVector().Data)
	return out, nil
}

// momentShrinkage derives the ratio of residual to group variance from an
// ordinary least-squares pass over the fixed part. It is a one-shot
// moment estimate, not an iterative REML fit.
func momentShrinkage(fixed *mat.Dense, y []float64, randoms []*randomDesign) float64 {
	n, p := fixed.Dims()

	yVec := mat.NewVecDense(n, append([]float64(nil), y...))
	var beta mat.VecDense
	if err := beta.SolveVec(fixed, yVec); err != nil {
		return 1
	}

	resid := make([]float64, n)
	for r := 0; r < n; r++ {
		v := y[r]
		for j := 0; j < p; j++ {
			v -= fixed.At(r, j) * beta.AtVec(j)
		}
		resid[r] = v
	}

	// Between-group variance of residual means, pooled over all grouping
	// factors; within-group variance as the residual term.
	groupMeans := make(map[int]map[float64][]float64)
	for gi, rd := range randoms {
		byLevel := make(map[float64][]float64)
		for r, code := range rd.groupCol {
			byLevel[code] = append(byLevel[code], resid[r])
		}
		groupMeans[gi] = byLevel
	}

	var between, within float64
	var nBetween, nWithin int
	for _, byLevel := range groupMeans {
		for _, vals := range byLevel {
			m := mean(vals)
			between += m * m
			nBetween++
			for _, v := range vals {
				d := v - m
				within += d * d
				nWithin++
			}
		}
	}
	if nBetween == 0 {
		return 1
	}

	sigmaU := between / float64(nBetween)
	sigmaE := within / float64(maxInt(nWithin-nBetween, 1))
	if sigmaU <= 0 || sigmaE <= 0 {
		return maxShrinkage
	}
	return math.Min(math.Max(sigmaE/sigmaU, minShrinkage), maxShrinkage)
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
