package metrics

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/statviz/pkg/errors"
)

// PrecisionRecallCurve computes precision-recall pairs for every distinct
// decision threshold, following the scikit-learn contract: thresholds are
// the distinct scores in increasing order, precision and recall carry one
// extra trailing point (precision 1, recall 0), and the curve is cut once
// full recall is reached.
//
// yTrue must contain only 0 and 1 labels. When there are no positive
// samples, recall is ill-defined; an UndefinedMetricWarning is emitted and
// recall is reported as 1 everywhere.
func PrecisionRecallCurve(yTrue, score *mat.VecDense) (precision, recall, thresholds []float64, err error) {
	n := yTrue.Len()
	if n == 0 {
		return nil, nil, nil, errors.NewValueError("PrecisionRecallCurve", "empty vector")
	}
	if score.Len() != n {
		return nil, nil, nil, errors.NewDimensionError("PrecisionRecallCurve", n, score.Len(), 0)
	}

	totalPos := 0.0
	for i := 0; i < n; i++ {
		v := yTrue.AtVec(i)
		if v != 0 && v != 1 {
			return nil, nil, nil, errors.NewValueError("PrecisionRecallCurve", "labels must be binary (0 or 1)")
		}
		totalPos += v
	}
	if totalPos == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("recall", "no positive samples in yTrue", 1.0))
	}

	// Sort by decreasing score.
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return score.AtVec(idx[a]) > score.AtVec(idx[b])
	})

	// Accumulate true/false positives at each distinct threshold.
	var descPrec, descRec, descThresh []float64
	tps, fps := 0.0, 0.0
	for k, i := range idx {
		if yTrue.AtVec(i) == 1 {
			tps++
		} else {
			fps++
		}
		// Only emit a point when the next score differs (ties share one
		// threshold).
		if k+1 < n && score.AtVec(idx[k+1]) == score.AtVec(i) {
			continue
		}
		descThresh = append(descThresh, score.AtVec(i))
		descPrec = append(descPrec, tps/(tps+fps))
		if totalPos > 0 {
			descRec = append(descRec, tps/totalPos)
		} else {
			descRec = append(descRec, 1.0)
		}
		// Past full recall the curve adds no information.
		if totalPos > 0 && tps == totalPos {
			break
		}
	}

	// Reverse to increasing thresholds and append the (1, 0) endpoint.
	m := len(descThresh)
	precision = make([]float64, m+1)
	recall = make([]float64, m+1)
	thresholds = make([]float64, m)
	for i := 0; i < m; i++ {
		precision[i] = descPrec[m-1-i]
		recall[i] = descRec[m-1-i]
		thresholds[i] = descThresh[m-1-i]
	}
	precision[m] = 1
	recall[m] = 0

	return precision, recall, thresholds, nil
}

// AveragePrecision summarizes a precision-recall curve as the weighted mean
// of precisions at each threshold, the recall increment being the weight.
func AveragePrecision(yTrue, score *mat.VecDense) (float64, error) {
	precision, recall, _, err := PrecisionRecallCurve(yTrue, score)
	if err != nil {
		return 0, err
	}

	ap := 0.0
	for i := 0; i < len(recall)-1; i++ {
		ap += (recall[i] - recall[i+1]) * precision[i]
	}
	return ap, nil
}
