// Package statviz provides mixed-effects regression and statistical
// plotting for Go, with an estimator API following scikit-learn
// conventions (Fit, Predict, Score) on gonum matrices.
//
// The estimators live in their own packages:
//
//   - mixed: linear mixed-effects regression with lme4-style formulas,
//     one model per response column; configured formulas are right-hand
//     sides ("x + (1|site)"), paired with each response label in turn
//   - kde: kernel density estimation with rule-of-thumb and
//     cross-validated bandwidth selection
//   - metrics: regression metrics and precision-recall curves
//   - modelselection: K-fold splitting, cross-validated scoring and
//     one-dimensional grid search
//   - dataset, formula: labeled columnar data and formula parsing
//   - plotting: correlation plots, kernel-density histograms,
//     precision-recall curves and residual panels on gonum/plot
//
// A typical session fits a mixed model and plots its fit quality:
//
//	est := mixed.NewLME(
//		mixed.WithXLabels("rain", "site"),
//		mixed.WithYLabels("yield"),
//		mixed.WithFormulas("rain + (1|site)"),
//	)
//	if err := est.Fit(X, Y); err != nil {
//		log.Fatal(err)
//	}
//	Yp, _ := est.Predict(X)
//	figs, _ := plotting.CorrelationPlot(Y, Yp,
//		plotting.WithLabels("yield"), plotting.WithUnits("t/ha"))
//	figs[0].Save(6*vg.Inch, 6*vg.Inch, "yield.png")
package statviz
