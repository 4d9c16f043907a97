// Package naivebayes provides a Gaussian naive Bayes classifier in the
// scikit-learn shape. It implements the classifier contract consumed by the
// quantification methods, so the library is usable end to end without an
// external classifier.
package naivebayes

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/tobiaslotz/qunfold/core/model"
	"github.com/tobiaslotz/qunfold/core/parallel"
	"github.com/tobiaslotz/qunfold/pkg/errors"
	"github.com/tobiaslotz/qunfold/prevalence"
)

// predictParallelThreshold is the item count above which posterior rows are
// computed in parallel.
const predictParallelThreshold = 256

// GaussianNB is a Gaussian naive Bayes classifier: features are modeled as
// conditionally independent normal distributions per class.
type GaussianNB struct {
	model.BaseEstimator

	// VarSmoothing is the portion of the largest feature variance added to
	// all variances for numerical stability. Defaults to 1e-9.
	VarSmoothing float64

	nClasses  int
	nFeatures int
	logPriors []float64
	means     [][]float64
	sigmas    [][]float64 // per-class, per-feature standard deviations
}

var _ model.Classifier = (*GaussianNB)(nil)

// NewGaussianNB creates an unfitted Gaussian naive Bayes classifier.
func NewGaussianNB() *GaussianNB {
	return &GaussianNB{VarSmoothing: 1e-9}
}

// NClasses returns the number of classes seen during fitting.
func (nb *GaussianNB) NClasses() int {
	return nb.nClasses
}

// Fit estimates per-class feature means, variances, and priors from X and y.
// The number of classes is inferred from the labels.
func (nb *GaussianNB) Fit(X mat.Matrix, y []int) error {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.Wrap(errors.ErrEmptyData, "GaussianNB.Fit")
	}
	if rows != len(y) {
		return errors.NewDimensionError("GaussianNB.Fit", len(y), rows, 0)
	}
	if err := prevalence.CheckY(y, 0); err != nil {
		return err
	}

	nClasses := 0
	for _, label := range y {
		if label+1 > nClasses {
			nClasses = label + 1
		}
	}

	counts := make([]float64, nClasses)
	means := newGrid(nClasses, cols)
	variances := newGrid(nClasses, cols)

	for i, label := range y {
		counts[label]++
		for j := 0; j < cols; j++ {
			means[label][j] += X.At(i, j)
		}
	}
	for c := 0; c < nClasses; c++ {
		floats.Scale(1/counts[c], means[c])
	}
	for i, label := range y {
		for j := 0; j < cols; j++ {
			d := X.At(i, j) - means[label][j]
			variances[label][j] += d * d
		}
	}

	// Stabilize vanishing variances with a fraction of the largest one.
	maxVar := 0.0
	for c := 0; c < nClasses; c++ {
		floats.Scale(1/counts[c], variances[c])
		if m := floats.Max(variances[c]); m > maxVar {
			maxVar = m
		}
	}
	epsilon := nb.VarSmoothing * maxVar
	if epsilon == 0 {
		epsilon = nb.VarSmoothing
	}

	sigmas := newGrid(nClasses, cols)
	for c := 0; c < nClasses; c++ {
		for j := 0; j < cols; j++ {
			sigmas[c][j] = math.Sqrt(variances[c][j] + epsilon)
		}
	}

	logPriors := make([]float64, nClasses)
	for c := 0; c < nClasses; c++ {
		logPriors[c] = math.Log(counts[c] / float64(rows))
	}

	nb.nClasses = nClasses
	nb.nFeatures = cols
	nb.logPriors = logPriors
	nb.means = means
	nb.sigmas = sigmas
	nb.SetFitted()
	return nil
}

// PredictProba returns the posterior matrix P(class | item). Per-class joint
// log-likelihoods are normalized with the log-sum-exp trick, so rows sum to
// 1 even for extreme likelihood ratios.
func (nb *GaussianNB) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !nb.IsFitted() {
		return nil, errors.NewNotFittedError("GaussianNB", "PredictProba")
	}
	rows, cols := X.Dims()
	if cols != nb.nFeatures {
		return nil, errors.NewDimensionError("GaussianNB.PredictProba", nb.nFeatures, cols, 1)
	}

	out := mat.NewDense(rows, nb.nClasses, nil)
	parallel.ParallelizeWithThreshold(rows, predictParallelThreshold, func(start, end int) {
		logp := make([]float64, nb.nClasses)
		for i := start; i < end; i++ {
			for c := 0; c < nb.nClasses; c++ {
				lp := nb.logPriors[c]
				for j := 0; j < cols; j++ {
					normal := distuv.Normal{Mu: nb.means[c][j], Sigma: nb.sigmas[c][j]}
					lp += normal.LogProb(X.At(i, j))
				}
				logp[c] = lp
			}

			// log-sum-exp normalization
			max := floats.Max(logp)
			sum := 0.0
			for c := range logp {
				logp[c] = math.Exp(logp[c] - max)
				sum += logp[c]
			}
			for c := range logp {
				out.Set(i, c, logp[c]/sum)
			}
		}
	})
	return out, nil
}

func newGrid(rows, cols int) [][]float64 {
	g := make([][]float64, rows)
	for i := range g {
		g[i] = make([]float64, cols)
	}
	return g
}
