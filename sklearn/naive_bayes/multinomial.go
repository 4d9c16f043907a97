package naivebayes

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/tobiaslotz/qunfold/core/model"
	"github.com/tobiaslotz/qunfold/core/parallel"
	"github.com/tobiaslotz/qunfold/pkg/errors"
	"github.com/tobiaslotz/qunfold/prevalence"
)

// MultinomialNB is a multinomial naive Bayes classifier for non-negative
// count features, such as word counts in text quantification.
type MultinomialNB struct {
	model.BaseEstimator

	alpha    float64 // Laplace/Lidstone smoothing
	fitPrior bool    // false means a uniform class prior

	nClasses       int
	nFeatures      int
	logPriors      []float64
	featureLogProb [][]float64 // log P(feature | class)
}

var _ model.Classifier = (*MultinomialNB)(nil)

// MultinomialOption configures a MultinomialNB.
type MultinomialOption func(*MultinomialNB)

// WithAlpha sets the additive smoothing strength. The default 1 is Laplace
// smoothing; 0 disables smoothing.
func WithAlpha(alpha float64) MultinomialOption {
	return func(nb *MultinomialNB) {
		nb.alpha = alpha
	}
}

// WithFitPrior controls whether the class prior is estimated from the data.
// When false, a uniform prior is used.
func WithFitPrior(fit bool) MultinomialOption {
	return func(nb *MultinomialNB) {
		nb.fitPrior = fit
	}
}

// NewMultinomialNB creates an unfitted multinomial naive Bayes classifier.
func NewMultinomialNB(opts ...MultinomialOption) *MultinomialNB {
	nb := &MultinomialNB{alpha: 1, fitPrior: true}
	for _, opt := range opts {
		opt(nb)
	}
	return nb
}

// NClasses returns the number of classes seen during fitting.
func (nb *MultinomialNB) NClasses() int {
	return nb.nClasses
}

// Fit estimates smoothed per-class feature log-probabilities and class
// priors from non-negative count features X and labels y.
func (nb *MultinomialNB) Fit(X mat.Matrix, y []int) error {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.Wrap(errors.ErrEmptyData, "MultinomialNB.Fit")
	}
	if rows != len(y) {
		return errors.NewDimensionError("MultinomialNB.Fit", len(y), rows, 0)
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
	featureCounts := newGrid(nClasses, cols)
	for i, label := range y {
		counts[label]++
		for j := 0; j < cols; j++ {
			v := X.At(i, j)
			if v < 0 {
				return errors.NewValueError("MultinomialNB.Fit", "features must be non-negative counts")
			}
			featureCounts[label][j] += v
		}
	}

	featureLogProb := newGrid(nClasses, cols)
	for c := 0; c < nClasses; c++ {
		total := floats.Sum(featureCounts[c]) + nb.alpha*float64(cols)
		for j := 0; j < cols; j++ {
			featureLogProb[c][j] = math.Log((featureCounts[c][j] + nb.alpha) / total)
		}
	}

	logPriors := make([]float64, nClasses)
	for c := 0; c < nClasses; c++ {
		if nb.fitPrior {
			logPriors[c] = math.Log(counts[c] / float64(rows))
		} else {
			logPriors[c] = -math.Log(float64(nClasses))
		}
	}

	nb.nClasses = nClasses
	nb.nFeatures = cols
	nb.logPriors = logPriors
	nb.featureLogProb = featureLogProb
	nb.SetFitted()
	return nil
}

// PredictProba returns the posterior matrix P(class | item), with rows
// normalized by the log-sum-exp trick.
func (nb *MultinomialNB) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !nb.IsFitted() {
		return nil, errors.NewNotFittedError("MultinomialNB", "PredictProba")
	}
	rows, cols := X.Dims()
	if cols != nb.nFeatures {
		return nil, errors.NewDimensionError("MultinomialNB.PredictProba", nb.nFeatures, cols, 1)
	}

	out := mat.NewDense(rows, nb.nClasses, nil)
	parallel.ParallelizeWithThreshold(rows, predictParallelThreshold, func(start, end int) {
		logp := make([]float64, nb.nClasses)
		for i := start; i < end; i++ {
			for c := 0; c < nb.nClasses; c++ {
				lp := nb.logPriors[c]
				for j := 0; j < cols; j++ {
					lp += X.At(i, j) * nb.featureLogProb[c][j]
				}
				logp[c] = lp
			}

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
