// Package methods implements quantification methods: algorithms that
// estimate the class-prevalence distribution of an unlabeled set of items
// from the outputs of a probabilistic classifier and the class distribution
// of its training data.
//
// Two estimators are provided. LikelihoodMaximizer minimizes a regularized
// negative log-likelihood over the probability simplex, as studied by
// Alexandari et al. (2020). ExpectationMaximizer runs the fixed-point
// iteration of Saerens et al. (2002); the two are asymptotically equivalent.
package methods

import (
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/tobiaslotz/qunfold/core/model"
	"github.com/tobiaslotz/qunfold/pkg/errors"
	qlog "github.com/tobiaslotz/qunfold/pkg/log"
	"github.com/tobiaslotz/qunfold/prevalence"
	"github.com/tobiaslotz/qunfold/solver"
)

// Method is the common lifecycle of all quantification methods. Fit consumes
// labeled training data and records the training prevalence; Predict
// consumes unlabeled test data and returns the estimated test-time
// prevalence as a solver.Result.
type Method interface {
	// Fit trains the method on features X and labels y. nClasses declares
	// the number of classes; 0 means "infer from the labels".
	Fit(X mat.Matrix, y []int, nClasses int) error

	// Predict estimates the class prevalence of the items in X.
	Predict(X mat.Matrix) (*solver.Result, error)
}

// base carries the state shared by all methods: the wrapped classifier and
// the training prevalence acquired at fit time.
type base struct {
	model.BaseEstimator
	classifier    model.Classifier
	fitClassifier bool
	pTrn          *mat.VecDense
}

func (b *base) fit(name string, X mat.Matrix, y []int, nClasses int) error {
	if err := prevalence.CheckY(y, nClasses); err != nil {
		return err
	}
	pTrn, err := prevalence.ClassPrevalences(y, nClasses)
	if err != nil {
		return err
	}
	if b.fitClassifier {
		if b.classifier == nil {
			return errors.NewValueError(name+".Fit", "no classifier configured")
		}
		if err := b.classifier.Fit(X, y); err != nil {
			return errors.Wrap(err, name+".Fit: fitting the classifier")
		}
	}
	if counter, ok := b.classifier.(model.ClassCounter); ok {
		if got := counter.NClasses(); got != pTrn.Len() {
			return errors.NewDimensionError(name+".Fit", pTrn.Len(), got, 1)
		}
	}
	b.pTrn = pTrn
	b.SetFitted()

	slog.Debug("fitted quantifier",
		qlog.MethodNameKey, name,
		qlog.OperationKey, "fit",
		qlog.ClassesKey, pTrn.Len(),
		qlog.ItemsKey, len(y),
	)
	return nil
}

// TrainingPrevalence returns a copy of the training prevalence vector
// recorded at fit time, or nil if the method is not fitted.
func (b *base) TrainingPrevalence() *mat.VecDense {
	if b.pTrn == nil {
		return nil
	}
	out := mat.NewVecDense(b.pTrn.Len(), nil)
	out.CopyVec(b.pTrn)
	return out
}

// posteriors queries the classifier for P(class | item) and validates the
// result against the fitted number of classes.
func (b *base) posteriors(name string, X mat.Matrix) (*mat.Dense, error) {
	if !b.IsFitted() {
		return nil, errors.NewNotFittedError(name, "Predict")
	}
	pYX, err := b.classifier.PredictProba(X)
	if err != nil {
		return nil, errors.Wrap(err, name+".Predict: classifier posteriors")
	}
	rows, cols := pYX.Dims()
	if rows == 0 {
		return nil, errors.NewValueError(name+".Predict", "no items to quantify")
	}
	if cols != b.pTrn.Len() {
		return nil, errors.NewDimensionError(name+".Predict", b.pTrn.Len(), cols, 1)
	}
	if err := errors.CheckMatrix(name+".Predict: classifier posteriors", pYX, rows, cols, 0); err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(pYX), nil
}

// checkTrainingPrevalence rejects training prevalences with zero entries.
// Both estimation algorithms divide posteriors by the training prevalence,
// so a zero entry would propagate non-finite values; the policy here is to
// fail loudly instead.
func checkTrainingPrevalence(op string, pTrn *mat.VecDense) error {
	for i := 0; i < pTrn.Len(); i++ {
		if pTrn.AtVec(i) == 0 {
			return errors.NewNumericalInstabilityError(op+": zero training prevalence", pTrn.RawVector().Data, 0)
		}
	}
	return nil
}
