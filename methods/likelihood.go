package methods

import (
	"log/slog"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/tobiaslotz/qunfold/core/model"
	qlog "github.com/tobiaslotz/qunfold/pkg/log"
	"github.com/tobiaslotz/qunfold/prevalence"
	"github.com/tobiaslotz/qunfold/solver"
)

// LikelihoodMaximizer estimates class prevalence by maximizing the
// likelihood of the observed classifier posteriors under a model in which
// only the class prior changed between training and test time. The
// (regularized) negative log-likelihood is minimized over the probability
// simplex by the configured solver.
type LikelihoodMaximizer struct {
	base
	solverName    string
	solverOptions solver.Options
	tau0          float64
	tau1          float64
	seed          *int64
}

var _ Method = (*LikelihoodMaximizer)(nil)

// NewLikelihoodMaximizer creates a LikelihoodMaximizer wrapping the given
// classifier. By default the classifier is fitted during Fit, both
// regularizers are disabled, and the default solver is used.
func NewLikelihoodMaximizer(classifier model.Classifier, opts ...Option) *LikelihoodMaximizer {
	c := defaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return &LikelihoodMaximizer{
		base:          base{classifier: classifier, fitClassifier: c.fitClassifier},
		solverName:    c.solverName,
		solverOptions: c.solverOptions,
		tau0:          c.tau0,
		tau1:          c.tau1,
		seed:          c.seed,
	}
}

// Fit validates the labels, records the training prevalence, and fits the
// wrapped classifier unless it was declared prefit.
func (lm *LikelihoodMaximizer) Fit(X mat.Matrix, y []int, nClasses int) error {
	return lm.fit("LikelihoodMaximizer", X, y, nClasses)
}

// Predict estimates the prevalence of the items in X. The classifier
// posteriors are rescaled by the training prevalence into likelihood ratios,
// and the regularized negative log-likelihood of a candidate prevalence is
// handed to the solver.
func (lm *LikelihoodMaximizer) Predict(X mat.Matrix) (*solver.Result, error) {
	start := time.Now()
	pYX, err := lm.posteriors("LikelihoodMaximizer", X)
	if err != nil {
		return nil, err
	}
	if err := checkTrainingPrevalence("LikelihoodMaximizer.Predict", lm.pTrn); err != nil {
		return nil, err
	}

	pXY := likelihoodRatios(pYX, lm.pTrn)
	nItems, nClasses := pXY.Dims()

	loss := func(p []float64) float64 {
		nll := 0.0
		for i := 0; i < nItems; i++ {
			nll -= math.Log(floats.Dot(pXY.RawRowView(i), p))
		}
		nll /= float64(nItems)
		return nll + lm.tau0*smoothnessPenalty(p) + lm.tau1*ordinalPenalty(p)
	}

	result, err := solver.Minimize(loss, nClasses, lm.solverName, lm.solverOptions, lm.seed)
	if err != nil {
		return nil, err
	}

	slog.Debug("estimated prevalence",
		qlog.MethodNameKey, "LikelihoodMaximizer",
		qlog.OperationKey, "predict",
		qlog.SolverKey, lm.solverName,
		qlog.IterationsKey, result.NIter,
		qlog.StatusKey, result.Message,
		qlog.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return result, nil
}

// likelihoodRatios divides each posterior row by the training prevalence and
// renormalizes it, yielding a matrix proportional to P(item | class) with
// rows summing to 1.
func likelihoodRatios(pYX *mat.Dense, pTrn *mat.VecDense) *mat.Dense {
	rows, cols := pYX.Dims()
	pXY := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		row := pXY.RawRowView(i)
		floats.DivTo(row, pYX.RawRowView(i), pTrn.RawVector().Data)
	}
	prevalence.NormalizeRows(pXY)
	return pXY
}

// smoothnessPenalty is half the sum of squared first differences between
// consecutive prevalence entries.
func smoothnessPenalty(p []float64) float64 {
	sum := 0.0
	for k := 0; k+1 < len(p); k++ {
		d := p[k+1] - p[k]
		sum += d * d
	}
	return sum / 2
}

// ordinalPenalty is half the sum of squared second differences across
// consecutive class indices. With fewer than 3 classes there is no second
// difference and the penalty is zero.
func ordinalPenalty(p []float64) float64 {
	if len(p) < 3 {
		return 0
	}
	sum := 0.0
	for k := 0; k+2 < len(p); k++ {
		d := -p[k] + 2*p[k+1] - p[k+2]
		sum += d * d
	}
	return sum / 2
}
