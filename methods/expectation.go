package methods

import (
	"log/slog"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/tobiaslotz/qunfold/core/model"
	"github.com/tobiaslotz/qunfold/core/parallel"
	"github.com/tobiaslotz/qunfold/pkg/errors"
	qlog "github.com/tobiaslotz/qunfold/pkg/log"
	"github.com/tobiaslotz/qunfold/solver"
)

const (
	// DefaultMaxIter is the default iteration budget of the expectation
	// maximization. It is hardly ever reached with the default tolerance.
	DefaultMaxIter = 100

	// DefaultTol is the default L2 convergence tolerance, the float32
	// resolution.
	DefaultTol = 1e-6
)

// bagParallelThreshold is the bag count above which per-bag EM updates are
// fanned out across cores.
const bagParallelThreshold = 1

// ExpectationMaximizer estimates class prevalence with the iterative
// expectation-maximization procedure of Saerens et al. (2002): posteriors
// are re-weighted by the current prevalence hypothesis and the hypothesis is
// re-estimated from the re-weighted posteriors, until convergence or the
// iteration budget.
type ExpectationMaximizer struct {
	base
	maxIter int
	tol     float64
}

var _ Method = (*ExpectationMaximizer)(nil)

// NewExpectationMaximizer creates an ExpectationMaximizer wrapping the given
// classifier, with DefaultMaxIter iterations and DefaultTol tolerance unless
// configured otherwise.
func NewExpectationMaximizer(classifier model.Classifier, opts ...Option) *ExpectationMaximizer {
	c := defaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return &ExpectationMaximizer{
		base:    base{classifier: classifier, fitClassifier: c.fitClassifier},
		maxIter: c.maxIter,
		tol:     c.tol,
	}
}

// Fit validates the labels, records the training prevalence, and fits the
// wrapped classifier unless it was declared prefit.
func (em *ExpectationMaximizer) Fit(X mat.Matrix, y []int, nClasses int) error {
	return em.fit("ExpectationMaximizer", X, y, nClasses)
}

// Predict estimates the prevalence of the items in X by running the EM
// routine from the training prevalence. A ConvergenceWarning is emitted when
// the iteration budget is exhausted before the tolerance is met.
func (em *ExpectationMaximizer) Predict(X mat.Matrix) (*solver.Result, error) {
	start := time.Now()
	pYX, err := em.posteriors("ExpectationMaximizer", X)
	if err != nil {
		return nil, err
	}
	result, err := MaximizeExpectation(pYX, em.pTrn, em.maxIter, em.tol)
	if err != nil {
		return nil, err
	}
	if em.tol > 0 && !result.Converged() {
		errors.Warn(errors.NewConvergenceWarning("ExpectationMaximizer", result.NIter, ""))
	}

	slog.Debug("estimated prevalence",
		qlog.MethodNameKey, "ExpectationMaximizer",
		qlog.OperationKey, "predict",
		qlog.IterationsKey, result.NIter,
		qlog.StatusKey, result.Message,
		qlog.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return result, nil
}

// MaximizeExpectation runs the expectation-maximization routine on a single
// bag of items. pYX is the posterior matrix P(class | item) with shape
// (n_items, n_classes); pTrn is the training prevalence the iteration starts
// from. A tol of 0 or below disables the convergence check, so exactly
// maxIter iterations are run.
func MaximizeExpectation(pYX mat.Matrix, pTrn *mat.VecDense, maxIter int, tol float64) (*solver.Result, error) {
	results, err := MaximizeExpectationBatch([]mat.Matrix{pYX}, pTrn, maxIter, tol)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// ExpectationEstimate runs the EM routine on a single bag and returns the
// bare prevalence vector without the Result wrapper, for composition with
// algorithms that only need the numeric estimate.
func ExpectationEstimate(pYX mat.Matrix, pTrn *mat.VecDense, maxIter int, tol float64) (*mat.VecDense, error) {
	result, err := MaximizeExpectation(pYX, pTrn, maxIter, tol)
	if err != nil {
		return nil, err
	}
	return result.Prevalence, nil
}

// ExpectationEstimateBatch is the batch form of ExpectationEstimate: one
// bare prevalence vector per bag.
func ExpectationEstimateBatch(bags []mat.Matrix, pTrn *mat.VecDense, maxIter int, tol float64) ([]*mat.VecDense, error) {
	results, err := MaximizeExpectationBatch(bags, pTrn, maxIter, tol)
	if err != nil {
		return nil, err
	}
	estimates := make([]*mat.VecDense, len(results))
	for b, result := range results {
		estimates[b] = result.Prevalence
	}
	return estimates, nil
}

// MaximizeExpectationBatch runs the EM routine on a batch of independent
// bags that share one classifier and training prevalence, producing one
// Result per bag. The bags are iterated in lockstep: each iteration updates
// every bag (in parallel, since no bag's update depends on another's), and
// the loop stops early only once every bag's update moved less than tol in
// L2 distance. Exhausting maxIter is not an error; the last estimates are
// returned with a budget-exhausted status.
func MaximizeExpectationBatch(bags []mat.Matrix, pTrn *mat.VecDense, maxIter int, tol float64) ([]*solver.Result, error) {
	if len(bags) == 0 {
		return nil, errors.NewValueError("MaximizeExpectation", "at least one bag is required")
	}
	if maxIter < 0 {
		return nil, errors.NewValidationError("maxIter", "must be non-negative", maxIter)
	}
	if pTrn == nil || pTrn.Len() == 0 {
		return nil, errors.NewValueError("MaximizeExpectation", "training prevalence must not be empty")
	}
	if err := checkTrainingPrevalence("MaximizeExpectation", pTrn); err != nil {
		return nil, err
	}

	nClasses := pTrn.Len()
	prior := pTrn.RawVector().Data

	// Precompute the per-bag ratio matrices pYX / pTrn; each iteration only
	// multiplies them by the current prevalence hypothesis.
	ratios := make([]*mat.Dense, len(bags))
	prev := make([][]float64, len(bags))
	next := make([][]float64, len(bags))
	for b, bag := range bags {
		rows, cols := bag.Dims()
		if rows == 0 {
			return nil, errors.NewValueError("MaximizeExpectation", "bags must not be empty")
		}
		if cols != nClasses {
			return nil, errors.NewDimensionError("MaximizeExpectation", nClasses, cols, 1)
		}
		ratio := mat.DenseCopyOf(bag)
		for i := 0; i < rows; i++ {
			row := ratio.RawRowView(i)
			floats.Div(row, prior)
		}
		ratios[b] = ratio
		prev[b] = append([]float64(nil), prior...)
		next[b] = make([]float64, nClasses)
	}

	for nIter := 0; nIter < maxIter; nIter++ {
		parallel.ParallelizeWithThreshold(len(bags), bagParallelThreshold, func(start, end int) {
			for b := start; b < end; b++ {
				emStep(ratios[b], prev[b], next[b])
			}
		})

		if tol > 0 && allWithinTol(prev, next, tol) {
			logBatchDone(len(bags), nIter+1, solver.MsgConverged)
			return batchResults(next, nIter+1, solver.MsgConverged), nil
		}
		prev, next = next, prev
	}
	logBatchDone(len(bags), maxIter, solver.MsgMaxIterations)
	return batchResults(prev, maxIter, solver.MsgMaxIterations), nil
}

func logBatchDone(nBags, nIter int, message string) {
	slog.Debug("expectation maximization finished",
		qlog.OperationKey, "maximize_expectation",
		qlog.BagsKey, nBags,
		qlog.IterationsKey, nIter,
		qlog.StatusKey, message,
	)
}

// emStep performs one fixed-point update for a single bag: re-weight each
// item's ratio row by the current prevalence hypothesis, renormalize it to a
// posterior, and average the posteriors into the next hypothesis.
func emStep(ratio *mat.Dense, pPrev, pNext []float64) {
	rows, cols := ratio.Dims()
	weighted := make([]float64, cols)
	for j := range pNext {
		pNext[j] = 0
	}
	for i := 0; i < rows; i++ {
		floats.MulTo(weighted, ratio.RawRowView(i), pPrev)
		sum := floats.Sum(weighted)
		floats.AddScaled(pNext, 1/sum, weighted)
	}
	floats.Scale(1/float64(rows), pNext)
}

// allWithinTol reports whether every bag's update moved less than tol in
// Euclidean distance.
func allWithinTol(prev, next [][]float64, tol float64) bool {
	for b := range prev {
		sum := 0.0
		for j := range prev[b] {
			d := next[b][j] - prev[b][j]
			sum += d * d
		}
		if math.Sqrt(sum) >= tol {
			return false
		}
	}
	return true
}

func batchResults(estimates [][]float64, nIter int, message string) []*solver.Result {
	results := make([]*solver.Result, len(estimates))
	for b, p := range estimates {
		results[b] = &solver.Result{
			Prevalence: mat.NewVecDense(len(p), append([]float64(nil), p...)),
			NIter:      nIter,
			Message:    message,
		}
	}
	return results
}
