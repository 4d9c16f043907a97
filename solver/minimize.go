package solver

import (
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/tobiaslotz/qunfold/pkg/errors"
)

// DefaultMethod is the solver used when no method name is configured. Newton
// steps with a line search are the closest gonum analogue of a trust-region
// Newton solver.
const DefaultMethod = "newton"

// Options holds the solver tuning knobs.
type Options struct {
	// GTol is the gradient norm below which the solver terminates.
	GTol float64

	// MaxIter caps the number of major iterations.
	MaxIter int
}

// DefaultOptions returns the default solver options: gradient tolerance 1e-8
// and at most 1000 iterations.
func DefaultOptions() Options {
	return Options{GTol: 1e-8, MaxIter: 1000}
}

// Minimize finds a point on the nClasses-dimensional probability simplex
// that minimizes loss. The simplex constraint is handled by a softmax
// reparametrization: the solver searches an unconstrained latent vector l
// and the loss is evaluated at softmax(l). Derivatives of the composed
// objective are estimated by finite differences.
//
// The method name selects the unconstrained solver: "newton" (default),
// "bfgs", "lbfgs", "cg", "gradient-descent", or "nelder-mead". seed seeds
// the random starting point; nil draws a time-based seed.
func Minimize(loss func(p []float64) float64, nClasses int, method string, opts Options, seed *int64) (*Result, error) {
	if loss == nil {
		return nil, errors.NewValueError("Minimize", "loss function must not be nil")
	}
	if nClasses < 2 {
		return nil, errors.NewValidationError("nClasses", "at least 2 classes are required", nClasses)
	}
	if method == "" {
		method = DefaultMethod
	}
	m, err := methodFor(method)
	if err != nil {
		return nil, err
	}

	objective := func(latent []float64) float64 {
		return loss(softmax(latent))
	}
	// Gradient-based methods require Grad (and Newton requires Hess) to be
	// present on the problem; estimate both by finite differences.
	problem := optimize.Problem{
		Func: objective,
		Grad: func(grad, latent []float64) {
			fd.Gradient(grad, objective, latent, nil)
		},
		Hess: func(hess *mat.SymDense, latent []float64) {
			fd.Hessian(hess, objective, latent, nil)
		},
	}

	settings := &optimize.Settings{
		GradientThreshold: opts.GTol,
		MajorIterations:   opts.MaxIter,
		// The gradient of the composed objective is estimated by finite
		// differences, so the gradient threshold alone may be unreachable;
		// a function-value plateau also counts as convergence.
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Iterations: 50,
		},
	}

	result, err := optimize.Minimize(problem, randomStart(nClasses, seed), settings, m)
	if err != nil {
		return nil, errors.Wrapf(err, "Minimize: solver %q failed", method)
	}

	p := softmax(result.X)
	if err := errors.CheckNumericalStability("Minimize", p, result.Stats.MajorIterations); err != nil {
		return nil, err
	}
	return &Result{
		Prevalence: mat.NewVecDense(nClasses, p),
		NIter:      result.Stats.MajorIterations,
		Message:    statusMessage(result.Status),
	}, nil
}

func methodFor(name string) (optimize.Method, error) {
	switch name {
	case "newton":
		return &optimize.Newton{}, nil
	case "bfgs":
		return &optimize.BFGS{}, nil
	case "lbfgs":
		return &optimize.LBFGS{}, nil
	case "cg":
		return &optimize.CG{}, nil
	case "gradient-descent":
		return &optimize.GradientDescent{}, nil
	case "nelder-mead":
		return &optimize.NelderMead{}, nil
	}
	return nil, errors.Wrapf(errors.ErrUnknownSolver, "Minimize: %q", name)
}

// randomStart draws a standard-normal latent starting point.
func randomStart(n int, seed *int64) []float64 {
	var rng *rand.Rand
	if seed != nil {
		rng = rand.New(rand.NewSource(*seed))
	} else {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	x0 := make([]float64, n)
	for i := range x0 {
		x0[i] = rng.NormFloat64()
	}
	return x0
}

// softmax maps an unconstrained latent vector onto the probability simplex.
// The maximum is subtracted before exponentiation to avoid overflow.
func softmax(latent []float64) []float64 {
	p := make([]float64, len(latent))
	max := floats.Max(latent)
	for i, l := range latent {
		p[i] = math.Exp(l - max)
	}
	floats.Scale(1/floats.Sum(p), p)
	return p
}

func statusMessage(status optimize.Status) string {
	switch status {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence,
		optimize.FunctionThreshold, optimize.StepConvergence, optimize.MethodConverge:
		return MsgConverged
	case optimize.IterationLimit:
		return MsgMaxIterations
	}
	return status.String()
}
