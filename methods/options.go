package methods

import (
	"github.com/tobiaslotz/qunfold/solver"
)

// config is the tunable-parameter record shared by the method constructors.
// Each constructor reads the fields relevant to its algorithm.
type config struct {
	solverName    string
	solverOptions solver.Options
	tau0          float64
	tau1          float64
	fitClassifier bool
	seed          *int64
	maxIter       int
	tol           float64
}

func defaultConfig() config {
	return config{
		solverName:    solver.DefaultMethod,
		solverOptions: solver.DefaultOptions(),
		fitClassifier: true,
		maxIter:       DefaultMaxIter,
		tol:           DefaultTol,
	}
}

// Option configures a quantification method.
type Option func(*config)

// WithSolver selects the solver driving the likelihood maximization. See
// solver.Minimize for the recognized names.
func WithSolver(name string) Option {
	return func(c *config) {
		c.solverName = name
	}
}

// WithSolverOptions sets the solver tuning knobs for the likelihood
// maximization.
func WithSolverOptions(opts solver.Options) Option {
	return func(c *config) {
		c.solverOptions = opts
	}
}

// WithTau0 sets the regularization strength penalizing deviations from a
// uniform prevalence. The default 0 disables the term.
func WithTau0(tau float64) Option {
	return func(c *config) {
		c.tau0 = tau
	}
}

// WithTau1 sets the regularization strength penalizing non-ordinal
// prevalence shapes. The default 0 disables the term.
func WithTau1(tau float64) Option {
	return func(c *config) {
		c.tau1 = tau
	}
}

// WithSeed seeds the stochastic components of the solver, making the
// likelihood maximization deterministic.
func WithSeed(seed int64) Option {
	return func(c *config) {
		c.seed = &seed
	}
}

// WithPrefitClassifier declares that the wrapped classifier is already
// fitted, so Fit will not fit it again.
func WithPrefitClassifier() Option {
	return func(c *config) {
		c.fitClassifier = false
	}
}

// WithMaxIter caps the number of expectation-maximization iterations.
func WithMaxIter(maxIter int) Option {
	return func(c *config) {
		c.maxIter = maxIter
	}
}

// WithTol sets the L2 convergence tolerance of the expectation maximization.
// A tolerance of 0 or below disables the convergence check, running exactly
// the configured number of iterations.
func WithTol(tol float64) Option {
	return func(c *config) {
		c.tol = tol
	}
}
