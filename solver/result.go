// Package solver provides the simplex-constrained minimization service used
// by the quantification methods, together with the Result type in which all
// methods report their estimates.
package solver

import (
	"gonum.org/v1/gonum/mat"
)

// Termination status messages reported in Result.Message.
const (
	// MsgConverged reports normal termination on the convergence criterion.
	MsgConverged = "Optimization terminated successfully."
	// MsgMaxIterations reports termination on the iteration budget. This is
	// a degraded but valid outcome, not a failure.
	MsgMaxIterations = "Maximum number of iterations reached."
)

// Result is the structured outcome of a prevalence estimation: the estimated
// prevalence vector, the number of iterations consumed, and a human-readable
// termination status. Results are immutable once returned.
type Result struct {
	// Prevalence is the estimated class-prevalence vector, a point on the
	// probability simplex.
	Prevalence *mat.VecDense

	// NIter is the number of iterations the algorithm consumed.
	NIter int

	// Message describes how the algorithm terminated.
	Message string
}

// Converged reports whether the result was obtained by meeting the
// convergence criterion rather than exhausting the iteration budget.
func (r *Result) Converged() bool {
	return r.Message == MsgConverged
}
