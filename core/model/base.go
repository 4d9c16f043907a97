// Package model defines the base estimator state machine and the interfaces
// shared by quantification methods and the classifiers they wrap.
package model

// EstimatorState tracks whether an estimator has been fitted.
type EstimatorState int

const (
	// NotFitted marks an estimator before Fit has completed.
	NotFitted EstimatorState = iota
	// Fitted marks an estimator after a successful Fit.
	Fitted
)

// BaseEstimator is embedded by every estimator to carry its fitted state.
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted reports whether the estimator has been fitted.
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted marks the estimator as fitted.
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset returns the estimator to the unfitted state.
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}
