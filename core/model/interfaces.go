package model

import (
	"gonum.org/v1/gonum/mat"
)

// Classifier is the contract a quantification method consumes: a
// probabilistic classifier in the scikit-learn shape. PredictProba returns
// one row per item, each row a probability distribution over classes.
type Classifier interface {
	// Fit trains the classifier on features X and integer labels y.
	Fit(X mat.Matrix, y []int) error

	// PredictProba returns the posterior matrix P(class | item) with shape
	// (n_items, n_classes). Rows sum to 1.
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// ClassCounter is implemented by classifiers that expose the number of
// classes seen during fitting.
type ClassCounter interface {
	NClasses() int
}
