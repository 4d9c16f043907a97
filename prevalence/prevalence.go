// Package prevalence provides label validation and prevalence bookkeeping:
// turning a raw label slice into a validated class-frequency vector on the
// probability simplex, plus the simplex utilities shared by the estimation
// methods.
package prevalence

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/tobiaslotz/qunfold/pkg/errors"
)

// CheckY validates integer labels against a declared number of classes.
// Labels must be non-empty and lie in [0, nClasses). When nClasses is 0 the
// number of classes is inferred as max(y)+1 and every class in that range
// must occur at least once; a class without training examples cannot be
// inferred from the labels alone.
func CheckY(y []int, nClasses int) error {
	if len(y) == 0 {
		return errors.NewValidationError("y", "labels must not be empty", y)
	}

	maxLabel := 0
	for _, label := range y {
		if label < 0 {
			return errors.NewValidationError("y", "labels must be non-negative", label)
		}
		if nClasses > 0 && label >= nClasses {
			return errors.NewValidationError("y", "label out of range [0, n_classes)", label)
		}
		if label > maxLabel {
			maxLabel = label
		}
	}

	if nClasses == 0 {
		seen := make([]bool, maxLabel+1)
		for _, label := range y {
			seen[label] = true
		}
		for c, ok := range seen {
			if !ok {
				return errors.NewValidationError("y", "class has no training examples and n_classes was not given", c)
			}
		}
	}
	return nil
}

// ClassPrevalences computes the empirical class-frequency vector of y over
// nClasses classes. When nClasses is 0 it is inferred as max(y)+1. The
// labels are validated with CheckY first.
func ClassPrevalences(y []int, nClasses int) (*mat.VecDense, error) {
	if err := CheckY(y, nClasses); err != nil {
		return nil, err
	}

	if nClasses == 0 {
		for _, label := range y {
			if label+1 > nClasses {
				nClasses = label + 1
			}
		}
	}

	counts := make([]float64, nClasses)
	for _, label := range y {
		counts[label]++
	}
	floats.Scale(1/float64(len(y)), counts)
	return mat.NewVecDense(nClasses, counts), nil
}

// IsSimplex reports whether v has non-negative entries summing to 1 within
// tol.
func IsSimplex(v mat.Vector, tol float64) bool {
	sum := 0.0
	for i := 0; i < v.Len(); i++ {
		e := v.AtVec(i)
		if e < -tol || math.IsNaN(e) {
			return false
		}
		sum += e
	}
	return math.Abs(sum-1) <= tol
}

// Uniform returns the uniform prevalence vector over nClasses classes.
func Uniform(nClasses int) *mat.VecDense {
	v := mat.NewVecDense(nClasses, nil)
	for i := 0; i < nClasses; i++ {
		v.SetVec(i, 1/float64(nClasses))
	}
	return v
}

// NormalizeRows scales each row of m in place so that it sums to 1. Rows
// with zero sum are left untouched.
func NormalizeRows(m *mat.Dense) {
	rows, _ := m.Dims()
	for i := 0; i < rows; i++ {
		row := m.RawRowView(i)
		sum := floats.Sum(row)
		if sum == 0 {
			continue
		}
		floats.Scale(1/sum, row)
	}
}
