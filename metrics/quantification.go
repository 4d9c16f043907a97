// Package metrics provides error measures between a true and an estimated
// class-prevalence vector, for evaluating quantification methods.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/tobiaslotz/qunfold/pkg/errors"
)

func checkPair(op string, pTrue, pHat *mat.VecDense) error {
	if pTrue == nil || pTrue.Len() == 0 {
		return errors.Wrap(errors.ErrEmptyData, op)
	}
	if pHat == nil || pHat.Len() != pTrue.Len() {
		got := 0
		if pHat != nil {
			got = pHat.Len()
		}
		return errors.NewDimensionError(op, pTrue.Len(), got, 1)
	}
	return nil
}

// AbsoluteError computes the mean absolute error between the true and the
// estimated prevalence vector.
func AbsoluteError(pTrue, pHat *mat.VecDense) (float64, error) {
	if err := checkPair("AbsoluteError", pTrue, pHat); err != nil {
		return 0, err
	}
	sum := 0.0
	for i := 0; i < pTrue.Len(); i++ {
		sum += math.Abs(pTrue.AtVec(i) - pHat.AtVec(i))
	}
	return sum / float64(pTrue.Len()), nil
}

// RelativeAbsoluteError computes the mean of |pTrue - pHat| / pTrue. Both
// vectors are additively smoothed with eps to keep the ratio defined for
// vanishing true prevalences; pass 0 to disable smoothing.
func RelativeAbsoluteError(pTrue, pHat *mat.VecDense, eps float64) (float64, error) {
	if err := checkPair("RelativeAbsoluteError", pTrue, pHat); err != nil {
		return 0, err
	}
	n := pTrue.Len()
	denom := 1 + float64(n)*eps
	sum := 0.0
	for i := 0; i < n; i++ {
		pt := (pTrue.AtVec(i) + eps) / denom
		ph := (pHat.AtVec(i) + eps) / denom
		if pt == 0 {
			return 0, errors.NewValueError("RelativeAbsoluteError", "true prevalence has a zero entry and eps is 0")
		}
		sum += math.Abs(pt-ph) / pt
	}
	return sum / float64(n), nil
}

// KLDivergence computes the Kullback-Leibler divergence of pHat from pTrue,
// with additive eps smoothing applied to both vectors.
func KLDivergence(pTrue, pHat *mat.VecDense, eps float64) (float64, error) {
	if err := checkPair("KLDivergence", pTrue, pHat); err != nil {
		return 0, err
	}
	n := pTrue.Len()
	denom := 1 + float64(n)*eps
	sum := 0.0
	for i := 0; i < n; i++ {
		pt := (pTrue.AtVec(i) + eps) / denom
		ph := (pHat.AtVec(i) + eps) / denom
		if pt == 0 {
			continue
		}
		if ph == 0 {
			return 0, errors.NewValueError("KLDivergence", "estimate has a zero entry and eps is 0")
		}
		sum += pt * math.Log(pt/ph)
	}
	return sum, nil
}

// NormalizedMatchDistance computes the normalized match distance between two
// prevalence vectors: the earth mover's distance under an ordinal class
// order, divided by n-1 so that the result lies in [0, 1].
func NormalizedMatchDistance(pTrue, pHat *mat.VecDense) (float64, error) {
	if err := checkPair("NormalizedMatchDistance", pTrue, pHat); err != nil {
		return 0, err
	}
	n := pTrue.Len()
	if n < 2 {
		return 0, errors.NewValueError("NormalizedMatchDistance", "at least 2 classes are required")
	}
	sum := 0.0
	cum := 0.0
	for i := 0; i < n-1; i++ {
		cum += pTrue.AtVec(i) - pHat.AtVec(i)
		sum += math.Abs(cum)
	}
	return sum / float64(n-1), nil
}
