package methods

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/tobiaslotz/qunfold/pkg/errors"
	"github.com/tobiaslotz/qunfold/prevalence"
)

func TestLikelihoodRatiosRowsSumToOne(t *testing.T) {
	pTrn := mat.NewVecDense(3, []float64{0.5, 0.3, 0.2})
	pYX := mat.NewDense(2, 3, []float64{
		0.6, 0.3, 0.1,
		0.2, 0.5, 0.3,
	})

	pXY := likelihoodRatios(pYX, pTrn)

	for i := 0; i < 2; i++ {
		sum := 0.0
		for j := 0; j < 3; j++ {
			e := pXY.At(i, j)
			if e <= 0 {
				t.Errorf("pXY[%d][%d] = %f, want > 0", i, j, e)
			}
			sum += e
		}
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("row %d sums to %f", i, sum)
		}
	}

	// Rescaling by a uniform prior must be a no-op after renormalization.
	uniform := prevalence.Uniform(3)
	same := likelihoodRatios(pYX, uniform)
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(same.At(i, j)-pYX.At(i, j)) > 1e-12 {
				t.Errorf("uniform prior changed pXY[%d][%d]", i, j)
			}
		}
	}
}

func TestRegularizersDefaultToNoOps(t *testing.T) {
	// tau_0 = tau_1 = 0 means the loss is the bare negative log-likelihood;
	// the penalty terms themselves must vanish where documented.
	if got := smoothnessPenalty([]float64{0.25, 0.25, 0.25, 0.25}); got != 0 {
		t.Errorf("smoothnessPenalty(uniform) = %f, want 0", got)
	}
	if got := ordinalPenalty([]float64{0.4, 0.6}); got != 0 {
		t.Errorf("ordinalPenalty with 2 classes = %f, want 0", got)
	}
	if got := ordinalPenalty([]float64{0.2, 0.3, 0.4, 0.1}); got == 0 {
		t.Error("ordinalPenalty should be positive for a non-linear shape")
	}
}

func TestSmoothnessPenaltyValue(t *testing.T) {
	// First differences of (0.5, 0.3, 0.2) are (-0.2, -0.1); half the sum of
	// squares is (0.04 + 0.01) / 2.
	got := smoothnessPenalty([]float64{0.5, 0.3, 0.2})
	if math.Abs(got-0.025) > 1e-12 {
		t.Errorf("smoothnessPenalty = %f, want 0.025", got)
	}
}

func TestOrdinalPenaltyValue(t *testing.T) {
	// The second difference of (0.5, 0.3, 0.2) is -0.5+0.6-0.2 = -0.1.
	got := ordinalPenalty([]float64{0.5, 0.3, 0.2})
	if math.Abs(got-0.005) > 1e-12 {
		t.Errorf("ordinalPenalty = %f, want 0.005", got)
	}
}

func TestLikelihoodMaximizerMatchesExpectationMaximizer(t *testing.T) {
	// Alexandari et al. (2020): maximizing the likelihood and iterating EM
	// find the same optimum. Compare both estimates on one bag.
	posteriors := mat.NewDense(10, 2, []float64{
		0.9, 0.1,
		0.8, 0.2,
		0.9, 0.1,
		0.7, 0.3,
		0.85, 0.15,
		0.9, 0.1,
		0.75, 0.25,
		0.2, 0.8,
		0.1, 0.9,
		0.3, 0.7,
	})
	clf := &stubClassifier{posteriors: posteriors}
	y := []int{0, 0, 1, 1}

	em := NewExpectationMaximizer(clf, WithMaxIter(1000), WithTol(1e-10))
	if err := em.Fit(nil, y, 2); err != nil {
		t.Fatalf("EM Fit failed: %v", err)
	}
	emResult, err := em.Predict(nil)
	if err != nil {
		t.Fatalf("EM Predict failed: %v", err)
	}

	lm := NewLikelihoodMaximizer(clf, WithSolver("nelder-mead"), WithSeed(13))
	if err := lm.Fit(nil, y, 2); err != nil {
		t.Fatalf("LM Fit failed: %v", err)
	}
	lmResult, err := lm.Predict(nil)
	if err != nil {
		t.Fatalf("LM Predict failed: %v", err)
	}

	if !prevalence.IsSimplex(lmResult.Prevalence, 1e-6) {
		t.Errorf("LM estimate off the simplex: %v", lmResult.Prevalence.RawVector().Data)
	}
	for i := 0; i < 2; i++ {
		diff := math.Abs(lmResult.Prevalence.AtVec(i) - emResult.Prevalence.AtVec(i))
		if diff > 0.02 {
			t.Errorf("estimates disagree at class %d: LM %f vs EM %f",
				i, lmResult.Prevalence.AtVec(i), emResult.Prevalence.AtVec(i))
		}
	}
}

func TestLikelihoodMaximizerDefaultSolver(t *testing.T) {
	// The constructor defaults have to work end to end: no solver name, no
	// solver options, just a classifier and a seed.
	posteriors := mat.NewDense(10, 2, []float64{
		0.9, 0.1,
		0.8, 0.2,
		0.9, 0.1,
		0.7, 0.3,
		0.85, 0.15,
		0.9, 0.1,
		0.75, 0.25,
		0.2, 0.8,
		0.1, 0.9,
		0.3, 0.7,
	})
	clf := &stubClassifier{posteriors: posteriors}

	lm := NewLikelihoodMaximizer(clf, WithSeed(3))
	if err := lm.Fit(nil, []int{0, 0, 1, 1}, 2); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	result, err := lm.Predict(nil)
	if err != nil {
		t.Fatalf("Predict with the default solver failed: %v", err)
	}

	if !prevalence.IsSimplex(result.Prevalence, 1e-6) {
		t.Errorf("estimate off the simplex: %v", result.Prevalence.RawVector().Data)
	}
	// 7 of the 10 posteriors lean towards class 0.
	if result.Prevalence.AtVec(0) <= 0.5 {
		t.Errorf("p[0] = %f, want > 0.5", result.Prevalence.AtVec(0))
	}
}

func TestLikelihoodMaximizerZeroTrainingPrevalence(t *testing.T) {
	clf := &stubClassifier{posteriors: repeatRows(3, []float64{0.4, 0.3, 0.3})}
	lm := NewLikelihoodMaximizer(clf, WithSeed(1))

	// Class 1 has no training examples; with an explicit n_classes this
	// passes Fit but must be rejected at Predict before dividing by zero.
	if err := lm.Fit(nil, []int{0, 0, 2}, 3); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	_, err := lm.Predict(nil)
	if err == nil {
		t.Fatal("expected an error for a zero training prevalence")
	}
	var nie *errors.NumericalInstabilityError
	if !errors.As(err, &nie) {
		t.Errorf("expected NumericalInstabilityError, got %v", err)
	}
}

func TestLikelihoodMaximizerNotFitted(t *testing.T) {
	lm := NewLikelihoodMaximizer(&stubClassifier{posteriors: repeatRows(1, []float64{0.5, 0.5})})
	if _, err := lm.Predict(nil); err == nil {
		t.Error("Predict before Fit should fail")
	}
}

func TestLikelihoodMaximizerInvalidLabels(t *testing.T) {
	clf := &stubClassifier{posteriors: repeatRows(2, []float64{0.5, 0.5})}
	lm := NewLikelihoodMaximizer(clf)

	err := lm.Fit(nil, []int{0, 1, 5}, 2)
	if err == nil {
		t.Fatal("out-of-range label should be rejected")
	}
	var ve *errors.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}
