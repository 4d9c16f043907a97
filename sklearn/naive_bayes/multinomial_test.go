package naivebayes

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/tobiaslotz/qunfold/methods"
)

func TestMultinomialNBPredictProba(t *testing.T) {
	// Word-count features: class 0 uses the first word, class 1 the third.
	XTrain := mat.NewDense(6, 3, []float64{
		3, 0, 0,
		2, 1, 0,
		1, 0, 0,
		0, 0, 3,
		0, 1, 2,
		0, 0, 1,
	})
	yTrain := []int{0, 0, 0, 1, 1, 1}

	nb := NewMultinomialNB()
	if err := nb.Fit(XTrain, yTrain); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if nb.NClasses() != 2 {
		t.Fatalf("NClasses = %d, want 2", nb.NClasses())
	}

	XTest := mat.NewDense(2, 3, []float64{
		2, 0, 0,
		0, 0, 2,
	})
	proba, err := nb.PredictProba(XTest)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}

	rows, cols := proba.Dims()
	if rows != 2 || cols != 2 {
		t.Fatalf("proba shape = (%d, %d), want (2, 2)", rows, cols)
	}
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			p := proba.At(i, j)
			if p < 0 || p > 1 {
				t.Errorf("proba[%d][%d] = %f out of [0, 1]", i, j, p)
			}
			sum += p
		}
		if math.Abs(sum-1) > 1e-10 {
			t.Errorf("row %d sums to %f", i, sum)
		}
	}
	if proba.At(0, 0) <= proba.At(0, 1) {
		t.Error("first item should lean towards class 0")
	}
	if proba.At(1, 1) <= proba.At(1, 0) {
		t.Error("second item should lean towards class 1")
	}
}

func TestMultinomialNBAlphaSmoothing(t *testing.T) {
	// Some features never occur in a class; smoothing keeps the posteriors
	// finite on unseen feature combinations.
	XTrain := mat.NewDense(4, 3, []float64{
		2, 0, 0,
		1, 0, 0,
		0, 0, 2,
		0, 0, 1,
	})
	yTrain := []int{0, 0, 1, 1}

	for _, alpha := range []float64{1.0, 10.0} {
		nb := NewMultinomialNB(WithAlpha(alpha))
		if err := nb.Fit(XTrain, yTrain); err != nil {
			t.Fatalf("Fit with alpha=%f failed: %v", alpha, err)
		}

		proba, err := nb.PredictProba(mat.NewDense(1, 3, []float64{1, 1, 1}))
		if err != nil {
			t.Fatalf("PredictProba with alpha=%f failed: %v", alpha, err)
		}
		for j := 0; j < 2; j++ {
			p := proba.At(0, j)
			if math.IsNaN(p) || math.IsInf(p, 0) {
				t.Errorf("alpha=%f: invalid probability %f", alpha, p)
			}
		}
	}
}

func TestMultinomialNBFitPrior(t *testing.T) {
	// Imbalanced data: with the empirical prior the majority class dominates
	// ambiguous items more than with a uniform prior.
	XTrain := mat.NewDense(5, 2, []float64{
		2, 1,
		1, 2,
		1, 1,
		1, 0,
		0, 1,
	})
	yTrain := []int{0, 0, 0, 0, 1}
	XTest := mat.NewDense(1, 2, []float64{1, 1})

	withPrior := NewMultinomialNB()
	if err := withPrior.Fit(XTrain, yTrain); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	uniform := NewMultinomialNB(WithFitPrior(false))
	if err := uniform.Fit(XTrain, yTrain); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	p1, err := withPrior.PredictProba(XTest)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	p2, err := uniform.PredictProba(XTest)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}

	diffWithPrior := math.Abs(p1.At(0, 0) - p1.At(0, 1))
	diffUniform := math.Abs(p2.At(0, 0) - p2.At(0, 1))
	if diffWithPrior <= diffUniform {
		t.Errorf("the empirical prior should skew ambiguous items more (%f vs %f)",
			diffWithPrior, diffUniform)
	}
}

func TestMultinomialNBInvalidInput(t *testing.T) {
	nb := NewMultinomialNB()

	XInvalid := mat.NewDense(2, 2, []float64{1, -1, 2, 3})
	if err := nb.Fit(XInvalid, []int{0, 1}); err == nil {
		t.Error("negative counts should be rejected")
	}

	unfitted := NewMultinomialNB()
	if _, err := unfitted.PredictProba(XInvalid); err == nil {
		t.Error("PredictProba before Fit should fail")
	}
}

func TestMultinomialNBWithLikelihoodMaximizer(t *testing.T) {
	// Count features, balanced training set, skewed bag.
	nPerClass := 20
	XTrain := mat.NewDense(2*nPerClass, 2, nil)
	yTrain := make([]int, 2*nPerClass)
	for i := 0; i < nPerClass; i++ {
		XTrain.Set(i, 0, float64(3+i%3))
		XTrain.Set(i, 1, float64(i%2))
		XTrain.Set(nPerClass+i, 0, float64(i%2))
		XTrain.Set(nPerClass+i, 1, float64(3+i%3))
		yTrain[nPerClass+i] = 1
	}

	lm := methods.NewLikelihoodMaximizer(
		NewMultinomialNB(),
		methods.WithSolver("nelder-mead"),
		methods.WithSeed(7),
	)
	if err := lm.Fit(XTrain, yTrain, 2); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	// Bag dominated by class 1.
	XTest := mat.NewDense(10, 2, nil)
	for i := 0; i < 10; i++ {
		if i < 2 {
			XTest.Set(i, 0, 4)
			XTest.Set(i, 1, 0)
		} else {
			XTest.Set(i, 0, 0)
			XTest.Set(i, 1, 4)
		}
	}

	result, err := lm.Predict(XTest)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if got := result.Prevalence.AtVec(1); math.Abs(got-0.8) > 0.1 {
		t.Errorf("estimated prevalence of class 1 = %f, want about 0.8", got)
	}
}
