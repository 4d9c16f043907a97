package errors

import (
	"math"
	"strings"
	"testing"
)

func TestNotFittedError(t *testing.T) {
	err := NewNotFittedError("ExpectationMaximizer", "Predict")
	if err == nil {
		t.Fatal("expected an error")
	}

	var nfe *NotFittedError
	if !As(err, &nfe) {
		t.Fatalf("expected NotFittedError, got %T", err)
	}
	if nfe.ModelName != "ExpectationMaximizer" {
		t.Errorf("ModelName = %q, want ExpectationMaximizer", nfe.ModelName)
	}
	if !strings.Contains(err.Error(), "not fitted yet") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestDimensionError(t *testing.T) {
	err := NewDimensionError("MaximizeExpectation", 3, 4, 1)

	var de *DimensionError
	if !As(err, &de) {
		t.Fatalf("expected DimensionError, got %T", err)
	}
	if de.Expected != 3 || de.Got != 4 {
		t.Errorf("Expected/Got = %d/%d, want 3/4", de.Expected, de.Got)
	}
	if !strings.Contains(err.Error(), "classes") {
		t.Errorf("axis 1 should report classes: %s", err.Error())
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("y", "label out of range", 7)

	var ve *ValidationError
	if !As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if ve.ParamName != "y" {
		t.Errorf("ParamName = %q, want y", ve.ParamName)
	}
}

func TestNumericalInstabilityErrorTruncatesValues(t *testing.T) {
	values := []float64{math.NaN(), 1, 2, 3, 4, 5, 6, 7}
	err := NewNumericalInstabilityError("likelihood_ratio", values, 0)
	if !strings.Contains(err.Error(), "...") {
		t.Errorf("long value lists should be truncated: %s", err.Error())
	}
}

func TestCheckNumericalStability(t *testing.T) {
	if err := CheckNumericalStability("op", []float64{0.5, 0.5}, 0); err != nil {
		t.Errorf("finite values should pass: %v", err)
	}
	if err := CheckNumericalStability("op", []float64{0.5, math.Inf(1)}, 0); err == nil {
		t.Error("Inf should be detected")
	}
	if err := CheckScalar("op", math.NaN(), 3); err == nil {
		t.Error("NaN should be detected")
	}
}

func TestConvergenceWarningMessage(t *testing.T) {
	w := NewConvergenceWarning("ExpectationMaximizer", 100, "")
	if !strings.Contains(w.Error(), "100 iterations") {
		t.Errorf("unexpected message: %s", w.Error())
	}
}

func TestWarnUsesCustomHandler(t *testing.T) {
	var captured error
	SetWarningHandler(func(w error) { captured = w })
	defer SetWarningHandler(nil)

	warning := NewConvergenceWarning("test", 10, "did not converge")
	Warn(warning)

	if captured == nil {
		t.Fatal("handler was not called")
	}
	if !Is(captured, warning) {
		t.Error("handler received a different warning")
	}
}

func TestWrapPreservesType(t *testing.T) {
	base := NewValueError("Minimize", "empty loss")
	wrapped := Wrap(base, "predict failed")

	var ve *ValueError
	if !As(wrapped, &ve) {
		t.Error("wrapping should preserve the underlying type")
	}
}
