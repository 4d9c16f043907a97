// Package qunfold estimates class-prevalence distributions in unlabeled
// populations of items, a task known as quantification. Averaging the
// outputs of a classifier is biased whenever the label distribution shifted
// between training and deployment; the methods in this library correct for
// that bias with an explicit statistical model relating training priors,
// classifier posteriors, and the unknown test-time prevalence.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/tobiaslotz/qunfold/methods"
//	    naivebayes "github.com/tobiaslotz/qunfold/sklearn/naive_bayes"
//	)
//
//	func main() {
//	    em := methods.NewExpectationMaximizer(naivebayes.NewGaussianNB())
//	    if err := em.Fit(XTrain, yTrain, 0); err != nil {
//	        log.Fatal(err)
//	    }
//	    result, err := em.Predict(XTest)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(result.Prevalence, result.NIter, result.Message)
//	}
//
// # Packages
//
//   - methods: the quantification methods (LikelihoodMaximizer,
//     ExpectationMaximizer) and the reusable expectation-maximization routine
//   - solver: the simplex-constrained minimizer and the Result type
//   - prevalence: label validation and prevalence bookkeeping
//   - metrics: error measures between prevalence vectors
//   - sklearn/naive_bayes: Gaussian and multinomial naive Bayes classifiers
//     implementing the classifier contract
//   - core/model, core/parallel, pkg/errors, pkg/log: shared infrastructure
package qunfold
