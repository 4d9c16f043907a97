package log

// Standard attribute keys for quantification operations. Using these keys
// keeps log records filterable across methods and experiments.
const (
	// MethodNameKey identifies the quantification method.
	// Examples: "LikelihoodMaximizer", "ExpectationMaximizer"
	MethodNameKey = "method.name"

	// OperationKey names the lifecycle operation being performed.
	// Standard values: "fit", "predict"
	OperationKey = "ml.operation"

	// ClassesKey is the number of classes of the problem.
	ClassesKey = "data.classes"

	// ItemsKey is the number of items in the current batch or bag.
	ItemsKey = "data.items"

	// BagsKey is the number of bags estimated in one call.
	BagsKey = "data.bags"

	// IterationsKey is the number of iterations an algorithm consumed.
	IterationsKey = "opt.iterations"

	// SolverKey names the solver driving a minimization.
	SolverKey = "opt.solver"

	// StatusKey carries the human-readable termination status.
	StatusKey = "opt.status"

	// DurationMsKey is the elapsed wall time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)
