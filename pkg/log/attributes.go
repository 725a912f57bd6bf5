// Package log defines standard attribute keys for zillowkit operations.
//
// Keys follow a hierarchical naming convention ("data.samples",
// "cache.path") so that log lines from acquisition, preparation, scaling and
// evaluation can be filtered together.

package log

// Operation context.
const (
	// ComponentKey identifies which package is performing the operation.
	// Examples: "acquire", "prepare", "preprocessing", "metrics"
	ComponentKey = "ml.component"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// EstimatorIDKey identifies a single scaler fit.
	EstimatorIDKey = "estimator.id"

	// ModelNameKey identifies the scaler or metric type.
	ModelNameKey = "model.name"

	// RunIDKey identifies one CLI invocation.
	RunIDKey = "run.id"
)

// Data shape and provenance.
const (
	// SamplesKey is the number of rows in the table or vector.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of columns in the table.
	FeaturesKey = "data.features"

	// ColumnsKey lists the column names an operation touched.
	ColumnsKey = "data.columns"

	// RowsDroppedKey is the number of rows removed by a cleaning step.
	RowsDroppedKey = "data.rows_dropped"

	// CachePathKey is the path of the on-disk table cache.
	CachePathKey = "cache.path"

	// CacheHitKey reports whether the cache satisfied the request.
	CacheHitKey = "cache.hit"

	// SourceKey names the remote source driver.
	SourceKey = "source.driver"
)

// Evaluation metrics.
const (
	SSEKey  = "metrics.sse"
	ESSKey  = "metrics.ess"
	TSSKey  = "metrics.tss"
	MSEKey  = "metrics.mse"
	RMSEKey = "metrics.rmse"

	// BaselineSSEKey is the SSE of the mean-prediction baseline.
	BaselineSSEKey = "metrics.baseline_sse"

	// BetterThanBaselineKey reports whether the model beat the baseline.
	BetterThanBaselineKey = "metrics.better_than_baseline"
)

// Performance and error context.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// StacktraceKey contains stack trace information for debugging.
	StacktraceKey = "error.stacktrace"
)

// Standard operation values.
const (
	OperationFetch        = "fetch"
	OperationReadCache    = "read_cache"
	OperationWriteCache   = "write_cache"
	OperationPrepare      = "prepare"
	OperationEncode       = "encode"
	OperationFit          = "fit"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationEvaluate     = "evaluate"
	OperationPlot         = "plot"
)
