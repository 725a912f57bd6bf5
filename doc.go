// Package zillowkit loads Zillow single family property records, cleans them
// for regression modelling, rescales features and scores predictions against
// a mean baseline.
//
// # Workflow
//
// The packages follow the order of a modelling session:
//
//   - acquire: read the raw table from a CSV cache, or fetch it from the
//     properties database and write the cache
//   - prepare: rename columns, drop incomplete rows, coerce integer columns
//     and map FIPS codes to county labels; optionally one-hot encode county
//   - preprocessing: min-max, standard and robust scaling of named columns
//   - linear: ordinary least squares with a prediction column
//   - metrics: SSE, ESS, TSS, MSE, RMSE, the mean baseline and residual plots
//
// The zillow command in cmd/zillow runs the same steps from the shell.
//
// # Quick Start
//
//	db, err := acquire.OpenDB(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	a := acquire.New(acquire.WithSource(acquire.NewSQLSource(db)))
//
//	df, err := prepare.WrangleZillow(ctx, a)
//	if err != nil {
//	    return err
//	}
//	df, err = preprocessing.MinMaxScaleColumns(df, []string{"area"})
//	if err != nil {
//	    return err
//	}
//	df, _, err = linear.FitPredictColumns(df, []string{"bedrooms", "bathrooms", "area"}, "taxvalue", "")
//	if err != nil {
//	    return err
//	}
//
// A complete program lives in examples/workflow.
//
// # Configuration
//
// Database credentials, cache paths and the log level come from
// zillowkit.yaml and ZILLOW_ environment variables; see package config.
package zillowkit
