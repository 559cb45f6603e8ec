// Package pipeline holds the sync pipelines the scheduler dispatches:
// organization and employee directory sync from the HRIS, the employee
// index builder, attendance reconciliation, the daily statistics rollup and
// report cache invalidation.
//
// Every pipeline implements core.Pipeline. Record-level problems are counted
// in the returned RunResult; failures of a primary source are returned as a
// *core.PipelineError.
package pipeline
