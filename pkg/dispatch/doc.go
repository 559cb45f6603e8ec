// Package dispatch maps task IDs to the pipelines that implement them.
//
// This package includes:
//   - Registry: the task ID -> pipeline table
//   - Option: per-registration settings such as a run deadline
//
// The scheduler and the manual trigger both go through Registry.Dispatch, so
// deadlines and panic recovery apply to every invocation.
package dispatch
