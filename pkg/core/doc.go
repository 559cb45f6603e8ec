// Package core provides the fundamental types and interfaces for the replica engine.
//
// This package contains:
//   - ScheduleTask, AttendanceSyncRecord, DailyStat, EmployeeIndexEntry and
//     SyncLogEntry data models with GORM annotations
//   - Replica source models (divisions, sections, employees, punches)
//   - Storage interfaces defining the persistence contract
//   - Event types for scheduler monitoring
//   - Error types for pipeline processing
//
// Most users should import the root package github.com/jdziat/hris-replica
// instead of this package directly.
package core
