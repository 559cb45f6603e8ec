// Package storage provides the GORM persistence layer for the replica engine.
//
// This package includes:
//   - GormStorage: schedule tasks, sync logs, attendance records, daily stats,
//     the employee directory and the insert-only employee index
//   - GormPunchSource: grouped reads over the raw biometric punch table
//   - Open: dialect selection (sqlite, mysql, postgres) with pool tuning
//
// The storage interfaces are defined in pkg/core. Every write that must be
// idempotent is a single INSERT ... ON CONFLICT statement.
package storage
