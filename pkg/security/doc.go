// Package security provides validation, sanitization, and limits for the replica engine.
//
// This package includes:
//   - Input validation for task identifiers
//   - Error message sanitization before messages are stored on tasks and sync logs
//   - Clamping functions to enforce safe limits on retries and date-range lookback
//   - Security-related constants defining maximum sizes and counts
package security
