// Package models defines the data model for the ckx cookie checker client.
//
// The package contains the wire-level types exchanged with the checker
// backend:
//
//   - [CheckOutcome] : Per-token outcome, a tagged union selected by Valid
//   - [ResultSet] : Reconciled outcome of one batch check request
//   - [HistoryRecord] : Persisted summary pointer to a past ResultSet
//   - [GlobalStats] / [LegacyStats] : The two aggregate counter shapes the
//     backend has exposed over time (global_stats is canonical)
//
// Nested detail objects on the valid side of a CheckOutcome are pointers:
// the backend omits sections it could not resolve, and consumers must treat
// absence as a defaulted value instead of an error. [ResultSet] construction
// goes through [NewResultSet], which enforces the count invariants and
// refuses inconsistent payloads rather than repairing them.
package models
