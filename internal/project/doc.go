// Package project persists translation progress so an interrupted run can
// resume without repeating completed batches.
//
// Each subtitle document gets one SQLite database next to it (or under the
// configured project directory). The database records the batch plan with
// per-batch status, every reconciled line translation, and a run history.
// A flock guards the project against concurrent processes.
package project
