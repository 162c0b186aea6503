// Package subtitle holds the line model shared by every pipeline component.
//
// A Line is created once when a document is loaded and keeps its number,
// timing, and source text immutable afterwards; only the translation and
// error fields change as batches complete. The Store applies translations by
// batch-owned number ranges, so concurrent scene workers never touch the same
// line.
//
// The package also ships the SRT codec used by the CLI. Format-specific
// details (cue coordinates, document newline style) ride along as opaque
// metadata and are reproduced verbatim on compose.
package subtitle
