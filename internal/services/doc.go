// Package services defines shared utilities consumed by the translation
// pipeline components and external integrations.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that tag failures with a
//     classification the retry controller can act on.
//   - Context helpers that stamp scene/batch identifiers and correlation IDs
//     for logging and tracing.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, retries) stays uniform across components.
package services
