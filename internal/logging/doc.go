// Package logging builds the slog loggers used across the translation
// pipeline.
//
// Two output formats are supported: a human-oriented console format that
// promotes the component attribute into the message prefix, and plain JSON
// for machine consumption. Construction is driven by the [config] logging
// section; components receive child loggers via NewComponentLogger so every
// record carries a stable component field.
package logging
