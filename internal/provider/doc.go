// Package provider sends chat completion requests to LLM backends.
//
// The package exposes a small Client interface so the translation
// pipeline never touches HTTP directly. Errors carry the classification
// markers from internal/services: authentication and request-shape
// problems are fatal, rate limits and server errors are transient.
package provider
