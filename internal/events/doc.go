// Package events carries translation progress notifications from the
// pipeline to its observers (CLI progress output, project persistence).
//
// Delivery is synchronous and serialized: subscribers see events in the
// exact order they were published, regardless of which worker published
// them.
package events
