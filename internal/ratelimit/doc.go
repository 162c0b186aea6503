// Package ratelimit throttles provider requests to a configured
// requests-per-minute budget shared by all workers.
package ratelimit
