// Package reconcile maps raw provider responses back onto the exact line
// structure of the batch that was sent.
//
// Extraction runs through an ordered ladder of patterns, strictest first:
// full numbered Original>/Translation> blocks, then numbered blocks without
// markers, then single numbered lines. The first pattern that yields any
// match wins. Extracted indices are correlated against the batch's expected
// set and classified per line as matched, missing, unexpected, or merged.
// A batch whose matched count or translated-to-source length ratio is off is
// flagged desynchronized, but matched translations are always kept.
//
// Reconcile never returns an error for malformed input; the Report describes
// what could and could not be recovered.
package reconcile
