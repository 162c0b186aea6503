// Package translator drives the translation run: scenes are handed to a
// worker pool and processed in parallel, the batches inside each scene run
// sequentially so rolling summaries stay coherent, and every batch walks a
// bounded retry loop around the provider call.
package translator
