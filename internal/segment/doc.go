// Package segment divides a subtitle document into scenes and size-bounded
// batches.
//
// Scenes are maximal runs of lines with no inter-line gap exceeding the
// configured threshold. Each scene's lines are then split into batches of at
// most the configured maximum size, cutting at the largest temporal
// discontinuity inside the allowed window so batches stay cohesive. The
// resulting plan covers every line exactly once, in order.
package segment
