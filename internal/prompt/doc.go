// Package prompt renders translation requests.
//
// An instruction set supplies the system text (first-attempt and retry
// variants) with [tag] placeholders for movie name and target language. The
// Builder then renders one request per batch: optional context (movie,
// description, name list, scene and batch summaries, rolling history),
// followed by a numbered Original>/Translation> block per line that the
// reconciler's extraction patterns mirror. Rendering is pure; malformed
// instruction files are configuration errors surfaced at load time.
package prompt
