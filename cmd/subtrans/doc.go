// Command subtrans translates subtitle files with an LLM provider.
//
// The translate command segments a document into scenes and batches,
// sends each batch to the configured provider, and writes a translated
// copy next to the input. Progress persists in a per-file project
// database so an interrupted run can be resumed.
package main
