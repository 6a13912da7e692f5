// Package reindex rebuilds the text index of every stored notebook, section
// and note.
//
// Documents are read in batches, re-tokenized and their index entries
// rewritten. Failed batches are retried with exponential backoff and progress
// is reported to a writer.
package reindex
