// Package processor contains the command-line business logic of engipa. It
// turns parsed flags into transcription options, runs single texts, batch
// files, rhyme and dictionary queries and dictionary imports, and writes
// the results as plain text or JSON lines.
package processor
