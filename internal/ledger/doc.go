// Package ledger persists run history in SQLite.
//
// Every segment or align invocation opens a run, records one result per audio
// file (ok, empty, or failed, with the segment/chunk counts and the skip
// reason), and finishes the run with a status. Resume mode consults Completed
// to skip audio files an earlier run already processed successfully.
package ledger
