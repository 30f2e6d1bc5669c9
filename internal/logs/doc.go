// Package logs reads back the rotating JSON log written under paths.log_dir.
//
// Tail returns the last N records (optionally narrowed to one run, a minimum
// level, or a component) together with the byte offset reached, and Follow
// polls from that offset for new records until its context ends. Memory use
// is bounded by the requested line count.
package logs
