// Package logs reads the ticketsmith log file for `ticketsmith logs`.
//
// Tail streams the file with bounded memory: a negative offset returns the
// last N lines, a non-negative offset resumes where a previous call stopped,
// and Follow polls until new lines arrive or the wait elapses. Parse turns a
// line written by either the json or the console handler into an Entry so
// callers can filter by run or level regardless of the configured format.
package logs
