// Package preflight provides readiness checks for the directories and
// external services ticketsmith depends on.
//
// The CLI "ticketsmith doctor" command runs RunAll and renders one line per
// Result. Checks that need Jira credentials report a failed Result rather
// than an error when the credentials are missing.
package preflight
