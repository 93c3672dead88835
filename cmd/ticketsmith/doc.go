// Package main implements the ticketsmith CLI: it drafts Jira tickets from
// Figma links, error logs, or free text, converts lightweight markup to
// Atlassian Document Format, and serves the same workflow over HTTP.
package main
