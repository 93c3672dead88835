// Package jira is a small client for the Jira Cloud REST API (v3).
//
// It creates issues and sub-tasks with Atlassian Document Format
// descriptions, links issues, adds comments, and checks credentials. Requests
// authenticate with basic auth (account email plus API token). Rate limits
// and server errors are retried with the shared retry policy; Jira's
// errorMessages/errors payloads are surfaced through *APIError.
package jira
