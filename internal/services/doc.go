// Package services defines shared utilities consumed by the workflow stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and correlation
//     identifiers for logging and the event relay.
//   - Structured error markers plus the Wrap helper, and ExitCode which maps
//     those markers onto CLI exit statuses.
//
// Subpackages hold the external integrations: the drafting agent, the
// chat-completion client, and the Jira REST client.
package services
