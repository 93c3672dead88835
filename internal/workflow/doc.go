// Package workflow drives a ticket run through its stages.
//
// A run prepares the source material (parsing Figma links, tailing logs),
// asks the drafting agent for content, converts the description to ADF and
// validates it, creates the Jira issue with its subtasks, links it to a
// parent, attaches log excerpts as a comment, and records the outcome in the
// history store. Every stage logs through a logger carrying the run id and
// stage name so the event relay can follow a single run.
//
// Preview stops after conversion; Submit skips the agent for tickets that
// arrive fully written, such as batch manifest entries.
package workflow
