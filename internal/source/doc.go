// Package source describes where a ticket comes from: a Figma design link, an
// error log, or free text. It parses Figma URLs, reads log tails, and
// validates incoming ticket requests before the workflow spends an agent call
// on them.
package source
