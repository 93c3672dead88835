// Package wizard implements the interactive terminal flow for drafting a
// single ticket: pick a source, enter it, choose an issue type, watch the
// draft arrive, then confirm or cancel the rendered preview.
package wizard
