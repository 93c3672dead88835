// Package adf converts informal markdown-flavoured text into the Atlassian
// Document Format tree Jira expects for rich-text fields.
//
// The converter understands four block forms (paragraphs, headings, fenced
// code, flat bullet/ordered lists) and four inline forms (plain, bold,
// italic, inline code). Conversion is a single deterministic pass that never
// fails: malformed input degrades to literal text, unterminated fences still
// produce a code block, and out-of-range heading levels are clamped.
//
// Convert is a pure function of its input and is safe for concurrent use.
package adf
