package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// DefaultMaxLogBytes bounds how much of a log is kept when no limit is given.
const DefaultMaxLogBytes = 64 * 1024

var errorLinePattern = regexp.MustCompile(`(?i)\b(error|fatal|panic|exception|traceback|failed|failure)\b`)

// LogExcerpt is the retained tail of a log.
type LogExcerpt struct {
	Text       string `json:"text"`
	TotalBytes int64  `json:"total_bytes"`
	TotalLines int    `json:"total_lines"`
	Truncated  bool   `json:"truncated"`
	// FirstError is the first line that looks like an error, from anywhere in
	// the log, including the part that was dropped.
	FirstError     string `json:"first_error,omitempty"`
	FirstErrorLine int    `json:"first_error_line,omitempty"`
}

// ReadLog streams r and keeps at most maxBytes from the end, cut at a line
// boundary where possible.
func ReadLog(r io.Reader, maxBytes int) (LogExcerpt, error) {
	if r == nil {
		return LogExcerpt{}, errors.New("log reader required")
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxLogBytes
	}

	var (
		excerpt LogExcerpt
		lines   []string
		kept    int
	)
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			excerpt.TotalBytes += int64(len(line))
			excerpt.TotalLines++
			trimmed := strings.TrimRight(line, "\r\n")
			if excerpt.FirstError == "" && errorLinePattern.MatchString(trimmed) {
				excerpt.FirstError = strings.TrimSpace(trimmed)
				excerpt.FirstErrorLine = excerpt.TotalLines
			}
			lines = append(lines, line)
			kept += len(line)
			for kept > maxBytes && len(lines) > 1 {
				kept -= len(lines[0])
				lines = lines[1:]
				excerpt.Truncated = true
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return LogExcerpt{}, fmt.Errorf("read log: %w", err)
		}
	}

	text := strings.Join(lines, "")
	if len(text) > maxBytes {
		// A single oversized line remains; keep its tail on a rune boundary.
		cut := len(text) - maxBytes
		for cut < len(text) && !isRuneStart(text[cut]) {
			cut++
		}
		text = text[cut:]
		excerpt.Truncated = true
	}
	excerpt.Text = strings.TrimRight(text, "\r\n")
	return excerpt, nil
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// Describe renders the excerpt as prompt context.
func (e LogExcerpt) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Log size: %d bytes, %d lines", e.TotalBytes, e.TotalLines)
	if e.Truncated {
		b.WriteString(" (only the tail is shown)")
	}
	b.WriteString("\n")
	if e.FirstError != "" {
		fmt.Fprintf(&b, "First error-looking line (line %d): %s\n", e.FirstErrorLine, e.FirstError)
	}
	return b.String()
}
