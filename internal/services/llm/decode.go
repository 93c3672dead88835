package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DecodeLLMJSON decodes model output into target. It accepts bare JSON, JSON
// inside a ``` fence, and a JSON object or array embedded in prose.
func DecodeLLMJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}
	firstErr := json.Unmarshal([]byte(trimmed), target)
	if firstErr == nil {
		return nil
	}

	candidate := unfence(trimmed)
	if embedded, ok := embeddedJSON(candidate); ok {
		candidate = embedded
	}
	if candidate == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", firstErr, snippet(trimmed))
	}
	if err := json.Unmarshal([]byte(candidate), target); err != nil {
		return fmt.Errorf("%w (extracted payload snippet: %s)", err, snippet(candidate))
	}
	return nil
}

// unfence strips a leading ``` or ```json fence and its closing fence.
func unfence(content string) string {
	body, ok := strings.CutPrefix(content, "```")
	if !ok {
		return content
	}
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	}
	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// embeddedJSON returns the first complete JSON object or array in content.
func embeddedJSON(content string) (string, bool) {
	for i := 0; i < len(content); i++ {
		if content[i] != '{' && content[i] != '[' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(content[i:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err == nil {
			return string(bytes.TrimSpace(raw)), true
		}
	}
	return "", false
}

// snippet flattens whitespace and truncates content for error messages.
func snippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	const limit = 160
	if runes := []rune(clean); len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return clean
}
