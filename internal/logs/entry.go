package logs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"ticketsmith/internal/logging"
)

// Entry is one parsed log line.
type Entry struct {
	Time      time.Time         `json:"ts,omitzero"`
	Level     string            `json:"level,omitempty"`
	Message   string            `json:"msg"`
	Component string            `json:"component,omitempty"`
	RunID     string            `json:"run_id,omitempty"`
	Stage     string            `json:"stage,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	// Raw is the unparsed line.
	Raw string `json:"-"`
}

// Parse decodes a line written by the json handler, falling back to the
// console layout "<RFC3339> <LEVEL> <rest>" and finally to the raw text.
func Parse(line string) Entry {
	trimmed := strings.TrimSpace(line)
	entry := Entry{Raw: line, Message: trimmed}
	if strings.HasPrefix(trimmed, "{") {
		var record map[string]any
		if err := json.Unmarshal([]byte(trimmed), &record); err == nil {
			return fromRecord(line, record)
		}
	}

	parts := strings.SplitN(trimmed, " ", 3)
	if len(parts) < 2 {
		return entry
	}
	ts, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return entry
	}
	entry.Time = ts
	entry.Level = strings.ToUpper(parts[1])
	entry.Message = ""
	if len(parts) == 3 {
		entry.Message = parts[2]
	}
	return entry
}

func fromRecord(raw string, record map[string]any) Entry {
	entry := Entry{Raw: raw}
	for key, value := range record {
		text := stringify(value)
		switch key {
		case "ts", slog.TimeKey:
			if ts, err := time.Parse(time.RFC3339Nano, text); err == nil {
				entry.Time = ts
			}
		case slog.LevelKey:
			entry.Level = strings.ToUpper(text)
		case slog.MessageKey:
			entry.Message = text
		case logging.FieldComponent:
			entry.Component = text
		case logging.FieldRunID:
			entry.RunID = text
		case logging.FieldStage:
			entry.Stage = text
		default:
			if entry.Fields == nil {
				entry.Fields = make(map[string]string)
			}
			entry.Fields[key] = text
		}
	}
	return entry
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	}
}

// Filter selects entries for display.
type Filter struct {
	RunID string
	// MinLevel drops entries below the level; entries without a level always pass.
	MinLevel slog.Level
}

// Match reports whether entry passes the filter. Console lines carry only a
// shortened run id inside the text, so RunID falls back to matching that.
func (f Filter) Match(entry Entry) bool {
	if entry.Level != "" && levelOf(entry.Level) < f.MinLevel {
		return false
	}
	if f.RunID == "" {
		return true
	}
	if entry.RunID != "" {
		return entry.RunID == f.RunID
	}
	if strings.Contains(entry.Raw, f.RunID) {
		return true
	}
	return len(f.RunID) > shortRunID && strings.Contains(entry.Raw, "[run "+f.RunID[:shortRunID])
}

// shortRunID is how many run id characters the console handler prints.
const shortRunID = 8

// ParseLevel maps a level name to a slog level, defaulting to debug so that
// an empty filter shows everything.
func ParseLevel(name string) (slog.Level, error) {
	if strings.TrimSpace(name) == "" {
		return slog.LevelDebug, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelDebug, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}

func levelOf(name string) slog.Level {
	level, err := ParseLevel(name)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// Format renders an entry on one line in the console layout.
func Format(entry Entry) string {
	if entry.Time.IsZero() && entry.Level == "" {
		return entry.Raw
	}
	var b strings.Builder
	b.WriteString(entry.Time.UTC().Format(time.RFC3339))
	b.WriteByte(' ')
	b.WriteString(fmt.Sprintf("%-5s", entry.Level))
	subject := entry.Component
	if entry.RunID != "" {
		subject = strings.TrimSpace(subject + " " + entry.RunID)
	}
	if entry.Stage != "" {
		subject = strings.TrimSpace(subject + " [" + entry.Stage + "]")
	}
	if subject != "" {
		b.WriteByte(' ')
		b.WriteString(subject)
		b.WriteByte(':')
	}
	b.WriteByte(' ')
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for key := range entry.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := entry.Fields[key]
		if strings.ContainsAny(value, " \t\"") {
			value = fmt.Sprintf("%q", value)
		}
		fmt.Fprintf(&b, " %s=%s", key, value)
	}
	return b.String()
}
