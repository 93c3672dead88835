package source

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// FigmaRef identifies a Figma file and, optionally, a node inside it.
type FigmaRef struct {
	URL     string `json:"url"`
	Kind    string `json:"kind"`
	FileKey string `json:"file_key"`
	// NodeID uses the API form "12:34".
	NodeID string `json:"node_id,omitempty"`
	Title  string `json:"title,omitempty"`
}

var figmaKinds = map[string]struct{}{
	"file":   {},
	"design": {},
	"proto":  {},
	"board":  {},
}

// ParseFigma parses figma.com file, design, proto, and board links.
func ParseFigma(raw string) (FigmaRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return FigmaRef{}, errors.New("figma url required")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return FigmaRef{}, fmt.Errorf("parse figma url: %w", err)
	}
	host := strings.ToLower(parsed.Hostname())
	if host != "figma.com" && host != "www.figma.com" {
		return FigmaRef{}, fmt.Errorf("not a figma.com link: %q", parsed.Host)
	}

	segments := strings.FieldsFunc(parsed.Path, func(r rune) bool { return r == '/' })
	if len(segments) < 2 {
		return FigmaRef{}, errors.New("figma url missing file key")
	}
	kind := strings.ToLower(segments[0])
	if _, ok := figmaKinds[kind]; !ok {
		return FigmaRef{}, fmt.Errorf("unsupported figma link type %q", segments[0])
	}

	ref := FigmaRef{
		URL:     parsed.String(),
		Kind:    kind,
		FileKey: segments[1],
	}
	if len(segments) > 2 {
		if title, err := url.PathUnescape(segments[2]); err == nil {
			ref.Title = strings.TrimSpace(strings.ReplaceAll(title, "-", " "))
		}
	}
	if node := strings.TrimSpace(parsed.Query().Get("node-id")); node != "" {
		ref.NodeID = strings.ReplaceAll(node, "-", ":")
	}
	return ref, nil
}

// Describe renders the reference as prompt context.
func (r FigmaRef) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Figma %s link: %s\n", r.Kind, r.URL)
	fmt.Fprintf(&b, "File key: %s\n", r.FileKey)
	if r.Title != "" {
		fmt.Fprintf(&b, "File title: %s\n", r.Title)
	}
	if r.NodeID != "" {
		fmt.Fprintf(&b, "Selected node: %s\n", r.NodeID)
	}
	return b.String()
}
