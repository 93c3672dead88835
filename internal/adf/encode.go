package adf

import (
	"encoding/json"
	"strings"
)

// Node is the JSON shape of an ADF node.
type Node struct {
	Type    string         `json:"type"`
	Text    string         `json:"text,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Marks   []NodeMark     `json:"marks,omitempty"`
	Content []Node         `json:"content,omitempty"`
}

// NodeMark is the JSON shape of an ADF text mark.
type NodeMark struct {
	Type string `json:"type"`
}

type docNode struct {
	Version int    `json:"version"`
	Type    string `json:"type"`
	Content []Node `json:"content"`
}

// MarshalJSON encodes the document as ADF. Empty runs are omitted because
// ADF rejects empty text nodes, and newlines inside runs become hardBreak
// nodes.
func (d Document) MarshalJSON() ([]byte, error) {
	version := d.Version
	if version == 0 {
		version = SchemaVersion
	}
	return json.Marshal(docNode{
		Version: version,
		Type:    "doc",
		Content: d.Nodes(),
	})
}

// Nodes returns the top-level ADF nodes of the document.
func (d Document) Nodes() []Node {
	nodes := make([]Node, 0, len(d.Blocks))
	for _, block := range d.Blocks {
		if node, ok := blockNode(block); ok {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

func blockNode(block Block) (Node, bool) {
	switch b := block.(type) {
	case Paragraph:
		return paragraphNode(b.Runs), true
	case Heading:
		return Node{
			Type:    "heading",
			Attrs:   map[string]any{"level": b.Level},
			Content: inlineNodes(b.Runs),
		}, true
	case CodeBlock:
		node := Node{Type: "codeBlock", Attrs: map[string]any{"language": b.Language}}
		if b.Text != "" {
			node.Content = []Node{{Type: "text", Text: b.Text}}
		}
		return node, true
	case BulletList:
		return Node{Type: "bulletList", Content: listItemNodes(b.Items)}, true
	case OrderedList:
		return Node{Type: "orderedList", Content: listItemNodes(b.Items)}, true
	default:
		return Node{}, false
	}
}

func paragraphNode(runs []Run) Node {
	return Node{Type: "paragraph", Content: inlineNodes(runs)}
}

func listItemNodes(items []ListItem) []Node {
	nodes := make([]Node, 0, len(items))
	for _, item := range items {
		nodes = append(nodes, Node{Type: "listItem", Content: []Node{paragraphNode(item.Runs)}})
	}
	return nodes
}

func inlineNodes(runs []Run) []Node {
	var nodes []Node
	for _, run := range runs {
		marks := runMarks(run.Mark)
		for i, part := range strings.Split(run.Text, "\n") {
			if i > 0 {
				nodes = append(nodes, Node{Type: "hardBreak"})
			}
			if part == "" {
				continue
			}
			nodes = append(nodes, Node{Type: "text", Text: part, Marks: marks})
		}
	}
	return nodes
}

func runMarks(mark Mark) []NodeMark {
	switch mark {
	case MarkBold:
		return []NodeMark{{Type: "strong"}}
	case MarkItalic:
		return []NodeMark{{Type: "em"}}
	case MarkCode:
		return []NodeMark{{Type: "code"}}
	default:
		return nil
	}
}
