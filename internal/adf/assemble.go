package adf

import (
	"strconv"
	"strings"
)

// Assemble wraps blocks in a Document. An empty block list yields a document
// holding a single empty paragraph.
func Assemble(blocks []Block) Document {
	if len(blocks) == 0 {
		return Document{
			Version: SchemaVersion,
			Blocks:  []Block{Paragraph{Runs: emptyRuns()}},
		}
	}
	out := make([]Block, len(blocks))
	copy(out, blocks)
	return Document{Version: SchemaVersion, Blocks: out}
}

// Convert turns informal markdown text into a Document. It never fails.
func Convert(text string) Document {
	return Assemble(Segment(text))
}

// PlainText flattens the document to unformatted text with blocks separated
// by blank lines. Bullet items are prefixed with "- " and ordered items with
// their 1-based position.
func (d Document) PlainText() string {
	parts := make([]string, 0, len(d.Blocks))
	for _, block := range d.Blocks {
		var text string
		switch b := block.(type) {
		case Paragraph:
			text = RunsText(b.Runs)
		case Heading:
			text = RunsText(b.Runs)
		case CodeBlock:
			text = b.Text
		case BulletList:
			lines := make([]string, 0, len(b.Items))
			for _, item := range b.Items {
				lines = append(lines, "- "+RunsText(item.Runs))
			}
			text = strings.Join(lines, "\n")
		case OrderedList:
			lines := make([]string, 0, len(b.Items))
			for i, item := range b.Items {
				lines = append(lines, strconv.Itoa(i+1)+". "+RunsText(item.Runs))
			}
			text = strings.Join(lines, "\n")
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n")
}
