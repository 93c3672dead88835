package adf

// SchemaVersion is the ADF document version emitted for every Document.
const SchemaVersion = 1

// Mark identifies the formatting applied to an inline run.
type Mark int

const (
	MarkNone Mark = iota
	MarkBold
	MarkItalic
	MarkCode
)

// String returns the mark name used in logs and tests.
func (m Mark) String() string {
	switch m {
	case MarkBold:
		return "bold"
	case MarkItalic:
		return "italic"
	case MarkCode:
		return "code"
	default:
		return "none"
	}
}

// Run is a contiguous span of text sharing one mark.
type Run struct {
	Text string
	Mark Mark
}

// Block is one of Paragraph, Heading, CodeBlock, BulletList or OrderedList.
type Block interface {
	blockKind() string
}

// Paragraph holds inline content.
type Paragraph struct {
	Runs []Run
}

// Heading holds inline content at level 1..6.
type Heading struct {
	Level int
	Runs  []Run
}

// CodeBlock holds literal text that is never inline-scanned.
type CodeBlock struct {
	Language string
	Text     string
}

// ListItem is a single paragraph-shaped list entry.
type ListItem struct {
	Runs []Run
}

// BulletList is an unordered run of list items.
type BulletList struct {
	Items []ListItem
}

// OrderedList is a numbered run of list items.
type OrderedList struct {
	Items []ListItem
}

func (Paragraph) blockKind() string   { return "paragraph" }
func (Heading) blockKind() string     { return "heading" }
func (CodeBlock) blockKind() string   { return "codeBlock" }
func (BulletList) blockKind() string  { return "bulletList" }
func (OrderedList) blockKind() string { return "orderedList" }

// KindOf reports the ADF node type name for a block.
func KindOf(b Block) string {
	if b == nil {
		return ""
	}
	return b.blockKind()
}

// Document is the root of a converted tree. It always holds at least one block
// when produced by Assemble or Convert.
type Document struct {
	Version int
	Blocks  []Block
}

func emptyRuns() []Run {
	return []Run{{Text: "", Mark: MarkNone}}
}
