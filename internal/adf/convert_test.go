package adf

import (
	"math/rand"
	"reflect"
	"strings"
	"testing"
)

func TestConvertEmptyInputYieldsEmptyParagraph(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\n\t\n"} {
		doc := Convert(input)
		if doc.Version != SchemaVersion {
			t.Fatalf("unexpected version %d", doc.Version)
		}
		if len(doc.Blocks) != 1 {
			t.Fatalf("Convert(%q): expected 1 block, got %d", input, len(doc.Blocks))
		}
		para, ok := doc.Blocks[0].(Paragraph)
		if !ok {
			t.Fatalf("expected paragraph, got %T", doc.Blocks[0])
		}
		if !reflect.DeepEqual(para.Runs, []Run{{Text: "", Mark: MarkNone}}) {
			t.Fatalf("unexpected runs %#v", para.Runs)
		}
	}
}

func TestConvertHeading(t *testing.T) {
	doc := Convert("# Title")
	if len(doc.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(doc.Blocks))
	}
	heading, ok := doc.Blocks[0].(Heading)
	if !ok {
		t.Fatalf("expected heading, got %T", doc.Blocks[0])
	}
	if heading.Level != 1 || RunsText(heading.Runs) != "Title" {
		t.Fatalf("unexpected heading %#v", heading)
	}
}

func TestConvertHeadingLevelClamped(t *testing.T) {
	heading, ok := Convert("####### Deep").Blocks[0].(Heading)
	if !ok {
		t.Fatal("expected heading")
	}
	if heading.Level != 6 {
		t.Fatalf("expected level 6, got %d", heading.Level)
	}
	if RunsText(heading.Runs) != "Deep" {
		t.Fatalf("unexpected heading text %q", RunsText(heading.Runs))
	}
}

func TestConvertHeadingTextIsInlineScanned(t *testing.T) {
	heading := Convert("## Fix **login** flow").Blocks[0].(Heading)
	want := []Run{{Text: "Fix "}, {Text: "login", Mark: MarkBold}, {Text: " flow"}}
	if heading.Level != 2 || !reflect.DeepEqual(heading.Runs, want) {
		t.Fatalf("unexpected heading %#v", heading)
	}
}

func TestConvertBulletList(t *testing.T) {
	doc := Convert("- a\n- b\n- c")
	if len(doc.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(doc.Blocks))
	}
	list, ok := doc.Blocks[0].(BulletList)
	if !ok {
		t.Fatalf("expected bullet list, got %T", doc.Blocks[0])
	}
	assertItems(t, list.Items, "a", "b", "c")
}

func TestConvertOrderedList(t *testing.T) {
	list, ok := Convert("1. x\n2. y").Blocks[0].(OrderedList)
	if !ok {
		t.Fatal("expected ordered list")
	}
	assertItems(t, list.Items, "x", "y")
}

func TestConvertBlankLineSplitsLists(t *testing.T) {
	doc := Convert("- a\n\n- b")
	if len(doc.Blocks) != 2 {
		t.Fatalf("expected the blank line to split the list into 2 blocks, got %d", len(doc.Blocks))
	}
	for i, want := range []string{"a", "b"} {
		list, ok := doc.Blocks[i].(BulletList)
		if !ok {
			t.Fatalf("block %d: expected bullet list, got %T", i, doc.Blocks[i])
		}
		assertItems(t, list.Items, want)
	}
}

func TestConvertMixedMarkersStartNewList(t *testing.T) {
	doc := Convert("* one\n- two\n1. three\ntext after")
	if len(doc.Blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(doc.Blocks))
	}
	assertItems(t, doc.Blocks[0].(BulletList).Items, "one", "two")
	assertItems(t, doc.Blocks[1].(OrderedList).Items, "three")
	if RunsText(doc.Blocks[2].(Paragraph).Runs) != "text after" {
		t.Fatalf("unexpected trailing block %#v", doc.Blocks[2])
	}
}

func TestConvertCodeBlock(t *testing.T) {
	doc := Convert("```js\nconsole.log(1)\n```")
	if len(doc.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(doc.Blocks))
	}
	code, ok := doc.Blocks[0].(CodeBlock)
	if !ok {
		t.Fatalf("expected code block, got %T", doc.Blocks[0])
	}
	if code.Language != "js" || code.Text != "console.log(1)" {
		t.Fatalf("unexpected code block %#v", code)
	}
}

func TestConvertCodeBlockDefaultsLanguage(t *testing.T) {
	code := Convert("```\nplain\n```").Blocks[0].(CodeBlock)
	if code.Language != "text" {
		t.Fatalf("expected default language text, got %q", code.Language)
	}
}

func TestConvertCodeBlockIsVerbatim(t *testing.T) {
	body := "  indented **not bold**\n\n# not a heading\n- not a list\n\ttab\t"
	code := Convert("intro\n```go\n" + body + "\n```\noutro").Blocks[1].(CodeBlock)
	if code.Text != body {
		t.Fatalf("code content changed:\n got %q\nwant %q", code.Text, body)
	}
}

func TestConvertUnterminatedFenceKeepsContent(t *testing.T) {
	doc := Convert("before\n```py\nprint(1)\nprint(2)")
	if len(doc.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(doc.Blocks))
	}
	code := doc.Blocks[1].(CodeBlock)
	if code.Language != "py" || code.Text != "print(1)\nprint(2)" {
		t.Fatalf("unexpected code block %#v", code)
	}
}

func TestConvertParagraphJoinsLines(t *testing.T) {
	doc := Convert("  first line\nsecond *line*  \n\nnext")
	if len(doc.Blocks) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(doc.Blocks))
	}
	first := doc.Blocks[0].(Paragraph)
	want := []Run{{Text: "first line\nsecond "}, {Text: "line", Mark: MarkItalic}}
	if !reflect.DeepEqual(first.Runs, want) {
		t.Fatalf("unexpected runs %#v", first.Runs)
	}
}

func TestConvertHeadingFlushesParagraph(t *testing.T) {
	doc := Convert("para\n# Head\nmore")
	kinds := make([]string, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		kinds = append(kinds, KindOf(b))
	}
	if strings.Join(kinds, ",") != "paragraph,heading,paragraph" {
		t.Fatalf("unexpected block kinds %v", kinds)
	}
}

func TestClassifyLinePriority(t *testing.T) {
	cases := []struct {
		line   string
		inCode bool
		want   lineKind
	}{
		{"```", true, lineFence},
		{"# inside code", true, lineCode},
		{"#hashtag", false, lineHeading},
		{"- item", false, lineBullet},
		{"* item", false, lineBullet},
		{"*emphasis*", false, lineText},
		{"-", false, lineText},
		{"10. item", false, lineOrdered},
		{"1.5 percent", false, lineText},
		{"   ", false, lineBlank},
		{"text", false, lineText},
	}
	for _, tc := range cases {
		if got := classifyLine(tc.line, tc.inCode).kind; got != tc.want {
			t.Errorf("classifyLine(%q, %v) = %v, want %v", tc.line, tc.inCode, got, tc.want)
		}
	}
}

func TestConvertNeverPanics(t *testing.T) {
	alphabet := []string{"*", "**", "_", "`", "```", "#", "- ", "1. ", "\n", " ", "a", "é", "✓", "\t", "\r"}
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		var b strings.Builder
		n := rng.Intn(64)
		for j := 0; j < n; j++ {
			b.WriteString(alphabet[rng.Intn(len(alphabet))])
		}
		input := b.String()
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Convert(%q) panicked: %v", input, r)
				}
			}()
			doc := Convert(input)
			if len(doc.Blocks) == 0 {
				t.Fatalf("Convert(%q) returned no blocks", input)
			}
			if err := Validate(doc); err != nil {
				t.Fatalf("Convert(%q) produced invalid ADF: %v", input, err)
			}
		}()
	}
}

func TestPlainText(t *testing.T) {
	doc := Convert("# Title\n\nbody **bold**\n\n- a\n- b\n\n1. x\n\n```\ncode\n```")
	want := "Title\n\nbody bold\n\n- a\n- b\n\n1. x\n\ncode"
	if got := doc.PlainText(); got != want {
		t.Fatalf("unexpected plain text:\n got %q\nwant %q", got, want)
	}
}

func assertItems(t *testing.T, items []ListItem, want ...string) {
	t.Helper()
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(items))
	}
	for i, item := range items {
		if got := RunsText(item.Runs); got != want[i] {
			t.Fatalf("item %d: got %q want %q", i, got, want[i])
		}
	}
}
