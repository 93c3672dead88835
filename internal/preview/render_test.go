package preview

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestRenderPlainStructure(t *testing.T) {
	text := "# Release\n\nShip **today**\n\n- one\n- `two`\n\n1. first\n2. second\n\n```go\nfmt.Println(1)\n```"
	got := Render(text, Options{Width: 80})
	want := strings.Join([]string{
		"Release",
		"",
		"Ship today",
		"",
		"  • one",
		"  • two",
		"",
		"  1. first",
		"  2. second",
		"",
		"    fmt.Println(1)",
	}, "\n")
	if got != want {
		t.Fatalf("unexpected render:\n%q\nwant:\n%q", got, want)
	}
}

func TestRenderEmptyInput(t *testing.T) {
	if got := Render("", Options{Width: 80}); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestRenderWrapsParagraphs(t *testing.T) {
	text := strings.Repeat("word ", 30)
	got := Render(text, Options{Width: 30})
	for _, line := range strings.Split(got, "\n") {
		if len(line) > 30 {
			t.Fatalf("line exceeds width: %q", line)
		}
	}
	if !strings.Contains(got, "\n") {
		t.Fatalf("expected wrapped output, got %q", got)
	}
}

func TestRenderListContinuationIndent(t *testing.T) {
	text := "- " + strings.Repeat("alpha ", 10)
	got := Render(text, Options{Width: 24})
	lines := strings.Split(got, "\n")
	if len(lines) < 2 {
		t.Fatalf("expected wrapped list item, got %q", got)
	}
	if !strings.HasPrefix(lines[0], "  • ") {
		t.Fatalf("first line missing bullet: %q", lines[0])
	}
	for _, line := range lines[1:] {
		if !strings.HasPrefix(line, "    ") {
			t.Fatalf("continuation not indented: %q", line)
		}
	}
}

func TestRenderColorEmitsEscapes(t *testing.T) {
	got := Render("# Title\n\n**bold** text", Options{Width: 80, Color: true})
	if !strings.Contains(got, "\x1b[") {
		t.Fatalf("expected ANSI escapes, got %q", got)
	}
	// Underlined headings are styled rune by rune, so compare the stripped text.
	if plain := ansi.Strip(got); plain != "Title\n\nbold text" {
		t.Fatalf("unexpected text behind the styling: %q", plain)
	}
}

func TestRenderHeadingKeepsInlineMarks(t *testing.T) {
	text := "## Fix **login** in `auth`"
	if got := Render(text, Options{Width: 80}); got != "Fix login in auth" {
		t.Fatalf("unexpected plain heading %q", got)
	}

	got := Render(text, Options{Width: 80, Color: true})
	if plain := ansi.Strip(got); plain != "Fix login in auth" {
		t.Fatalf("unexpected heading text %q", plain)
	}
	if strings.Contains(got, "**") || strings.Contains(got, "`") {
		t.Fatalf("heading kept raw markers: %q", got)
	}
	if !strings.Contains(got, "38;5;214") {
		t.Fatalf("expected inline code colour inside heading, got %q", got)
	}
}

func TestRenderHighlightsCode(t *testing.T) {
	got := Render("```go\npackage main\n```", Options{Width: 80, Color: true, CodeStyle: "monokai"})
	if !strings.Contains(got, "\x1b[") {
		t.Fatalf("expected highlighted code, got %q", got)
	}
	if !strings.HasPrefix(ansi.Strip(got), "  │ ") {
		t.Fatalf("code block missing gutter: %q", got)
	}
}

func TestRenderUnknownLanguageIsFaint(t *testing.T) {
	got := Render("```nosuchlang\nx := 1\ny := 2\n```", Options{Width: 80, Color: true})
	if strings.Count(got, "38;5;245") != 2 {
		t.Fatalf("expected both lines in faint colour, got %q", got)
	}
	if plain := ansi.Strip(got); plain != "  │ x := 1\n  │ y := 2" {
		t.Fatalf("unexpected code text %q", plain)
	}
}

func TestRenderClampsNarrowWidth(t *testing.T) {
	got := Render(strings.Repeat("abc ", 20), Options{Width: 3})
	for _, line := range strings.Split(got, "\n") {
		if len(line) > minWidth {
			t.Fatalf("line exceeds clamped width: %q", line)
		}
	}
}
