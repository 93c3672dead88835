package source

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"
)

func TestParseFigmaVariants(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		kind  string
		key   string
		node  string
		title string
	}{
		{"file", "https://www.figma.com/file/AbC123/Checkout-Flow?node-id=12-34", "file", "AbC123", "12:34", "Checkout Flow"},
		{"design", "https://figma.com/design/XyZ/Settings-Page", "design", "XyZ", "", "Settings Page"},
		{"proto without scheme", "www.figma.com/proto/P1/Onboarding?node-id=1%3A2", "proto", "P1", "1:2", "Onboarding"},
		{"board no title", "https://www.figma.com/board/B9", "board", "B9", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseFigma(tt.raw)
			if err != nil {
				t.Fatalf("ParseFigma returned error: %v", err)
			}
			if ref.Kind != tt.kind || ref.FileKey != tt.key || ref.NodeID != tt.node || ref.Title != tt.title {
				t.Fatalf("unexpected ref: %+v", ref)
			}
		})
	}
}

func TestParseFigmaRejects(t *testing.T) {
	for _, raw := range []string{
		"",
		"https://example.com/file/abc",
		"https://www.figma.com/",
		"https://www.figma.com/community/abc",
		"https://www.figma.com/file",
	} {
		if _, err := ParseFigma(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestFigmaDescribe(t *testing.T) {
	ref, err := ParseFigma("https://www.figma.com/design/K/Cart?node-id=3-4")
	if err != nil {
		t.Fatalf("ParseFigma returned error: %v", err)
	}
	text := ref.Describe()
	for _, want := range []string{"File key: K", "File title: Cart", "Selected node: 3:4"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in %q", want, text)
		}
	}
}

func TestReadLogKeepsEverythingUnderLimit(t *testing.T) {
	log := "starting\nconnecting to db\nERROR: connection refused\ndone\n"
	excerpt, err := ReadLog(strings.NewReader(log), 1024)
	if err != nil {
		t.Fatalf("ReadLog returned error: %v", err)
	}
	if excerpt.Truncated {
		t.Fatal("did not expect truncation")
	}
	if excerpt.Text != strings.TrimRight(log, "\n") {
		t.Fatalf("unexpected text %q", excerpt.Text)
	}
	if excerpt.TotalLines != 4 || excerpt.TotalBytes != int64(len(log)) {
		t.Fatalf("unexpected totals: %+v", excerpt)
	}
	if excerpt.FirstErrorLine != 3 || excerpt.FirstError != "ERROR: connection refused" {
		t.Fatalf("unexpected first error: %+v", excerpt)
	}
}

func TestReadLogKeepsTail(t *testing.T) {
	var b strings.Builder
	b.WriteString("panic: boom\n")
	for i := 0; i < 100; i++ {
		b.WriteString("line of filler text\n")
	}
	b.WriteString("last line")
	excerpt, err := ReadLog(strings.NewReader(b.String()), 64)
	if err != nil {
		t.Fatalf("ReadLog returned error: %v", err)
	}
	if !excerpt.Truncated {
		t.Fatal("expected truncation")
	}
	if len(excerpt.Text) > 64 {
		t.Fatalf("excerpt exceeds limit: %d bytes", len(excerpt.Text))
	}
	if !strings.HasSuffix(excerpt.Text, "last line") {
		t.Fatalf("expected tail to be kept, got %q", excerpt.Text)
	}
	if strings.Contains(excerpt.Text, "panic") {
		t.Fatal("expected head to be dropped")
	}
	if excerpt.FirstError != "panic: boom" || excerpt.FirstErrorLine != 1 {
		t.Fatalf("expected first error from dropped head, got %+v", excerpt)
	}
	if !strings.Contains(excerpt.Describe(), "only the tail is shown") {
		t.Fatalf("describe should mention truncation: %q", excerpt.Describe())
	}
}

func TestReadLogOversizedSingleLine(t *testing.T) {
	line := strings.Repeat("é", 100)
	excerpt, err := ReadLog(strings.NewReader(line), 51)
	if err != nil {
		t.Fatalf("ReadLog returned error: %v", err)
	}
	if !excerpt.Truncated || len(excerpt.Text) > 51 {
		t.Fatalf("unexpected excerpt: truncated=%v len=%d", excerpt.Truncated, len(excerpt.Text))
	}
	if !strings.HasPrefix(excerpt.Text, "é") {
		t.Fatalf("expected cut on rune boundary, got %q", excerpt.Text[:4])
	}
}

func TestReadLogPropagatesReadErrors(t *testing.T) {
	boom := errors.New("disk gone")
	if _, err := ReadLog(iotest.ErrReader(boom), 10); !errors.Is(err, boom) {
		t.Fatalf("expected read error, got %v", err)
	}
	if _, err := ReadLog(nil, 10); err == nil {
		t.Fatal("expected error for nil reader")
	}
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind(" Figma ")
	if err != nil || kind != KindFigma {
		t.Fatalf("unexpected result %q, %v", kind, err)
	}
	if _, err := ParseKind("pdf"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr string
	}{
		{"text ok", Request{Kind: KindText, Value: "Add dark mode", Labels: []string{"ui"}}, ""},
		{"log ok with parent", Request{Kind: KindLog, Value: "ERROR x", Parent: "OPS-12"}, ""},
		{"figma ok", Request{Kind: KindFigma, Value: "https://www.figma.com/file/K/T"}, ""},
		{"missing kind", Request{Value: "x"}, "kind"},
		{"unknown kind", Request{Kind: "pdf", Value: "x"}, "kind"},
		{"blank value", Request{Kind: KindText, Value: "   "}, "value"},
		{"bad figma", Request{Kind: KindFigma, Value: "https://example.com/file/K"}, "value"},
		{"bad parent", Request{Kind: KindText, Value: "x", Parent: "ops12"}, "parent"},
		{"bad label", Request{Kind: KindText, Value: "x", Labels: []string{"two words"}}, "labels"},
		{"long summary", Request{Kind: KindText, Value: "x", Summary: strings.Repeat("s", 256)}, "summary"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}
