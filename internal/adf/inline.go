package adf

import "strings"

// scanMode is the inline scanner state. Plain accumulates literal text; the
// other modes accumulate the body of a delimited span whose closing delimiter
// position is already known.
type scanMode int

const (
	modePlain scanMode = iota
	modeCode
	modeBold
	modeItalic
)

func (m scanMode) mark() Mark {
	switch m {
	case modeCode:
		return MarkCode
	case modeBold:
		return MarkBold
	case modeItalic:
		return MarkItalic
	default:
		return MarkNone
	}
}

type inlineScanner struct {
	src   string
	pos   int
	mode  scanMode
	close int
	width int
	buf   strings.Builder
	runs  []Run
}

// Scan splits text into inline runs. Delimiters are matched left to right in
// priority order: inline code, bold, italic. A delimiter without a matching
// close (or enclosing nothing) is kept as literal text. Scan never returns an
// empty slice.
func Scan(text string) []Run {
	s := inlineScanner{src: text}
	for s.pos < len(s.src) {
		if s.mode == modePlain {
			s.stepPlain()
		} else {
			s.stepSpan()
		}
	}
	s.flush(MarkNone)
	if len(s.runs) == 0 {
		return emptyRuns()
	}
	return s.runs
}

func (s *inlineScanner) stepPlain() {
	c := s.src[s.pos]
	switch {
	case c == '`' && !s.followedBy('`'):
		s.openOrLiteral(modeCode, "`")
	case c == '*' && s.followedBy('*'):
		s.openOrLiteral(modeBold, "**")
	case c == '*' || c == '_':
		if s.followedBy(c) {
			s.literal(2)
			return
		}
		s.openOrLiteral(modeItalic, string(c))
	default:
		s.literal(1)
	}
}

// openOrLiteral enters mode when a closing delimiter exists after a non-empty
// body. Otherwise the whole opening delimiter is emitted literally.
func (s *inlineScanner) openOrLiteral(mode scanMode, delim string) {
	bodyStart := s.pos + len(delim)
	end := strings.Index(s.src[bodyStart:], delim)
	if mode == modeItalic {
		end = indexSingle(s.src[bodyStart:], delim[0])
	}
	if end <= 0 {
		s.literal(len(delim))
		return
	}
	s.flush(MarkNone)
	s.mode = mode
	s.width = len(delim)
	s.close = bodyStart + end
	s.pos = bodyStart
}

// indexSingle finds the first c in text that is not part of a run of two or
// more, so an italic span never closes on half of a bold pair.
func indexSingle(text string, c byte) int {
	for i := 0; i < len(text); {
		if text[i] != c {
			i++
			continue
		}
		j := i
		for j < len(text) && text[j] == c {
			j++
		}
		if j-i == 1 {
			return i
		}
		i = j
	}
	return -1
}

func (s *inlineScanner) stepSpan() {
	if s.pos == s.close {
		s.flush(s.mode.mark())
		s.pos += s.width
		s.mode = modePlain
		return
	}
	s.buf.WriteByte(s.src[s.pos])
	s.pos++
}

func (s *inlineScanner) literal(n int) {
	if s.pos+n > len(s.src) {
		n = len(s.src) - s.pos
	}
	s.buf.WriteString(s.src[s.pos : s.pos+n])
	s.pos += n
}

func (s *inlineScanner) followedBy(c byte) bool {
	return s.pos+1 < len(s.src) && s.src[s.pos+1] == c
}

func (s *inlineScanner) flush(mark Mark) {
	if s.buf.Len() == 0 {
		return
	}
	s.runs = append(s.runs, Run{Text: s.buf.String(), Mark: mark})
	s.buf.Reset()
}

// RunsText concatenates the text of runs, dropping marks.
func RunsText(runs []Run) string {
	var b strings.Builder
	for _, run := range runs {
		b.WriteString(run.Text)
	}
	return b.String()
}
