package adf

import "strings"

const (
	fenceMarker     = "```"
	maxHeadingLevel = 6
	defaultLanguage = "text"
)

type lineKind int

const (
	lineFence lineKind = iota
	lineCode
	lineHeading
	lineBullet
	lineOrdered
	lineBlank
	lineText
)

// classifiedLine is one input line tagged with the first rule it matched.
// Text holds the heading text, the list item text, or the fence language.
type classifiedLine struct {
	kind  lineKind
	raw   string
	level int
	text  string
}

type lineRule func(raw, trimmed string, inCode bool) (classifiedLine, bool)

// lineRules is evaluated in order; the first match wins.
var lineRules = []lineRule{
	matchFence,
	matchCodeLine,
	matchHeading,
	matchBullet,
	matchOrdered,
	matchBlank,
}

func classifyLine(raw string, inCode bool) classifiedLine {
	trimmed := strings.TrimSpace(raw)
	for _, rule := range lineRules {
		if line, ok := rule(raw, trimmed, inCode); ok {
			return line
		}
	}
	return classifiedLine{kind: lineText, raw: raw}
}

func matchFence(raw, trimmed string, _ bool) (classifiedLine, bool) {
	if !strings.HasPrefix(trimmed, fenceMarker) {
		return classifiedLine{}, false
	}
	return classifiedLine{
		kind: lineFence,
		raw:  raw,
		text: strings.TrimSpace(trimmed[len(fenceMarker):]),
	}, true
}

func matchCodeLine(raw, _ string, inCode bool) (classifiedLine, bool) {
	if !inCode {
		return classifiedLine{}, false
	}
	return classifiedLine{kind: lineCode, raw: raw}, true
}

func matchHeading(raw, trimmed string, _ bool) (classifiedLine, bool) {
	hashes := 0
	for hashes < len(trimmed) && trimmed[hashes] == '#' {
		hashes++
	}
	if hashes == 0 {
		return classifiedLine{}, false
	}
	return classifiedLine{
		kind:  lineHeading,
		raw:   raw,
		level: min(hashes, maxHeadingLevel),
		text:  strings.TrimLeft(trimmed[hashes:], " \t"),
	}, true
}

func matchBullet(raw, trimmed string, _ bool) (classifiedLine, bool) {
	if len(trimmed) < 2 || (trimmed[0] != '-' && trimmed[0] != '*') || trimmed[1] != ' ' {
		return classifiedLine{}, false
	}
	return classifiedLine{kind: lineBullet, raw: raw, text: strings.TrimSpace(trimmed[2:])}, true
}

func matchOrdered(raw, trimmed string, _ bool) (classifiedLine, bool) {
	digits := 0
	for digits < len(trimmed) && trimmed[digits] >= '0' && trimmed[digits] <= '9' {
		digits++
	}
	if digits == 0 || len(trimmed) < digits+2 || trimmed[digits] != '.' || trimmed[digits+1] != ' ' {
		return classifiedLine{}, false
	}
	return classifiedLine{kind: lineOrdered, raw: raw, text: strings.TrimSpace(trimmed[digits+2:])}, true
}

func matchBlank(raw, trimmed string, _ bool) (classifiedLine, bool) {
	if trimmed != "" {
		return classifiedLine{}, false
	}
	return classifiedLine{kind: lineBlank, raw: raw}, true
}

type segmenter struct {
	blocks    []Block
	paragraph []string

	inCode   bool
	code     []string
	language string
}

// Segment groups the lines of text into blocks in a single forward pass.
// It returns nil when text holds no content; Assemble supplies the fallback
// paragraph in that case.
func Segment(text string) []Block {
	lines := strings.Split(text, "\n")
	s := &segmenter{}
	for i := 0; i < len(lines); {
		line := classifyLine(lines[i], s.inCode)
		switch line.kind {
		case lineFence:
			s.fence(line)
		case lineCode:
			s.code = append(s.code, line.raw)
		case lineHeading:
			s.flushParagraph()
			s.blocks = append(s.blocks, Heading{Level: line.level, Runs: Scan(line.text)})
		case lineBullet, lineOrdered:
			s.flushParagraph()
			i = s.list(lines, i, line.kind)
			continue
		case lineBlank:
			s.flushParagraph()
		default:
			s.paragraph = append(s.paragraph, line.raw)
		}
		i++
	}
	s.flushParagraph()
	s.flushCode()
	return s.blocks
}

func (s *segmenter) fence(line classifiedLine) {
	if s.inCode {
		s.flushCode()
		return
	}
	s.flushParagraph()
	s.inCode = true
	s.language = line.text
	s.code = s.code[:0]
}

// list consumes the contiguous run of lines of the given kind starting at
// start and returns the index of the first line that does not belong to it.
// Any other line kind, blank lines included, ends the list.
func (s *segmenter) list(lines []string, start int, kind lineKind) int {
	var items []ListItem
	i := start
	for ; i < len(lines); i++ {
		line := classifyLine(lines[i], false)
		if line.kind != kind {
			break
		}
		items = append(items, ListItem{Runs: Scan(line.text)})
	}
	if kind == lineOrdered {
		s.blocks = append(s.blocks, OrderedList{Items: items})
	} else {
		s.blocks = append(s.blocks, BulletList{Items: items})
	}
	return i
}

func (s *segmenter) flushParagraph() {
	if len(s.paragraph) == 0 {
		return
	}
	joined := strings.TrimSpace(strings.Join(s.paragraph, "\n"))
	s.paragraph = s.paragraph[:0]
	if joined == "" {
		return
	}
	s.blocks = append(s.blocks, Paragraph{Runs: Scan(joined)})
}

func (s *segmenter) flushCode() {
	if !s.inCode {
		return
	}
	language := s.language
	if language == "" {
		language = defaultLanguage
	}
	s.blocks = append(s.blocks, CodeBlock{
		Language: language,
		Text:     strings.Join(s.code, "\n"),
	})
	s.inCode = false
	s.language = ""
	s.code = s.code[:0]
}
