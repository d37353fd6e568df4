package textproc

import (
	"regexp"
	"strings"
	"unicode"
)

// ligatures maps PDF typography artifacts to plain ASCII equivalents.
var ligatures = strings.NewReplacer(
	"ﬁ", "fi", // ﬁ
	"ﬂ", "fl", // ﬂ
	"ﬀ", "ff", // ﬀ
	"ﬃ", "ffi", // ﬃ
	"ﬄ", "ffl", // ﬄ
	"‘", "'", // left single quote
	"’", "'", // right single quote
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	"–", "-", // en dash
	"—", "-", // em dash
	" ", " ", // non-breaking space
)

// hyphenBreak matches an end-of-line hyphen splitting a word across lines.
var hyphenBreak = regexp.MustCompile(`(\pL)-\r?\n\s*(\pL)`)

// minNoiseLineLength is the shortest line kept on pages after the first.
// Shorter lines are usually page numbers, header fragments or rules.
const minNoiseLineLength = 5

// Clean normalizes raw extracted page text. Whitespace runs collapse to
// single spaces; blank lines survive as paragraph breaks. On pages after
// the first, lines that look like page numbers, running headers or rules
// are dropped. The first page is kept in full since title and author
// lines are short but meaningful.
func Clean(raw string, pageNum int) string {
	if raw == "" {
		return ""
	}

	text := ligatures.Replace(raw)
	text = hyphenBreak.ReplaceAllString(text, "$1$2")

	var paragraphs []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = current[:0]
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = collapseSpaces(line)
		if line == "" {
			flush()
			continue
		}
		if pageNum != 1 && noiseLine(line) {
			continue
		}
		current = append(current, line)
	}
	flush()

	return strings.Join(paragraphs, "\n\n")
}

// noiseLine reports whether a line is likely a page number, header
// fragment or decorative rule.
func noiseLine(line string) bool {
	if isDigits(line) {
		return true
	}
	if len([]rune(line)) < minNoiseLineLength {
		return true
	}
	for _, r := range line {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// collapseSpaces trims a line and collapses internal whitespace runs.
func collapseSpaces(line string) string {
	return strings.Join(strings.Fields(line), " ")
}
