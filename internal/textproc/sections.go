package textproc

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Section is one logical division of a document, detected from heading
// heuristics over the cleaned full text.
type Section struct {
	// Title is the heading line that opened the section.
	Title string

	// Page is the page the heading appeared on, taken from the most
	// recent page marker seen before the heading.
	Page int

	// Content is the accumulated body text, headings excluded.
	Content string
}

var (
	markdownHeading = regexp.MustCompile(`^#{1,6}\s+\S`)
	numberedHeading = regexp.MustCompile(`^\d+(\.\d+)*\.?\s+\S`)
	chapterHeading  = regexp.MustCompile(`(?i)^(chapter|section|part)\s+(\d+|[ivxlc]+)\b`)
	pageMarker      = regexp.MustCompile(`^\[Page (\d+)\]$`)
)

// maxCapsHeadingLength bounds the ALL-CAPS heuristic so body sentences
// written in caps do not register as headings.
const maxCapsHeadingLength = 60

// DetectSections partitions cleaned document text into titled sections.
// Lines of the form "[Page N]" update the running page number and are
// not emitted into section bodies. Returns nil when fewer than two
// sections were found; a single section carries no more structure than
// the unsectioned text, so callers fall back to page-based chunking.
func DetectSections(fullText string) []Section {
	if strings.TrimSpace(fullText) == "" {
		return nil
	}

	var sections []Section
	current := Section{Title: "Introduction", Page: 1}
	page := 1

	closeCurrent := func() {
		current.Content = strings.TrimSpace(current.Content)
		if current.Content != "" {
			sections = append(sections, current)
		}
	}

	for _, line := range strings.Split(fullText, "\n") {
		line = strings.TrimSpace(line)

		if m := pageMarker.FindStringSubmatch(line); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				page = n
			}
			continue
		}

		if isHeading(line) {
			closeCurrent()
			current = Section{Title: strings.TrimLeft(line, "# "), Page: page}
			continue
		}

		if line != "" {
			current.Content += line + "\n"
		}
	}
	closeCurrent()

	if len(sections) < 2 {
		return nil
	}
	return sections
}

// isHeading reports whether a line matches any of the heading patterns:
// markdown markers, numbered sections, chapter/section/part labels, or
// short ALL-CAPS lines.
func isHeading(line string) bool {
	if line == "" {
		return false
	}
	if markdownHeading.MatchString(line) {
		return true
	}
	if numberedHeading.MatchString(line) {
		return true
	}
	if chapterHeading.MatchString(line) {
		return true
	}
	return isCapsHeading(line)
}

func isCapsHeading(line string) bool {
	if len([]rune(line)) > maxCapsHeadingLength {
		return false
	}
	hasLetter := false
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}
