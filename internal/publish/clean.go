// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publish

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	crRun      = regexp.MustCompile(`\r+`)
	blankRun   = regexp.MustCompile(`\n\s*\n+`)
	spaceRun   = regexp.MustCompile(` +`)
	spaceAtEOL = regexp.MustCompile(` *\n *`)
	newlineRun = regexp.MustCompile(`\n{3,}`)
	ruleLine   = regexp.MustCompile(`^[=\-_*]{3,}$`)
)

// maxHeadingLen bounds how long a "Chapter ..." line may be and still be
// treated as a heading rather than prose.
const maxHeadingLen = 80

// Clean normalises whitespace and strips agent artefacts: the TERMINATE
// token and markdown bold markers. Paragraphs stay separated by exactly one
// blank line.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "TERMINATE", "")
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\t", " ")
	text = crRun.ReplaceAllString(text, "\n")
	text = blankRun.ReplaceAllString(text, "\n\n")
	text = spaceRun.ReplaceAllString(text, " ")
	text = spaceAtEOL.ReplaceAllString(text, "\n")
	text = newlineRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Section is a run of paragraphs under an optional chapter heading.
type Section struct {
	Heading    string
	Paragraphs []string
}

// Sections splits cleaned text into chapters on lines that begin with
// "Chapter". A rule line (e.g. "=====") directly under a heading is dropped.
// Text before the first heading becomes a section without a heading. Lines
// inside a paragraph are joined with a space.
func Sections(clean string) []Section {
	var (
		sections     []Section
		cur          Section
		para         []string
		afterHeading bool
	)

	flushPara := func() {
		if len(para) > 0 {
			cur.Paragraphs = append(cur.Paragraphs, strings.Join(para, " "))
			para = nil
		}
	}
	flushSection := func() {
		flushPara()
		if cur.Heading != "" || len(cur.Paragraphs) > 0 {
			sections = append(sections, cur)
		}
		cur = Section{}
	}

	for _, line := range strings.Split(clean, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			flushPara()
			afterHeading = false
		case isHeading(line):
			flushSection()
			cur.Heading = line
			afterHeading = true
		case afterHeading && ruleLine.MatchString(line):
			afterHeading = false
		default:
			afterHeading = false
			para = append(para, line)
		}
	}
	flushSection()
	return sections
}

func isHeading(line string) bool {
	return strings.HasPrefix(line, "Chapter") && utf8.RuneCountInString(line) <= maxHeadingLen
}
