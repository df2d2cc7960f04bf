// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package novel

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// DefaultSimilarityThreshold rejects an outline scoring above it against
// any earlier outline.
const DefaultSimilarityThreshold = 0.7

// titlePatterns are tried in order; the first match wins.
var titlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`Title:\s*"([^"]+)"`),
	regexp.MustCompile(`Title:\s*(.+)`),
	regexp.MustCompile(`Chapter\s+\d+:\s*(.+)`),
	regexp.MustCompile(`#\s*(.+)`),
}

// ExtractTitle returns the chapter title named in an outline, or "".
func ExtractTitle(outline string) string {
	for _, re := range titlePatterns {
		if m := re.FindStringSubmatch(outline); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// OutlineReview is the automated verdict on one outline.
type OutlineReview struct {
	Valid         bool
	Title         string
	TitleUnique   bool
	OutlineUnique bool

	// MaxSimilarity is the highest score against an accepted outline.
	MaxSimilarity float64

	Issues []string
}

// Reviewer remembers accepted outlines and titles and checks new outlines
// against them.
type Reviewer struct {
	analyzer  *Analyzer
	threshold float64
	outlines  map[int]string
	titles    map[string]bool
}

// NewReviewer returns a reviewer. A non-positive threshold uses
// DefaultSimilarityThreshold.
func NewReviewer(analyzer *Analyzer, threshold float64) *Reviewer {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &Reviewer{
		analyzer:  analyzer,
		threshold: threshold,
		outlines:  map[int]string{},
		titles:    map[string]bool{},
	}
}

// Accept records an outline for chapter without reviewing it, as for
// outlines loaded from disk.
func (r *Reviewer) Accept(outline string, chapter int) {
	r.outlines[chapter] = outline
	if title := ExtractTitle(outline); title != "" {
		r.titles[strings.ToLower(title)] = true
	}
}

// Review checks that outline's title is new (ignoring case) and that it is
// not too similar to any accepted outline of another chapter. A valid
// outline is accepted.
func (r *Reviewer) Review(outline string, chapter int) OutlineReview {
	rv := OutlineReview{
		Title:         ExtractTitle(outline),
		TitleUnique:   true,
		OutlineUnique: true,
	}

	if rv.Title != "" && r.titles[strings.ToLower(rv.Title)] {
		rv.TitleUnique = false
		rv.Issues = append(rv.Issues, fmt.Sprintf("Chapter title '%s' is too similar to an existing title", rv.Title))
	}

	chapters := make([]int, 0, len(r.outlines))
	for n := range r.outlines {
		if n != chapter {
			chapters = append(chapters, n)
		}
	}
	sort.Ints(chapters)

	for _, n := range chapters {
		s := r.analyzer.Similarity(outline, r.outlines[n])
		if s > rv.MaxSimilarity {
			rv.MaxSimilarity = s
		}
		if s > r.threshold {
			rv.OutlineUnique = false
		}
	}
	if !rv.OutlineUnique {
		rv.Issues = append(rv.Issues, "Outline is too similar to a previous chapter")
	}

	rv.Valid = len(rv.Issues) == 0
	if rv.Valid {
		r.Accept(outline, chapter)
	}
	return rv
}
