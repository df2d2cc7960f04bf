// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package novel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		outline string
		want    string
	}{
		{`Title: "The Seawall"` + "\nPlot...", "The Seawall"},
		{"Title: Ledger of Salt\nPlot...", "Ledger of Salt"},
		{"Chapter 3: Low Tide\n- point", "Low Tide"},
		{"# Glass Harbor\n\n- point", "Glass Harbor"},
		{"Just plot points, no title.", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractTitle(tt.outline), tt.outline)
	}
}

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer()
	require.NoError(t, err)
	return a
}

func TestSimilarity(t *testing.T) {
	a := newTestAnalyzer(t)

	assert.InDelta(t, 1.0, a.Similarity(outlineOne, outlineOne), 1e-9)
	assert.InDelta(t, 1.0, a.Similarity("The lighthouse keepers", "a lighthouse keeper"), 1e-9)
	assert.Equal(t, 0.0, a.Similarity("lighthouse lens", "forged ledger"))
	assert.Equal(t, 0.0, a.Similarity("", "anything"))
	assert.Less(t, a.Similarity(outlineOne, outlineTwo), DefaultSimilarityThreshold)
}

func TestAnalyzer_Terms(t *testing.T) {
	terms := newTestAnalyzer(t).Terms("The keepers of 985 lighthouses")
	assert.NotContains(t, terms, "the")
	assert.NotContains(t, terms, "985")
	assert.Contains(t, terms, "lighthous")
}

func TestReviewer(t *testing.T) {
	r := NewReviewer(newTestAnalyzer(t), 0)

	first := r.Review(outlineOne, 1)
	assert.True(t, first.Valid)
	assert.Equal(t, "The Seawall", first.Title)

	dupTitle := r.Review(`Title: "THE SEAWALL"`+"\nA storm drowns the orchard and the courier is lost.", 2)
	assert.False(t, dupTitle.Valid)
	assert.False(t, dupTitle.TitleUnique)
	assert.True(t, dupTitle.OutlineUnique)

	nearCopy := r.Review(`Title: "Dawn Patrol"`+"\nUnit 985 sweeps the seawall at dawn while Mara Quill repairs the lighthouse lens.", 2)
	assert.False(t, nearCopy.Valid)
	assert.True(t, nearCopy.TitleUnique)
	assert.False(t, nearCopy.OutlineUnique)
	assert.Greater(t, nearCopy.MaxSimilarity, DefaultSimilarityThreshold)
	assert.Contains(t, nearCopy.Issues, "Outline is too similar to a previous chapter")

	assert.True(t, r.Review(outlineTwo, 2).Valid)
}

func TestReviewer_IgnoresSameChapter(t *testing.T) {
	r := NewReviewer(newTestAnalyzer(t), 0)
	r.Accept("Plot without a title about the seawall.", 1)
	assert.True(t, r.Review("Plot without a title about the seawall.", 1).Valid)
}
