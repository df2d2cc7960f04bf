// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoryIncludesEveryBriefSection(t *testing.T) {
	b := DefaultBrief()
	p, err := Story(b, 1000)
	require.NoError(t, err)

	assert.Contains(t, p, `titled "Unit 985"`)
	assert.Contains(t, p, "approximately 1000 words")
	assert.Contains(t, p, b.Premise)
	assert.Contains(t, p, b.World)
	for _, c := range b.Characters {
		assert.Contains(t, p, "- "+c)
	}
	assert.Contains(t, p, "1. "+b.Arc[0])
	assert.Contains(t, p, "5. "+b.Arc[4])
	assert.Contains(t, p, "===")
}

func TestStoryIsDeterministic(t *testing.T) {
	a, err := Story(DefaultBrief(), 500)
	require.NoError(t, err)
	b, err := Story(DefaultBrief(), 500)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLoadBrief(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		wantTitle string
		wantWorld string
		wantErr   bool
	}{
		{
			name:      "full override",
			yaml:      "title: Tidewater\nworld: A drowned forest.\npremise: Trees that walk.\n",
			wantTitle: "Tidewater",
			wantWorld: "A drowned forest.",
		},
		{
			name:      "partial override keeps defaults",
			yaml:      "title: Only A Title\n",
			wantTitle: "Only A Title",
			wantWorld: DefaultBrief().World,
		},
		{
			name:    "invalid yaml",
			yaml:    ":::bad\n",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "brief.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			b, err := LoadBrief(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, b.Title)
			assert.Equal(t, tt.wantWorld, b.World)
			assert.NotEmpty(t, b.Characters)
		})
	}
}

func TestLoadBriefMissingFile(t *testing.T) {
	_, err := LoadBrief(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestBriefText(t *testing.T) {
	text := DefaultBrief().Text()
	assert.True(t, strings.HasPrefix(text, "Title: Unit 985\n"))
	assert.Contains(t, text, "Characters:\n- Unit 985")
	assert.Contains(t, text, "Arc:\n1. Awakening")
}

func TestAgentPrompts(t *testing.T) {
	p, err := Characters("a premise")
	require.NoError(t, err)
	assert.Contains(t, p, "Based on this premise: 'a premise'")
	assert.Contains(t, p, "```json")
	assert.True(t, strings.HasSuffix(p, Terminator))

	d := ChapterData{Premise: "pp", Chapter: 15, Total: 15, Final: true, Feedback: "too similar", Words: 3000}
	p, err = Outline(d)
	require.NoError(t, err)
	assert.Contains(t, p, "Chapter 15 of 15")
	assert.Contains(t, p, "final chapter")
	assert.Contains(t, p, "too similar")

	d.Final = false
	d.Feedback = ""
	p, err = Outline(d)
	require.NoError(t, err)
	assert.NotContains(t, p, "final chapter")
	assert.NotContains(t, p, "Previous outline")

	d.Outline = "Title: \"The Tide\""
	p, err = Chapter(d)
	require.NoError(t, err)
	assert.Contains(t, p, "at least 3000 words")
	assert.Contains(t, p, "Title: \"The Tide\"")

	d.Draft = "It rained."
	d.Revision = 2
	p, err = ChapterReview(d)
	require.NoError(t, err)
	assert.Contains(t, p, "revision 2")
	assert.Contains(t, p, "It rained.")

	p, err = OutlineReview(d)
	require.NoError(t, err)
	assert.Contains(t, p, "Review this outline for Chapter 15")
}
