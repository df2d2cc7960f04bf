// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package novel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pdiddy/novel-engine/internal/backend"
	"github.com/pdiddy/novel-engine/internal/prompt"
	"github.com/pdiddy/novel-engine/pkg/types"
)

// --- scripted backend ---

// scriptedBackend answers each agent role from its own queue. The last
// reply in a queue repeats.
type scriptedBackend struct {
	replies map[string][]string
	calls   []backend.Request
	err     error
}

func (s *scriptedBackend) Generate(_ context.Context, req backend.Request) (string, error) {
	s.calls = append(s.calls, req)
	if s.err != nil {
		return "", s.err
	}
	q := s.replies[req.System]
	if len(q) == 0 {
		return "", fmt.Errorf("no scripted reply for system %.30q", req.System)
	}
	if len(q) > 1 {
		s.replies[req.System] = q[1:]
	}
	return q[0], nil
}

func (s *scriptedBackend) callsFor(system string) []backend.Request {
	var out []backend.Request
	for _, c := range s.calls {
		if c.System == system {
			out = append(out, c)
		}
	}
	return out
}

const charactersReply = "Here are the profiles.\n```json\n" + `[
  {
    "name": "Mara Quill",
    "role": "Lighthouse engineer",
    "description": "Wiry, salt-stained, always carrying a torque wrench.",
    "personality": "Blunt and loyal.",
    "relationships": {"Unit 985": "Friend"},
    "key_traits": ["stubborn", "inventive"],
    "first_appearance": "1",
    "story_arc": "Learns to trust the machine."
  },
  {
    "name": "Director Oyelaran",
    "role": "Harbor authority",
    "description": "Immaculate uniform.",
    "personality": "Cold.",
    "relationships": {},
    "key_traits": ["calculating"],
    "first_appearance": 3,
    "story_arc": "Unravels."
  }
]` + "\n```\nTERMINATE"

const (
	outlineOne = `Title: "The Seawall"
Unit 985 sweeps the seawall at dawn while Mara Quill repairs the lighthouse lens.`
	outlineTwo = `Title: "Ledger of Salt"
Director Oyelaran audits harbor accounts and finds forged tide tables in the archive basement.`
)

func newTestWriter(t *testing.T, b backend.Backend, cfg types.NovelConfig) *Writer {
	t.Helper()
	if cfg.OutputDir == "" {
		cfg.OutputDir = t.TempDir()
	}
	w, err := NewWriter(b, cfg, nil, zap.NewNop())
	require.NoError(t, err)
	return w
}

func TestWrite_FullRun(t *testing.T) {
	b := &scriptedBackend{replies: map[string][]string{
		prompt.CharacterManagerSystem: {charactersReply},
		prompt.EditorSystem:           {outlineOne, outlineTwo},
		prompt.WriterSystem: {
			"Mara Quill tightened the last bolt.\nTERMINATE",
			"Mara Quill tightened the last bolt, and the lens sang. TERMINATE",
			"Director Oyelaran read the ledger. Mara Quill watched.",
		},
		prompt.ReviewerSystem: {"Needs more tension.", "Excellent pacing."},
	}}
	dir := t.TempDir()
	w := newTestWriter(t, b, types.NovelConfig{
		AIConfig:        types.AIConfig{Model: "mn-violet-lotus-12b"},
		OutputDir:       dir,
		NumChapters:     2,
		WordsPerChapter: 100,
		MaxRevisions:    3,
	})

	novel, err := w.Write(context.Background(), "A maintenance android in a drowned town.")
	require.NoError(t, err)

	require.Len(t, novel.Chapters, 2)
	ch1 := novel.Chapters["Chapter_1"]
	assert.Equal(t, outlineOne, ch1.Outline)
	assert.Len(t, ch1.Versions, 2)
	assert.Equal(t, "Mara Quill tightened the last bolt, and the lens sang.", ch1.FinalVersion)
	assert.Equal(t, "Needs more tension.", ch1.Versions["revision_1"].Feedback)

	ch2 := novel.Chapters["Chapter_2"]
	assert.Len(t, ch2.Versions, 1)
	assert.Equal(t, "Director Oyelaran read the ledger. Mara Quill watched.", ch2.FinalVersion)

	mara := novel.Characters.Characters["mara quill"]
	assert.Equal(t, "1", mara.FirstAppearance)
	assert.Equal(t, "2", mara.LastAppearance)
	assert.Equal(t, 1, novel.Characters.Mentions["2"]["director oyelaran"])
	assert.Equal(t, types.ModelID("mn-violet-lotus-12b"), novel.Metadata.Model)

	for _, name := range []string{CharactersFile, ProgressFile, FinalFile, "outline_chapter_1.txt", "outline_chapter_2.txt"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	text, err := os.ReadFile(filepath.Join(dir, FinalTextFile))
	require.NoError(t, err)
	assert.Contains(t, string(text), "A maintenance android in a drowned town.")
	assert.Contains(t, string(text), "Role: Lighthouse engineer")
	assert.Contains(t, string(text), "\nChapter 2\n")
	assert.Contains(t, string(text), ch2.FinalVersion)

	var saved types.Novel
	data, err := os.ReadFile(filepath.Join(dir, FinalFile))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, ch1.FinalVersion, saved.Chapters["Chapter_1"].FinalVersion)

	// Chapter budget reaches the backend as a token cap.
	writes := b.callsFor(prompt.WriterSystem)
	require.NotEmpty(t, writes)
	assert.Equal(t, agentMaxTokens, writes[0].MaxTokens)
	assert.Contains(t, writes[1].Prompt, "Needs more tension.")
}

func TestWrite_RejectsDuplicateTitle(t *testing.T) {
	duplicate := `Title: "the seawall"
Rain floods the market square and the android carries lanterns to stranded families.`
	b := &scriptedBackend{replies: map[string][]string{
		prompt.CharacterManagerSystem: {charactersReply, "Characters are consistent."},
		prompt.EditorSystem:           {outlineOne, duplicate, "Pick a fresh title.", outlineTwo},
	}}
	dir := t.TempDir()
	w := newTestWriter(t, b, types.NovelConfig{OutputDir: dir, NumChapters: 2, OutlineOnly: true})

	novel, err := w.Write(context.Background(), "premise")
	require.NoError(t, err)

	assert.Equal(t, outlineTwo, novel.Chapters["Chapter_2"].Outline)
	assert.Empty(t, novel.Chapters["Chapter_2"].FinalVersion)

	editorCalls := b.callsFor(prompt.EditorSystem)
	require.Len(t, editorCalls, 4)
	retry := editorCalls[3].Prompt
	assert.Contains(t, retry, "Chapter title 'the seawall' is too similar to an existing title")
	assert.Contains(t, retry, "Pick a fresh title.")
	assert.Contains(t, retry, "Characters are consistent.")

	saved, err := os.ReadFile(OutlinePath(dir, 2))
	require.NoError(t, err)
	assert.Equal(t, outlineTwo, string(saved))
	assert.Empty(t, b.callsFor(prompt.WriterSystem))
}

func TestWrite_KeepsLastOutlineAttempt(t *testing.T) {
	b := &scriptedBackend{replies: map[string][]string{
		prompt.CharacterManagerSystem: {charactersReply, "ok"},
		// Every chapter-2 attempt repeats chapter 1's outline.
		prompt.EditorSystem: {outlineOne},
	}}
	w := newTestWriter(t, b, types.NovelConfig{NumChapters: 2, OutlineOnly: true})

	novel, err := w.Write(context.Background(), "premise")
	require.NoError(t, err)
	assert.Equal(t, outlineOne, novel.Chapters["Chapter_2"].Outline)

	// One outline for chapter 1, then three attempts with two agent reviews
	// between them for chapter 2.
	assert.Len(t, b.callsFor(prompt.EditorSystem), 1+3+2)
}

func TestWrite_ResumesFromDisk(t *testing.T) {
	dir := t.TempDir()
	chars := NewCharacters()
	chars.Add(types.Character{Name: "Tobin", FirstAppearance: "1"})
	require.NoError(t, chars.Save(filepath.Join(dir, CharactersFile)))
	require.NoError(t, os.WriteFile(OutlinePath(dir, 1), []byte(outlineOne), 0o644))

	b := &scriptedBackend{replies: map[string][]string{}}
	w := newTestWriter(t, b, types.NovelConfig{OutputDir: dir, NumChapters: 1, OutlineOnly: true})

	novel, err := w.Write(context.Background(), "premise")
	require.NoError(t, err)
	assert.Empty(t, b.calls)
	assert.Equal(t, outlineOne, novel.Chapters["Chapter_1"].Outline)
	assert.Contains(t, novel.Characters.Characters, "tobin")
}

func TestWrite_BackendError(t *testing.T) {
	cause := errors.New("connection refused")
	b := &scriptedBackend{err: cause}
	w := newTestWriter(t, b, types.NovelConfig{NumChapters: 1})

	_, err := w.Write(context.Background(), "premise")
	assert.ErrorIs(t, err, types.ErrBackend)
	assert.ErrorIs(t, err, cause)
}

func TestWrite_EmptyReply(t *testing.T) {
	b := &scriptedBackend{replies: map[string][]string{
		prompt.CharacterManagerSystem: {"  TERMINATE  "},
	}}
	w := newTestWriter(t, b, types.NovelConfig{NumChapters: 1})

	_, err := w.Write(context.Background(), "premise")
	assert.ErrorIs(t, err, types.ErrBackend)
}

func TestWrite_EmptyPremise(t *testing.T) {
	w := newTestWriter(t, &scriptedBackend{}, types.NovelConfig{})
	_, err := w.Write(context.Background(), "  ")
	assert.ErrorIs(t, err, types.ErrConfig)
}

func TestNewWriter_Defaults(t *testing.T) {
	w := newTestWriter(t, &scriptedBackend{}, types.NovelConfig{})
	assert.Equal(t, DefaultNumChapters, w.cfg.NumChapters)
	assert.Equal(t, DefaultWordsPerChapter, w.cfg.WordsPerChapter)
	assert.Equal(t, DefaultMaxRevisions, w.cfg.MaxRevisions)
}

func TestSatisfied(t *testing.T) {
	assert.True(t, satisfied("This is EXCELLENT work."))
	assert.True(t, satisfied("An outstanding chapter"))
	assert.False(t, satisfied("Good, but tighten the dialogue."))
	assert.False(t, satisfied(strings.Repeat("fine ", 10)))
}

func TestFormatNovel(t *testing.T) {
	novel := &types.Novel{
		Metadata: types.NovelMetadata{Premise: "  A drowned town.\n", NumChapters: 3},
		Characters: types.CharacterSet{Characters: map[string]types.Character{
			"tobin":      {Name: "Tobin", Role: "Courier", KeyTraits: []string{"quick"}},
			"mara quill": {Name: "Mara Quill", Role: "Engineer", KeyTraits: []string{"stubborn", "inventive"}},
		}},
		Chapters: map[string]types.ChapterRecord{
			"Chapter_1": {FinalVersion: "The tide came in."},
			"Chapter_2": {FinalVersion: "Chapter 2: Salt\n\nThe ledger burned."},
			"Chapter_3": {Outline: "not written yet"},
		},
	}

	got := FormatNovel(novel)
	rule := strings.Repeat("=", 50)

	assert.True(t, strings.HasPrefix(got, "Novel Premise:\n"+rule+"\nA drowned town.\n\n"))
	assert.Contains(t, got, "Key Traits: stubborn, inventive")
	assert.Less(t, strings.Index(got, "Mara Quill:"), strings.Index(got, "Tobin:"))
	assert.Contains(t, got, "\nChapter 1\n"+rule+"\n\nThe tide came in.\n\n")
	assert.Contains(t, got, rule+"\n\nChapter 2: Salt\n\nThe ledger burned.\n\n")
	assert.Equal(t, 1, strings.Count(got, "Chapter 2"))
	assert.NotContains(t, got, "Chapter 3")
	assert.NotContains(t, got, "not written yet")
}

func TestWrite_OutlineOnlySkipsTextExport(t *testing.T) {
	b := &scriptedBackend{replies: map[string][]string{
		prompt.CharacterManagerSystem: {charactersReply},
		prompt.EditorSystem:           {outlineOne},
	}}
	dir := t.TempDir()
	w := newTestWriter(t, b, types.NovelConfig{OutputDir: dir, NumChapters: 1, OutlineOnly: true})

	_, err := w.Write(context.Background(), "A drowned town.")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, FinalFile))
	assert.NoFileExists(t, filepath.Join(dir, FinalTextFile))
}
