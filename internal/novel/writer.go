// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package novel writes a novel chapter by chapter with a set of role-played
// agents (character manager, editor, writer, reviewer) sharing one backend.
// Every intermediate artefact lands in the output directory, so an
// interrupted run resumes from the characters and outlines already on disk.
package novel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/novel-engine/internal/backend"
	"github.com/pdiddy/novel-engine/internal/prompt"
	"github.com/pdiddy/novel-engine/pkg/types"
)

const (
	CharactersFile = "characters.json"
	ProgressFile   = "novel_progress.json"
	FinalFile      = "final_novel.json"

	DefaultNumChapters     = 15
	DefaultWordsPerChapter = 3000
	DefaultMaxRevisions    = 3

	outlineAttempts = 3
	agentMaxTokens  = 4096
)

// satisfiedWords end the revision loop when a review contains one of them.
var satisfiedWords = []string{"excellent", "outstanding"}

// OutlinePath returns dir/outline_chapter_N.txt.
func OutlinePath(dir string, chapter int) string {
	return filepath.Join(dir, fmt.Sprintf("outline_chapter_%d.txt", chapter))
}

// Writer runs the multi-pass pipeline for one premise.
type Writer struct {
	backend  backend.Backend
	cfg      types.NovelConfig
	progress io.Writer
	logger   *zap.Logger
	now      func() time.Time

	chars    *Characters
	reviewer *Reviewer
}

// NewWriter fills unset counts in cfg with the defaults (15 chapters, 3000
// words per chapter, 3 revisions) and prepares the outline reviewer.
func NewWriter(b backend.Backend, cfg types.NovelConfig, progress io.Writer, logger *zap.Logger) (*Writer, error) {
	if cfg.NumChapters <= 0 {
		cfg.NumChapters = DefaultNumChapters
	}
	if cfg.WordsPerChapter <= 0 {
		cfg.WordsPerChapter = DefaultWordsPerChapter
	}
	if cfg.MaxRevisions <= 0 {
		cfg.MaxRevisions = DefaultMaxRevisions
	}
	if progress == nil {
		progress = io.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	analyzer, err := NewAnalyzer()
	if err != nil {
		return nil, err
	}

	return &Writer{
		backend:  b,
		cfg:      cfg,
		progress: progress,
		logger:   logger,
		now:      time.Now,
		chars:    NewCharacters(),
		reviewer: NewReviewer(analyzer, cfg.SimilarityThreshold),
	}, nil
}

// Write produces characters, outlines, and (unless OutlineOnly) chapters for
// premise. novel_progress.json is rewritten after every chapter;
// final_novel.json and its text export final_novel.txt are written at the end.
func (w *Writer) Write(ctx context.Context, premise string) (*types.Novel, error) {
	if strings.TrimSpace(premise) == "" {
		return nil, fmt.Errorf("%w: empty premise", types.ErrConfig)
	}
	if err := os.MkdirAll(w.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	if err := w.initCharacters(ctx, premise); err != nil {
		return nil, err
	}

	novel := &types.Novel{
		Metadata: types.NovelMetadata{
			Premise:     premise,
			CreatedDate: w.now(),
			NumChapters: w.cfg.NumChapters,
			Model:       w.cfg.Model,
		},
		Characters: w.chars.Set(),
		Chapters:   map[string]types.ChapterRecord{},
	}

	for n := 1; n <= w.cfg.NumChapters; n++ {
		fmt.Fprintf(w.progress, "chapter %d/%d\n", n, w.cfg.NumChapters)

		outline, err := w.outline(ctx, premise, n)
		if err != nil {
			return nil, fmt.Errorf("chapter %d outline: %w", n, err)
		}
		rec := types.ChapterRecord{Outline: outline}

		if !w.cfg.OutlineOnly {
			versions, final, err := w.chapter(ctx, outline, n)
			if err != nil {
				return nil, fmt.Errorf("chapter %d: %w", n, err)
			}
			rec.Versions = versions
			rec.FinalVersion = final
		}

		novel.Chapters[types.ChapterKey(n)] = rec
		novel.Characters = w.chars.Set()

		if err := saveJSON(filepath.Join(w.cfg.OutputDir, ProgressFile), novel); err != nil {
			return nil, err
		}
	}

	if err := saveJSON(filepath.Join(w.cfg.OutputDir, FinalFile), novel); err != nil {
		return nil, err
	}
	fmt.Fprintf(w.progress, "wrote %s\n", filepath.Join(w.cfg.OutputDir, FinalFile))

	if !w.cfg.OutlineOnly {
		path := filepath.Join(w.cfg.OutputDir, FinalTextFile)
		if err := os.WriteFile(path, []byte(FormatNovel(novel)), 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Fprintf(w.progress, "wrote %s\n", path)
	}
	return novel, nil
}

// initCharacters loads characters.json or asks the character manager for
// profiles and saves them.
func (w *Writer) initCharacters(ctx context.Context, premise string) error {
	path := filepath.Join(w.cfg.OutputDir, CharactersFile)

	loaded, err := LoadCharacters(path)
	if err == nil {
		w.chars = loaded
		fmt.Fprintf(w.progress, "loaded %d characters from %s\n", loaded.Len(), path)
		return nil
	}
	if !isNotExist(err) {
		return err
	}

	p, err := prompt.Characters(premise)
	if err != nil {
		return err
	}
	reply, err := w.ask(ctx, prompt.CharacterManagerSystem, p, agentMaxTokens)
	if err != nil {
		return fmt.Errorf("character profiles: %w", err)
	}
	profiles, err := ParseCharacters(reply)
	if err != nil {
		return err
	}

	for _, ch := range profiles {
		w.chars.Add(ch)
		fmt.Fprintf(w.progress, "added character: %s\n", ch.Name)
	}
	return w.chars.Save(path)
}

// outline loads or generates the outline for chapter n. A generated outline
// gets up to three attempts; an attempt that fails the automated review
// sends the issues and the agents' review into the next one. The last
// attempt is kept either way.
func (w *Writer) outline(ctx context.Context, premise string, n int) (string, error) {
	path := OutlinePath(w.cfg.OutputDir, n)
	if data, err := os.ReadFile(path); err == nil {
		outline := string(data)
		w.reviewer.Accept(outline, n)
		fmt.Fprintf(w.progress, "  outline loaded from %s\n", path)
		return outline, nil
	} else if !isNotExist(err) {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	var feedback string
	for attempt := 1; ; attempt++ {
		d := prompt.ChapterData{
			Premise:          premise,
			CharacterContext: w.chars.Context(n),
			Chapter:          n,
			Total:            w.cfg.NumChapters,
			Final:            n == w.cfg.NumChapters,
			Feedback:         feedback,
		}
		p, err := prompt.Outline(d)
		if err != nil {
			return "", err
		}
		outline, err := w.ask(ctx, prompt.EditorSystem, p, agentMaxTokens)
		if err != nil {
			return "", err
		}

		review := w.reviewer.Review(outline, n)
		if review.Valid || attempt == outlineAttempts {
			if !review.Valid {
				w.reviewer.Accept(outline, n)
				fmt.Fprintf(w.progress, "  outline attempts exhausted, keeping attempt %d\n", attempt)
			} else {
				fmt.Fprintf(w.progress, "  outline approved on attempt %d\n", attempt)
			}
			if err := os.WriteFile(path, []byte(outline), 0o644); err != nil {
				return "", fmt.Errorf("writing %s: %w", path, err)
			}
			return outline, nil
		}

		for _, issue := range review.Issues {
			fmt.Fprintf(w.progress, "  outline issue: %s\n", issue)
		}
		w.logger.Debug("outline rejected",
			zap.Int("chapter", n),
			zap.Int("attempt", attempt),
			zap.String("title", review.Title),
			zap.Float64("max_similarity", review.MaxSimilarity),
		)

		d.Outline = outline
		agentReview, err := w.reviewOutline(ctx, d)
		if err != nil {
			return "", err
		}
		feedback = strings.Join(review.Issues, ", ") + "\n\nAgent feedback:\n" + agentReview
	}
}

// reviewOutline collects the editor's and the character manager's review of
// an outline.
func (w *Writer) reviewOutline(ctx context.Context, d prompt.ChapterData) (string, error) {
	p, err := prompt.OutlineReview(d)
	if err != nil {
		return "", err
	}
	editor, err := w.ask(ctx, prompt.EditorSystem, p, agentMaxTokens)
	if err != nil {
		return "", fmt.Errorf("editor review: %w", err)
	}
	characters, err := w.ask(ctx, prompt.CharacterManagerSystem, p, agentMaxTokens)
	if err != nil {
		return "", fmt.Errorf("character review: %w", err)
	}
	return "Editor:\n" + editor + "\n\nCharacter manager:\n" + characters, nil
}

// chapter runs the write/review loop. The last draft is the final version.
func (w *Writer) chapter(ctx context.Context, outline string, n int) (map[string]types.ChapterVersion, string, error) {
	versions := map[string]types.ChapterVersion{}
	maxTokens := max(w.cfg.WordsPerChapter*2, agentMaxTokens)

	var feedback, draft string
	for rev := 1; rev <= w.cfg.MaxRevisions; rev++ {
		fmt.Fprintf(w.progress, "  revision %d\n", rev)

		d := prompt.ChapterData{
			CharacterContext: w.chars.Context(n),
			Chapter:          n,
			Total:            w.cfg.NumChapters,
			Outline:          outline,
			Feedback:         feedback,
			Words:            w.cfg.WordsPerChapter,
			Revision:         rev,
		}
		p, err := prompt.Chapter(d)
		if err != nil {
			return nil, "", err
		}
		draft, err = w.ask(ctx, prompt.WriterSystem, p, maxTokens)
		if err != nil {
			return nil, "", fmt.Errorf("revision %d: %w", rev, err)
		}
		w.chars.UpdateAppearances(draft, n)

		d.Draft = draft
		p, err = prompt.ChapterReview(d)
		if err != nil {
			return nil, "", err
		}
		feedback, err = w.ask(ctx, prompt.ReviewerSystem, p, agentMaxTokens)
		if err != nil {
			return nil, "", fmt.Errorf("revision %d review: %w", rev, err)
		}

		versions[fmt.Sprintf("revision_%d", rev)] = types.ChapterVersion{Content: draft, Feedback: feedback}
		if satisfied(feedback) {
			fmt.Fprintf(w.progress, "  chapter %d accepted after %d revision(s)\n", n, rev)
			break
		}
	}
	return versions, draft, nil
}

func satisfied(feedback string) bool {
	lower := strings.ToLower(feedback)
	for _, word := range satisfiedWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// ask sends one agent turn and strips the trailing terminator. A blank
// reply fails with types.ErrBackend.
func (w *Writer) ask(ctx context.Context, system, p string, maxTokens int) (string, error) {
	reply, err := w.backend.Generate(ctx, backend.Request{System: system, Prompt: p, MaxTokens: maxTokens})
	if err != nil {
		if errors.Is(err, types.ErrBackend) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", types.ErrBackend, err)
	}

	reply = strings.TrimSpace(reply)
	reply = strings.TrimSpace(strings.TrimSuffix(reply, prompt.Terminator))
	if reply == "" {
		return "", fmt.Errorf("%w: empty reply", types.ErrBackend)
	}
	return reply, nil
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
