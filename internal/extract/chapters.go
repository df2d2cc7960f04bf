// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/novel-engine/pkg/types"
)

const (
	finalVersionsJSON = "final_versions.json"
	finalVersionsTxt  = "final_versions.txt"
)

// FinalVersion is one chapter's kept text in final_versions.json.
type FinalVersion struct {
	Chapter      int    `json:"chapter"`
	FinalVersion string `json:"final_version"`
}

// FinalVersions pulls each chapter's final version out of a novel in
// numeric chapter order. A chapter without a final version fails with
// types.ErrExtraction.
func FinalVersions(novel *types.Novel) ([]FinalVersion, error) {
	if len(novel.Chapters) == 0 {
		return nil, fmt.Errorf("%w: novel has no chapters", types.ErrExtraction)
	}

	versions := make([]FinalVersion, 0, len(novel.Chapters))
	for key, ch := range novel.Chapters {
		n, ok := chapterNumber(key)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected chapter key %q", types.ErrExtraction, key)
		}
		if strings.TrimSpace(ch.FinalVersion) == "" {
			return nil, fmt.Errorf("%w: %s has no final version", types.ErrExtraction, key)
		}
		versions = append(versions, FinalVersion{Chapter: n, FinalVersion: ch.FinalVersion})
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Chapter < versions[j].Chapter })
	return versions, nil
}

// chapterNumber parses "Chapter_12" → 12.
func chapterNumber(key string) (int, bool) {
	rest, ok := strings.CutPrefix(key, "Chapter_")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// FormatText renders chapters as plain text: a "Chapter N" heading, a rule
// of 50 '=' characters, a blank line, then the chapter body.
func FormatText(versions []FinalVersion) string {
	var b strings.Builder
	for _, v := range versions {
		fmt.Fprintf(&b, "\nChapter %d\n", v.Chapter)
		b.WriteString(strings.Repeat("=", 50))
		b.WriteString("\n\n")
		b.WriteString(v.FinalVersion)
		b.WriteString("\n\n")
	}
	return b.String()
}

// ExtractChapters reads a novel-writer JSON file and writes
// final_versions.json and final_versions.txt under outDir (default: the
// input's directory).
func ExtractChapters(in, outDir string) (*Result, error) {
	data, err := os.ReadFile(in)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", in, err)
	}

	var novel types.Novel
	if err := json.Unmarshal(data, &novel); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON in %s: %v", types.ErrExtraction, in, err)
	}

	versions, err := FinalVersions(&novel)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in, err)
	}

	if outDir == "" {
		outDir = filepath.Dir(in)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	jsonPath := filepath.Join(outDir, finalVersionsJSON)
	out, err := json.MarshalIndent(versions, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("marshaling final versions: %w", err)
	}
	if err := os.WriteFile(jsonPath, out, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", jsonPath, err)
	}

	txtPath := filepath.Join(outDir, finalVersionsTxt)
	if err := os.WriteFile(txtPath, []byte(FormatText(versions)), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", txtPath, err)
	}

	return &Result{
		InputPath:   in,
		OutputPaths: []string{jsonPath, txtPath},
		Chapters:    len(versions),
	}, nil
}
