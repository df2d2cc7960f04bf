// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract isolates the novel body from a model's raw output.
//
// The boundary rule is configuration: a marker (literal or regular
// expression), which occurrence of it to use, and an end-of-turn terminator
// to cut from the tail. The extracted text is always a contiguous substring
// of the raw text; when no marker is found the caller gets
// types.ErrExtraction rather than a guess.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdiddy/novel-engine/pkg/types"
)

const (
	// DefaultMarker is the line the story prompt asks models to put before the story.
	DefaultMarker = "==="

	// DefaultTerminator is the agents' end-of-turn token.
	DefaultTerminator = "TERMINATE"

	finalSuffix = "_final.txt"
)

// DefaultConfig returns the default boundary rule: text after the last "===",
// with a trailing TERMINATE removed.
func DefaultConfig() types.ExtractionConfig {
	return types.ExtractionConfig{
		Marker:     DefaultMarker,
		Occurrence: types.OccurrenceLast,
		Terminator: DefaultTerminator,
	}
}

// Extractor applies one compiled boundary rule.
type Extractor struct {
	cfg types.ExtractionConfig
	re  *regexp.Regexp
}

// New validates cfg. An empty marker, an invalid regular expression, or an
// unknown occurrence fails with types.ErrConfig. An empty occurrence means last.
func New(cfg types.ExtractionConfig) (*Extractor, error) {
	if cfg.Marker == "" {
		return nil, fmt.Errorf("%w: extraction marker is empty", types.ErrConfig)
	}
	switch cfg.Occurrence {
	case "":
		cfg.Occurrence = types.OccurrenceLast
	case types.OccurrenceFirst, types.OccurrenceLast:
	default:
		return nil, fmt.Errorf("%w: occurrence must be first or last, got %q", types.ErrConfig, cfg.Occurrence)
	}

	e := &Extractor{cfg: cfg}
	if cfg.Regexp {
		re, err := regexp.Compile(cfg.Marker)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid marker pattern %q: %v", types.ErrConfig, cfg.Marker, err)
		}
		e.re = re
	}
	return e, nil
}

// Extract returns the text after the selected marker match. It fails with
// types.ErrExtraction when the marker is absent or nothing but whitespace
// follows it.
func (e *Extractor) Extract(raw string) (types.ExtractedNovel, error) {
	start, ok := e.bodyStart(raw)
	if !ok {
		return types.ExtractedNovel{}, fmt.Errorf("%w: marker %q not found", types.ErrExtraction, e.cfg.Marker)
	}

	body := raw[start:]
	if t := e.cfg.Terminator; t != "" {
		trimmed := strings.TrimRight(body, " \t\r\n")
		if strings.HasSuffix(trimmed, t) {
			body = trimmed[:len(trimmed)-len(t)]
		}
	}

	if strings.TrimSpace(body) == "" {
		return types.ExtractedNovel{}, fmt.Errorf("%w: no text after marker %q", types.ErrExtraction, e.cfg.Marker)
	}
	return types.ExtractedNovel{CleanText: body, Offset: start}, nil
}

// bodyStart returns the byte offset just past the selected marker match.
func (e *Extractor) bodyStart(raw string) (int, bool) {
	if e.re != nil {
		matches := e.re.FindAllStringIndex(raw, -1)
		if len(matches) == 0 {
			return 0, false
		}
		if e.cfg.Occurrence == types.OccurrenceFirst {
			return matches[0][1], true
		}
		return matches[len(matches)-1][1], true
	}

	var i int
	if e.cfg.Occurrence == types.OccurrenceFirst {
		i = strings.Index(raw, e.cfg.Marker)
	} else {
		i = strings.LastIndex(raw, e.cfg.Marker)
	}
	if i < 0 {
		return 0, false
	}
	return i + len(e.cfg.Marker), true
}

// Result describes one extract run.
type Result struct {
	InputPath   string
	OutputPaths []string

	// Novel is set for raw text input. Chapter JSON input leaves it empty.
	Novel types.ExtractedNovel

	// Chapters is the number of chapters taken from chapter JSON input.
	Chapters int
}

// OutputPath returns <dir>/<stem>_final.txt for input path in. An empty dir
// means the input's directory.
func OutputPath(in, dir string) string {
	if dir == "" {
		dir = filepath.Dir(in)
	}
	stem := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	return filepath.Join(dir, stem+finalSuffix)
}

// IsExtracted reports whether name looks like an extract output file.
func IsExtracted(name string) bool {
	return strings.HasSuffix(name, finalSuffix) || name == finalVersionsTxt
}

// ExtractFile reads in and writes the extracted text under outDir. Raw text
// files go through the boundary rule; novel-writer JSON files (.json) have
// each chapter's final version pulled out instead. Running it twice on the
// same input writes identical output.
func (e *Extractor) ExtractFile(in, outDir string) (*Result, error) {
	if strings.EqualFold(filepath.Ext(in), ".json") {
		return ExtractChapters(in, outDir)
	}

	data, err := os.ReadFile(in)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", in, err)
	}

	novel, err := e.Extract(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in, err)
	}

	out := OutputPath(in, outDir)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(out, []byte(novel.CleanText), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", out, err)
	}

	return &Result{InputPath: in, OutputPaths: []string{out}, Novel: novel}, nil
}
