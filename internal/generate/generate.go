// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate sends the story prompt to the selected model and writes
// the raw response to the output directory.
package generate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/novel-engine/internal/backend"
	"github.com/pdiddy/novel-engine/pkg/types"
)

// TimestampLayout formats the timestamp part of raw output file names.
const TimestampLayout = "20060102-150405"

// tokensPerWord converts the word budget into a max_tokens cap with headroom
// for the model's own planning text.
const tokensPerWord = 2

// BackendFunc opens the backend bound to a model identifier.
type BackendFunc func(id types.ModelID) (backend.Backend, error)

// Generator runs one generation per call.
type Generator struct {
	// Open resolves the request's model to a backend.
	Open BackendFunc

	// OutputDir receives <model_id>_<timestamp>.txt files.
	OutputDir string

	// Now defaults to time.Now.
	Now func() time.Time

	Logger *zap.Logger
}

// rawName matches <model_id>_<timestamp>.txt and its -N variants.
var rawName = regexp.MustCompile(`^.+_\d{8}-\d{6}(-\d+)?\.txt$`)

// maxVariants bounds the -N suffixes tried when a name is taken.
const maxVariants = 1000

// IsRawOutput reports whether a file name has the shape OutputPath produces.
func IsRawOutput(name string) bool {
	return rawName.MatchString(name)
}

// writeNew writes text to path, or to path with a -2, -3, ... suffix when a
// file of that name already exists. Existing files are never replaced.
func writeNew(path, text string) (string, error) {
	stem := strings.TrimSuffix(path, ".txt")
	candidate := path
	for n := 2; ; n++ {
		f, err := os.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			if _, err := f.WriteString(text); err != nil {
				f.Close()
				return "", fmt.Errorf("writing %s: %w", candidate, err)
			}
			if err := f.Close(); err != nil {
				return "", fmt.Errorf("writing %s: %w", candidate, err)
			}
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) || n > maxVariants {
			return "", fmt.Errorf("creating %s: %w", candidate, err)
		}
		candidate = fmt.Sprintf("%s-%d.txt", stem, n)
	}
}

// OutputPath returns the raw output path for a model and time.
func OutputPath(dir string, id types.ModelID, ts time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.txt", id, ts.Format(TimestampLayout)))
}

// MaxTokens converts a word budget to the backend's token cap.
func MaxTokens(desiredLength int) int {
	return desiredLength * tokensPerWord
}

// Generate calls the model and writes its raw response byte-for-byte. A
// backend failure or a blank response fails with types.ErrBackend and writes
// nothing. Nothing is retried.
func (g *Generator) Generate(ctx context.Context, req types.GenerationRequest) (*types.GenerationResult, error) {
	logger := g.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := g.Now
	if now == nil {
		now = time.Now
	}

	b, err := g.Open(req.ModelID())
	if err != nil {
		return nil, fmt.Errorf("opening backend for %s: %w", req.ModelID(), err)
	}

	logger.Info("generating",
		zap.String("model", req.ModelID().String()),
		zap.Int("desired_length", req.DesiredLength()),
	)

	start := now()
	text, err := b.Generate(ctx, backend.Request{
		Prompt:    req.PromptText(),
		MaxTokens: MaxTokens(req.DesiredLength()),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", types.ErrBackend, req.ModelID(), err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s returned empty output", types.ErrBackend, req.ModelID())
	}

	if err := os.MkdirAll(g.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	ts := now()
	path, err := writeNew(OutputPath(g.OutputDir, req.ModelID(), ts), text)
	if err != nil {
		return nil, err
	}

	logger.Info("generation written",
		zap.String("path", path),
		zap.Int("bytes", len(text)),
		zap.Duration("elapsed", ts.Sub(start)),
	)

	return &types.GenerationResult{
		RawText:   text,
		ModelID:   req.ModelID(),
		Timestamp: ts,
		Path:      path,
	}, nil
}
