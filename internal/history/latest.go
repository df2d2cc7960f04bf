// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/novel-engine/pkg/types"
)

// LatestFile returns the most recently modified regular file in dir whose
// name satisfies match. It returns ErrNoRuns when nothing matches.
func LatestFile(dir string, match func(name string) bool) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", dir, err)
	}

	var (
		best    string
		bestMod time.Time
	)
	for _, e := range entries {
		if !e.Type().IsRegular() || !match(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		// Ties go to the lexically later name, which for timestamped names is newer.
		if best == "" || info.ModTime().After(bestMod) ||
			(info.ModTime().Equal(bestMod) && e.Name() > filepath.Base(best)) {
			best = filepath.Join(dir, e.Name())
			bestMod = info.ModTime()
		}
	}

	if best == "" {
		return "", fmt.Errorf("no matching files in %s: %w", dir, ErrNoRuns)
	}
	return best, nil
}

// Resolve finds the default input for the stage that consumes stage's
// output: the latest recorded run whose output still exists, otherwise the
// newest matching file in dir. store may be nil.
func Resolve(ctx context.Context, store *Store, stage types.Stage, dir string, match func(name string) bool) (string, error) {
	if store != nil {
		run, err := store.Latest(ctx, stage)
		switch {
		case err == nil:
			if _, statErr := os.Stat(run.Path); statErr == nil {
				return run.Path, nil
			}
		case !errors.Is(err, ErrNoRuns):
			return "", err
		}
	}
	return LatestFile(dir, match)
}
