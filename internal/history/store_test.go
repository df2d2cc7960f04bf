// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/novel-engine/pkg/types"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, dir
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	_, dir := newTestStore(t)
	_, err := os.Stat(filepath.Join(dir, DBFile))
	assert.NoError(t, err)
}

func TestRecord_FillsIDAndTime(t *testing.T) {
	s, _ := newTestStore(t)
	fixed := time.Date(2026, 10, 19, 8, 30, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	run, err := s.Record(context.Background(), types.Run{
		Stage: types.StageGenerate,
		Model: "mn-violet-lotus-12b",
		Path:  "novel_output/mn-violet-lotus-12b_20261019-083005.txt",
		Bytes: 31,
	})
	require.NoError(t, err)

	_, err = uuid.Parse(run.ID)
	assert.NoError(t, err)
	assert.Equal(t, fixed, run.CreatedAt)

	got, err := s.Latest(context.Background(), types.StageGenerate)
	require.NoError(t, err)
	assert.Equal(t, run, got)
}

func TestLatest_NewestOfStage(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	records := []types.Run{
		{Stage: types.StageGenerate, Path: "a.txt", CreatedAt: base},
		{Stage: types.StageGenerate, Path: "b.txt", CreatedAt: base.Add(time.Minute)},
		{Stage: types.StageExtract, Path: "b_final.txt", CreatedAt: base.Add(2 * time.Minute)},
		{Stage: types.StageGenerate, Path: "c.txt", CreatedAt: base.Add(1500 * time.Millisecond)},
	}
	for _, r := range records {
		_, err := s.Record(ctx, r)
		require.NoError(t, err)
	}

	got, err := s.Latest(ctx, types.StageGenerate)
	require.NoError(t, err)
	assert.Equal(t, "b.txt", got.Path)

	got, err = s.Latest(ctx, types.StageExtract)
	require.NoError(t, err)
	assert.Equal(t, "b_final.txt", got.Path)
}

func TestLatest_SameTimestampUsesInsertOrder(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	for _, p := range []string{"first.pdf", "second.pdf"} {
		_, err := s.Record(ctx, types.Run{Stage: types.StagePublish, Path: p, CreatedAt: at})
		require.NoError(t, err)
	}

	got, err := s.Latest(ctx, types.StagePublish)
	require.NoError(t, err)
	assert.Equal(t, "second.pdf", got.Path)
}

func TestLatest_NoRuns(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Latest(context.Background(), types.StagePublish)
	assert.ErrorIs(t, err, ErrNoRuns)
}

func TestList(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	for i, stage := range []types.Stage{types.StageGenerate, types.StageExtract, types.StagePublish} {
		_, err := s.Record(ctx, types.Run{
			Stage:     stage,
			Path:      string(stage) + ".out",
			Source:    "in",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	all, err := s.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, types.StagePublish, all[0].Stage)
	assert.Equal(t, types.StageGenerate, all[2].Stage)
	assert.Equal(t, "in", all[0].Source)

	limited, err := s.List(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	extracts, err := s.List(ctx, types.StageExtract, 10)
	require.NoError(t, err)
	require.Len(t, extracts, 1)
	assert.Equal(t, "extract.out", extracts[0].Path)
}

func TestStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)
	_, err = s.Record(context.Background(), types.Run{Stage: types.StageWrite, Path: "final_novel.json"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewStore(dir)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Latest(context.Background(), types.StageWrite)
	require.NoError(t, err)
	assert.Equal(t, "final_novel.json", got.Path)
}

// --- file fallback ---

func writeFile(t *testing.T, path string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestLatestFile(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	writeFile(t, filepath.Join(dir, "old.txt"), base)
	writeFile(t, filepath.Join(dir, "new.txt"), base.Add(time.Hour))
	writeFile(t, filepath.Join(dir, "newest_final.txt"), base.Add(2*time.Hour))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755))

	raw := func(name string) bool {
		return strings.HasSuffix(name, ".txt") && !strings.HasSuffix(name, "_final.txt")
	}
	got, err := LatestFile(dir, raw)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "new.txt"), got)

	_, err = LatestFile(dir, func(string) bool { return false })
	assert.ErrorIs(t, err, ErrNoRuns)
}

func TestResolve(t *testing.T) {
	s, dir := newTestStore(t)
	ctx := context.Background()
	txt := func(name string) bool { return strings.HasSuffix(name, ".txt") }

	onDisk := filepath.Join(dir, "scanned.txt")
	writeFile(t, onDisk, time.Now())

	// No history: fall back to the directory scan.
	got, err := Resolve(ctx, s, types.StageGenerate, dir, txt)
	require.NoError(t, err)
	assert.Equal(t, onDisk, got)

	// Recorded output that still exists wins.
	recorded := filepath.Join(dir, "recorded.txt")
	writeFile(t, recorded, time.Now().Add(-time.Hour))
	_, err = s.Record(ctx, types.Run{Stage: types.StageGenerate, Path: recorded})
	require.NoError(t, err)

	got, err = Resolve(ctx, s, types.StageGenerate, dir, txt)
	require.NoError(t, err)
	assert.Equal(t, recorded, got)

	// Recorded output that was removed falls back again.
	require.NoError(t, os.Remove(recorded))
	got, err = Resolve(ctx, s, types.StageGenerate, dir, txt)
	require.NoError(t, err)
	assert.Equal(t, onDisk, got)

	// Nil store scans.
	got, err = Resolve(ctx, nil, types.StageGenerate, dir, txt)
	require.NoError(t, err)
	assert.Equal(t, onDisk, got)
}
