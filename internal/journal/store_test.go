// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package journal

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/jalali-docx/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "state", "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	start := time.Date(2024, 4, 21, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return start }

	id, err := s.BeginRun(ctx, "/docs")
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err, "run ids are UUIDs")

	rewritten := types.FileResult{
		Name:        "a.docx",
		InputPath:   "/docs/a.docx",
		OutputPath:  "/docs/a_updated.docx",
		InputHash:   "abc",
		Status:      types.StatusRewritten,
		RunsVisited: 4,
		RunsChanged: 1,
		Replacements: []types.Replacement{
			{Part: "word/document.xml", Original: "1403/2/2", Converted: "Apr. 21, 2024"},
			{Part: "word/header1.xml", Original: "1403/1/1", Converted: "Mar. 20, 2024"},
		},
		Invalid: []types.InvalidToken{
			{Part: "word/document.xml", Token: "1403/13/40", Reason: "month 13 out of range [1, 12]"},
		},
	}
	failed := types.FileResult{
		Name:      "b.docx",
		InputPath: "/docs/b.docx",
		InputHash: "def",
		Status:    types.StatusFailed,
		Error:     "zip: not a valid zip file",
	}
	require.NoError(t, s.RecordFile(ctx, id, rewritten))
	require.NoError(t, s.RecordFile(ctx, id, failed))

	require.NoError(t, s.FinishRun(ctx, types.RunSummary{
		ID:         id,
		InputDir:   "/docs",
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
		Processed:  1,
		Failed:     1,
	}))

	runs, err := s.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, types.RunSummary{
		ID:         id,
		InputDir:   "/docs",
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
		Processed:  1,
		Failed:     1,
	}, runs[0])

	files, err := s.Files(ctx, id)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, rewritten, files[0])
	assert.Equal(t, failed, files[1])
}

func TestUnchanged(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	id, err := s.BeginRun(ctx, "docs")
	require.NoError(t, err)

	record := func(name, hash string, status types.FileStatus, invalid ...types.InvalidToken) {
		t.Helper()
		require.NoError(t, s.RecordFile(ctx, id, types.FileResult{
			Name: name, InputPath: "docs/" + name, OutputPath: "docs/" + strings.TrimSuffix(name, ".docx") + "_updated.docx",
			InputHash: hash, Status: status, Invalid: invalid,
		}))
	}
	record("a.docx", "h1", types.StatusUnchanged)
	record("b.docx", "h2", types.StatusFailed)
	record("c.docx", "h3", types.StatusSkipped)
	record("d.docx", "h4", types.StatusRewritten,
		types.InvalidToken{Part: "word/document.xml", Token: "1403/13/40", Reason: "month 13 out of range [1, 12]"})
	record("e.docx", "h5", types.StatusRewritten)

	tests := []struct {
		out, hash string
		want      bool
	}{
		{"docs/a_updated.docx", "h1", true},
		{"docs/a_updated.docx", "other", false},
		{"docs/b_updated.docx", "h2", false},
		{"docs/c_updated.docx", "h3", false},
		{"docs/d_updated.docx", "h4", false},
		{"docs/e_updated.docx", "h5", true},
		{"other/e_updated.docx", "h5", false},
		{"docs/e_gregorian.docx", "h5", false},
		{"docs/a_updated.docx", "", false},
	}
	for _, tt := range tests {
		got, err := s.Unchanged(ctx, tt.out, tt.hash)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s/%s", tt.out, tt.hash)
	}
}

func TestRunsNewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	base := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		s.now = func() time.Time { return at }
		id, err := s.BeginRun(ctx, "dir")
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := s.Runs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
	assert.True(t, runs[0].FinishedAt.IsZero(), "unfinished runs have no finish time")
}

func TestFinishUnknownRun(t *testing.T) {
	s := testStore(t)
	err := s.FinishRun(context.Background(), types.RunSummary{ID: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReopenKeepsHistory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	s, err := NewStore(path)
	require.NoError(t, err)
	id, err := s.BeginRun(ctx, ".")
	require.NoError(t, err)
	require.NoError(t, s.RecordFile(ctx, id, types.FileResult{Name: "a.docx", InputPath: "a.docx", OutputPath: "a_updated.docx", InputHash: "h", Status: types.StatusRewritten}))
	require.NoError(t, s.Close())

	s, err = NewStore(path)
	require.NoError(t, err)
	defer s.Close()
	ok, err := s.Unchanged(ctx, "a_updated.docx", "h")
	require.NoError(t, err)
	assert.True(t, ok)
}
