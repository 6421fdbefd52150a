// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/jalali-docx/pkg/types"
)

func sampleReport() Report {
	started := time.Date(2024, 4, 21, 9, 0, 0, 0, time.UTC)
	return Report{
		Run: types.RunSummary{
			ID:         "7b0c",
			InputDir:   "docs",
			StartedAt:  started,
			FinishedAt: started.Add(time.Second),
			Processed:  1,
			Failed:     1,
		},
		Files: []types.FileResult{
			{
				Name:        "minutes.docx",
				InputPath:   "docs/minutes.docx",
				OutputPath:  "docs/minutes_updated.docx",
				Status:      types.StatusRewritten,
				RunsVisited: 3,
				RunsChanged: 1,
				Replacements: []types.Replacement{
					{Part: "word/document.xml", Original: "1403/2/2", Converted: "Apr. 21, 2024"},
				},
				Invalid: []types.InvalidToken{
					{Part: "word/footnotes.xml", Token: "1403/13/40", Reason: "month 13 out of range [1, 12]"},
				},
			},
			{
				Name:      "broken.docx",
				InputPath: "docs/broken.docx",
				Status:    types.StatusFailed,
				Error:     "zip: not a valid zip file",
			},
		},
	}
}

func TestWriteYAML(t *testing.T) {
	for _, ext := range []string{".yaml", ".YML"} {
		path := filepath.Join(t.TempDir(), "report"+ext)
		require.NoError(t, Write(path, sampleReport()))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var got Report
		require.NoError(t, yaml.Unmarshal(data, &got))
		assert.Equal(t, sampleReport(), got)
		assert.Contains(t, string(data), "converted: Apr. 21, 2024")
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, Write(path, sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Report
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, sampleReport(), got)
	assert.Contains(t, string(data), "\n  \"run\": {")
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, Write(path, sampleReport()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{FilesSheet, ReplacementsSheet}, f.GetSheetList())

	files, err := f.GetRows(FilesSheet)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "Name", files[0][0])
	assert.Equal(t, []string{"minutes.docx", "rewritten", "3", "1", "1", "1", "docs/minutes_updated.docx"}, files[1])
	assert.Equal(t, "failed", files[2][1])
	assert.Equal(t, "zip: not a valid zip file", files[2][8])

	repls, err := f.GetRows(ReplacementsSheet)
	require.NoError(t, err)
	require.Len(t, repls, 3)
	assert.Equal(t, []string{"minutes.docx", "word/document.xml", "1403/2/2", "Apr. 21, 2024"}, repls[1])
	assert.Equal(t, []string{"minutes.docx", "word/footnotes.xml", "1403/13/40", "", "month 13 out of range [1, 12]"}, repls[2])
}

func TestWriteUnsupportedFormat(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "report.csv"), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `".csv"`)
}
