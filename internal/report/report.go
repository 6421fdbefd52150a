// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report exports the outcome of a batch run as YAML, JSON, or an
// Excel workbook.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/jalali-docx/pkg/types"
)

// Sheet names used in workbook reports.
const (
	FilesSheet        = "Files"
	ReplacementsSheet = "Replacements"
)

// Report is the exported form of a batch run.
type Report struct {
	Run     types.RunSummary   `json:"run" yaml:"run"`
	Aborted bool               `json:"aborted,omitempty" yaml:"aborted,omitempty"`
	Files   []types.FileResult `json:"files" yaml:"files"`
}

// Write encodes r into path. The format follows the extension: .yaml or
// .yml, .json, or .xlsx.
func Write(path string, r Report) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err := yaml.Marshal(&r)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return os.WriteFile(path, data, 0o644)
	case ".json":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		return os.WriteFile(path, append(data, '\n'), 0o644)
	case ".xlsx":
		return writeWorkbook(path, r)
	default:
		return fmt.Errorf("unsupported report format %q: use .yaml, .json, or .xlsx", ext)
	}
}

var (
	filesHeader = []any{"Name", "Status", "Runs visited", "Runs changed", "Replacements", "Invalid", "Output", "Input hash", "Error"}
	replHeader  = []any{"File", "Part", "Original", "Converted", "Invalid reason"}
)

func writeWorkbook(path string, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), FilesSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if _, err := f.NewSheet(ReplacementsSheet); err != nil {
		return fmt.Errorf("adding sheet: %w", err)
	}

	files := [][]any{filesHeader}
	repls := [][]any{replHeader}
	for _, fr := range r.Files {
		files = append(files, []any{
			fr.Name, string(fr.Status), fr.RunsVisited, fr.RunsChanged,
			len(fr.Replacements), len(fr.Invalid), fr.OutputPath, fr.InputHash, fr.Error,
		})
		for _, rp := range fr.Replacements {
			repls = append(repls, []any{fr.Name, rp.Part, rp.Original, rp.Converted, ""})
		}
		for _, inv := range fr.Invalid {
			repls = append(repls, []any{fr.Name, inv.Part, inv.Token, "", inv.Reason})
		}
	}

	if err := setRows(f, FilesSheet, files); err != nil {
		return err
	}
	if err := setRows(f, ReplacementsSheet, repls); err != nil {
		return err
	}
	if err := f.SetPanes(FilesSheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return nil
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
