// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rewrite walks every text run of a .docx document, replaces Jalali
// date tokens with their Gregorian form, and writes the result to a new file.
package rewrite

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/pdiddy/jalali-docx/internal/docx"
	"github.com/pdiddy/jalali-docx/internal/jalali"
	"github.com/pdiddy/jalali-docx/pkg/logger"
	"github.com/pdiddy/jalali-docx/pkg/types"
)

// OutputPath derives the output file name by inserting suffix before the
// trailing extension: "dir/report.docx" becomes "dir/report_updated.docx".
func OutputPath(inputPath, suffix string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + suffix + ext
}

// Rewriter applies a date Replacer to documents.
type Rewriter struct {
	replacer jalali.Replacer
}

// New creates a Rewriter. A strict replacer fails the document on the first
// invalid date; a lenient one leaves invalid tokens in place and reports them.
func New(r jalali.Replacer) *Rewriter {
	return &Rewriter{replacer: r}
}

// Rewrite loads the document at inputPath, rewrites its dates, and saves it
// to outputPath. The input file is never modified. The returned result is
// filled in as far as processing got, even on error.
func (rw *Rewriter) Rewrite(inputPath, outputPath string) (types.FileResult, error) {
	res := types.FileResult{
		Name:      filepath.Base(inputPath),
		InputPath: inputPath,
		Status:    types.StatusFailed,
	}

	if info, err := os.Stat(inputPath); err == nil {
		logger.Debug("loading document", "file", res.Name, "size", humanize.Bytes(uint64(info.Size())))
	}

	doc, err := docx.Open(inputPath)
	if err != nil {
		return res, fmt.Errorf("opening %s: %w", res.Name, err)
	}

	if err := rw.Apply(doc, &res); err != nil {
		return res, err
	}

	if err := doc.Save(outputPath); err != nil {
		return res, fmt.Errorf("saving %s: %w", outputPath, err)
	}
	res.OutputPath = outputPath
	res.Status = types.StatusUnchanged
	if res.RunsChanged > 0 {
		res.Status = types.StatusRewritten
	}
	return res, nil
}

// Apply rewrites every run of doc in memory, accumulating counts and
// replacements into res. Containers are visited in this order: body
// paragraphs and tables, each section's headers then footers, footnotes,
// endnotes, comments. A part shared by several sections is visited once.
func (rw *Rewriter) Apply(doc *docx.Document, res *types.FileResult) error {
	w := walker{replacer: rw.replacer, res: res, seen: make(map[string]bool)}

	if err := w.container(doc.Body()); err != nil {
		return err
	}
	for _, s := range doc.Sections() {
		for _, c := range s.Headers {
			if err := w.part(c); err != nil {
				return err
			}
		}
		for _, c := range s.Footers {
			if err := w.part(c); err != nil {
				return err
			}
		}
	}
	if c, ok := doc.Footnotes(); ok {
		if err := w.part(c); err != nil {
			return err
		}
	}
	if c, ok := doc.Endnotes(); ok {
		if err := w.part(c); err != nil {
			return err
		}
	}
	if c, ok := doc.Comments(); ok {
		if err := w.part(c); err != nil {
			return err
		}
	}
	return nil
}

type walker struct {
	replacer jalali.Replacer
	res      *types.FileResult
	seen     map[string]bool
}

// part walks a container that spans a whole part, once per part.
func (w *walker) part(c *docx.Container) error {
	if w.seen[c.Part()] {
		return nil
	}
	w.seen[c.Part()] = true
	return w.container(c)
}

func (w *walker) container(c *docx.Container) error {
	for _, p := range c.Paragraphs() {
		if err := w.paragraph(p); err != nil {
			return err
		}
	}
	for _, t := range c.Tables() {
		for _, row := range t.Rows() {
			for _, cell := range row.Cells() {
				if err := w.container(cell); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (w *walker) paragraph(p *docx.Paragraph) error {
	for _, r := range p.Runs() {
		if err := w.run(r); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) run(r *docx.Run) error {
	w.res.RunsVisited++
	original := r.Text()
	updated, matches, err := w.replacer.Replace(original)
	if err != nil {
		return fmt.Errorf("%s: %w", r.Part(), err)
	}

	for _, m := range matches {
		if m.Err != nil {
			w.res.Invalid = append(w.res.Invalid, types.InvalidToken{
				Part:   r.Part(),
				Token:  m.Token,
				Reason: m.Err.Error(),
			})
			continue
		}
		w.res.Replacements = append(w.res.Replacements, types.Replacement{
			Part:      r.Part(),
			Original:  m.Token,
			Converted: m.Converted,
		})
	}

	if updated != original {
		r.SetText(updated)
		w.res.RunsChanged++
	}
	return nil
}
