// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch drives the rewriter over every document in a directory,
// applying the configured error policy and recording outcomes in an optional
// run journal.
package batch

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/pdiddy/jalali-docx/internal/rewrite"
	"github.com/pdiddy/jalali-docx/pkg/logger"
	"github.com/pdiddy/jalali-docx/pkg/types"
)

// lockPrefix marks the owner files Word leaves next to open documents.
const lockPrefix = "~$"

// Rewriter transforms one document into a new file. rewrite.Rewriter
// implements it.
type Rewriter interface {
	// Rewrite reads inputPath and writes the converted document to outputPath.
	Rewrite(inputPath, outputPath string) (types.FileResult, error)
}

// Journal persists run history. journal.Store implements it.
type Journal interface {
	BeginRun(ctx context.Context, inputDir string) (string, error)
	// Unchanged reports whether an earlier run already rewrote input with
	// this content hash into outputPath without leaving invalid dates.
	Unchanged(ctx context.Context, outputPath, hash string) (bool, error)
	RecordFile(ctx context.Context, runID string, res types.FileResult) error
	FinishRun(ctx context.Context, summary types.RunSummary) error
}

// Result holds the outcome of a batch run.
type Result struct {
	Summary types.RunSummary
	Files   []types.FileResult

	// Aborted is set when the abort policy stopped the batch early.
	Aborted bool
}

// Total returns the number of documents the batch looked at.
func (r Result) Total() int {
	return r.Summary.Processed + r.Summary.Skipped + r.Summary.Failed
}

// HasFailures reports whether any document failed.
func (r Result) HasFailures() bool {
	return r.Summary.Failed > 0
}

// Driver runs one batch. Create it with NewDriver.
type Driver struct {
	cfg     types.RewriteConfig
	rw      Rewriter
	w       io.Writer
	journal Journal
	now     func() time.Time
}

// NewDriver creates a Driver for cfg. Console lines go to w. journal may be
// nil, in which case nothing is recorded and skip-unchanged never matches.
func NewDriver(cfg types.RewriteConfig, rw Rewriter, w io.Writer, journal Journal) *Driver {
	return &Driver{
		cfg:     cfg.WithDefaults(),
		rw:      rw,
		w:       w,
		journal: journal,
		now:     time.Now,
	}
}

// Config returns the effective configuration, defaults applied.
func (d *Driver) Config() types.RewriteConfig { return d.cfg }

// Discover lists the documents in the input directory, sorted by name.
// Matching is on the configured extension, case-insensitively. Word lock
// files and files that already carry the output suffix are left out.
func (d *Driver) Discover() ([]string, error) {
	entries, err := os.ReadDir(d.cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory %s: %w", d.cfg.InputDir, err)
	}

	ext := strings.ToLower(d.cfg.Extension)
	ownSuffix := strings.ToLower(d.cfg.Suffix) + ext

	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		lower := strings.ToLower(name)
		if !strings.HasSuffix(lower, ext) || strings.HasPrefix(name, lockPrefix) {
			continue
		}
		if strings.HasSuffix(lower, ownSuffix) {
			continue
		}
		paths = append(paths, filepath.Join(d.cfg.InputDir, name))
	}
	sort.Strings(paths)
	return paths, nil
}

// Run processes every discovered document in order. The returned error is
// non-nil when discovery fails, the context is cancelled, or the abort
// policy stops the batch; Result then reflects the files handled so far.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	res := Result{Summary: types.RunSummary{
		InputDir:  d.cfg.InputDir,
		StartedAt: d.now().UTC(),
	}}

	paths, err := d.Discover()
	if err != nil {
		return res, err
	}
	logger.Info("batch started", "dir", d.cfg.InputDir, "documents", len(paths), "policy", string(d.cfg.OnError))

	if d.journal != nil {
		id, err := d.journal.BeginRun(ctx, d.cfg.InputDir)
		if err != nil {
			return res, fmt.Errorf("starting journal run: %w", err)
		}
		res.Summary.ID = id
	}

	runErr := d.process(ctx, paths, &res)

	res.Summary.FinishedAt = d.now().UTC()
	if d.journal != nil {
		// The run is closed out even when cancelled, so it uses a fresh context.
		if err := d.journal.FinishRun(context.WithoutCancel(ctx), res.Summary); err != nil {
			logger.Error("finishing journal run", "run", res.Summary.ID, "error", err)
			if runErr == nil {
				runErr = fmt.Errorf("finishing journal run: %w", err)
			}
		}
	}
	if runErr != nil {
		return res, runErr
	}

	fmt.Fprintf(d.w, "Processing complete! %d file(s) processed.\n", res.Summary.Processed)
	if res.Summary.Skipped > 0 || res.Summary.Failed > 0 {
		fmt.Fprintf(d.w, "Batch summary: %d processed, %d skipped, %d failed (total: %d)\n",
			res.Summary.Processed, res.Summary.Skipped, res.Summary.Failed, res.Total())
	}
	logger.Info("batch finished",
		"processed", res.Summary.Processed,
		"skipped", res.Summary.Skipped,
		"failed", res.Summary.Failed,
		"elapsed", res.Summary.FinishedAt.Sub(res.Summary.StartedAt).String())
	return res, nil
}

func (d *Driver) process(ctx context.Context, paths []string, res *Result) error {
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			logger.Warn("batch cancelled", "remaining", len(paths)-len(res.Files))
			return err
		}

		fr, err := d.processFile(ctx, path)
		res.Files = append(res.Files, fr)
		switch {
		case fr.Status.Succeeded():
			res.Summary.Processed++
		case fr.Status == types.StatusSkipped:
			res.Summary.Skipped++
		default:
			res.Summary.Failed++
		}

		if d.journal != nil {
			if jerr := d.journal.RecordFile(ctx, res.Summary.ID, fr); jerr != nil {
				logger.Error("recording file", "file", fr.Name, "error", jerr)
			}
		}

		if err != nil {
			if d.cfg.OnError == types.PolicyAbort {
				res.Aborted = true
				return err
			}
			fmt.Fprintf(d.w, "failed: %s (%v)\n", fr.Name, err)
			logger.Error("document failed", "file", fr.Name, "error", err)
		}
	}
	return nil
}

// processFile handles one document. A non-nil error always comes with a
// result whose status is failed.
func (d *Driver) processFile(ctx context.Context, path string) (types.FileResult, error) {
	name := filepath.Base(path)
	out := rewrite.OutputPath(path, d.cfg.Suffix)
	fmt.Fprintf(d.w, "Processing %s...\n", name)

	fr := types.FileResult{Name: name, InputPath: path, Status: types.StatusFailed}
	hash, err := hashFile(path)
	if err != nil {
		fr.Error = err.Error()
		return fr, fmt.Errorf("%s: %w", name, err)
	}
	fr.InputHash = hash

	if reason, skip, err := d.skipReason(ctx, hash, out); err != nil {
		fr.Error = err.Error()
		return fr, fmt.Errorf("%s: %w", name, err)
	} else if skip {
		fr.Status = types.StatusSkipped
		fr.OutputPath = out
		fr.Error = reason
		fmt.Fprintf(d.w, "skipped: %s (%s)\n", name, reason)
		logger.Debug("document skipped", "file", name, "reason", reason)
		return fr, nil
	}

	start := d.now()
	rewritten, err := d.rw.Rewrite(path, out)
	rewritten.Name = name
	rewritten.InputPath = path
	rewritten.InputHash = hash
	if err != nil {
		rewritten.Status = types.StatusFailed
		rewritten.Error = err.Error()
		return rewritten, fmt.Errorf("%s: %w", name, err)
	}

	for _, inv := range rewritten.Invalid {
		logger.Warn("invalid date left in place", "file", name, "part", inv.Part, "token", inv.Token, "reason", inv.Reason)
	}
	logger.Debug("document rewritten",
		"file", name,
		"status", string(rewritten.Status),
		"replacements", len(rewritten.Replacements),
		"runs", rewritten.RunsVisited,
		"elapsed", d.now().Sub(start).String())
	return rewritten, nil
}

// skipReason decides whether a document can be left alone. The unchanged
// check needs both a journal hit and the earlier output still on disk.
func (d *Driver) skipReason(ctx context.Context, hash, out string) (string, bool, error) {
	outExists := fileExists(out)
	if d.cfg.SkipUnchanged && d.journal != nil && outExists {
		seen, err := d.journal.Unchanged(ctx, out, hash)
		if err != nil {
			return "", false, fmt.Errorf("checking journal: %w", err)
		}
		if seen {
			return "unchanged", true, nil
		}
	}
	if d.cfg.SkipExisting && outExists {
		return "output exists", true, nil
	}
	return "", false, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// hashFile returns the hex BLAKE3 digest of the file at path.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening: %w", err)
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
