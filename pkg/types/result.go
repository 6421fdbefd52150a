// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the jalali-docx rewriter.
package types

import "time"

// FileStatus indicates the outcome of rewriting one document.
type FileStatus string

const (
	// StatusRewritten means at least one date was replaced and the output was written.
	StatusRewritten FileStatus = "rewritten"
	// StatusUnchanged means no date was found; the output was still written.
	StatusUnchanged FileStatus = "unchanged"
	// StatusSkipped means the document was not processed (output exists or input unchanged).
	StatusSkipped FileStatus = "skipped"
	// StatusFailed means the document could not be processed.
	StatusFailed FileStatus = "failed"
)

// Succeeded reports whether the status counts as a processed file.
func (s FileStatus) Succeeded() bool {
	return s == StatusRewritten || s == StatusUnchanged
}

// Replacement records one date token rewritten inside a document part.
type Replacement struct {
	// Part is the package part name (e.g. "word/document.xml").
	Part string `json:"part" yaml:"part"`

	// Original is the Jalali token as it appeared in the run.
	Original string `json:"original" yaml:"original"`

	// Converted is the Gregorian text that replaced it.
	Converted string `json:"converted" yaml:"converted"`
}

// InvalidToken records a date-shaped token that could not be converted and
// was left in place.
type InvalidToken struct {
	Part   string `json:"part" yaml:"part"`
	Token  string `json:"token" yaml:"token"`
	Reason string `json:"reason" yaml:"reason"`
}

// FileResult holds the outcome of processing a single document.
type FileResult struct {
	// Name is the base file name of the input.
	Name string `json:"name" yaml:"name"`

	// InputPath and OutputPath are the filesystem paths of the source and result.
	InputPath  string `json:"input_path" yaml:"input_path"`
	OutputPath string `json:"output_path,omitempty" yaml:"output_path,omitempty"`

	// InputHash is the hex BLAKE3 digest of the input file.
	InputHash string `json:"input_hash,omitempty" yaml:"input_hash,omitempty"`

	Status FileStatus `json:"status" yaml:"status"`

	// RunsVisited counts text runs inspected; RunsChanged counts runs whose text was replaced.
	RunsVisited int `json:"runs_visited" yaml:"runs_visited"`
	RunsChanged int `json:"runs_changed" yaml:"runs_changed"`

	Replacements []Replacement  `json:"replacements,omitempty" yaml:"replacements,omitempty"`
	Invalid      []InvalidToken `json:"invalid,omitempty" yaml:"invalid,omitempty"`

	// Error is the failure message for StatusFailed, or the skip reason for StatusSkipped.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// RunSummary describes one batch run as stored in the journal.
type RunSummary struct {
	ID         string    `json:"id" yaml:"id"`
	InputDir   string    `json:"input_dir" yaml:"input_dir"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Processed  int       `json:"processed" yaml:"processed"`
	Skipped    int       `json:"skipped" yaml:"skipped"`
	Failed     int       `json:"failed" yaml:"failed"`
}
