// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// ErrorPolicy selects how the batch reacts to a file or date that cannot be converted.
type ErrorPolicy string

const (
	// PolicyAbort stops the whole batch at the first failure.
	PolicyAbort ErrorPolicy = "abort"
	// PolicySkipFile reports the failing file and continues with the next one.
	PolicySkipFile ErrorPolicy = "skip-file"
	// PolicySkipMatch leaves invalid date tokens untouched and reports them as warnings.
	// Unreadable documents are still skipped per file.
	PolicySkipMatch ErrorPolicy = "skip-match"
)

// ParseErrorPolicy converts a flag or config value into an ErrorPolicy.
// An empty value selects PolicySkipFile.
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch p := ErrorPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicySkipFile, nil
	case PolicyAbort, PolicySkipFile, PolicySkipMatch:
		return p, nil
	default:
		return "", fmt.Errorf("unknown error policy %q: use abort, skip-file, or skip-match", s)
	}
}

const (
	// DefaultExtension is the document extension processed when none is configured.
	DefaultExtension = ".docx"
	// DefaultSuffix is appended to the file stem of every output document.
	DefaultSuffix = "_updated"
)

// RewriteConfig holds settings for a batch rewrite run. It is built once per
// run and never mutated afterwards.
type RewriteConfig struct {
	// InputDir is the directory scanned for documents (default ".").
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// Extension selects which files are documents (default ".docx").
	Extension string `json:"extension" yaml:"extension"`

	// Suffix is inserted between the stem and the extension of output files (default "_updated").
	Suffix string `json:"suffix" yaml:"suffix"`

	// OnError selects the failure policy (default skip-file).
	OnError ErrorPolicy `json:"on_error" yaml:"on_error"`

	// SkipExisting leaves a document alone when its output file already exists.
	SkipExisting bool `json:"skip_existing" yaml:"skip_existing"`

	// JournalPath is the SQLite run journal. Empty disables the journal.
	JournalPath string `json:"journal_path,omitempty" yaml:"journal_path,omitempty"`

	// SkipUnchanged skips documents whose content hash was already processed
	// successfully according to the journal. Requires JournalPath.
	SkipUnchanged bool `json:"skip_unchanged" yaml:"skip_unchanged"`

	// ReportPath is where the batch report is written (.yaml, .json, or .xlsx).
	// Empty disables the report.
	ReportPath string `json:"report_path,omitempty" yaml:"report_path,omitempty"`
}

// WithDefaults returns a copy of c with empty fields set to their defaults.
func (c RewriteConfig) WithDefaults() RewriteConfig {
	if c.InputDir == "" {
		c.InputDir = "."
	}
	if c.Extension == "" {
		c.Extension = DefaultExtension
	}
	if !strings.HasPrefix(c.Extension, ".") {
		c.Extension = "." + c.Extension
	}
	if c.Suffix == "" {
		c.Suffix = DefaultSuffix
	}
	if c.OnError == "" {
		c.OnError = PolicySkipFile
	}
	return c
}

// Validate checks that the configuration is usable.
func (c RewriteConfig) Validate() error {
	if _, err := ParseErrorPolicy(string(c.OnError)); err != nil {
		return err
	}
	if c.SkipUnchanged && c.JournalPath == "" {
		return fmt.Errorf("skip-unchanged requires a journal path")
	}
	if strings.ContainsAny(c.Suffix, `/\`) {
		return fmt.Errorf("suffix %q must not contain path separators", c.Suffix)
	}
	return nil
}
