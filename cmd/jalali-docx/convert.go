// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/jalali-docx/internal/batch"
	"github.com/pdiddy/jalali-docx/internal/jalali"
	"github.com/pdiddy/jalali-docx/internal/journal"
	"github.com/pdiddy/jalali-docx/internal/report"
	"github.com/pdiddy/jalali-docx/internal/rewrite"
	"github.com/pdiddy/jalali-docx/pkg/logger"
	"github.com/pdiddy/jalali-docx/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [dir]",
	Short: "Rewrite Jalali dates in every document of a directory",
	Long: `Convert processes every document with the configured extension in dir
(default: the current directory). Each Jalali date in the body, tables,
headers, footers, footnotes, endnotes, and comments is replaced with its
Gregorian form, and the result is saved as <name>_updated.docx. Originals are
never modified.

The --on-error policy decides what happens when a date is invalid or a
document cannot be read: abort stops the batch, skip-file (default) reports
the document and continues, skip-match leaves invalid dates in place.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("ext", types.DefaultExtension, "document extension to process")
	convertCmd.Flags().String("suffix", types.DefaultSuffix, "suffix inserted before the extension of output files")
	convertCmd.Flags().String("on-error", string(types.PolicySkipFile), "error policy: abort, skip-file, or skip-match")
	convertCmd.Flags().Bool("skip-existing", false, "leave documents alone when their output already exists")
	convertCmd.Flags().String("journal", "", "SQLite run journal path (disabled when empty)")
	convertCmd.Flags().Bool("skip-unchanged", false, "skip documents the journal shows were already converted with the same content")
	convertCmd.Flags().String("report", "", "write a batch report (.yaml, .json, or .xlsx)")

	viper.BindPFlag("extension", convertCmd.Flags().Lookup("ext"))
	viper.BindPFlag("suffix", convertCmd.Flags().Lookup("suffix"))
	viper.BindPFlag("on_error", convertCmd.Flags().Lookup("on-error"))
	viper.BindPFlag("skip_existing", convertCmd.Flags().Lookup("skip-existing"))
	viper.BindPFlag("journal_path", convertCmd.Flags().Lookup("journal"))
	viper.BindPFlag("skip_unchanged", convertCmd.Flags().Lookup("skip-unchanged"))
	viper.BindPFlag("report_path", convertCmd.Flags().Lookup("report"))

	rootCmd.AddCommand(convertCmd)
}

// rewriteConfig assembles the batch configuration from flags, environment,
// and config file. A directory argument overrides input_dir.
func rewriteConfig(args []string) (types.RewriteConfig, error) {
	policy, err := types.ParseErrorPolicy(viper.GetString("on_error"))
	if err != nil {
		return types.RewriteConfig{}, err
	}
	cfg := types.RewriteConfig{
		InputDir:      viper.GetString("input_dir"),
		Extension:     viper.GetString("extension"),
		Suffix:        viper.GetString("suffix"),
		OnError:       policy,
		SkipExisting:  viper.GetBool("skip_existing"),
		JournalPath:   viper.GetString("journal_path"),
		SkipUnchanged: viper.GetBool("skip_unchanged"),
		ReportPath:    viper.GetString("report_path"),
	}
	if len(args) == 1 {
		cfg.InputDir = args[0]
	}
	cfg = cfg.WithDefaults()
	return cfg, cfg.Validate()
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := rewriteConfig(args)
	if err != nil {
		return err
	}

	var jr batch.Journal
	if cfg.JournalPath != "" {
		store, err := journal.NewStore(cfg.JournalPath)
		if err != nil {
			return fmt.Errorf("opening journal %s: %w", cfg.JournalPath, err)
		}
		defer store.Close()
		jr = store
	}

	rw := rewrite.New(jalali.Replacer{Lenient: cfg.OnError == types.PolicySkipMatch})
	driver := batch.NewDriver(cfg, rw, cmd.OutOrStdout(), jr)
	res, runErr := driver.Run(cmd.Context())

	if cfg.ReportPath != "" {
		rep := report.Report{Run: res.Summary, Aborted: res.Aborted, Files: res.Files}
		if err := report.Write(cfg.ReportPath, rep); err != nil {
			logger.Error("writing report", "path", cfg.ReportPath, "error", err)
			if runErr == nil {
				return fmt.Errorf("writing report: %w", err)
			}
		} else {
			logger.Info("report written", "path", cfg.ReportPath)
		}
	}

	if runErr != nil {
		return runErr
	}
	if res.HasFailures() {
		return fmt.Errorf("%d of %d file(s) failed", res.Summary.Failed, res.Total())
	}
	return nil
}
