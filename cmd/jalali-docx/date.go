// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/jalali-docx/internal/jalali"
	"github.com/pdiddy/jalali-docx/pkg/logger"
)

var dateCmd = &cobra.Command{
	Use:   "date [text...]",
	Short: "Convert Jalali dates in text",
	Long: `Date replaces every Jalali date in its arguments with the Gregorian form and
prints the result. Without arguments it reads standard input line by line.

  jalali-docx date "Meeting on 1403/2/2"
  Meeting on Apr. 21, 2024`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lenient, _ := cmd.Flags().GetBool("lenient")
		r := jalali.Replacer{Lenient: lenient}
		out := cmd.OutOrStdout()

		if len(args) > 0 {
			line, err := replaceLine(r, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(out, line)
			return nil
		}

		sc := bufio.NewScanner(cmd.InOrStdin())
		for n := 1; sc.Scan(); n++ {
			line, err := replaceLine(r, sc.Text())
			if err != nil {
				return fmt.Errorf("line %d: %w", n, err)
			}
			fmt.Fprintln(out, line)
		}
		return sc.Err()
	},
}

func init() {
	dateCmd.Flags().Bool("lenient", false, "leave invalid dates unchanged instead of failing")
	rootCmd.AddCommand(dateCmd)
}

func replaceLine(r jalali.Replacer, text string) (string, error) {
	out, matches, err := r.Replace(text)
	if err != nil {
		return "", err
	}
	for _, m := range matches {
		if m.Err != nil {
			logger.Warn("invalid date left in place", "token", m.Token, "error", m.Err)
		}
	}
	return out, nil
}
