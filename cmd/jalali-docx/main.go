// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the jalali-docx CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/jalali-docx/pkg/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// configName is the config file base name, searched for in the working
// directory and in ~/.config/jalali-docx.
const configName = "jalali-docx"

// rootCmd is the base command for the jalali-docx CLI.
var rootCmd = &cobra.Command{
	Use:   "jalali-docx",
	Short: "Rewrite Jalali dates in Word documents as Gregorian dates",
	Long: `jalali-docx finds Jalali (Solar Hijri) dates written as YYYY/M/D inside .docx
documents and replaces them with their Gregorian equivalent, for example
1403/2/2 becomes "Apr. 21, 2024". Formatting is preserved run by run, and
every document is written to a new file next to the original.

Use convert to process a directory, date to try conversions on plain text,
and history to inspect the run journal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Init(viper.GetString("log_level"), viper.GetString("log_format"))
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug("using config file", "path", f)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", fmt.Sprintf("config file (default: ./%[1]s.yaml or ~/.config/%[1]s/%[1]s.yaml)", configName))
	rootCmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().String("log-format", "console", "log format: console or json")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindEnv("log_level", "JALALI_DOCX_LOG_LEVEL", "LOG_LEVEL")
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: reading .env:", err)
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", configName))
		}
	}

	viper.SetEnvPrefix("JALALI_DOCX")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "warning: reading config:", err)
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
