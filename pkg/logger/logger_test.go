// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaultLoggerIsSafe(t *testing.T) {
	Set(nil)
	assert.NotPanics(t, func() {
		Debug("debug", "k", 1)
		Info("info")
		Warn("warn")
		Error("error")
		Sync()
	})
}

func TestSetRoutesEntries(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(nil) })

	Debug("hidden")
	Info("processing", "file", "a.docx")
	Warn("invalid date", "token", "1403/13/40")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "processing", entries[0].Message)
	assert.Equal(t, "a.docx", entries[0].ContextMap()["file"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestInitLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus", ""} {
		t.Run(level, func(t *testing.T) {
			assert.NotPanics(t, func() {
				Init(level, "json")
				Info("hello")
			})
		})
	}
	Set(nil)
}
