package config

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReadsEnvironment(t *testing.T) {
	base := t.TempDir()
	t.Setenv("RFQ_BASE_DIR", base)
	t.Setenv("RFQ_OUTPUT_DIR", filepath.Join(base, "out"))
	t.Setenv("RFQ_OUTPUT_NAME", "doc.xlsx")
	t.Setenv("RFQ_PAGES_BEFORE", "3")
	t.Setenv("RFQ_PAGES_AFTER", "not-a-number")
	t.Setenv("RFQ_YES_WORD", "Yes")
	t.Setenv("IMAP_SECURE", "off")
	t.Setenv("IMAP_MARK_SEEN", "maybe")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "rfq_mall.xlsx"), cfg.TemplatePath)
	assert.Equal(t, filepath.Join(base, "database_RFQ.xlsx"), cfg.TranslationPath)
	assert.Equal(t, filepath.Join(base, "out", "doc.xlsx"), cfg.OutputPath())
	assert.Equal(t, 3, cfg.PagesBefore)
	assert.Equal(t, 18, cfg.PagesAfter)
	assert.Equal(t, "Yes", cfg.YesWord)
	assert.Equal(t, "Nej", cfg.NoWord)
	assert.Equal(t, "fyll i manuellt", cfg.ManualFill)
	assert.False(t, cfg.IMAPSecure)
	assert.False(t, cfg.IMAPMarkSeen, "unparseable booleans fall back")
	assert.Equal(t, 993, cfg.IMAPPort)
}

func TestRequire(t *testing.T) {
	var cfg Config
	assert.Error(t, cfg.Require("RFQ_TEMPLATE_PATH", "  "))
	assert.NoError(t, cfg.Require("RFQ_TEMPLATE_PATH", "x.xlsx"))
}

func TestNewLoggerHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("warn", &buf)

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "key=value")
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
