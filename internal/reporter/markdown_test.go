package reporter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aleister1102/jsenum/internal/config"
	"github.com/aleister1102/jsenum/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStats() models.CrawlStats {
	return models.CrawlStats{
		RunID:            "20261018-101500",
		SeedURL:          "https://example.com/",
		AssetsDiscovered: 12,
		AssetsFetched:    10,
		AssetsFailed:     2,
		FindingsCount:    2,
		StartedAt:        time.Date(2026, 10, 18, 10, 15, 0, 0, time.UTC),
		Duration:         2 * time.Second,
	}
}

func sampleFindings() []models.Finding {
	return []models.Finding{
		{ServiceName: "OpenAI Key", SecretValue: "sk-one", SourceURL: "https://example.com/a.js", LineNumber: 4, ContextLine: "a | b"},
		{ServiceName: "Any AIza key", SecretValue: "AIzaSyX", SourceURL: "https://example.com/b.js", LineNumber: 1, ContextLine: "x"},
	}
}

func TestMarkdownReporter_Write(t *testing.T) {
	r := NewMarkdownReporter(config.NewDefaultReporterConfig(), zerolog.Nop())

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf, sampleStats(), sampleFindings()))

	out := buf.String()
	assert.Contains(t, out, "# "+config.DefaultReporterTitle)
	assert.Contains(t, out, "`https://example.com/`")
	assert.Contains(t, out, "20261018-101500")
	assert.Contains(t, out, "## Findings")
	assert.Contains(t, out, "### Any AIza key (1)")
	assert.Contains(t, out, "### OpenAI Key (1)")
	assert.Contains(t, out, "https://example.com/a.js:4")
	assert.Contains(t, out, `a \| b`)
	assert.Contains(t, out, "2 potential secret(s)")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Any AIza key")), bytes.Index(buf.Bytes(), []byte("OpenAI Key")))
}

func TestMarkdownReporter_NoFindings(t *testing.T) {
	r := NewMarkdownReporter(config.ReporterConfig{}, zerolog.Nop())

	var buf bytes.Buffer
	stats := sampleStats()
	stats.Interrupted = true
	require.NoError(t, r.Write(&buf, stats, nil))

	out := buf.String()
	assert.Contains(t, out, "# "+config.DefaultReporterTitle)
	assert.Contains(t, out, "No findings.")
	assert.Contains(t, out, "Interrupted")
}

func TestMarkdownReporter_GenerateReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reports", "run.md")

	r := NewMarkdownReporter(config.NewDefaultReporterConfig(), zerolog.Nop())
	written, err := r.GenerateReport(path, sampleStats(), sampleFindings())
	require.NoError(t, err)
	assert.True(t, written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "OpenAI Key")
}

func TestMarkdownReporter_SkipsEmptyReportWhenDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.md")

	cfg := config.NewDefaultReporterConfig()
	cfg.GenerateEmptyReport = false
	written, err := NewMarkdownReporter(cfg, zerolog.Nop()).GenerateReport(path, sampleStats(), nil)
	require.NoError(t, err)
	assert.False(t, written)
	assert.NoFileExists(t, path)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}
