package reporter

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aleister1102/jsenum/internal/common/errorwrapper"
	"github.com/aleister1102/jsenum/internal/config"
	"github.com/aleister1102/jsenum/internal/models"
	"github.com/nao1215/markdown"
	"github.com/rs/zerolog"
)

// MarkdownReporter renders the end-of-run report.
type MarkdownReporter struct {
	config config.ReporterConfig
	logger zerolog.Logger
}

// NewMarkdownReporter creates a MarkdownReporter.
func NewMarkdownReporter(cfg config.ReporterConfig, logger zerolog.Logger) *MarkdownReporter {
	if cfg.ReportTitle == "" {
		cfg.ReportTitle = config.DefaultReporterTitle
	}
	return &MarkdownReporter{
		config: cfg,
		logger: logger.With().Str("module", "MarkdownReporter").Logger(),
	}
}

// GenerateReport writes the report to path. It returns false when the run
// had no findings and empty reports are disabled.
func (r *MarkdownReporter) GenerateReport(path string, stats models.CrawlStats, findings []models.Finding) (bool, error) {
	if len(findings) == 0 && !r.config.GenerateEmptyReport {
		r.logger.Info().Msg("No findings, skipping report")
		return false, nil
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, DirPermissions); err != nil {
			return false, errorwrapper.WrapError(err, "failed to create report directory: "+dir)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, FilePermissions)
	if err != nil {
		return false, errorwrapper.WrapError(err, "failed to create report file: "+path)
	}
	defer file.Close()

	if err := r.Write(file, stats, findings); err != nil {
		return false, err
	}

	r.logger.Info().Str("path", path).Int("findings", len(findings)).Msg("Report written")
	return true, nil
}

// Write renders the report to w.
func (r *MarkdownReporter) Write(w io.Writer, stats models.CrawlStats, findings []models.Finding) error {
	md := markdown.NewMarkdown(w)

	r.writeHeader(md, stats, len(findings))
	r.writeFindings(md, findings)
	r.writeFooter(md)

	if err := md.Build(); err != nil {
		return errorwrapper.WrapError(err, "failed to render markdown report")
	}
	return nil
}

func (r *MarkdownReporter) writeHeader(md *markdown.Markdown, stats models.CrawlStats, findingsCount int) {
	md.H1(r.config.ReportTitle)
	md.PlainText("")

	status := "✅ Complete"
	if stats.Interrupted {
		status = "⚠️ Interrupted (partial results)"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed URL", "`" + stats.SeedURL + "`"},
			{"Run ID", stats.RunID},
			{"Started", stats.StartedAt.Format(timestampLayout)},
			{"Duration", stats.Duration.Round(time.Millisecond).String()},
			{"Assets Discovered", strconv.FormatInt(stats.AssetsDiscovered, 10)},
			{"Assets Fetched", strconv.FormatInt(stats.AssetsFetched, 10)},
			{"Assets Failed", strconv.FormatInt(stats.AssetsFailed, 10)},
			{"Secrets Found", strconv.Itoa(findingsCount)},
			{"Status", status},
		},
	})
	md.PlainText("")

	if findingsCount > 0 {
		md.Warningf("%d potential secret(s) found in script assets.", findingsCount)
	} else {
		md.Tip("No secrets detected.")
	}
	md.PlainText("")
}

func (r *MarkdownReporter) writeFindings(md *markdown.Markdown, findings []models.Finding) {
	md.H2("Findings")
	md.PlainText("")

	if len(findings) == 0 {
		md.PlainText("No findings.")
		md.PlainText("")
		return
	}

	grouped := models.FindingsByService(findings)
	services := make([]string, 0, len(grouped))
	for name := range grouped {
		services = append(services, name)
	}
	sort.Strings(services)

	for _, service := range services {
		group := grouped[service]
		md.H3(service + " (" + strconv.Itoa(len(group)) + ")")
		md.PlainText("")

		rows := make([][]string, len(group))
		for i, f := range group {
			rows[i] = []string{
				"`" + escapeCell(truncate(f.SecretValue, maxSecretCellLength)) + "`",
				escapeCell(f.SourceURL) + ":" + strconv.Itoa(f.LineNumber),
				escapeCell(truncate(f.ContextLine, maxContextCellLength)),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Secret", "Location", "Context"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

func (r *MarkdownReporter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by jsenum at %s*", time.Now().Format(timestampLayout))
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
