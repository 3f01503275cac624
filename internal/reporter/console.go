package reporter

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aleister1102/jsenum/internal/models"
)

// ConsoleReporter streams visited assets and findings as they happen.
// Output lines from concurrent workers never interleave.
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleReporter writes to out.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: out}
}

// Banner prints the run header.
func (c *ConsoleReporter) Banner(seedURL string, maxDepth, workers int) {
	c.printf("jsenum → %s\n", seedURL)
	c.printf("Depth %d | Threads %d\n\n", maxDepth, workers)
}

func (c *ConsoleReporter) OnDiscovered(models.WorkItem) {}

// OnVisit prints one line per asset about to be fetched.
func (c *ConsoleReporter) OnVisit(item models.WorkItem) {
	indent := ""
	if item.Depth > 0 {
		indent = "|_ "
	}
	c.printf("%s[%s] → %s\n", indent, item.Tag(), item.URL)
}

func (c *ConsoleReporter) OnFetchFailed(models.WorkItem, error) {}

// OnFinding prints a finding block.
func (c *ConsoleReporter) OnFinding(f models.Finding) {
	c.printf("   \\_ ⚠️ %s\n      → %s\n      %s:%d\n      %s\n",
		f.ServiceName, f.SecretValue, f.SourceURL, f.LineNumber, f.ContextLine)
}

// Summary prints the final totals. The asset count covers everything
// discovered, failed fetches included.
func (c *ConsoleReporter) Summary(stats models.CrawlStats) {
	if stats.Interrupted {
		c.printf("\nInterrupted after %s\n", stats.Duration.Round(time.Millisecond))
	}
	line := fmt.Sprintf("\nAssets crawled: %d | Secrets found: %d", stats.AssetsDiscovered, stats.FindingsCount)
	if stats.AssetsFailed > 0 {
		line += fmt.Sprintf(" | Failed fetches: %d", stats.AssetsFailed)
	}
	c.printf("%s\n", line)
}

func (c *ConsoleReporter) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.out, format, args...)
}
