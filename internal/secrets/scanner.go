package secrets

import (
	"bytes"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/aleister1102/jsenum/internal/models"
)

// MaxContextLength is how much of the matching source line is kept.
const MaxContextLength = 150

// Scanner runs a Registry over script bodies.
type Scanner struct {
	registry *Registry
}

// NewScanner creates a scanner over the given registry.
func NewScanner(registry *Registry) *Scanner {
	return &Scanner{registry: registry}
}

// Registry exposes the scanner's patterns.
func (s *Scanner) Registry() *Registry { return s.registry }

// Scan returns every match of every pattern in body, in pattern order then
// position order. It has no side effects; FoundAt is left for the caller.
func (s *Scanner) Scan(sourceURL string, body []byte) []models.Finding {
	if len(body) == 0 || s.registry == nil || s.registry.Len() == 0 {
		return nil
	}

	lines := newLineIndex(body)
	var findings []models.Finding

	for _, idx := range s.registry.candidates(body) {
		p := s.registry.patterns[idx]
		for _, loc := range p.Regex.FindAllSubmatchIndex(body, -1) {
			start, end := secretBounds(loc)
			if utf8.RuneCount(body[start:end]) < p.MinLength {
				continue
			}

			line := lines.lineOf(loc[0])
			findings = append(findings, models.Finding{
				ServiceName: p.Name,
				SecretValue: string(body[start:end]),
				SourceURL:   sourceURL,
				LineNumber:  line,
				ContextLine: lines.context(line),
			})
		}
	}

	return findings
}

// secretBounds picks the first capture group when it participated in the
// match and the whole match otherwise.
func secretBounds(loc []int) (int, int) {
	if len(loc) >= 4 && loc[2] >= 0 && loc[3] >= 0 {
		return loc[2], loc[3]
	}
	return loc[0], loc[1]
}

type lineIndex struct {
	body     []byte
	newlines []int
}

func newLineIndex(body []byte) *lineIndex {
	li := &lineIndex{body: body}
	for off := 0; ; {
		i := bytes.IndexByte(body[off:], '\n')
		if i < 0 {
			break
		}
		li.newlines = append(li.newlines, off+i)
		off += i + 1
	}
	return li
}

// lineOf returns the 1-indexed line containing offset.
func (li *lineIndex) lineOf(offset int) int {
	return sort.SearchInts(li.newlines, offset) + 1
}

// context returns the trimmed text of a 1-indexed line, shortened to
// MaxContextLength characters with an ellipsis.
func (li *lineIndex) context(line int) string {
	start := 0
	if line > 1 {
		start = li.newlines[line-2] + 1
	}
	end := len(li.body)
	if line-1 < len(li.newlines) {
		end = li.newlines[line-1]
	}

	text := strings.TrimSpace(string(li.body[start:end]))
	if utf8.RuneCountInString(text) <= MaxContextLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:MaxContextLength]) + "..."
}
