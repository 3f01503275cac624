package secrets

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultMinLength is the shortest secret value reported when a pattern
// does not declare its own minimum.
const DefaultMinLength = 20

// Pattern is a named detection rule. It is immutable once compiled and safe
// for concurrent use.
type Pattern struct {
	Name      string
	Source    string
	Regex     *regexp.Regexp
	MinLength int
	// Keywords, when present, gate the pattern behind the keyword prefilter.
	Keywords []string
}

// NewPattern compiles a pattern. A non-positive minLength falls back to
// DefaultMinLength.
func NewPattern(name, source string, minLength int, keywords []string) (Pattern, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Pattern{}, fmt.Errorf("pattern name is empty")
	}
	if strings.TrimSpace(source) == "" {
		return Pattern{}, fmt.Errorf("pattern %q has an empty regex", name)
	}

	compiled, err := regexp.Compile(source)
	if err != nil {
		return Pattern{}, fmt.Errorf("failed to compile pattern %q: %w", name, err)
	}

	if minLength <= 0 {
		minLength = DefaultMinLength
	}

	return Pattern{
		Name:      name,
		Source:    source,
		Regex:     compiled,
		MinLength: minLength,
		Keywords:  normalizeKeywords(keywords),
	}, nil
}

func mustPattern(name, source string, keywords ...string) Pattern {
	p, err := NewPattern(name, source, DefaultMinLength, keywords)
	if err != nil {
		panic(err)
	}
	return p
}

func normalizeKeywords(keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}
	out := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
