package secrets

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Registry is the read-only set of patterns shared by all workers.
type Registry struct {
	patterns     []Pattern
	prefilter    *keywordPrefilter
	usedDefaults bool
	source       string
}

// RegistryOptions tunes how a pattern file is turned into a Registry.
type RegistryOptions struct {
	// MinLength applies to entries that do not set min_length.
	MinLength int
	// KeywordPrefilter enables the Aho-Corasick gate for keyword patterns.
	KeywordPrefilter bool
}

// NewRegistry builds a registry from already compiled patterns, sorted by name.
func NewRegistry(patterns []Pattern, keywordPrefilter bool) *Registry {
	sorted := make([]Pattern, len(patterns))
	copy(sorted, patterns)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	r := &Registry{patterns: sorted}
	if keywordPrefilter {
		r.prefilter = newKeywordPrefilter(sorted)
	}
	return r
}

// LoadPatterns reads a {name: regex} file (JSON or YAML). Entries that fail to
// compile are logged and skipped. A missing, unreadable or empty file yields
// the built-in defaults.
func LoadPatterns(path string, opts RegistryOptions, logger zerolog.Logger) *Registry {
	log := logger.With().Str("module", "PatternRegistry").Logger()

	patterns, err := loadPatternFile(path, opts.MinLength, log)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debug().Str("file", path).Msg("Pattern file not found, using built-in patterns")
		} else {
			log.Warn().Err(err).Str("file", path).Msg("Failed to load pattern file, using built-in patterns")
		}
		return defaultRegistry(opts)
	}

	if len(patterns) == 0 {
		log.Warn().Str("file", path).Msg("Pattern file has no valid patterns, using built-in patterns")
		return defaultRegistry(opts)
	}

	r := NewRegistry(patterns, opts.KeywordPrefilter)
	r.source = path
	log.Debug().Int("count", r.Len()).Str("file", path).Msg("Loaded patterns")
	return r
}

func defaultRegistry(opts RegistryOptions) *Registry {
	patterns := DefaultPatterns()
	if opts.MinLength > 0 {
		for i := range patterns {
			patterns[i].MinLength = opts.MinLength
		}
	}
	r := NewRegistry(patterns, opts.KeywordPrefilter)
	r.usedDefaults = true
	r.source = "built-in"
	return r
}

// Patterns returns the registry's patterns in evaluation order.
func (r *Registry) Patterns() []Pattern {
	out := make([]Pattern, len(r.patterns))
	copy(out, r.patterns)
	return out
}

// Len returns the number of loaded patterns.
func (r *Registry) Len() int { return len(r.patterns) }

// UsedDefaults reports whether the built-in patterns were used.
func (r *Registry) UsedDefaults() bool { return r.usedDefaults }

// Source is the pattern file path, or "built-in".
func (r *Registry) Source() string { return r.source }

// candidates returns the indices of the patterns to evaluate against body.
func (r *Registry) candidates(body []byte) []int {
	if r.prefilter != nil {
		return r.prefilter.candidates(body)
	}
	all := make([]int, len(r.patterns))
	for i := range all {
		all[i] = i
	}
	return all
}

// patternEntry is one entry of a pattern file in either accepted layout.
type patternEntry struct {
	Name      string   `yaml:"name"`
	Regex     string   `yaml:"regex"`
	MinLength int      `yaml:"min_length"`
	Keywords  []string `yaml:"keywords"`
}

func loadPatternFile(path string, minLength int, log zerolog.Logger) ([]Pattern, error) {
	if strings.TrimSpace(path) == "" {
		return nil, os.ErrNotExist
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	entries, err := parsePatternEntries(data)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]Pattern, len(entries))
	for _, e := range entries {
		ml := e.MinLength
		if ml <= 0 {
			ml = minLength
		}
		p, err := NewPattern(e.Name, e.Regex, ml, e.Keywords)
		if err != nil {
			log.Warn().Err(err).Str("pattern", e.Name).Msg("Skipping invalid pattern")
			continue
		}
		byName[p.Name] = p
	}

	patterns := make([]Pattern, 0, len(byName))
	for _, p := range byName {
		patterns = append(patterns, p)
	}
	return patterns, nil
}

// parsePatternEntries accepts a mapping of name to regex (or to an entry
// object) and a sequence of entry objects. JSON parses as YAML.
func parsePatternEntries(data []byte) ([]patternEntry, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse pattern file: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, nil
	}

	node := root.Content[0]
	switch node.Kind {
	case yaml.MappingNode:
		entries := make([]patternEntry, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			name := node.Content[i].Value
			value := node.Content[i+1]

			entry := patternEntry{Name: name}
			switch value.Kind {
			case yaml.ScalarNode:
				entry.Regex = value.Value
			case yaml.MappingNode:
				if err := value.Decode(&entry); err != nil {
					entry.Regex = ""
				}
				entry.Name = name
			}
			entries = append(entries, entry)
		}
		return entries, nil
	case yaml.SequenceNode:
		var entries []patternEntry
		if err := node.Decode(&entries); err != nil {
			return nil, fmt.Errorf("failed to decode pattern list: %w", err)
		}
		return entries, nil
	default:
		return nil, fmt.Errorf("pattern file must be a mapping or a list")
	}
}
