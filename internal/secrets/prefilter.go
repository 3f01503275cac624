package secrets

import (
	"bytes"
	"sort"
	"sync"

	"github.com/cloudflare/ahocorasick"
)

// keywordPrefilter narrows the patterns worth running on a body to those
// without keywords plus those whose keywords occur in it.
type keywordPrefilter struct {
	// Matcher.Match keeps per-call state inside the matcher.
	mu      sync.Mutex
	matcher *ahocorasick.Matcher

	keywordPatterns map[int][]int
	fallback        []int
}

func newKeywordPrefilter(patterns []Pattern) *keywordPrefilter {
	pf := &keywordPrefilter{keywordPatterns: make(map[int][]int)}

	var keywords []string
	keywordIdx := make(map[string]int)

	for i, p := range patterns {
		if len(p.Keywords) == 0 {
			pf.fallback = append(pf.fallback, i)
			continue
		}
		for _, kw := range p.Keywords {
			idx, ok := keywordIdx[kw]
			if !ok {
				idx = len(keywords)
				keywords = append(keywords, kw)
				keywordIdx[kw] = idx
			}
			pf.keywordPatterns[idx] = append(pf.keywordPatterns[idx], i)
		}
	}

	if len(keywords) == 0 {
		return nil
	}
	pf.matcher = ahocorasick.NewStringMatcher(keywords)
	return pf
}

// candidates returns the indices of the patterns to run, in registry order.
func (pf *keywordPrefilter) candidates(body []byte) []int {
	lowered := bytes.ToLower(body)

	pf.mu.Lock()
	hits := pf.matcher.Match(lowered)
	pf.mu.Unlock()

	selected := make(map[int]struct{}, len(pf.fallback)+len(hits))
	for _, idx := range pf.fallback {
		selected[idx] = struct{}{}
	}
	for _, hit := range hits {
		for _, idx := range pf.keywordPatterns[hit] {
			selected[idx] = struct{}{}
		}
	}

	out := make([]int, 0, len(selected))
	for idx := range selected {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}
