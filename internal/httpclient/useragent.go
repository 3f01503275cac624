package httpclient

import (
	"math/rand/v2"

	"github.com/aleister1102/jsenum/internal/config"
)

// UserAgentPool hands out a User-Agent per request.
type UserAgentPool struct {
	agents []string
}

// NewUserAgentPool copies agents. An empty list falls back to the defaults.
func NewUserAgentPool(agents []string) *UserAgentPool {
	var cleaned []string
	for _, a := range agents {
		if a != "" {
			cleaned = append(cleaned, a)
		}
	}
	if len(cleaned) == 0 {
		cleaned = append(cleaned, config.DefaultCrawlerUserAgents...)
	}
	return &UserAgentPool{agents: cleaned}
}

// Pick returns a random agent from the pool.
func (p *UserAgentPool) Pick() string {
	if len(p.agents) == 1 {
		return p.agents[0]
	}
	return p.agents[rand.IntN(len(p.agents))]
}

// Agents returns the pool contents.
func (p *UserAgentPool) Agents() []string {
	out := make([]string, len(p.agents))
	copy(out, p.agents)
	return out
}
