package extract

import "sync/atomic"

var defaultAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:89.0) Gecko/20100101 Firefox/89.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:89.0) Gecko/20100101 Firefox/89.0",
}

// AgentRotation hands out User-Agent strings round-robin. The counter is
// explicit per-rotation state rather than package-level, so concurrent
// extractors never share hidden position.
type AgentRotation struct {
	agents []string
	next   atomic.Uint64
}

// NewAgentRotation builds a rotation over the default browser agents.
func NewAgentRotation() *AgentRotation {
	return &AgentRotation{agents: defaultAgents}
}

// Next returns the next agent in rotation; safe for concurrent use.
func (r *AgentRotation) Next() string {
	n := r.next.Add(1) - 1
	return r.agents[n%uint64(len(r.agents))]
}
