// Package keypool distributes provider credentials across calls. A pool
// holds the configured API keys, shuffles them once at construction, and
// hands them out round-robin so sustained load spreads evenly over every
// key's individual quota.
package keypool

import (
	"math/rand"
	"strings"
	"sync/atomic"

	"etymon/internal/services"
)

// Credential is a single provider API key.
type Credential string

// Pool selects one credential per call, round-robin over a shuffled copy
// of the configured set. The set is read-only after construction.
type Pool struct {
	keys []Credential
	next atomic.Uint64
}

// New builds a pool from the configured keys. Blank keys are dropped;
// an empty result is a configuration error, not something to retry.
func New(keys []string) (*Pool, error) {
	cleaned := make([]Credential, 0, len(keys))
	for _, key := range keys {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			cleaned = append(cleaned, Credential(trimmed))
		}
	}
	if len(cleaned) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "keypool", "new", "no provider credentials configured", nil)
	}
	rand.Shuffle(len(cleaned), func(i, j int) {
		cleaned[i], cleaned[j] = cleaned[j], cleaned[i]
	})
	return &Pool{keys: cleaned}, nil
}

// Acquire returns the next credential. Successive calls cycle through
// every key before repeating one.
func (p *Pool) Acquire() Credential {
	idx := p.next.Add(1) - 1
	return p.keys[idx%uint64(len(p.keys))]
}

// Size reports how many distinct credentials the pool holds.
func (p *Pool) Size() int {
	return len(p.keys)
}
