// Package rpc chooses between several RPC endpoints configured for the same
// chain.
package rpc

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ErrNoHealthyRPC is returned when no endpoint answered.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// Algorithm defines how an endpoint is selected.
type Algorithm string

const (
	AlgorithmFailover   Algorithm = "failover"
	AlgorithmFastest    Algorithm = "fastest"
	AlgorithmRoundRobin Algorithm = "round-robin"

	// Discard nodes more than this many blocks behind the best.
	staleBlockThreshold = 3
	// Keep the fastest winner this long before measuring again.
	cacheTTL = 5 * time.Minute
)

// ParseAlgorithm validates a configured algorithm name. Empty means failover.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(s))); a {
	case "":
		return AlgorithmFailover, nil
	case AlgorithmFailover, AlgorithmFastest, AlgorithmRoundRobin:
		return a, nil
	default:
		return "", fmt.Errorf("invalid RPC algorithm %q (choose failover, fastest or round-robin)", s)
	}
}

// Endpoint is one measured RPC URL. Err is set when the probe failed.
type Endpoint struct {
	URL     string
	Latency time.Duration
	Head    uint64
	Err     error
}

// Healthy reports whether the probe succeeded.
func (e Endpoint) Healthy() bool { return e.Err == nil }

type cached struct {
	url     string
	expires time.Time
}

// Picker selects an endpoint according to its algorithm. State (the
// fastest winner and the round-robin cursor) is kept per endpoint set.
type Picker struct {
	algo Algorithm
	now  func() time.Time

	mu      sync.Mutex
	cursor  map[string]int
	winners map[string]cached
}

// NewPicker creates a Picker for algo.
func NewPicker(algo Algorithm) *Picker {
	return &Picker{
		algo:    algo,
		now:     time.Now,
		cursor:  make(map[string]int),
		winners: make(map[string]cached),
	}
}

// Algorithm returns the selection algorithm.
func (p *Picker) Algorithm() Algorithm { return p.algo }

// Cached returns a still-fresh fastest winner for urls, if any. Callers use
// it to skip probing.
func (p *Picker) Cached(urls []string) (string, bool) {
	if p.algo != AlgorithmFastest {
		return "", false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.winners[setKey(urls)]
	if !ok || !p.now().Before(c.expires) {
		return "", false
	}
	return c.url, true
}

// Pick selects from measured endpoints, given in configured order.
func (p *Picker) Pick(endpoints []Endpoint) (Endpoint, error) {
	healthy := make([]Endpoint, 0, len(endpoints))
	for _, e := range endpoints {
		if e.Healthy() {
			healthy = append(healthy, e)
		}
	}
	if len(healthy) == 0 {
		return Endpoint{}, ErrNoHealthyRPC
	}

	switch p.algo {
	case AlgorithmFastest:
		return p.fastest(endpoints, healthy), nil
	case AlgorithmRoundRobin:
		return p.roundRobin(endpoints, healthy), nil
	default:
		return healthy[0], nil
	}
}

func (p *Picker) fastest(all, healthy []Endpoint) Endpoint {
	var best uint64
	for _, e := range healthy {
		best = max(best, e.Head)
	}

	winner := healthy[0]
	bestScore := -1.0
	for _, e := range healthy {
		if best-e.Head > staleBlockThreshold {
			continue
		}
		if s := score(e, best); s > bestScore {
			winner, bestScore = e, s
		}
	}

	p.mu.Lock()
	p.winners[setKey(urlsOf(all))] = cached{url: winner.URL, expires: p.now().Add(cacheTTL)}
	p.mu.Unlock()
	return winner
}

func (p *Picker) roundRobin(all, healthy []Endpoint) Endpoint {
	key := setKey(urlsOf(all))
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := p.cursor[key] % len(healthy)
	p.cursor[key] = idx + 1
	return healthy[idx]
}

// score favours low latency, then recency.
func score(e Endpoint, best uint64) float64 {
	var s float64
	if ms := e.Latency.Milliseconds(); ms > 0 {
		s += 1000.0 / float64(ms)
	} else {
		s += 1000.0
	}
	s += float64(staleBlockThreshold) - float64(best-e.Head)
	return s
}

func urlsOf(endpoints []Endpoint) []string {
	out := make([]string, len(endpoints))
	for i, e := range endpoints {
		out[i] = e.URL
	}
	return out
}

func setKey(urls []string) string {
	return strings.Join(urls, "\n")
}
