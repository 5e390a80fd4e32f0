package rpc

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/Mohsinsiddi/tokenlaunch/internal/provider"
	"go.uber.org/zap"
)

// Dialer is a provider.DialFunc source that, when a chain has more than one
// endpoint configured, measures them and dials the one its Picker selects.
type Dialer struct {
	picker *Picker
	dial   provider.DialFunc
	probe  Probe
	log    *zap.Logger

	mu    sync.Mutex
	pools map[string][]string
}

// DialerOption configures a Dialer.
type DialerOption func(*Dialer)

// WithProbe replaces the endpoint probe.
func WithProbe(p Probe) DialerOption {
	return func(d *Dialer) { d.probe = p }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) DialerOption {
	return func(d *Dialer) { d.log = l }
}

// NewDialer creates a Dialer that selects with algo and connects with dial.
func NewDialer(algo Algorithm, dial provider.DialFunc, opts ...DialerOption) *Dialer {
	d := &Dialer{
		picker: NewPicker(algo),
		dial:   dial,
		probe:  HeadProbe,
		log:    zap.NewNop(),
		pools:  make(map[string][]string),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// AddPool registers alternates for primary. A dial of primary may connect
// to any of them instead.
func (d *Dialer) AddPool(primary string, alternates ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	pool := []string{primary}
	for _, u := range alternates {
		if u != "" && !slices.Contains(pool, u) {
			pool = append(pool, u)
		}
	}
	d.pools[primary] = pool
}

// Candidates returns the endpoints a dial of url chooses from, in order.
func (d *Dialer) Candidates(url string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if pool, ok := d.pools[url]; ok {
		return slices.Clone(pool)
	}
	return []string{url}
}

// Select returns the endpoint a dial of url would use.
func (d *Dialer) Select(ctx context.Context, url string) (string, error) {
	urls := d.Candidates(url)
	if len(urls) == 1 {
		return urls[0], nil
	}
	if u, ok := d.picker.Cached(urls); ok {
		return u, nil
	}

	endpoints := Measure(ctx, urls, d.probe)
	for _, e := range endpoints {
		if e.Err != nil {
			d.log.Debug("rpc endpoint unhealthy", zap.String("url", e.URL), zap.Error(e.Err))
		}
	}
	winner, err := d.picker.Pick(endpoints)
	if err != nil {
		return "", fmt.Errorf("%w (tried %d)", err, len(urls))
	}
	d.log.Debug("rpc endpoint selected",
		zap.String("url", winner.URL),
		zap.String("algorithm", string(d.picker.Algorithm())),
		zap.Duration("latency", winner.Latency),
	)
	return winner.URL, nil
}

// Dial implements provider.DialFunc.
func (d *Dialer) Dial(ctx context.Context, url string) (provider.Backend, error) {
	target, err := d.Select(ctx, url)
	if err != nil {
		return nil, err
	}
	return d.dial(ctx, target)
}
