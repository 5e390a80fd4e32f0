package rpc

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/sync/errgroup"
)

const (
	probeTimeout = 5 * time.Second
	probeLimit   = 4
)

// Probe asks an endpoint for its head block.
type Probe func(ctx context.Context, url string) (uint64, error)

// HeadProbe dials url with ethclient and reads eth_blockNumber.
func HeadProbe(ctx context.Context, url string) (uint64, error) {
	c, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return 0, err
	}
	defer c.Close()
	return c.BlockNumber(ctx)
}

// Measure probes every url concurrently and returns one Endpoint per url in
// the same order. Failures are recorded on the Endpoint, never returned.
func Measure(ctx context.Context, urls []string, probe Probe) []Endpoint {
	out := make([]Endpoint, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(probeLimit)

	for i, u := range urls {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(gctx, probeTimeout)
			defer cancel()
			start := time.Now()
			head, err := probe(pctx, u)
			out[i] = Endpoint{URL: u, Latency: time.Since(start), Head: head, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
