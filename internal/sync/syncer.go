// Package sync re-sends locally recorded deployments that the launchpad
// backend has not accepted yet.
package sync

import (
	"context"
	"errors"

	"github.com/Mohsinsiddi/tokenlaunch/internal/backend"
	"github.com/Mohsinsiddi/tokenlaunch/internal/config"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultParallel = 4

// Store reads and rewrites the local deployment log.
type Store interface {
	LoadDeployments() (*config.DeploymentsFile, error)
	SaveDeployments(*config.DeploymentsFile) error
}

// Publisher accepts deployed tokens.
type Publisher interface {
	CreateToken(ctx context.Context, rec backend.TokenRecord) (*backend.TokenResponse, error)
}

// Syncer publishes pending deployments.
type Syncer struct {
	store    Store
	pub      Publisher
	log      *zap.Logger
	parallel int
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Syncer) { s.log = l }
}

// WithParallel caps concurrent requests to the backend.
func WithParallel(n int) Option {
	return func(s *Syncer) {
		if n > 0 {
			s.parallel = n
		}
	}
}

// New returns a Syncer reading from store and publishing to pub.
func New(store Store, pub Publisher, opts ...Option) *Syncer {
	s := &Syncer{store: store, pub: pub, log: zap.NewNop(), parallel: defaultParallel}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Failure is one deployment the backend refused.
type Failure struct {
	Deployment config.Deployment
	Err        error
}

// Result summarizes a sync run.
type Result struct {
	Published []config.Deployment
	Failed    []Failure
}

// Pending returns confirmed deployments not yet accepted by the backend.
func (s *Syncer) Pending() ([]config.Deployment, error) {
	df, err := s.store.LoadDeployments()
	if err != nil {
		return nil, err
	}
	var out []config.Deployment
	for _, d := range df.Deployments {
		if d.Publishable() {
			out = append(out, d)
		}
	}
	return out, nil
}

// Run publishes every pending deployment and marks the accepted ones. One
// refusal does not stop the others.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	df, err := s.store.LoadDeployments()
	if err != nil {
		return nil, err
	}

	var pending []int
	for i, d := range df.Deployments {
		if d.Publishable() {
			pending = append(pending, i)
		}
	}
	res := &Result{}
	if len(pending) == 0 {
		return res, nil
	}

	errs := make([]error, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)
	for j, i := range pending {
		d := df.Deployments[i]
		g.Go(func() error {
			_, errs[j] = s.pub.CreateToken(gctx, Record(d))
			return nil
		})
	}
	_ = g.Wait()

	for j, i := range pending {
		d := df.Deployments[i]
		if errs[j] != nil {
			s.log.Warn("publish failed", zap.String("symbol", d.Symbol), zap.String("tx", d.TransactionHash), zap.Error(errs[j]))
			res.Failed = append(res.Failed, Failure{Deployment: d, Err: errs[j]})
			continue
		}
		df.Deployments[i].Published = true
		res.Published = append(res.Published, df.Deployments[i])
	}

	if len(res.Published) > 0 {
		if err := s.store.SaveDeployments(df); err != nil {
			return res, err
		}
	}
	s.log.Info("sync done", zap.Int("published", len(res.Published)), zap.Int("failed", len(res.Failed)))
	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	return res, nil
}

// Record converts a local deployment to the backend's token record.
func Record(d config.Deployment) backend.TokenRecord {
	return backend.TokenRecord{
		Name:            d.Name,
		Symbol:          d.Symbol,
		TotalSupply:     d.TotalSupply,
		Decimals:        d.Decimals,
		Network:         d.Network,
		ChainID:         d.ChainID,
		ContractAddress: d.ContractAddress,
		TransactionHash: d.TransactionHash,
		Deployer:        d.Deployer,
		Description:     d.Description,
		ImageURL:        d.ImageURL,
	}
}

// Err joins every failure into one error, or nil.
func (r *Result) Err() error {
	var errs []error
	for _, f := range r.Failed {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}
