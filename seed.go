package docket

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docket/core"
)

// SeedFailure records one entry that could not be written.
type SeedFailure struct {
	Index int    // Position of the entry in the seeded batch
	ID    string // Document id, when the entry carried one
	Err   error
}

// SeedReport summarizes a Seed call.
type SeedReport struct {
	Succeeded int
	Failed    int
	Failures  []SeedFailure // Ordered by Index
}

// SeedOption configures a single Seed call.
type SeedOption func(*seedOptions)

type seedOptions struct {
	progress func(done, total int)
}

// WithProgress calls fn after each entry is applied, with the number of
// entries applied so far. Calls are serialized.
func WithProgress(fn func(done, total int)) SeedOption {
	return func(o *seedOptions) {
		o.progress = fn
	}
}

// Seed upserts each document independently, without version checks.
// A failing entry is counted and logged and does not stop the others;
// Seed itself never fails. With one seed worker (the default) entries are
// applied sequentially in order; with more, up to SeedWorkers entries are
// written concurrently and ordering is not preserved.
func (c *Client) Seed(ctx context.Context, docs []*core.Document, opts ...SeedOption) *SeedReport {
	options := &seedOptions{}
	for _, opt := range opts {
		opt(options)
	}

	errs := make([]error, len(docs))
	var (
		progressMu sync.Mutex
		done       int
	)
	apply := func(i int) {
		_, _, errs[i] = c.Upsert(ctx, docs[i], "")
		if options.progress != nil {
			progressMu.Lock()
			done++
			options.progress(done, len(docs))
			progressMu.Unlock()
		}
	}

	if c.config.SeedWorkers <= 1 || len(docs) <= 1 {
		for i := range docs {
			apply(i)
		}
	} else {
		c.seedConcurrently(docs, errs, apply)
	}

	report := &SeedReport{}
	for i, err := range errs {
		if err == nil {
			report.Succeeded++
			continue
		}
		failure := SeedFailure{Index: i, Err: err}
		if docs[i] != nil {
			failure.ID, _ = docs[i].ID()
		}
		report.Failed++
		report.Failures = append(report.Failures, failure)
		c.logger.Warn("seed entry failed", "index", i, "id", failure.ID, "err", err)
	}

	c.logger.Info("seed finished", "collection", c.ref.String(),
		"succeeded", report.Succeeded, "failed", report.Failed)
	return report
}

func (c *Client) seedConcurrently(docs []*core.Document, errs []error, apply func(i int)) {
	pool, err := ants.NewPool(c.config.SeedWorkers)
	if err != nil {
		c.logger.Warn("seed pool unavailable, applying sequentially", "err", err)
		for i := range docs {
			apply(i)
		}
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := range docs {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			apply(i)
		}); err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()
}
