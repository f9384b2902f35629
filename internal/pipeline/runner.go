// Package pipeline runs recorded events through a jet filter and hands each
// outcome to a result sink.
//
// Evaluation fans out over a bounded worker pool; every evaluation owns its
// own per-event state inside the filter. Publication is sequential and in
// input order, so sinks need not be safe for concurrent use.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/jetfilter/internal/events"
	"github.com/banshee-data/jetfilter/internal/filter"
)

// Record is one filtered event as published to a sink.
type Record struct {
	Index  int
	Event  events.Event
	Result filter.Result
}

// Sink receives filter outcomes in input order.
type Sink interface {
	Publish(ctx context.Context, rec Record) error
}

// Observer is notified of every record before it is published.
type Observer interface {
	Observe(rec Record)
}

// Stats summarises one run.
type Stats struct {
	Events        int
	Empty         int
	Triggered     int
	Accepted      int
	Degenerate    int
	PublishedJets int
}

// AcceptRate returns the fraction of events accepted.
func (s Stats) AcceptRate() float64 {
	if s.Events == 0 {
		return 0
	}
	return float64(s.Accepted) / float64(s.Events)
}

func (s *Stats) add(rec Record) {
	s.Events++
	if len(rec.Event.Jets) == 0 {
		s.Empty++
	}
	if rec.Result.Triggered {
		s.Triggered++
	}
	if rec.Result.Accept {
		s.Accepted++
	}
	if rec.Result.Diagnostics.Degenerate {
		s.Degenerate++
	}
	s.PublishedJets += len(rec.Result.Jets)
}

// Runner evaluates events with Filter and publishes the results.
type Runner struct {
	Filter    *filter.Filter
	Sink      Sink
	Observers []Observer

	// Workers bounds concurrent evaluations. Zero means GOMAXPROCS.
	Workers int

	// DefaultTag names the jet collection for events that carry no tag.
	DefaultTag string
}

func (r *Runner) workers() int {
	if r.Workers > 0 {
		return r.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Run filters evs and publishes every result. It stops at the first sink
// error or when ctx is cancelled; the returned stats cover the records
// published so far.
func (r *Runner) Run(ctx context.Context, evs []events.Event) (Stats, error) {
	var stats Stats
	if r.Filter == nil {
		return stats, fmt.Errorf("pipeline: no filter configured")
	}

	results := make([]filter.Result, len(evs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())
	for i := range evs {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.Filter.Evaluate(evs[i].Collection(r.DefaultTag))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, fmt.Errorf("pipeline: evaluation interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("pipeline: evaluation interrupted: %w", err)
	}

	for i, res := range results {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("pipeline: publish interrupted: %w", err)
		}
		rec := Record{Index: i, Event: evs[i], Result: res}
		for _, obs := range r.Observers {
			obs.Observe(rec)
		}
		if r.Sink != nil {
			if err := r.Sink.Publish(ctx, rec); err != nil {
				return stats, fmt.Errorf("pipeline: publish event %s: %w", evs[i].ID(), err)
			}
		}
		stats.add(rec)
	}
	return stats, nil
}

// MemorySink keeps published records in memory.
type MemorySink struct {
	mu      sync.Mutex
	records []Record
}

// Publish implements Sink.
func (m *MemorySink) Publish(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Records returns a copy of everything published so far.
func (m *MemorySink) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Record(nil), m.records...)
}

// Accepted returns the accepted records only.
func (m *MemorySink) Accepted() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, rec := range m.records {
		if rec.Result.Accept {
			out = append(out, rec)
		}
	}
	return out
}
