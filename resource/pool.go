// Package resource provides counted resource pools that tasks use to limit
// their own concurrency (GPUs, memory-heavy slots, remote job quotas). The
// pool only blocks tasks; it never talks to an executor. It travels to task
// bodies through the forwarded configuration.
package resource

import (
	"context"
	"slices"
	"sync"

	"go.trai.ch/zerr"
	"golang.org/x/sync/semaphore"

	"go.trai.ch/flow/task"
)

var (
	// ErrUnknownResource is returned when requesting a resource the pool
	// was not created with.
	ErrUnknownResource = zerr.New("unknown resource")

	// ErrOverCommit is returned when a request can never be satisfied
	// because it exceeds a resource's total supply.
	ErrOverCommit = zerr.New("requested more than the pool holds")

	// ErrOverRelease is returned when releasing more of a resource than
	// the allocation still holds.
	ErrOverRelease = zerr.New("releasing more than acquired")
)

// Pool holds named counted resources.
type Pool struct {
	sems   map[string]*semaphore.Weighted
	totals map[string]int64
}

// NewPool creates a pool with the given per-resource totals, e.g.
// NewPool(map[string]int64{"gpu": 8, "slurm": 32}).
func NewPool(limits map[string]int64) *Pool {
	p := &Pool{
		sems:   make(map[string]*semaphore.Weighted, len(limits)),
		totals: make(map[string]int64, len(limits)),
	}
	for name, total := range limits {
		p.sems[name] = semaphore.NewWeighted(total)
		p.totals[name] = total
	}
	return p
}

// Acquire blocks until all requested counts are held, then returns the
// allocation. Resources are acquired in sorted name order so two tasks
// requesting overlapping sets cannot deadlock each other. Requests beyond a
// resource's total fail immediately with ErrOverCommit.
func (p *Pool) Acquire(ctx context.Context, counts map[string]int64) (*Allocation, error) {
	if err := p.check(counts); err != nil {
		return nil, err
	}

	held := make(map[string]int64, len(counts))
	for _, name := range sortedNames(counts) {
		if err := p.sems[name].Acquire(ctx, counts[name]); err != nil {
			p.release(held)
			return nil, zerr.With(zerr.Wrap(err, "failed to acquire resource"), "resource", name)
		}
		held[name] = counts[name]
	}

	return &Allocation{pool: p, held: held}, nil
}

func (p *Pool) check(counts map[string]int64) error {
	for name, n := range counts {
		total, ok := p.totals[name]
		if !ok {
			return zerr.With(ErrUnknownResource, "resource", name)
		}
		if n > total {
			return zerr.With(zerr.With(zerr.With(ErrOverCommit, "resource", name), "requested", n), "total", total)
		}
	}
	return nil
}

func (p *Pool) release(counts map[string]int64) {
	for name, n := range counts {
		if n > 0 {
			p.sems[name].Release(n)
		}
	}
}

// Allocation is a set of held resource counts. Release returns parts of it
// early; Close returns whatever is still held and is safe to defer.
type Allocation struct {
	pool *Pool
	mu   sync.Mutex
	held map[string]int64
}

// Release returns part of the allocation to the pool.
func (a *Allocation) Release(counts map[string]int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for name, n := range counts {
		if n > a.held[name] {
			return zerr.With(zerr.With(zerr.With(ErrOverRelease, "resource", name), "releasing", n), "held", a.held[name])
		}
	}
	for name, n := range counts {
		a.held[name] -= n
	}
	a.pool.release(counts)
	return nil
}

// Acquire adds more resources to the allocation. Two allocations growing at
// the same time can deadlock each other; prefer acquiring everything up
// front.
func (a *Allocation) Acquire(ctx context.Context, counts map[string]int64) error {
	more, err := a.pool.Acquire(ctx, counts)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for name, n := range more.take() {
		a.held[name] += n
	}
	return nil
}

// Close returns everything still held. Calling Close twice is a no-op.
func (a *Allocation) Close() {
	a.pool.release(a.take())
}

func (a *Allocation) take() map[string]int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	held := a.held
	a.held = map[string]int64{}
	return held
}

func sortedNames(counts map[string]int64) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// configKey is where the pool rides in the forwarded configuration.
const configKey = "resources"

// With attaches a pool to a forwarded configuration.
func With(cfg task.Config, p *Pool) task.Config {
	if cfg == nil {
		cfg = task.Config{}
	}
	cfg[configKey] = p
	return cfg
}

// From extracts the pool from a forwarded configuration.
func From(cfg task.Config) (*Pool, bool) {
	p, ok := cfg[configKey].(*Pool)
	return p, ok
}
