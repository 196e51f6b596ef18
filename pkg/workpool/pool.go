// Package workpool provides the fixed-size goroutine pool that runs
// rasterization work units.
//
// A Pool is constructed explicitly, shared by whoever needs it and shut down
// with Close. Every submitted unit yields either a Handle (one unit) or joins
// a Group (fork-join over many units). A unit that panics does not take the
// worker down: the panic is recovered and reported as an error wrapping
// ErrTaskPanic through the unit's Handle or Group.
//
// A nil *Pool is valid and runs every unit inline on the calling goroutine.
package workpool

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

var (
	// ErrClosed is reported for units submitted after Close.
	ErrClosed = errors.New("workpool: pool is closed")

	// ErrTaskPanic wraps the value recovered from a panicking unit.
	ErrTaskPanic = errors.New("workpool: task panicked")
)

// Pool is a set of worker goroutines with per-worker queues. Idle workers
// steal from their neighbours' queues so that uneven units balance out.
//
// Pool is safe for concurrent use.
type Pool struct {
	workers int
	queues  []chan func()
	next    atomic.Uint64

	// mu orders Submit against Close so no unit is queued after the
	// workers have drained and exited.
	mu      sync.RWMutex
	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// New starts a pool with the given number of workers. If workers is 0 or
// negative, runtime.NumCPU is used.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	queueSize := max(workers*4, 8)

	p := &Pool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

// Workers returns the number of worker goroutines, or 0 for a nil pool.
func (p *Pool) Workers() int {
	if p == nil {
		return 0
	}
	return p.workers
}

// Pending returns the number of queued units not yet picked up.
func (p *Pool) Pending() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, q := range p.queues {
		n += len(q)
	}
	return n
}

// Close stops accepting work, runs every unit already queued and waits for
// the workers to exit. Calling Close more than once is a no-op.
func (p *Pool) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.mu.Unlock()
		return
	}
	close(p.done)
	p.mu.Unlock()
	p.wg.Wait()
}

// Submit queues fn and returns a Handle to wait on. On a nil pool, or when
// every queue is full, fn runs before Submit returns.
//
// A unit may submit more units, but must not wait on them: a unit blocked
// in Wait holds its worker, and the units it waits for may be queued behind
// it.
func (p *Pool) Submit(fn func() error) *Handle {
	h := &Handle{done: make(chan struct{})}
	if p == nil {
		h.err = run(fn)
		close(h.done)
		return h
	}
	err := p.enqueue(func() {
		h.err = run(fn)
		close(h.done)
	})
	if err != nil {
		h.err = err
		close(h.done)
	}
	return h
}

// Group returns a new fork-join group bound to p.
func (p *Pool) Group() *Group {
	return &Group{pool: p}
}

// enqueue queues work on the first queue with room, starting from a
// rotating worker. When every queue is full, work runs on the calling
// goroutine instead, so a unit may submit to its own pool without blocking.
func (p *Pool) enqueue(work func()) error {
	p.mu.RLock()
	if !p.running.Load() {
		p.mu.RUnlock()
		return ErrClosed
	}
	start := int(p.next.Add(1) % uint64(p.workers))
	for i := range p.workers {
		select {
		case p.queues[(start+i)%p.workers] <- work:
			p.mu.RUnlock()
			return nil
		default:
		}
	}
	p.mu.RUnlock()

	work()
	return nil
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	own := p.queues[id]
	for {
		select {
		case <-p.done:
			p.drain(own)
			return
		case work := <-own:
			work()
			continue
		default:
		}

		if work := p.steal(id); work != nil {
			work()
			continue
		}

		select {
		case <-p.done:
			p.drain(own)
			return
		case work := <-own:
			work()
		}
	}
}

func (p *Pool) drain(queue chan func()) {
	for {
		select {
		case work := <-queue:
			work()
		default:
			return
		}
	}
}

func (p *Pool) steal(id int) func() {
	for i := 1; i < p.workers; i++ {
		select {
		case work := <-p.queues[(id+i)%p.workers]:
			return work
		default:
		}
	}
	return nil
}

// run executes fn, converting a panic into an error.
func run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanic, r)
		}
	}()
	return fn()
}

// Handle tracks a single submitted unit.
type Handle struct {
	done chan struct{}
	err  error
}

// Wait blocks until the unit has finished and returns its error.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Done is closed once the unit has finished.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Group joins a set of units. The zero value is not usable; obtain one from
// Pool.Group.
type Group struct {
	pool *Pool
	wg   sync.WaitGroup

	mu   sync.Mutex
	errs []error
}

// Go runs fn on the group's pool.
func (g *Group) Go(fn func() error) {
	if g.pool == nil {
		g.record(run(fn))
		return
	}
	g.wg.Add(1)
	err := g.pool.enqueue(func() {
		defer g.wg.Done()
		g.record(run(fn))
	})
	if err != nil {
		g.wg.Done()
		g.record(err)
	}
}

// Wait blocks until every unit started with Go has finished and returns
// their errors joined with errors.Join, or nil.
func (g *Group) Wait() error {
	g.wg.Wait()
	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}

func (g *Group) record(err error) {
	if err == nil {
		return
	}
	g.mu.Lock()
	g.errs = append(g.errs, err)
	g.mu.Unlock()
}
