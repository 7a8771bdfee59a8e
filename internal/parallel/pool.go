// Package parallel runs row-banded raster work on a fixed set of goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// minBandRows keeps bands large enough that scheduling stays cheaper than
// decoding.
const minBandRows = 16

// Pool is a pool of goroutines with per-worker queues. Idle workers steal
// from other queues, which balances bands of uneven cost (mostly land
// versus mostly ocean).
//
// Pool is safe for concurrent use.
type Pool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewPool starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), max(workers*4, 8))
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	own := p.queues[id]
	for {
		select {
		case <-p.done:
			drain(own)
			return
		case work := <-own:
			work()
		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			select {
			case <-p.done:
				drain(own)
				return
			case work := <-own:
				work()
			}
		}
	}
}

func drain(queue chan func()) {
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
	for i := range p.workers {
		if i == id {
			continue
		}
		select {
		case work := <-p.queues[i]:
			return work
		default:
		}
	}
	return nil
}

// Run executes every item of work and waits for all of them. After Close,
// work runs on the calling goroutine.
func (p *Pool) Run(work []func()) {
	if len(work) == 0 {
		return
	}
	if !p.running.Load() || len(work) == 1 {
		for _, fn := range work {
			fn()
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(work))
	for i, fn := range work {
		wrapped := func() {
			defer wg.Done()
			fn()
		}
		select {
		case p.queues[i%p.workers] <- wrapped:
		case <-p.done:
			wrapped()
		}
	}
	wg.Wait()
}

// Bands splits rows [0, rows) into contiguous bands, one or more per
// worker, and calls fn(band, y0, y1) for each. It returns the number of
// bands; band indexes are dense and ordered top to bottom, so callers can
// merge per-band results deterministically.
func (p *Pool) Bands(rows int, fn func(band, y0, y1 int)) int {
	if rows <= 0 {
		return 0
	}
	n := min(p.workers, max(rows/minBandRows, 1))
	size := (rows + n - 1) / n
	n = (rows + size - 1) / size

	work := make([]func(), n)
	for b := range n {
		y0, y1 := b*size, min((b+1)*size, rows)
		work[b] = func() { fn(b, y0, y1) }
	}
	p.Run(work)
	return n
}

// Close stops the workers after the queued work finishes.
// Close is safe to call multiple times.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int {
	return p.workers
}
