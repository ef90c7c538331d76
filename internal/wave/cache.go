package wave

import (
	"sync"
	"sync/atomic"
)

// WindowReader supplies mono samples normalized to [-1, 1] for a half-open
// time window. A failed read yields an empty slice, never an error.
type WindowReader interface {
	ReadWindow(startMs, endMs int64) []float64
}

// sweepThreshold bounds how many entries may accumulate before stale epochs
// are physically evicted.
const sweepThreshold = 512

type cacheKey struct {
	line       int
	resolution int
}

type cacheEntry struct {
	env   Envelope
	epoch uint64
}

type decodeJob struct {
	key            cacheKey
	startMs, endMs int64
	epoch          uint64
}

// Cache memoizes per-line envelopes, each tagged with the layout epoch it was
// computed under. Entries from older epochs are never returned; they are
// swept lazily. Decoding runs on background workers so a lookup never blocks:
// a miss enqueues the window read and reports not-ready, and at most one
// decode is in flight per (line, resolution) key. A worker result is applied
// only if its origin epoch is still current, so a zoom change mid-decode
// cannot pollute the cache.
type Cache struct {
	reader  WindowReader
	epoch   atomic.Uint64
	onReady func(line int)

	mu       sync.Mutex
	entries  map[cacheKey]cacheEntry
	inflight map[cacheKey]struct{}

	jobs chan decodeJob
	quit chan struct{}
	wg   sync.WaitGroup
}

// NewCache starts the given number of decode workers (minimum 1). onReady, if
// non-nil, is called after an envelope lands in the cache; it runs on a
// worker goroutine and must not call back into the cache's owner lock.
func NewCache(reader WindowReader, workers int, onReady func(line int)) *Cache {
	if workers < 1 {
		workers = 1
	}
	c := &Cache{
		reader:   reader,
		onReady:  onReady,
		entries:  make(map[cacheKey]cacheEntry),
		inflight: make(map[cacheKey]struct{}),
		jobs:     make(chan decodeJob, 64),
		quit:     make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		c.wg.Add(1)
		go c.worker()
	}
	return c
}

// Close stops the workers. In-flight reads finish first.
func (c *Cache) Close() {
	close(c.quit)
	c.wg.Wait()
}

// SetEpoch installs the current layout epoch, logically invalidating every
// entry computed under an older one.
func (c *Cache) SetEpoch(epoch uint64) {
	c.epoch.Store(epoch)
}

// Get returns the envelope for a line at the given resolution if it is cached
// under the current epoch. On a miss or a stale hit it schedules a decode of
// [startMs, endMs) and reports ok=false; the caller renders a placeholder and
// retries on a later frame.
func (c *Cache) Get(line, resolution int, startMs, endMs int64) (Envelope, bool) {
	key := cacheKey{line: line, resolution: resolution}
	epoch := c.epoch.Load()

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && e.epoch == epoch {
		c.mu.Unlock()
		return e.env, true
	}
	if _, busy := c.inflight[key]; busy {
		c.mu.Unlock()
		return Envelope{}, false
	}
	c.inflight[key] = struct{}{}
	c.mu.Unlock()

	select {
	case c.jobs <- decodeJob{key: key, startMs: startMs, endMs: endMs, epoch: epoch}:
	default:
		// Queue full: drop the reservation so a later frame retries.
		c.mu.Lock()
		delete(c.inflight, key)
		c.mu.Unlock()
	}
	return Envelope{}, false
}

func (c *Cache) worker() {
	defer c.wg.Done()
	for {
		select {
		case <-c.quit:
			return
		case job := <-c.jobs:
			c.run(job)
		}
	}
}

func (c *Cache) run(job decodeJob) {
	samples := c.reader.ReadWindow(job.startMs, job.endMs)
	env := Extract(samples, job.key.resolution)

	applied := false
	c.mu.Lock()
	delete(c.inflight, job.key)
	if job.epoch == c.epoch.Load() {
		c.entries[job.key] = cacheEntry{env: env, epoch: job.epoch}
		applied = true
		if len(c.entries) > sweepThreshold {
			c.sweepLocked(job.epoch)
		}
	}
	c.mu.Unlock()

	if applied && c.onReady != nil {
		c.onReady(job.key.line)
	}
}

func (c *Cache) sweepLocked(epoch uint64) {
	for k, e := range c.entries {
		if e.epoch != epoch {
			delete(c.entries, k)
		}
	}
}
