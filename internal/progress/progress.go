// Package progress holds the shared accounting state for one download
// session. Every worker reports into a single Tracker under its lock;
// observers read snapshots or block on Wait until the next update.
package progress

import (
	"sync"
	"time"
)

// Tracker accumulates transferred bytes, throughput window samples and the
// first recorded fault across all workers of a session. The zero value is
// not usable, call NewTracker.
type Tracker struct {
	mu   sync.Mutex
	cond *sync.Cond

	started time.Time
	mark    time.Duration // elapsed at the previous window sample

	total      int64
	winBytes   int64
	winElapsed time.Duration
	winSamples int
	rate       float64 // last published window sample, bytes/sec

	err error
}

// Snapshot is a consistent copy of the tracker state taken under the lock.
type Snapshot struct {
	Total         int64
	WindowBytes   int64
	WindowElapsed time.Duration
	WindowSamples int
	Rate          float64
	Elapsed       time.Duration
	Err           error
}

func NewTracker() *Tracker {
	t := &Tracker{started: time.Now()}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// Credit records bytes recovered from disk rather than transferred. They
// raise the total but never produce a throughput sample.
func (t *Tracker) Credit(n int64) {
	t.mu.Lock()
	t.total += n
	t.cond.Broadcast()
	t.mu.Unlock()
}

// Add records one transferred chunk. The measurement window resets after
// every sample, so each published rate is an instantaneous per-chunk figure.
func (t *Tracker) Add(n int64) {
	t.mu.Lock()
	elapsed := time.Since(t.started)
	t.total += n
	t.winBytes += n
	t.winElapsed += elapsed - t.mark
	t.mark = elapsed
	t.winSamples++
	if t.winSamples == 1 {
		if secs := t.winElapsed.Seconds(); secs > 0 {
			t.rate = float64(t.winBytes) / secs
		}
		t.winBytes = 0
		t.winElapsed = 0
		t.winSamples = 0
	}
	t.cond.Broadcast()
	t.mu.Unlock()
}

// Fail stores err unless a fault is already recorded. The first fault wins;
// updates from still-running workers are accepted afterward.
func (t *Tracker) Fail(err error) {
	t.mu.Lock()
	if t.err == nil {
		t.err = err
	}
	t.cond.Broadcast()
	t.mu.Unlock()
}

func (t *Tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *Tracker) Total() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Wait blocks until the next update and returns the state as of that update.
func (t *Tracker) Wait() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cond.Wait()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() Snapshot {
	return Snapshot{
		Total:         t.total,
		WindowBytes:   t.winBytes,
		WindowElapsed: t.winElapsed,
		WindowSamples: t.winSamples,
		Rate:          t.rate,
		Elapsed:       time.Since(t.started),
		Err:           t.err,
	}
}
