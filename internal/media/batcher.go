// Package media coalesces Telegram media-group photos into one batch.
package media

import (
	"sync"
	"time"
)

// DefaultQuiet is the media-group debounce window. Telegram delivers album
// photos as separate updates, so the batch is committed only after the
// group has been quiet for this long.
const DefaultQuiet = 1500 * time.Millisecond

// FlushFunc receives the accumulated refs of one media group, in arrival
// order. It runs on the batcher's timer goroutine.
type FlushFunc func(refs []string)

type group struct {
	refs  []string
	flush FlushFunc
	timer *time.Timer
	gen   uint64
}

// Batcher buffers photo refs per media group and commits each group once
// after a quiet period. Photos without a group id bypass buffering.
type Batcher struct {
	mu     sync.Mutex
	quiet  time.Duration
	groups map[string]*group
	closed bool
}

// New constructs a Batcher. A non-positive quiet falls back to DefaultQuiet.
func New(quiet time.Duration) *Batcher {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	return &Batcher{quiet: quiet, groups: make(map[string]*group)}
}

// Add registers one photo ref. An empty groupID means the photo is not part
// of an album and flush is called synchronously with a single-element batch.
// Otherwise the ref is appended to its group, the group's flush callback is
// replaced with the latest one, and the quiet timer restarts. Add is a no-op
// after Close.
func (b *Batcher) Add(groupID, ref string, flush FlushFunc) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	if groupID == "" {
		b.mu.Unlock()
		flush([]string{ref})
		return
	}
	defer b.mu.Unlock()

	g, ok := b.groups[groupID]
	if !ok {
		g = &group{}
		b.groups[groupID] = g
	}
	g.refs = append(g.refs, ref)
	g.flush = flush
	g.gen++

	// A fired timer may be waiting on the mutex right now; bumping gen
	// above makes it a no-op, so a fresh timer is always safe here.
	if g.timer != nil {
		g.timer.Stop()
	}
	gen := g.gen
	g.timer = time.AfterFunc(b.quiet, func() {
		b.commit(groupID, gen)
	})
}

func (b *Batcher) commit(groupID string, gen uint64) {
	b.mu.Lock()
	g, ok := b.groups[groupID]
	if !ok || g.gen != gen {
		b.mu.Unlock()
		return
	}
	delete(b.groups, groupID)
	refs, flush := g.refs, g.flush
	b.mu.Unlock()

	flush(refs)
}

// Close stops all pending timers and drops buffered groups without
// flushing them.
func (b *Batcher) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, g := range b.groups {
		if g.timer != nil {
			g.timer.Stop()
		}
		delete(b.groups, id)
	}
}
