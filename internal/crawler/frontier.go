package crawler

import (
	"context"
	"sync"
	"time"

	"github.com/aleister1102/jsenum/internal/models"
	"github.com/aleister1102/jsenum/internal/urlhandler"
)

// Frontier is the FIFO work queue plus the set of every URL key ever
// enqueued. One mutex guards the queue, the set and the in-flight counter, so
// the membership check and the insert are a single step.
type Frontier struct {
	mu         sync.Mutex
	queue      []models.WorkItem
	discovered map[string]struct{}
	inFlight   int
	// wake is closed and replaced whenever the queue grows or work finishes.
	wake chan struct{}
}

// NewFrontier creates an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		discovered: make(map[string]struct{}),
		wake:       make(chan struct{}),
	}
}

// TryEnqueue adds rawURL at depth unless its key was seen before.
func (f *Frontier) TryEnqueue(rawURL string, depth int) bool {
	_, ok := f.push(rawURL, depth)
	return ok
}

func (f *Frontier) push(rawURL string, depth int) (models.WorkItem, bool) {
	key := urlhandler.DedupKey(rawURL)

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, seen := f.discovered[key]; seen {
		return models.WorkItem{}, false
	}
	f.discovered[key] = struct{}{}

	item := models.WorkItem{
		URL:   rawURL,
		Key:   key,
		Depth: depth,
		Type:  urlhandler.Classify(rawURL),
	}
	f.queue = append(f.queue, item)
	f.broadcastLocked()
	return item, true
}

// Dequeue waits up to timeout for an item. It returns false at once when
// ctx is done or when the queue is empty with nothing in flight, since no
// more work can arrive then. A returned item counts as in flight until Done.
func (f *Frontier) Dequeue(ctx context.Context, timeout time.Duration) (models.WorkItem, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return models.WorkItem{}, false
		}

		f.mu.Lock()
		if len(f.queue) > 0 {
			item := f.queue[0]
			f.queue[0] = models.WorkItem{}
			f.queue = f.queue[1:]
			f.inFlight++
			f.mu.Unlock()
			return item, true
		}
		if f.inFlight == 0 {
			f.mu.Unlock()
			return models.WorkItem{}, false
		}
		wake := f.wake
		f.mu.Unlock()

		select {
		case <-ctx.Done():
			return models.WorkItem{}, false
		case <-timer.C:
			return models.WorkItem{}, false
		case <-wake:
		}
	}
}

// Done marks one dequeued item as finished.
func (f *Frontier) Done() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight > 0 {
		f.inFlight--
	}
	f.broadcastLocked()
}

// Drained reports whether the queue is empty and nothing is in flight.
func (f *Frontier) Drained() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue) == 0 && f.inFlight == 0
}

// Len returns the number of queued items.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// DiscoveredCount returns the number of distinct keys ever enqueued.
func (f *Frontier) DiscoveredCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.discovered)
}

func (f *Frontier) broadcastLocked() {
	close(f.wake)
	f.wake = make(chan struct{})
}
