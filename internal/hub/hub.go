package hub

import (
	"context"
	"sync"

	"github.com/heal-ops/heal/internal/aggregator"
	"github.com/heal-ops/heal/internal/loader"
	"github.com/heal-ops/heal/internal/logging"
)

const subscriberBuffer = 16

// Hub receives log batches, aggregates each into a fresh snapshot, and
// broadcasts the snapshot to all subscribers.
type Hub struct {
	servers     []string
	input       <-chan []loader.Batch
	mu          sync.RWMutex
	latest      *aggregator.Snapshot
	subscribers []chan *aggregator.Snapshot
	dropped     int64
}

// New creates a Hub that seeds every tree with knownServers.
func New(input <-chan []loader.Batch, knownServers []string) *Hub {
	return &Hub{
		servers: append([]string(nil), knownServers...),
		input:   input,
	}
}

// Subscribe returns a buffered channel that will receive every new snapshot.
func (h *Hub) Subscribe() <-chan *aggregator.Snapshot {
	ch := make(chan *aggregator.Snapshot, subscriberBuffer)
	h.mu.Lock()
	h.subscribers = append(h.subscribers, ch)
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (h *Hub) Unsubscribe(sub <-chan *aggregator.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, ch := range h.subscribers {
		if ch == sub {
			close(ch)
			h.subscribers = append(h.subscribers[:i], h.subscribers[i+1:]...)
			return
		}
	}
}

// Latest returns the most recent snapshot, or nil before the first pass.
func (h *Hub) Latest() *aggregator.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// Dropped returns the total number of snapshots dropped due to slow consumers.
func (h *Hub) Dropped() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// Start begins reading batches, aggregating, and broadcasting.
// Blocks until the context is cancelled or the input channel is closed.
func (h *Hub) Start(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case batches, ok := <-h.input:
			if !ok {
				return
			}
			if snap := h.aggregate(batches); snap != nil {
				h.publish(snap)
			}
		}
	}
}

// aggregate runs one pass. A failed pass keeps the previous snapshot.
func (h *Hub) aggregate(batches []loader.Batch) *aggregator.Snapshot {
	sources := make([]string, 0, len(batches))
	for _, b := range batches {
		sources = append(sources, b.Source)
	}

	snap, err := aggregator.Take(h.servers, sources, loader.Records(batches), loader.Skipped(batches))
	if err != nil {
		logging.Get().Error("aggregation pass failed", "sources", len(sources), "err", err)
		return nil
	}

	logging.Get().Debug("aggregation pass complete", "sources", len(sources), "records", snap.Records, "skipped", snap.Skipped)
	return snap
}

// publish stores snap and sends it to all subscribers.
// If a subscriber's channel is full, the snapshot is dropped for that subscriber.
func (h *Hub) publish(snap *aggregator.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = snap
	for _, ch := range h.subscribers {
		select {
		case ch <- snap:
		default:
			h.dropped++
			logging.Get().Warn("hub: dropped snapshot for slow consumer", "total_dropped", h.dropped)
		}
	}
}

// closeAll closes all subscriber channels.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subscribers {
		close(ch)
	}
	h.subscribers = nil
}
