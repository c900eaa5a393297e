package notify

import (
	"context"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"
	"github.com/hashicorp/go-hclog"
	"github.com/puzpuzpuz/xsync/v3"
)

// QueueUpdate is the invalidation hint delivered to subscribers. It
// carries no queue contents; receivers re-fetch the authoritative state
// through the queue-read API.
type QueueUpdate struct {
	Type       string `json:"type"`
	ResourceID string `json:"resource_id"`
}

const updateType = "queue_updated"

// Subscriber channels are buffered; a full buffer means the subscriber is
// not keeping up and the hint is dropped. Missing a hint is acceptable
// since the next re-fetch observes the current state anyway.
const subscriberBuffer = 8

var (
	hintsPublished = metrics.GetOrCreateCounter(`notify_hints_published_total`)
	hintsDropped   = metrics.GetOrCreateCounter(`notify_hints_dropped_total`)
)

// Hub fans queue-change hints out to in-process subscribers, keyed by
// resource id. Publish never blocks and never fails.
type Hub struct {
	subs   *xsync.MapOf[string, *xsync.MapOf[uint64, chan QueueUpdate]]
	nextID atomic.Uint64
	logger hclog.Logger
}

func NewHub(logger hclog.Logger) *Hub {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Hub{
		subs:   xsync.NewMapOf[string, *xsync.MapOf[uint64, chan QueueUpdate]](),
		logger: logger.Named("notify"),
	}
}

// Subscribe registers interest in one resource. The returned cancel
// function releases the subscription. The channel is never closed, so a
// concurrent Publish can never send on a closed channel; readers stop via
// their own context.
func (h *Hub) Subscribe(resourceID string) (<-chan QueueUpdate, func()) {
	group, _ := h.subs.LoadOrCompute(resourceID, func() *xsync.MapOf[uint64, chan QueueUpdate] {
		return xsync.NewMapOf[uint64, chan QueueUpdate]()
	})

	id := h.nextID.Add(1)
	ch := make(chan QueueUpdate, subscriberBuffer)
	group.Store(id, ch)

	cancel := func() {
		group.Delete(id)
	}
	return ch, cancel
}

// Publish delivers a hint to every subscriber of the resource. Slow
// subscribers are skipped rather than waited on.
func (h *Hub) Publish(_ context.Context, resourceID string) error {
	group, ok := h.subs.Load(resourceID)
	if !ok {
		return nil
	}

	update := QueueUpdate{Type: updateType, ResourceID: resourceID}
	group.Range(func(id uint64, ch chan QueueUpdate) bool {
		select {
		case ch <- update:
			hintsPublished.Inc()
		default:
			hintsDropped.Inc()
			h.logger.Debug("dropping queue hint for slow subscriber", "resource_id", resourceID, "subscriber", id)
		}
		return true
	})
	return nil
}
