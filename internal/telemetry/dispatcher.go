package telemetry

import (
	"context"
	"mcp-directory/internal/config"
	"mcp-directory/internal/data"
	"mcp-directory/internal/logger"
	"sync"
	"time"
)

// jobTimeout bounds a single store write made on behalf of a request.
const jobTimeout = 5 * time.Second

// Counters is the subset of the listing repository the dispatcher writes to.
type Counters interface {
	IncrementViewCount(ctx context.Context, listingID string)
	IncrementClickCount(ctx context.Context, listingID string)
}

// Recorder stores analytics events.
type Recorder interface {
	Record(ctx context.Context, event data.AnalyticsEvent)
}

type jobKind int

const (
	jobView jobKind = iota
	jobClick
	jobEvent
)

type job struct {
	kind      jobKind
	listingID string
	event     data.AnalyticsEvent
}

// Dispatcher moves view/click counters and analytics inserts off the request
// path. Its queue is bounded; when it is full new jobs are dropped.
type Dispatcher struct {
	counters Counters
	recorder Recorder
	log      logger.Logger

	jobs chan job
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts cfg.Workers goroutines draining a queue of cfg.QueueSize jobs.
func NewDispatcher(cfg config.TelemetryConfig, counters Counters, recorder Recorder, log logger.Logger) *Dispatcher {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = 1
	}

	d := &Dispatcher{
		counters: counters,
		recorder: recorder,
		log:      log,
		jobs:     make(chan job, size),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

// TrackView queues a view increment for listingID together with its analytics event.
func (d *Dispatcher) TrackView(listingID string, event data.AnalyticsEvent) {
	d.enqueue(job{kind: jobView, listingID: listingID})
	d.TrackEvent(event)
}

// TrackClick queues a click increment for listingID together with its analytics event.
func (d *Dispatcher) TrackClick(listingID string, event data.AnalyticsEvent) {
	d.enqueue(job{kind: jobClick, listingID: listingID})
	d.TrackEvent(event)
}

// TrackEvent queues an analytics insert.
func (d *Dispatcher) TrackEvent(event data.AnalyticsEvent) {
	d.enqueue(job{kind: jobEvent, event: event})
}

// enqueue never blocks the caller.
func (d *Dispatcher) enqueue(j job) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.jobs <- j:
	default:
		d.log.With(map[string]interface{}{"listing_id": j.listingID, "kind": j.kind}).
			Warn("Telemetry queue is full, dropping job")
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for j := range d.jobs {
		d.run(j)
	}
}

func (d *Dispatcher) run(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	switch j.kind {
	case jobView:
		d.counters.IncrementViewCount(ctx, j.listingID)
	case jobClick:
		d.counters.IncrementClickCount(ctx, j.listingID)
	case jobEvent:
		d.recorder.Record(ctx, j.event)
	}
}

// Close stops accepting jobs, then waits for the queued ones to finish or for
// ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
