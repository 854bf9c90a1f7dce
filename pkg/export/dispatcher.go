package export

import (
	"context"
	"time"

	"github.com/yaJ17/FootTraffic-Analyzer/internal/log"
)

// Dispatcher fans exported records out to sinks from its own goroutine, so a
// slow sink can never stall the frame-processing loop. The queue is bounded;
// when it is full the oldest queued record is dropped in favour of the new
// one, since stale occupancy numbers have no value.
type Dispatcher struct {
	sinks        []Sink
	queue        chan Stats
	writeTimeout time.Duration
	done         chan struct{}
}

// NewDispatcher creates a dispatcher over the given sinks with a bounded
// queue of the given size.
func NewDispatcher(sinks []Sink, queueSize int) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		sinks:        sinks,
		queue:        make(chan Stats, queueSize),
		writeTimeout: 5 * time.Second,
		done:         make(chan struct{}),
	}
}

// Enqueue hands a record to the dispatcher without blocking. Returns false
// if an older record had to be dropped to make room.
func (d *Dispatcher) Enqueue(s Stats) bool {
	for {
		select {
		case d.queue <- s:
			return true
		default:
		}
		// Queue full: evict the oldest and retry.
		select {
		case dropped := <-d.queue:
			log.Warn("export queue full, dropping oldest record",
				"stream", dropped.StreamID, "at", dropped.Timestamp)
		default:
		}
		select {
		case d.queue <- s:
			return false
		default:
			// Lost the race to another producer; loop again.
		}
	}
}

// Run delivers queued records until ctx is cancelled. Sink failures are
// logged and swallowed; the record for that tick is lost but nothing else is
// affected.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-d.queue:
			d.deliver(ctx, s)
		}
	}
}

// Done is closed when Run has returned.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

// Pending returns the number of records waiting in the queue.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

func (d *Dispatcher) deliver(ctx context.Context, s Stats) {
	for _, sink := range d.sinks {
		wctx, cancel := context.WithTimeout(ctx, d.writeTimeout)
		if err := sink.Write(wctx, s); err != nil {
			log.Error("sink write failed", "stream", s.StreamID, "error", err)
		}
		cancel()
	}
}
