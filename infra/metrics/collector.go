package metrics

import (
	"context"
	"time"

	coremetrics "github.com/kilianp07/shuttle/core/metrics"
	"github.com/kilianp07/shuttle/core/sim"
	"github.com/kilianp07/shuttle/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records a trip for
// every return entry. It stops when the context is canceled or the bus is
// closed; done is closed once the collector has exited.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[sim.LogEntry], sink coremetrics.MetricsSink) (done <-chan struct{}) {
	finished := make(chan struct{})
	if bus == nil || sink == nil {
		close(finished)
		return finished
	}
	sub := bus.Subscribe()
	go func() {
		defer close(finished)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if ev.Kind != sim.EventReturn {
					continue
				}
				_ = coremetrics.RecordTripTo(sink, coremetrics.TripEvent{
					RunID:   ev.RunID,
					Route:   ev.Route,
					BusID:   ev.BusID,
					Minutes: ev.Elapsed,
					Time:    time.Now(),
				})
			}
		}
	}()
	return finished
}
