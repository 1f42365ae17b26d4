package sim

import (
	"container/heap"
	"context"
)

// Process is a cooperative simulation process. Step runs the process until
// its next suspension point and returns how long it wants to wait before the
// next step. A process that returns done is never resumed.
type Process interface {
	Step(now float64) (wait float64, done bool)
}

// ProcessFunc adapts a function to the Process interface.
type ProcessFunc func(now float64) (float64, bool)

// Step calls f.
func (f ProcessFunc) Step(now float64) (float64, bool) { return f(now) }

const (
	priorityUrgent = iota
	priorityNormal
)

type event struct {
	at       float64
	priority int
	seq      uint64
	proc     Process
}

type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }
func (q eventQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	return q[i].seq < q[j].seq
}
func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *eventQueue) Push(x any)   { *q = append(*q, x.(*event)) }
func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

// Engine is a discrete-event scheduler. Events are ordered by timestamp, then
// by priority (process starts before timeouts), then by the order in which
// they were scheduled.
type Engine struct {
	now   float64
	seq   uint64
	queue eventQueue
	steps int
}

// NewEngine returns an engine with its clock at zero.
func NewEngine() *Engine { return &Engine{} }

// Now returns the current simulated time in minutes.
func (e *Engine) Now() float64 { return e.now }

// Steps returns the number of process steps executed so far.
func (e *Engine) Steps() int { return e.steps }

// Pending returns the number of scheduled events.
func (e *Engine) Pending() int { return len(e.queue) }

// Start schedules the first step of p at the current time.
func (e *Engine) Start(p Process) { e.schedule(e.now, priorityUrgent, p) }

func (e *Engine) schedule(at float64, priority int, p Process) {
	e.seq++
	heap.Push(&e.queue, &event{at: at, priority: priority, seq: e.seq, proc: p})
}

// Run processes events scheduled strictly before until. Processes still
// waiting at the horizon are abandoned. The clock ends at until.
func (e *Engine) Run(ctx context.Context, until float64) error {
	for len(e.queue) > 0 && e.queue[0].at < until {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev := heap.Pop(&e.queue).(*event)
		e.now = ev.at
		e.steps++
		wait, done := ev.proc.Step(e.now)
		if done {
			continue
		}
		if wait < 0 {
			wait = 0
		}
		e.schedule(e.now+wait, priorityNormal, ev.proc)
	}
	if until > e.now {
		e.now = until
	}
	return nil
}
