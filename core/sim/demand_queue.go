package sim

import (
	"math"
	"time"

	"github.com/kilianp07/shuttle/core/model"
)

type queueKey struct {
	route, stop  string
	hour, minute int
}

// DemandQueue feeds boarding queues from predicted demand. A bus arriving at
// a stop sees what is left of the predicted count of the bucket that
// contains its arrival time; riders who boarded an earlier bus in the same
// bucket are gone. Buckets without records yield an empty queue. A
// DemandQueue holds the state of one run.
type DemandQueue struct {
	bucket int
	counts map[queueKey]int
}

// NewDemandQueue indexes the records of day into buckets of bucketMinutes.
func NewDemandQueue(records []model.DemandRecord, day time.Weekday, bucketMinutes int) *DemandQueue {
	if bucketMinutes <= 0 {
		bucketMinutes = 15
	}
	q := &DemandQueue{bucket: bucketMinutes, counts: make(map[queueKey]int)}
	for _, r := range records {
		if r.Day != day {
			continue
		}
		k := q.key(r.Route, r.Stop, r.Time())
		q.counts[k] += int(math.Ceil(r.Count))
	}
	return q
}

func (q *DemandQueue) key(route, stop string, t model.TimeOfDay) queueKey {
	m := (t.Minute() / q.bucket) * q.bucket
	return queueKey{route: route, stop: stop, hour: t.Hour(), minute: m}
}

// Queue implements QueueFeed.
func (q *DemandQueue) Queue(route, stop string, at model.TimeOfDay) int {
	return q.counts[q.key(route, stop, at)]
}

// Boarded implements BoardingFeed by removing n riders from the bucket.
func (q *DemandQueue) Boarded(route, stop string, at model.TimeOfDay, n int) {
	k := q.key(route, stop, at)
	left, ok := q.counts[k]
	if !ok {
		return
	}
	q.counts[k] = max(left-n, 0)
}
