package sim

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/kilianp07/shuttle/core/model"
)

// RandomSource draws uniform integers from [lo, hi], bounds included.
type RandomSource interface {
	Between(lo, hi int) int
}

type pcgSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandomSource returns a seeded source. A zero seed uses the wall clock.
func NewRandomSource(seed uint64) RandomSource {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &pcgSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *pcgSource) Between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.r.IntN(hi-lo+1)
}

// SequenceSource replays Values in order, wrapping around, clamped to the
// requested range. An empty sequence always yields lo.
type SequenceSource struct {
	Values []int
	next   int
}

// Between returns the next value clamped to [lo, hi].
func (s *SequenceSource) Between(lo, hi int) int {
	if len(s.Values) == 0 {
		return lo
	}
	v := s.Values[s.next%len(s.Values)]
	s.next++
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// QueueFeed returns the number of passengers waiting for route at stop when
// a bus arrives at the given time.
type QueueFeed interface {
	Queue(route, stop string, at model.TimeOfDay) int
}

// BoardingFeed is a QueueFeed that is told how many of the queued riders
// boarded, so later buses see a shorter queue.
type BoardingFeed interface {
	QueueFeed
	Boarded(route, stop string, at model.TimeOfDay, n int)
}

// DefaultMaxQueue bounds the uniform queue draw.
const DefaultMaxQueue = 50

// UniformQueue draws queue sizes uniformly from [0, Max].
type UniformQueue struct {
	Source RandomSource
	Max    int
}

// Queue implements QueueFeed.
func (u UniformQueue) Queue(string, string, model.TimeOfDay) int {
	return u.Source.Between(0, u.Max)
}
