// Package fleet tracks which buses are idle at the terminal.
package fleet

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnavailable is returned by Acquire when every bus is on a trip.
var ErrUnavailable = errors.New("no bus available")

// Pool holds bus ids 1..N. Acquire always hands out the lowest idle id.
type Pool struct {
	size int
	idle []int
	out  map[int]bool
}

// NewPool returns a pool with ids 1..size, all idle.
func NewPool(size int) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("fleet size must be positive, got %d", size)
	}
	p := &Pool{size: size, idle: make([]int, size), out: make(map[int]bool, size)}
	for i := range p.idle {
		p.idle[i] = i + 1
	}
	return p, nil
}

// Acquire removes and returns the lowest idle id.
func (p *Pool) Acquire() (int, error) {
	if len(p.idle) == 0 {
		return 0, ErrUnavailable
	}
	id := p.idle[0]
	p.idle = p.idle[1:]
	p.out[id] = true
	return id, nil
}

// Release returns id to the pool.
func (p *Pool) Release(id int) error {
	if id < 1 || id > p.size {
		return fmt.Errorf("bus %d does not belong to the fleet", id)
	}
	if !p.out[id] {
		return fmt.Errorf("bus %d is already idle", id)
	}
	delete(p.out, id)
	pos, _ := slices.BinarySearch(p.idle, id)
	p.idle = slices.Insert(p.idle, pos, id)
	return nil
}

// Available is the number of idle buses.
func (p *Pool) Available() int { return len(p.idle) }

// Out is the number of buses on a trip.
func (p *Pool) Out() int { return len(p.out) }

// Size is the fleet size N.
func (p *Pool) Size() int { return p.size }

// Idle returns a copy of the idle ids in acquisition order.
func (p *Pool) Idle() []int { return slices.Clone(p.idle) }
