package sim

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder appends "<name>@<now>" on every step and then waits the next
// delay from its script.
type recorder struct {
	name  string
	waits []float64
	out   *[]string
}

func (r *recorder) Step(now float64) (float64, bool) {
	*r.out = append(*r.out, r.name+"@"+formatMinutes(now))
	if len(r.waits) == 0 {
		return 0, true
	}
	w := r.waits[0]
	r.waits = r.waits[1:]
	return w, false
}

func formatMinutes(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func TestEngineOrdersByTimeThenSequence(t *testing.T) {
	var out []string
	e := NewEngine()
	e.Start(&recorder{name: "a", waits: []float64{2, 1}, out: &out})
	e.Start(&recorder{name: "b", waits: []float64{1, 2}, out: &out})
	require.NoError(t, e.Run(context.Background(), 10))
	// Both wake at t=3; b scheduled its timeout first.
	assert.Equal(t, []string{"a@0", "b@0", "b@1", "a@2", "b@3", "a@3"}, out)
	assert.Equal(t, 10.0, e.Now())
	assert.Equal(t, 0, e.Pending())
}

func TestEngineStartIsUrgent(t *testing.T) {
	var out []string
	e := NewEngine()
	step := 0
	spawner := ProcessFunc(func(now float64) (float64, bool) {
		step++
		out = append(out, "s@"+formatMinutes(now))
		if step == 1 {
			return 1, false
		}
		// Spawned at t=1 while a timeout is pending at t=1.
		e.Start(&recorder{name: "c", out: &out})
		return 0, true
	})
	e.Start(spawner)
	e.Start(&recorder{name: "t", waits: []float64{1}, out: &out})
	require.NoError(t, e.Run(context.Background(), 5))
	assert.Equal(t, []string{"s@0", "t@0", "s@1", "c@1", "t@1"}, out)
}

func TestEngineHorizonIsExclusive(t *testing.T) {
	var out []string
	e := NewEngine()
	e.Start(&recorder{name: "a", waits: []float64{5, 5}, out: &out})
	require.NoError(t, e.Run(context.Background(), 5))
	assert.Equal(t, []string{"a@0"}, out)
	assert.Equal(t, 1, e.Pending())
}

func TestEngineContextCancelled(t *testing.T) {
	var out []string
	e := NewEngine()
	e.Start(&recorder{name: "a", waits: []float64{1}, out: &out})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, e.Run(ctx, 5), context.Canceled)
	assert.Empty(t, out)
}
