// Package replay implements the experience replay store used by the DQN
// agent: a fixed-capacity ring of transitions with uniform sampling.
package replay

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrInsufficientData is returned by Sample when the store holds fewer
// transitions than requested.
var ErrInsufficientData = errors.New("replay: insufficient data")

// Transition is one environment step as seen by the learner.
type Transition struct {
	State     []float64
	Action    int
	Reward    float64
	NextState []float64
	Done      bool
}

// Batch holds a sample as five parallel slices, in draw order.
type Batch struct {
	States     [][]float64
	Actions    []int
	Rewards    []float64
	NextStates [][]float64
	Dones      []bool
}

// Len returns the number of transitions in the batch.
func (b Batch) Len() int { return len(b.Actions) }

// Buffer is a FIFO ring of transitions. It is not safe for concurrent use;
// the episode controller is its only writer and reader.
type Buffer struct {
	items []Transition
	next  int // slot written by the next Append
	size  int
	rng   *rand.Rand
}

// NewBuffer returns an empty buffer holding at most capacity transitions.
func NewBuffer(capacity int, rng *rand.Rand) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("replay: capacity must be positive, got %d", capacity)
	}
	if rng == nil {
		return nil, errors.New("replay: random source is required")
	}
	return &Buffer{
		items: make([]Transition, capacity),
		rng:   rng,
	}, nil
}

// Append stores t, evicting the oldest transition when the buffer is full.
// The state vectors are copied so later changes by the caller are not seen.
func (b *Buffer) Append(t Transition) {
	t.State = clone(t.State)
	t.NextState = clone(t.NextState)

	b.items[b.next] = t
	b.next = (b.next + 1) % len(b.items)
	if b.size < len(b.items) {
		b.size++
	}
}

// Len returns the number of stored transitions.
func (b *Buffer) Len() int { return b.size }

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int { return len(b.items) }

// Sample draws n distinct transitions uniformly at random without
// replacement. The store itself is left untouched.
func (b *Buffer) Sample(n int) (Batch, error) {
	if n <= 0 {
		return Batch{}, fmt.Errorf("replay: sample size must be positive, got %d", n)
	}
	if b.size < n {
		return Batch{}, fmt.Errorf("%w: have %d, need %d", ErrInsufficientData, b.size, n)
	}

	// Partial Fisher-Yates over the logical positions 0..size-1.
	idx := make([]int, b.size)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < n; i++ {
		j := i + b.rng.Intn(b.size-i)
		idx[i], idx[j] = idx[j], idx[i]
	}

	batch := Batch{
		States:     make([][]float64, n),
		Actions:    make([]int, n),
		Rewards:    make([]float64, n),
		NextStates: make([][]float64, n),
		Dones:      make([]bool, n),
	}
	for i := 0; i < n; i++ {
		t := b.at(idx[i])
		batch.States[i] = clone(t.State)
		batch.Actions[i] = t.Action
		batch.Rewards[i] = t.Reward
		batch.NextStates[i] = clone(t.NextState)
		batch.Dones[i] = t.Done
	}
	return batch, nil
}

// at maps a logical position (0 = oldest) onto the ring.
func (b *Buffer) at(pos int) Transition {
	start := 0
	if b.size == len(b.items) {
		start = b.next
	}
	return b.items[(start+pos)%len(b.items)]
}

func clone(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
