// Package pipeline implements the fixed-capacity, ordered collection of
// enable-able transform stages applied to a pad.State from interrupt
// context. See §4.C.
//
// The original firmware represents a stage as a function pointer plus an
// opaque user context, because its systems language has no closures that
// can be stored in a plain-old-data array. Go's func values already close
// over their context with compiler-checked lifetimes, so a Stage here is
// simply a named func(*pad.State) — Design Notes §9 calls this out as an
// equally-valid encoding of the same contract.
package pipeline

import (
	"sync/atomic"

	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/pad"
)

// MaxStages is the fixed capacity of a Pipeline.
const MaxStages = 16

// StageFunc mutates a pad.State in place. Must not block or allocate; it
// may be invoked from interrupt context.
type StageFunc func(*pad.State)

// Stage is one named, individually enable-able transform.
type Stage struct {
	Name string
	Func StageFunc
}

// Pipeline is an append-only, ordered list of stages with a per-index
// atomic enabled mask. AddStage is intended to be called only during
// setup, from a single goroutine; SetEnabled and Apply are safe to call
// concurrently with each other and with AddStage calls that have already
// completed.
type Pipeline struct {
	stages [MaxStages]Stage
	count  int
	mask   atomic.Uint32
}

// AddStage appends stage, enabling it, and reports whether there was room.
func (p *Pipeline) AddStage(stage Stage) bool {
	if p.count >= MaxStages {
		return false
	}
	idx := p.count
	p.stages[idx] = stage
	p.count++
	for {
		old := p.mask.Load()
		if p.mask.CompareAndSwap(old, old|1<<uint(idx)) {
			break
		}
	}
	return true
}

// SetEnabled toggles whether the stage at index participates in Apply.
func (p *Pipeline) SetEnabled(index int, enabled bool) {
	if index < 0 || index >= p.count {
		return
	}
	bit := uint32(1) << uint(index)
	for {
		old := p.mask.Load()
		next := old &^ bit
		if enabled {
			next = old | bit
		}
		if p.mask.CompareAndSwap(old, next) {
			return
		}
	}
}

// IsEnabled reports whether the stage at index currently participates in
// Apply.
func (p *Pipeline) IsEnabled(index int) bool {
	if index < 0 || index >= p.count {
		return false
	}
	return p.mask.Load()&(1<<uint(index)) != 0
}

// Len returns the number of stages added so far.
func (p *Pipeline) Len() int { return p.count }

// Apply runs every currently-enabled stage, in insertion order, against
// state. Loads the mask once so a concurrent toggle mid-Apply cannot cause
// a stage to run twice or be skipped inconsistently within this call.
func (p *Pipeline) Apply(state *pad.State) {
	mask := p.mask.Load()
	for i := 0; i < p.count; i++ {
		if mask&(1<<uint(i)) != 0 {
			p.stages[i].Func(state)
		}
	}
}

// Set groups the five independent pipelines keyed by which reply they
// shape. Only Status, Origin and Recalibrate carry non-trivial stages in
// practice; ConsoleClient applies only those three, and Id and Reset
// replies go out untransformed.
type Set struct {
	Status      Pipeline
	Origin      Pipeline
	Recalibrate Pipeline
	Id          Pipeline
	Reset       Pipeline
}
