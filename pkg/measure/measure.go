// Package measure implements the optional measurement injector (§4.J):
// a pattern generator that synthesizes pad.State values on a schedule,
// publishes them to a secondary hub in place of a real pad, and emits
// CRC-tagged CSV telemetry lines whenever the transmitted analog pair
// changes. The CRC and payload framing are grounded on the barcode
// validation harness in the original measurement tooling (frame counter,
// x, y, crc8-atm(poly=0x07, init=0x00) over those four bytes).
package measure

import "github.com/tuffrabit/tinygo-joybus-bridge/pkg/pad"

// Pattern is a test-pattern generator: reset returns it to its first
// sample, sample_and_advance writes the next sample into out and reports
// whether the pattern produced one (false means exhausted, for
// non-looping patterns).
type Pattern interface {
	Reset()
	SampleAndAdvance(out *pad.State, steps uint32) bool
}

// Uint8Range is an inclusive, steppable byte range.
type Uint8Range struct {
	Begin, End, Step uint8
}

// CountRange returns the number of values Step apart in [Begin, End], or
// 0 if the range is empty or Step is 0.
func CountRange(r Uint8Range) uint32 {
	if r.Step == 0 || r.Begin > r.End {
		return 0
	}
	span := uint32(r.End) - uint32(r.Begin)
	return span/uint32(r.Step) + 1
}

// SweepTarget selects which analog pair StickGridSweep writes.
type SweepTarget uint8

const (
	TargetJoystick SweepTarget = iota
	TargetCstick
	TargetTrigger // x -> l_analog, y -> r_analog
)

// StickGridSweep walks every (x, y) combination in two ranges, in
// row-major order, optionally looping. See original_source's
// stick_grid_sweep.hpp for the exact indexing this mirrors.
type StickGridSweep struct {
	X, Y   Uint8Range
	Loop   bool
	Target SweepTarget
	Base   pad.State

	xCount, yCount, total uint32
	index                 uint32
}

// NewStickGridSweep returns a sweep ready to use; Base defaults to the
// neutral pad state if left zero.
func NewStickGridSweep(x, y Uint8Range, loop bool, target SweepTarget) *StickGridSweep {
	s := &StickGridSweep{X: x, Y: y, Loop: loop, Target: target}
	s.Base.Input.Analog = pad.NeutralAnalog()
	s.xCount = CountRange(x)
	s.yCount = CountRange(y)
	if s.xCount != 0 && ^uint32(0)/s.xCount < s.yCount {
		s.total = ^uint32(0)
	} else {
		s.total = s.xCount * s.yCount
	}
	return s
}

func (s *StickGridSweep) Reset() { s.index = 0 }

// SampleAndAdvance implements Pattern. Every call rebuilds out from Base
// rather than incrementing the previous output, matching the original's
// "always assembled fresh, never incremented" contract.
func (s *StickGridSweep) SampleAndAdvance(out *pad.State, steps uint32) bool {
	if steps == 0 {
		steps = 1
	}
	if s.total == 0 {
		return false
	}

	outIndex := s.index + (steps - 1)
	if s.Loop {
		outIndex %= s.total
		s.index = (s.index + steps) % s.total
	} else {
		if outIndex >= s.total {
			return false
		}
		s.index += steps
	}

	xIndex := outIndex % s.xCount
	yIndex := outIndex / s.xCount
	x := uint32(s.X.Begin) + xIndex*uint32(s.X.Step)
	y := uint32(s.Y.Begin) + yIndex*uint32(s.Y.Step)

	*out = s.Base
	switch s.Target {
	case TargetJoystick:
		out.Input.Analog.StickX, out.Input.Analog.StickY = uint8(x), uint8(y)
	case TargetCstick:
		out.Input.Analog.CStickX, out.Input.Analog.CStickY = uint8(x), uint8(y)
	case TargetTrigger:
		out.Input.Analog.LAnalog, out.Input.Analog.RAnalog = uint8(x), uint8(y)
	}
	return true
}

// TotalSteps reports how many distinct points the sweep covers.
func (s *StickGridSweep) TotalSteps() uint32 { return s.total }

// CurrentIndex reports the index of the next point to be produced.
func (s *StickGridSweep) CurrentIndex() uint32 { return s.index }
