package link

import (
	"sync/atomic"

	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/pipeline"
)

// ConnectionState tracks where PadClient's bus state machine is, for
// consumers (display, host protocol) that only care about the coarse
// phase rather than the exact boot sub-state. See §4.G and §4.H's
// PadClient lifecycle.
type ConnectionState uint32

const (
	StateDisconnected ConnectionState = iota
	StateBooting
	StateReady
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateBooting:
		return "booting"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// PadConsoleLink is the shared-state carrier threading together everything
// that crosses between the pad-facing port, the console-facing port, and
// the main loop: the two hubs (the live pad and, optionally, the
// measurement injector standing in for it), the console's published
// state, the per-reply-kind transform pipelines, the coarse connection
// state, and the edge-triggered epochs: ResetEpoch, OriginEpoch and
// RecalibrateEpoch are published by ConsoleClient when the console sends
// the matching request, and MeasureEpoch by the main loop when
// measurement mode is toggled. See §4.G.
type PadConsoleLink struct {
	PadHub     *SharedPadHub
	MeasureHub *SharedPadHub
	Console    *SharedConsole
	Pipelines  pipeline.Set

	connState atomic.Uint32

	ResetEpoch       Epoch
	OriginEpoch      Epoch
	RecalibrateEpoch Epoch
	MeasureEpoch     Epoch

	measuring atomic.Bool
}

// NewPadConsoleLink returns a link with both hubs and the console state
// allocated and ready to use.
func NewPadConsoleLink() *PadConsoleLink {
	return &PadConsoleLink{
		PadHub:     NewSharedPadHub(),
		MeasureHub: NewSharedPadHub(),
		Console:    &SharedConsole{},
	}
}

// SetConnectionState updates the coarse connection state. Safe to call
// from any context.
func (l *PadConsoleLink) SetConnectionState(s ConnectionState) {
	l.connState.Store(uint32(s))
}

// ConnectionState reads the coarse connection state.
func (l *PadConsoleLink) ConnectionState() ConnectionState {
	return ConnectionState(l.connState.Load())
}

// SetMeasuring toggles whether ConsoleClient should source replies from
// MeasureHub instead of PadHub.
func (l *PadConsoleLink) SetMeasuring(on bool) {
	l.measuring.Store(on)
}

// IsMeasuring reports the current source selection.
func (l *PadConsoleLink) IsMeasuring() bool {
	return l.measuring.Load()
}

// ActiveHub returns whichever hub ConsoleClient should currently read
// pad-facing replies from.
func (l *PadConsoleLink) ActiveHub() *SharedPadHub {
	if l.measuring.Load() {
		return l.MeasureHub
	}
	return l.PadHub
}
