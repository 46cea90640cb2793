// Package link implements the shared-state carriers that let the pad-side
// receive interrupt, the console-side receive interrupt, and the main loop
// exchange data without blocking: SharedPad/SharedPadHub (§4.E),
// SharedConsole (§4.F), and the PadConsoleLink carrier (§4.G).
package link

import (
	"sync/atomic"

	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/pad"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/padproto"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/wire"

	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/latch"
)

// queryPollMode is the PollMode the pad side always polls in (§4.H), so a
// Status reply's body is always laid out this way regardless of what the
// pad's own identity byte reports for the console-facing poll mode.
const queryPollMode = pad.Mode3

// PadSnapshot is the hub's canonical description of the pad: the most
// recently decoded Status reply, the most recently decoded Origin or
// Recalibrate reply (both land in Origin), the pad's identity and a
// strictly-increasing generation counter.
type PadSnapshot struct {
	PublishCount  uint32
	LastRxCommand padproto.Command
	Identity      pad.Identity
	Status        pad.State
	Origin        pad.State
}

// SharedPad decodes pad replies from the pad-side receive interrupt and
// publishes a PadSnapshot for any number of readers.
type SharedPad struct {
	shadow     PadSnapshot
	publishSeq atomic.Uint32
	snapshot   latch.Latch[PadSnapshot]
}

// NewSharedPad returns a SharedPad with a zero-valued, unpublished shadow.
func NewSharedPad() *SharedPad {
	sp := &SharedPad{}
	sp.shadow.LastRxCommand = padproto.CmdInvalid
	return sp
}

// OnResponseISR decodes one pad reply. It validates the reply length
// against the command's expected size and drops silently on mismatch, per
// §7's "malformed pad reply" rule. Returns whether the frame was accepted.
func (sp *SharedPad) OnResponseISR(cmd padproto.Command, rx []byte) bool {
	want := padproto.ExpectedReplySize(cmd)
	if want == 0 || len(rx) != want {
		return false
	}

	switch cmd {
	case padproto.CmdStatus:
		var body [8]byte
		copy(body[:], rx)
		word := uint16(body[0]) | uint16(body[1])<<8
		report, buttons := wire.DecodeStatusWord(word)
		sp.shadow.Status.Report = report
		sp.shadow.Status.Input.Buttons = buttons
		var six [6]byte
		copy(six[:], rx[2:])
		wire.DecodeStatusBodyInto(&sp.shadow.Status.Input.Analog, six, queryPollMode)
	case padproto.CmdOrigin:
		var body [10]byte
		copy(body[:], rx)
		sp.shadow.Origin = wire.DecodeOrigin(body)
	case padproto.CmdRecalibrate:
		var body [10]byte
		copy(body[:], rx)
		sp.shadow.Origin = wire.DecodeOrigin(body)
	case padproto.CmdId, padproto.CmdReset:
		var body [3]byte
		copy(body[:], rx)
		wire.UpdateIdentityFromIDBytes(&sp.shadow.Identity, body)
	default:
		return false
	}

	sp.publishSeq.Add(1)
	sp.shadow.PublishCount = sp.publishSeq.Load()
	sp.shadow.LastRxCommand = cmd
	sp.snapshot.Publish(sp.shadow)
	return true
}

// Load returns a copy of the most recently published snapshot.
func (sp *SharedPad) Load() PadSnapshot { return sp.snapshot.Load() }

// TxPair is the last reply sent to the console, before and after the
// transform pipeline.
type TxPair struct {
	PublishCount    uint32
	RawPublishCount uint32
	Raw             padproto.Reply
	Modified        padproto.Reply
}

// SharedPadHub composes a SharedPad (the pad-side receive path) with a
// Latch<TxPair> recording the last reply the console side transmitted.
type SharedPadHub struct {
	Pad   *SharedPad
	tx    latch.Latch[TxPair]
	txSeq atomic.Uint32
}

// NewSharedPadHub returns a hub with a fresh SharedPad.
func NewSharedPadHub() *SharedPadHub {
	return &SharedPadHub{Pad: NewSharedPad()}
}

// PublishTx records the reply the console-side interrupt just sent,
// called from that interrupt context.
func (h *SharedPadHub) PublishTx(rawPublishCount uint32, raw, modified padproto.Reply) {
	h.txSeq.Add(1)
	h.tx.Publish(TxPair{
		PublishCount:    h.txSeq.Load(),
		RawPublishCount: rawPublishCount,
		Raw:             raw,
		Modified:        modified,
	})
}

// ConsumeTxIfNew reports whether a new TxPair has been published since
// *lastSeen, updating *lastSeen and returning the pair if so.
func (h *SharedPadHub) ConsumeTxIfNew(lastSeen *uint32) (TxPair, bool) {
	pair := h.tx.Load()
	if pair.PublishCount == *lastSeen {
		return TxPair{}, false
	}
	*lastSeen = pair.PublishCount
	return pair, true
}
