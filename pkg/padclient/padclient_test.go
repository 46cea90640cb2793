package padclient

import (
	"testing"

	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/link"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/pad"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/padproto"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/port"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/wire"
)

func idReplyBody() []byte {
	body := wire.EncodeIdentity(pad.Identity{})
	return body[:]
}

func originReplyBody() []byte {
	body := wire.EncodeOrigin(pad.State{Input: pad.Input{Analog: pad.NeutralAnalog()}})
	return body[:]
}

func statusReplyBody() []byte {
	body := wire.EncodeStatus(pad.State{Input: pad.Input{Analog: pad.NeutralAnalog()}}, pad.Mode3)
	return body[:]
}

func TestIsTimeoutReachedWrapsSafely(t *testing.T) {
	if isTimeoutReached(100, 200) {
		t.Fatalf("deadline in the future should not be reached")
	}
	if !isTimeoutReached(200, 200) {
		t.Fatalf("deadline equal to now should be reached")
	}
	// now has wrapped past a huge deadline value; the signed-difference
	// trick should still treat a small forward gap as "not yet".
	var maxU32 uint32 = 0xFFFFFFFF
	if isTimeoutReached(10, maxU32-5) {
		t.Fatalf("small forward wraparound gap should not read as reached")
	}
}

func TestBootSequenceReachesReady(t *testing.T) {
	hub := link.NewSharedPadHub()
	p := port.NewLoopbackPort()
	c := New(hub, p)

	console := link.ConsoleState{PollMode: pad.Mode3}

	// Disconnected: the first tick should have sent an Id request.
	c.Tick(0, console, false)
	if c.State() != Disconnected {
		t.Fatalf("expected still Disconnected while awaiting the Id reply, got %v", c.State())
	}
	last := p.LastSent()
	if len(last) == 0 || padproto.Command(last[0]) != padproto.CmdId {
		t.Fatalf("expected an Id request sent, got %v", last)
	}

	p.Deliver(idReplyBody())
	c.Tick(1, console, false)
	if c.State() != BootOrigin {
		t.Fatalf("expected BootOrigin after Id reply, got %v", c.State())
	}

	c.Tick(2, console, false) // sends Origin request
	p.Deliver(originReplyBody())
	c.Tick(3, console, false)
	if c.State() != BootRecalibrate {
		t.Fatalf("expected BootRecalibrate after Origin reply, got %v", c.State())
	}

	c.Tick(4, console, false) // sends Recalibrate request
	p.Deliver(originReplyBody())
	c.Tick(5, console, false)
	if c.State() != WarmStatus {
		t.Fatalf("expected WarmStatus after Recalibrate reply, got %v", c.State())
	}

	c.Tick(6, console, false) // sends Status request
	p.Deliver(statusReplyBody())
	c.Tick(7, console, false)
	if c.State() != Ready {
		t.Fatalf("expected Ready after warm Status reply, got %v", c.State())
	}
	if !c.IsReady() {
		t.Fatalf("IsReady() should report true once Ready")
	}
}

func TestBootTimeoutRetriesWithoutChangingState(t *testing.T) {
	hub := link.NewSharedPadHub()
	p := port.NewLoopbackPort()
	c := New(hub, p)
	console := link.ConsoleState{}

	c.Tick(0, console, false)
	if len(p.Sent) != 1 {
		t.Fatalf("expected one request sent, got %d", len(p.Sent))
	}

	// No reply arrives; once the boot deadline passes, the tick that
	// crosses it clears the wait, and the following tick retries.
	c.Tick(BootTimeoutUS+1, console, false)
	if c.State() != Disconnected {
		t.Fatalf("expected to remain Disconnected across a boot timeout, got %v", c.State())
	}
	c.Tick(BootTimeoutUS+2, console, false)
	if len(p.Sent) != 2 {
		t.Fatalf("expected a retry request sent after timeout, got %d sends", len(p.Sent))
	}
}

func TestResetEpochForcesResettingFromReady(t *testing.T) {
	hub := link.NewSharedPadHub()
	p := port.NewLoopbackPort()
	c := New(hub, p)
	console := link.ConsoleState{}

	c.state = Ready
	c.Tick(0, console, true)
	if c.State() != Resetting {
		t.Fatalf("expected a pending reset epoch to force Resetting from Ready, got %v", c.State())
	}
}

func TestPadTimeoutDisconnectsFromReady(t *testing.T) {
	hub := link.NewSharedPadHub()
	p := port.NewLoopbackPort()
	c := New(hub, p)
	console := link.ConsoleState{}

	c.state = Ready
	c.haveLastSeen = true
	c.lastSeenUS = 0

	c.Tick(PadTimeoutUS+1, console, false)
	if c.State() != Disconnected {
		t.Fatalf("expected disconnect after PadTimeoutUS with no fresh pad activity, got %v", c.State())
	}
}
