package link

import (
	"testing"

	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/pad"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/padproto"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/wire"
)

func TestSharedPadRejectsWrongLength(t *testing.T) {
	sp := NewSharedPad()
	if sp.OnResponseISR(padproto.CmdStatus, []byte{1, 2, 3}) {
		t.Fatalf("a 3-byte frame should be rejected for an 8-byte command")
	}
	if sp.Load().PublishCount != 0 {
		t.Fatalf("rejected frame should not advance PublishCount")
	}
}

func TestSharedPadPublishCountStrictlyIncreases(t *testing.T) {
	sp := NewSharedPad()
	body := wire.EncodeStatus(pad.State{Input: pad.Input{Analog: pad.NeutralAnalog()}}, pad.Mode3)

	if !sp.OnResponseISR(padproto.CmdStatus, body[:]) {
		t.Fatalf("valid status frame should be accepted")
	}
	first := sp.Load().PublishCount

	if !sp.OnResponseISR(padproto.CmdStatus, body[:]) {
		t.Fatalf("second valid status frame should be accepted")
	}
	second := sp.Load().PublishCount

	if second <= first {
		t.Fatalf("PublishCount should strictly increase: %d then %d", first, second)
	}
}

func TestSharedPadDecodesStickBytes(t *testing.T) {
	sp := NewSharedPad()
	state := pad.State{Input: pad.Input{Analog: pad.NeutralAnalog()}}
	state.Input.Analog.StickX = 0x42
	state.Input.Analog.StickY = 0x24
	body := wire.EncodeStatus(state, pad.Mode3)

	sp.OnResponseISR(padproto.CmdStatus, body[:])
	snap := sp.Load()

	if snap.Status.Input.Analog.StickX != 0x42 || snap.Status.Input.Analog.StickY != 0x24 {
		t.Fatalf("expected decoded stick (0x42,0x24), got (0x%02x,0x%02x)", snap.Status.Input.Analog.StickX, snap.Status.Input.Analog.StickY)
	}
	if snap.LastRxCommand != padproto.CmdStatus {
		t.Fatalf("expected LastRxCommand=CmdStatus, got %v", snap.LastRxCommand)
	}
}

func TestSharedPadHubTxPairPublish(t *testing.T) {
	hub := NewSharedPadHub()
	raw := padproto.NewReply(padproto.CmdStatus, []byte{1, 2})
	modified := padproto.NewReply(padproto.CmdStatus, []byte{3, 4})

	hub.PublishTx(5, raw, modified)

	var lastSeen uint32
	pair, ok := hub.ConsumeTxIfNew(&lastSeen)
	if !ok {
		t.Fatalf("expected a new TxPair")
	}
	if pair.RawPublishCount != 5 {
		t.Fatalf("expected RawPublishCount=5, got %d", pair.RawPublishCount)
	}

	_, ok = hub.ConsumeTxIfNew(&lastSeen)
	if ok {
		t.Fatalf("second consume with the same lastSeen should report no new data")
	}
}

func TestSharedConsoleStatusOnlyRepublishesOnChange(t *testing.T) {
	sc := &SharedConsole{}
	sc.OnRequestISR([]byte{byte(padproto.CmdStatus), byte(pad.Mode2), byte(pad.RumbleOn)})
	first := sc.Load()
	if first.PollMode != pad.Mode2 || first.RumbleMode != pad.RumbleOn {
		t.Fatalf("expected decoded status, got %+v", first)
	}

	// Same mode again — ConsoleState fields should be unchanged.
	sc.OnRequestISR([]byte{byte(padproto.CmdStatus), byte(pad.Mode2), byte(pad.RumbleOn)})
	second := sc.Load()
	if second != first {
		t.Fatalf("republishing the same mode should not change state: %+v vs %+v", second, first)
	}
}

func TestSharedConsoleResetIncrementsCounter(t *testing.T) {
	sc := &SharedConsole{}
	sc.OnRequestISR([]byte{byte(padproto.CmdReset)})
	sc.OnRequestISR([]byte{byte(padproto.CmdReset)})
	if got := sc.Load().ResetCount; got != 2 {
		t.Fatalf("expected ResetCount=2, got %d", got)
	}
}

func TestSharedConsoleSanitizesOutOfRangeModes(t *testing.T) {
	sc := &SharedConsole{}
	sc.OnRequestISR([]byte{byte(padproto.CmdStatus), 200, 200})
	state := sc.Load()
	if state.PollMode != pad.Mode3 {
		t.Fatalf("out-of-range poll byte should sanitize to Mode3, got %v", state.PollMode)
	}
	if state.RumbleMode != pad.RumbleOff {
		t.Fatalf("out-of-range rumble byte should sanitize to RumbleOff, got %v", state.RumbleMode)
	}
}

func TestPadConsoleLinkActiveHubSwitchesOnMeasuring(t *testing.T) {
	l := NewPadConsoleLink()
	if l.ActiveHub() != l.PadHub {
		t.Fatalf("expected PadHub active by default")
	}
	l.SetMeasuring(true)
	if l.ActiveHub() != l.MeasureHub {
		t.Fatalf("expected MeasureHub active once measuring")
	}
	l.SetMeasuring(false)
	if l.ActiveHub() != l.PadHub {
		t.Fatalf("expected PadHub active again after measuring is turned off")
	}
}

func TestPadConsoleLinkConnectionStateRoundTrip(t *testing.T) {
	l := NewPadConsoleLink()
	if l.ConnectionState() != StateDisconnected {
		t.Fatalf("expected StateDisconnected by default, got %v", l.ConnectionState())
	}
	l.SetConnectionState(StateReady)
	if l.ConnectionState() != StateReady {
		t.Fatalf("expected StateReady, got %v", l.ConnectionState())
	}
}

func TestEpochConsumeIsEdgeTriggered(t *testing.T) {
	var e Epoch
	var lastSeen uint32

	if e.Consume(&lastSeen) {
		t.Fatalf("a never-published epoch should not trigger")
	}

	e.PublishFromISR()
	if !e.Consume(&lastSeen) {
		t.Fatalf("expected the first publish to trigger")
	}
	if e.Consume(&lastSeen) {
		t.Fatalf("a second consume with no new publish should not trigger again")
	}

	e.PublishFromISR()
	e.PublishFromISR()
	if !e.Consume(&lastSeen) {
		t.Fatalf("expected two publishes to still trigger once")
	}
}
