package padproto

import (
	"testing"

	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/pad"
)

func TestExpectedReplySize(t *testing.T) {
	cases := []struct {
		cmd  Command
		want int
	}{
		{CmdId, IdReplySize},
		{CmdStatus, StatusReplySize},
		{CmdOrigin, OriginReplySize},
		{CmdRecalibrate, RecalibrateReplySize},
		{CmdReset, ResetReplySize},
		{CmdInvalid, 0},
	}
	for _, c := range cases {
		if got := ExpectedReplySize(c.cmd); got != c.want {
			t.Errorf("ExpectedReplySize(%v): expected %d, got %d", c.cmd, c.want, got)
		}
	}
}

func TestRequestSizeIsInverseShaped(t *testing.T) {
	cases := []struct {
		cmd  Command
		want int
	}{
		{CmdId, 1},
		{CmdOrigin, 1},
		{CmdReset, 1},
		{CmdStatus, 3},
		{CmdRecalibrate, 3},
		{CmdInvalid, 1},
	}
	for _, c := range cases {
		if got := RequestSize(c.cmd); got != c.want {
			t.Errorf("RequestSize(%v): expected %d, got %d", c.cmd, c.want, got)
		}
	}
}

func TestRequestSizeMatchesActualRequestLength(t *testing.T) {
	cases := []struct {
		cmd     Command
		request []byte
	}{
		{CmdId, RequestId()},
		{CmdOrigin, RequestOrigin()},
		{CmdReset, RequestReset()},
		{CmdRecalibrate, RequestRecalibrate()},
		{CmdStatus, RequestStatus(pad.Mode3, pad.RumbleOff)},
	}
	for _, c := range cases {
		if len(c.request) != RequestSize(c.cmd) {
			t.Errorf("%v: RequestSize=%d but actual request is %d bytes", c.cmd, RequestSize(c.cmd), len(c.request))
		}
	}
}

func TestIsValid(t *testing.T) {
	for _, cmd := range []Command{CmdId, CmdStatus, CmdOrigin, CmdRecalibrate, CmdReset} {
		if !IsValid(cmd) {
			t.Errorf("%v should be valid", cmd)
		}
	}
	if IsValid(CmdInvalid) {
		t.Errorf("CmdInvalid should not be valid")
	}
	if IsValid(Command(0x99)) {
		t.Errorf("unknown command byte should not be valid")
	}
}

func TestSanitizePollMode(t *testing.T) {
	if got := SanitizePollMode(2); got != pad.Mode2 {
		t.Errorf("expected Mode2, got %v", got)
	}
	if got := SanitizePollMode(200); got != pad.Mode3 {
		t.Errorf("out-of-range poll mode: expected fallback Mode3, got %v", got)
	}
}

func TestSanitizeRumbleMode(t *testing.T) {
	if got := SanitizeRumbleMode(1); got != pad.RumbleOn {
		t.Errorf("expected RumbleOn, got %v", got)
	}
	if got := SanitizeRumbleMode(200); got != pad.RumbleOff {
		t.Errorf("out-of-range rumble mode: expected fallback RumbleOff, got %v", got)
	}
}

func TestReplyTruncatesAtMaxSize(t *testing.T) {
	data := make([]byte, MaxReplySize+5)
	for i := range data {
		data[i] = byte(i)
	}
	r := NewReply(CmdStatus, data)
	if r.Length != MaxReplySize {
		t.Fatalf("expected truncation to %d, got length %d", MaxReplySize, r.Length)
	}
	if len(r.Slice()) != MaxReplySize {
		t.Fatalf("Slice length mismatch: %d", len(r.Slice()))
	}
}
