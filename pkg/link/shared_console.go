package link

import (
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/pad"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/padproto"

	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/latch"
)

// ConsoleState is what the console has told the bridge about itself: the
// poll mode and rumble mode it last requested, and how many times it has
// issued a hard Reset. See §4.F.
type ConsoleState struct {
	PollMode   pad.PollMode
	RumbleMode pad.RumbleMode
	ResetCount uint16
}

// SharedConsole decodes the console's outgoing commands from the
// console-side receive interrupt and publishes a ConsoleState. Unlike
// SharedPad, most commands carry nothing worth publishing: only Status
// (poll/rumble mode) and Reset (the reset counter) change the state, and
// Status only republishes when the decoded mode actually differs from the
// last published one, so a console polling at 1kHz with a steady mode does
// not spam the latch.
type SharedConsole struct {
	shadow latch.Latch[ConsoleState]
}

// OnRequestISR inspects one command the console just sent to the bridge.
func (sc *SharedConsole) OnRequestISR(data []byte) {
	if len(data) == 0 {
		return
	}
	switch padproto.Command(data[0]) {
	case padproto.CmdStatus:
		if len(data) < 3 {
			return
		}
		poll := padproto.SanitizePollMode(data[1])
		rumble := padproto.SanitizeRumbleMode(data[2])
		cur := sc.shadow.Load()
		if cur.PollMode == poll && cur.RumbleMode == rumble {
			return
		}
		cur.PollMode = poll
		cur.RumbleMode = rumble
		sc.shadow.Publish(cur)
	case padproto.CmdReset:
		cur := sc.shadow.Load()
		cur.ResetCount++
		sc.shadow.Publish(cur)
	default:
		return
	}
}

// Load returns a copy of the most recently published ConsoleState.
func (sc *SharedConsole) Load() ConsoleState { return sc.shadow.Load() }
