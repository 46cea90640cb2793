// Package padclient implements the main-loop-driven pad-side bus protocol
// state machine described in §4.H: it issues requests to the real pad
// over a port.Port and consumes the pad's responses as they land in a
// link.SharedPad via that port's receive-complete callback.
package padclient

import (
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/geometry"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/link"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/pad"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/padproto"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/port"
)

// State is one node of the boot/warm lifecycle.
type State int

const (
	Disconnected State = iota
	Resetting
	BootId
	BootOrigin
	BootRecalibrate
	WarmStatus
	Ready
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Resetting:
		return "resetting"
	case BootId:
		return "boot-id"
	case BootOrigin:
		return "boot-origin"
	case BootRecalibrate:
		return "boot-recalibrate"
	case WarmStatus:
		return "warm-status"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Timing parameters, in microseconds.
const (
	PadTimeoutUS   = 100000
	BootTimeoutUS  = 30000
	StatusPeriodUS = 0
	RetryDelayUS   = 0
)

// isTimeoutReached implements the wrap-safe signed comparison
// (now - deadline) >= 0, valid for all deadlines under 2^31us.
func isTimeoutReached(now, deadline uint32) bool {
	return int32(now-deadline) >= 0
}

// Client is the pad-side protocol state machine.
type Client struct {
	Hub  *link.SharedPadHub
	Port port.Port

	// Origin is the offset context the origin-normalize geometry stage
	// reads; Tick updates it whenever an Origin/Recalibrate reply lands.
	Origin *geometry.OriginOffset

	state State

	lastSeenUS       uint32
	haveLastSeen     bool
	lastPublishCount uint32

	awaiting          bool
	awaitCmd          padproto.Command
	awaitDeadline     uint32
	awaitPublishCount uint32

	nextStatusDueUS   uint32
	haveNextStatusDue bool
}

// New returns a Client wired to hub and p, starting Disconnected.
func New(hub *link.SharedPadHub, p port.Port) *Client {
	c := &Client{Hub: hub, Port: p}
	p.SetReceiveHandler(func(data []byte) {
		c.onReceive(data)
	})
	return c
}

func (c *Client) onReceive(data []byte) {
	cmd := c.awaitCmd
	c.Hub.Pad.OnResponseISR(cmd, data)
}

// State returns the current lifecycle state.
func (c *Client) State() State { return c.state }

// IsReady reports whether the pad has completed boot and can serve the
// console. This is the only state exposing readiness, per §4.H.
func (c *Client) IsReady() bool { return c.state == Ready }

func (c *Client) send(cmd padproto.Command, payload []byte, nowUS, timeoutUS uint32) bool {
	snap := c.Hub.Pad.Load()
	c.awaitCmd = cmd
	c.awaitPublishCount = snap.PublishCount
	c.awaitDeadline = nowUS + timeoutUS
	if expecter, ok := c.Port.(port.FrameExpecter); ok {
		expecter.Expect(padproto.ExpectedReplySize(cmd))
	}
	if !c.Port.Send(payload) {
		c.awaiting = false
		return false
	}
	c.awaiting = true
	return true
}

// replyArrived reports whether the awaited reply has landed: the hub's
// publish count has advanced past what it was when the request was sent,
// and the last decoded command matches what we are waiting for.
func (c *Client) replyArrived() (link.PadSnapshot, bool) {
	snap := c.Hub.Pad.Load()
	if snap.PublishCount == c.awaitPublishCount {
		return snap, false
	}
	if snap.LastRxCommand != c.awaitCmd {
		return snap, false
	}
	return snap, true
}

func requestFor(cmd padproto.Command, console link.ConsoleState) []byte {
	switch cmd {
	case padproto.CmdId:
		return padproto.RequestId()
	case padproto.CmdOrigin:
		return padproto.RequestOrigin()
	case padproto.CmdRecalibrate:
		return padproto.RequestRecalibrate()
	case padproto.CmdReset:
		return padproto.RequestReset()
	case padproto.CmdStatus:
		return padproto.RequestStatus(pad.Mode3, console.RumbleMode)
	default:
		return nil
	}
}

// Tick advances the state machine by one main-loop iteration. nowUS is a
// monotonic microsecond clock; console carries the current
// console-requested poll/rumble mode. resetEpochPending reports whether
// the caller consumed a new console reset epoch for this tick: it moves
// the machine to Resetting from any state other than Disconnected and
// Resetting, and a reset request seen in those two states is dropped
// rather than kept for a later tick.
func (c *Client) Tick(nowUS uint32, console link.ConsoleState, resetEpochPending bool) {
	snap := c.Hub.Pad.Load()
	if snap.PublishCount != c.lastPublishCount {
		c.lastSeenUS = nowUS
		c.haveLastSeen = true
	}
	c.lastPublishCount = snap.PublishCount

	if c.haveLastSeen && isTimeoutReached(nowUS, c.lastSeenUS+PadTimeoutUS) {
		if c.state != Disconnected {
			c.state = Disconnected
			c.haveNextStatusDue = false
			c.awaiting = false
		}
	}

	if resetEpochPending && c.state != Disconnected && c.state != Resetting {
		c.state = Resetting
		c.awaiting = false
	}

	switch c.state {
	case Disconnected:
		c.stepBoot(nowUS, console, padproto.CmdId, BootOrigin)
	case Resetting:
		if !c.awaiting {
			c.send(padproto.CmdReset, requestFor(padproto.CmdReset, console), nowUS, BootTimeoutUS)
			return
		}
		if snap, ok := c.replyArrived(); ok {
			_ = snap
			c.awaiting = false
			c.state = BootId
			return
		}
		if isTimeoutReached(nowUS, c.awaitDeadline) {
			c.awaiting = false
		}
	case BootId:
		c.stepBoot(nowUS, console, padproto.CmdId, BootOrigin)
	case BootOrigin:
		c.stepBootOrigin(nowUS, console, padproto.CmdOrigin, BootRecalibrate)
	case BootRecalibrate:
		c.stepBootOrigin(nowUS, console, padproto.CmdRecalibrate, WarmStatus)
	case WarmStatus:
		c.stepBoot(nowUS, console, padproto.CmdStatus, Ready)
	case Ready:
		c.stepReady(nowUS, console)
	}
}

// stepBoot handles a linear boot state that sends cmd and advances to
// next on a matching reply, aborting the wait (not the state) on
// deadline.
func (c *Client) stepBoot(nowUS uint32, console link.ConsoleState, cmd padproto.Command, next State) {
	if !c.awaiting {
		c.send(cmd, requestFor(cmd, console), nowUS, BootTimeoutUS)
		return
	}
	if _, ok := c.replyArrived(); ok {
		c.awaiting = false
		c.state = next
		return
	}
	if isTimeoutReached(nowUS, c.awaitDeadline) {
		c.awaiting = false
	}
}

// stepBootOrigin is stepBoot plus the origin-offset update hook for
// Origin/Recalibrate replies (§4.H).
func (c *Client) stepBootOrigin(nowUS uint32, console link.ConsoleState, cmd padproto.Command, next State) {
	if !c.awaiting {
		c.send(cmd, requestFor(cmd, console), nowUS, BootTimeoutUS)
		return
	}
	if snap, ok := c.replyArrived(); ok {
		c.awaiting = false
		if c.Origin != nil {
			c.Origin.Set(snap.Origin.Input.Analog.StickX, snap.Origin.Input.Analog.StickY)
		}
		c.state = next
		return
	}
	if isTimeoutReached(nowUS, c.awaitDeadline) {
		c.awaiting = false
	}
}

func (c *Client) stepReady(nowUS uint32, console link.ConsoleState) {
	if c.awaiting {
		if snap, ok := c.replyArrived(); ok {
			c.awaiting = false
			if snap.LastRxCommand == padproto.CmdOrigin || snap.LastRxCommand == padproto.CmdRecalibrate {
				if c.Origin != nil {
					c.Origin.Set(snap.Origin.Input.Analog.StickX, snap.Origin.Input.Analog.StickY)
				}
			}
			c.nextStatusDueUS = nowUS + StatusPeriodUS
			c.haveNextStatusDue = true
			return
		}
		if isTimeoutReached(nowUS, c.awaitDeadline) {
			c.awaiting = false
		}
		return
	}
	if c.haveNextStatusDue && !isTimeoutReached(nowUS, c.nextStatusDueUS) {
		return
	}
	c.send(padproto.CmdStatus, requestFor(padproto.CmdStatus, console), nowUS, BootTimeoutUS)
}
