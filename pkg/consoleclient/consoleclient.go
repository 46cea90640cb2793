// Package consoleclient implements ConsoleClient, the console-side
// interrupt responder described in §4.I: invoked once per complete
// console-to-bridge frame, it runs entirely in interrupt context and must
// return a reply (or silence) within the bus inter-frame budget.
package consoleclient

import (
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/link"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/padproto"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/wire"
)

// Client wires a PadConsoleLink to a console-facing port's receive
// callback: Handle is the function a port.Port's SetReceiveHandler should
// be given.
type Client struct {
	Link *link.PadConsoleLink
}

// New returns a Client bound to l.
func New(l *link.PadConsoleLink) *Client {
	return &Client{Link: l}
}

// Handle processes one console request and returns the reply bytes to
// transmit (nil/empty means "no reply"). Intended to be called from the
// console-facing port's receive-complete callback.
func (c *Client) Handle(data []byte) []byte {
	c.Link.Console.OnRequestISR(data)

	if len(data) == 0 {
		return nil
	}

	hub := c.Link.ActiveHub()
	if c.Link.ConnectionState() != link.StateReady {
		return nil
	}

	snap := hub.Pad.Load()
	console := c.Link.Console.Load()

	cmd := padproto.Command(data[0])
	var raw, modified padproto.Reply

	switch cmd {
	case padproto.CmdStatus:
		rawBody := wire.EncodeStatus(snap.Status, console.PollMode)
		raw = padproto.NewReply(cmd, rawBody[:])

		out := snap.Status
		c.Link.Pipelines.Status.Apply(&out)
		modBody := wire.EncodeStatus(out, console.PollMode)
		modified = padproto.NewReply(cmd, modBody[:])

	case padproto.CmdOrigin:
		c.Link.OriginEpoch.PublishFromISR()
		rawBody := wire.EncodeOrigin(snap.Origin)
		raw = padproto.NewReply(cmd, rawBody[:])

		out := snap.Origin
		c.Link.Pipelines.Origin.Apply(&out)
		modBody := wire.EncodeOrigin(out)
		modified = padproto.NewReply(cmd, modBody[:])

	case padproto.CmdRecalibrate:
		c.Link.RecalibrateEpoch.PublishFromISR()
		rawBody := wire.EncodeOrigin(snap.Origin)
		raw = padproto.NewReply(cmd, rawBody[:])

		out := snap.Origin
		c.Link.Pipelines.Recalibrate.Apply(&out)
		modBody := wire.EncodeOrigin(out)
		modified = padproto.NewReply(cmd, modBody[:])

	case padproto.CmdId:
		id := snap.Identity
		id.Runtime.PollMode = console.PollMode
		id.Runtime.RumbleMode = console.RumbleMode
		rawBody := wire.EncodeIdentity(id)
		raw = padproto.NewReply(cmd, rawBody[:])
		modified = raw

	case padproto.CmdReset:
		c.Link.ResetEpoch.PublishFromISR()
		id := snap.Identity
		id.Runtime.PollMode = console.PollMode
		id.Runtime.RumbleMode = console.RumbleMode
		rawBody := wire.EncodeIdentity(id)
		raw = padproto.NewReply(cmd, rawBody[:])
		modified = raw

	default:
		return nil
	}

	hub.PublishTx(snap.PublishCount, raw, modified)
	return modified.Slice()
}
