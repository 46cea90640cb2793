// Package padproto implements the bus-level request/reply protocol spoken
// between the bridge and both the console and the real pad: command bytes,
// frame sizes, enum sanitization, and the fixed-capacity Reply buffer.
//
// Frame format on the bus is simply:
//
//	[CMD:1][ARGS...]  (request, 1..3 bytes)
//	[BYTES...]        (reply, up to MaxReplySize bytes, no header)
//
// There is no sync byte and no CRC on the bus itself — that framing belongs
// to the physical Port, which strips the bus stop bit before delivering the
// byte slice to this package's callers. See pkg/hostproto for the unrelated,
// CRC-checked host configuration channel.
package padproto

import "github.com/tuffrabit/tinygo-joybus-bridge/pkg/pad"

// Command is the discriminated set of requests the console (or the bridge,
// impersonating a console toward the real pad) may issue.
type Command uint8

const (
	CmdId          Command = 0x00
	CmdStatus      Command = 0x40
	CmdOrigin      Command = 0x41
	CmdRecalibrate Command = 0x42
	CmdReset       Command = 0xFF
	// CmdInvalid is the "nothing awaited" sentinel; never sent on the wire.
	CmdInvalid Command = 0xAA
)

// IsValid reports whether cmd is one of the known request commands.
func IsValid(cmd Command) bool {
	switch cmd {
	case CmdId, CmdStatus, CmdOrigin, CmdRecalibrate, CmdReset:
		return true
	default:
		return false
	}
}

// Expected reply sizes per command, per §4.B.
const (
	IdReplySize          = 3
	StatusReplySize      = 8
	OriginReplySize      = 10
	RecalibrateReplySize = 10
	ResetReplySize       = 3
	MaxReplySize         = 10
)

// ExpectedReplySize returns the exact reply length required for cmd, or 0
// if cmd has no defined reply.
func ExpectedReplySize(cmd Command) int {
	switch cmd {
	case CmdId:
		return IdReplySize
	case CmdStatus:
		return StatusReplySize
	case CmdOrigin:
		return OriginReplySize
	case CmdRecalibrate:
		return RecalibrateReplySize
	case CmdReset:
		return ResetReplySize
	default:
		return 0
	}
}

// RequestSize returns the exact request length a command byte implies —
// the inverse of ExpectedReplySize, used by the console-facing port to
// know where one incoming request frame ends. Unknown command bytes are
// treated as 1-byte requests so the port resynchronizes on the next byte.
func RequestSize(cmd Command) int {
	switch cmd {
	case CmdId, CmdOrigin, CmdReset:
		return 1
	case CmdStatus, CmdRecalibrate:
		return 3
	default:
		return 1
	}
}

// SanitizePollMode clamps an out-of-range wire byte to the defined fallback
// (Mode3), per §7's "invalid enum byte on decode" rule.
func SanitizePollMode(v uint8) pad.PollMode {
	if v > uint8(pad.Mode4) {
		return pad.Mode3
	}
	return pad.PollMode(v)
}

// SanitizeRumbleMode clamps an out-of-range wire byte to the defined
// fallback (Off).
func SanitizeRumbleMode(v uint8) pad.RumbleMode {
	if v > uint8(pad.RumbleBrake) {
		return pad.RumbleOff
	}
	return pad.RumbleMode(v)
}

// Reply is an owned, fixed-capacity byte buffer: a command tag plus up to
// MaxReplySize bytes. Trivially copyable, matching §3's Reply definition.
type Reply struct {
	Command Command
	Length  uint8
	Bytes   [MaxReplySize]byte
}

// NewReply builds a Reply from a command and a byte slice, truncating
// silently at MaxReplySize (callers never exceed it; encoders are sized to
// match their command exactly).
func NewReply(cmd Command, data []byte) Reply {
	r := Reply{Command: cmd}
	n := len(data)
	if n > MaxReplySize {
		n = MaxReplySize
	}
	r.Length = uint8(n)
	copy(r.Bytes[:n], data[:n])
	return r
}

// Slice returns the reply's payload as a byte slice sharing the Reply's
// backing array.
func (r *Reply) Slice() []byte { return r.Bytes[:r.Length] }

// Requests — the fixed byte sequences sent by a requester (console or, when
// the bridge drives the real pad, the bridge itself).

// RequestId is the 1-byte Id request.
func RequestId() []byte { return []byte{byte(CmdId)} }

// RequestOrigin is the 1-byte Origin request.
func RequestOrigin() []byte { return []byte{byte(CmdOrigin)} }

// RequestReset is the 1-byte Reset request.
func RequestReset() []byte { return []byte{byte(CmdReset)} }

// RequestRecalibrate is the 3-byte Recalibrate request; its trailing two
// bytes are always zero.
func RequestRecalibrate() []byte { return []byte{byte(CmdRecalibrate), 0x00, 0x00} }

// RequestStatus is the 3-byte Status request carrying the requested poll
// and rumble modes.
func RequestStatus(poll pad.PollMode, rumble pad.RumbleMode) []byte {
	return []byte{byte(CmdStatus), uint8(poll), uint8(rumble)}
}
