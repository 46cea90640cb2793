// Package wire implements the bit-packed encode/decode logic for the three
// reply families the bus protocol carries: the status word shared by
// Status/Origin/Recalibrate, the per-polling-mode Status body, the 10-byte
// Origin/Recalibrate body, and the 3-byte Identity body. See §4.B.
package wire

import (
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/pad"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/padproto"
)

// Status word flag bits, little-endian within the 16-bit word. Button bits
// live at 0..4 and 8..14 and are carried directly by pad.Button's values.
const (
	statusOriginNotSent       uint16 = 1 << 5
	statusErrorLatched        uint16 = 1 << 6
	statusAlways1             uint16 = 1 << 7
	statusUseControllerOrigin uint16 = 1 << 15
	statusButtonMask          uint16 = 0x7F1F // bits 0-4 and 8-14
)

// EncodeStatusWord packs buttons and report flags into the little-endian
// status word. Bit 7 is always forced high, per the mandatory-bit rule.
func EncodeStatusWord(report pad.Report, buttons pad.Buttons) uint16 {
	word := uint16(buttons) & statusButtonMask
	if !report.OriginSent {
		word |= statusOriginNotSent
	}
	if report.ErrorLatched {
		word |= statusErrorLatched
	}
	if report.UseControllerOrigin {
		word |= statusUseControllerOrigin
	}
	word |= statusAlways1
	return word
}

// DecodeStatusWord unpacks a status word into its buttons and report flags.
// ErrorLast is not carried by the status word and is left at its zero value.
func DecodeStatusWord(word uint16) (pad.Report, pad.Buttons) {
	report := pad.Report{
		OriginSent:          word&statusOriginNotSent == 0,
		ErrorLatched:        word&statusErrorLatched != 0,
		UseControllerOrigin: word&statusUseControllerOrigin != 0,
	}
	return report, pad.Buttons(word & statusButtonMask)
}

// shrink8bitTo4bit keeps the top nibble of an 8-bit sample.
func shrink8bitTo4bit(v uint8) uint8 { return v >> 4 }

// expand4bitTo8bit restores an 8-bit sample from a nibble, preserving
// mid-range: 0x8 maps back to 0x80.
func expand4bitTo8bit(v4 uint8) uint8 { return (v4 & 0x0F) << 4 }

// pack4bitsToByte packs two nibbles into one byte, hi in the top nibble.
func pack4bitsToByte(hi, lo uint8) uint8 { return ((hi & 0x0F) << 4) | (lo & 0x0F) }

// packNibbles compresses two 8-bit samples to one byte, hi in the top nibble.
func packNibbles(hi, lo uint8) uint8 {
	return pack4bitsToByte(shrink8bitTo4bit(hi), shrink8bitTo4bit(lo))
}

// unpackNibbles expands one byte back into two approximate 8-bit samples.
func unpackNibbles(b uint8) (hi, lo uint8) {
	return expand4bitTo8bit(b >> 4), expand4bitTo8bit(b & 0x0F)
}

// EncodeStatusBody writes the 6 trailing bytes of a Status reply for the
// given polling mode, per the §4.B table.
func EncodeStatusBody(a pad.Analog, mode pad.PollMode) [6]byte {
	var b [6]byte
	switch mode {
	case pad.Mode0:
		b = [6]byte{a.StickX, a.StickY, a.CStickX, a.CStickY, packNibbles(a.LAnalog, a.RAnalog), packNibbles(a.AAnalog, a.BAnalog)}
	case pad.Mode1:
		b = [6]byte{a.StickX, a.StickY, packNibbles(a.CStickX, a.CStickY), a.LAnalog, a.RAnalog, packNibbles(a.AAnalog, a.BAnalog)}
	case pad.Mode2:
		b = [6]byte{a.StickX, a.StickY, packNibbles(a.CStickX, a.CStickY), packNibbles(a.LAnalog, a.RAnalog), a.AAnalog, a.BAnalog}
	case pad.Mode4:
		b = [6]byte{a.StickX, a.StickY, a.CStickX, a.CStickY, a.AAnalog, a.BAnalog}
	default: // Mode3 and any sanitize fallback
		b = [6]byte{a.StickX, a.StickY, a.CStickX, a.CStickY, a.LAnalog, a.RAnalog}
	}
	return b
}

// DecodeStatusBodyInto unpacks the 6 trailing bytes of a Status reply into
// the fields that the given polling mode carries, leaving all other fields
// of dst untouched (a real pad is always polled at a single pinned mode, so
// "untouched" fields simply keep whatever they held before).
func DecodeStatusBodyInto(dst *pad.Analog, body [6]byte, mode pad.PollMode) {
	switch mode {
	case pad.Mode0:
		dst.StickX, dst.StickY, dst.CStickX, dst.CStickY = body[0], body[1], body[2], body[3]
		dst.LAnalog, dst.RAnalog = unpackNibbles(body[4])
		dst.AAnalog, dst.BAnalog = unpackNibbles(body[5])
	case pad.Mode1:
		dst.StickX, dst.StickY = body[0], body[1]
		dst.CStickX, dst.CStickY = unpackNibbles(body[2])
		dst.LAnalog, dst.RAnalog = body[3], body[4]
		dst.AAnalog, dst.BAnalog = unpackNibbles(body[5])
	case pad.Mode2:
		dst.StickX, dst.StickY = body[0], body[1]
		dst.CStickX, dst.CStickY = unpackNibbles(body[2])
		dst.LAnalog, dst.RAnalog = unpackNibbles(body[3])
		dst.AAnalog, dst.BAnalog = body[4], body[5]
	case pad.Mode4:
		dst.StickX, dst.StickY, dst.CStickX, dst.CStickY = body[0], body[1], body[2], body[3]
		dst.AAnalog, dst.BAnalog = body[4], body[5]
	default: // Mode3
		dst.StickX, dst.StickY, dst.CStickX, dst.CStickY = body[0], body[1], body[2], body[3]
		dst.LAnalog, dst.RAnalog = body[4], body[5]
	}
}

// EncodeStatus builds the full 8-byte Status reply body (not including the
// command tag).
func EncodeStatus(s pad.State, mode pad.PollMode) [8]byte {
	var out [8]byte
	word := EncodeStatusWord(s.Report, s.Input.Buttons)
	out[0] = byte(word)
	out[1] = byte(word >> 8)
	body := EncodeStatusBody(s.Input.Analog, mode)
	copy(out[2:], body[:])
	return out
}

// DecodeStatus decodes an 8-byte Status reply body into a fresh State.
// Analog fields the given mode does not carry are left at their zero value;
// callers that need persistence across frames (SharedPad) should decode
// into an existing Input with DecodeStatusBodyInto instead.
func DecodeStatus(data [8]byte, mode pad.PollMode) pad.State {
	word := uint16(data[0]) | uint16(data[1])<<8
	report, buttons := DecodeStatusWord(word)
	var analog pad.Analog
	var body [6]byte
	copy(body[:], data[2:])
	DecodeStatusBodyInto(&analog, body, mode)
	return pad.State{Report: report, Input: pad.Input{Buttons: buttons, Analog: analog}}
}

// EncodeOrigin builds the full 10-byte Origin/Recalibrate reply body: the
// status word followed by all eight analog fields at full 8-bit precision.
func EncodeOrigin(s pad.State) [10]byte {
	var out [10]byte
	word := EncodeStatusWord(s.Report, s.Input.Buttons)
	out[0] = byte(word)
	out[1] = byte(word >> 8)
	a := s.Input.Analog
	out[2], out[3], out[4], out[5] = a.StickX, a.StickY, a.CStickX, a.CStickY
	out[6], out[7], out[8], out[9] = a.LAnalog, a.RAnalog, a.AAnalog, a.BAnalog
	return out
}

// DecodeOrigin decodes a 10-byte Origin/Recalibrate reply body. All eight
// analog fields are carried at full precision, so this is a lossless
// inverse of EncodeOrigin.
func DecodeOrigin(data [10]byte) pad.State {
	word := uint16(data[0]) | uint16(data[1])<<8
	report, buttons := DecodeStatusWord(word)
	analog := pad.Analog{
		StickX: data[2], StickY: data[3], CStickX: data[4], CStickY: data[5],
		LAnalog: data[6], RAnalog: data[7], AAnalog: data[8], BAnalog: data[9],
	}
	return pad.State{Report: report, Input: pad.Input{Buttons: buttons, Analog: analog}}
}

// Identity capability bits, byte 0/1, little-endian.
const (
	idCapIsWireless              uint16 = 1 << 15
	idCapSupportsWirelessReceive uint16 = 1 << 14
	idCapRumbleNotAvailable      uint16 = 1 << 13
	idCapIsGameCube              uint16 = 1 << 11
	idCapWirelessIsRF            uint16 = 1 << 10
	idCapWirelessStateFixed      uint16 = 1 << 9
	idCapIsStandardController    uint16 = 1 << 8
)

// Identity byte 2 bit map.
const (
	idPollModeMask    uint8 = 0x07 // bits [2:0]
	idRumbleModeShift uint8 = 3    // bits [4:3]
	idRumbleModeMask  uint8 = 0x03
	idOriginNotSent   uint8 = 1 << 5
	idErrorLatched    uint8 = 1 << 6
	idErrorLast       uint8 = 1 << 7
)

// EncodeIdentity builds the 3-byte Identity (and Reset) reply body.
func EncodeIdentity(id pad.Identity) [3]byte {
	var caps uint16
	c := id.Capabilities
	if c.IsWireless {
		caps |= idCapIsWireless
	}
	if c.SupportsWirelessReceive {
		caps |= idCapSupportsWirelessReceive
	}
	if !c.RumbleAvailable {
		caps |= idCapRumbleNotAvailable
	}
	if c.IsGameCube {
		caps |= idCapIsGameCube
	}
	if c.WirelessIsRF {
		caps |= idCapWirelessIsRF
	}
	if c.WirelessStateFixed {
		caps |= idCapWirelessStateFixed
	}
	if c.IsStandardController {
		caps |= idCapIsStandardController
	}

	rt := id.Runtime
	poll := padproto.SanitizePollMode(uint8(rt.PollMode))
	rumble := padproto.SanitizeRumbleMode(uint8(rt.RumbleMode))

	var byte2 uint8
	byte2 |= uint8(poll) & idPollModeMask
	byte2 |= (uint8(rumble) & idRumbleModeMask) << idRumbleModeShift
	if !rt.Report.OriginSent {
		byte2 |= idOriginNotSent
	}
	if rt.Report.ErrorLatched {
		byte2 |= idErrorLatched
	}
	if rt.Report.ErrorLast {
		byte2 |= idErrorLast
	}

	return [3]byte{byte(caps), byte(caps >> 8), byte2}
}

// UpdateIdentityFromIDBytes decodes a 3-byte Id/Reset reply into dst,
// refreshing both the capability bits and the runtime state. Capabilities
// are invariant in practice (the real pad reports the same bits every
// time) but there is no harm in re-applying them each time they arrive.
func UpdateIdentityFromIDBytes(dst *pad.Identity, data [3]byte) {
	caps := uint16(data[0]) | uint16(data[1])<<8
	dst.Capabilities = pad.Capabilities{
		IsWireless:              caps&idCapIsWireless != 0,
		SupportsWirelessReceive: caps&idCapSupportsWirelessReceive != 0,
		RumbleAvailable:         caps&idCapRumbleNotAvailable == 0,
		IsGameCube:              caps&idCapIsGameCube != 0,
		WirelessIsRF:            caps&idCapWirelessIsRF != 0,
		WirelessStateFixed:      caps&idCapWirelessStateFixed != 0,
		IsStandardController:    caps&idCapIsStandardController != 0,
	}

	byte2 := data[2]
	dst.Runtime = pad.Runtime{
		Report: pad.Report{
			OriginSent:   byte2&idOriginNotSent == 0,
			ErrorLatched: byte2&idErrorLatched != 0,
			ErrorLast:    byte2&idErrorLast != 0,
		},
		PollMode:   padproto.SanitizePollMode(byte2 & idPollModeMask),
		RumbleMode: padproto.SanitizeRumbleMode((byte2 >> idRumbleModeShift) & idRumbleModeMask),
	}
}
