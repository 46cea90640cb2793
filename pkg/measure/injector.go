package measure

import (
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/link"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/logging"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/pad"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/padproto"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/wire"
)

// crc8ATM computes the CRC-8 variant (poly 0x07, init 0x00) the original
// measurement tooling's barcode decoder verifies against.
func crc8ATM(data []byte) uint8 {
	crc := uint8(0)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// hexDigit returns the lowercase hex digit for v in [0, 15].
func hexDigit(v uint8) byte {
	if v < 10 {
		return '0' + v
	}
	return 'a' + (v - 10)
}

// appendCSVLine appends one telemetry line to dst in the form
// "D,<frame>,<x>,<y>,<crc8-hex>\n" and returns the extended slice. frame
// is the injector's own sample counter, not a bus frame number.
func appendCSVLine(dst []byte, frame uint16, x, y uint8) []byte {
	payload := [4]byte{byte(frame >> 8), byte(frame), x, y}
	crc := crc8ATM(payload[:])

	dst = append(dst, 'D', ',')
	dst = appendUint(dst, uint32(frame))
	dst = append(dst, ',')
	dst = appendUint(dst, uint32(x))
	dst = append(dst, ',')
	dst = appendUint(dst, uint32(y))
	dst = append(dst, ',')
	dst = append(dst, hexDigit(crc>>4), hexDigit(crc&0x0F))
	dst = append(dst, '\n')
	return dst
}

func appendUint(dst []byte, v uint32) []byte {
	if v == 0 {
		return append(dst, '0')
	}
	var buf [10]byte
	n := len(buf)
	for v > 0 {
		n--
		buf[n] = byte('0' + v%10)
		v /= 10
	}
	return append(dst, buf[n:]...)
}

// PadInjector drives a Pattern on a Schedule, publishing synthesized
// Status replies to a SharedPadHub in place of a real pad, and logging a
// CRC-tagged CSV line to a logging.Sink whenever the transmitted stick
// pair changes.
type PadInjector struct {
	Pattern   Pattern
	Schedule  Schedule
	Hub       *link.SharedPadHub
	Telemetry logging.Sink

	frame        uint16
	lastX, lastY uint8
	haveLast     bool
}

// Seed feeds one neutral Status/Origin/Recalibrate/Id/Reset reply into
// Hub so the console never observes an empty hub immediately after
// switching into measurement mode, mirroring the pad-facing hub's
// boot-time seeding behavior.
func (p *PadInjector) Seed() {
	neutral := pad.State{Input: pad.Input{Analog: pad.NeutralAnalog()}}
	statusBody := wire.EncodeStatus(neutral, pad.Mode3)
	p.Hub.Pad.OnResponseISR(padproto.CmdStatus, statusBody[:])
	originBody := wire.EncodeOrigin(neutral)
	p.Hub.Pad.OnResponseISR(padproto.CmdOrigin, originBody[:])
	p.Hub.Pad.OnResponseISR(padproto.CmdRecalibrate, originBody[:])
	idBody := wire.EncodeIdentity(pad.Identity{})
	p.Hub.Pad.OnResponseISR(padproto.CmdId, idBody[:])
	p.Hub.Pad.OnResponseISR(padproto.CmdReset, idBody[:])
	p.Schedule.Reset()
	p.haveLast = false
}

// Tick runs one main-loop iteration: if the schedule is due, it advances
// Pattern and publishes the result as a Status reply, logging telemetry
// on change.
func (p *PadInjector) Tick(nowUS uint32) {
	steps := p.Schedule.DueSteps(nowUS)
	if steps == 0 {
		return
	}

	var state pad.State
	state.Input.Analog = pad.NeutralAnalog()
	if !p.Pattern.SampleAndAdvance(&state, steps) {
		return
	}

	body := wire.EncodeStatus(state, pad.Mode3)
	p.Hub.Pad.OnResponseISR(padproto.CmdStatus, body[:])

	x, y := state.Input.Analog.StickX, state.Input.Analog.StickY
	if p.haveLast && x == p.lastX && y == p.lastY {
		return
	}
	p.lastX, p.lastY = x, y
	p.haveLast = true
	p.frame++

	if p.Telemetry == nil {
		return
	}
	line := appendCSVLine(nil, p.frame, x, y)
	p.Telemetry.WriteLine(string(line[:len(line)-1]))
}
