package port

import "machine"

// BusPort is the production Port binding for one direction of the
// half-duplex joybus line: a machine.UART configured for the bus's
// framing (8-N-1), read by a dedicated goroutine that accumulates bytes
// into a frame, then invokes the receive handler once per frame. This
// mirrors the RX-ring-buffer-plus-notify idiom real TinyGo UART drivers
// use for interrupt-delivered bytes, adapted to goroutine delivery per
// the "interrupt context is a synchronous callback on whatever caller
// delivers it" model (§5).
//
// The bus itself has no in-band frame delimiter, so BusPort supports the
// two ways its two callers know where a frame ends:
//
//   - The pad-facing side (PadClient) is the requester: it always knows
//     in advance exactly how many bytes the reply it is awaiting will be
//     (padproto.ExpectedReplySize(cmd)), so it calls Expect once per
//     request, right before Send.
//   - The console-facing side (ConsoleClient) is the responder: the
//     first byte of an incoming request is the command byte, which alone
//     determines the request's total length, so it calls SetLengthOf
//     once at setup with a function deriving that length.
//
// SetLengthOf, once set, takes priority: frame length is computed fresh
// from each frame's first byte rather than read from a pre-armed Expect.
type BusPort struct {
	uart *machine.UART

	frameLen  int
	lengthOf  func(first byte) int
	collected []byte

	rxHandler func([]byte)
	txHandler func()
}

// NewBusPort wraps an already-Configure'd UART.
func NewBusPort(uart *machine.UART) *BusPort {
	return &BusPort{uart: uart}
}

// Expect sets how many bytes the next frame should contain before Run
// delivers it to the receive handler. Ignored once SetLengthOf has been
// called.
func (p *BusPort) Expect(frameLen int) {
	p.frameLen = frameLen
	p.collected = p.collected[:0]
}

// SetLengthOf installs a function that derives a frame's total length
// from its first byte, for the responder side of the bus where the
// command byte alone determines request length.
func (p *BusPort) SetLengthOf(fn func(first byte) int) {
	p.lengthOf = fn
}

// Run reads bytes from the UART forever, delivering one accumulated
// frame at a time to the receive handler. Intended to run on its own
// goroutine; never returns.
func (p *BusPort) Run() {
	for {
		b, err := p.uart.ReadByte()
		if err != nil {
			continue
		}

		if len(p.collected) == 0 && p.lengthOf != nil {
			p.frameLen = p.lengthOf(b)
		}
		if p.frameLen <= 0 {
			p.collected = p.collected[:0]
			continue
		}

		p.collected = append(p.collected, b)
		if len(p.collected) >= p.frameLen {
			frame := p.collected
			p.collected = nil
			p.frameLen = 0
			if p.rxHandler != nil {
				p.rxHandler(frame)
			}
		}
	}
}

// Send implements Port. The bus has no transmit-busy state to collide
// with at this layer (the UART's own hardware FIFO absorbs back-to-back
// writes), so this never reports a collision.
func (p *BusPort) Send(data []byte) bool {
	if _, err := p.uart.Write(data); err != nil {
		return false
	}
	if p.txHandler != nil {
		p.txHandler()
	}
	return true
}

// SetReceiveHandler implements Port.
func (p *BusPort) SetReceiveHandler(h func(data []byte)) {
	p.rxHandler = h
}

// SetTransmitHandler implements Port.
func (p *BusPort) SetTransmitHandler(h func()) {
	p.txHandler = h
}
