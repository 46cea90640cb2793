// Package serial drives the USB CDC port two ways: as the transport the
// host configuration protocol (pkg/hostproto) reads framed requests from
// and writes responses to, and as a logging.Sink for plain status lines.
// Adapted from the lineage's byte-at-a-time serial.Serial, which spoke a
// single line-echo protocol; this splits that into a proper io.Reader
// loop driving hostproto and a separate WriteLine path for log lines.
// Each response and each log line goes out in one Write call to the
// device; no lock orders the two paths against each other.
package serial

import (
	"machine"

	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/hostproto"
)

// Serial wraps a machine.Serialer as both an io.Reader/io.Writer pair for
// hostproto.ReadFrame/WriteResponse and a logging.Sink.
type Serial struct {
	dev machine.Serialer
}

// New wraps dev.
func New(dev machine.Serialer) *Serial {
	return &Serial{dev: dev}
}

// Read implements io.Reader by forwarding to the underlying device one
// byte at a time, matching how machine.Serialer actually delivers bytes
// on these targets.
func (s *Serial) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	b, err := s.dev.ReadByte()
	if err != nil {
		return 0, err
	}
	p[0] = b
	return 1, nil
}

// Write implements io.Writer.
func (s *Serial) Write(p []byte) (int, error) {
	return s.dev.Write(p)
}

// WriteLine implements logging.Sink.
func (s *Serial) WriteLine(line string) error {
	_, err := s.dev.Write([]byte(line + "\n"))
	return err
}

// Handle runs the host-protocol read loop forever: each complete,
// CRC-valid frame is dispatched to handler and the response written
// back. A malformed frame (bad sync byte, CRC mismatch, short read) is
// dropped silently and the loop resumes scanning for the next sync byte,
// since a framing error on a byte-oriented stream is not recoverable
// mid-frame.
func (s *Serial) Handle(handler *hostproto.Handler) {
	for {
		frame, err := hostproto.ReadFrame(s)
		if err != nil {
			continue
		}
		resp := handler.Handle(frame)
		hostproto.WriteResponse(s, resp)
	}
}
