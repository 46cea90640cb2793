// Package hostproto implements the framed binary protocol a PC-side tool
// speaks to the bridge over USB CDC serial to read and write its
// calibration record: the same sync-byte, command-byte, little-endian
// length, payload, CRC16-CCITT-trailer framing the lineage's pkg/protocol
// uses for its PC app channel, restricted to the commands the
// calibration domain needs. Entirely independent of the bus-protocol
// interrupt contexts: this runs on a cooperative goroutine reading from
// the serial port.
package hostproto

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/calibration"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/calstore"
)

const (
	SyncByte = 0xAA

	CmdGetCalibration = 0x01
	CmdSetCalibration = 0x02
	CmdFactoryReset   = 0x03
	CmdPing           = 0x04
	CmdGetVersion     = 0x05

	StatusOK              = 0x00
	StatusError           = 0x01
	StatusInvalidCmd      = 0x02
	StatusInvalidData     = 0x03
	StatusNotFound        = 0x04
	StatusVersionMismatch = 0x05
)

var (
	ErrInvalidFrame = errors.New("hostproto: invalid frame")
	ErrCRCMismatch  = errors.New("hostproto: CRC mismatch")
)

// Handler dispatches decoded Frames to the calibration store.
type Handler struct {
	store *calstore.Manager
}

// NewHandler returns a Handler backed by store.
func NewHandler(store *calstore.Manager) *Handler {
	return &Handler{store: store}
}

// Frame is a decoded request: [SYNC][CMD][LEN:2][PAYLOAD:LEN][CRC:2].
type Frame struct {
	Cmd     uint8
	Payload []byte
}

// Response is an encoded reply: [SYNC][STATUS][LEN:2][PAYLOAD:LEN][CRC:2].
type Response struct {
	Status  uint8
	Payload []byte
}

// ReadFrame reads and CRC-validates one frame from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	sync := make([]byte, 1)
	if _, err := io.ReadFull(r, sync); err != nil {
		return nil, err
	}
	if sync[0] != SyncByte {
		return nil, ErrInvalidFrame
	}

	header := make([]byte, 3)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	cmd := header[0]
	length := binary.LittleEndian.Uint16(header[1:])
	if length > 4096 {
		return nil, ErrInvalidFrame
	}

	var payload []byte
	if length > 0 {
		payload = make([]byte, length)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
	}

	crcBytes := make([]byte, 2)
	if _, err := io.ReadFull(r, crcBytes); err != nil {
		return nil, err
	}
	received := binary.LittleEndian.Uint16(crcBytes)
	calculated := calcCRC(append(header, payload...))
	if received != calculated {
		return nil, ErrCRCMismatch
	}

	return &Frame{Cmd: cmd, Payload: payload}, nil
}

// WriteResponse writes resp to w in wire format.
func WriteResponse(w io.Writer, resp *Response) error {
	payloadLen := uint16(len(resp.Payload))
	buf := make([]byte, 0, 6+int(payloadLen))
	buf = append(buf, SyncByte, resp.Status)
	lenBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(lenBytes, payloadLen)
	buf = append(buf, lenBytes...)
	buf = append(buf, resp.Payload...)
	crc := calcCRC(buf[1:])
	crcBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(crcBytes, crc)
	buf = append(buf, crcBytes...)
	_, err := w.Write(buf)
	return err
}

// WriteFrame writes frame to w in wire format (used by the host-side tool
// and by tests acting as the host).
func WriteFrame(w io.Writer, frame *Frame) error {
	payloadLen := uint16(len(frame.Payload))
	buf := make([]byte, 0, 6+int(payloadLen))
	buf = append(buf, SyncByte, frame.Cmd)
	lenBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(lenBytes, payloadLen)
	buf = append(buf, lenBytes...)
	buf = append(buf, frame.Payload...)
	crc := calcCRC(buf[1:])
	crcBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(crcBytes, crc)
	buf = append(buf, crcBytes...)
	_, err := w.Write(buf)
	return err
}

// Handle dispatches one decoded frame, returning the response to send.
func (h *Handler) Handle(frame *Frame) *Response {
	switch frame.Cmd {
	case CmdPing:
		return &Response{Status: StatusOK, Payload: frame.Payload}
	case CmdGetCalibration:
		return h.handleGetCalibration()
	case CmdSetCalibration:
		return h.handleSetCalibration(frame.Payload)
	case CmdFactoryReset:
		return h.handleFactoryReset()
	case CmdGetVersion:
		return h.handleGetVersion()
	default:
		return &Response{Status: StatusInvalidCmd}
	}
}

func (h *Handler) handleGetCalibration() *Response {
	rec, err := h.store.Load()
	if err != nil {
		if errors.Is(err, calstore.ErrNotFound) {
			return &Response{Status: StatusNotFound}
		}
		return &Response{Status: StatusError}
	}
	data, _ := rec.MarshalBinary()
	return &Response{Status: StatusOK, Payload: data}
}

func (h *Handler) handleSetCalibration(payload []byte) *Response {
	if len(payload) != calibration.RecordSize {
		return &Response{Status: StatusInvalidData}
	}
	var rec calibration.Record
	if err := rec.UnmarshalBinary(payload); err != nil {
		return &Response{Status: StatusInvalidData}
	}
	if rec.Version != 0 && rec.Version != calibration.CurrentVersion {
		return &Response{Status: StatusVersionMismatch}
	}
	if err := h.store.Save(rec); err != nil {
		return &Response{Status: StatusError}
	}
	return &Response{Status: StatusOK}
}

func (h *Handler) handleFactoryReset() *Response {
	if err := h.store.ForceWipe(); err != nil {
		return &Response{Status: StatusError}
	}
	return &Response{Status: StatusOK}
}

func (h *Handler) handleGetVersion() *Response {
	payload := make([]byte, 4)
	payload[0] = 0 // firmware major
	payload[1] = 1 // firmware minor
	binary.LittleEndian.PutUint16(payload[2:], calibration.CurrentVersion)
	return &Response{Status: StatusOK, Payload: payload}
}

// calcCRC computes CRC16-CCITT, polynomial 0x1021, init 0xFFFF.
func calcCRC(data []byte) uint16 {
	var crc uint16 = 0xFFFF
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
