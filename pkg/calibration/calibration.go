// Package calibration defines the single persisted record a bridge keeps
// across power cycles: the operator's chosen stick origin, which
// geometry stages are enabled, and a response-curve selector
// (CorrectionCurve). main.go does not read CorrectionCurve: the
// inverse-LUT tables are always built from geometry.CurveIdentity.
// Binary layout follows the lineage's fixed-size, zero-allocation
// DeviceConfig/Profile convention.
package calibration

import (
	"encoding/binary"
	"errors"
)

// CurrentVersion is the calibration record format version. A mismatch on
// load means the stored record predates an incompatible layout change and
// should be wiped rather than interpreted.
const CurrentVersion uint16 = 1

// RecordSize is the fixed on-disk size of a Record, in bytes.
const RecordSize = 8

// ErrInvalidSize is returned when UnmarshalBinary is given fewer than
// RecordSize bytes.
var ErrInvalidSize = errors.New("calibration: invalid record size")

// Record is the persisted calibration state.
//
// Layout:
//
//	[0-1]: Version      (uint16)
//	[2]:   OriginX       (uint8)
//	[3]:   OriginY       (uint8)
//	[4-5]: StageMask      (uint16)
//	[6]:   CorrectionCurve (uint8)
//	[7]:   Reserved      (uint8)
type Record struct {
	Version         uint16
	OriginX         uint8
	OriginY         uint8
	StageMask       uint16
	CorrectionCurve uint8
	Reserved        uint8
}

// Default returns the record a bridge starts with before any calibration
// has ever been saved: center origin, every geometry stage enabled, and
// the identity correction curve.
func Default() Record {
	return Record{
		Version:         CurrentVersion,
		OriginX:         0x80,
		OriginY:         0x80,
		StageMask:       0xFFFF,
		CorrectionCurve: 0,
	}
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (r *Record) MarshalBinary() ([]byte, error) {
	buf := make([]byte, RecordSize)
	binary.LittleEndian.PutUint16(buf[0:], r.Version)
	buf[2] = r.OriginX
	buf[3] = r.OriginY
	binary.LittleEndian.PutUint16(buf[4:], r.StageMask)
	buf[6] = r.CorrectionCurve
	buf[7] = r.Reserved
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (r *Record) UnmarshalBinary(data []byte) error {
	if len(data) < RecordSize {
		return ErrInvalidSize
	}
	r.Version = binary.LittleEndian.Uint16(data[0:])
	r.OriginX = data[2]
	r.OriginY = data[3]
	r.StageMask = binary.LittleEndian.Uint16(data[4:])
	r.CorrectionCurve = data[6]
	r.Reserved = data[7]
	return nil
}
