// Package geometry implements the four stick-geometry transform stages
// (origin-normalize, octagon-clamp, linear-scale, inverse-LUT) described in
// §4.D, each returned as a pipeline.Stage (a named pipeline.StageFunc) so
// they can be registered directly into a pipeline.Pipeline.
package geometry

import (
	"sync/atomic"

	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/pad"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/pipeline"
)

func clampByte(v int32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// OriginOffset is the atomic (origin_x, origin_y) pair the origin-normalize
// stage reads. Written by the main loop whenever the pad reports a fresh
// Origin or Recalibrate; read from interrupt context on every Status reply.
type OriginOffset struct {
	x atomic.Uint32
	y atomic.Uint32
}

// NewOriginOffset returns an OriginOffset defaulted to center (0x80, 0x80).
func NewOriginOffset() *OriginOffset {
	o := &OriginOffset{}
	o.Set(pad.AxisCenter, pad.AxisCenter)
	return o
}

// Set updates both axes.
func (o *OriginOffset) Set(x, y uint8) {
	o.x.Store(uint32(x))
	o.y.Store(uint32(y))
}

// Get reads both axes.
func (o *OriginOffset) Get() (x, y uint8) {
	return uint8(o.x.Load()), uint8(o.y.Load())
}

// OriginNormalize returns a stage that aligns the pad's real neutral stick
// position to the protocol's neutral (0x80, 0x80), per the offset context.
func OriginNormalize(ctx *OriginOffset) pipeline.Stage {
	return pipeline.Stage{
		Name: "origin-normalize",
		Func: func(s *pad.State) {
			ox, oy := ctx.Get()
			a := &s.Input.Analog
			a.StickX = clampByte(int32(a.StickX) - int32(ox) + 128)
			a.StickY = clampByte(int32(a.StickY) - int32(oy) + 128)
		},
	}
}

// Q15 fixed-point constants for the octagon clamp: cos(pi/8) and sin(pi/8)
// scaled by 2^15, and the apothem-125 half-plane threshold.
const (
	cosPiOver8Q15     int64 = 30274
	sinPiOver8Q15     int64 = 12540
	octagonApothemQ15 int64 = 125 * cosPiOver8Q15
)

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// OctagonClampPoint projects a centered point onto the regular octagon of
// apothem 125 if it lies outside it, returning the (possibly unchanged)
// centered point. Exported separately from the Stage so both the pipeline
// stage and the response-curve builder (and tests) can call it directly.
func OctagonClampPoint(px, py int32) (int32, int32) {
	if px == 0 && py == 0 {
		return 0, 0
	}
	c, s := cosPiOver8Q15, sinPiOver8Q15
	x64, y64 := int64(px), int64(py)
	m1 := absInt64(c*x64 + s*y64)
	m2 := absInt64(c*x64 - s*y64)
	m3 := absInt64(s*x64 + c*y64)
	m4 := absInt64(s*x64 - c*y64)
	m := m1
	if m2 > m {
		m = m2
	}
	if m3 > m {
		m = m3
	}
	if m4 > m {
		m = m4
	}
	if m <= octagonApothemQ15 {
		return px, py
	}
	nx := x64 * octagonApothemQ15 / m
	ny := y64 * octagonApothemQ15 / m
	return int32(nx), int32(ny)
}

// OctagonClamp returns a stage that radially clamps the stick to the
// apothem-125 octagon.
func OctagonClamp() pipeline.Stage {
	return pipeline.Stage{
		Name: "octagon-clamp",
		Func: func(s *pad.State) {
			a := &s.Input.Analog
			px, py := OctagonClampPoint(int32(a.StickX)-128, int32(a.StickY)-128)
			a.StickX = clampByte(px + 128)
			a.StickY = clampByte(py + 128)
		},
	}
}

// linearScaleConst is 13108/65536, the fixed-point approximation of 1/5
// used to compute round(4v/5) without a hardware divide.
const linearScaleConst int64 = 13108

// LinearScaleAxis applies phi(s) = round(4/5*(s-128)) + 128 to one 8-bit
// axis value using the canonical divide-free formula: this is the ground
// truth for the stage's output, byte for byte.
func LinearScaleAxis(s uint8) uint8 {
	v := int64(s) - 128
	var rx int64
	if v >= 0 {
		rx = ((v*4 + 2) * linearScaleConst) >> 16
	} else {
		rx = -((((-v)*4 + 2) * linearScaleConst) >> 16)
	}
	return clampByte(int32(rx + 128))
}

// LinearScale returns a stage applying LinearScaleAxis to both stick axes.
func LinearScale() pipeline.Stage {
	return pipeline.Stage{
		Name: "linear-scale",
		Func: func(s *pad.State) {
			a := &s.Input.Analog
			a.StickX = LinearScaleAxis(a.StickX)
			a.StickY = LinearScaleAxis(a.StickY)
		},
	}
}

// ResponseCurve is the analytic function the inverse-LUT's forward table is
// seeded from: the "game-side forward mapping" the LUT compensates for.
// Operates on centered coordinates.
type ResponseCurve func(px, py int32) (int32, int32)

// CurveIdentity is the built-in, fully-covering response curve: no
// per-title calibration data ships with this implementation (see
// DESIGN.md), so the LUT stage defaults to a no-op curve that is still
// backed by two real 256x256 tables built and inverted at startup.
func CurveIdentity(px, py int32) (int32, int32) { return px, py }

// Tables holds the forward and inverse 256x256 lookup tables. The forward
// table is retained only for test use, per §4.D; the inverse table is what
// the stage reads at runtime.
type Tables struct {
	ForwardX, ForwardY [256][256]uint8
	InverseX, InverseY [256][256]uint8
}

// BuildTables evaluates curve over the full grid to build the forward
// table, then inverts it by scanning once and recording, for every output
// cell actually reached, the input cell that produced it. Cells the
// forward table never reaches keep their identity-mapped default, so the
// inverse table degrades gracefully rather than collapsing unreached
// regions to the origin.
func BuildTables(curve ResponseCurve) *Tables {
	t := &Tables{}
	for sx := 0; sx < 256; sx++ {
		for sy := 0; sy < 256; sy++ {
			t.InverseX[sx][sy] = uint8(sx)
			t.InverseY[sx][sy] = uint8(sy)
		}
	}
	for sx := 0; sx < 256; sx++ {
		for sy := 0; sy < 256; sy++ {
			px, py := int32(sx)-128, int32(sy)-128
			fx, fy := curve(px, py)
			t.ForwardX[sx][sy] = clampByte(fx + 128)
			t.ForwardY[sx][sy] = clampByte(fy + 128)
		}
	}
	for sx := 0; sx < 256; sx++ {
		for sy := 0; sy < 256; sy++ {
			fx, fy := t.ForwardX[sx][sy], t.ForwardY[sx][sy]
			t.InverseX[fx][fy] = uint8(sx)
			t.InverseY[fx][fy] = uint8(sy)
		}
	}
	return t
}

// InverseLUT returns a stage reading the stick position through t's
// inverse table.
func InverseLUT(t *Tables) pipeline.Stage {
	return pipeline.Stage{
		Name: "inverse-lut",
		Func: func(s *pad.State) {
			a := &s.Input.Analog
			a.StickX, a.StickY = t.InverseX[a.StickX][a.StickY], t.InverseY[a.StickX][a.StickY]
		},
	}
}
