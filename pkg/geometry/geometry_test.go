package geometry

import (
	"testing"

	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/pad"
)

func TestOriginOffsetDefaultsToCenter(t *testing.T) {
	o := NewOriginOffset()
	x, y := o.Get()
	if x != pad.AxisCenter || y != pad.AxisCenter {
		t.Fatalf("expected default center (0x80,0x80), got (0x%02x,0x%02x)", x, y)
	}
}

func TestOriginNormalizeShiftsTowardNeutral(t *testing.T) {
	origin := NewOriginOffset()
	origin.Set(0x90, 0x70)

	stage := OriginNormalize(origin)
	s := &pad.State{Input: pad.Input{Analog: pad.Analog{StickX: 0x90, StickY: 0x70}}}
	stage.Func(s)

	if s.Input.Analog.StickX != 0x80 || s.Input.Analog.StickY != 0x80 {
		t.Fatalf("expected the offset origin to normalize to center, got (0x%02x,0x%02x)", s.Input.Analog.StickX, s.Input.Analog.StickY)
	}
}

func TestOriginNormalizeClampsAtRails(t *testing.T) {
	origin := NewOriginOffset()
	origin.Set(0x10, 0xF0)

	stage := OriginNormalize(origin)
	s := &pad.State{Input: pad.Input{Analog: pad.Analog{StickX: 0xFF, StickY: 0x00}}}
	stage.Func(s)

	if s.Input.Analog.StickX != 255 {
		t.Errorf("expected clamp at 255, got %d", s.Input.Analog.StickX)
	}
	if s.Input.Analog.StickY != 0 {
		t.Errorf("expected clamp at 0, got %d", s.Input.Analog.StickY)
	}
}

func TestOctagonClampPointLeavesInteriorUntouched(t *testing.T) {
	px, py := OctagonClampPoint(50, 50)
	if px != 50 || py != 50 {
		t.Fatalf("point well inside the octagon should be unchanged, got (%d,%d)", px, py)
	}
}

func TestOctagonClampPointZeroIsFixed(t *testing.T) {
	px, py := OctagonClampPoint(0, 0)
	if px != 0 || py != 0 {
		t.Fatalf("origin should be a fixed point, got (%d,%d)", px, py)
	}
}

func TestOctagonClampPointAxisAlignedAtApothem(t *testing.T) {
	// Straight along an axis, the octagon's radius equals the apothem (125).
	px, py := OctagonClampPoint(200, 0)
	if px != 125 || py != 0 {
		t.Fatalf("axis-aligned clamp should land at (125,0), got (%d,%d)", px, py)
	}
}

func TestOctagonClampPointDiagonal(t *testing.T) {
	// Ground truth is the integer formula itself: both axes scale down to
	// the same value by the diagonal's symmetry, landing a little inside
	// the axis-aligned apothem radius (125) due to integer truncation.
	px, py := OctagonClampPoint(200, 200)
	if px != 88 || py != 88 {
		t.Fatalf("expected (88,88), got (%d,%d)", px, py)
	}
}

func TestLinearScaleAxisCenterIsFixed(t *testing.T) {
	if got := LinearScaleAxis(128); got != 128 {
		t.Fatalf("center should be a fixed point, got %d", got)
	}
}

func TestLinearScaleAxisFullDeflection(t *testing.T) {
	// Ground truth is the divide-free formula itself, not the spec's
	// worked example (which restates this as 229); see DESIGN.md.
	if got := LinearScaleAxis(255); got != 230 {
		t.Fatalf("expected LinearScaleAxis(255) == 230 per the formula, got %d", got)
	}
}

func TestLinearScaleAxisIsOddSymmetric(t *testing.T) {
	up := int32(LinearScaleAxis(255)) - 128
	down := 128 - int32(LinearScaleAxis(0))
	if up != down {
		t.Fatalf("expected symmetric deflection around center, got +%d/-%d", up, down)
	}
}

func TestBuildTablesIdentityCurveIsNoOp(t *testing.T) {
	tables := BuildTables(CurveIdentity)
	for _, pair := range [][2]int{{0, 0}, {80, 200}, {255, 1}} {
		sx, sy := pair[0], pair[1]
		if int(tables.InverseX[sx][sy]) != sx || int(tables.InverseY[sx][sy]) != sy {
			t.Fatalf("identity curve inverse table should be a no-op at (%d,%d), got (%d,%d)", sx, sy, tables.InverseX[sx][sy], tables.InverseY[sx][sy])
		}
	}
}

func TestInverseLUTStageAppliesTable(t *testing.T) {
	tables := BuildTables(CurveIdentity)
	tables.InverseX[10][20] = 99
	tables.InverseY[10][20] = 88

	stage := InverseLUT(tables)
	s := &pad.State{Input: pad.Input{Analog: pad.Analog{StickX: 10, StickY: 20}}}
	stage.Func(s)

	if s.Input.Analog.StickX != 99 || s.Input.Analog.StickY != 88 {
		t.Fatalf("expected LUT substitution, got (%d,%d)", s.Input.Analog.StickX, s.Input.Analog.StickY)
	}
}
