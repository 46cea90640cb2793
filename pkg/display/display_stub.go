//go:build nodebug

// Package display provides a no-op stub when built with the nodebug tag.
// This saves memory by excluding the SSD1306 driver and font data.
//
// To build without display support, use:
//
//	tinygo build -tags=nodebug -target=pico -o firmware.uf2 .
package display

// Manager is a no-op stub when the nodebug build tag is used.
type Manager struct{}

// NewManager returns nil when the nodebug build tag is used. Callers
// treat a nil *Manager as "no display attached" and skip straight
// through every method below.
func NewManager() *Manager {
	return nil
}

func (m *Manager) SetConnectionState(s string) {}
func (m *Manager) SetMeasuring(on bool)         {}
func (m *Manager) SetStick(x, y uint8)          {}
func (m *Manager) Refresh()                     {}
