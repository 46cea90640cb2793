//go:build !nodebug

// Package display provides SSD1306 OLED status output: pad connection
// state, whether measurement mode is active, and the last transmitted
// stick pair (§4.N). Updated from the main loop at a bounded refresh
// rate, never from interrupt context.
//
// To build without display support (saves ~1KB RAM and flash), use:
//
//	tinygo build -tags=nodebug -target=pico -o firmware.uf2 .
//
// The lineage's original display.go drew characters through a hand-rolled
// 8x8 bitmap table (font8x8) that was referenced but never defined
// anywhere in that tree; this rewrite draws through tinyfont instead,
// which ships real glyphs for exactly this Displayer contract.
package display

import (
	"image/color"
	"machine"
	"time"

	"tinygo.org/x/drivers/ssd1306"
	"tinygo.org/x/tinyfont"
)

const (
	i2cAddress = 0x3C
	sclPin     = machine.GPIO1
	sdaPin     = machine.GPIO0

	screenWidth  = 128
	screenHeight = 64

	rowConnection = 12
	rowMeasure    = 28
	rowStick      = 44
)

var (
	black = color.RGBA{0, 0, 0, 0}
	white = color.RGBA{255, 255, 255, 255}
	font  = &tinyfont.TomThumb
)

// Manager owns the SSD1306 device and the last-drawn text per row, so
// Refresh only repaints rows whose content actually changed.
type Manager struct {
	device *ssd1306.Device
	i2c    *machine.I2C

	connection string
	measuring  string
	stick      string

	lastConnection string
	lastMeasuring  string
	lastStick      string
}

// NewManager initializes the I2C bus and SSD1306 device. Returns nil if
// initialization fails; non-fatal for a debug-only peripheral.
func NewManager() *Manager {
	i2c := machine.I2C0
	if err := i2c.Configure(machine.I2CConfig{
		Frequency: 400000,
		SCL:       sclPin,
		SDA:       sdaPin,
	}); err != nil {
		return nil
	}

	time.Sleep(10 * time.Millisecond)

	dev := ssd1306.NewI2C(i2c)
	dev.Configure(ssd1306.Config{
		Address: i2cAddress,
		Width:   screenWidth,
		Height:  screenHeight,
	})
	dev.ClearDisplay()

	m := &Manager{device: dev, i2c: i2c}
	m.connection = "disconnected"
	m.measuring = "measure: off"
	m.stick = "stick: --,--"
	m.redraw()
	return m
}

// SetConnectionState updates the connection-state row text.
func (m *Manager) SetConnectionState(s string) {
	if m == nil {
		return
	}
	m.connection = s
}

// SetMeasuring updates the measurement-mode row text.
func (m *Manager) SetMeasuring(on bool) {
	if m == nil {
		return
	}
	if on {
		m.measuring = "measure: on"
	} else {
		m.measuring = "measure: off"
	}
}

// SetStick updates the last-transmitted stick pair row text.
func (m *Manager) SetStick(x, y uint8) {
	if m == nil {
		return
	}
	m.stick = "stick: " + hexByte(x) + "," + hexByte(y)
}

// Refresh repaints only the rows whose text has changed since the last
// call, then flushes the framebuffer to the panel.
func (m *Manager) Refresh() {
	if m == nil {
		return
	}
	dirty := false
	if m.connection != m.lastConnection {
		m.clearRow(rowConnection)
		tinyfont.WriteLine(m.device, font, 0, rowConnection, m.connection, white)
		m.lastConnection = m.connection
		dirty = true
	}
	if m.measuring != m.lastMeasuring {
		m.clearRow(rowMeasure)
		tinyfont.WriteLine(m.device, font, 0, rowMeasure, m.measuring, white)
		m.lastMeasuring = m.measuring
		dirty = true
	}
	if m.stick != m.lastStick {
		m.clearRow(rowStick)
		tinyfont.WriteLine(m.device, font, 0, rowStick, m.stick, white)
		m.lastStick = m.stick
		dirty = true
	}
	if dirty {
		m.device.Display()
	}
}

func (m *Manager) redraw() {
	m.lastConnection, m.lastMeasuring, m.lastStick = "", "", ""
	m.Refresh()
}

// clearRow blanks the pixel band a text row occupies.
func (m *Manager) clearRow(baselineY int16) {
	yStart := baselineY - 10
	if yStart < 0 {
		yStart = 0
	}
	for y := yStart; y < baselineY+2 && y < screenHeight; y++ {
		for x := int16(0); x < screenWidth; x++ {
			m.device.SetPixel(x, y, black)
		}
	}
}

func hexByte(v uint8) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[v>>4], digits[v&0x0F]})
}
