package main

import (
	"machine"
	"time"

	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/calibration"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/calstore"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/consoleclient"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/display"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/geometry"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/hostproto"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/link"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/measure"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/padclient"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/padproto"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/pipeline"
	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/port"

	"github.com/tuffrabit/tinygo-joybus-bridge/serial"

	"tinygo.org/x/tinyfs"
)

// Geometry stage bits, matching calibration.Record.StageMask.
const (
	stageOriginNormalize uint16 = 1 << 0
	stageOctagonClamp    uint16 = 1 << 1
	stageLinearScale     uint16 = 1 << 2
	stageInverseLUT      uint16 = 1 << 3
)

// measureButtonPin enables measurement mode while it is held low; a board
// without the button wired simply never enters measurement mode.
const measureButtonPin = machine.GPIO2

func main() {
	blockDev := tinyfs.NewMemoryDevice(256, 4096, 64)
	calStore, err := calstore.New(blockDev, true)
	if err != nil {
		return
	}

	record, err := calStore.Load()
	if err != nil {
		record = calibration.Default()
		calStore.Save(record)
	}

	origin := geometry.NewOriginOffset()
	origin.Set(record.OriginX, record.OriginY)
	tables := geometry.BuildTables(geometry.CurveIdentity)

	l := link.NewPadConsoleLink()
	installGeometryStages(&l.Pipelines.Status, origin, tables, record.StageMask)
	installGeometryStages(&l.Pipelines.Origin, origin, tables, record.StageMask)
	installGeometryStages(&l.Pipelines.Recalibrate, origin, tables, record.StageMask)

	padUART := machine.UART1
	padUART.Configure(machine.UARTConfig{BaudRate: 1000000})
	padPort := port.NewBusPort(padUART)
	go padPort.Run()

	client := padclient.New(l.PadHub, padPort)
	client.Origin = origin

	consoleUART := machine.UART0
	consoleUART.Configure(machine.UARTConfig{BaudRate: 1000000})
	consolePort := port.NewBusPort(consoleUART)
	consolePort.SetLengthOf(func(first byte) int {
		return padproto.RequestSize(padproto.Command(first))
	})
	responder := consoleclient.New(l)
	consolePort.SetReceiveHandler(func(data []byte) {
		if reply := responder.Handle(data); len(reply) > 0 {
			consolePort.Send(reply)
		}
	})
	go consolePort.Run()

	hostSerial := serial.New(machine.Serial)
	hostHandler := hostproto.NewHandler(calStore)
	go hostSerial.Handle(hostHandler)

	sweep := measure.NewStickGridSweep(
		measure.Uint8Range{Begin: 0, End: 255, Step: 17},
		measure.Uint8Range{Begin: 0, End: 255, Step: 17},
		true,
		measure.TargetJoystick,
	)
	injector := &measure.PadInjector{
		Pattern:   sweep,
		Schedule:  measure.Schedule{IntervalUS: 50000, CatchUp: false},
		Hub:       l.MeasureHub,
		Telemetry: hostSerial,
	}

	dbg := display.NewManager()

	measureButton := measureButtonPin
	measureButton.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	wasMeasuring := false

	var lastSeenReset uint32
	var lastSeenTx uint32
	lastDisplayUS := uint32(0)

	for {
		nowUS := uint32(time.Now().UnixMicro())

		console := l.Console.Load()
		resetPending := l.ResetEpoch.Consume(&lastSeenReset)
		client.Tick(nowUS, console, resetPending)

		switch {
		case client.IsReady():
			l.SetConnectionState(link.StateReady)
		case client.State() == padclient.Disconnected:
			l.SetConnectionState(link.StateDisconnected)
		default:
			l.SetConnectionState(link.StateBooting)
		}

		measuring := !measureButton.Get()
		if measuring != wasMeasuring {
			l.SetMeasuring(measuring)
			l.MeasureEpoch.PublishFromISR()
			if measuring {
				injector.Seed()
			}
			wasMeasuring = measuring
		}
		if measuring {
			injector.Tick(nowUS)
		}

		if dbg != nil && nowUS-lastDisplayUS > 50000 {
			dbg.SetConnectionState(l.ConnectionState().String())
			dbg.SetMeasuring(l.IsMeasuring())
			if tx, ok := l.ActiveHub().ConsumeTxIfNew(&lastSeenTx); ok {
				body := tx.Modified.Slice()
				if len(body) >= 4 {
					dbg.SetStick(body[2], body[3])
				}
			}
			dbg.Refresh()
			lastDisplayUS = nowUS
		}
	}
}

// installGeometryStages registers the four stick-geometry stages into p,
// gated by which bits mask sets. Origin-normalize, octagon-clamp,
// linear-scale and inverse-LUT always run in that fixed order when enabled.
func installGeometryStages(p *pipeline.Pipeline, origin *geometry.OriginOffset, tables *geometry.Tables, mask uint16) {
	if mask&stageOriginNormalize != 0 {
		p.AddStage(geometry.OriginNormalize(origin))
	}
	if mask&stageOctagonClamp != 0 {
		p.AddStage(geometry.OctagonClamp())
	}
	if mask&stageLinearScale != 0 {
		p.AddStage(geometry.LinearScale())
	}
	if mask&stageInverseLUT != 0 {
		p.AddStage(geometry.InverseLUT(tables))
	}
}
