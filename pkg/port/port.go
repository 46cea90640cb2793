// Package port defines the transport abstraction PadClient and
// ConsoleClient send frames through, plus the shared-IRQ dispatcher
// described in Design Notes and §4.K: a small registry mapping a pending
// bit to a registered owner, standing in for the real firmware's single
// shared interrupt line serving more than one logical port.
package port

import "sync"

// Port is one direction of one logical bus connection: something that can
// accept a frame for transmission and that calls back into the core when
// a frame has finished transmitting or a new frame has finished arriving.
//
// SetReceiveHandler and SetTransmitHandler are called once at wiring time.
// Send must not block; it returns false on a transmit-start collision
// (§7, "transmit-start collision"), which the caller treats as a failed
// send to retry next tick.
type Port interface {
	Send(data []byte) bool
	SetReceiveHandler(func(data []byte))
	SetTransmitHandler(func())
}

// Notifier is a dispatcher-registered owner of one pending bit.
type Notifier interface {
	Notify()
}

// FrameExpecter is implemented by Port backends (BusPort) that need to be
// told how many bytes the next frame will contain before it arrives, for
// directions where the requester rather than the first byte determines
// frame length. Ports that don't need this (LoopbackPort) simply don't
// implement it; callers type-assert for it.
type FrameExpecter interface {
	Expect(frameLen int)
}

// Dispatcher demultiplexes a shared pending-bit word to registered
// owners, in index order, mutex-guarded in place of the real firmware's
// "disable interrupts while mutating the table" rule.
type Dispatcher struct {
	mu    sync.Mutex
	owner [32]Notifier
}

// Register installs owner at index. Overwrites any previous owner there.
func (d *Dispatcher) Register(index int, owner Notifier) {
	if index < 0 || index >= 32 {
		return
	}
	d.mu.Lock()
	d.owner[index] = owner
	d.mu.Unlock()
}

// Unregister removes owner from index if it is still the current owner.
func (d *Dispatcher) Unregister(index int, owner Notifier) {
	if index < 0 || index >= 32 {
		return
	}
	d.mu.Lock()
	if d.owner[index] == owner {
		d.owner[index] = nil
	}
	d.mu.Unlock()
}

// Dispatch calls Notify on every registered owner whose bit is set in
// pending, in index order.
func (d *Dispatcher) Dispatch(pending uint32) {
	d.mu.Lock()
	owners := d.owner
	d.mu.Unlock()
	for i := 0; i < 32; i++ {
		if pending&(1<<uint(i)) != 0 && owners[i] != nil {
			owners[i].Notify()
		}
	}
}
