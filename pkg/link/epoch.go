package link

import "sync/atomic"

// Epoch is a monotonic counter used as an edge-triggered, count-preserving
// notification between a single producer (typically the console interrupt
// handler) and a single consumer (the main loop). See Design Notes §9.
type Epoch struct {
	value atomic.Uint32
}

// PublishFromISR advances the epoch. Safe to call from interrupt context.
func (e *Epoch) PublishFromISR() {
	e.value.Add(1)
}

// Consume reports whether the epoch has advanced since *lastSeen, and if
// so updates *lastSeen and returns true. A second call with the same
// *lastSeen will not re-trigger until the producer advances again.
func (e *Epoch) Consume(lastSeen *uint32) bool {
	cur := e.value.Load()
	if cur == *lastSeen {
		return false
	}
	*lastSeen = cur
	return true
}
