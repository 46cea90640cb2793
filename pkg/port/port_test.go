package port

import "testing"

type countingNotifier struct{ count int }

func (n *countingNotifier) Notify() { n.count++ }

func TestDispatcherCallsOnlyPendingOwners(t *testing.T) {
	var d Dispatcher
	a := &countingNotifier{}
	b := &countingNotifier{}
	d.Register(0, a)
	d.Register(1, b)

	d.Dispatch(1 << 0)

	if a.count != 1 {
		t.Fatalf("expected owner 0 notified once, got %d", a.count)
	}
	if b.count != 0 {
		t.Fatalf("expected owner 1 not notified, got %d", b.count)
	}
}

func TestDispatcherUnregisterStopsDelivery(t *testing.T) {
	var d Dispatcher
	a := &countingNotifier{}
	d.Register(3, a)
	d.Unregister(3, a)

	d.Dispatch(1 << 3)

	if a.count != 0 {
		t.Fatalf("unregistered owner should not be notified, got %d", a.count)
	}
}

func TestDispatcherIgnoresOutOfRangeIndex(t *testing.T) {
	var d Dispatcher
	a := &countingNotifier{}
	d.Register(-1, a)
	d.Register(32, a)
	d.Dispatch(^uint32(0))
	if a.count != 0 {
		t.Fatalf("out-of-range registration should never be notified, got %d", a.count)
	}
}

func TestLoopbackPortSendRecordsFrame(t *testing.T) {
	p := NewLoopbackPort()
	if !p.Send([]byte{1, 2, 3}) {
		t.Fatalf("Send should report success")
	}
	if got := p.LastSent(); len(got) != 3 || got[0] != 1 {
		t.Fatalf("expected last sent frame [1 2 3], got %v", got)
	}
}

func TestLoopbackPortQueuesWhileBusy(t *testing.T) {
	p := NewLoopbackPort()
	p.Send([]byte{1})
	p.Send([]byte{2})
	if len(p.queue) != 1 {
		t.Fatalf("second send while busy should queue, got queue len %d", len(p.queue))
	}

	var txCompletions int
	p.SetTransmitHandler(func() { txCompletions++ })

	p.CompleteTransmit()
	if len(p.queue) != 0 {
		t.Fatalf("expected queued frame drained, got len %d", len(p.queue))
	}
	if txCompletions != 1 {
		t.Fatalf("expected transmit handler invoked once, got %d", txCompletions)
	}

	p.CompleteTransmit()
	if p.waitTxc {
		t.Fatalf("expected busy flag cleared once the queue is empty")
	}
}

func TestLoopbackPortDeliverInvokesReceiveHandler(t *testing.T) {
	p := NewLoopbackPort()
	var got []byte
	p.SetReceiveHandler(func(data []byte) { got = data })

	p.Deliver([]byte{9, 9, 9})

	if len(got) != 3 || got[2] != 9 {
		t.Fatalf("expected receive handler to see delivered frame, got %v", got)
	}
}
