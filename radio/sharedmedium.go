package radio

import (
	"sync"
	"time"
)

// sharedMediumRingCapacity bounds the per-subscriber inbound ring, mirroring
// the fixed-capacity, allocation-free tables used elsewhere in the node.
const sharedMediumRingCapacity = 64

// SharedMedium is an in-process broadcast medium standing in for the real
// half-duplex long-range radio: every Handle subscribed to it that is in
// receive mode (between StartReceive and Standby) and tuned to the same
// channel receives a copy of every frame any other Handle transmits. It
// exists purely so a multi-node mesh can be exercised on a host without
// hardware; production nodes drive a real modem behind the same interface.
type SharedMedium struct {
	mu      sync.Mutex
	members map[*Handle]struct{}
}

// NewSharedMedium returns an empty broadcast medium.
func NewSharedMedium() *SharedMedium {
	return &SharedMedium{members: make(map[*Handle]struct{})}
}

// Join returns a new Driver attached to the medium, tuned by freq/bw/etc at
// Begin time. rssi/snr are fixed per handle to emulate a stable link;
// production deployments get these from the real modem instead.
func (m *SharedMedium) Join(rssi, snr float32) *Handle {
	h := &Handle{medium: m, rssi: rssi, snr: snr}
	m.mu.Lock()
	m.members[h] = struct{}{}
	m.mu.Unlock()
	return h
}

func (m *SharedMedium) broadcast(from *Handle, channel float64, data []byte) {
	frame := make([]byte, len(data))
	copy(frame, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	for h := range m.members {
		if h == from {
			continue
		}
		h.deliver(channel, frame)
	}
}

// Handle is one node's attachment point to a SharedMedium; it implements
// Driver.
type Handle struct {
	medium *SharedMedium

	mu      sync.Mutex
	channel float64
	rxOn    bool
	ring    [sharedMediumRingCapacity][]byte
	head    int
	tail    int
	size    int

	rssi, snr float32

	doneAction func()
}

var _ Driver = (*Handle)(nil)

// Begin records the initial channel; the shared medium ignores the other
// modem-tuning parameters (bandwidth, spreading factor, coding rate, sync
// word, power, preamble) since there is no physical layer to configure.
func (h *Handle) Begin(freqMHz, _ float64, _, _ int, _ byte, _, _ int) error {
	h.mu.Lock()
	h.channel = freqMHz
	h.mu.Unlock()
	return nil
}

// SetFrequency switches the channel this handle transmits on and listens
// to; frames sent on other channels are never delivered to it.
func (h *Handle) SetFrequency(freqMHz float64) error {
	h.mu.Lock()
	h.channel = freqMHz
	h.mu.Unlock()
	return nil
}

func (h *Handle) StartReceive() error {
	h.mu.Lock()
	h.rxOn = true
	pending := h.size > 0
	h.mu.Unlock()
	if pending {
		// A frame already sits in the inbound ring; raise the done line
		// right away, like a modem FIFO that filled while we were away.
		go h.signalDone()
	}
	return nil
}

func (h *Handle) StartTransmit(data []byte) error {
	h.mu.Lock()
	channel := h.channel
	h.mu.Unlock()

	h.medium.broadcast(h, channel, data)

	// A real modem signals completion asynchronously; the shared medium
	// has no airtime to model, so it reports done on the next poll.
	go h.signalDone()
	return nil
}

func (h *Handle) FinishTransmit() error { return nil }

func (h *Handle) Standby() error {
	h.mu.Lock()
	h.rxOn = false
	h.mu.Unlock()
	return nil
}

func (h *Handle) Read(buf []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.size == 0 {
		return 0, nil
	}
	frame := h.ring[h.head]
	h.ring[h.head] = nil
	h.head = (h.head + 1) % sharedMediumRingCapacity
	h.size--
	n := copy(buf, frame)
	return n, nil
}

// PacketLength reports the length of the frame Read will return next: the
// head of the ring, not whatever arrived most recently.
func (h *Handle) PacketLength() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.size == 0 {
		return 0
	}
	return len(h.ring[h.head])
}

func (h *Handle) RSSI() float32 { return h.rssi }
func (h *Handle) SNR() float32  { return h.snr }

func (h *Handle) SetDoneAction(handler func()) {
	h.mu.Lock()
	h.doneAction = handler
	h.mu.Unlock()
}

func (h *Handle) SetCRC(bool) {}

func (h *Handle) signalDone() {
	time.Sleep(time.Millisecond)
	h.mu.Lock()
	action := h.doneAction
	h.mu.Unlock()
	if action != nil {
		action()
	}
}

func (h *Handle) deliver(channel float64, frame []byte) {
	h.mu.Lock()
	tuned := h.rxOn && h.channel == channel
	if tuned {
		if h.size == sharedMediumRingCapacity {
			h.ring[h.head] = nil
			h.head = (h.head + 1) % sharedMediumRingCapacity
			h.size--
		}
		h.ring[h.tail] = frame
		h.tail = (h.tail + 1) % sharedMediumRingCapacity
		h.size++
	}
	action := h.doneAction
	h.mu.Unlock()
	if tuned && action != nil {
		go action()
	}
}
