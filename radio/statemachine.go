package radio

import (
	"sync/atomic"
	"time"
)

// State is one of the eight radio state machine states.
type State int

const (
	Idle State = iota
	Tx
	Rx
	TxDone
	RxDone
	TxTimeout
	RxTimeout
	RxError
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Tx:
		return "Tx"
	case Rx:
		return "Rx"
	case TxDone:
		return "TxDone"
	case RxDone:
		return "RxDone"
	case TxTimeout:
		return "TxTimeout"
	case RxTimeout:
		return "RxTimeout"
	case RxError:
		return "RxError"
	default:
		return "Unknown"
	}
}

// pollInterval is how often the busy-wait loops check the done flag.
// Waiting on an in-flight radio op is the node's one permitted suspension
// point; everywhere else the loop must return promptly.
const pollInterval = 1 * time.Millisecond

// StateMachine drives one Driver through Idle/Tx/Rx and their completion
// states. It is owned and ticked by exactly one control flow; nothing in
// this type is safe for concurrent use from two callers.
type StateMachine struct {
	Driver Driver

	RxTimeout time.Duration
	TxTimeout time.Duration
	TxBackoff time.Duration

	// OnQuiet runs at the three quiet transitions (Idle, RxDone,
	// RxTimeout) so the caller's scheduler can emit heartbeats, expire
	// pending deliveries, and feed new frames into the transmit queue.
	OnQuiet func()
	// OnReceive runs once per successfully read frame, handing the node
	// the raw bytes and the signal-quality readings taken alongside it.
	// Parsing, dedup and relay are the caller's concern, not the radio's.
	OnReceive func(data []byte, rssi, snr float32)

	state      State
	queue      txQueue
	doneFlag   atomic.Bool
	errorCount int
}

// New returns a state machine starting in Idle, wired to drv.
func New(drv Driver, rxTimeout, txTimeout, txBackoff time.Duration) *StateMachine {
	sm := &StateMachine{
		Driver:    drv,
		RxTimeout: rxTimeout,
		TxTimeout: txTimeout,
		TxBackoff: txBackoff,
		state:     Idle,
	}
	drv.SetDoneAction(func() { sm.doneFlag.Store(true) })
	return sm
}

// State returns the current state.
func (sm *StateMachine) State() State { return sm.state }

// ErrorCount returns the running count of radio-level errors (rejected
// starts, transmit timeouts, read errors). Receive timeouts are not
// counted.
func (sm *StateMachine) ErrorCount() int { return sm.errorCount }

// QueueLen reports how many frames are waiting to transmit.
func (sm *StateMachine) QueueLen() int { return sm.queue.len() }

// Dequeue removes and returns the oldest queued frame without advancing
// the state machine, for inspection in tests and diagnostics; normal
// operation drains the queue exclusively through Tick's Tx state.
func (sm *StateMachine) Dequeue() ([]byte, bool) { return sm.queue.dequeue() }

// Enqueue places a formatted frame on the transmit queue. It returns
// ErrQueueFull cleanly if the queue is already at capacity.
func (sm *StateMachine) Enqueue(frame []byte) error {
	if !sm.queue.enqueue(frame) {
		return ErrQueueFull
	}
	return nil
}

func (sm *StateMachine) waitDone(deadline time.Duration) bool {
	end := time.Now().Add(deadline)
	for {
		if sm.doneFlag.CompareAndSwap(true, false) {
			return true
		}
		if time.Now().After(end) {
			return false
		}
		time.Sleep(pollInterval)
	}
}

// Tick advances the state machine by exactly one transition, running the
// quiet-transition scheduler hook and any radio I/O that transition
// requires, and returns the resulting state. The main loop is expected to
// call Tick repeatedly; it is the only caller of this type.
func (sm *StateMachine) Tick() State {
	switch sm.state {
	case Idle:
		sm.runQuiet()
		sm.state = sm.nextAfterQuiet()

	case Tx:
		sm.doTx()

	case Rx:
		sm.doRx()

	case TxDone:
		_ = sm.Driver.FinishTransmit()
		sm.state = sm.nextAfterQuiet()

	case RxDone:
		_ = sm.Driver.Standby()
		sm.runQuiet()
		sm.state = sm.nextAfterQuiet()

	case RxTimeout:
		_ = sm.Driver.Standby()
		sm.runQuiet()
		sm.state = sm.nextAfterQuiet()

	case TxTimeout:
		sm.errorCount++
		_ = sm.Driver.Standby()
		time.Sleep(sm.TxBackoff)
		sm.state = Rx

	case RxError:
		sm.errorCount++
		_ = sm.Driver.Standby()
		sm.state = Rx
	}
	return sm.state
}

func (sm *StateMachine) runQuiet() {
	if sm.OnQuiet != nil {
		sm.OnQuiet()
	}
}

func (sm *StateMachine) nextAfterQuiet() State {
	if !sm.queue.empty() {
		return Tx
	}
	return Rx
}

func (sm *StateMachine) doTx() {
	frame, ok := sm.queue.dequeue()
	if !ok {
		sm.state = sm.nextAfterQuiet()
		return
	}
	sm.doneFlag.Store(false)
	if err := sm.Driver.StartTransmit(frame); err != nil {
		sm.errorCount++
		sm.state = Idle
		return
	}
	if sm.waitDone(sm.TxTimeout) {
		sm.state = TxDone
	} else {
		sm.state = TxTimeout
	}
}

func (sm *StateMachine) doRx() {
	sm.doneFlag.Store(false)
	if err := sm.Driver.StartReceive(); err != nil {
		sm.errorCount++
		sm.state = Idle
		return
	}
	if !sm.waitDone(sm.RxTimeout) {
		sm.state = RxTimeout
		return
	}

	n := sm.Driver.PacketLength()
	buf := make([]byte, n)
	got, err := sm.Driver.Read(buf)
	if err != nil {
		sm.state = RxError
		return
	}

	if sm.OnReceive != nil {
		sm.OnReceive(buf[:got], sm.Driver.RSSI(), sm.Driver.SNR())
	}
	sm.state = RxDone
}
