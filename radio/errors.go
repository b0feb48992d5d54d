package radio

import "errors"

var (
	// ErrRadioStart names a driver rejecting a start-receive or
	// start-transmit call outright (not a timeout). StateMachine does not
	// return it: it counts the rejection in ErrorCount and goes to Idle.
	ErrRadioStart = errors.New("radio: driver rejected start operation")
	// ErrQueueFull is returned by StateMachine.Enqueue when the transmit
	// queue is already at capacity.
	ErrQueueFull = errors.New("radio: transmit queue full")
)
