// Package radio defines the opaque half-duplex radio adapter the mesh
// node is built on top of, an in-process stand-in for it usable without
// hardware, and the node's cooperative radio state machine.
package radio

// Driver is the external radio adapter the node is built on top of. It
// guarantees half-duplex operation and signals completion of a
// start-receive or start-transmit exactly once per operation, via the
// handler registered with SetDoneAction.
type Driver interface {
	Begin(freqMHz, bandwidthKHz float64, spreadingFactor, codingRate int, syncWord byte, powerDBm, preambleLen int) error
	SetFrequency(freqMHz float64) error
	StartReceive() error
	StartTransmit(data []byte) error
	FinishTransmit() error
	Standby() error
	Read(buf []byte) (int, error)
	PacketLength() int
	RSSI() float32
	SNR() float32
	SetDoneAction(handler func())
	SetCRC(enabled bool)
}
