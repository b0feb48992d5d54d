// Package config holds the mesh node's identity/radio-tuning knobs and
// its named timing budget.
package config

import (
	"hash/fnv"
	"strconv"
	"time"
)

// NodeConfig is the per-node identity and radio-tuning configuration
// handed to a node at construction time. It is never persisted: node_id is
// re-derived from hardware on every boot.
type NodeConfig struct {
	NodeID uint16
	Name   string

	// ChannelsMHz is the frequency-hop channel table; defaults to
	// hop.DefaultChannelsMHz when empty.
	ChannelsMHz []float64

	// Radio tuning passed straight through to Driver.Begin.
	FreqMHz         float64
	BandwidthKHz    float64
	SpreadingFactor int
	CodingRate      int
	SyncWord        byte
	PowerDBm        int
	PreambleLen     int
}

// TimingConfig names every duration the node's schedulers and radio state
// machine run on. A pairing-layer connect-attempt timeout is deliberately
// absent: the pairing/session layer lives outside this module.
type TimingConfig struct {
	RxTimeout         time.Duration
	TxTimeout         time.Duration
	TxBackoff         time.Duration
	HeartbeatInterval time.Duration
	HeartbeatJitter   time.Duration
	MembershipTimeout time.Duration
	AckTimeout        time.Duration
	HopInterval       time.Duration
}

// DefaultTimingConfig returns the production baseline timing values.
// Callers may override individual fields.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		RxTimeout:         1500 * time.Millisecond,
		TxTimeout:         3 * time.Second,
		TxBackoff:         250 * time.Millisecond,
		HeartbeatInterval: 1500 * time.Millisecond,
		HeartbeatJitter:   1500 * time.Millisecond,
		MembershipTimeout: 15 * time.Second,
		AckTimeout:        12 * time.Second,
		HopInterval:       5 * time.Second,
	}
}

// DeriveHopSeed derives a node's 32-bit hop seed deterministically from
// its id, so the same id always yields the same seed. Peers learn the seed
// from the node's heartbeats; they do not re-derive it.
func DeriveHopSeed(nodeID uint16) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatUint(uint64(nodeID), 16)))
	return h.Sum32()
}

// DefaultNodeConfig returns a NodeConfig for the given identity/name with
// the production LoRa-class tuning values and the two-channel hop table.
func DefaultNodeConfig(nodeID uint16, name string) *NodeConfig {
	return &NodeConfig{
		NodeID:          nodeID,
		Name:            name,
		FreqMHz:         903.9,
		BandwidthKHz:    125,
		SpreadingFactor: 9,
		CodingRate:      5,
		SyncWord:        0x34,
		PowerDBm:        17,
		PreambleLen:     8,
	}
}
