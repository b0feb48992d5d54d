// Package hop implements the mesh node's coordinated frequency-hopping
// schedule: leader election by minimum live id, and a deterministic
// channel index derived from the leader's (seed, sequence) pair.
package hop

import "github.com/lifelink/node/membership"

// DefaultChannelsMHz is the production two-channel table. Implementations
// may configure between 2 and 8 channels.
var DefaultChannelsMHz = []float64{903.9, 904.1}

// ChannelIndex is the deterministic, pure mixing function all peers use
// to agree on a channel for a given (seed, seq) pair.
func ChannelIndex(seed, seq uint32, nChannels int) int {
	mixed := seed ^ (seq*1103515245 + 12345)
	mixed ^= mixed >> 13
	return int(mixed % uint32(nChannels))
}

// Scheduler tracks the currently applied channel and the leader sequence
// it was derived from.
type Scheduler struct {
	Channels []float64

	leaderID       uint16
	lastAppliedSeq uint32
	currentIdx     int
	haveApplied    bool
}

// NewScheduler returns a scheduler over the given channel table, defaulting
// to DefaultChannelsMHz when channels is empty.
func NewScheduler(channels []float64) *Scheduler {
	if len(channels) == 0 {
		channels = DefaultChannelsMHz
	}
	return &Scheduler{Channels: channels}
}

// Result summarizes one Evaluate call for logging/telemetry.
type Result struct {
	LeaderID     uint16
	ChannelIndex int
	ChannelMHz   float64
	Changed      bool
}

// Evaluate recomputes the leader and, if leaderSeq differs from the last
// applied sequence (or forced is set), the channel index. selfID/selfSeed/selfSeq describe this node;
// live is the current set of live neighbor entries.
func (s *Scheduler) Evaluate(selfID uint16, selfSeed, selfSeq uint32, live []membership.NeighborEntry, forced bool) Result {
	leaderID := selfID
	for _, n := range live {
		if n.NodeID < leaderID {
			leaderID = n.NodeID
		}
	}

	var leaderSeed, leaderSeq uint32
	if leaderID == selfID {
		leaderSeed, leaderSeq = selfSeed, selfSeq
	} else {
		leaderSeed, leaderSeq = selfSeed, selfSeq // fallback if the leader entry can't be found below
		for _, n := range live {
			if n.NodeID == leaderID {
				leaderSeq = n.LastHeartbeatSeq
				if n.HopSeed != 0 {
					leaderSeed = n.HopSeed
				}
				break
			}
		}
	}

	s.leaderID = leaderID

	if !forced && s.haveApplied && leaderSeq == s.lastAppliedSeq {
		return Result{LeaderID: leaderID, ChannelIndex: s.currentIdx, ChannelMHz: s.Channels[s.currentIdx]}
	}

	idx := ChannelIndex(leaderSeed, leaderSeq, len(s.Channels))
	changed := !s.haveApplied || idx != s.currentIdx
	s.currentIdx = idx
	s.lastAppliedSeq = leaderSeq
	s.haveApplied = true

	return Result{LeaderID: leaderID, ChannelIndex: idx, ChannelMHz: s.Channels[idx], Changed: changed}
}

// LeaderID returns the most recently computed leader.
func (s *Scheduler) LeaderID() uint16 { return s.leaderID }

// CurrentChannelMHz returns the frequency currently applied, or the first
// table entry before any Evaluate call.
func (s *Scheduler) CurrentChannelMHz() float64 {
	if !s.haveApplied {
		return s.Channels[0]
	}
	return s.Channels[s.currentIdx]
}
