package hop

import (
	"testing"

	"github.com/lifelink/node/membership"
)

func TestChannelIndexIsPure(t *testing.T) {
	a := ChannelIndex(0xCAFEBABE, 7, 2)
	b := ChannelIndex(0xCAFEBABE, 7, 2)
	if a != b {
		t.Errorf("ChannelIndex() not pure: %d != %d", a, b)
	}
	if a < 0 || a >= 2 {
		t.Errorf("ChannelIndex() = %d, want in [0,2)", a)
	}
}

func TestLeaderIsMinimumLiveID(t *testing.T) {
	s := NewScheduler(nil)
	live := []membership.NeighborEntry{
		{NodeID: 0x0020, Used: true, LastHeartbeatSeq: 3, HopSeed: 0x2},
		{NodeID: 0x0005, Used: true, LastHeartbeatSeq: 9, HopSeed: 0x5},
	}
	res := s.Evaluate(0x0010, 0x10, 1, live, true)
	if res.LeaderID != 0x0005 {
		t.Errorf("LeaderID = %#x, want 0x0005", res.LeaderID)
	}
}

func TestSelfCanBeLeader(t *testing.T) {
	s := NewScheduler(nil)
	live := []membership.NeighborEntry{{NodeID: 0x0020, Used: true}}
	res := s.Evaluate(0x0001, 0xAA, 4, live, true)
	if res.LeaderID != 0x0001 {
		t.Errorf("LeaderID = %#x, want self 0x0001", res.LeaderID)
	}
}

func TestNoChangeWithoutForceOrSeqAdvance(t *testing.T) {
	s := NewScheduler([]float64{903.9, 904.1})
	live := []membership.NeighborEntry{{NodeID: 0x0002, Used: true, LastHeartbeatSeq: 5, HopSeed: 0x2}}

	first := s.Evaluate(0x0001, 0x1, 1, live, false)
	if !first.Changed {
		t.Fatal("first Evaluate() should always apply")
	}
	second := s.Evaluate(0x0001, 0x1, 1, live, false)
	if second.Changed {
		t.Error("Evaluate() with unchanged leader seq and no force reported Changed")
	}
}

func TestForcedReevaluationRecomputesDeterministically(t *testing.T) {
	s := NewScheduler([]float64{903.9, 904.1})
	live := []membership.NeighborEntry{{NodeID: 0x0002, Used: true, LastHeartbeatSeq: 5, HopSeed: 0x2}}
	first := s.Evaluate(0x0001, 0x1, 1, live, false)
	forced := s.Evaluate(0x0001, 0x1, 1, live, true)
	if forced.ChannelIndex != first.ChannelIndex {
		t.Errorf("forced re-evaluation at same leader seq changed channel: %d != %d", forced.ChannelIndex, first.ChannelIndex)
	}
}
