package membership

import (
	"testing"
	"time"

	"github.com/lifelink/node/wire"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestUpsertIgnoresSelf(t *testing.T) {
	tbl := NewTable(1, "a", 0xABCD, 15*time.Second)
	tbl.Upsert(1, "a", 5, 0x1)
	if len(tbl.Active()) != 0 {
		t.Errorf("Active() = %v, want empty after self-upsert", tbl.Active())
	}
}

func TestGossipMergeIgnoresSelfEntry(t *testing.T) {
	tbl := NewTable(1, "a", 0x1, 15*time.Second)
	tbl.MergeGossip(2, []wire.GossipEntry{{NodeID: 1, Name: "a", Seq: 9, HopsAway: 0}})
	if len(tbl.Active()) != 0 {
		t.Errorf("Active() = %v, want empty after gossip entry naming self", tbl.Active())
	}
}

func TestDirectUpsertSetsHopsAwayOne(t *testing.T) {
	tbl := NewTable(1, "a", 0x1, 15*time.Second)
	tbl.Upsert(2, "b", 5, 0x22)
	entry, ok := tbl.Lookup(2)
	if !ok {
		t.Fatal("Lookup(2) not found after Upsert")
	}
	if entry.HopsAway != 1 || entry.ViaNode != 2 {
		t.Errorf("entry = %+v, want HopsAway=1 ViaNode=2", entry)
	}
}

func TestGossipMergePrefersHigherSeq(t *testing.T) {
	tbl := NewTable(1, "a", 0x1, 15*time.Second)
	tbl.MergeGossip(3, []wire.GossipEntry{{NodeID: 2, Name: "b", Seq: 5, HopsAway: 1}})
	tbl.MergeGossip(3, []wire.GossipEntry{{NodeID: 2, Name: "b", Seq: 4, HopsAway: 0}})
	entry, _ := tbl.Lookup(2)
	if entry.LastHeartbeatSeq != 5 {
		t.Errorf("LastHeartbeatSeq = %d, want 5 (stale lower-seq gossip must not overwrite)", entry.LastHeartbeatSeq)
	}
}

func TestGossipMergePrefersFewerHopsOnTiedSeq(t *testing.T) {
	tbl := NewTable(1, "a", 0x1, 15*time.Second)
	tbl.MergeGossip(3, []wire.GossipEntry{{NodeID: 2, Name: "b", Seq: 5, HopsAway: 3}})
	tbl.MergeGossip(4, []wire.GossipEntry{{NodeID: 2, Name: "b", Seq: 5, HopsAway: 1}})
	entry, _ := tbl.Lookup(2)
	if entry.HopsAway != 2 || entry.ViaNode != 4 {
		t.Errorf("entry = %+v, want HopsAway=2 ViaNode=4 (shorter route at same seq wins)", entry)
	}
}

func TestNeighborAgesOut(t *testing.T) {
	start := time.Now()
	tbl := NewTable(1, "a", 0x1, 1*time.Second)
	tbl.Now = fixedClock(start)
	tbl.Upsert(2, "b", 1, 0x2)
	if _, ok := tbl.Lookup(2); !ok {
		t.Fatal("expected neighbor present right after upsert")
	}
	tbl.Now = fixedClock(start.Add(2 * time.Second))
	if _, ok := tbl.Lookup(2); ok {
		t.Error("expected neighbor aged out past Timeout")
	}
}

func TestGossipOutSelfFirstThenFreshest(t *testing.T) {
	start := time.Now()
	tbl := NewTable(1, "a", 0x1, 15*time.Second)
	tbl.Now = fixedClock(start)
	tbl.Upsert(2, "b", 1, 0x2)
	tbl.Now = fixedClock(start.Add(1 * time.Second))
	tbl.Upsert(3, "c", 1, 0x3)

	out := tbl.GossipOut(9)
	if len(out) != 3 || out[0].NodeID != 1 || out[0].HopsAway != 0 {
		t.Fatalf("GossipOut() = %+v, want self first with hops=0", out)
	}
	if out[1].NodeID != 3 {
		t.Errorf("GossipOut()[1] = %+v, want node 3 (freshest)", out[1])
	}
}
