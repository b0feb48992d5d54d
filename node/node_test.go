package node

import (
	"testing"
	"time"

	"github.com/lifelink/node/config"
	"github.com/lifelink/node/radio"
	"github.com/lifelink/node/wire"
)

// newTestNode wires a node onto medium with a fast timing profile so
// scenarios converge in a handful of Tick calls instead of real seconds.
func newTestNode(t *testing.T, medium *radio.SharedMedium, id uint16, name string) *Node {
	t.Helper()
	cfg := config.DefaultNodeConfig(id, name)
	timing := &config.TimingConfig{
		RxTimeout:         5 * time.Millisecond,
		TxTimeout:         20 * time.Millisecond,
		TxBackoff:         time.Millisecond,
		HeartbeatInterval: 2 * time.Millisecond,
		HeartbeatJitter:   time.Millisecond,
		MembershipTimeout: 2 * time.Second,
		AckTimeout:        2 * time.Second,
		HopInterval:       10 * time.Millisecond,
	}
	drv := medium.Join(-50, 9)
	return New(cfg, timing, drv, nil, nil)
}

// newIsolatedNode builds a node with no medium attached at all, for tests
// that drive onReceive/Send directly and never expect real radio I/O.
func newIsolatedNode(id uint16, name string) *Node {
	return newTestNodeOn(radio.NewSharedMedium(), id, name)
}

func newTestNodeOn(medium *radio.SharedMedium, id uint16, name string) *Node {
	cfg := config.DefaultNodeConfig(id, name)
	drv := medium.Join(-50, 9)
	return New(cfg, config.DefaultTimingConfig(), drv, nil, nil)
}

func runTicks(nodes []*Node, n int) {
	for i := 0; i < n; i++ {
		for _, node := range nodes {
			node.Tick()
		}
	}
}

func TestTwoNodeDirectConvergenceAndDelivery(t *testing.T) {
	medium := radio.NewSharedMedium()
	a := newTestNode(t, medium, 0x0001, "alpha")
	b := newTestNode(t, medium, 0x0002, "bravo")

	runTicks([]*Node{a, b}, 400)

	if _, ok := a.table.Lookup(0x0002); !ok {
		t.Fatal("A never learned about B")
	}
	if _, ok := b.table.Lookup(0x0001); !ok {
		t.Fatal("B never learned about A")
	}

	if err := a.Send(0x0002, "we are out of clean water at camp"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	runTicks([]*Node{a, b}, 400)

	if a.pending.Len() != 0 {
		t.Errorf("A still has %d pending deliveries, want 0 (ACK should have cleared it)", a.pending.Len())
	}
	if b.history.Count() != 1 {
		t.Fatalf("B history count = %d, want 1", b.history.Count())
	}
	entry, _ := b.history.At(0)
	if entry.Intent != "WATER" {
		t.Errorf("intent = %q, want WATER", entry.Intent)
	}
}

func TestSendQueueFullReturnsError(t *testing.T) {
	medium := radio.NewSharedMedium()
	a := newTestNode(t, medium, 0x0001, "alpha")
	for i := 0; i < radio.TxQueueCapacity; i++ {
		if err := a.Send(0x0002, "chat"); err != nil {
			t.Fatalf("Send #%d: %v", i, err)
		}
	}
	if err := a.Send(0x0002, "one too many"); err == nil {
		t.Fatal("Send over capacity: want error, got nil")
	}
}

// TestDataRelayDecrementsTTLAndIncrementsHops exercises the middle node of
// a conceptual A-B-C line directly: B receives a DATA frame not addressed
// to it and must relay with ttl-1/hops+1, never re-tokenizing the body.
func TestDataRelayDecrementsTTLAndIncrementsHops(t *testing.T) {
	b := newIsolatedNode(0x0020, "relay")

	incoming := wire.EncodeData(&wire.Data{
		From: 0x0010, Origin: 0x0010, Dst: 0x0030,
		MsgID: 7, TTL: 4, Hops: 0, Body: []byte("a|b|c"),
	})
	b.onReceive(incoming, -40, 8)

	if b.sm.QueueLen() != 1 {
		t.Fatalf("queue len = %d, want 1 relay frame", b.sm.QueueLen())
	}
	frame, _ := b.sm.Dequeue()
	relayed := wire.Decode(frame).(*wire.Data)
	if relayed.TTL != 3 || relayed.Hops != 1 {
		t.Errorf("relayed TTL/Hops = %d/%d, want 3/1", relayed.TTL, relayed.Hops)
	}
	if string(relayed.Body) != "a|b|c" {
		t.Errorf("relayed body = %q, want unchanged %q (must not re-tokenize)", relayed.Body, "a|b|c")
	}
	if relayed.From != b.id {
		t.Errorf("relayed From = %04x, want relayer's own id %04x", relayed.From, b.id)
	}
}

// TestDataRelayStopsAtZeroTTL covers the invariant that no relay occurs
// once TTL has been exhausted.
func TestDataRelayStopsAtZeroTTL(t *testing.T) {
	b := newIsolatedNode(0x0020, "relay")
	incoming := wire.EncodeData(&wire.Data{
		From: 0x0010, Origin: 0x0010, Dst: 0x0030,
		MsgID: 1, TTL: 0, Hops: 3, Body: []byte("x"),
	})
	b.onReceive(incoming, -40, 8)
	if b.sm.QueueLen() != 0 {
		t.Errorf("queue len = %d, want 0 (ttl exhausted, no relay)", b.sm.QueueLen())
	}
}

// TestDuplicateDataDroppedSilently covers the dedup correctness property:
// a repeated (type, origin, msg_id) triggers no second relay.
func TestDuplicateDataDroppedSilently(t *testing.T) {
	b := newIsolatedNode(0x0020, "relay")
	incoming := wire.EncodeData(&wire.Data{
		From: 0x0010, Origin: 0x0010, Dst: 0x0030,
		MsgID: 42, TTL: 4, Hops: 0, Body: []byte("hi"),
	})
	b.onReceive(incoming, -40, 8)
	if got := b.sm.QueueLen(); got != 1 {
		t.Fatalf("after first receipt, queue len = %d, want 1", got)
	}
	b.sm.Dequeue()

	b.onReceive(incoming, -40, 8)
	if got := b.sm.QueueLen(); got != 0 {
		t.Errorf("after duplicate receipt, queue len = %d, want 0 (must not relay twice)", got)
	}
}

// TestAckRelayAndDelivery covers both halves of the ACK flood: a relay
// node forwards with ttl-1/hops+1, and the origin clears its pending
// entry when the ACK finally addresses it.
func TestAckRelayAndDelivery(t *testing.T) {
	b := newIsolatedNode(0x0020, "relay")
	incoming := wire.EncodeAck(&wire.Ack{
		From: 0x0030, Origin: 0x0030, Dst: 0x0010, MsgID: 9, TTL: 4, Hops: 0,
	})
	b.onReceive(incoming, -40, 8)

	if b.sm.QueueLen() != 1 {
		t.Fatalf("queue len = %d, want 1 relayed ack", b.sm.QueueLen())
	}
	frame, _ := b.sm.Dequeue()
	relayed := wire.Decode(frame).(*wire.Ack)
	if relayed.TTL != 3 || relayed.Hops != 1 || relayed.From != 0x0020 {
		t.Errorf("relayed ack = %+v, want ttl=3 hops=1 from=relayer", relayed)
	}

	a := newIsolatedNode(0x0010, "origin")
	a.pending.Add(9, 0x0030)
	a.onReceive(frame, -40, 8)
	if a.pending.Len() != 0 {
		t.Errorf("pending len = %d, want 0 after matching ack", a.pending.Len())
	}
}

// TestMalformedFrameDroppedSilently: a structurally incomplete frame is
// dropped with no table or queue change.
func TestMalformedFrameDroppedSilently(t *testing.T) {
	b := newIsolatedNode(0x0020, "relay")
	b.onReceive([]byte("D|0001|0001"), -40, 8)

	if len(b.table.Active()) != 0 {
		t.Errorf("Active() = %v, want empty after malformed frame", b.table.Active())
	}
	if b.sm.QueueLen() != 0 {
		t.Errorf("queue len = %d, want 0 after malformed frame", b.sm.QueueLen())
	}
}

// TestHeartbeatRelayUsesOwnGossip: a relayed heartbeat keeps the
// originator's identity fields but carries the relayer's own gossip
// table, with ttl-1/hops+1.
func TestHeartbeatRelayUsesOwnGossip(t *testing.T) {
	b := newIsolatedNode(0x0020, "relay")
	// Teach B about a third node first so its gossip table is non-trivial.
	b.table.Upsert(0x0030, "charlie", 3, 0x33)

	hb := wire.EncodeHeartbeat(&wire.Heartbeat{
		From: 0x0010, Seq: 5, Seed: 0xAAAA, Name: "alpha", TTL: 4, Hops: 0,
	})
	b.onReceive(hb, -40, 8)

	if b.sm.QueueLen() != 1 {
		t.Fatalf("queue len = %d, want 1 relayed heartbeat", b.sm.QueueLen())
	}
	frame, _ := b.sm.Dequeue()
	relayed, ok := wire.Decode(frame).(*wire.Heartbeat)
	if !ok {
		t.Fatalf("relayed frame = %q, want a heartbeat", frame)
	}
	if relayed.From != 0x0010 || relayed.Seq != 5 || relayed.Seed != 0xAAAA || relayed.Name != "alpha" {
		t.Errorf("relayed identity fields = %+v, want originator's preserved", relayed)
	}
	if relayed.TTL != 3 || relayed.Hops != 1 {
		t.Errorf("relayed TTL/Hops = %d/%d, want 3/1", relayed.TTL, relayed.Hops)
	}
	if len(relayed.Gossip) == 0 || relayed.Gossip[0].NodeID != 0x0020 {
		t.Fatalf("relayed gossip = %+v, want relayer's own table, self first", relayed.Gossip)
	}
}

// TestDuplicateHeartbeatNotRelayedTwice covers heartbeat dedup on
// (H, from, seq): the same flooded heartbeat arriving via two neighbors
// must relay only once.
func TestDuplicateHeartbeatNotRelayedTwice(t *testing.T) {
	b := newIsolatedNode(0x0020, "relay")
	hb := wire.EncodeHeartbeat(&wire.Heartbeat{
		From: 0x0010, Seq: 5, Seed: 0xAAAA, Name: "alpha", TTL: 4, Hops: 0,
	})
	b.onReceive(hb, -40, 8)
	if got := b.sm.QueueLen(); got != 1 {
		t.Fatalf("after first receipt, queue len = %d, want 1", got)
	}
	b.sm.Dequeue()

	b.onReceive(hb, -40, 8)
	if got := b.sm.QueueLen(); got != 0 {
		t.Errorf("after duplicate receipt, queue len = %d, want 0", got)
	}
}

// TestRelayedHeartbeatLearnsGraphDistance: a heartbeat that already took
// one hop must not register its originator as a direct neighbor.
func TestRelayedHeartbeatLearnsGraphDistance(t *testing.T) {
	c := newIsolatedNode(0x0030, "edge")
	hb := wire.EncodeHeartbeat(&wire.Heartbeat{
		From: 0x0010, Seq: 5, Seed: 0xAAAA, Name: "alpha", TTL: 3, Hops: 1,
	})
	c.onReceive(hb, -40, 8)

	entry, ok := c.table.Lookup(0x0010)
	if !ok {
		t.Fatal("originator of relayed heartbeat never learned")
	}
	if entry.HopsAway != 2 {
		t.Errorf("HopsAway = %d, want 2 (one relay between us)", entry.HopsAway)
	}
}

// TestNoSelfLearnFromGossip covers the no-self-learn invariant for the
// gossip-merge path of a received heartbeat.
func TestNoSelfLearnFromGossip(t *testing.T) {
	b := newIsolatedNode(0x0020, "b")
	hb := wire.EncodeHeartbeat(&wire.Heartbeat{
		From: 0x0010, Seq: 1, Seed: 0xAAAA, Name: "a", TTL: 4, Hops: 0,
		Gossip: []wire.GossipEntry{{NodeID: 0x0020, Name: "b", Seq: 9, HopsAway: 0}},
	})
	b.onReceive(hb, -40, 8)
	if _, ok := b.table.Lookup(0x0020); ok {
		t.Fatal("node learned about itself from a gossip entry naming its own id")
	}
}
