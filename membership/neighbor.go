// Package membership implements the mesh node's epidemic-gossip neighbor
// table, duplicate suppressor, pending-delivery tracker and message
// history log.
package membership

import (
	"sort"
	"time"

	"github.com/lifelink/node/wire"
)

// TableCapacity is the maximum number of live peers a node tracks.
const TableCapacity = 24

// NeighborEntry is one row of the membership table.
type NeighborEntry struct {
	NodeID           uint16
	LastSeenAt       time.Time
	LastHeartbeatSeq uint32
	HopSeed          uint32
	HopsAway         uint8
	ViaNode          uint16
	Name             string
	Used             bool
}

func (e *NeighborEntry) live(now time.Time, timeout time.Duration) bool {
	return e.Used && now.Sub(e.LastSeenAt) <= timeout
}

// Table is a fixed-capacity array of tagged slots, per the node's
// allocation-free hot path requirement: aging is lazy, evaluated on read,
// never by a background sweep.
type Table struct {
	Self     uint16
	SelfName string
	SelfSeed uint32
	Timeout  time.Duration
	Now      func() time.Time

	slots [TableCapacity]NeighborEntry
}

// NewTable returns an empty table for the given self identity.
func NewTable(self uint16, selfName string, selfSeed uint32, timeout time.Duration) *Table {
	return &Table{
		Self:     self,
		SelfName: selfName,
		SelfSeed: selfSeed,
		Timeout:  timeout,
		Now:      time.Now,
	}
}

func (t *Table) now() time.Time { return t.Now() }

func (t *Table) find(id uint16) int {
	for i := range t.slots {
		if t.slots[i].Used && t.slots[i].NodeID == id {
			return i
		}
	}
	return -1
}

// freeSlot returns the index of an unused slot, or the index of the
// stalest used slot if the table is full. The table is never grown past
// TableCapacity.
func (t *Table) freeSlot() int {
	for i := range t.slots {
		if !t.slots[i].Used {
			return i
		}
	}
	oldest := 0
	for i := 1; i < TableCapacity; i++ {
		if t.slots[i].LastSeenAt.Before(t.slots[oldest].LastSeenAt) {
			oldest = i
		}
	}
	return oldest
}

// Upsert records a frame received directly from peer `from`. name, seq and
// seed are applied only when provided (non-zero/non-empty); a self id is
// ignored, per the no-self-learn invariant.
func (t *Table) Upsert(from uint16, name string, seq uint32, seed uint32) {
	if from == t.Self || from == 0 {
		return
	}
	now := t.now()
	idx := t.find(from)
	if idx < 0 {
		idx = t.freeSlot()
		t.slots[idx] = NeighborEntry{NodeID: from, HopsAway: 1, Used: true}
	}
	e := &t.slots[idx]
	e.Used = true
	e.NodeID = from
	e.LastSeenAt = now
	e.HopsAway = 1
	e.ViaNode = from
	if seq != 0 {
		e.LastHeartbeatSeq = seq
	}
	if seed != 0 {
		e.HopSeed = seed
	}
	if name != "" {
		e.Name = name
	}
}

// MergeGossip applies the epidemic update rule for gossip entries carried
// in a heartbeat received from `sender`. Entries naming self are ignored.
func (t *Table) MergeGossip(sender uint16, entries []wire.GossipEntry) {
	now := t.now()
	for _, g := range entries {
		if g.NodeID == t.Self || g.NodeID == 0 {
			continue
		}
		newHops := g.HopsAway + 1
		idx := t.find(g.NodeID)
		if idx >= 0 && !t.slots[idx].live(now, t.Timeout) {
			// An aged-out entry has already disappeared as far as the
			// lifecycle is concerned; its stale seq must not veto a
			// re-learn (the peer may have rebooted and restarted seq).
			t.slots[idx].Used = false
			idx = -1
		}
		if idx < 0 {
			idx = t.freeSlot()
			t.slots[idx] = NeighborEntry{NodeID: g.NodeID, Used: true}
			e := &t.slots[idx]
			e.LastSeenAt = now
			e.LastHeartbeatSeq = g.Seq
			e.HopsAway = newHops
			e.ViaNode = sender
			e.Name = g.Name
			continue
		}
		cur := &t.slots[idx]
		update := cur.LastHeartbeatSeq < g.Seq ||
			(cur.LastHeartbeatSeq == g.Seq && cur.HopsAway > newHops)
		if !update {
			continue
		}
		cur.LastSeenAt = now
		cur.LastHeartbeatSeq = g.Seq
		cur.HopsAway = newHops
		cur.ViaNode = sender
		if g.Name != "" {
			cur.Name = g.Name
		}
	}
}

// Live returns every entry still within Timeout, in slot order.
func (t *Table) Live() []NeighborEntry {
	now := t.now()
	out := make([]NeighborEntry, 0, TableCapacity)
	for i := range t.slots {
		if t.slots[i].live(now, t.Timeout) {
			out = append(out, t.slots[i])
		}
	}
	return out
}

// Active returns every live, used entry in slot order — the node's notion
// of "currently reachable peer".
func (t *Table) Active() []NeighborEntry {
	return t.Live()
}

// Lookup returns the current entry for id, if any live one exists.
func (t *Table) Lookup(id uint16) (NeighborEntry, bool) {
	idx := t.find(id)
	if idx < 0 {
		return NeighborEntry{}, false
	}
	e := t.slots[idx]
	if !e.live(t.now(), t.Timeout) {
		return NeighborEntry{}, false
	}
	return e, true
}

// GossipOut builds the outbound gossip list for a heartbeat with the given
// self sequence number: self first with hops_away=0, then live neighbors
// sorted by ascending age (freshest first), capped at wire.MaxGossipEntries.
func (t *Table) GossipOut(selfSeq uint32) []wire.GossipEntry {
	live := t.Live()
	sort.Slice(live, func(i, j int) bool { return live[i].LastSeenAt.After(live[j].LastSeenAt) })

	out := make([]wire.GossipEntry, 0, wire.MaxGossipEntries)
	out = append(out, wire.GossipEntry{NodeID: t.Self, Name: t.SelfName, Seq: selfSeq, HopsAway: 0})
	for _, e := range live {
		if len(out) >= wire.MaxGossipEntries {
			break
		}
		out = append(out, wire.GossipEntry{NodeID: e.NodeID, Name: e.Name, Seq: e.LastHeartbeatSeq, HopsAway: e.HopsAway})
	}
	return out
}
