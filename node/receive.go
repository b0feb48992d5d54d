package node

import (
	"go.uber.org/zap"

	"github.com/lifelink/node/membership"
	"github.com/lifelink/node/triage"
	"github.com/lifelink/node/wire"
)

// onReceive is the radio state machine's OnReceive hook: it runs once per
// successfully read frame, parsing, deduplicating, updating membership and
// optionally enqueuing a relay — all before the state machine leaves
// RxDone, so no frame is ever half-processed across receive cycles.
func (n *Node) onReceive(data []byte, rssi, snr float32) {
	f := wire.Decode(data)
	if f == nil {
		// Malformed frame: silent drop, no counter incremented.
		return
	}

	switch frame := f.(type) {
	case *wire.Heartbeat:
		n.handleHeartbeat(frame, rssi, snr)
	case *wire.Data:
		n.handleData(frame)
	case *wire.Ack:
		n.handleAck(frame)
	}
}

func (n *Node) handleHeartbeat(h *wire.Heartbeat, rssi, snr float32) {
	n.metr.FramesReceived.WithLabelValues(wire.TypeHeartbeat).Inc()
	if h.From == n.id {
		// Our own heartbeat flooded back to us; nothing to learn.
		return
	}
	if n.dedup.See(wire.TypeHeartbeat, h.From, uint16(h.Seq)) {
		n.metr.DuplicateDrops.Inc()
		return
	}

	if h.Hops == 0 {
		n.table.Upsert(h.From, h.Name, h.Seq, h.Seed)
	} else {
		// A relayed heartbeat keeps the originator in its From field, so
		// the sender is not one hop away; fold it in under the gossip
		// merge rule with the distance the hops field reports.
		n.table.MergeGossip(h.From, []wire.GossipEntry{
			{NodeID: h.From, Name: h.Name, Seq: h.Seq, HopsAway: h.Hops},
		})
	}
	n.table.MergeGossip(h.From, h.Gossip)

	n.log.Debug("heartbeat received",
		zap.Uint16("from", h.From), zap.Uint32("seq", h.Seq),
		zap.Float32("rssi", rssi), zap.Float32("snr", snr))

	// A heartbeat received is an authoritative (seed, seq) update: force
	// the hop scheduler to re-evaluate immediately rather than waiting for
	// the next tick.
	n.evaluateHop(true)

	if h.TTL == 0 {
		return
	}
	// Heartbeat relay re-derives the gossip payload from this node's own
	// table rather than forwarding the bytes it received: the embedded
	// gossip list describes the relayer's own neighbors, not the original
	// sender's.
	relay := &wire.Heartbeat{
		From:   h.From,
		Seq:    h.Seq,
		Seed:   h.Seed,
		Name:   h.Name,
		TTL:    h.TTL - 1,
		Hops:   h.Hops + 1,
		Gossip: n.table.GossipOut(n.selfSeq),
	}
	n.enqueueBestEffort(wire.EncodeHeartbeat(relay), wire.TypeHeartbeat)
}

func (n *Node) handleData(d *wire.Data) {
	n.metr.FramesReceived.WithLabelValues(wire.TypeData).Inc()
	n.touchSenderAndOrigin(d.From, d.Origin, d.Hops)

	if n.dedup.See(wire.TypeData, d.Origin, d.MsgID) {
		n.metr.DuplicateDrops.Inc()
		return
	}

	if d.Dst == n.id {
		vital, intent, urgency := triage.ParsePayload(d.Body)
		n.history.Append(membership.HistoryEntry{
			Direction: membership.DirectionReceived,
			Peer:      d.Origin,
			MsgID:     d.MsgID,
			Vital:     vital,
			Urgency:   urgency,
			Intent:    intent,
			Body:      d.Body,
		})

		ack := wire.EncodeAck(&wire.Ack{
			From:   n.id,
			Origin: n.id,
			Dst:    d.Origin,
			MsgID:  d.MsgID,
			TTL:    wire.DefaultTTL,
			Hops:   0,
		})
		n.dedup.MarkLocal(wire.TypeAck, n.id, d.MsgID)
		n.enqueueBestEffort(ack, wire.TypeAck)
		return
	}

	if d.TTL > 0 {
		relay := wire.EncodeData(&wire.Data{
			From:   n.id,
			Origin: d.Origin,
			Dst:    d.Dst,
			MsgID:  d.MsgID,
			TTL:    d.TTL - 1,
			Hops:   d.Hops + 1,
			Body:   d.Body,
		})
		n.enqueueBestEffort(relay, wire.TypeData)
	}
}

func (n *Node) handleAck(a *wire.Ack) {
	n.metr.FramesReceived.WithLabelValues(wire.TypeAck).Inc()
	n.touchSenderAndOrigin(a.From, a.Origin, a.Hops)

	if n.dedup.See(wire.TypeAck, a.Origin, a.MsgID) {
		n.metr.DuplicateDrops.Inc()
		return
	}

	if a.Dst == n.id {
		n.pending.Ack(a.MsgID)
		return
	}

	if a.TTL > 0 {
		relay := wire.EncodeAck(&wire.Ack{
			From:   n.id,
			Origin: a.Origin,
			Dst:    a.Dst,
			MsgID:  a.MsgID,
			TTL:    a.TTL - 1,
			Hops:   a.Hops + 1,
		})
		n.enqueueBestEffort(relay, wire.TypeAck)
	}
}

// touchSenderAndOrigin upserts the direct peer that handed us this frame
// (hops_away=1) and separately folds the frame's reported origin
// into the table via the same merge rule gossip entries use, so a
// multi-hop origin with no direct link still gets a best-known route.
func (n *Node) touchSenderAndOrigin(from, origin uint16, hops uint8) {
	n.table.Upsert(from, "", 0, 0)
	if origin != from {
		n.table.MergeGossip(from, []wire.GossipEntry{{NodeID: origin, HopsAway: hops}})
	}
}

// enqueueBestEffort places a relay/ack frame on the transmit queue,
// logging and counting a queue-full drop rather than surfacing an error:
// there is no caller left to report failure to once we're inside the
// receive-processing path.
func (n *Node) enqueueBestEffort(frame []byte, kind string) {
	if err := n.sm.Enqueue(frame); err != nil {
		n.log.Warn("relay dropped, queue full", zap.String("type", kind))
		return
	}
	n.metr.FramesSent.WithLabelValues(kind).Inc()
}
