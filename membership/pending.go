package membership

import "time"

// PendingCapacity bounds the number of outbound DATA frames awaiting ACK.
const PendingCapacity = 12

// PendingEntry tracks one outbound DATA frame awaiting acknowledgment.
type PendingEntry struct {
	MsgID  uint16
	Dst    uint16
	SentAt time.Time
	Acked  bool
	used   bool
}

// Pending is the node's outbound delivery tracker.
type Pending struct {
	AckTimeout time.Duration
	Now        func() time.Time

	slots [PendingCapacity]PendingEntry
}

// NewPending returns an empty pending-delivery tracker.
func NewPending(ackTimeout time.Duration) *Pending {
	return &Pending{AckTimeout: ackTimeout, Now: time.Now}
}

func (p *Pending) now() time.Time { return p.Now() }

// Add records a newly originated DATA frame. It returns false, recording
// nothing, if the tracker is already at capacity.
func (p *Pending) Add(msgID, dst uint16) bool {
	for i := range p.slots {
		if !p.slots[i].used {
			p.slots[i] = PendingEntry{MsgID: msgID, Dst: dst, SentAt: p.now(), used: true}
			return true
		}
	}
	return false
}

// Ack marks msgID delivered and removes it. It reports whether a matching
// pending entry was found.
func (p *Pending) Ack(msgID uint16) bool {
	for i := range p.slots {
		if p.slots[i].used && p.slots[i].MsgID == msgID {
			p.slots[i] = PendingEntry{}
			return true
		}
	}
	return false
}

// ExpireStale removes and returns every pending entry older than
// AckTimeout, for the caller to report as a delivery timeout.
func (p *Pending) ExpireStale() []PendingEntry {
	now := p.now()
	var expired []PendingEntry
	for i := range p.slots {
		if p.slots[i].used && now.Sub(p.slots[i].SentAt) > p.AckTimeout {
			expired = append(expired, p.slots[i])
			p.slots[i] = PendingEntry{}
		}
	}
	return expired
}

// Len reports the number of in-flight deliveries, for STATUS/diagnostics.
func (p *Pending) Len() int {
	n := 0
	for i := range p.slots {
		if p.slots[i].used {
			n++
		}
	}
	return n
}
