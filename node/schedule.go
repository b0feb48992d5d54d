package node

import (
	"time"

	"go.uber.org/zap"

	"github.com/lifelink/node/wire"
)

// testDataTask periodically originates a canned message, standing in for
// the pairing layer's SEND command so a node can be exercised without a
// paired phone.
type testDataTask struct {
	interval time.Duration
	dst      uint16
	text     string
	nextAt   time.Time
}

// runSchedulers is invoked at the three "quiet" radio-state-machine
// transitions (Idle, RxDone, RxTimeout), so the rate at which heartbeats,
// test data, hop ticks and pending-data expiry are evaluated is bounded
// by the receive timeout.
func (n *Node) runSchedulers() {
	now := time.Now()

	if !now.Before(n.nextHeartbeatAt) {
		n.emitHeartbeat()
		jitter := time.Duration(0)
		if n.timing.HeartbeatJitter > 0 {
			jitter = time.Duration(n.rng.Int63n(int64(n.timing.HeartbeatJitter)))
		}
		n.nextHeartbeatAt = now.Add(n.timing.HeartbeatInterval + jitter)
	}

	if n.testData != nil && !now.Before(n.testData.nextAt) {
		if err := n.Send(n.testData.dst, n.testData.text); err != nil {
			n.log.Warn("test data send failed", zap.Error(err))
		}
		n.testData.nextAt = now.Add(n.testData.interval)
	}

	if !now.Before(n.nextHopTickAt) {
		n.evaluateHop(false)
		n.nextHopTickAt = now.Add(n.timing.HopInterval)
	}

	n.expirePending()

	if !now.Before(n.nextPrintAt) {
		n.logMembership()
		n.nextPrintAt = now.Add(n.timing.HopInterval)
	}

	n.reportGauges()
}

func (n *Node) emitHeartbeat() {
	n.selfSeq++
	n.dedup.MarkLocal(wire.TypeHeartbeat, n.id, uint16(n.selfSeq))
	hb := &wire.Heartbeat{
		From:   n.id,
		Seq:    n.selfSeq,
		Seed:   n.hopSeed,
		Name:   n.name,
		TTL:    wire.DefaultTTL,
		Hops:   0,
		Gossip: n.table.GossipOut(n.selfSeq),
	}
	n.enqueueBestEffort(wire.EncodeHeartbeat(hb), wire.TypeHeartbeat)
}

// evaluateHop re-runs leader election and, if warranted, applies a new
// channel to the radio driver.
func (n *Node) evaluateHop(forced bool) {
	live := n.table.Live()
	result := n.scheduler.Evaluate(n.id, n.hopSeed, n.selfSeq, live, forced)
	if result.Changed {
		if err := n.sm.Driver.SetFrequency(result.ChannelMHz); err != nil {
			n.log.Warn("set frequency failed", zap.Error(err))
			return
		}
		n.log.Info("hop channel changed",
			zap.Uint16("leader", result.LeaderID),
			zap.Float64("channel_mhz", result.ChannelMHz))
	}
}

func (n *Node) expirePending() {
	for _, p := range n.pending.ExpireStale() {
		n.log.Debug("delivery timed out", zap.Uint16("dst", p.Dst), zap.Uint16("msg_id", p.MsgID))
	}
}

func (n *Node) logMembership() {
	active := n.table.Active()
	n.log.Info("membership", zap.Int("active_peers", len(active)), zap.Uint16("leader", n.scheduler.LeaderID()))
}

func (n *Node) reportGauges() {
	n.metr.ActiveNeighbors.Set(float64(len(n.table.Active())))
	n.metr.PendingData.Set(float64(n.pending.Len()))
	n.metr.QueueDepth.Set(float64(n.sm.QueueLen()))
	n.metr.SetRadioState(n.sm.State().String())

	if errs := n.sm.ErrorCount(); errs > n.lastErrorCount {
		n.metr.RadioErrors.Add(float64(errs - n.lastErrorCount))
		n.lastErrorCount = errs
	}
}
