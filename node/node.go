// Package node is the mesh node: the cooperative state machine that owns
// one half-duplex radio and, on top of it, the neighbor table, frequency
// hop scheduler, flood transport and periodic scheduler. It is the thing
// a single physical LifeLink device runs.
package node

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lifelink/node/config"
	"github.com/lifelink/node/hop"
	"github.com/lifelink/node/membership"
	"github.com/lifelink/node/radio"
	"github.com/lifelink/node/telemetry"
	"github.com/lifelink/node/triage"
	"github.com/lifelink/node/wire"
)

// forbiddenNameChars are the frame-grammar delimiters a name must never
// contain.
const forbiddenNameChars = "|:;"

// MaxNameBytes bounds a node's human-readable name.
const MaxNameBytes = 23

// SanitizeName replaces every forbidden delimiter with '_' and truncates
// to MaxNameBytes, matching the NAME command's documented behavior.
func SanitizeName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(forbiddenNameChars, r) {
			return '_'
		}
		return r
	}, name)
	if len(name) > MaxNameBytes {
		name = name[:MaxNameBytes]
	}
	return name
}

// Node owns one radio.Driver and everything built on top of it: the radio
// state machine, the membership table, the hop scheduler, the flood
// transport and the periodic scheduler. Nothing on Node is safe for
// concurrent use; it is driven by exactly one control flow.
type Node struct {
	id      uint16
	name    string
	hopSeed uint32

	timing *config.TimingConfig
	log    *zap.Logger
	metr   *telemetry.Metrics

	sm        *radio.StateMachine
	table     *membership.Table
	dedup     *membership.Dedup
	pending   *membership.Pending
	history   *membership.History
	scheduler *hop.Scheduler

	localSeq uint16
	selfSeq  uint32
	rng      *rand.Rand

	nextHeartbeatAt time.Time
	nextHopTickAt   time.Time
	nextPrintAt     time.Time

	lastErrorCount int
	testData       *testDataTask
}

// New constructs a Node around drv, ready to be driven by Run or Tick.
// logger and metrics may be nil; a nop logger and a fresh metric set keyed
// by the node's hex id are substituted.
func New(cfg *config.NodeConfig, timing *config.TimingConfig, drv radio.Driver, logger *zap.Logger, metr *telemetry.Metrics) *Node {
	if timing == nil {
		timing = config.DefaultTimingConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metr == nil {
		metr = telemetry.New(fmt.Sprintf("%04x", cfg.NodeID))
	}

	channels := cfg.ChannelsMHz
	if len(channels) == 0 {
		channels = hop.DefaultChannelsMHz
	}

	seed := config.DeriveHopSeed(cfg.NodeID)

	n := &Node{
		id:      cfg.NodeID,
		name:    SanitizeName(cfg.Name),
		hopSeed: seed,
		timing:  timing,
		log:     logger.With(zap.String("node_id", fmt.Sprintf("%04x", cfg.NodeID))),
		metr:    metr,

		table:     membership.NewTable(cfg.NodeID, SanitizeName(cfg.Name), seed, timing.MembershipTimeout),
		dedup:     membership.NewDedup(timing.MembershipTimeout),
		pending:   membership.NewPending(timing.AckTimeout),
		history:   membership.NewHistory(),
		scheduler: hop.NewScheduler(channels),

		rng: rand.New(rand.NewSource(int64(seed))),
	}

	n.sm = radio.New(drv, timing.RxTimeout, timing.TxTimeout, timing.TxBackoff)
	n.sm.OnQuiet = n.runSchedulers
	n.sm.OnReceive = n.onReceive

	if err := drv.Begin(cfg.FreqMHz, cfg.BandwidthKHz, cfg.SpreadingFactor, cfg.CodingRate, cfg.SyncWord, cfg.PowerDBm, cfg.PreambleLen); err != nil {
		// A radio init failure halts the node after logging; there is no
		// degraded mode to run in without a radio.
		n.log.Fatal("radio init failed", zap.Error(err))
	}
	drv.SetCRC(true)

	now := time.Now()
	n.nextHeartbeatAt = now
	n.nextHopTickAt = now.Add(timing.HopInterval)
	n.nextPrintAt = now.Add(timing.HopInterval)

	return n
}

// ID returns this node's 16-bit identity.
func (n *Node) ID() uint16 { return n.id }

// Name returns the node's current sanitized name.
func (n *Node) Name() string { return n.name }

// HopSeed returns the node's own derived hop seed.
func (n *Node) HopSeed() uint32 { return n.hopSeed }

// SetName sanitizes and applies a new display name, returning the
// sanitized form (the NAME command's reply body).
func (n *Node) SetName(name string) string {
	n.name = SanitizeName(name)
	n.table.SelfName = n.name
	return n.name
}

// Tick advances the radio state machine by exactly one transition. The
// caller (Run, or a test driving the node directly) is expected to call
// this repeatedly.
func (n *Node) Tick() radio.State {
	return n.sm.Tick()
}

// Run drives Tick until stop is closed.
func (n *Node) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
			n.Tick()
		}
	}
}

// History exposes the message history ring for the command adapter.
func (n *Node) History() *membership.History { return n.history }

// EnableTestData arms the periodic test-data emission task: every
// interval, Send is called with dst/text as if a paired phone had
// requested it.
func (n *Node) EnableTestData(interval time.Duration, dst uint16, text string) {
	n.testData = &testDataTask{interval: interval, dst: dst, text: text, nextAt: time.Now().Add(interval)}
}

// Send originates a DATA frame to dst carrying text, running it through
// the classifier first. It returns ErrQueueFull if the transmit queue is
// already at capacity.
func (n *Node) Send(dst uint16, text string) error {
	out := triage.Classify(text)
	body := triage.Body(text, out)

	n.localSeq++
	msgID := n.localSeq
	n.dedup.MarkLocal(wire.TypeData, n.id, msgID)

	frame := wire.EncodeData(&wire.Data{
		From:   n.id,
		Origin: n.id,
		Dst:    dst,
		MsgID:  msgID,
		TTL:    wire.DefaultTTL,
		Hops:   0,
		Body:   body,
	})
	if err := n.sm.Enqueue(frame); err != nil {
		return err
	}
	n.pending.Add(msgID, dst)
	n.history.Append(membership.HistoryEntry{
		Direction: membership.DirectionSent,
		Peer:      dst,
		MsgID:     msgID,
		Vital:     out.IsVital,
		Urgency:   out.Urgency,
		Intent:    out.Intent,
		Body:      body,
	})
	n.metr.FramesSent.WithLabelValues(wire.TypeData).Inc()
	n.log.Debug("originated data",
		zap.Uint16("dst", dst), zap.Uint16("msg_id", msgID),
		zap.Bool("vital", out.IsVital), zap.String("intent", out.Intent))
	return nil
}
