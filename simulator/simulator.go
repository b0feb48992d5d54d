// Package simulator drives N in-process LifeLink nodes over a shared
// in-memory radio medium, for exercising the mesh node without hardware.
// It is a host-only harness: nothing here runs on a device, which is why
// it lives outside the node package.
package simulator

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lifelink/node/config"
	"github.com/lifelink/node/node"
	"github.com/lifelink/node/radio"
	"github.com/lifelink/node/telemetry"
)

// Mesh is a set of simulated nodes sharing one in-memory radio medium.
type Mesh struct {
	Medium *radio.SharedMedium
	Nodes  []*node.Node

	stop chan struct{}
	done chan struct{}
}

// New builds a mesh of n nodes with ids starting at firstID, each named
// node-<id as four hex digits>, all joined to a fresh shared medium.
func New(n int, firstID uint16, timing *config.TimingConfig, logger *zap.Logger) *Mesh {
	medium := radio.NewSharedMedium()
	m := &Mesh{Medium: medium, stop: make(chan struct{}), done: make(chan struct{})}

	for i := 0; i < n; i++ {
		id := firstID + uint16(i)
		name := fmt.Sprintf("node-%04x", id)
		cfg := config.DefaultNodeConfig(id, name)
		drv := medium.Join(-45, 8)
		metr := telemetry.New(name)
		nd := node.New(cfg, timing, drv, logger, metr)
		m.Nodes = append(m.Nodes, nd)
	}
	return m
}

// Run drives every node's state machine concurrently, one goroutine per
// node funneled through the shared medium, until Stop is called. This
// mirrors the production deployment — each physical node is its own
// single-threaded loop — while letting the simulator host many at once.
func (m *Mesh) Run() {
	done := make(chan struct{}, len(m.Nodes))
	for _, n := range m.Nodes {
		go func(n *node.Node) {
			n.Run(m.stop)
			done <- struct{}{}
		}(n)
	}
	go func() {
		for range m.Nodes {
			<-done
		}
		close(m.done)
	}()
}

// Stop signals every node to return from Run and blocks until they do.
func (m *Mesh) Stop() {
	close(m.stop)
	<-m.done
}

// RunFor starts the mesh, lets it run for d, then stops it.
func (m *Mesh) RunFor(d time.Duration) {
	m.Run()
	time.Sleep(d)
	m.Stop()
}

// ByID returns the node with the given id, if any.
func (m *Mesh) ByID(id uint16) (*node.Node, bool) {
	for _, n := range m.Nodes {
		if n.ID() == id {
			return n, true
		}
	}
	return nil, false
}
