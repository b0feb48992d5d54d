package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// GossipEntry is one (id, name, seq, hops) tuple piggybacked in a
// heartbeat, describing a node known to the sender.
type GossipEntry struct {
	NodeID   uint16
	Name     string
	Seq      uint32
	HopsAway uint8
}

func encodeGossip(entries []GossipEntry) string {
	if len(entries) == 0 {
		return ""
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, strings.Join([]string{
			fmt.Sprintf("%04X", e.NodeID),
			e.Name,
			strconv.FormatUint(uint64(e.Seq), 10),
			strconv.FormatUint(uint64(e.HopsAway), 10),
		}, gossipField))
	}
	return strings.Join(parts, gossipSep)
}

func decodeGossip(body string) ([]GossipEntry, bool) {
	if body == "" {
		return nil, true
	}
	chunks := strings.Split(body, gossipSep)
	entries := make([]GossipEntry, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk == "" {
			continue
		}
		fields := strings.SplitN(chunk, gossipField, 4)
		if len(fields) != 4 {
			return nil, false
		}
		nid, err := strconv.ParseUint(fields[0], 16, 16)
		if err != nil {
			return nil, false
		}
		seq, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return nil, false
		}
		hops, err := strconv.ParseUint(fields[3], 10, 8)
		if err != nil {
			return nil, false
		}
		entries = append(entries, GossipEntry{
			NodeID:   uint16(nid),
			Name:     fields[1],
			Seq:      uint32(seq),
			HopsAway: uint8(hops),
		})
	}
	return entries, true
}
