// Package command implements the pairing/command adapter: the thin
// ASCII, pipe-delimited request/reply dispatch exposed to the external
// short-range session layer. Each request is a single line in, a single
// reply line out; this package never touches the radio or the mesh
// directly, only the Node it's handed.
package command

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/lifelink/node/node"
)

// MaxLineBytes bounds a single request or reply line.
const MaxLineBytes = 256

// Handle dispatches one request line against n and returns the reply line,
// both ASCII, pipe-delimited, ≤ MaxLineBytes.
func Handle(n *node.Node, line string) string {
	fields := strings.Split(line, "|")
	verb := fields[0]

	var reply string
	switch verb {
	case "WHOAMI":
		reply = fmt.Sprintf("OK|WHOAMI|%04X|%s", n.ID(), n.Name())

	case "STATUS":
		reply = statusReply(n.Snapshot())

	case "NAME":
		if len(fields) < 2 {
			reply = "ERR|NAME|format"
		} else {
			// The requested name may itself contain '|'; everything after
			// the verb is the name, and sanitization turns the delimiters
			// into '_'.
			reply = fmt.Sprintf("OK|NAME|%s", n.SetName(strings.Join(fields[1:], "|")))
		}

	case "SEND":
		reply = sendReply(n, fields)

	case "HISTCOUNT":
		reply = fmt.Sprintf("OK|HISTCOUNT|%d", n.History().Count())

	case "HISTGET":
		reply = histGetReply(n, fields)

	default:
		reply = "ERR|CMD|unknown"
	}

	if len(reply) > MaxLineBytes {
		reply = reply[:MaxLineBytes]
	}
	return reply
}

func statusReply(s node.Snapshot) string {
	return fmt.Sprintf("OK|STATUS|%04X|%s|%04X|%08X|%d|%d|%.1f",
		s.ID, s.Name, s.LeaderID, s.HopSeed, s.HopSeq, s.HopChannel, s.FreqMHz)
}

func sendReply(n *node.Node, fields []string) string {
	if len(fields) < 3 {
		return "ERR|SEND|format"
	}
	dst64, err := strconv.ParseUint(fields[1], 16, 16)
	if err != nil {
		return "ERR|SEND|format"
	}
	text := strings.Join(fields[2:], "|")
	if err := n.Send(uint16(dst64), text); err != nil {
		return "ERR|SEND|queue_full"
	}
	return "OK|SEND|queued"
}

func histGetReply(n *node.Node, fields []string) string {
	if len(fields) < 2 {
		return "ERR|HIST|range"
	}
	idx, err := strconv.Atoi(fields[1])
	if err != nil {
		return "ERR|HIST|range"
	}
	entry, ok := n.History().At(idx)
	if !ok {
		return "ERR|HIST|range"
	}
	vital := 0
	if entry.Vital {
		vital = 1
	}
	return fmt.Sprintf("OK|HIST|%d|%c|%04X|%d|%d|%s|%d|%s",
		idx, entry.Direction, entry.Peer, entry.MsgID, vital, entry.Intent, entry.Urgency,
		strings.ToUpper(hex.EncodeToString(entry.Body)))
}
