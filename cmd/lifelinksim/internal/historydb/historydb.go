// Package historydb persists a simulator run's message history to a
// sqlite file for offline inspection. It has no counterpart in the node
// library itself: the node keeps no persisted state, so this lives
// entirely in the simulator command.
package historydb

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps one run's sqlite history file.
type DB struct {
	conn *sql.DB
}

// Open creates (if needed) and opens path, in WAL mode, and ensures the
// history table exists.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS message_history (
	run_id    TEXT NOT NULL,
	node_id   TEXT NOT NULL,
	idx       INTEGER NOT NULL,
	direction TEXT NOT NULL,
	peer      TEXT NOT NULL,
	msg_id    TEXT NOT NULL,
	vital     INTEGER NOT NULL,
	intent    TEXT NOT NULL,
	urgency   INTEGER NOT NULL,
	body_hex  TEXT NOT NULL
);`
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying connection.
func (d *DB) Close() error { return d.conn.Close() }

// Entry is one row to persist; the simulator fills it from
// membership.HistoryEntry plus a node identifier.
type Entry struct {
	RunID     string
	NodeID    string
	Index     int
	Direction string
	Peer      string
	MsgID     string
	Vital     bool
	Intent    string
	Urgency   uint8
	BodyHex   string
}

// Insert records one history entry.
func (d *DB) Insert(e Entry) error {
	vital := 0
	if e.Vital {
		vital = 1
	}
	_, err := d.conn.Exec(
		`INSERT INTO message_history (run_id, node_id, idx, direction, peer, msg_id, vital, intent, urgency, body_hex)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.NodeID, e.Index, e.Direction, e.Peer, e.MsgID, vital, e.Intent, e.Urgency, e.BodyHex,
	)
	return err
}

// RunCount reports how many rows are stored for runID, for the history
// command's summary.
func (d *DB) RunCount(runID string) (int, error) {
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM message_history WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}

// Rows returns every persisted row for runID, ordered by node id and then
// by history index.
func (d *DB) Rows(runID string) ([]Entry, error) {
	rows, err := d.conn.Query(
		`SELECT node_id, idx, direction, peer, msg_id, vital, intent, urgency, body_hex
		 FROM message_history WHERE run_id = ? ORDER BY node_id, idx`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var vital int
		e.RunID = runID
		if err := rows.Scan(&e.NodeID, &e.Index, &e.Direction, &e.Peer, &e.MsgID, &vital, &e.Intent, &e.Urgency, &e.BodyHex); err != nil {
			return nil, err
		}
		e.Vital = vital != 0
		out = append(out, e)
	}
	return out, rows.Err()
}
