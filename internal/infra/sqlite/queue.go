package sqlite

import (
	"database/sql"
	"time"
)

// ─── Message Queue Storage ──────────────────────────────────────────────────
// A minimal durable queue over one table. Dequeue hides a message for a
// visibility window instead of deleting it, so a crashed worker's message
// becomes deliverable again.

// QueuedMessage is one stored queue entry.
type QueuedMessage struct {
	ID         int64
	Topic      string
	Key        string
	Payload    []byte
	Deliveries int
}

// Enqueue appends a message to a topic.
func (d *DB) Enqueue(topic, key string, payload []byte) error {
	nowUnix := d.now().Unix()
	_, err := d.db.Exec(
		`INSERT INTO queue_messages (topic, msg_key, payload, enqueued_at, visible_at)
		 VALUES (?, ?, ?, ?, ?)`,
		topic, key, payload, nowUnix, nowUnix,
	)
	return err
}

// Dequeue claims the oldest visible message on a topic and hides it for the
// visibility window. Returns nil when the topic is empty.
func (d *DB) Dequeue(topic string, visibility time.Duration) (*QueuedMessage, error) {
	nowUnix := d.now().Unix()
	var m QueuedMessage
	err := d.db.QueryRow(
		`SELECT id, topic, msg_key, payload, deliveries FROM queue_messages
		 WHERE topic = ? AND acked = 0 AND visible_at <= ?
		 ORDER BY id LIMIT 1`,
		topic, nowUnix,
	).Scan(&m.ID, &m.Topic, &m.Key, &m.Payload, &m.Deliveries)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	_, err = d.db.Exec(
		`UPDATE queue_messages SET visible_at = ?, deliveries = deliveries + 1 WHERE id = ?`,
		d.now().Add(visibility).Unix(), m.ID,
	)
	if err != nil {
		return nil, err
	}
	m.Deliveries++
	return &m, nil
}

// AckMessage marks a claimed message as done.
func (d *DB) AckMessage(id int64) error {
	_, err := d.db.Exec(`UPDATE queue_messages SET acked = 1 WHERE id = ?`, id)
	return err
}

// LatestByKey returns the newest message on a topic for a key, acked or
// not. Used to look up a task's published result. Returns nil when the key
// has never been published.
func (d *DB) LatestByKey(topic, key string) (*QueuedMessage, error) {
	var m QueuedMessage
	err := d.db.QueryRow(
		`SELECT id, topic, msg_key, payload, deliveries FROM queue_messages
		 WHERE topic = ? AND msg_key = ?
		 ORDER BY id DESC LIMIT 1`,
		topic, key,
	).Scan(&m.ID, &m.Topic, &m.Key, &m.Payload, &m.Deliveries)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// PendingCount reports how many unacked messages a topic holds.
func (d *DB) PendingCount(topic string) (int, error) {
	var n int
	err := d.db.QueryRow(
		`SELECT COUNT(*) FROM queue_messages WHERE topic = ? AND acked = 0`, topic,
	).Scan(&n)
	return n, err
}
