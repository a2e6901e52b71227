package sqlite

import (
	"database/sql"
	"time"
)

// ─── Expiring Key-Value Store ───────────────────────────────────────────────
// Progress records and processed markers live here. Every entry carries a
// TTL; reads treat expired entries as absent, and PurgeExpired reclaims them.

// PutKV stores a value under key with the given time-to-live, replacing any
// previous entry.
func (d *DB) PutKV(key, value string, ttl time.Duration) error {
	expires := d.now().Add(ttl).Unix()
	_, err := d.db.Exec(
		`INSERT INTO kv_entries (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, expires_at=excluded.expires_at`,
		key, value, expires,
	)
	return err
}

// GetKV retrieves a live value. The second return is false when the key is
// missing or expired.
func (d *DB) GetKV(key string) (string, bool, error) {
	var value string
	var expires int64
	err := d.db.QueryRow(
		`SELECT value, expires_at FROM kv_entries WHERE key = ?`, key,
	).Scan(&value, &expires)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if expires <= d.now().Unix() {
		return "", false, nil
	}
	return value, true, nil
}

// ExistsKV reports whether a live entry is present for key.
func (d *DB) ExistsKV(key string) (bool, error) {
	_, ok, err := d.GetKV(key)
	return ok, err
}

// DeleteKV removes an entry regardless of expiry.
func (d *DB) DeleteKV(key string) error {
	_, err := d.db.Exec(`DELETE FROM kv_entries WHERE key = ?`, key)
	return err
}

// PurgeExpired deletes all entries past their expiry and returns how many
// were removed.
func (d *DB) PurgeExpired() (int64, error) {
	res, err := d.db.Exec(
		`DELETE FROM kv_entries WHERE expires_at <= ?`, d.now().Unix(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
