package database

import "database/sql"

// SaveSessionSnapshot upserts a live session's serialized attendee set.
func SaveSessionSnapshot(db *sql.DB, key string, attendees []byte) error {
	query := `INSERT INTO session_snapshots (key, attendees, updated_at)
			  VALUES ($1, $2, NOW())
			  ON CONFLICT (key)
			  DO UPDATE SET attendees = EXCLUDED.attendees, updated_at = NOW()`

	_, err := db.Exec(query, key, attendees)
	return err
}

// GetSessionSnapshot returns the stored attendee JSON for a key, or nil
// when no snapshot exists.
func GetSessionSnapshot(db *sql.DB, key string) ([]byte, error) {
	var attendees []byte
	err := db.QueryRow(`SELECT attendees FROM session_snapshots WHERE key = $1`, key).Scan(&attendees)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return attendees, nil
}

// DeleteSessionSnapshot removes a stored snapshot. Deleting a missing key
// is not an error.
func DeleteSessionSnapshot(db *sql.DB, key string) error {
	_, err := db.Exec(`DELETE FROM session_snapshots WHERE key = $1`, key)
	return err
}
