package live

import (
	"database/sql"
	"encoding/json"
	"log"
	"sync"

	"smart-attendance/app/database"
)

// SnapshotStore is the durable mirror of a session's attendee set, keyed by
// the session's storage key. Load returns nil with no error for a missing
// or unreadable key.
type SnapshotStore interface {
	Save(key string, attendees []Attendee) error
	Load(key string) ([]Attendee, error)
	Delete(key string) error
}

// MemoryStore is an in-memory SnapshotStore, used in tests and as a
// fallback when the service runs without a database.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]Attendee
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]Attendee)}
}

func (s *MemoryStore) Save(key string, attendees []Attendee) error {
	copied := make([]Attendee, len(attendees))
	for i, a := range attendees {
		copied[i] = a
		copied[i].Sources = append([]string(nil), a.Sources...)
	}
	s.mu.Lock()
	s.data[key] = copied
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(key string) ([]Attendee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	copied := make([]Attendee, len(saved))
	for i, a := range saved {
		copied[i] = a
		copied[i].Sources = append([]string(nil), a.Sources...)
	}
	return copied, nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// Has reports whether a key currently holds a snapshot.
func (s *MemoryStore) Has(key string) bool {
	s.mu.Lock()
	_, ok := s.data[key]
	s.mu.Unlock()
	return ok
}

// DBStore persists snapshots to the session_snapshots table.
type DBStore struct {
	db *sql.DB
}

func NewDBStore(db *sql.DB) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) Save(key string, attendees []Attendee) error {
	data, err := json.Marshal(attendees)
	if err != nil {
		return err
	}
	return database.SaveSessionSnapshot(s.db, key, data)
}

func (s *DBStore) Load(key string) ([]Attendee, error) {
	raw, err := database.GetSessionSnapshot(s.db, key)
	if err != nil || raw == nil {
		return nil, err
	}
	var attendees []Attendee
	if err := json.Unmarshal(raw, &attendees); err != nil {
		// A corrupt snapshot must not take the session down; start empty.
		log.Printf("Corrupt session snapshot %s, discarding: %v", key, err)
		return nil, nil
	}
	return attendees, nil
}

func (s *DBStore) Delete(key string) error {
	return database.DeleteSessionSnapshot(s.db, key)
}
