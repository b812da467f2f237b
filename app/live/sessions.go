package live

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"smart-attendance/app/models"
	"smart-attendance/app/recognition"
)

var (
	// ErrSessionNotFound is returned for a key with no open session.
	ErrSessionNotFound = errors.New("no open session for this class, section and date")
	// ErrScanInProgress guards against concurrent recognition calls for the
	// same session's images.
	ErrScanInProgress = errors.New("a scan is already in progress for this session")
	// ErrPollerRunning is returned when a second camera poller is started.
	ErrPollerRunning = errors.New("camera poller is already running for this session")
)

// Session bundles everything belonging to one open attendance session: the
// reconciler, the uploaded-image registry, the optional camera poller and
// the operator-feedback hub.
type Session struct {
	Key        Key
	Reconciler *Reconciler
	Images     *ImageRegistry
	Hub        *Hub

	recognizer Recognizer

	mu         sync.Mutex
	poller     *Poller
	scanning   atomic.Bool
	lastActive time.Time
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// IdleSince returns the time of the session's last operation.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// StartPoller attaches a live camera poller to the session. Only one may
// run at a time.
func (s *Session) StartPoller(ctx context.Context, source FrameSource, interval time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poller != nil {
		return ErrPollerRunning
	}
	p := NewPoller(interval, source, s.recognizer, s.Reconciler, func(matches []recognition.Match) {
		s.Hub.Broadcast(map[string]interface{}{"type": "matches", "matches": matches})
	})
	p.Start(ctx)
	s.poller = p
	s.lastActive = time.Now()
	return nil
}

// StopPoller stops the camera poller if one is running.
func (s *Session) StopPoller() {
	s.mu.Lock()
	p := s.poller
	s.poller = nil
	s.mu.Unlock()
	if p != nil {
		p.Stop()
	}
}

// PushFrame applies one browser-captured frame: recognize, broadcast for
// feedback, assert identified matches under the "live" source. A failed
// recognition call leaves the reconciler unchanged.
func (s *Session) PushFrame(ctx context.Context, frame []byte) (*recognition.Result, error) {
	s.touch()
	result, err := s.recognizer.RecognizeFrame(ctx, frame, "frame.jpg")
	if err != nil {
		return nil, err
	}
	if len(result.Matches) > 0 {
		s.Hub.Broadcast(map[string]interface{}{"type": "matches", "matches": result.Matches})
	}
	ApplyLiveMatches(s.Reconciler, result.Matches)
	return result, nil
}

// ScanImage runs recognition over one previously uploaded image and folds
// the identified matches in under the image's own source id. Re-scanning a
// scanned image is rejected before any network call; only one scan per
// session may be in flight.
func (s *Session) ScanImage(ctx context.Context, imageID string) (*recognition.Result, error) {
	img, err := s.Images.Get(imageID)
	if err != nil {
		return nil, err
	}
	if img.Scanned {
		return nil, ErrAlreadyScanned
	}
	if !s.scanning.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	defer s.scanning.Store(false)
	s.touch()

	result, err := s.recognizer.RecognizeFrame(ctx, img.Data, img.Filename)
	if err != nil {
		// Image stays unscanned; the operator can retry explicitly.
		return nil, err
	}

	// Unknown matches are filtered here just as on the live path.
	known := result.KnownMatches()
	assertions := make([]Assertion, 0, len(known))
	rolls := make([]string, 0, len(known))
	for _, m := range known {
		assertions = append(assertions, Assertion{RollNo: m.Roll, Name: m.Name, SourceID: img.ID})
		rolls = append(rolls, m.Roll)
	}

	if err := s.Images.MarkScanned(img.ID, rolls); err != nil {
		return nil, err
	}
	s.Reconciler.Apply(assertions)
	return result, nil
}

// DeleteImage removes an uploaded image and retracts every assertion it
// contributed. Students supported by another source stay present.
func (s *Session) DeleteImage(imageID string) error {
	img, err := s.Images.Remove(imageID)
	if err != nil {
		return err
	}
	s.touch()
	s.Reconciler.RetractSource(img.ID)
	return nil
}

// Close stops the poller, disconnects watchers and flushes the snapshot.
func (s *Session) Close() {
	s.StopPoller()
	s.Hub.CloseAll()
	s.Reconciler.Close()
}

// Manager is the registry of open sessions, keyed by (class, section, date).
type Manager struct {
	mu         sync.Mutex
	sessions   map[Key]*Session
	store      SnapshotStore
	recognizer Recognizer
}

func NewManager(store SnapshotStore, recognizer Recognizer) *Manager {
	return &Manager{
		sessions:   make(map[Key]*Session),
		store:      store,
		recognizer: recognizer,
	}
}

// Open returns the session for key, creating it if needed. A new session
// restores any persisted snapshot; restoring only seeds in-memory state and
// never triggers source side effects.
func (m *Manager) Open(key Key, roster []models.Student) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[key]; ok {
		s.touch()
		return s, nil
	}

	rec := NewReconciler(key, roster, m.store)
	if err := rec.Restore(); err != nil {
		return nil, err
	}
	s := &Session{
		Key:        key,
		Reconciler: rec,
		Images:     NewImageRegistry(),
		Hub:        NewHub(),
		recognizer: m.recognizer,
		lastActive: time.Now(),
	}
	m.sessions[key] = s
	activeSessions.Set(float64(len(m.sessions)))
	log.Printf("Opened live session %s", key.StorageKey())
	return s, nil
}

// Get returns an already open session.
func (m *Manager) Get(key Key) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch()
	return s, nil
}

// Close shuts down and removes one session.
func (m *Manager) Close(key Key) error {
	m.mu.Lock()
	s, ok := m.sessions[key]
	delete(m.sessions, key)
	activeSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	log.Printf("Closed live session %s", key.StorageKey())
	return nil
}

// Sweep closes sessions idle for longer than maxIdle, flushing their
// snapshots. Returns how many were closed.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	var stale []*Session
	for key, s := range m.sessions {
		if s.IdleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, key)
		}
	}
	activeSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
		log.Printf("Swept idle live session %s", s.Key.StorageKey())
	}
	return len(stale)
}
