// Package live implements live attendance sessions: the reconciler that owns
// the authoritative "who is present" roster for a class session, the input
// sources that feed it, and the snapshot store that lets a session survive
// a restart.
package live

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"smart-attendance/app/models"
)

// Source identifiers. Uploaded images use their own per-image id
// (see NewImageID) instead of a fixed constant.
const (
	SourceLive           = "live"
	SourceManualEntry    = "manual_entry"
	SourceManualOverride = "manual_override"
	SourceBulkPresent    = "bulk_present"
)

var (
	// ErrNotInRoster is returned when a roll number is not enrolled in the
	// session's section.
	ErrNotInRoster = errors.New("roll number not found in roster")
	// ErrAlreadyPresent is returned when a student is already marked present.
	ErrAlreadyPresent = errors.New("student is already marked present")
)

// Key identifies one attendance session: a class, a section and an ISO date.
type Key struct {
	ClassName string `json:"class_name"`
	Section   string `json:"section"`
	Date      string `json:"date"`
}

// StorageKey is the snapshot partition key for this session.
func (k Key) StorageKey() string {
	return fmt.Sprintf("SA_attendance_%s_%s_%s", k.ClassName, k.Section, k.Date)
}

// Assertion is a single claim that a student is present, attributable to
// exactly one source.
type Assertion struct {
	RollNo   string
	Name     string
	SourceID string
}

// Attendee is the reconciler's unit of truth for one present student.
// Sources holds every source id that currently supports the student's
// presence; when the last one is retracted the record is deleted.
type Attendee struct {
	RollNo               string   `json:"rollNo"`
	Name                 string   `json:"name"`
	Sources              []string `json:"sources"`
	IsManualOverride     bool     `json:"isManualOverride,omitempty"`
	ManualOverrideReason string   `json:"manualOverrideReason,omitempty"`
	Img                  string   `json:"img,omitempty"`
}

func (a *Attendee) hasSource(sourceID string) bool {
	for _, s := range a.Sources {
		if s == sourceID {
			return true
		}
	}
	return false
}

func (a *Attendee) clone() Attendee {
	c := *a
	c.Sources = append([]string(nil), a.Sources...)
	return c
}

// DefaultFlushDelay is the debounce window for snapshot writes.
const DefaultFlushDelay = 500 * time.Millisecond

// Reconciler maintains the roll number -> Attendee mapping for one session.
// It is the single writer of that mapping: sources never touch it directly,
// only through Apply, RetractSource, ManualAdd, MarkAllPresent and ClearAll.
// Every mutation schedules a debounced snapshot write; Flush forces one.
type Reconciler struct {
	mu         sync.Mutex
	key        Key
	roster     []models.Student
	rosterByNo map[string]models.Student // keyed by uppercased roll number
	attendees  map[string]*Attendee
	store      SnapshotStore
	flushDelay time.Duration
	flushTimer *time.Timer
	closed     bool
}

// NewReconciler builds a reconciler for the given session over a fixed
// roster. The roster and the snapshot store are passed at construction;
// nothing is looked up from ambient state.
func NewReconciler(key Key, roster []models.Student, store SnapshotStore) *Reconciler {
	byNo := make(map[string]models.Student, len(roster))
	for _, s := range roster {
		byNo[strings.ToUpper(s.RollNo)] = s
	}
	return &Reconciler{
		key:        key,
		roster:     roster,
		rosterByNo: byNo,
		attendees:  make(map[string]*Attendee),
		store:      store,
		flushDelay: DefaultFlushDelay,
	}
}

// SetFlushDelay overrides the snapshot debounce window. A zero delay makes
// every mutation flush synchronously.
func (r *Reconciler) SetFlushDelay(d time.Duration) {
	r.mu.Lock()
	r.flushDelay = d
	r.mu.Unlock()
}

// Key returns the session key.
func (r *Reconciler) Key() Key {
	return r.key
}

// Roster returns the session's fixed roster.
func (r *Reconciler) Roster() []models.Student {
	return r.roster
}

// Restore seeds the attendee set from a stored snapshot, if one exists.
// Transient image references are sanitized since they are invalid after a
// restart. A corrupt snapshot is logged and ignored; the session starts
// empty rather than failing. Restoring never triggers source side effects.
func (r *Reconciler) Restore() error {
	if r.store == nil {
		return nil
	}
	saved, err := r.store.Load(r.key.StorageKey())
	if err != nil {
		log.Printf("Failed to restore session %s: %v", r.key.StorageKey(), err)
		return nil
	}
	if len(saved) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range saved {
		a := saved[i]
		if a.RollNo == "" {
			continue
		}
		if strings.HasPrefix(a.Img, "blob:") || strings.HasPrefix(a.Img, "http") {
			a.Img = ""
		}
		if len(a.Sources) == 0 {
			continue
		}
		r.attendees[a.RollNo] = &a
	}
	log.Printf("Restored %d attendees for session %s", len(r.attendees), r.key.StorageKey())
	return nil
}

// Apply merges a batch of presence assertions. The whole batch is applied
// under one lock hold, so a concurrently-reading view never observes a
// partial batch. Assertions carrying the unknown sentinel are discarded.
func (r *Reconciler) Apply(assertions []Assertion) {
	r.mu.Lock()
	changed := false
	for _, as := range assertions {
		if as.RollNo == "" || as.RollNo == "Unknown" {
			continue
		}
		if r.applyOne(as, false, "") {
			changed = true
		}
	}
	r.mu.Unlock()
	if changed {
		r.scheduleFlush()
	}
}

// ApplyOverride merges override assertions and marks the resulting records
// with the override flag and reason. Callers must have written the audit
// log before invoking this.
func (r *Reconciler) ApplyOverride(assertions []Assertion, reason string) {
	r.mu.Lock()
	changed := false
	for _, as := range assertions {
		if as.RollNo == "" || as.RollNo == "Unknown" {
			continue
		}
		as.SourceID = SourceManualOverride
		if r.applyOne(as, true, reason) {
			changed = true
		}
	}
	r.mu.Unlock()
	if changed {
		r.scheduleFlush()
	}
}

// applyOne merges a single assertion. Caller holds the lock.
func (r *Reconciler) applyOne(as Assertion, override bool, reason string) bool {
	existing, ok := r.attendees[as.RollNo]
	if !ok {
		a := &Attendee{
			RollNo:  as.RollNo,
			Name:    as.Name,
			Sources: []string{as.SourceID},
		}
		if override {
			a.IsManualOverride = true
			a.ManualOverrideReason = reason
		}
		r.attendees[as.RollNo] = a
		return true
	}

	changed := false
	if !existing.hasSource(as.SourceID) {
		existing.Sources = append(existing.Sources, as.SourceID)
		changed = true
	}
	if override && !existing.IsManualOverride {
		existing.IsManualOverride = true
		existing.ManualOverrideReason = reason
		changed = true
	}
	return changed
}

// RetractSource removes a source's contribution from every attendee.
// Records left with no supporting source are deleted, never kept empty.
func (r *Reconciler) RetractSource(sourceID string) {
	r.mu.Lock()
	changed := false
	for roll, a := range r.attendees {
		if !a.hasSource(sourceID) {
			continue
		}
		remaining := a.Sources[:0]
		for _, s := range a.Sources {
			if s != sourceID {
				remaining = append(remaining, s)
			}
		}
		a.Sources = remaining
		if len(a.Sources) == 0 {
			delete(r.attendees, roll)
		}
		changed = true
	}
	r.mu.Unlock()
	if changed {
		r.scheduleFlush()
	}
}

// ManualAdd marks one roster student present from direct roll-number entry.
// Validation is synchronous: ErrNotInRoster for unenrolled roll numbers,
// ErrAlreadyPresent for duplicates. Neither mutates state.
func (r *Reconciler) ManualAdd(rollNo string) (*Attendee, error) {
	student, ok := r.rosterByNo[strings.ToUpper(strings.TrimSpace(rollNo))]
	if !ok {
		return nil, ErrNotInRoster
	}

	r.mu.Lock()
	if _, exists := r.attendees[student.RollNo]; exists {
		r.mu.Unlock()
		return nil, ErrAlreadyPresent
	}
	a := &Attendee{
		RollNo:  student.RollNo,
		Name:    student.Name,
		Sources: []string{SourceManualEntry},
	}
	r.attendees[student.RollNo] = a
	result := a.clone()
	r.mu.Unlock()

	r.scheduleFlush()
	return &result, nil
}

// MarkAllPresent replaces the attendee set with one record per roster
// entry. Irreversible except by further mutation; confirmation is the
// caller's responsibility.
func (r *Reconciler) MarkAllPresent() {
	r.mu.Lock()
	r.attendees = make(map[string]*Attendee, len(r.roster))
	for _, s := range r.roster {
		r.attendees[s.RollNo] = &Attendee{
			RollNo:  s.RollNo,
			Name:    s.Name,
			Sources: []string{SourceBulkPresent},
		}
	}
	r.mu.Unlock()
	r.scheduleFlush()
}

// ClearAll empties the attendee set and deletes the persisted snapshot
// immediately, without waiting for the debounce window.
func (r *Reconciler) ClearAll() {
	r.mu.Lock()
	r.attendees = make(map[string]*Attendee)
	if r.flushTimer != nil {
		r.flushTimer.Stop()
		r.flushTimer = nil
	}
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.Delete(r.key.StorageKey()); err != nil {
			log.Printf("Failed to clear snapshot %s: %v", r.key.StorageKey(), err)
		}
	}
}

// Present returns the attendee list sorted by roll number ascending.
func (r *Reconciler) Present() []Attendee {
	r.mu.Lock()
	out := make([]Attendee, 0, len(r.attendees))
	for _, a := range r.attendees {
		out = append(out, a.clone())
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].RollNo < out[j].RollNo })
	return out
}

// Absent derives the roster entries with no attendee record, sorted by roll
// number ascending. Always recomputed, never cached.
func (r *Reconciler) Absent() []models.Student {
	r.mu.Lock()
	out := make([]models.Student, 0, len(r.roster))
	for _, s := range r.roster {
		if _, present := r.attendees[s.RollNo]; !present {
			out = append(out, s)
		}
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].RollNo < out[j].RollNo })
	return out
}

// IsPresent reports whether the given roll number has an attendee record.
func (r *Reconciler) IsPresent(rollNo string) bool {
	r.mu.Lock()
	_, ok := r.attendees[rollNo]
	r.mu.Unlock()
	return ok
}

// scheduleFlush arms (or re-arms) the debounced snapshot write.
func (r *Reconciler) scheduleFlush() {
	r.mu.Lock()
	if r.closed || r.store == nil {
		r.mu.Unlock()
		return
	}
	if r.flushDelay <= 0 {
		r.mu.Unlock()
		r.Flush()
		return
	}
	if r.flushTimer == nil {
		r.flushTimer = time.AfterFunc(r.flushDelay, r.Flush)
	} else {
		r.flushTimer.Reset(r.flushDelay)
	}
	r.mu.Unlock()
}

// Flush writes the current attendee set to the snapshot store now. An empty
// set deletes the stored key instead of persisting an empty collection.
func (r *Reconciler) Flush() {
	if r.store == nil {
		return
	}

	r.mu.Lock()
	if r.flushTimer != nil {
		r.flushTimer.Stop()
		r.flushTimer = nil
	}
	snapshot := make([]Attendee, 0, len(r.attendees))
	for _, a := range r.attendees {
		snapshot = append(snapshot, a.clone())
	}
	r.mu.Unlock()

	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].RollNo < snapshot[j].RollNo })

	var err error
	if len(snapshot) == 0 {
		err = r.store.Delete(r.key.StorageKey())
	} else {
		err = r.store.Save(r.key.StorageKey(), snapshot)
	}
	if err != nil {
		log.Printf("Failed to persist session %s: %v", r.key.StorageKey(), err)
	}
}

// Close flushes pending state and stops the debounce timer.
func (r *Reconciler) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.Flush()
}
