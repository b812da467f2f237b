package live

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-attendance/app/recognition"
)

func newTestSession(t *testing.T, rec Recognizer) (*Manager, *Session) {
	t.Helper()
	m := NewManager(NewMemoryStore(), rec)
	s, err := m.Open(testKey(), testRoster())
	require.NoError(t, err)
	s.Reconciler.SetFlushDelay(0)
	return m, s
}

func TestManagerOpenIsIdempotentPerKey(t *testing.T) {
	m := NewManager(NewMemoryStore(), nil)

	first, err := m.Open(testKey(), testRoster())
	require.NoError(t, err)
	second, err := m.Open(testKey(), nil)
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := m.Open(Key{ClassName: "OS", Section: "CSE-A", Date: "2025-03-10"}, testRoster())
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestManagerGetUnopenedFails(t *testing.T) {
	m := NewManager(NewMemoryStore(), nil)
	_, err := m.Get(testKey())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerOpenRestoresSnapshot(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Save(testKey().StorageKey(), []Attendee{
		{RollNo: "A1", Name: "Alice", Sources: []string{SourceManualEntry}},
	}))

	m := NewManager(store, nil)
	s, err := m.Open(testKey(), testRoster())
	require.NoError(t, err)
	assert.True(t, s.Reconciler.IsPresent("A1"))
}

func TestManagerCloseFlushesAndRemoves(t *testing.T) {
	m, s := newTestSession(t, nil)
	_, err := s.Reconciler.ManualAdd("A1")
	require.NoError(t, err)

	require.NoError(t, m.Close(testKey()))
	_, err = m.Get(testKey())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.Close(testKey()), ErrSessionNotFound)
}

func TestManagerSweepClosesIdleSessions(t *testing.T) {
	m, _ := newTestSession(t, nil)

	assert.Zero(t, m.Sweep(time.Hour))
	assert.Equal(t, 1, m.Sweep(-time.Second))
	_, err := m.Get(testKey())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestScanImageAppliesKnownMatchesOnly(t *testing.T) {
	rec := &stubRecognizer{result: &recognition.Result{Matches: []recognition.Match{
		{Roll: "A1", Name: "Alice"},
		{Roll: "Unknown", Name: "Unknown"},
	}}}
	_, s := newTestSession(t, rec)

	img := s.Images.Add("photo.jpg", []byte("jpeg"))
	result, err := s.ScanImage(context.Background(), img.ID)
	require.NoError(t, err)
	assert.Len(t, result.Matches, 2)

	assert.Equal(t, []string{"A1"}, rollNos(s.Reconciler.Present()))
	present := s.Reconciler.Present()
	assert.Equal(t, []string{img.ID}, present[0].Sources)

	scanned, err := s.Images.Get(img.ID)
	require.NoError(t, err)
	assert.True(t, scanned.Scanned)
	assert.Equal(t, []string{"A1"}, scanned.ContributedRolls)
}

func TestScanImageRejectsRescan(t *testing.T) {
	rec := &stubRecognizer{result: &recognition.Result{}}
	_, s := newTestSession(t, rec)

	img := s.Images.Add("photo.jpg", nil)
	_, err := s.ScanImage(context.Background(), img.ID)
	require.NoError(t, err)

	_, err = s.ScanImage(context.Background(), img.ID)
	assert.ErrorIs(t, err, ErrAlreadyScanned)
	// The guard fires before any network call.
	assert.EqualValues(t, 1, rec.calls.Load())
}

func TestScanImageFailureLeavesImageUnscanned(t *testing.T) {
	rec := &stubRecognizer{err: errors.New("service down")}
	_, s := newTestSession(t, rec)

	img := s.Images.Add("photo.jpg", nil)
	_, err := s.ScanImage(context.Background(), img.ID)
	require.Error(t, err)

	got, err := s.Images.Get(img.ID)
	require.NoError(t, err)
	assert.False(t, got.Scanned)
	assert.Empty(t, s.Reconciler.Present())
}

func TestScanImageUnknownID(t *testing.T) {
	_, s := newTestSession(t, &stubRecognizer{})
	_, err := s.ScanImage(context.Background(), "img_missing")
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestDeleteImageRetractsItsContribution(t *testing.T) {
	results := []*recognition.Result{
		{Matches: []recognition.Match{{Roll: "A2", Name: "Bob"}}},
		{Matches: []recognition.Match{{Roll: "A1", Name: "Alice"}, {Roll: "A2", Name: "Bob"}}},
	}
	rec := &sequenceRecognizer{results: results}
	_, s := newTestSession(t, rec)

	first := s.Images.Add("one.jpg", nil)
	second := s.Images.Add("two.jpg", nil)
	_, err := s.ScanImage(context.Background(), first.ID)
	require.NoError(t, err)
	_, err = s.ScanImage(context.Background(), second.ID)
	require.NoError(t, err)

	require.NoError(t, s.DeleteImage(first.ID))

	assert.True(t, s.Reconciler.IsPresent("A1"))
	assert.True(t, s.Reconciler.IsPresent("A2"))
	for _, a := range s.Reconciler.Present() {
		assert.Equal(t, []string{second.ID}, a.Sources)
	}

	assert.ErrorIs(t, s.DeleteImage(first.ID), ErrImageNotFound)
}

func TestPushFrameAppliesLiveMatches(t *testing.T) {
	rec := &stubRecognizer{result: &recognition.Result{Matches: []recognition.Match{
		{Roll: "A3", Name: "Carol"},
		{Roll: "Unknown", Name: "Unknown"},
	}}}
	_, s := newTestSession(t, rec)

	result, err := s.PushFrame(context.Background(), []byte("frame"))
	require.NoError(t, err)
	assert.Len(t, result.Matches, 2)

	present := s.Reconciler.Present()
	require.Len(t, present, 1)
	assert.Equal(t, "A3", present[0].RollNo)
	assert.Equal(t, []string{SourceLive}, present[0].Sources)
}

func TestPushFrameFailureLeavesStateUnchanged(t *testing.T) {
	rec := &stubRecognizer{err: errors.New("timeout")}
	_, s := newTestSession(t, rec)

	_, err := s.PushFrame(context.Background(), []byte("frame"))
	require.Error(t, err)
	assert.Empty(t, s.Reconciler.Present())
}

func TestStartPollerTwiceFails(t *testing.T) {
	rec := &stubRecognizer{result: &recognition.Result{}}
	_, s := newTestSession(t, rec)

	src := &stubFrameSource{}
	require.NoError(t, s.StartPoller(context.Background(), src, 10*time.Millisecond))
	assert.ErrorIs(t, s.StartPoller(context.Background(), src, 10*time.Millisecond), ErrPollerRunning)

	s.StopPoller()
	// Stopped means a fresh poller may attach.
	require.NoError(t, s.StartPoller(context.Background(), src, 10*time.Millisecond))
	s.StopPoller()
}

// sequenceRecognizer returns canned results in order, one per call.
type sequenceRecognizer struct {
	results []*recognition.Result
	next    int
}

func (s *sequenceRecognizer) RecognizeFrame(ctx context.Context, image []byte, filename string) (*recognition.Result, error) {
	if s.next >= len(s.results) {
		return &recognition.Result{}, nil
	}
	r := s.results[s.next]
	s.next++
	return r, nil
}
