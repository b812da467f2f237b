package live

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-attendance/app/recognition"
)

type stubFrameSource struct {
	err   error
	calls atomic.Int64
}

func (s *stubFrameSource) Capture(ctx context.Context) ([]byte, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return []byte("frame"), nil
}

// stubRecognizer returns a fixed result, optionally blocking until release
// is closed so tests can hold a recognition call in flight.
type stubRecognizer struct {
	result  *recognition.Result
	err     error
	release chan struct{}
	calls   atomic.Int64
}

func (s *stubRecognizer) RecognizeFrame(ctx context.Context, image []byte, filename string) (*recognition.Result, error) {
	s.calls.Add(1)
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestPollerAppliesKnownMatches(t *testing.T) {
	r := NewReconciler(testKey(), testRoster(), nil)
	rec := &stubRecognizer{result: &recognition.Result{Matches: []recognition.Match{
		{Roll: "A1", Name: "Alice"},
		{Roll: "Unknown", Name: "Unknown"},
	}}}

	p := NewPoller(5*time.Millisecond, &stubFrameSource{}, rec, r, nil)
	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool { return r.IsPresent("A1") }, time.Second, 5*time.Millisecond)
	assert.False(t, r.IsPresent("Unknown"))
	present := r.Present()
	require.Len(t, present, 1)
	assert.Equal(t, []string{SourceLive}, present[0].Sources)
}

func TestPollerDropsTicksWhileCallInFlight(t *testing.T) {
	r := NewReconciler(testKey(), testRoster(), nil)
	rec := &stubRecognizer{
		result:  &recognition.Result{},
		release: make(chan struct{}),
	}

	p := NewPoller(5*time.Millisecond, &stubFrameSource{}, rec, r, nil)
	p.Start(context.Background())

	// The first tick blocks inside the recognizer; later ticks must be
	// dropped rather than queue a second call.
	require.Eventually(t, func() bool { return p.Dropped() > 0 }, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 1, rec.calls.Load())

	close(rec.release)
	p.Stop()
}

func TestPollerStopHaltsTicking(t *testing.T) {
	r := NewReconciler(testKey(), testRoster(), nil)
	rec := &stubRecognizer{result: &recognition.Result{}}
	src := &stubFrameSource{}

	p := NewPoller(5*time.Millisecond, src, rec, r, nil)
	p.Start(context.Background())
	require.Eventually(t, func() bool { return src.calls.Load() > 0 }, time.Second, 5*time.Millisecond)
	p.Stop()

	after := src.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, src.calls.Load())
}

func TestPollerFailedRecognitionLeavesStateUnchanged(t *testing.T) {
	r := NewReconciler(testKey(), testRoster(), nil)
	rec := &stubRecognizer{err: errors.New("service down")}
	src := &stubFrameSource{}

	p := NewPoller(5*time.Millisecond, src, rec, r, nil)
	p.Start(context.Background())
	require.Eventually(t, func() bool { return rec.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	p.Stop()

	assert.Empty(t, r.Present())
}

func TestPollerFailedCaptureSkipsRecognition(t *testing.T) {
	r := NewReconciler(testKey(), testRoster(), nil)
	rec := &stubRecognizer{result: &recognition.Result{}}
	src := &stubFrameSource{err: errors.New("camera offline")}

	p := NewPoller(5*time.Millisecond, src, rec, r, nil)
	p.Start(context.Background())
	require.Eventually(t, func() bool { return src.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	p.Stop()

	assert.Zero(t, rec.calls.Load())
}

func TestPollerBroadcastsMatches(t *testing.T) {
	r := NewReconciler(testKey(), testRoster(), nil)
	rec := &stubRecognizer{result: &recognition.Result{Matches: []recognition.Match{
		{Roll: "Unknown", Name: "Unknown"},
	}}}

	var broadcasts atomic.Int64
	p := NewPoller(5*time.Millisecond, &stubFrameSource{}, rec, r, func(matches []recognition.Match) {
		broadcasts.Add(1)
	})
	p.Start(context.Background())
	require.Eventually(t, func() bool { return broadcasts.Load() > 0 }, time.Second, 5*time.Millisecond)
	p.Stop()

	// Unknown faces reach the feedback channel but never the roster.
	assert.Empty(t, r.Present())
}

func TestApplyLiveMatchesFiltersUnknown(t *testing.T) {
	r := NewReconciler(testKey(), testRoster(), nil)

	ApplyLiveMatches(r, []recognition.Match{
		{Roll: "A1", Name: "Alice"},
		{Roll: "Unknown", Name: "Unknown"},
		{Roll: "", Name: ""},
	})

	assert.Equal(t, []string{"A1"}, rollNos(r.Present()))
}
