package live

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"smart-attendance/app/recognition"
)

// Recognizer is the slice of the recognition client the live package needs.
type Recognizer interface {
	RecognizeFrame(ctx context.Context, image []byte, filename string) (*recognition.Result, error)
}

// FrameSource produces camera frames for the live poller.
type FrameSource interface {
	Capture(ctx context.Context) ([]byte, error)
}

// HTTPFrameSource captures frames from a camera snapshot URL (IP webcam
// style endpoints that return one JPEG per GET).
type HTTPFrameSource struct {
	URL    string
	Client *http.Client
}

func NewHTTPFrameSource(url string) *HTTPFrameSource {
	return &HTTPFrameSource{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPFrameSource) Capture(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("camera returned status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 16<<20))
}

// Poller drives the live camera source: on each tick it captures a frame,
// sends it for recognition and applies the identified matches to the
// reconciler with the "live" source id. At most one recognition call is in
// flight at a time; a tick that fires while a call is outstanding is
// dropped, not queued. Unknown faces are broadcast for operator feedback
// but never asserted.
type Poller struct {
	interval   time.Duration
	source     FrameSource
	recognizer Recognizer
	reconciler *Reconciler
	broadcast  func(matches []recognition.Match)

	inFlight atomic.Bool
	ticks    atomic.Int64
	dropped  atomic.Int64
	cancel   context.CancelFunc
	done     chan struct{}
	wg       sync.WaitGroup
}

func NewPoller(interval time.Duration, source FrameSource, recognizer Recognizer, reconciler *Reconciler, broadcast func([]recognition.Match)) *Poller {
	if broadcast == nil {
		broadcast = func([]recognition.Match) {}
	}
	return &Poller{
		interval:   interval,
		source:     source,
		recognizer: recognizer,
		reconciler: reconciler,
		broadcast:  broadcast,
	}
}

// Start launches the polling loop. It runs until Stop is called or the
// parent context is cancelled; no orphaned timer keeps mutating the
// reconciler after that.
func (p *Poller) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.wg.Add(1)
				go func() {
					defer p.wg.Done()
					p.tick(ctx)
				}()
			}
		}
	}()
}

// Stop cancels the loop and waits for the current tick to finish.
func (p *Poller) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	p.wg.Wait()
}

// Dropped returns how many ticks were skipped because a recognition call
// was still in flight.
func (p *Poller) Dropped() int64 {
	return p.dropped.Load()
}

func (p *Poller) tick(ctx context.Context) {
	p.ticks.Add(1)
	if !p.inFlight.CompareAndSwap(false, true) {
		p.dropped.Add(1)
		return
	}
	defer p.inFlight.Store(false)

	frame, err := p.source.Capture(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("Live poller: frame capture failed: %v", err)
		}
		return
	}

	result, err := p.recognizer.RecognizeFrame(ctx, frame, "frame.jpg")
	if err != nil {
		// A failed call leaves the reconciler untouched and is not retried.
		if ctx.Err() == nil {
			log.Printf("Live poller: recognition failed: %v", err)
		}
		return
	}

	if len(result.Matches) > 0 {
		p.broadcast(result.Matches)
	}
	ApplyLiveMatches(p.reconciler, result.Matches)
}

// ApplyLiveMatches folds recognition matches into the reconciler under the
// "live" source id. The unknown sentinel is collapsed at this boundary;
// unidentified faces never become assertions. Shared by the poller and the
// browser push path so both behave identically.
func ApplyLiveMatches(r *Reconciler, matches []recognition.Match) {
	assertions := make([]Assertion, 0, len(matches))
	for _, m := range matches {
		if !m.Known() {
			continue
		}
		assertions = append(assertions, Assertion{
			RollNo:   m.Roll,
			Name:     m.Name,
			SourceID: SourceLive,
		})
	}
	if len(assertions) > 0 {
		r.Apply(assertions)
	}
}
