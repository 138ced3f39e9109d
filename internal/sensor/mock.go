package sensor

import (
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// MockSource plays back in-memory ticks for testing.
type MockSource struct {
	ticks   []Tick
	color   *gocv.Mat
	index   int
	offset  time.Duration
	loop    bool
	bound   []uint64
	mu      sync.Mutex
	running bool
}

// NewMockSource creates a source over ticks. When color is non-nil every tick
// receives a clone of it.
func NewMockSource(ticks []Tick, color *gocv.Mat, loop bool) *MockSource {
	return &MockSource{
		ticks:   ticks,
		color:   color,
		loop:    loop,
		running: true,
	}
}

func (s *MockSource) ReadTick() (*Tick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil, ErrSourceClosed
	}

	if len(s.ticks) == 0 {
		return nil, ErrExhausted
	}

	if s.index >= len(s.ticks) {
		if !s.loop {
			return nil, ErrExhausted
		}
		s.index = 0
		s.offset += loopSpan(s.ticks)
	}

	tick := s.ticks[s.index]
	tick.Timestamp += s.offset
	s.index++

	if s.color != nil {
		c := s.color.Clone()
		tick.Color = &c
	}

	return &tick, nil
}

func (s *MockSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return nil
}

// BindFace records face binding requests.
func (s *MockSource) BindFace(trackingID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bound = append(s.bound, trackingID)
}

// Bound returns every tracking id passed to BindFace, in order.
func (s *MockSource) Bound() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint64, len(s.bound))
	copy(out, s.bound)
	return out
}

// Reset restarts playback from the beginning
func (s *MockSource) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = 0
	s.offset = 0
}
