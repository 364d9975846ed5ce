package services

import "sync"

// Series is a fixed-capacity rolling buffer of samples, oldest evicted first.
// Writes come from the owning monitor's sampler; readers may be on any goroutine.
type Series struct {
	mu         sync.RWMutex
	ring       []float64
	head       int // index of the oldest sample
	size       int
	generation uint64
}

// NewSeries creates an empty series holding at most capacity samples.
// A capacity below 1 is raised to 1.
func NewSeries(capacity int) *Series {
	if capacity < 1 {
		capacity = 1
	}
	return &Series{ring: make([]float64, capacity)}
}

// Push appends v, evicting the oldest sample when the series is full.
func (s *Series) Push(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.size < len(s.ring) {
		s.ring[(s.head+s.size)%len(s.ring)] = v
		s.size++
	} else {
		s.ring[s.head] = v
		s.head = (s.head + 1) % len(s.ring)
	}
	s.generation++
}

// Slice returns a copy of the last n samples in chronological order.
// n <= 0 or n larger than the history returns the full history.
func (s *Series) Slice(n int) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || n > s.size {
		n = s.size
	}
	out := make([]float64, n)
	start := s.head + s.size - n
	for i := 0; i < n; i++ {
		out[i] = s.ring[(start+i)%len(s.ring)]
	}
	return out
}

// Latest returns the most recent sample, or false when nothing was pushed yet.
func (s *Series) Latest() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.size == 0 {
		return 0, false
	}
	return s.ring[(s.head+s.size-1)%len(s.ring)], true
}

// Len returns the number of samples held.
func (s *Series) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Cap returns the fixed capacity.
func (s *Series) Cap() int {
	return len(s.ring)
}

// Generation counts pushes since creation; it changes whenever the contents do.
func (s *Series) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}
