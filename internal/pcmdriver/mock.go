package pcmdriver

import "sync"

// Mock is a deterministic Driver for tests and offline simulation. Time does
// not pass on its own; the test advances playback explicitly with Advance or
// CompleteChunk.
type Mock struct {
	mu      sync.Mutex
	cb      Callback
	current []byte
	played  int
	playing bool
	paused  bool

	// Underruns counts callback rounds that produced no data.
	Underruns int
	// Played accumulates every byte that has been consumed, in order.
	Played []byte
	// CapturePlayed controls whether consumed bytes are appended to Played.
	CapturePlayed bool
}

// NewMock creates an idle mock driver.
func NewMock() *Mock {
	return &Mock{}
}

// PlayData implements Driver.
func (m *Mock) PlayData(cb Callback, first []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cb = cb
	m.current = first
	m.played = 0
	m.playing = len(first) > 0
	return nil
}

// PlayStop implements Driver.
func (m *Mock) PlayStop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cb = nil
	m.current = nil
	m.played = 0
	m.playing = false
	m.paused = false
}

// PlayPause implements Driver.
func (m *Mock) PlayPause(pause bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = pause
}

// IsPlaying implements Driver.
func (m *Mock) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// IsPaused implements Driver.
func (m *Mock) IsPaused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// BytesWaiting implements Driver.
func (m *Mock) BytesWaiting() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.current) - m.played
}

// PeakBuffer implements Driver. The mock knows its position exactly.
func (m *Mock) PeakBuffer() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.playing {
		return 0, false
	}
	return m.played, true
}

// Advance simulates the device consuming n bytes. When the current chunk is
// exhausted the completion callback is invoked for the next one; a nil
// result stops the driver, mirroring DMA running dry.
func (m *Mock) Advance(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.paused {
		return
	}
	for m.playing && n > 0 {
		remaining := len(m.current) - m.played
		if remaining > n {
			m.consume(n)
			return
		}
		m.consume(remaining)
		n -= remaining
		m.nextChunk()
	}
}

// CompleteChunk consumes the remainder of the in-flight chunk and requests
// the next one. It returns false once the driver has stopped.
func (m *Mock) CompleteChunk() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.playing {
		return false
	}
	m.consume(len(m.current) - m.played)
	m.nextChunk()
	return m.playing
}

// consume records n bytes of the current chunk as played. Callers hold mu.
func (m *Mock) consume(n int) {
	if m.CapturePlayed && n > 0 {
		m.Played = append(m.Played, m.current[m.played:m.played+n]...)
	}
	m.played += n
}

// nextChunk asks the callback for the next chunk. Callers hold mu.
func (m *Mock) nextChunk() {
	cb := m.cb
	if cb == nil {
		m.playing = false
		m.current = nil
		m.played = 0
		return
	}
	// The engine callback takes its own lock; release ours so lock order
	// stays engine->driver everywhere.
	m.mu.Unlock()
	next := cb()
	m.mu.Lock()
	m.current = next
	m.played = 0
	if len(next) == 0 {
		m.Underruns++
		m.playing = false
	}
}
