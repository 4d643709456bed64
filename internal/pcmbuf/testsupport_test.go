package pcmbuf

import (
	"encoding/binary"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tphakala/jukebox-go/internal/conf"
	"github.com/tphakala/jukebox-go/internal/pcmdriver"
	"github.com/tphakala/jukebox-go/internal/syspower"
)

// fakeSupervisor records engine notifications for assertions.
type fakeSupervisor struct {
	mu            sync.Mutex
	playing       bool
	paused        bool
	finishedCount int
	advancedBytes int
}

func (f *fakeSupervisor) TrackFinished() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finishedCount++
}

func (f *fakeSupervisor) PositionAdvance(bytes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advancedBytes += bytes
}

func (f *fakeSupervisor) Playing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing
}

func (f *fakeSupervisor) Paused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused
}

func (f *fakeSupervisor) finished() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finishedCount
}

func defaultTestConfig() Config {
	return Config{
		Mode:            conf.CrossfadeOff,
		FadeInDuration:  2,
		FadeOutDuration: 2,
	}
}

func newTestEngine(t *testing.T, cfg Config) (*PCMBuf, *pcmdriver.Mock, *fakeSupervisor) {
	t.Helper()
	drv := pcmdriver.NewMock()
	sup := &fakeSupervisor{}
	engine := New(cfg, drv, sup, syspower.Null{}, nil)
	require.NotNil(t, engine)
	return engine, drv, sup
}

// produceFrames writes count frames of the given sample value through the
// producer path, retrying around admission refusals by draining the mock
// device. Returns the number of frames actually written.
func produceFrames(t *testing.T, p *PCMBuf, drv *pcmdriver.Mock, count int, sample int16) int {
	t.Helper()
	written := 0
	stalls := 0
	for written < count {
		span, granted := p.RequestBuffer(min(1024, count-written))
		if span == nil {
			drv.Advance(minChunkSize)
			stalls++
			require.Less(t, stalls, 100000, "producer starved")
			continue
		}
		fillConst(span, sample)
		p.WriteComplete(granted)
		written += granted
	}
	return written
}

// fillConst fills span with the given 16-bit sample value.
func fillConst(span []byte, sample int16) {
	for i := 0; i+1 < len(span); i += 2 {
		binary.LittleEndian.PutUint16(span[i:], uint16(sample))
	}
}

// samplesOf decodes a byte stream into 16-bit samples.
func samplesOf(data []byte) []int16 {
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
	}
	return out
}

// freeDescs walks the write list from head to tail inclusive.
func (p *PCMBuf) freeDescs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	count := 1
	for d := p.writeChunk; d != p.writeEndChunk; d = p.descs[d].link {
		count++
	}
	return count
}
