package pcmbuf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeepMixesOntoQueuedAudio(t *testing.T) {
	engine, drv, sup := newTestEngine(t, defaultTestConfig())
	sup.playing = true

	produceFrames(t, engine, drv, 2*NativeFrequency, 0)
	require.True(t, drv.IsPlaying())

	engine.Beep(1000, 50*time.Millisecond, 8000)

	// The wave lands 5 ms past the play point of the in-flight chunk.
	engine.mu.Lock()
	startByte := (engine.descs[engine.readChunk].addr + NativeFrequency*BytesPerFrame/200) &^ 3
	arena := engine.arena
	engine.mu.Unlock()

	nsamples := NativeFrequency / 1000 * 50 * 2 // stereo samples
	for i := 0; i < nsamples; i++ {
		v := sampleAt(arena, startByte/2+i)
		require.True(t, v == 8000 || v == -8000, "sample %d is %d, want ±8000", i, v)
	}
	// Before the clearance gap the audio is untouched.
	assert.Equal(t, int32(0), sampleAt(arena, 0))
}

func TestBeepOneShotMiniBuffer(t *testing.T) {
	engine, drv, _ := newTestEngine(t, defaultTestConfig())

	engine.Beep(440, 10*time.Millisecond, 6000)

	require.True(t, drv.IsPlaying(), "short beep submits the mini buffer")
	assert.Equal(t, NativeFrequency/1000*10*BytesPerFrame, drv.BytesWaiting())
}

func TestBeepOneShotIdleArena(t *testing.T) {
	engine, drv, _ := newTestEngine(t, defaultTestConfig())

	// Longer than the mini buffer, arena idle: synthesized there.
	engine.Beep(440, 100*time.Millisecond, 6000)

	require.True(t, drv.IsPlaying())
	assert.Equal(t, NativeFrequency/1000*100*BytesPerFrame, drv.BytesWaiting())
}

func TestBeepSilentlyDroppedWithoutAPlace(t *testing.T) {
	engine, drv, sup := newTestEngine(t, defaultTestConfig())
	sup.playing = true

	// One chunk is queued plus a pending fill and the device is not
	// running: too few chunks to mix onto, too long for the mini buffer,
	// and the arena is in use, so the beep has nowhere to go.
	produceFrames(t, engine, drv, 2*targetChunkSize/BytesPerFrame+512, 1000)
	require.False(t, drv.IsPlaying())

	engine.Beep(440, 100*time.Millisecond, 6000)
	assert.False(t, drv.IsPlaying())
}
