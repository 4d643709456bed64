package pcmbuf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/jukebox-go/internal/conf"
)

func TestInitSizing(t *testing.T) {
	t.Run("NoCrossfade", func(t *testing.T) {
		engine, _, _ := newTestEngine(t, defaultTestConfig())

		assert.Equal(t, 3*NativeFrequency*BytesPerFrame, engine.BufSize())
		assert.Equal(t, engine.BufSize()/minAvgChunkSize, engine.Descs())
		assert.Equal(t, watermarkLarge, engine.watermark)
	})

	t.Run("Crossfade", func(t *testing.T) {
		cfg := defaultTestConfig()
		cfg.Mode = conf.CrossfadeOn
		cfg.FadeOutDelay = 1
		cfg.FadeOutDuration = 2
		engine, _, _ := newTestEngine(t, cfg)

		// 3 s base plus the fade-out window.
		assert.Equal(t, 6*NativeFrequency*BytesPerFrame, engine.BufSize())
		// While crossfading the buffer is kept almost full.
		assert.Equal(t, engine.BufSize()-NativeFrequency*BytesPerFrame, engine.watermark)
	})

	t.Run("SmallMemory", func(t *testing.T) {
		cfg := defaultTestConfig()
		cfg.SmallMemory = true
		engine, _, _ := newTestEngine(t, cfg)

		assert.Equal(t, NativeFrequency*BytesPerFrame, engine.BufSize())
		assert.Equal(t, watermarkSmall, engine.watermark)
	})

	t.Run("NilBufferPanics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewWithBuffer(nil, defaultTestConfig(), nil, nil, nil, nil)
		})
	})

	t.Run("UndersizedBufferPanics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewWithBuffer(make([]byte, 64), defaultTestConfig(), nil, nil, nil, nil)
		})
	})
}

func TestCommitAndAccounting(t *testing.T) {
	engine, _, _ := newTestEngine(t, defaultTestConfig())

	// Below the target chunk size nothing is committed.
	span, granted := engine.RequestBuffer(1024)
	require.NotNil(t, span)
	require.Equal(t, 1024, granted)
	engine.WriteComplete(granted)
	assert.Equal(t, 0, engine.UnplayedBytes())
	assert.Equal(t, 0, engine.UsedDescs())

	// Crossing the target commits exactly one chunk holding everything.
	total := 1024
	for engine.UsedDescs() == 0 {
		span, granted = engine.RequestBuffer(1024)
		require.NotNil(t, span)
		engine.WriteComplete(granted)
		total += granted
	}
	assert.Equal(t, 1, engine.UsedDescs())
	assert.Equal(t, total*BytesPerFrame, engine.UnplayedBytes())
	assert.Equal(t, engine.BufSize()-total*BytesPerFrame, engine.Free())
}

func TestSteadyStateThroughput(t *testing.T) {
	engine, drv, sup := newTestEngine(t, defaultTestConfig())
	sup.playing = true

	// Producer writes 1024-frame bursts, consumer retires the same byte
	// rate; run well past one second of simulated audio.
	for i := 0; i < 600; i++ {
		span, granted := engine.RequestBuffer(1024)
		if span != nil {
			fillConst(span, 1000)
			engine.WriteComplete(granted)
		}
		drv.Advance(1024 * BytesPerFrame)
	}

	assert.True(t, drv.IsPlaying())
	assert.Zero(t, drv.Underruns)
	unplayed := engine.UnplayedBytes()
	assert.GreaterOrEqual(t, unplayed, minChunkSize)
	assert.LessOrEqual(t, unplayed, engine.watermark)
}

func TestUnderrunRecovery(t *testing.T) {
	engine, drv, sup := newTestEngine(t, defaultTestConfig())
	sup.playing = true

	produceFrames(t, engine, drv, int(1.2*NativeFrequency), 1000)
	require.True(t, drv.IsPlaying(), "prebuffer should have started the device")

	// The codec moves on to the next track which never arrives.
	engine.StartTrackChange(false)
	produceFrames(t, engine, drv, 2048, 1000)

	// The producer stalls; the device drains everything.
	for drv.CompleteChunk() {
	}

	assert.False(t, drv.IsPlaying())
	assert.GreaterOrEqual(t, drv.Underruns, 1)
	assert.Equal(t, 1, sup.finished(), "end of track must fire exactly once")
	assert.Positive(t, sup.advancedBytes, "transition must report drained chunk sizes")
	assert.Equal(t, 0, engine.UnplayedBytes())

	// Resuming the producer re-enters prebuffering and restarts playback.
	produceFrames(t, engine, drv, int(1.2*NativeFrequency), 1000)
	assert.True(t, drv.IsPlaying())
	assert.Equal(t, 1, sup.finished())
}

func TestPlayStopReclaimsEverything(t *testing.T) {
	engine, drv, sup := newTestEngine(t, defaultTestConfig())
	sup.playing = true

	produceFrames(t, engine, drv, int(1.5*NativeFrequency), 1000)
	require.Positive(t, engine.UnplayedBytes())

	engine.PlayStop()

	assert.Equal(t, 0, engine.UnplayedBytes())
	assert.Equal(t, 0, engine.UsedDescs())
	assert.Equal(t, engine.Descs(), engine.freeDescs())
	assert.Equal(t, engine.BufSize(), engine.Free())
	assert.False(t, drv.IsPlaying())
	assert.False(t, engine.IsCrossfadeActive())
}

func TestPause(t *testing.T) {
	engine, drv, sup := newTestEngine(t, defaultTestConfig())
	sup.playing = true

	produceFrames(t, engine, drv, int(1.2*NativeFrequency), 1000)
	require.True(t, drv.IsPlaying())

	engine.Pause(true)
	assert.True(t, drv.IsPaused())
	engine.Pause(false)
	assert.False(t, drv.IsPaused())

	// Unpausing while idle starts playback.
	engine.PlayStop()
	produceFrames(t, engine, drv, 16384, 1000)
	require.False(t, drv.IsPlaying())
	engine.Pause(false)
	assert.True(t, drv.IsPlaying())
}

func TestIsLowData(t *testing.T) {
	engine, drv, sup := newTestEngine(t, defaultTestConfig())
	sup.playing = true

	// Not playing: never low.
	assert.False(t, engine.IsLowData())

	produceFrames(t, engine, drv, 2*NativeFrequency, 1000)
	require.True(t, drv.IsPlaying())
	assert.False(t, engine.IsLowData())

	// Drain to under one second.
	for engine.UnplayedBytes() >= NativeFrequency*4 {
		drv.Advance(minChunkSize)
	}
	assert.True(t, engine.IsLowData())

	drv.PlayPause(true)
	assert.False(t, engine.IsLowData())
}

func TestLatency(t *testing.T) {
	engine, drv, sup := newTestEngine(t, defaultTestConfig())
	sup.playing = true

	assert.Equal(t, time.Duration(0), engine.Latency())

	produceFrames(t, engine, drv, NativeFrequency, 1000) // one second
	latency := engine.Latency()
	assert.InDelta(t, float64(time.Second), float64(latency), float64(300*time.Millisecond))
}

func TestVariableBurstSizes(t *testing.T) {
	engine, drv, sup := newTestEngine(t, defaultTestConfig())
	sup.playing = true

	// Large variable bursts commit and wrap without corrupting accounting.
	sizes := []int{64, 1536, 4096, 8000, 333, 2048}
	for i := 0; i < 500; i++ {
		want := sizes[i%len(sizes)]
		span, granted := engine.RequestBuffer(want)
		if span == nil {
			drv.Advance(targetChunkSize)
			continue
		}
		assert.LessOrEqual(t, granted, want)
		assert.Positive(t, granted)
		assert.Equal(t, granted*BytesPerFrame, len(span))
		engine.WriteComplete(granted)
	}

	assert.Equal(t, engine.Descs(), engine.freeDescs()+engine.UsedDescs())
}
