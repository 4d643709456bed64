package decoder

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/jukebox-go/internal/pcmbuf"
	"github.com/tphakala/jukebox-go/internal/pcmdriver"
	"github.com/tphakala/jukebox-go/internal/syspower"
)

// writeTestWAV writes a WAV file with the given format holding a constant
// sample value.
func writeTestWAV(t *testing.T, path string, channels, bitDepth, frames, value int) {
	t.Helper()
	f, err := os.Create(path) //nolint:gosec // test temp dir
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	enc := wav.NewEncoder(f, pcmbuf.NativeFrequency, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  pcmbuf.NativeFrequency,
		},
		Data:           make([]int, frames*channels),
		SourceBitDepth: bitDepth,
	}
	for i := range buf.Data {
		buf.Data[i] = value
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

type stoppedSupervisor struct{}

func (stoppedSupervisor) TrackFinished()      {}
func (stoppedSupervisor) PositionAdvance(int) {}
func (stoppedSupervisor) Playing() bool       { return false }
func (stoppedSupervisor) Paused() bool        { return false }

func TestOpenWAVRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "noise.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not RIFF"), 0o600))

	_, err := OpenWAV(path)
	assert.Error(t, err)
}

func TestOpenWAVMissingFile(t *testing.T) {
	_, err := OpenWAV(filepath.Join(t.TempDir(), "absent.wav"))
	assert.Error(t, err)
}

func TestStreamStereo16(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")
	frames := 2 * pcmbuf.NativeFrequency
	writeTestWAV(t, path, 2, 16, frames, 12345)

	src, err := OpenWAV(path)
	require.NoError(t, err)
	defer func() { _ = src.Close() }()
	assert.Equal(t, pcmbuf.NativeFrequency, src.SampleRate())

	drv := pcmdriver.NewMock()
	engine := pcmbuf.New(pcmbuf.Config{}, drv, stoppedSupervisor{}, syspower.Null{}, nil)

	require.NoError(t, src.Stream(context.Background(), engine))
	assert.Positive(t, engine.UnplayedBytes(), "decoded audio must reach the buffer")
}

func TestStreamMonoIsDuplicated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mono.wav")
	writeTestWAV(t, path, 1, 16, 256, -2000)

	src, err := OpenWAV(path)
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	span := make([]byte, 256*pcmbuf.BytesPerFrame)
	frames, err := src.decodeInto(span, 256)
	require.NoError(t, err)
	require.Equal(t, 256, frames)
	for f := 0; f < frames; f++ {
		left := int16(binary.LittleEndian.Uint16(span[4*f:]))
		right := int16(binary.LittleEndian.Uint16(span[4*f+2:]))
		require.Equal(t, int16(-2000), left, "frame %d left", f)
		require.Equal(t, int16(-2000), right, "frame %d right", f)
	}

	drv := pcmdriver.NewMock()
	engine := pcmbuf.New(pcmbuf.Config{}, drv, stoppedSupervisor{}, syspower.Null{}, nil)
	require.NoError(t, src.Stream(context.Background(), engine))
}

func TestStreamHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")
	writeTestWAV(t, path, 2, 16, 1024, 1)

	src, err := OpenWAV(path)
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	drv := pcmdriver.NewMock()
	engine := pcmbuf.New(pcmbuf.Config{}, drv, stoppedSupervisor{}, syspower.Null{}, nil)
	assert.Error(t, src.Stream(ctx, engine))
}
