package supervisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaylistOrder(t *testing.T) {
	p := NewPlaylist([]string{"a.wav", "b.wav", "c.wav"}, false)

	assert.NotEmpty(t, p.SessionID())
	assert.Equal(t, "a.wav", p.Current())
	assert.Equal(t, "b.wav", p.Advance())
	assert.Equal(t, "c.wav", p.Advance())
	assert.Equal(t, "", p.Advance())
	assert.Equal(t, "", p.Current())
}

func TestPlaylistShuffleKeepsAllTracks(t *testing.T) {
	tracks := []string{"a", "b", "c", "d", "e", "f"}
	p := NewPlaylist(tracks, true)

	seen := map[string]bool{}
	for cur := p.Current(); cur != ""; cur = p.Advance() {
		seen[cur] = true
	}
	assert.Len(t, seen, len(tracks))
}

func TestPlaylistTransport(t *testing.T) {
	p := NewPlaylist([]string{"a"}, false)

	assert.False(t, p.Playing())
	p.SetPlaying(true)
	assert.True(t, p.Playing())

	assert.False(t, p.Paused())
	p.SetPaused(true)
	assert.True(t, p.Paused())
}

func TestPlaylistTrackFinishedNeverBlocks(t *testing.T) {
	p := NewPlaylist([]string{"a"}, false)

	// Repeated notifications with no reader must not block the caller.
	for i := 0; i < 10; i++ {
		p.TrackFinished()
	}

	select {
	case <-p.Finished():
	default:
		t.Fatal("expected a pending finished notification")
	}
}

func TestPlaylistPositionAdvance(t *testing.T) {
	p := NewPlaylist([]string{"a"}, false)

	p.PositionAdvance(4096)
	p.PositionAdvance(2048)
	require.Equal(t, 6144, p.Elapsed())

	// A finished track resets the transition bookkeeping.
	p.TrackFinished()
	assert.Equal(t, 0, p.Elapsed())
}
