// Package supervisor defines the audio supervisor contract between the
// playback engine and the component sequencing tracks, plus a playlist
// implementation used by the play command.
package supervisor

import (
	"log/slog"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/tphakala/jukebox-go/internal/logging"
)

// Supervisor is notified by the playback engine about track boundaries and
// is queried for the transport state.
type Supervisor interface {
	// TrackFinished is called when the last chunk of a track has drained.
	TrackFinished()
	// PositionAdvance is called during a track transition each time a chunk
	// drains, with that chunk's byte count, so elapsed time can be updated.
	PositionAdvance(bytes int)
	// Playing reports whether a track is loaded for playback.
	Playing() bool
	// Paused reports whether the user has paused the transport.
	Paused() bool
}

// Playlist is a Supervisor that walks an ordered list of track paths.
type Playlist struct {
	mu        sync.Mutex
	sessionID string
	tracks    []string
	order     []int
	cursor    int
	playing   bool
	paused    bool
	elapsed   int // bytes of the outgoing track drained during a transition

	finished chan struct{}
	logger   *slog.Logger
}

// NewPlaylist creates a playlist supervisor over the given track paths.
// With shuffle enabled the play order is randomized once up front.
func NewPlaylist(tracks []string, shuffle bool) *Playlist {
	logger := logging.ForService("supervisor")
	if logger == nil {
		logger = slog.Default()
	}

	order := make([]int, len(tracks))
	for i := range order {
		order[i] = i
	}
	if shuffle {
		rand.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	p := &Playlist{
		sessionID: uuid.NewString(),
		tracks:    tracks,
		order:     order,
		finished:  make(chan struct{}, 1),
		logger:    logger,
	}
	p.logger.Info("playback session created", "session_id", p.sessionID, "tracks", len(tracks), "shuffle", shuffle)
	return p
}

// SessionID returns the unique id of this playback session.
func (p *Playlist) SessionID() string {
	return p.sessionID
}

// Current returns the path of the track at the cursor, or "" past the end.
func (p *Playlist) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cursor >= len(p.order) {
		return ""
	}
	return p.tracks[p.order[p.cursor]]
}

// Advance moves the cursor to the next track and returns its path, or ""
// when the playlist is exhausted.
func (p *Playlist) Advance() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursor++
	p.elapsed = 0
	if p.cursor >= len(p.order) {
		return ""
	}
	return p.tracks[p.order[p.cursor]]
}

// SetPlaying marks whether a track is loaded for playback.
func (p *Playlist) SetPlaying(playing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = playing
}

// SetPaused sets the user pause state.
func (p *Playlist) SetPaused(paused bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = paused
}

// Playing implements Supervisor.
func (p *Playlist) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Paused implements Supervisor.
func (p *Playlist) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// TrackFinished implements Supervisor. The notification is delivered to the
// channel returned by Finished; the engine calls this from its callback
// path, so it must not block.
func (p *Playlist) TrackFinished() {
	p.mu.Lock()
	p.elapsed = 0
	p.mu.Unlock()

	select {
	case p.finished <- struct{}{}:
	default:
	}
	p.logger.Debug("track finished", "session_id", p.sessionID)
}

// PositionAdvance implements Supervisor.
func (p *Playlist) PositionAdvance(bytes int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elapsed += bytes
}

// Elapsed returns the outgoing track's drained byte count during the
// current transition.
func (p *Playlist) Elapsed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.elapsed
}

// Finished returns the channel signaled on each TrackFinished call.
func (p *Playlist) Finished() <-chan struct{} {
	return p.finished
}
