package pcmbuf

import "github.com/tphakala/jukebox-go/internal/conf"

// gaplessTrackChange marks the last committed chunk as the end of the
// outgoing track; playback continues seamlessly into the next one.
func (p *PCMBuf) gaplessTrackChange() {
	p.trackTransition = true
	p.endOfTrack = true
}

// StartTrackChange applies the track-change policy. Manual skips always go
// through crossfade init (which may downgrade to a flush); automatic
// changes crossfade only when the configured mode and shuffle state allow
// it, and are gapless otherwise.
func (p *PCMBuf) StartTrackChange(manual bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if manual {
		p.crossfadeInitTransition(true)
		return
	}

	if p.isCrossfadeEnabled() && !p.isCrossfadeActive() &&
		p.cfg.Mode != conf.CrossfadeTrackSkip {
		if p.cfg.Mode == conf.CrossfadeShuffleAndTrackSkip && !p.cfg.Shuffle {
			p.gaplessTrackChange()
			return
		}
		p.crossfadeInitTransition(false)
		return
	}

	p.gaplessTrackChange()
}

// finishTrackChange runs when the last chunk of a track has been played.
func (p *PCMBuf) finishTrackChange() {
	p.trackTransition = false
	if p.sup != nil {
		// Must not block: we are on the callback path.
		p.sup.TrackFinished()
	}
}
