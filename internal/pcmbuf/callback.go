package pcmbuf

import "time"

// deviceCallback is the driver completion callback. It has three phases:
// retire the chunk the device just finished, commit trailing samples when
// the queue has otherwise drained, and publish the next chunk. Retire
// strictly precedes publish so a descriptor is never on both lists at once.
// The callback never blocks and never allocates.
func (p *PCMBuf) deviceCallback() []byte {
	start := time.Now()
	p.mu.Lock()
	defer func() {
		duration := time.Since(start)
		p.mu.Unlock()
		if p.m != nil {
			p.m.CallbackDuration.Observe(duration.Seconds())
		}
	}()

	// Take the finished chunk out of circulation.
	if cur := p.readChunk; cur != nilLink {
		p.readChunk = p.descs[cur].link

		// During a track transition keep the elapsed time current.
		if p.trackTransition && p.sup != nil {
			p.sup.PositionAdvance(p.lastChunkSize)
		}
		// If this was the last chunk of the track, let the supervisor know.
		if p.descs[cur].endOfTrack {
			p.finishTrackChange()
		}

		// Put the finished chunk back into circulation.
		p.descs[p.writeEndChunk].link = cur
		p.writeEndChunk = cur

		// The voice mixer may still be writing here.
		if cur == p.mixChunk {
			p.mixChunk = nilLink
		}
		// The crossfade may still be fading here.
		if cur == p.crossfadeChunk {
			p.crossfadeChunk = p.readChunk
		}
	}

	// Commit the last samples at the end of a playlist. The read list is
	// empty here, so every descriptor is on the write list and the commit
	// cannot wait.
	if p.fillPos > 0 && p.readChunk == nilLink {
		p.logger.Debug("committing trailing samples on drain")
		p.flushFillPos()
	}

	// Send the next chunk to the device.
	if next := p.readChunk; next != nilLink {
		size := p.descs[next].size
		p.unplayedBytes -= size
		p.lastChunkSize = size
		p.updateGauges()
		return p.payload(next)
	}

	// No more buffers.
	p.lastChunkSize = 0
	if p.endOfTrack {
		p.finishTrackChange()
	}
	if p.m != nil {
		p.m.UnderrunsTotal.Inc()
	}
	p.updateGauges()
	return nil
}
