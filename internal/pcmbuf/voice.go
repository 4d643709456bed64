package pcmbuf

// usage returns pcm buffer occupancy in percent (0 to 100).
func (p *PCMBuf) usage() int {
	return p.unplayedBytes * 100 / p.size
}

// mixFree returns the window between the voice mix cursor and the ring
// write position as a percentage of unplayed bytes. With no mix in
// progress the whole window is free.
func (p *PCMBuf) mixFree() int {
	if p.mixChunk != nilLink {
		mixEnd := p.descs[p.mixChunk].addr + p.mixSample*2
		writePos := p.pos
		if writePos < mixEnd {
			writePos += p.size
		}
		return (writePos - mixEnd) * 100 / p.unplayedBytes
	}
	return 100
}

// RequestVoiceBuffer returns a scratch span for the voice producer, or nil
// when occupancy is inadequate to mix safely. With playback stopped the
// voice path collapses to the normal producer path.
func (p *PCMBuf) RequestVoiceBuffer(count int) ([]byte, int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sup == nil || !p.sup.Playing() {
		return p.requestBuffer(count)
	}

	if p.readChunk == nilLink {
		return nil, 0
	}
	if p.usage() >= 10 && p.mixFree() >= 30 &&
		(p.mixChunk != nilLink || p.descs[p.readChunk].link != nilLink) {
		granted := min(count, mixChunkSize/BytesPerFrame)
		return p.voicebuf[:granted*BytesPerFrame], granted
	}
	return nil, 0
}

// WriteVoiceComplete mixes count frames from the voice scratch onto queued
// audio, adding the voice to the existing signal plus a quarter of it and
// saturating the sum. The mix starts an eighth of a second into the chunk
// after the in-flight one and advances across chunk links until the source
// is consumed or the queue runs out.
func (p *PCMBuf) WriteVoiceComplete(count int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sup == nil || !p.sup.Playing() {
		p.writeComplete(count)
		return
	}

	if p.mixChunk == nilLink && p.readChunk != nilLink {
		p.mixChunk = p.descs[p.readChunk].link
		// Start 1/8s into the next chunk.
		p.mixSample = NativeFrequency * BytesPerFrame / 16
	}
	if p.mixChunk == nilLink {
		return
	}

	out := p.payload(p.mixChunk)
	chunkSamples := p.descs[p.mixChunk].size / 2

	samples := count * 2
	for i := 0; i < samples; i++ {
		sample := sampleAt(p.voicebuf, i)

		if p.mixSample >= chunkSamples {
			p.mixChunk = p.descs[p.mixChunk].link
			if p.mixChunk == nilLink {
				return
			}
			p.mixSample = 0
			out = p.payload(p.mixChunk)
			chunkSamples = p.descs[p.mixChunk].size / 2
		}
		existing := sampleAt(out, p.mixSample)
		sample += existing + existing>>2
		setSampleAt(out, p.mixSample, clip16(sample))
		p.mixSample++
	}

	if p.m != nil {
		p.m.VoiceMixesTotal.Inc()
	}
}
