package pcmbuf

import "time"

// Beep overlays a constant square wave of the given frequency, duration and
// amplitude onto playback. While at least two chunks are queued the wave is
// mixed onto the audio currently leaving the device, starting 5 ms past the
// driver's reported play point; otherwise it is synthesized into the mini
// buffer (short clicks) or the idle arena and submitted as a one-shot.
// When no buffer is available the beep is silently dropped.
func (p *PCMBuf) Beep(frequency int, duration time.Duration, amplitude int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	step := uint32(0xffffffff / NativeFrequency * frequency)
	phase := int32(0)
	nsamples := NativeFrequency / 1000 * int(duration.Milliseconds())

	mix := p.readChunk != nilLink && p.descs[p.readChunk].link != nilLink

	var buf []byte
	var index int
	wrap := false

	switch {
	case mix:
		played, ok := p.driver.PeakBuffer()
		// If the driver cannot report its play point, or pcm is stopped,
		// no beep.
		if !ok || !p.driver.IsPlaying() {
			return
		}
		// Give 5 ms clearance past the play point.
		index = p.descs[p.readChunk].addr + played + NativeFrequency*BytesPerFrame/200
		index = (index % p.size) &^ 3
		buf = p.arena
		wrap = true

	case nsamples*BytesPerFrame <= len(p.minibuf):
		buf = p.minibuf[:nsamples*BytesPerFrame]

	case !p.driver.IsPlaying() && p.readChunk == nilLink && p.fillPos == 0:
		// Arena is idle, synthesize into it.
		if nsamples > p.size/BytesPerFrame {
			nsamples = p.size / BytesPerFrame
		}
		buf = p.arena[:nsamples*BytesPerFrame]

	default:
		// No place.
		return
	}

	for i := 0; i < nsamples; i++ {
		amp := int32(amplitude)
		if phase < 0 {
			amp = -amp
		}
		for ch := 0; ch < 2; ch++ {
			var sample int32
			if mix {
				sample = sampleAt(buf, index/2)
			}
			setSampleAt(buf, index/2, clip16(sample+amp))
			index += 2
			if wrap && index >= p.size {
				index = 0
			}
		}
		phase += int32(step)
	}

	if p.m != nil {
		p.m.BeepsTotal.Inc()
	}

	// Kick off playback if required and it won't interfere.
	if !mix && !p.driver.IsPlaying() {
		if err := p.driver.PlayData(nil, buf); err != nil {
			p.logger.Debug("one-shot beep submission failed", "error", err)
		}
	}
}
