package pcmbuf

import (
	"time"

	"github.com/tphakala/jukebox-go/internal/conf"
)

// timeSlice is the crossfade flush fallback sleep while the arena is full.
const timeSlice = 10 * time.Millisecond

// secondsToBytes converts a duration in seconds to a byte count of stereo
// 16-bit audio, rounded down to whole frames.
func secondsToBytes(seconds float64) int {
	return int(seconds*NativeFrequency) * BytesPerFrame
}

// crossfadeInitTransition begins a track change through the crossfader.
// When a crossfade is impossible (too little data, disabled, low latency)
// it downgrades to a flush: the outgoing tail is dropped and the incoming
// track starts cold. Callers hold p.mu.
func (p *PCMBuf) crossfadeInitTransition(manualSkip bool) bool {
	// Can't do two crossfades at once, and no fade if the device is off.
	if p.crossfadeInit || p.crossfadeActive || !p.driver.IsPlaying() {
		p.playStop()
		return false
	}

	p.power.TriggerCPUBoost()

	// Not enough data, or crossfade disabled: flush the old tail instead.
	if p.lowData(2) || !p.isCrossfadeEnabled() || p.lowLatencyMode {
		p.flushFillPos()
		p.flushPending = true
		if p.m != nil {
			p.m.FlushesTotal.Inc()
		}
		return false
	}

	// Don't enable mix mode when skipping tracks manually.
	if manualSkip {
		p.crossfadeMixmode = false
	} else {
		p.crossfadeMixmode = p.cfg.FadeOutMixmode
	}

	p.crossfadeInit = true
	return true
}

// crossfadeStart computes the fade parameters and performs the in-place
// fade-out of the queued tail. It runs on the producer's next
// RequestBuffer after crossfadeInitTransition. Callers hold p.mu.
func (p *PCMBuf) crossfadeStart() {
	p.crossfadeInit = false

	// Reject the crossfade when less than .5s of data is left.
	if p.lowData(2) {
		p.logger.Debug("crossfade rejected, too little buffered data")
		p.playStop()
		return
	}

	p.flushFillPos()
	p.crossfadeActive = true
	if p.m != nil {
		p.m.CrossfadesTotal.Inc()
	}

	// All buffered data not yet sent to the device participates.
	crossfadeRem := p.unplayedBytes
	p.crossfadeChunk = p.descs[p.readChunk].link
	p.crossfadeSample = 0

	fadeOutDelay := secondsToBytes(p.cfg.FadeOutDelay)
	fadeOutRem := secondsToBytes(p.cfg.FadeOutDuration)
	crossfadeNeed := fadeOutDelay + fadeOutRem

	switch {
	case crossfadeRem > crossfadeNeed:
		// Only the last part of the buffer is modified; skip the extra.
		extra := crossfadeRem - crossfadeNeed
		for p.crossfadeChunk != nilLink && extra > p.descs[p.crossfadeChunk].size {
			extra -= p.descs[p.crossfadeChunk].size
			p.crossfadeChunk = p.descs[p.crossfadeChunk].link
		}
		p.crossfadeSample = extra / 2
	case crossfadeRem < crossfadeNeed:
		// Truncate the fade out to what is actually buffered.
		short := crossfadeNeed - crossfadeRem
		if fadeOutRem >= short {
			fadeOutRem -= short
		} else {
			fadeOutDelay -= short - fadeOutRem
			fadeOutRem = 0
		}
	}

	p.fadeInTotal = secondsToBytes(p.cfg.FadeInDuration)
	p.fadeInRem = p.fadeInTotal

	fadeInDelay := secondsToBytes(p.cfg.FadeInDelay)

	p.processCrossfadeBuffer(fadeInDelay, fadeOutDelay, fadeOutRem)
}

// processCrossfadeBuffer fades out the queued tail in place (unless in mix
// mode) and advances the crossfade position to where incoming samples will
// land. Callers hold p.mu.
func (p *PCMBuf) processCrossfadeBuffer(fadeInDelay, fadeOutDelay, fadeOutRem int) {
	if !p.crossfadeMixmode {
		totalFadeOut := fadeOutRem
		fadeOutChunk := p.crossfadeChunk

		// Find the chunk and sample where the fade out begins.
		fadeOutDelay += p.crossfadeSample * 2
		for fadeOutDelay != 0 && fadeOutChunk != nilLink &&
			fadeOutDelay >= p.descs[fadeOutChunk].size {
			fadeOutDelay -= p.descs[fadeOutChunk].size
			fadeOutChunk = p.descs[fadeOutChunk].link
		}
		fadeOutSample := fadeOutDelay / 2

		for fadeOutRem > 0 && totalFadeOut > 0 {
			// Each 1/10 second of audio gets the same factor.
			blockRem := min(NativeFrequency*BytesPerFrame/10, fadeOutRem)
			factor := int32(fadeOutRem<<8) / int32(totalFadeOut)

			fadeOutRem -= blockRem

			for blockRem > 0 && fadeOutChunk != nilLink {
				buf := p.payload(fadeOutChunk)
				sample := sampleAt(buf, fadeOutSample)
				setSampleAt(buf, fadeOutSample, (sample*factor)>>8)
				fadeOutSample++

				blockRem -= 2
				if fadeOutSample*2 >= p.descs[fadeOutChunk].size {
					fadeOutChunk = p.descs[fadeOutChunk].link
					fadeOutSample = 0
				}
			}
			if fadeOutChunk == nilLink {
				break
			}
		}
	}

	// Find the chunk and sample where the fade in begins.
	fadeInDelay += p.crossfadeSample * 2
	for fadeInDelay != 0 && p.crossfadeChunk != nilLink &&
		fadeInDelay >= p.descs[p.crossfadeChunk].size {
		fadeInDelay -= p.descs[p.crossfadeChunk].size
		p.crossfadeChunk = p.descs[p.crossfadeChunk].link
	}
	p.crossfadeSample = fadeInDelay / 2
}

// crossfadeMix mixes buf into queued audio at the crossfade position with
// the given fade factor (256 = unity) and saturating addition. It returns
// the number of bytes not mixed because the read list ran out.
func (p *PCMBuf) crossfadeMix(factor int32, buf []byte) int {
	length := len(buf)
	if p.crossfadeChunk == nilLink {
		return length
	}

	out := p.payload(p.crossfadeChunk)
	outSample := p.crossfadeSample
	in := 0

	for length > 0 {
		// Fade both channels at once to keep frame alignment.
		for ch := 0; ch < 2; ch++ {
			sample := sampleAt(buf, in)
			in++
			sample = ((sample * factor) >> 8) + sampleAt(out, outSample)
			setSampleAt(out, outSample, clip16(sample))
			outSample++
		}

		length -= BytesPerFrame

		if outSample*2 >= len(out) {
			p.crossfadeChunk = p.descs[p.crossfadeChunk].link
			if p.crossfadeChunk == nilLink {
				return length
			}
			out = p.payload(p.crossfadeChunk)
			outSample = 0
		}
	}
	p.crossfadeSample = outSample
	return 0
}

// flushCrossfade disposes of newly produced audio while a crossfade is
// active: fade it in over queued samples, then mix at unity, then commit
// whatever is left as fresh tail chunks. Callers hold p.mu.
func (p *PCMBuf) flushCrossfade(buf []byte) {
	if len(buf) == 0 {
		return
	}

	if p.fadeInRem > 0 {
		// Fade factor for this packet.
		factor := int32((p.fadeInTotal-p.fadeInRem)<<8) / int32(p.fadeInTotal)
		fadeRem := min(len(buf), p.fadeInRem)
		p.fadeInRem -= fadeRem

		if p.crossfadeChunk != nilLink {
			fadeTotal := fadeRem
			fadeRem = p.crossfadeMix(factor, buf[:fadeRem])
			buf = buf[fadeTotal-fadeRem:]
			if len(buf) == 0 {
				return
			}
		}

		// The read list ran out: fade the remaining source in place, it
		// will be committed as fresh tail chunks below.
		for i := 0; i < fadeRem/2; i++ {
			setSampleAt(buf, i, (sampleAt(buf, i)*factor)>>8)
		}
	}

	if p.crossfadeChunk != nilLink {
		mixTotal := len(buf)
		rest := p.crossfadeMix(256, buf)
		buf = buf[mixTotal-rest:]
		if len(buf) == 0 {
			return
		}
	}

	// Flush the remaining samples through the normal commit path.
	for !p.prepareInsert(len(buf)) {
		p.mu.Unlock()
		time.Sleep(timeSlice)
		p.mu.Lock()
	}
	for len(buf) > 0 {
		index := p.pos + p.fillPos
		if p.needFlush(index) {
			p.flushFillPos()
			index = p.pos + p.fillPos
		}
		copyN := min(len(buf), p.size-index)
		copy(p.arena[index:], buf[:copyN])
		buf = buf[copyN:]
		p.fillPos += copyN
	}
}

// isCrossfadeEnabled resolves the configured mode against the shuffle
// setting and the enable state applied at init.
func (p *PCMBuf) isCrossfadeEnabled() bool {
	if p.cfg.Mode == conf.CrossfadeShuffle {
		return p.cfg.Shuffle
	}
	return p.crossfadeEnabled
}

func (p *PCMBuf) isCrossfadeActive() bool {
	return p.crossfadeActive || p.crossfadeInit
}

// IsCrossfadeActive reports whether a crossfade is initializing or active.
func (p *PCMBuf) IsCrossfadeActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isCrossfadeActive()
}

// RequestCrossfadeEnable records the next crossfade enable state. It is not
// applied immediately: enabling changes the required arena size, so the
// setting takes effect at the next init or IsSameSize check.
func (p *PCMBuf) RequestCrossfadeEnable(enable bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.crossfadeEnableRequest = enable
}

// IsSameSize reports whether the pending crossfade enable state still fits
// the current arena. When it does, the pending state is applied in place;
// when it does not, the caller must rebuild the engine.
func (p *PCMBuf) IsSameSize() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.arena == nil {
		return true
	}

	cfg := p.cfg
	if p.crossfadeEnableRequest {
		cfg.Mode = conf.CrossfadeOn
	} else {
		cfg.Mode = conf.CrossfadeOff
	}
	same := ringSize(cfg) == p.size
	if same {
		p.finishCrossfadeEnable()
	}
	return same
}

// finishCrossfadeEnable applies the pending enable state and derives the
// watermark: keep the buffer nearly full while crossfading, default
// otherwise. Callers hold p.mu.
func (p *PCMBuf) finishCrossfadeEnable() {
	p.crossfadeEnabled = p.crossfadeEnableRequest

	if p.crossfadeEnabled && p.size > 0 {
		p.watermark = p.size - NativeFrequency*BytesPerFrame
	} else if p.cfg.SmallMemory {
		p.watermark = watermarkSmall
	} else {
		p.watermark = watermarkLarge
	}
}
