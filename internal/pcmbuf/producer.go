package pcmbuf

import (
	"time"

	"github.com/tphakala/jukebox-go/internal/syspower"
)

// chunkPlayTime approximates how long the device takes to drain one target
// chunk; the commit path sleeps this long while waiting for a descriptor.
const chunkPlayTime = time.Duration(targetChunkSize) * time.Second / (NativeFrequency * BytesPerFrame)

// lowData reports whether less than quarterSecs quarter-seconds of audio is
// buffered. One quarter second of stereo 16-bit audio is NativeFrequency
// bytes.
func (p *PCMBuf) lowData(quarterSecs int) bool {
	return p.unplayedBytes < NativeFrequency*quarterSecs
}

// needFlush reports whether the pending range must be committed: either the
// target chunk size is exceeded or the ring end has been reached.
func (p *PCMBuf) needFlush(position int) bool {
	return p.fillPos > targetChunkSize || position >= p.size
}

// addChunk promotes the pending fill range into a chunk linked at the read
// tail. Callers hold p.mu and guarantee a free descriptor.
func (p *PCMBuf) addChunk() {
	size := p.fillPos
	cur := p.writeChunk
	p.writeChunk = p.descs[cur].link

	desc := &p.descs[cur]
	desc.addr = p.pos
	desc.size = size
	desc.endOfTrack = p.endOfTrack
	desc.link = nilLink
	p.endOfTrack = false // single use only

	if p.readChunk != nilLink {
		if p.flushPending {
			// Splice over the outgoing track's queued tail: the new chunk
			// goes right after the in-flight head, the dropped tail is
			// recycled onto the write list.
			p.descs[p.writeEndChunk].link = p.descs[p.readChunk].link
			p.descs[p.readChunk].link = cur
			for p.descs[p.writeEndChunk].link != nilLink {
				p.writeEndChunk = p.descs[p.writeEndChunk].link
				p.unplayedBytes -= p.descs[p.writeEndChunk].size
			}
			p.flushPending = false
		} else {
			p.descs[p.readEndChunk].link = cur
		}
	} else {
		p.readChunk = cur
	}
	p.readEndChunk = cur

	p.unplayedBytes += size

	p.pos += size
	if p.pos >= p.size {
		p.pos -= p.size
	}
	p.fillPos = 0

	if p.m != nil {
		p.m.CommitsTotal.Inc()
	}
	p.updateGauges()
}

// flushFillPos commits samples waiting on the pcm buffer. It blocks while
// no descriptor is free, which only resolves once the device retires one;
// if the device is idle at that point it is kick-started to break the
// deadlock. Callers hold p.mu.
func (p *PCMBuf) flushFillPos() bool {
	if p.fillPos == 0 {
		return false
	}
	// Never use the last buffer descriptor.
	for p.writeChunk == p.writeEndChunk {
		if !p.driver.IsPlaying() {
			p.logger.Warn("commit stalled with all descriptors queued, restarting playback")
			p.playStart()
		}
		// Let approximately one chunk of data play back.
		p.mu.Unlock()
		time.Sleep(chunkPlayTime)
		p.mu.Lock()
	}
	p.addChunk()
	return true
}

// boostCodecThread ramps the decode threads' priority with buffer
// occupancy: maximum urgency at zero bytes, baseline at half a second.
// Voice and codec stay at the same priority or voice would starve.
func (p *PCMBuf) boostCodecThread(boost bool) {
	if boost {
		priority := (syspower.PriorityPlayback-syspower.PriorityPlaybackMax)*p.unplayedBytes/
			(2*NativeFrequency) + syspower.PriorityPlaybackMax
		if priority != p.codecPriority {
			p.codecPriority = priority
			p.power.SetPlaybackPriority(priority)
		}
	} else if p.codecPriority != syspower.PriorityPlayback {
		p.codecPriority = syspower.PriorityPlayback
		p.power.SetPlaybackPriority(syspower.PriorityPlayback)
	}
}

// prepareInsert performs admission control for length new bytes and drives
// the CPU-boost and prebuffer policies. Callers hold p.mu.
func (p *PCMBuf) prepareInsert(length int) bool {
	if p.lowLatencyMode {
		// 1/4s latency.
		if !p.lowData(1) && p.driver.IsPlaying() {
			return false
		}
	}

	// Keep minChunkSize spare to prevent wrapping overwriting the tail.
	if p.free() < length+minChunkSize {
		return false
	}

	if p.driver.IsPlaying() {
		if p.unplayedBytes <= p.watermark {
			// Fill the pcm buffer by boosting the cpu; if the buffer is
			// critically low also override thread priority.
			p.power.TriggerCPUBoost()
			p.boostCodecThread(p.lowData(2))
		} else {
			p.boostCodecThread(false)
		}

		// Disable crossfade if under .5s of audio.
		if p.lowData(2) {
			p.crossfadeActive = false
		}
	} else {
		p.power.TriggerCPUBoost()

		// Pre-buffer up to the watermark, then start the device unless the
		// supervisor holds us paused.
		prebuffered := !p.lowData(4)
		if p.cfg.SmallMemory {
			prebuffered = p.unplayedBytes > p.watermark
		}
		if prebuffered {
			p.logger.Debug("prebuffer complete, starting playback", "unplayed_bytes", p.unplayedBytes)
			if p.sup == nil || !p.sup.Paused() {
				p.playStart()
			}
		}
	}

	return true
}

// RequestBuffer returns a writable span of up to count stereo frames and
// the granted frame count. It returns nil when admission is refused; the
// caller is expected to retry later. During an active crossfade the span is
// the fade scratch buffer instead of the arena.
func (p *PCMBuf) RequestBuffer(count int) ([]byte, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requestBuffer(count)
}

func (p *PCMBuf) requestBuffer(count int) ([]byte, int) {
	if p.crossfadeInit {
		p.crossfadeStart()
	}

	if p.crossfadeActive {
		granted := min(count, mixChunkSize/BytesPerFrame)
		return p.fadebuf[:granted*BytesPerFrame], granted
	}

	if !p.prepareInsert(count * BytesPerFrame) {
		return nil, 0
	}

	index := p.pos + p.fillPos
	if p.size-index < minChunkSize {
		// Commit pending bytes and wrap to the ring base.
		p.flushFillPos()
		p.pos = 0
		index = 0
	}
	granted := min(count, (p.size-index)/BytesPerFrame)
	return p.arena[index : index+granted*BytesPerFrame], granted
}

// WriteComplete commits count frames previously obtained from
// RequestBuffer. During an active crossfade the frames are taken from the
// fade scratch and mixed over queued audio instead.
func (p *PCMBuf) WriteComplete(count int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeComplete(count)
}

func (p *PCMBuf) writeComplete(count int) {
	length := count * BytesPerFrame
	if p.crossfadeActive {
		p.flushCrossfade(p.fadebuf[:length])
		if p.fadeInRem == 0 && p.crossfadeChunk == nilLink {
			p.crossfadeActive = false
		}
		return
	}

	p.fillPos += length
	if p.needFlush(p.pos + p.fillPos) {
		p.flushFillPos()
	}
}
