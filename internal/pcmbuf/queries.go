package pcmbuf

import "time"

// free returns the bytes left in the ring between the write position and
// the head of the queued data. Callers hold p.mu.
func (p *PCMBuf) free() int {
	if p.readChunk != nilLink {
		read := p.descs[p.readChunk].addr
		write := p.pos + p.fillPos
		if read < write {
			return read - write + p.size
		}
		return read - write
	}
	return p.size
}

// Free returns the bytes left in the ring.
func (p *PCMBuf) Free() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.free()
}

// BufSize returns the PCM ring size in bytes.
func (p *PCMBuf) BufSize() int {
	return p.size
}

// usedDescs counts descriptors on the read list. Callers hold p.mu.
func (p *PCMBuf) usedDescs() int {
	count := 0
	for d := p.readChunk; d != nilLink; d = p.descs[d].link {
		count++
	}
	return count
}

// UsedDescs returns the number of descriptors holding queued audio.
func (p *PCMBuf) UsedDescs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.usedDescs()
}

// Descs returns the descriptor pool size.
func (p *PCMBuf) Descs() int {
	return len(p.descs)
}

// Usage returns buffer occupancy in percent.
func (p *PCMBuf) Usage() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.usage()
}

// UnplayedBytes returns the bytes committed but not yet handed to the
// device.
func (p *PCMBuf) UnplayedBytes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unplayedBytes
}

// IsLowData reports whether the buffer is running low while actively
// playing. It is false while paused, stopped or crossfading.
func (p *PCMBuf) IsLowData() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.driver.IsPlaying() || p.driver.IsPaused() ||
		p.crossfadeInit || p.crossfadeActive {
		return false
	}
	if p.cfg.SmallMemory {
		return p.unplayedBytes < p.watermark
	}
	// One second of buffer is low data.
	return p.lowData(4)
}

// SetLowLatency toggles low-latency mode: while on, admission caps
// buffered audio at a quarter second during playback.
func (p *PCMBuf) SetLowLatency(state bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lowLatencyMode = state
	p.cfg.LowLatency = state
}

// Latency returns the time it will take to play everything buffered in the
// engine and the driver.
func (p *PCMBuf) Latency() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	bytes := p.unplayedBytes + p.driver.BytesWaiting()
	return time.Duration(bytes) * time.Second / (BytesPerFrame * NativeFrequency)
}
