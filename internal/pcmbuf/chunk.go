package pcmbuf

import "encoding/binary"

// nilLink terminates a descriptor list.
const nilLink int32 = -1

// chunkdesc describes one contiguous span of the PCM arena queued for
// playback. Descriptors are created once at init and recycled forever;
// links are pool indexes rather than pointers so they stay bounds-checkable.
type chunkdesc struct {
	addr int   // byte offset of the first sample within the arena
	size int   // length in bytes, always a multiple of BytesPerFrame
	link int32 // next descriptor in the list, or nilLink
	// endOfTrack marks the final chunk of a track; drained exactly once.
	endOfTrack bool
}

// initChunkLists strings every descriptor into the write list in index
// order. The first becomes the write head, the last the write tail.
func (p *PCMBuf) initChunkLists() {
	p.writeChunk = 0
	p.writeEndChunk = 0
	for i := 1; i < len(p.descs); i++ {
		p.descs[p.writeEndChunk].link = int32(i)
		p.writeEndChunk = int32(i)
	}
	p.descs[p.writeEndChunk].link = nilLink
	p.readChunk = nilLink
	p.readEndChunk = nilLink
}

// payload returns the arena bytes addressed by descriptor d.
func (p *PCMBuf) payload(d int32) []byte {
	desc := &p.descs[d]
	return p.arena[desc.addr : desc.addr+desc.size]
}

// sampleAt reads the i-th 16-bit sample of buf.
func sampleAt(buf []byte, i int) int32 {
	return int32(int16(binary.LittleEndian.Uint16(buf[2*i:])))
}

// setSampleAt writes the i-th 16-bit sample of buf.
func setSampleAt(buf []byte, i int, v int32) {
	binary.LittleEndian.PutUint16(buf[2*i:], uint16(int16(v)))
}

// clip16 clamps a 32-bit intermediate to the signed 16-bit sample range.
func clip16(sample int32) int32 {
	if int32(int16(sample)) != sample {
		sample = 0x7fff ^ (sample >> 31)
	}
	return sample
}
