// Package pcmdriver defines the PCM output driver contract used by the
// playback buffer engine, with a malgo (miniaudio) soundcard implementation
// and a deterministic mock for tests and simulation.
//
// The driver consumes whole chunks: PlayData hands it the first chunk and a
// completion callback, and from then on the driver invokes the callback each
// time it needs the next chunk. A nil callback result means no data is
// ready; the driver reports itself stopped once staged audio has drained.
package pcmdriver

// Callback is invoked by the driver whenever it has finished the previous
// chunk and wants the next one. It must be non-blocking. A nil return means
// the buffer is empty.
type Callback func() []byte

// Driver is the hardware-facing contract of the playback engine.
type Driver interface {
	// PlayData starts playback of first and registers cb as the source of
	// subsequent chunks.
	PlayData(cb Callback, first []byte) error
	// PlayStop halts playback and discards staged audio.
	PlayStop()
	// PlayPause pauses (true) or resumes (false) output.
	PlayPause(pause bool)
	// IsPlaying reports whether the driver has unfinished audio.
	IsPlaying() bool
	// IsPaused reports whether output is paused.
	IsPaused() bool
	// BytesWaiting returns the bytes staged in the driver but not yet played.
	BytesWaiting() int
	// PeakBuffer reports how many bytes of the in-flight chunk have been
	// played. ok is false when the driver cannot tell; callers must treat
	// that as a skip, not an error.
	PeakBuffer() (played int, ok bool)
}
