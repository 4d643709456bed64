package pcmbuf

// NativeFrequency is the fixed output sample rate in frames per second.
const NativeFrequency = 44100

// BytesPerFrame is one interleaved stereo sample pair, 16 bits per channel.
const BytesPerFrame = 4

const (
	// targetChunkSize is the target fill size of chunks on the pcm buffer.
	targetChunkSize = 32768
	// minAvgChunkSize is the minimum average chunk size; it sizes the
	// descriptor pool so descriptors run out no sooner than arena bytes.
	minAvgChunkSize = 24576
	// minChunkSize is the spare room admission keeps free, and the
	// smallest ring tail the producer writes into before wrapping.
	minChunkSize = 4096
	// mixChunkSize is the maximum size of one packet for mixing
	// (crossfade or voice).
	mixChunkSize = 8192
)

// Default watermarks by memory profile: 2 s of audio on large builds,
// 0.25 s on small ones.
const (
	watermarkLarge = NativeFrequency * BytesPerFrame * 2
	watermarkSmall = NativeFrequency * 1
)

// keyClickMs bounds the beep duration that fits the static mini buffer.
const keyClickMs = 20
