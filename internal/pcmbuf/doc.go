// Package pcmbuf implements the PCM playback buffer: the ring of audio
// chunks between variable-rate producers (codecs, voice prompts, key-click
// beeps) and a fixed-rate audio device consumer.
//
// # Architecture Overview
//
// The engine owns a byte arena subdivided into the PCM ring, a fade scratch
// buffer and a voice scratch buffer, plus a fixed pool of chunk descriptors.
// Descriptors circulate between two intrusive singly-linked lists:
//
//   - Read list: FIFO of committed chunks awaiting the device
//   - Write list: LIFO of free descriptors; the tail is a sentinel that is
//     never handed out
//
// Producers reserve bytes at the ring's write position, then commit them as
// chunks onto the read list. The device completion callback retires the
// finished chunk back onto the write list and publishes the next one. The
// crossfade engine rewrites already-committed samples in place and mixes
// newly produced samples over them; the voice mixer overlays low-priority
// content onto queued chunks without disturbing the primary stream.
//
// # Concurrency
//
// A single mutex serializes the producer, control and callback paths. The
// callback path never blocks on anything else and never allocates; the only
// blocking waits in the package are the commit path's descriptor wait and
// the crossfade flush fallback, both of which sleep with the lock released.
//
// All count arguments are in stereo frames (4 bytes); all size and length
// values are in bytes. Samples are signed 16-bit little-endian interleaved
// stereo at NativeFrequency.
package pcmbuf
