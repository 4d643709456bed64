// Package decoder provides file sources feeding the playback buffer. Only
// WAV is supported; compressed formats are out of scope.
package decoder

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tphakala/jukebox-go/internal/errors"
	"github.com/tphakala/jukebox-go/internal/logging"
	"github.com/tphakala/jukebox-go/internal/pcmbuf"
)

// readFrames is the decode burst size in frames.
const readFrames = 1024

// retryDelay is how long the producer backs off when buffer admission is
// refused.
const retryDelay = 10 * time.Millisecond

// WAVSource decodes a RIFF/WAV file into the playback buffer's native
// format: interleaved signed 16-bit stereo. Mono input is duplicated to
// both channels and other bit depths are rescaled.
type WAVSource struct {
	path    string
	file    *os.File
	dec     *wav.Decoder
	intBuf  *audio.IntBuffer
	scratch []int
	logger  *slog.Logger
}

// OpenWAV opens and validates a WAV file.
func OpenWAV(path string) (*WAVSource, error) {
	logger := logging.ForService("decoder")
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path) //nolint:gosec // path comes from the user's own playlist
	if err != nil {
		return nil, errors.New(err).
			Component("decoder").
			Category(errors.CategoryFileIO).
			Context("operation", "open").
			Build()
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		_ = f.Close()
		return nil, errors.Newf("not a valid WAV file: %s", path).
			Component("decoder").
			Category(errors.CategoryDecode).
			Build()
	}
	if dec.NumChans < 1 || dec.NumChans > 2 {
		_ = f.Close()
		return nil, errors.Newf("unsupported channel count %d", dec.NumChans).
			Component("decoder").
			Category(errors.CategoryDecode).
			Context("path", path).
			Build()
	}

	s := &WAVSource{
		path:   path,
		file:   f,
		dec:    dec,
		logger: logger,
	}
	s.intBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: int(dec.NumChans),
			SampleRate:  int(dec.SampleRate),
		},
		Data: make([]int, readFrames*int(dec.NumChans)),
	}

	logger.Debug("wav source opened",
		"path", path,
		"sample_rate", dec.SampleRate,
		"channels", dec.NumChans,
		"bit_depth", dec.BitDepth)
	return s, nil
}

// Close releases the underlying file.
func (s *WAVSource) Close() error {
	return s.file.Close()
}

// SampleRate returns the source sample rate.
func (s *WAVSource) SampleRate() int {
	return int(s.dec.SampleRate)
}

// Stream decodes the whole file into the playback buffer, honoring
// admission control. It returns when the file is exhausted, the context is
// canceled, or decoding fails.
func (s *WAVSource) Stream(ctx context.Context, buf *pcmbuf.PCMBuf) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		span, granted := buf.RequestBuffer(readFrames)
		if span == nil {
			// Admission refused, back off and retry.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay):
			}
			continue
		}

		frames, err := s.decodeInto(span, granted)
		if err != nil {
			return err
		}
		if frames == 0 {
			return nil
		}
		buf.WriteComplete(frames)
	}
}

// decodeInto fills span with up to maxFrames native-format frames and
// returns the number produced.
func (s *WAVSource) decodeInto(span []byte, maxFrames int) (int, error) {
	channels := s.intBuf.Format.NumChannels

	want := min(maxFrames, readFrames)
	s.intBuf.Data = s.intBuf.Data[:want*channels]

	n, err := s.dec.PCMBuffer(s.intBuf)
	if err != nil {
		return 0, errors.New(err).
			Component("decoder").
			Category(errors.CategoryDecode).
			Context("path", s.path).
			Build()
	}
	if n == 0 {
		return 0, nil
	}
	frames := n / channels

	shift := int(s.dec.BitDepth) - 16
	for f := 0; f < frames; f++ {
		var left, right int
		if channels == 1 {
			left = s.intBuf.Data[f]
			right = left
		} else {
			left = s.intBuf.Data[2*f]
			right = s.intBuf.Data[2*f+1]
		}
		if shift > 0 {
			left >>= shift
			right >>= shift
		} else if shift < 0 {
			left <<= -shift
			right <<= -shift
		}
		span[4*f] = byte(left)
		span[4*f+1] = byte(left >> 8)
		span[4*f+2] = byte(right)
		span[4*f+3] = byte(right >> 8)
	}
	return frames, nil
}
