package pcmbuf

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/tphakala/jukebox-go/internal/pcmdriver"
	"github.com/tphakala/jukebox-go/internal/syspower"
)

// checkInvariants asserts the descriptor and byte accounting invariants
// that must hold outside critical sections after any operation sequence.
func checkInvariants(rt *rapid.T, engine *PCMBuf, drv *pcmdriver.Mock) {
	// The descriptor multiset is conserved between the two lists.
	total := engine.freeDescs() + engine.UsedDescs()
	if total != engine.Descs() {
		rt.Fatalf("descriptor leak: %d free + used of %d", total, engine.Descs())
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()

	// Unplayed bytes equal the read list sum minus the in-flight chunk.
	sum := 0
	prev := nilLink
	for d := engine.readChunk; d != nilLink; d = engine.descs[d].link {
		desc := &engine.descs[d]
		sum += desc.size

		// No zero-size or oversized chunks, and frame alignment holds.
		if desc.size <= 0 || desc.size > engine.size || desc.size%BytesPerFrame != 0 {
			rt.Fatalf("bad chunk size %d", desc.size)
		}

		// Addresses advance contiguously except at wraparound.
		if prev != nilLink {
			expected := (engine.descs[prev].addr + engine.descs[prev].size) % engine.size
			if desc.addr != expected && desc.addr != 0 {
				rt.Fatalf("read list not contiguous: %d after %d+%d",
					desc.addr, engine.descs[prev].addr, engine.descs[prev].size)
			}
		}
		prev = d
	}

	inflight := 0
	if drv.IsPlaying() {
		inflight = engine.lastChunkSize
	}
	if sum != engine.unplayedBytes+inflight {
		rt.Fatalf("unplayed accounting broken: list %d, unplayed %d, in-flight %d",
			sum, engine.unplayedBytes, inflight)
	}
}

func TestPropertyInvariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		drv := pcmdriver.NewMock()
		sup := &fakeSupervisor{playing: true}
		engine := New(defaultTestConfig(), drv, sup, syspower.Null{}, nil)

		numOps := rapid.IntRange(1, 300).Draw(rt, "numOps")
		for i := 0; i < numOps; i++ {
			switch rapid.IntRange(0, 4).Draw(rt, "op") {
			case 0, 1: // bias toward producing
				frames := rapid.IntRange(1, 2048).Draw(rt, "frames")
				span, granted := engine.RequestBuffer(frames)
				if span != nil {
					engine.WriteComplete(granted)
				}
			case 2:
				drv.Advance(rapid.IntRange(1, 2*targetChunkSize).Draw(rt, "advance"))
			case 3:
				engine.PlayStart()
			case 4:
				engine.PlayStop()
			}
			checkInvariants(rt, engine, drv)
		}
	})
}

func TestPropertyClip16(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		x := rapid.Int32().Draw(rt, "x")
		clipped := clip16(x)
		if clipped < -32768 || clipped > 32767 {
			rt.Fatalf("clip16(%d) = %d out of range", x, clipped)
		}
		if x >= -32768 && x <= 32767 && clipped != x {
			rt.Fatalf("clip16(%d) = %d, want identity", x, clipped)
		}
		if x > 32767 && clipped != 32767 {
			rt.Fatalf("clip16(%d) = %d, want 32767", x, clipped)
		}
		if x < -32768 && clipped != -32768 {
			rt.Fatalf("clip16(%d) = %d, want -32768", x, clipped)
		}
	})
}

// TestRoundTripStream verifies that with neither crossfade nor voice active
// the engine reproduces the produced byte stream exactly.
func TestRoundTripStream(t *testing.T) {
	engine, drv, sup := newTestEngine(t, defaultTestConfig())
	sup.playing = true
	drv.CapturePlayed = true

	var produced []byte
	counter := int16(0)
	for frames := 0; frames < 2*NativeFrequency; {
		span, granted := engine.RequestBuffer(1024)
		require.NotNil(t, span)
		for i := 0; i < granted*2; i++ {
			setSampleAt(span, i, int32(counter))
			counter++
		}
		produced = append(produced, span[:granted*BytesPerFrame]...)
		engine.WriteComplete(granted)
		frames += granted
	}

	require.True(t, drv.IsPlaying())
	for drv.CompleteChunk() {
	}

	// Everything committed must come back byte-identical and in order;
	// trailing samples are committed on drain so nothing is lost.
	require.Equal(t, len(produced), len(drv.Played))
	require.Equal(t, produced, drv.Played)
}
