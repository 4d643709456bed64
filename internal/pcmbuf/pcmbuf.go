package pcmbuf

import (
	"log/slog"
	"sync"

	"github.com/tphakala/jukebox-go/internal/conf"
	"github.com/tphakala/jukebox-go/internal/logging"
	"github.com/tphakala/jukebox-go/internal/observability/metrics"
	"github.com/tphakala/jukebox-go/internal/pcmdriver"
	"github.com/tphakala/jukebox-go/internal/supervisor"
	"github.com/tphakala/jukebox-go/internal/syspower"
)

// Config carries the playback knobs the engine consults at init and on
// every track change. Durations are in seconds.
type Config struct {
	Mode            conf.CrossfadeMode
	FadeInDelay     float64
	FadeInDuration  float64
	FadeOutDelay    float64
	FadeOutDuration float64
	FadeOutMixmode  bool
	Shuffle         bool
	SmallMemory     bool
	LowLatency      bool
}

// ConfigFromSettings maps the application settings onto an engine config.
func ConfigFromSettings(s *conf.Settings) Config {
	return Config{
		Mode:            s.CrossfadeMode(),
		FadeInDelay:     s.Playback.CrossfadeFadeInDelay,
		FadeInDuration:  s.Playback.CrossfadeFadeInDuration,
		FadeOutDelay:    s.Playback.CrossfadeFadeOutDelay,
		FadeOutDuration: s.Playback.CrossfadeFadeOutDuration,
		FadeOutMixmode:  s.Playback.CrossfadeFadeOutMixmode,
		Shuffle:         s.Playback.Shuffle,
		SmallMemory:     s.Audio.MemoryProfile == "small",
		LowLatency:      s.Audio.LowLatency,
	}
}

// PCMBuf is the playback buffer engine. All exported methods are safe for
// concurrent use; the zero value is not usable, construct with New or
// NewWithBuffer.
type PCMBuf struct {
	mu sync.Mutex

	cfg    Config
	driver pcmdriver.Driver
	sup    supervisor.Supervisor
	power  syspower.Manager
	m      *metrics.PcmBufMetrics
	logger *slog.Logger

	// Arena regions, carved from one backing slice.
	arena    []byte // PCM ring
	fadebuf  []byte // crossfade scratch, mixChunkSize bytes
	voicebuf []byte // voice scratch, mixChunkSize bytes
	minibuf  []byte // one-shot beep buffer
	size     int    // len(arena)

	descs []chunkdesc

	pos     int // ring write index
	fillPos int // reserved-but-uncommitted bytes at pos

	endOfTrack      bool
	trackTransition bool

	crossfadeEnabled       bool
	crossfadeEnableRequest bool
	crossfadeMixmode       bool
	crossfadeActive        bool
	crossfadeInit          bool

	crossfadeChunk  int32 // current crossfade position, chunk
	crossfadeSample int   // current crossfade position, sample within chunk
	fadeInTotal     int
	fadeInRem       int

	readChunk     int32
	readEndChunk  int32
	writeChunk    int32
	writeEndChunk int32
	lastChunkSize int

	unplayedBytes int
	watermark     int

	mixChunk  int32 // voice mix position, chunk
	mixSample int   // voice mix position, sample within chunk

	lowLatencyMode bool
	flushPending   bool

	codecPriority int
}

// RequiredSize returns the byte count of the backing region the engine
// needs for the given config: the PCM ring plus the two mix scratch
// buffers.
func RequiredSize(cfg Config) int {
	return ringSize(cfg) + 2*mixChunkSize
}

// ringSize computes the PCM ring size from the config: one second of
// audio, plus two on the large profile, plus the fade-out window when
// crossfade will be enabled.
func ringSize(cfg Config) int {
	seconds := 1.0
	if !cfg.SmallMemory {
		seconds += 2
	}
	if cfg.Mode != conf.CrossfadeOff {
		seconds += cfg.FadeOutDelay + cfg.FadeOutDuration
	}
	bytes := int(seconds*NativeFrequency) * BytesPerFrame
	return bytes
}

// New allocates a backing region of RequiredSize and builds the engine in
// it.
func New(cfg Config, driver pcmdriver.Driver, sup supervisor.Supervisor, power syspower.Manager, m *metrics.PcmBufMetrics) *PCMBuf {
	return NewWithBuffer(make([]byte, RequiredSize(cfg)), cfg, driver, sup, power, m)
}

// NewWithBuffer builds the engine inside the caller-provided region,
// subdividing it into the PCM ring and the fade and voice scratch buffers.
// A nil or undersized buffer is structural misuse and panics.
func NewWithBuffer(buf []byte, cfg Config, driver pcmdriver.Driver, sup supervisor.Supervisor, power syspower.Manager, m *metrics.PcmBufMetrics) *PCMBuf {
	if buf == nil {
		panic("pcmbuf: nil buffer")
	}
	ring := ringSize(cfg)
	if len(buf) < ring+2*mixChunkSize {
		panic("pcmbuf: buffer too small for configuration")
	}
	if power == nil {
		power = syspower.Null{}
	}

	logger := logging.ForService("pcmbuf")
	if logger == nil {
		logger = slog.Default()
	}

	p := &PCMBuf{
		cfg:           cfg,
		driver:        driver,
		sup:           sup,
		power:         power,
		m:             m,
		logger:        logger,
		arena:         buf[:ring],
		fadebuf:       buf[ring : ring+mixChunkSize],
		voicebuf:      buf[ring+mixChunkSize : ring+2*mixChunkSize],
		minibuf:       make([]byte, NativeFrequency/1000*keyClickMs*BytesPerFrame),
		size:          ring,
		descs:         make([]chunkdesc, ring/minAvgChunkSize),
		codecPriority: syspower.PriorityPlayback,
	}
	p.crossfadeEnableRequest = cfg.Mode != conf.CrossfadeOff
	p.lowLatencyMode = cfg.LowLatency

	p.initChunkLists()
	p.endOfTrack = false
	p.trackTransition = false
	p.finishCrossfadeEnable()
	p.PlayStop()

	p.logger.Info("pcm buffer initialized",
		"ring_bytes", ring,
		"descriptors", len(p.descs),
		"watermark_bytes", p.watermark,
		"crossfade", cfg.Mode.String())

	return p
}

// PlayStart forces playback if data is queued and the device is idle.
func (p *PCMBuf) PlayStart() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playStart()
}

func (p *PCMBuf) playStart() {
	if !p.driver.IsPlaying() && p.unplayedBytes > 0 && p.readChunk != nilLink {
		p.lastChunkSize = p.descs[p.readChunk].size
		p.unplayedBytes -= p.lastChunkSize
		if err := p.driver.PlayData(p.deviceCallback, p.payload(p.readChunk)); err != nil {
			p.logger.Error("driver refused playback", "error", err)
		}
	}
}

// PlayStop halts the device and reclaims every descriptor. It is a hard
// cancel: counters are zeroed, crossfade state cleared and the priority
// boost released.
func (p *PCMBuf) PlayStop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playStop()
}

func (p *PCMBuf) playStop() {
	p.driver.PlayStop()

	p.unplayedBytes = 0
	p.mixChunk = nilLink
	if p.readChunk != nilLink {
		p.descs[p.writeEndChunk].link = p.readChunk
		p.writeEndChunk = p.readEndChunk
		p.readChunk = nilLink
		p.readEndChunk = nilLink
	}
	p.pos = 0
	p.fillPos = 0
	p.crossfadeInit = false
	p.crossfadeActive = false
	p.flushPending = false

	// Safe to unboost here no matter who is calling.
	p.boostCodecThread(false)
	p.power.CancelCPUBoost()
	p.updateGauges()
}

// Pause forwards to the driver while playing; unpausing while idle starts
// playback instead.
func (p *PCMBuf) Pause(pause bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.driver.IsPlaying() {
		p.driver.PlayPause(pause)
	} else if !pause {
		p.playStart()
	}
}

// updateGauges refreshes the occupancy metrics. Callers hold p.mu.
func (p *PCMBuf) updateGauges() {
	if p.m == nil {
		return
	}
	p.m.UnplayedBytes.Set(float64(p.unplayedBytes))
	p.m.FreeBytes.Set(float64(p.free()))
	p.m.UsedDescriptors.Set(float64(p.usedDescs()))
}
