// Package metrics provides custom Prometheus metrics for the jukebox-go application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PcmBufMetrics contains Prometheus metrics for the PCM playback buffer.
type PcmBufMetrics struct {
	UnplayedBytes    prometheus.Gauge
	FreeBytes        prometheus.Gauge
	UsedDescriptors  prometheus.Gauge
	CommitsTotal     prometheus.Counter
	UnderrunsTotal   prometheus.Counter
	CrossfadesTotal  prometheus.Counter
	FlushesTotal     prometheus.Counter
	VoiceMixesTotal  prometheus.Counter
	BeepsTotal       prometheus.Counter
	CallbackDuration prometheus.Histogram
}

// NewPcmBufMetrics creates and registers the PCM buffer metrics.
func NewPcmBufMetrics(registerer prometheus.Registerer) (*PcmBufMetrics, error) {
	m := &PcmBufMetrics{
		UnplayedBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pcmbuf_unplayed_bytes",
			Help: "Bytes committed to the playback buffer but not yet handed to the audio device",
		}),
		FreeBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pcmbuf_free_bytes",
			Help: "Free bytes remaining in the playback arena",
		}),
		UsedDescriptors: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pcmbuf_used_descriptors",
			Help: "Chunk descriptors currently on the read list",
		}),
		CommitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pcmbuf_commits_total",
			Help: "Chunks committed to the read list",
		}),
		UnderrunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pcmbuf_underruns_total",
			Help: "Device callbacks that found no data to publish",
		}),
		CrossfadesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pcmbuf_crossfades_total",
			Help: "Crossfades started",
		}),
		FlushesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pcmbuf_flushes_total",
			Help: "Track changes downgraded to a buffered-tail flush",
		}),
		VoiceMixesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pcmbuf_voice_mixes_total",
			Help: "Voice buffers mixed onto queued audio",
		}),
		BeepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pcmbuf_beeps_total",
			Help: "Square wave beeps synthesized",
		}),
		CallbackDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pcmbuf_callback_duration_seconds",
			Help:    "Time spent in the device completion callback",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
	}

	collectors := []prometheus.Collector{
		m.UnplayedBytes, m.FreeBytes, m.UsedDescriptors,
		m.CommitsTotal, m.UnderrunsTotal, m.CrossfadesTotal, m.FlushesTotal,
		m.VoiceMixesTotal, m.BeepsTotal, m.CallbackDuration,
	}
	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
