// Package metrics provides Prometheus metrics for batch segmentation and
// alignment runs.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder owns a private registry so each run exports only its own series.
// A nil Recorder discards everything.
type Recorder struct {
	registry *prometheus.Registry

	// filesTotal counts processed files by status (ok, empty, failed, skipped).
	filesTotal *prometheus.CounterVec
	// chunksExported counts audio/transcript pairs written to disk.
	chunksExported prometheus.Counter
	// chunksSkipped counts segments shorter than the minimum chunk duration.
	chunksSkipped prometheus.Counter
	// noiseTags counts classifier labels assigned to empty markers.
	noiseTags *prometheus.CounterVec
	// fileDuration records per-file processing time.
	// Buckets: 0.05s, 0.1s, 0.25s, 0.5s, 1s, 2.5s, 5s, 10s, 30s
	fileDuration prometheus.Histogram
}

// New registers the speechline series on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		filesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "speechline_files_total",
				Help: "Total number of audio files processed, by outcome",
			},
			[]string{"status"},
		),
		chunksExported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "speechline_chunks_exported_total",
			Help: "Total number of audio chunks exported",
		}),
		chunksSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "speechline_chunks_skipped_total",
			Help: "Total number of segments below the minimum chunk duration",
		}),
		noiseTags: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "speechline_noise_tags_total",
				Help: "Total number of noise labels assigned to empty markers",
			},
			[]string{"label"},
		),
		fileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "speechline_file_duration_seconds",
			Help:    "Time spent processing one audio file in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
	r.registry.MustRegister(r.filesTotal, r.chunksExported, r.chunksSkipped, r.noiseTags, r.fileDuration)
	return r
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RecordFile counts one file outcome and its processing time.
func (r *Recorder) RecordFile(status string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.filesTotal.WithLabelValues(status).Inc()
	r.fileDuration.Observe(elapsed.Seconds())
}

// RecordChunks adds exported and skipped chunk counts.
func (r *Recorder) RecordChunks(exported, skipped int) {
	if r == nil {
		return
	}
	r.chunksExported.Add(float64(exported))
	r.chunksSkipped.Add(float64(skipped))
}

// RecordNoiseTags adds per-label noise tag counts.
func (r *Recorder) RecordNoiseTags(tags map[string]int) {
	if r == nil {
		return
	}
	for label, n := range tags {
		r.noiseTags.WithLabelValues(label).Add(float64(n))
	}
}

// WriteTextfile writes the registry in the text exposition format for the
// node-exporter textfile collector. An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
