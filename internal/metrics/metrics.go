// Package metrics holds the Prometheus counters for a single run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for ImagesTotal.
const (
	OutcomeKept    = "kept"
	OutcomeDropped = "dropped"
)

// Drop reasons for DroppedTotal.
const (
	ReasonNoURL     = "no_url"
	ReasonDownload  = "download_failed"
	ReasonDecode    = "decode_failed"
	ReasonNotWide   = "not_panorama"
	ReasonLedger    = "ledger_failed"
	ReasonCancelled = "cancelled"
)

// Metrics holds all Prometheus metrics for a run on a private registry.
type Metrics struct {
	ImagesTotal  *prometheus.CounterVec
	DroppedTotal *prometheus.CounterVec
	RetriesTotal *prometheus.CounterVec
	PagesTotal   prometheus.Counter
	BytesTotal   prometheus.Counter
	ImagesFound  prometheus.Gauge
	registry     *prometheus.Registry
}

// NewMetrics creates the run's metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		ImagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "streetgrab_images_processed_total",
			Help: "Images processed by the download pipeline, by outcome.",
		}, []string{"outcome"}),
		DroppedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "streetgrab_images_dropped_total",
			Help: "Dropped images, by reason.",
		}, []string{"reason"}),
		RetriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "streetgrab_retries_total",
			Help: "Retried network calls, by operation.",
		}, []string{"op"}), // metadata, download
		PagesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "streetgrab_metadata_pages_total",
			Help: "Metadata pages fetched.",
		}),
		BytesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "streetgrab_downloaded_bytes_total",
			Help: "Bytes written to disk by image downloads.",
		}),
		ImagesFound: factory.NewGauge(prometheus.GaugeOpts{
			Name: "streetgrab_images_found",
			Help: "Image records returned by the metadata search.",
		}),
		registry: reg,
	}
}

func (m *Metrics) IncKept() {
	m.ImagesTotal.WithLabelValues(OutcomeKept).Inc()
}

func (m *Metrics) IncDropped(reason string) {
	m.ImagesTotal.WithLabelValues(OutcomeDropped).Inc()
	m.DroppedTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncRetry(op string) {
	m.RetriesTotal.WithLabelValues(op).Inc()
}

// Registry exposes the private registry, e.g. for an HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the metrics in the text exposition format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
