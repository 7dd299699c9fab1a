// Package metrics exposes Prometheus collectors for ingestion,
// composition and remote fetch activity.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ingests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "collage",
			Name:      "ingests_total",
			Help:      "Total document ingestions by result (success, failure)",
		},
		[]string{"result"},
	)

	ingestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "collage",
			Name:      "ingest_duration_seconds",
			Help:      "Duration of whole-document rasterization",
			Buckets:   prometheus.DefBuckets,
		},
	)

	pagesRasterized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "collage",
			Name:      "pages_rasterized_total",
			Help:      "Total pages rasterized by result (success, omitted)",
		},
		[]string{"result"},
	)

	compositions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "collage",
			Name:      "compositions_total",
			Help:      "Total composite renders by result (success, failure)",
		},
		[]string{"result"},
	)

	compositionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "collage",
			Name:      "composition_duration_seconds",
			Help:      "Duration of one composite render including PNG encode",
			Buckets:   prometheus.DefBuckets,
		},
	)

	fetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "collage",
			Name:      "fetches_total",
			Help:      "Remote fetches by route (direct, relay, s3, file) and result",
		},
		[]string{"route", "result"},
	)

	fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "collage",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of remote fetches by route",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	documentsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "collage",
			Name:      "documents_loaded",
			Help:      "Documents currently held in the session",
		},
	)

	outputsStored = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "collage",
			Name:      "outputs_stored",
			Help:      "Composite outputs currently held in the session",
		},
	)
)

var registerOnce sync.Once

// Init registers collectors. Safe to call more than once; only the
// first call registers.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			ingests, ingestDuration, pagesRasterized,
			compositions, compositionDuration,
			fetches, fetchDuration,
			documentsLoaded, outputsStored,
		)
	})
}

// Handler returns the http.Handler for /metrics.
func Handler() http.Handler { return promhttp.Handler() }

func ObserveIngest(result string, dur time.Duration) {
	ingests.WithLabelValues(result).Inc()
	ingestDuration.Observe(dur.Seconds())
}

func IncPageRasterized(result string) { pagesRasterized.WithLabelValues(result).Inc() }

func ObserveComposition(result string, dur time.Duration) {
	compositions.WithLabelValues(result).Inc()
	compositionDuration.Observe(dur.Seconds())
}

func ObserveFetch(route, result string, dur time.Duration) {
	fetches.WithLabelValues(route, result).Inc()
	fetchDuration.WithLabelValues(route).Observe(dur.Seconds())
}

func SetDocumentsLoaded(n int) { documentsLoaded.Set(float64(n)) }
func SetOutputsStored(n int)   { outputsStored.Set(float64(n)) }
