package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tecnobra_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tecnobra_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ScansTotal counts QR scans by kind (checkin, loan, rental) and outcome
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tecnobra_scans_total",
			Help: "QR scans processed by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// RentalLiveMinutes is display-only elapsed time of running machines
	RentalLiveMinutes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tecnobra_rental_live_minutes",
			Help: "Elapsed minutes of the running session per machine",
		},
		[]string{"machine_id"},
	)

	PanicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tecnobra_http_panics_total",
			Help: "Handler panics recovered",
		},
	)

	BackupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tecnobra_backups_total",
			Help: "Collection backups by outcome",
		},
		[]string{"outcome"},
	)
)

// ObserveScan records the outcome of one scan
func ObserveScan(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	ScansTotal.WithLabelValues(kind, outcome).Inc()
}
