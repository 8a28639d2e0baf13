package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	responseTime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "response_time",
			Help:    "http response time.",
			Buckets: []float64{0.005, 0.05, 0.5, 1, 5, 10, 30},
		},
	)

	totalHttpRequestsFromTokenUse = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "total_http_requests_from_token_use", Help: "http requests by verified token use"},
		[]string{"token_use"},
	)

	totalHttpRequestsToUri = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "total_http_requests_to_uri", Help: "http requests to uri"},
		[]string{"code", "uri", "method"},
	)

	totalHttpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "total_http_requests", Help: "http requests by code, and method"},
		[]string{"code", "method"},
	)

	keySetFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "keyset_fetches_total", Help: "key set fetches by result"},
		[]string{"result"},
	)

	keySetFetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "keyset_fetch_duration_seconds",
			Help:    "key set fetch latency.",
			Buckets: prometheus.DefBuckets,
		},
	)

	keySetFetchedKeys = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "keyset_fetched_keys", Help: "keys returned by the last successful fetch"},
	)

	keySetResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "keyset_resolutions_total", Help: "key resolutions by outcome"},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		responseTime,
		totalHttpRequestsFromTokenUse,
		totalHttpRequestsToUri,
		totalHttpRequests,
		keySetFetches,
		keySetFetchDuration,
		keySetFetchedKeys,
		keySetResolutions,
	)
}
