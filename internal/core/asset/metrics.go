package asset

import "github.com/prometheus/client_golang/prometheus"

var (
	lookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nova_asset_lookups_total",
			Help: "Asset cache lookups by result (hit or miss).",
		},
		[]string{"result"},
	)

	decodesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nova_asset_decodes_total",
			Help: "Asset decodes by requested kind and outcome.",
		},
		[]string{"kind", "status"},
	)

	decodeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nova_asset_decode_seconds",
			Help:    "Time spent reading and decoding one asset.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(lookupsTotal)
	prometheus.MustRegister(decodesTotal)
	prometheus.MustRegister(decodeDuration)
}
