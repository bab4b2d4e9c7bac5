package job

import "github.com/prometheus/client_golang/prometheus"

const (
	statusOK     = "ok"
	statusFailed = "failed"
	statusPanic  = "panic"

	reasonCap    = "cap"
	reasonClosed = "closed"
)

var (
	jobsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nova_jobs_submitted_total",
			Help: "Jobs accepted by the scheduler.",
		},
	)

	jobsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nova_jobs_rejected_total",
			Help: "Job submissions refused, by reason.",
		},
		[]string{"reason"},
	)

	jobsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nova_jobs_completed_total",
			Help: "Jobs that ran to completion, by outcome.",
		},
		[]string{"status"},
	)

	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nova_job_queue_depth",
			Help: "Jobs waiting for a worker.",
		},
	)

	jobDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nova_job_duration_seconds",
			Help:    "Job execution time in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(jobsSubmitted)
	prometheus.MustRegister(jobsRejected)
	prometheus.MustRegister(jobsCompleted)
	prometheus.MustRegister(queueDepth)
	prometheus.MustRegister(jobDuration)
}
