package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Solve job metrics, exported on the /metrics endpoint.
var (
	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trvlr_solve_jobs_total",
			Help: "Total number of solve jobs by algorithm and final status.",
		},
		[]string{"algorithm", "status"},
	)

	jobsRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trvlr_solve_jobs_running",
			Help: "Number of solve jobs currently running.",
		},
	)

	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trvlr_solve_job_duration_seconds",
			Help:    "Wall-clock duration of solve jobs by algorithm.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"algorithm"},
	)
)

func init() {
	prometheus.MustRegister(jobsTotal, jobsRunning, jobDuration)
}
