// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	poolSizeGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "flowcore_worker_pool_size",
			Help: "Current number of runner processes in the pool.",
		},
	)

	busyWorkersGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "flowcore_worker_busy",
			Help: "Number of runner processes currently executing a job.",
		},
	)

	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowcore_jobs_total",
			Help: "Total number of jobs completed by this pool, by status.",
		},
		[]string{"status"},
	)

	jobDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flowcore_job_duration_seconds",
			Help:    "Wall-clock job duration as observed by the pool manager.",
			Buckets: prometheus.DefBuckets,
		},
	)

	cancelKillsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flowcore_cancel_kills_total",
			Help: "Runner processes killed because their job was cancelled.",
		},
	)

	workerRecyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flowcore_worker_recycles_total",
			Help: "Runner processes recycled after reaching the job limit.",
		},
	)
)

func init() {
	prometheus.MustRegister(poolSizeGauge)
	prometheus.MustRegister(busyWorkersGauge)
	prometheus.MustRegister(jobsTotal)
	prometheus.MustRegister(jobDuration)
	prometheus.MustRegister(cancelKillsTotal)
	prometheus.MustRegister(workerRecyclesTotal)
}

// metricsHandler returns the Prometheus metrics handler for the internal server.
func metricsHandler() http.Handler {
	return promhttp.Handler()
}
