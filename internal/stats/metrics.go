package stats

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "provisioner",
			Subsystem: "http",
			Name:      "request_total",
			Help:      "Counter of HTTP requests by route and status code.",
		}, []string{"route", "code"})

	RequestHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "provisioner",
			Subsystem: "http",
			Name:      "request_seconds",
			Help:      "Duration of HTTP requests by route.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"route"})

	ProvisionCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "provisioner",
			Subsystem: "provision",
			Name:      "userpolicies_total",
			Help:      "Counter of user-policy provisioning attempts by outcome.",
		}, []string{"outcome"})
)
