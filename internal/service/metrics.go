package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/artxchange/artx-api/internal/domain"
)

var decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "artx_engine_decisions_total",
	Help: "Number of eligibility decisions by action and outcome",
}, []string{"action", "outcome"})

var externalCalls = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "artx_engine_external_calls_total",
	Help: "Number of payment and moderation calls by result",
}, []string{"service", "op", "result"})

var externalCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "artx_engine_external_call_duration_seconds",
	Help:    "Latency of payment and moderation calls",
	Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
}, []string{"service", "op"})

var voteCacheHits = promauto.NewCounter(prometheus.CounterOpts{
	Name: "artx_engine_vote_cache_hits_total",
	Help: "Number of already-voted checks answered from the cache",
})

var refundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "artx_engine_refunds_total",
	Help: "Number of charges refunded after a failed commit",
}, []string{"result"})

func observeDecision(action domain.Action, d domain.Decision) {
	outcome := "allowed"
	if !d.Allowed {
		outcome = string(d.Reason)
	}
	decisionsTotal.WithLabelValues(string(action), outcome).Inc()
}

func observeExternal(service, op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	externalCalls.WithLabelValues(service, op, result).Inc()
	externalCallDuration.WithLabelValues(service, op).Observe(time.Since(start).Seconds())
}
