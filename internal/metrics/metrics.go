// Package metrics provides Prometheus metrics for the session pipeline.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CallsTotal counts pipeline calls by method and final status code.
	CallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "careertracker",
			Name:      "api_calls_total",
			Help:      "Total number of authenticated backend calls",
		},
		[]string{"method", "code"},
	)

	// CallDuration measures end-to-end call duration including any retry.
	CallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "careertracker",
			Name:      "api_call_duration_seconds",
			Help:      "Duration of authenticated backend calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// RetriesTotal counts calls that were reissued after a refresh.
	RetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "careertracker",
			Name:      "api_retries_total",
			Help:      "Total number of calls retried after a token refresh",
		},
	)

	// RefreshTotal counts refresh exchanges by result.
	RefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "careertracker",
			Name:      "token_refresh_total",
			Help:      "Total number of refresh token exchanges",
		},
		[]string{"result"},
	)

	// RefreshShared counts callers that joined an in-flight refresh instead of starting one.
	RefreshShared = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "careertracker",
			Name:      "token_refresh_shared_total",
			Help:      "Total number of refresh callers served by an in-flight exchange",
		},
	)

	// BridgeMessagesTotal counts bridge messages by type and outcome.
	BridgeMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "careertracker",
			Name:      "bridge_messages_total",
			Help:      "Total number of extension bridge messages",
		},
		[]string{"type", "ok"},
	)

	// ScrapesTotal counts page captures by strategy and whether fields were found.
	ScrapesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "careertracker",
			Name:      "scrapes_total",
			Help:      "Total number of job page captures",
		},
		[]string{"strategy", "found"},
	)
)

// Refresh results.
const (
	RefreshSuccess   = "success"
	RefreshSkipped   = "skipped"
	RefreshTransient = "transient"
	RefreshPermanent = "permanent"
)

// RecordCall records a completed pipeline call.
func RecordCall(method string, status int, seconds float64, retried bool) {
	CallsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	CallDuration.WithLabelValues(method).Observe(seconds)
	if retried {
		RetriesTotal.Inc()
	}
}

// RecordRefresh records the outcome of one refresh exchange.
func RecordRefresh(result string) {
	RefreshTotal.WithLabelValues(result).Inc()
}

// RecordBridgeMessage records a handled bridge message.
func RecordBridgeMessage(msgType string, ok bool) {
	BridgeMessagesTotal.WithLabelValues(msgType, strconv.FormatBool(ok)).Inc()
}

// RecordScrape records one page capture.
func RecordScrape(strategy string, found bool) {
	ScrapesTotal.WithLabelValues(strategy, strconv.FormatBool(found)).Inc()
}
