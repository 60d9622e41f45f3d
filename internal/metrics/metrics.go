// Package metrics defines Prometheus counters for mail dispatch requests
// and provider sends.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Requests counts handled requests by method and result code
	// (ok, BAD_JSON, MISSING_FIELDS, METHOD_NOT_ALLOWED, MAIL_FAILED).
	Requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mail_dispatch_requests_total",
		Help: "Total number of mail dispatch requests by method and result",
	}, []string{"method", "result"})

	MailSendSuccess = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mail_dispatch_send_success_total",
		Help: "Total number of successful mail sends",
	}, []string{"provider", "shape"})
	MailSendFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mail_dispatch_send_failure_total",
		Help: "Total number of failed mail sends",
	}, []string{"provider", "shape"})
	VerifyFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mail_dispatch_verify_failure_total",
		Help: "Total number of failed pre-send provider verifications",
	}, []string{"provider"})
)

func init() {
	prometheus.MustRegister(Requests)
	prometheus.MustRegister(MailSendSuccess)
	prometheus.MustRegister(MailSendFailure)
	prometheus.MustRegister(VerifyFailure)
}

// MetricsHandler returns an http.Handler exposing Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
