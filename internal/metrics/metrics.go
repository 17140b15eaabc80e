// Package metrics exposes Prometheus counters for account flows and HTTP traffic.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/simple-idm-accounts/pkg/domain"
)

// Metrics contains the custom collectors of the account service.
type Metrics struct {
	FlowsTotal    *prometheus.CounterVec
	RequestsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a private registry with the Go and process collectors plus the
// account metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		FlowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounts_flows_total",
				Help: "Total number of account flow invocations by flow and outcome",
			},
			[]string{"flow", "outcome"},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounts_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		registry: registry,
	}

	registry.MustRegister(m.FlowsTotal)
	registry.MustRegister(m.RequestsTotal)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordFlow counts one flow invocation labelled by its outcome.
func (m *Metrics) RecordFlow(flow string, err error) {
	m.FlowsTotal.WithLabelValues(flow, Outcome(err)).Inc()
}

// RecordRequest counts one HTTP request.
func (m *Metrics) RecordRequest(method, route, status string) {
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
}

var outcomes = []struct {
	err   error
	label string
}{
	{domain.ErrDuplicateIdentity, "duplicate_identity"},
	{domain.ErrWeakCredential, "weak_credential"},
	{domain.ErrNotFound, "not_found"},
	{domain.ErrInvalidCredentials, "invalid_credentials"},
	{domain.ErrInvalidOrExpiredToken, "invalid_or_expired_token"},
	{domain.ErrAccountNotApproved, "account_not_approved"},
	{domain.ErrDeliveryFailed, "delivery_failed"},
	{domain.ErrAlreadyVerified, "already_verified"},
	{domain.ErrUnexpected, "unexpected"},
}

// Outcome maps a flow result to a bounded label value.
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	for _, o := range outcomes {
		if errors.Is(err, o.err) {
			return o.label
		}
	}
	return "invalid_input"
}
