// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-authgate.
//
// go-authgate is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package metrics provides Prometheus instrumentation for go-authgate.
// It exposes ceremony outcomes, proxy validation decisions, and HTTP
// request metrics to enable monitoring of gateway health.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all gateway metrics
	Namespace = "authgate"

	// Label names
	LabelCeremony   = "ceremony"
	LabelStatus     = "status"
	LabelOutcome    = "outcome"
	LabelMethod     = "method"
	LabelStatusCode = "status_code"

	// Status values
	StatusSuccess = "success"
	StatusFailure = "failure"

	// Ceremony names
	CeremonyRegistration   = "registration"
	CeremonyAuthentication = "authentication"

	// Validation outcomes
	OutcomeAuthorized   = "authorized"
	OutcomeUnauthorized = "unauthorized"
)

var (
	// CeremoniesTotal tracks completed WebAuthn ceremonies by kind and status.
	CeremoniesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "webauthn_ceremonies_total",
			Help:      "Total number of completed WebAuthn ceremonies by kind and status",
		},
		[]string{LabelCeremony, LabelStatus},
	)

	// ValidationsTotal tracks proxy subrequest validation decisions.
	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "validations_total",
			Help:      "Total number of proxy validation decisions by outcome",
		},
		[]string{LabelOutcome},
	)

	// SessionsIssuedTotal tracks the number of session tokens minted.
	SessionsIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sessions_issued_total",
			Help:      "Total number of session tokens issued",
		},
	)

	// HTTPRequestsTotal tracks HTTP requests by method and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method and status code",
		},
		[]string{LabelMethod, LabelStatusCode},
	)

	// HTTPRequestDuration tracks HTTP request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{LabelMethod},
	)
)

// enabled controls whether metrics recording is active.
var enabled atomic.Bool

func init() {
	enabled.Store(true)
}

// Enable turns on metrics recording.
func Enable() {
	enabled.Store(true)
}

// Disable turns off metrics recording.
func Disable() {
	enabled.Store(false)
}

// IsEnabled reports whether metrics recording is active.
func IsEnabled() bool {
	return enabled.Load()
}

// RecordCeremony records the outcome of a WebAuthn ceremony.
func RecordCeremony(ceremony, status string) {
	if !IsEnabled() {
		return
	}
	CeremoniesTotal.WithLabelValues(ceremony, status).Inc()
}

// RecordValidation records a proxy validation decision.
func RecordValidation(outcome string) {
	if !IsEnabled() {
		return
	}
	ValidationsTotal.WithLabelValues(outcome).Inc()
}

// RecordSessionIssued records a minted session token.
func RecordSessionIssued() {
	if !IsEnabled() {
		return
	}
	SessionsIssuedTotal.Inc()
}

// RecordHTTPRequest records an HTTP request with its method, status code,
// and duration in seconds.
func RecordHTTPRequest(method, statusCode string, duration float64) {
	if !IsEnabled() {
		return
	}
	HTTPRequestsTotal.WithLabelValues(method, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method).Observe(duration)
}
