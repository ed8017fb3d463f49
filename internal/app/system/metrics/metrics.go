// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK          = "ok"
	OutcomeInvalid     = "invalid"
	OutcomeUnavailable = "unavailable"
	OutcomeDenied      = "denied"
	OutcomeThrottled   = "throttled"
)

var (
	suggestionsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hakbang",
		Name:      "suggestions_submitted_total",
		Help:      "Suggestion submissions by outcome.",
	}, []string{"outcome"})

	suggestionPages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hakbang",
		Name:      "suggestion_pages_fetched_total",
		Help:      "Suggestion page fetches by outcome.",
	}, []string{"outcome"})

	adminLogins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hakbang",
		Name:      "admin_logins_total",
		Help:      "Admin login attempts by outcome.",
	}, []string{"outcome"})

	installerDownloads = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hakbang",
		Name:      "installer_downloads_total",
		Help:      "Installer downloads served.",
	})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "hakbang",
		Name:      "identity_sessions_active",
		Help:      "Unexpired identity sessions as of the last cleanup pass.",
	})
)

// SuggestionSubmitted counts one submission attempt.
func SuggestionSubmitted(outcome string) { suggestionsSubmitted.WithLabelValues(outcome).Inc() }

// SuggestionPageFetched counts one page fetch.
func SuggestionPageFetched(outcome string) { suggestionPages.WithLabelValues(outcome).Inc() }

// AdminLogin counts one admin login attempt.
func AdminLogin(outcome string) { adminLogins.WithLabelValues(outcome).Inc() }

// InstallerDownloaded counts one installer download.
func InstallerDownloaded() { installerDownloads.Inc() }

// ActiveSessions records the unexpired identity session count.
func ActiveSessions(n int64) { activeSessions.Set(float64(n)) }

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
