// Package metrics defines the custom Prometheus metrics of the travel-log API.
// It is the single source of truth for metric names, labels and help strings.
//
// All collectors register with the default registry through promauto when the
// package is imported; /metrics serves them next to echoprometheus' HTTP metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "travellog"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthGateDecisionsTotal counts every decision of the auth middleware.
// Labels:
//   - result: "allow" or "deny"
//   - reason: "public", "ok", "missing_token", "invalid_token", "bad_payload",
//     "no_session", "user_gone" or "store_error"
var AuthGateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_gate_decisions_total",
		Help:      "Total number of auth gate decisions, by result and reason.",
	},
	[]string{"result", "reason"},
)

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: "success", "conflict", "invalid" or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "invalid" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// PasswordChangesTotal counts successful password changes. Each one revokes
// every session of the user.
var PasswordChangesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_changes_total",
		Help:      "Total number of successful password changes.",
	},
)

// ── Travel log metrics ────────────────────────────────────────────────────────

var TravelLogsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "travel_logs_created_total",
		Help:      "Total number of travel logs created.",
	},
)

var TravelLogsDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "travel_logs_deleted_total",
		Help:      "Total number of travel log delete requests served.",
	},
)

// ImagesStoredTotal counts uploaded photos written to file storage.
// Label:
//   - backend: "local" or "s3"
var ImagesStoredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "images_stored_total",
		Help:      "Total number of images written to file storage, by backend.",
	},
	[]string{"backend"},
)

// ── Janitor metrics ───────────────────────────────────────────────────────────

// JanitorDeletionsTotal counts files processed by the image janitor.
// Label:
//   - result: "deleted", "missing" or "error"
var JanitorDeletionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "janitor_deletions_total",
		Help:      "Total number of orphaned image deletions, by result.",
	},
	[]string{"result"},
)

// JanitorQueueDepth tracks the number of file names waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var JanitorQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "janitor_queue_depth",
		Help:      "Current number of file names pending in each janitor worker channel.",
	},
	[]string{"worker_id"},
)
