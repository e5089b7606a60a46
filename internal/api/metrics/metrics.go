// Package metrics defines and registers all custom Prometheus metrics for
// the identity service. It is the single source of truth for metric names,
// labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// SignInsCompletedTotal counts completed sign-ins by outcome.
// Labels:
//   - outcome: "signed_in", "created", "converted", or "merged"
//   - dashboard: "true" for dashboard logins
var SignInsCompletedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signins_completed_total",
		Help:      "Total number of completed sign-ins, by outcome.",
	},
	[]string{"outcome", "dashboard"},
)

// CodesIssuedTotal counts verification codes generated and dispatched.
// Label:
//   - flow: "signin" or "email_update"
var CodesIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "codes_issued_total",
		Help:      "Total number of verification codes issued, by flow.",
	},
	[]string{"flow"},
)

// CodeValidationFailuresTotal counts rejected verification codes.
var CodeValidationFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "code_validation_failures_total",
		Help:      "Total number of verification code redemptions rejected.",
	},
)

// TokensRevokedTotal counts explicit token revocations (sign-out plus
// superseded guest tokens).
var TokensRevokedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_revoked_total",
		Help:      "Total number of tokens explicitly revoked.",
	},
)

// AccountsDeletedTotal counts account deletions.
// Label:
//   - kind: "permanent" or "guest"
var AccountsDeletedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accounts_deleted_total",
		Help:      "Total number of accounts deleted, by account kind.",
	},
	[]string{"kind"},
)
