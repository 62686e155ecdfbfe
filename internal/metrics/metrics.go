package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CodeVerifications counts verify calls by outcome reason.
	CodeVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invitation_code_verifications_total",
			Help: "Invitation code verification outcomes",
		},
		[]string{"reason"},
	)

	// CodeRedemptions counts registration attempts by result.
	CodeRedemptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invitation_code_redemptions_total",
			Help: "Invitation code redemption results",
		},
		[]string{"result"}, // success, email_taken, rejected, error
	)

	// CodesIssued counts successfully issued member codes.
	CodesIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "invitation_codes_issued_total",
			Help: "Invitation codes issued by members",
		},
	)

	// AccessDecisions counts access-request decisions.
	AccessDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_request_decisions_total",
			Help: "Access request approvals and rejections",
		},
		[]string{"decision"}, // approved, rejected
	)
)

// RecordVerification records a single code verification outcome.
func RecordVerification(reason string) {
	CodeVerifications.WithLabelValues(reason).Inc()
}

// RecordRedemption records a registration attempt result.
func RecordRedemption(result string) {
	CodeRedemptions.WithLabelValues(result).Inc()
}

// RecordDecision records an access-request decision.
func RecordDecision(decision string) {
	AccessDecisions.WithLabelValues(decision).Inc()
}
