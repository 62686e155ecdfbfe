package codes

import (
	"time"

	"github.com/alumnet/alumnet-api/internal/faults"
	"github.com/alumnet/alumnet-api/internal/models"
)

// Reason classifies the outcome of a code verification. Callers branch on the
// reason, never on message text.
type Reason string

const (
	ReasonAccepted       Reason = "accepted"
	ReasonNotFound       Reason = "not_found"
	ReasonExpired        Reason = "expired"
	ReasonExhausted      Reason = "exhausted"
	ReasonSchoolMismatch Reason = "school_mismatch"
	ReasonYearMismatch   Reason = "year_mismatch"
	ReasonCohortMismatch Reason = "cohort_mismatch"
)

// Outcome is the result of classifying a code against a requested cohort.
// Universal is set on the privileged any-cohort path so callers can log it.
type Outcome struct {
	Accepted  bool   `json:"accepted"`
	Universal bool   `json:"universal,omitempty"`
	Reason    Reason `json:"reason"`
	Message   string `json:"message"`
}

var reasonMessages = map[Reason]string{
	ReasonAccepted:       "Code valid.",
	ReasonNotFound:       "Invalid or unknown code. Check the code provided by your ambassador.",
	ReasonExpired:        "This code has expired. Contact your ambassador for a new code.",
	ReasonExhausted:      "This code has reached its maximum number of uses. Contact your ambassador for a new code.",
	ReasonSchoolMismatch: "This code does not match the selected school. Check the details provided by your ambassador.",
	ReasonYearMismatch:   "This code does not match the selected entry year. Check your entry year or contact your ambassador.",
	ReasonCohortMismatch: "This code does not match the selected school or entry year. Check the details provided by your ambassador.",
}

func rejected(reason Reason) Outcome {
	return Outcome{Reason: reason, Message: reasonMessages[reason]}
}

// Verify classifies a stored code against the requester's claimed cohort.
// found is false when no row matched the token. The function is pure: it
// never mutates the code and can be called speculatively before redemption.
//
// Checks apply in order: existence/active, expiry, remaining uses, scope.
// A universal code bypasses the cohort comparison entirely.
func Verify(code models.InvitationCode, found bool, requested models.Scope, now time.Time) Outcome {
	if !found || !code.IsActive {
		return rejected(ReasonNotFound)
	}
	if code.IsExpired(now) {
		return rejected(ReasonExpired)
	}
	if code.IsExhausted() {
		return rejected(ReasonExhausted)
	}
	if code.Scope.Universal {
		return Outcome{
			Accepted:  true,
			Universal: true,
			Reason:    ReasonAccepted,
			Message:   "Universal code, valid for any school and entry year.",
		}
	}

	ok, schoolMatch, yearMatch := code.Scope.Matches(requested)
	if !ok {
		switch {
		case !schoolMatch && !yearMatch:
			return rejected(ReasonCohortMismatch)
		case !schoolMatch:
			return rejected(ReasonSchoolMismatch)
		default:
			return rejected(ReasonYearMismatch)
		}
	}

	return Outcome{Accepted: true, Reason: ReasonAccepted, Message: reasonMessages[ReasonAccepted]}
}

// Err maps a rejection onto the tagged error set; nil for accepted outcomes.
func (o Outcome) Err() error {
	if o.Accepted {
		return nil
	}
	switch o.Reason {
	case ReasonNotFound:
		return faults.ErrNotFound
	case ReasonExpired:
		return faults.ErrExpired
	case ReasonExhausted:
		return faults.ErrQuotaExhausted
	default:
		return faults.ErrScopeMismatch
	}
}
