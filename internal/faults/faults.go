// Package faults defines the closed set of business outcomes the membership
// subsystem returns. Callers branch on these with errors.Is; only store-layer
// failures fall outside this set and are treated as system faults.
package faults

import "errors"

var (
	// ErrNotFound: the referenced code, user, or request does not exist or
	// has been deactivated.
	ErrNotFound = errors.New("not found or inactive")

	// ErrExpired: the invitation code's expiry has passed.
	ErrExpired = errors.New("code expired")

	// ErrQuotaExhausted: the invitation code has no redemptions left.
	ErrQuotaExhausted = errors.New("code quota exhausted")

	// ErrScopeMismatch: the code is bound to a different school or entry year.
	ErrScopeMismatch = errors.New("code scope mismatch")

	// ErrQuotaExceeded: the actor has reached their code-issuance allowance.
	ErrQuotaExceeded = errors.New("issuance quota exceeded")

	// ErrEmailTaken: an account with this email already exists.
	ErrEmailTaken = errors.New("email already in use")

	// ErrAlreadyProcessed: the access request left pending earlier; the
	// decision is terminal.
	ErrAlreadyProcessed = errors.New("request already processed")
)

// IsConflict reports whether the error indicates a race or a stale client
// view rather than bad input.
func IsConflict(err error) bool {
	return errors.Is(err, ErrEmailTaken) || errors.Is(err, ErrAlreadyProcessed)
}
