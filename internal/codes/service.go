package codes

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/alumnet/alumnet-api/internal/faults"
	"github.com/alumnet/alumnet-api/internal/metrics"
	"github.com/alumnet/alumnet-api/internal/models"
	"github.com/alumnet/alumnet-api/internal/repository"
)

// DefaultMaxUses is the redemption quota for member-issued codes.
const DefaultMaxUses = 10

// UniversalMaxUses is the redemption quota for administrator-seeded
// universal codes.
const UniversalMaxUses = 1000

// IssuedCode is returned to the actor after successful issuance.
type IssuedCode struct {
	Code           models.InvitationCode `json:"code"`
	CodesRemaining int                   `json:"codes_remaining"`
}

// Service issues and verifies invitation codes.
type Service struct {
	users  repository.UserRepository
	codes  repository.CodeRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(users repository.UserRepository, codes repository.CodeRepository, logger zerolog.Logger) *Service {
	return &Service{
		users:  users,
		codes:  codes,
		logger: logger.With().Str("component", "codes").Logger(),
		now:    time.Now,
	}
}

// Issue creates a new invitation code on behalf of the actor, bound to the
// actor's own school and entry year. Administrators bypass the cached quota;
// everyone else fails with ErrQuotaExceeded once their allowance is used up.
// The quota check and the insert run as one repository operation, so
// concurrent issuance by the same actor cannot overshoot the allowance.
func (s *Service) Issue(ctx context.Context, actorID string) (IssuedCode, error) {
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return IssuedCode{}, err
	}

	token, err := GenerateMemberToken()
	if err != nil {
		return IssuedCode{}, err
	}

	code, issued, err := s.codes.CreateCodeForIssuer(ctx, models.InvitationCode{
		Code:        token,
		Scope:       models.CohortScope(actor.SchoolID, actor.EntryYear),
		CreatedByID: &actor.ID,
		MaxUses:     DefaultMaxUses,
		IsActive:    true,
	}, actor.IssuanceLimit())
	if err != nil {
		if errors.Is(err, faults.ErrQuotaExceeded) {
			// The remediation differs: ambassadors already hold the elevated
			// allowance, plain members can ask their ambassador first.
			if actor.IsAmbassador {
				return IssuedCode{}, errors.Wrapf(faults.ErrQuotaExceeded,
					"you have reached your limit of %d codes; contact an administrator to raise it", actor.MaxCodesAllowed)
			}
			return IssuedCode{}, errors.Wrapf(faults.ErrQuotaExceeded,
				"you have reached your limit of %d codes; contact your ambassador or an administrator", actor.MaxCodesAllowed)
		}
		return IssuedCode{}, err
	}

	metrics.CodesIssued.Inc()
	s.logger.Info().
		Str("user_id", actor.ID).
		Str("school_id", actor.SchoolID).
		Str("entry_year", actor.EntryYear).
		Msg("invitation code issued")

	remaining := actor.MaxCodesAllowed - issued
	if remaining < 0 {
		remaining = 0
	}
	return IssuedCode{Code: code, CodesRemaining: remaining}, nil
}

// VerifyToken looks up a token and classifies it against the requested
// cohort. Rejections are ordinary outcomes, not errors; the error return is
// reserved for store faults.
func (s *Service) VerifyToken(ctx context.Context, token string, requested models.Scope) (Outcome, error) {
	code, err := s.codes.GetCodeByToken(ctx, token)
	found := true
	if err != nil {
		if !errors.Is(err, faults.ErrNotFound) {
			return Outcome{}, err
		}
		found = false
	}

	outcome := Verify(code, found, requested, s.now())
	metrics.RecordVerification(string(outcome.Reason))

	event := s.logger.Info()
	if !outcome.Accepted {
		event = s.logger.Warn()
	}
	event.
		Str("code_prefix", maskToken(token)).
		Str("school_id", requested.SchoolID).
		Str("entry_year", requested.EntryYear).
		Bool("accepted", outcome.Accepted).
		Bool("universal", outcome.Universal).
		Str("reason", string(outcome.Reason)).
		Msg("invitation code verified")

	return outcome, nil
}

// ListMine returns the codes the actor has issued, newest first.
func (s *Service) ListMine(ctx context.Context, actorID string) ([]models.InvitationCode, error) {
	return s.codes.ListCodesByIssuer(ctx, actorID)
}

// CreateUniversal seeds an unscoped code with a large quota and no expiry.
// Universal codes have no issuer and never count against anyone's allowance.
func (s *Service) CreateUniversal(ctx context.Context, maxUses int) (models.InvitationCode, error) {
	if maxUses <= 0 {
		maxUses = UniversalMaxUses
	}
	token, err := GenerateUniversalToken()
	if err != nil {
		return models.InvitationCode{}, err
	}

	code, err := s.codes.CreateCode(ctx, models.InvitationCode{
		Code:     token,
		Scope:    models.UniversalScope(),
		MaxUses:  maxUses,
		IsActive: true,
	})
	if err != nil {
		return models.InvitationCode{}, err
	}

	s.logger.Info().Str("code_id", code.ID).Int("max_uses", code.MaxUses).Msg("universal code created")
	return code, nil
}

// Deactivate revokes a code. Deactivated codes stay in the store for audit
// and are never redeemable again.
func (s *Service) Deactivate(ctx context.Context, codeID string) error {
	if err := s.codes.DeactivateCode(ctx, codeID); err != nil {
		return err
	}
	s.logger.Info().Str("code_id", codeID).Msg("invitation code deactivated")
	return nil
}

func maskToken(token string) string {
	if len(token) <= 10 {
		return token
	}
	return token[:10] + "..."
}
