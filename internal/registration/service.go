// Package registration provisions member accounts from redeemed invitation
// codes and handles the pre-membership flows (cohort lookup, access request
// submission, peer code requests).
package registration

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/alumnet/alumnet-api/internal/codes"
	"github.com/alumnet/alumnet-api/internal/faults"
	"github.com/alumnet/alumnet-api/internal/metrics"
	"github.com/alumnet/alumnet-api/internal/models"
	"github.com/alumnet/alumnet-api/internal/notification"
	"github.com/alumnet/alumnet-api/internal/repository"
)

type Service struct {
	users         repository.UserRepository
	codes         repository.CodeRepository
	requests      repository.AccessRequestRepository
	schools       repository.SchoolRepository
	notifications notification.Service
	logger        zerolog.Logger
	now           func() time.Time
}

func NewService(
	users repository.UserRepository,
	codeRepo repository.CodeRepository,
	requests repository.AccessRequestRepository,
	schools repository.SchoolRepository,
	notifications notification.Service,
	logger zerolog.Logger,
) *Service {
	return &Service{
		users:         users,
		codes:         codeRepo,
		requests:      requests,
		schools:       schools,
		notifications: notifications,
		logger:        logger.With().Str("component", "registration").Logger(),
		now:           time.Now,
	}
}

// CheckCohort reports whether a school/entry-year community already exists
// and who its ambassador is, so the signup flow can route newcomers.
func (s *Service) CheckCohort(ctx context.Context, schoolID, entryYear string) (models.CohortSummary, error) {
	if err := models.ValidateEntryYear(entryYear); err != nil {
		return models.CohortSummary{}, err
	}
	if _, err := s.schools.GetSchoolByID(ctx, schoolID); err != nil {
		return models.CohortSummary{}, err
	}
	return s.users.CohortSummary(ctx, schoolID, entryYear)
}

type SubmitAccessRequestParams struct {
	SchoolID        string `json:"school_id"`
	EntryYear       string `json:"entry_year"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Message         string `json:"message"`
	WantsAmbassador bool   `json:"wants_ambassador"`
}

func (p SubmitAccessRequestParams) validate() error {
	if err := models.ValidateEntryYear(p.EntryYear); err != nil {
		return err
	}
	if err := models.ValidateName("first_name", p.FirstName); err != nil {
		return err
	}
	if err := models.ValidateName("last_name", p.LastName); err != nil {
		return err
	}
	if err := models.ValidateEmail(p.Email); err != nil {
		return err
	}
	return models.ValidateMessage(p.Message)
}

// SubmitAccessRequest records a prospective member's application and
// notifies the administrators.
func (s *Service) SubmitAccessRequest(ctx context.Context, params SubmitAccessRequestParams) (models.AccessRequest, error) {
	if err := params.validate(); err != nil {
		return models.AccessRequest{}, err
	}
	if _, err := s.schools.GetSchoolByID(ctx, params.SchoolID); err != nil {
		return models.AccessRequest{}, err
	}

	request, err := s.requests.CreateRequest(ctx, models.AccessRequest{
		FirstName:       params.FirstName,
		LastName:        params.LastName,
		Email:           params.Email,
		SchoolID:        params.SchoolID,
		EntryYear:       params.EntryYear,
		Message:         params.Message,
		WantsAmbassador: params.WantsAmbassador,
	})
	if err != nil {
		return models.AccessRequest{}, err
	}

	if err := s.notifications.NotifyAccessRequested(ctx, request); err != nil {
		s.logger.Warn().Err(err).Str("request_id", request.ID).Msg("failed to notify admins of access request")
	}

	s.logger.Info().Str("request_id", request.ID).Str("school_id", request.SchoolID).Msg("access request submitted")
	return request, nil
}

type CompleteRegistrationParams struct {
	CodeToken string `json:"invitation_code"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`

	// Cohort the registrant is joining; consulted only when the code is
	// universal, since a scoped code pins the cohort itself.
	SchoolID  string `json:"school_id,omitempty"`
	EntryYear string `json:"entry_year,omitempty"`
}

func (p CompleteRegistrationParams) validate() error {
	if err := models.ValidateCodeToken(p.CodeToken); err != nil {
		return err
	}
	if err := models.ValidateName("first_name", p.FirstName); err != nil {
		return err
	}
	if err := models.ValidateName("last_name", p.LastName); err != nil {
		return err
	}
	if err := models.ValidateEmail(p.Email); err != nil {
		return err
	}
	return models.ValidatePassword(p.Password)
}

// CompleteRegistration redeems a code and provisions the account as one unit
// of work. Account creation and the use-counter increment commit together or
// not at all; a failed email check leaves the code untouched.
func (s *Service) CompleteRegistration(ctx context.Context, params CompleteRegistrationParams) (models.User, error) {
	if err := params.validate(); err != nil {
		return models.User{}, err
	}

	if _, err := s.users.GetUserByEmail(ctx, params.Email); err == nil {
		metrics.RecordRedemption("email_taken")
		return models.User{}, faults.ErrEmailTaken
	} else if !errors.Is(err, faults.ErrNotFound) {
		return models.User{}, err
	}

	code, err := s.codes.GetCodeByToken(ctx, params.CodeToken)
	found := true
	if err != nil {
		if !errors.Is(err, faults.ErrNotFound) {
			return models.User{}, err
		}
		found = false
	}

	// Evaluated with the code's own scope: only existence, expiry and
	// remaining uses can reject here.
	outcome := codes.Verify(code, found, code.Scope, s.now())
	if !outcome.Accepted {
		metrics.RecordRedemption("rejected")
		s.logger.Warn().
			Str("reason", string(outcome.Reason)).
			Str("email", models.NormalizeEmail(params.Email)).
			Msg("registration rejected by code check")
		return models.User{}, outcome.Err()
	}

	schoolID, entryYear := code.Scope.SchoolID, code.Scope.EntryYear
	if code.Scope.Universal {
		// A universal code still assigns a concrete cohort to the account.
		if err := models.ValidateEntryYear(params.EntryYear); err != nil {
			return models.User{}, err
		}
		if _, err := s.schools.GetSchoolByID(ctx, params.SchoolID); err != nil {
			return models.User{}, err
		}
		schoolID, entryYear = params.SchoolID, params.EntryYear
		s.logger.Info().
			Str("code_id", code.ID).
			Str("school_id", schoolID).
			Str("entry_year", entryYear).
			Msg("universal code redeemed")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, errors.Wrap(err, "hash password")
	}

	user, err := s.codes.RedeemForUser(ctx, code.ID, models.User{
		Email:           params.Email,
		PasswordHash:    string(hash),
		FirstName:       params.FirstName,
		LastName:        params.LastName,
		SchoolID:        schoolID,
		EntryYear:       entryYear,
		Role:            models.RoleMember,
		IsAmbassador:    false,
		MaxCodesAllowed: models.MaxCodesFor(models.RoleMember, false),
		IsActive:        true,
	})
	if err != nil {
		switch {
		case errors.Is(err, faults.ErrEmailTaken):
			metrics.RecordRedemption("email_taken")
		case errors.Is(err, faults.ErrQuotaExhausted):
			metrics.RecordRedemption("rejected")
		default:
			metrics.RecordRedemption("error")
		}
		return models.User{}, err
	}

	metrics.RecordRedemption("success")
	s.logger.Info().
		Str("user_id", user.ID).
		Str("code_id", code.ID).
		Msg("registration completed")
	return user, nil
}

type PeerCodeRequestParams struct {
	SchoolID  string `json:"school_id"`
	EntryYear string `json:"entry_year"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Message   string `json:"message"`
}

// RequestCodeFromPeer routes a code request to the cohort's ambassador, or
// failing that its longest-standing active member, and returns the
// recipient's display name.
func (s *Service) RequestCodeFromPeer(ctx context.Context, params PeerCodeRequestParams) (string, error) {
	if err := models.ValidateEntryYear(params.EntryYear); err != nil {
		return "", err
	}
	if err := models.ValidateName("first_name", params.FirstName); err != nil {
		return "", err
	}
	if err := models.ValidateName("last_name", params.LastName); err != nil {
		return "", err
	}
	if err := models.ValidateMessage(params.Message); err != nil {
		return "", err
	}

	recipient, err := s.users.FindCodeRecipient(ctx, params.SchoolID, params.EntryYear)
	if err != nil {
		return "", err
	}

	if err := s.notifications.NotifyCodeRequested(ctx, recipient, notification.CodeRequest{
		FirstName: params.FirstName,
		LastName:  params.LastName,
		SchoolID:  params.SchoolID,
		EntryYear: params.EntryYear,
		Message:   params.Message,
	}); err != nil {
		s.logger.Warn().Err(err).Str("recipient_id", recipient.ID).Msg("failed to notify code recipient")
	}

	return recipient.FirstName + " " + recipient.LastName, nil
}
