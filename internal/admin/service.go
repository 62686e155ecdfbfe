// Package admin implements the administrator workflows: deciding access
// requests, managing member privileges, and the dashboard aggregates.
package admin

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

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
	notifications notification.Service
	logger        zerolog.Logger
}

func NewService(
	users repository.UserRepository,
	codeRepo repository.CodeRepository,
	requests repository.AccessRequestRepository,
	notifications notification.Service,
	logger zerolog.Logger,
) *Service {
	return &Service{
		users:         users,
		codes:         codeRepo,
		requests:      requests,
		notifications: notifications,
		logger:        logger.With().Str("component", "admin").Logger(),
	}
}

// ApprovalResult carries the provisioned account and the plaintext
// temporary credential. The credential is returned exactly once and is never
// stored or retrievable again.
type ApprovalResult struct {
	User         models.User `json:"user"`
	TempPassword string      `json:"temp_password"`
}

// ApproveRequest turns a pending access request into a member account. The
// pending check, account insert, and status transition share one
// transaction, so concurrent decisions on the same request resolve to
// exactly one winner. An email collision fails the call and leaves the
// request pending for the administrator to resolve.
func (s *Service) ApproveRequest(ctx context.Context, requestID string) (ApprovalResult, error) {
	request, err := s.requests.GetRequestByID(ctx, requestID)
	if err != nil {
		return ApprovalResult{}, err
	}
	if !request.IsPending() {
		return ApprovalResult{}, faults.ErrAlreadyProcessed
	}

	if _, err := s.users.GetUserByEmail(ctx, request.Email); err == nil {
		return ApprovalResult{}, faults.ErrEmailTaken
	} else if !errors.Is(err, faults.ErrNotFound) {
		return ApprovalResult{}, err
	}

	tempPassword, err := generateTempPassword()
	if err != nil {
		return ApprovalResult{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return ApprovalResult{}, errors.Wrap(err, "hash temporary password")
	}

	user, err := s.requests.ApproveWithUser(ctx, requestID, models.User{
		Email:           request.Email,
		PasswordHash:    string(hash),
		FirstName:       request.FirstName,
		LastName:        request.LastName,
		SchoolID:        request.SchoolID,
		EntryYear:       request.EntryYear,
		Role:            models.RoleMember,
		IsAmbassador:    request.WantsAmbassador,
		MaxCodesAllowed: models.MaxCodesFor(models.RoleMember, request.WantsAmbassador),
		IsActive:        true,
	})
	if err != nil {
		return ApprovalResult{}, err
	}

	metrics.RecordDecision("approved")
	s.logger.Info().
		Str("request_id", requestID).
		Str("user_id", user.ID).
		Bool("ambassador", user.IsAmbassador).
		Msg("access request approved")

	if err := s.notifications.NotifyRequestApproved(ctx, request, tempPassword); err != nil {
		s.logger.Warn().Err(err).Str("request_id", requestID).Msg("failed to notify approved requester")
	}

	return ApprovalResult{User: user, TempPassword: tempPassword}, nil
}

// RejectRequest marks a pending request rejected. No account side effects.
func (s *Service) RejectRequest(ctx context.Context, requestID string) error {
	request, err := s.requests.GetRequestByID(ctx, requestID)
	if err != nil {
		return err
	}
	if err := s.requests.RejectRequest(ctx, requestID); err != nil {
		return err
	}

	metrics.RecordDecision("rejected")
	s.logger.Info().Str("request_id", requestID).Msg("access request rejected")

	if err := s.notifications.NotifyRequestRejected(ctx, request); err != nil {
		s.logger.Warn().Err(err).Str("request_id", requestID).Msg("failed to notify rejected requester")
	}
	return nil
}

func (s *Service) ListRequests(ctx context.Context, filters repository.AccessRequestFilters) ([]models.AccessRequest, error) {
	return s.requests.ListRequests(ctx, filters)
}

func (s *Service) ListUsers(ctx context.Context, filters repository.UserFilters) ([]models.User, error) {
	return s.users.ListUsers(ctx, filters)
}

// SetAmbassador grants or revokes ambassador status. The cached issuance
// allowance is recomputed from the quota policy in the same update; no other
// code path may write max_codes_allowed alongside this flag.
func (s *Service) SetAmbassador(ctx context.Context, userID string, isAmbassador bool) (models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	maxCodes := models.MaxCodesFor(user.Role, isAmbassador)
	updated, err := s.users.SetAmbassador(ctx, userID, isAmbassador, maxCodes)
	if err != nil {
		return models.User{}, err
	}

	s.logger.Info().
		Str("user_id", userID).
		Bool("is_ambassador", isAmbassador).
		Int("max_codes_allowed", maxCodes).
		Msg("ambassador status updated")
	return updated, nil
}

// IncreaseCodeLimit is an explicit administrator override of the cached
// allowance; the next role or ambassador change recomputes it from policy.
func (s *Service) IncreaseCodeLimit(ctx context.Context, userID string, newLimit int) (models.User, error) {
	if newLimit <= 0 {
		return models.User{}, errors.New("new limit must be positive")
	}
	user, err := s.users.SetCodeLimit(ctx, userID, newLimit)
	if err != nil {
		return models.User{}, err
	}

	s.logger.Info().Str("user_id", userID).Int("max_codes_allowed", newLimit).Msg("code limit updated")
	return user, nil
}

// DeactivateUser disables an account. Accounts are never hard-deleted.
func (s *Service) DeactivateUser(ctx context.Context, userID string) error {
	if err := s.users.DeactivateUser(ctx, userID); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", userID).Msg("user deactivated")
	return nil
}

// Stats assembles the administrator dashboard aggregates.
func (s *Service) Stats(ctx context.Context) (models.AdminStats, error) {
	userStats, err := s.users.Stats(ctx)
	if err != nil {
		return models.AdminStats{}, err
	}
	codeStats, err := s.codes.Stats(ctx)
	if err != nil {
		return models.AdminStats{}, err
	}
	requestStats, err := s.requests.Stats(ctx)
	if err != nil {
		return models.AdminStats{}, err
	}
	return models.AdminStats{
		Users:          userStats,
		Codes:          codeStats,
		AccessRequests: requestStats,
	}, nil
}
