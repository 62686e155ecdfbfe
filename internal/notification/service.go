package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/alumnet/alumnet-api/internal/models"
	"github.com/alumnet/alumnet-api/internal/repository"
)

type Event struct {
	Event    models.NotificationEvent
	Severity models.NotificationSeverity
	Title    string
	Message  string
	Metadata map[string]interface{}
}

// CodeRequest carries the details of a prospective member asking a peer for
// an invitation code.
type CodeRequest struct {
	FirstName string
	LastName  string
	SchoolID  string
	EntryYear string
	Message   string
}

// Service persists notifications for the admin feed and fans them out to the
// configured channels. Delivery failure never propagates: decisions must
// stand whether or not mail goes through.
type Service interface {
	Publish(ctx context.Context, evt Event) (models.Notification, error)
	NotifyAccessRequested(ctx context.Context, request models.AccessRequest) error
	NotifyRequestApproved(ctx context.Context, request models.AccessRequest, tempPassword string) error
	NotifyRequestRejected(ctx context.Context, request models.AccessRequest) error
	NotifyCodeRequested(ctx context.Context, recipient models.User, req CodeRequest) error
	ListRecent(ctx context.Context, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID string) (models.Notification, error)
}

type service struct {
	repo      repository.NotificationRepository
	mailer    Mailer
	logger    zerolog.Logger
	notifiers []Notifier
}

func NewService(repo repository.NotificationRepository, mailer Mailer, logger zerolog.Logger, notifiers ...Notifier) Service {
	// A nil *SMTPMailer boxed into the interface would slip past the
	// mailer == nil guards and panic on first Send.
	if smtpMailer, ok := mailer.(*SMTPMailer); ok && smtpMailer == nil {
		mailer = nil
	}
	active := make([]Notifier, 0, len(notifiers))
	for _, notifier := range notifiers {
		if notifier != nil {
			active = append(active, notifier)
		}
	}
	return &service{
		repo:      repo,
		mailer:    mailer,
		logger:    logger.With().Str("component", "notification_service").Logger(),
		notifiers: active,
	}
}

func (s *service) Publish(ctx context.Context, evt Event) (models.Notification, error) {
	if evt.Event == "" {
		return models.Notification{}, fmt.Errorf("event type is required")
	}
	if evt.Severity == "" {
		evt.Severity = models.NotificationSeverityInfo
	}
	title := strings.TrimSpace(evt.Title)
	if title == "" {
		title = string(evt.Event)
	}

	notif, err := s.repo.Create(ctx, repository.CreateNotificationParams{
		Event:    evt.Event,
		Severity: evt.Severity,
		Title:    title,
		Message:  strings.TrimSpace(evt.Message),
		Metadata: evt.Metadata,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", string(evt.Event)).Msg("failed to persist notification")
		return models.Notification{}, err
	}
	for _, notifier := range s.notifiers {
		if err := notifier.Notify(ctx, notif); err != nil {
			logNotifyError(s.logger, err, notifierChannelName(notifier), notif)
		}
	}
	return notif, nil
}

func (s *service) NotifyAccessRequested(ctx context.Context, request models.AccessRequest) error {
	_, err := s.Publish(ctx, Event{
		Event:    models.NotificationEventAccessRequested,
		Severity: models.NotificationSeverityInfo,
		Title:    fmt.Sprintf("Access request from %s %s", request.FirstName, request.LastName),
		Message:  fmt.Sprintf("%s %s requested access for entry year %s.", request.FirstName, request.LastName, request.EntryYear),
		Metadata: map[string]interface{}{
			"request_id":       request.ID,
			"school_id":        request.SchoolID,
			"entry_year":       request.EntryYear,
			"wants_ambassador": request.WantsAmbassador,
		},
	})
	return err
}

func (s *service) NotifyRequestApproved(ctx context.Context, request models.AccessRequest, tempPassword string) error {
	// The plaintext credential goes only into the requester's mail, never
	// into the persisted notification.
	_, err := s.Publish(ctx, Event{
		Event:    models.NotificationEventRequestApproved,
		Severity: models.NotificationSeverityInfo,
		Title:    fmt.Sprintf("Access request approved: %s %s", request.FirstName, request.LastName),
		Message:  fmt.Sprintf("Request %s was approved and an account was created.", request.ID),
		Metadata: map[string]interface{}{"request_id": request.ID},
	})
	if err != nil {
		return err
	}

	if s.mailer == nil {
		return nil
	}
	body := strings.Builder{}
	body.WriteString(fmt.Sprintf("Hello %s,\n\n", request.FirstName))
	body.WriteString("Your access request has been approved. You can now sign in with this temporary password:\n\n")
	body.WriteString(tempPassword + "\n\n")
	body.WriteString("Please change it after your first login.\n")
	if err := s.mailer.Send(request.Email, "Your access request was approved", body.String()); err != nil {
		s.logger.Warn().Err(err).Str("request_id", request.ID).Msg("failed to send approval email")
	}
	return nil
}

func (s *service) NotifyRequestRejected(ctx context.Context, request models.AccessRequest) error {
	_, err := s.Publish(ctx, Event{
		Event:    models.NotificationEventRequestRejected,
		Severity: models.NotificationSeverityInfo,
		Title:    fmt.Sprintf("Access request rejected: %s %s", request.FirstName, request.LastName),
		Message:  fmt.Sprintf("Request %s was rejected.", request.ID),
		Metadata: map[string]interface{}{"request_id": request.ID},
	})
	if err != nil {
		return err
	}

	if s.mailer == nil {
		return nil
	}
	body := fmt.Sprintf("Hello %s,\n\nYour access request could not be approved. You can contact the team for details.\n", request.FirstName)
	if err := s.mailer.Send(request.Email, "About your access request", body); err != nil {
		s.logger.Warn().Err(err).Str("request_id", request.ID).Msg("failed to send rejection email")
	}
	return nil
}

func (s *service) NotifyCodeRequested(ctx context.Context, recipient models.User, req CodeRequest) error {
	_, err := s.Publish(ctx, Event{
		Event:    models.NotificationEventCodeRequested,
		Severity: models.NotificationSeverityInfo,
		Title:    fmt.Sprintf("Code request for %s %s", req.FirstName, req.LastName),
		Message:  fmt.Sprintf("%s %s asked %s %s for an invitation code.", req.FirstName, req.LastName, recipient.FirstName, recipient.LastName),
		Metadata: map[string]interface{}{
			"recipient_id": recipient.ID,
			"school_id":    req.SchoolID,
			"entry_year":   req.EntryYear,
		},
	})
	if err != nil {
		return err
	}

	if s.mailer == nil {
		return nil
	}
	body := strings.Builder{}
	body.WriteString(fmt.Sprintf("Hello %s,\n\n", recipient.FirstName))
	body.WriteString(fmt.Sprintf("%s %s from your promotion (%s) is asking for an invitation code:\n\n", req.FirstName, req.LastName, req.EntryYear))
	body.WriteString(req.Message + "\n\n")
	body.WriteString("You can generate a code from your member area and share it with them.\n")
	if err := s.mailer.Send(recipient.Email, "Someone is asking you for an invitation code", body.String()); err != nil {
		s.logger.Warn().Err(err).Str("recipient_id", recipient.ID).Msg("failed to send code request email")
	}
	return nil
}

func (s *service) ListRecent(ctx context.Context, limit int) ([]models.Notification, error) {
	return s.repo.ListRecent(ctx, limit)
}

func (s *service) MarkRead(ctx context.Context, notificationID string) (models.Notification, error) {
	return s.repo.MarkRead(ctx, notificationID)
}
