package notification

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/alumnet/alumnet-api/internal/faults"
	"github.com/alumnet/alumnet-api/internal/models"
	"github.com/alumnet/alumnet-api/internal/repository"
)

type memNotificationRepo struct {
	created []models.Notification
}

func (m *memNotificationRepo) Create(_ context.Context, params repository.CreateNotificationParams) (models.Notification, error) {
	notif := models.Notification{
		ID:        "notif-" + time.Now().Format("150405.000000000"),
		EventType: params.Event,
		Severity:  params.Severity,
		Title:     params.Title,
		Message:   params.Message,
		CreatedAt: time.Now(),
	}
	m.created = append(m.created, notif)
	return notif, nil
}

func (m *memNotificationRepo) ListRecent(context.Context, int) ([]models.Notification, error) {
	return m.created, nil
}

func (m *memNotificationRepo) MarkRead(_ context.Context, notificationID string) (models.Notification, error) {
	for i, notif := range m.created {
		if notif.ID == notificationID {
			now := time.Now()
			notif.ReadAt = &now
			m.created[i] = notif
			return notif, nil
		}
	}
	return models.Notification{}, faults.ErrNotFound
}

type sentMail struct {
	recipient string
	subject   string
	body      string
}

type memMailer struct {
	sent []sentMail
}

func (m *memMailer) Send(recipient, subject, body string) error {
	m.sent = append(m.sent, sentMail{recipient: recipient, subject: subject, body: body})
	return nil
}

func sampleRequest() models.AccessRequest {
	return models.AccessRequest{
		ID:        "req-1",
		FirstName: "Alice",
		LastName:  "Martin",
		Email:     "alice@example.com",
		SchoolID:  "school-1",
		EntryYear: "2015",
		Status:    models.AccessRequestPending,
	}
}

func TestNotifyRequestApprovedMailsCredential(t *testing.T) {
	repo := &memNotificationRepo{}
	mailer := &memMailer{}
	service := NewService(repo, mailer, zerolog.Nop())

	if err := service.NotifyRequestApproved(context.Background(), sampleRequest(), "Temp1234xyzA!"); err != nil {
		t.Fatalf("NotifyRequestApproved: %v", err)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("sent mails = %d, want 1", len(mailer.sent))
	}
	mail := mailer.sent[0]
	if mail.recipient != "alice@example.com" {
		t.Errorf("recipient = %q", mail.recipient)
	}
	if !strings.Contains(mail.body, "Temp1234xyzA!") {
		t.Error("approval mail should carry the temporary password")
	}

	// The persisted notification must never carry the credential.
	if len(repo.created) != 1 {
		t.Fatalf("persisted notifications = %d, want 1", len(repo.created))
	}
	notif := repo.created[0]
	if notif.EventType != models.NotificationEventRequestApproved {
		t.Errorf("event = %s", notif.EventType)
	}
	if strings.Contains(notif.Message, "Temp1234xyzA!") || strings.Contains(notif.Title, "Temp1234xyzA!") {
		t.Error("persisted notification must not contain the temporary password")
	}
}

func TestNotifyRequestApprovedWithoutMailer(t *testing.T) {
	repo := &memNotificationRepo{}
	service := NewService(repo, nil, zerolog.Nop())

	// The decision stands even when no mail can go out.
	if err := service.NotifyRequestApproved(context.Background(), sampleRequest(), "Temp1234xyzA!"); err != nil {
		t.Fatalf("NotifyRequestApproved without mailer: %v", err)
	}
	if len(repo.created) != 1 {
		t.Errorf("persisted notifications = %d, want 1", len(repo.created))
	}
}

func TestNotifyWithNilConcreteMailer(t *testing.T) {
	// A nil *SMTPMailer assigned to the Mailer interface is not a nil
	// interface; the service must still treat it as "no mailer" instead of
	// calling Send on a nil receiver.
	repo := &memNotificationRepo{}
	service := NewService(repo, (*SMTPMailer)(nil), zerolog.Nop())

	if err := service.NotifyRequestApproved(context.Background(), sampleRequest(), "Temp1234xyzA!"); err != nil {
		t.Fatalf("NotifyRequestApproved with nil concrete mailer: %v", err)
	}
	if err := service.NotifyRequestRejected(context.Background(), sampleRequest()); err != nil {
		t.Fatalf("NotifyRequestRejected with nil concrete mailer: %v", err)
	}
	recipient := models.User{ID: "bob", FirstName: "Bob", Email: "bob@example.com"}
	if err := service.NotifyCodeRequested(context.Background(), recipient, CodeRequest{FirstName: "Eve", LastName: "Durand", EntryYear: "2015"}); err != nil {
		t.Fatalf("NotifyCodeRequested with nil concrete mailer: %v", err)
	}
	if len(repo.created) != 3 {
		t.Errorf("persisted notifications = %d, want 3", len(repo.created))
	}
}

func TestNotifyCodeRequested(t *testing.T) {
	repo := &memNotificationRepo{}
	mailer := &memMailer{}
	service := NewService(repo, mailer, zerolog.Nop())

	recipient := models.User{
		ID:        "amb",
		Email:     "bea@example.com",
		FirstName: "Bea",
		LastName:  "Durand",
	}
	err := service.NotifyCodeRequested(context.Background(), recipient, CodeRequest{
		FirstName: "Alice",
		LastName:  "Martin",
		SchoolID:  "school-1",
		EntryYear: "2015",
		Message:   "Could you send me an invitation code?",
	})
	if err != nil {
		t.Fatalf("NotifyCodeRequested: %v", err)
	}

	if len(mailer.sent) != 1 || mailer.sent[0].recipient != "bea@example.com" {
		t.Fatalf("mail should go to the chosen recipient, got %+v", mailer.sent)
	}
	if !strings.Contains(mailer.sent[0].body, "Could you send me an invitation code?") {
		t.Error("mail should carry the requester's message")
	}
}

func TestPublishDefaults(t *testing.T) {
	repo := &memNotificationRepo{}
	service := NewService(repo, nil, zerolog.Nop())

	notif, err := service.Publish(context.Background(), Event{
		Event:   models.NotificationEventAccessRequested,
		Message: "something happened",
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if notif.Severity != models.NotificationSeverityInfo {
		t.Errorf("severity = %s, want default info", notif.Severity)
	}
	if notif.Title == "" {
		t.Error("title should default to the event type")
	}

	if _, err := service.Publish(context.Background(), Event{}); err == nil {
		t.Error("publishing without an event type should fail")
	}
}

func TestMarkRead(t *testing.T) {
	repo := &memNotificationRepo{}
	service := NewService(repo, nil, zerolog.Nop())

	notif, err := service.Publish(context.Background(), Event{Event: models.NotificationEventAccessRequested})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	read, err := service.MarkRead(context.Background(), notif.ID)
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if read.ReadAt == nil {
		t.Error("ReadAt should be set after marking read")
	}
}
