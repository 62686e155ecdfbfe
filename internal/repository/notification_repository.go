package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/alumnet/alumnet-api/internal/faults"
	"github.com/alumnet/alumnet-api/internal/models"
)

type NotificationRepository interface {
	Create(ctx context.Context, params CreateNotificationParams) (models.Notification, error)
	ListRecent(ctx context.Context, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID string) (models.Notification, error)
}

type notificationRepository struct {
	db *sql.DB
}

type CreateNotificationParams struct {
	Event    models.NotificationEvent
	Severity models.NotificationSeverity
	Title    string
	Message  string
	Metadata map[string]interface{}
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, params CreateNotificationParams) (models.Notification, error) {
	const query = `
		INSERT INTO notifications (id, event_type, severity, title, message, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, event_type, severity, title, message, metadata, created_at, read_at
	`

	var metadata interface{}
	if len(params.Metadata) > 0 {
		bytes, err := json.Marshal(params.Metadata)
		if err != nil {
			return models.Notification{}, errors.Wrap(err, "marshal metadata")
		}
		metadata = bytes
	}

	row := r.db.QueryRowContext(ctx, query, uuid.NewString(), params.Event, params.Severity,
		strings.TrimSpace(params.Title), strings.TrimSpace(params.Message), metadata)
	return scanNotification(row)
}

func (r *notificationRepository) ListRecent(ctx context.Context, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	const query = `
		SELECT id, event_type, severity, title, message, metadata, created_at, read_at
		FROM notifications
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list notifications")
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		notif, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, notif)
	}
	return notifications, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, notificationID string) (models.Notification, error) {
	const query = `
		UPDATE notifications
		SET read_at = now()
		WHERE id = $1
		RETURNING id, event_type, severity, title, message, metadata, created_at, read_at
	`
	return scanNotification(r.db.QueryRowContext(ctx, query, notificationID))
}

func scanNotification(row interface{ Scan(...interface{}) error }) (models.Notification, error) {
	var (
		notif    models.Notification
		metadata []byte
	)
	err := row.Scan(
		&notif.ID,
		&notif.EventType,
		&notif.Severity,
		&notif.Title,
		&notif.Message,
		&metadata,
		&notif.CreatedAt,
		&notif.ReadAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Notification{}, faults.ErrNotFound
		}
		return models.Notification{}, errors.Wrap(err, "scan notification")
	}
	if len(metadata) > 0 {
		notif.Metadata = json.RawMessage(metadata)
	}
	return notif, nil
}
