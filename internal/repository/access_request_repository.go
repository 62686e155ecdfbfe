package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/alumnet/alumnet-api/internal/faults"
	"github.com/alumnet/alumnet-api/internal/models"
)

type AccessRequestFilters struct {
	Status   *models.AccessRequestStatus
	SchoolID *string
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}

type AccessRequestRepository interface {
	CreateRequest(ctx context.Context, request models.AccessRequest) (models.AccessRequest, error)
	GetRequestByID(ctx context.Context, requestID string) (models.AccessRequest, error)
	ListRequests(ctx context.Context, filters AccessRequestFilters) ([]models.AccessRequest, error)

	// ApproveWithUser moves the request out of pending and creates the account
	// in one transaction. The transition is guarded on status = 'pending', so
	// of two concurrent decisions exactly one wins. An email collision rolls
	// the whole transaction back and leaves the request pending.
	ApproveWithUser(ctx context.Context, requestID string, user models.User) (models.User, error)

	RejectRequest(ctx context.Context, requestID string) error
	Stats(ctx context.Context) (models.AccessRequestStats, error)
}

type accessRequestRepository struct {
	db *sql.DB
}

func NewAccessRequestRepository(db *sql.DB) AccessRequestRepository {
	return &accessRequestRepository{db: db}
}

const requestColumns = `id, first_name, last_name, email, school_id, entry_year, message,
	wants_ambassador, status, created_at, processed_at`

func scanRequest(row interface{ Scan(...interface{}) error }) (models.AccessRequest, error) {
	var request models.AccessRequest
	err := row.Scan(
		&request.ID,
		&request.FirstName,
		&request.LastName,
		&request.Email,
		&request.SchoolID,
		&request.EntryYear,
		&request.Message,
		&request.WantsAmbassador,
		&request.Status,
		&request.CreatedAt,
		&request.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.AccessRequest{}, faults.ErrNotFound
		}
		return models.AccessRequest{}, errors.Wrap(err, "scan access request")
	}
	return request, nil
}

func (r *accessRequestRepository) CreateRequest(ctx context.Context, request models.AccessRequest) (models.AccessRequest, error) {
	query := `
		INSERT INTO access_requests (id, first_name, last_name, email, school_id, entry_year,
			message, wants_ambassador, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending')
		RETURNING ` + requestColumns

	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, query,
		request.ID,
		request.FirstName,
		request.LastName,
		models.NormalizeEmail(request.Email),
		request.SchoolID,
		request.EntryYear,
		request.Message,
		request.WantsAmbassador,
	)
	return scanRequest(row)
}

func (r *accessRequestRepository) GetRequestByID(ctx context.Context, requestID string) (models.AccessRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM access_requests WHERE id = $1`
	return scanRequest(r.db.QueryRowContext(ctx, query, requestID))
}

func (r *accessRequestRepository) ListRequests(ctx context.Context, filters AccessRequestFilters) ([]models.AccessRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM access_requests WHERE 1=1`
	var args []interface{}

	add := func(clause string, value interface{}) {
		args = append(args, value)
		query += fmt.Sprintf(" AND "+clause, len(args))
	}

	if filters.Status != nil {
		add("status = $%d", *filters.Status)
	}
	if filters.SchoolID != nil {
		add("school_id = $%d", *filters.SchoolID)
	}
	if filters.DateFrom != nil {
		add("created_at >= $%d", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		add("created_at <= $%d", *filters.DateTo)
	}

	limit := filters.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list access requests")
	}
	defer rows.Close()

	var requests []models.AccessRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

// decide performs the pending-guarded terminal transition inside tx. A zero
// row count is disambiguated into not-found versus already-processed.
func decide(ctx context.Context, tx *sql.Tx, requestID string, status models.AccessRequestStatus) error {
	const query = `
		UPDATE access_requests
		SET status = $2, processed_at = now()
		WHERE id = $1 AND status = 'pending'`

	result, err := tx.ExecContext(ctx, query, requestID, status)
	if err != nil {
		return errors.Wrap(err, "transition access request")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "transition access request: rows affected")
	}
	if affected == 1 {
		return nil
	}

	var current models.AccessRequestStatus
	err = tx.QueryRowContext(ctx, `SELECT status FROM access_requests WHERE id = $1`, requestID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return faults.ErrNotFound
	}
	if err != nil {
		return errors.Wrap(err, "load access request status")
	}
	return faults.ErrAlreadyProcessed
}

func (r *accessRequestRepository) ApproveWithUser(ctx context.Context, requestID string, user models.User) (models.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.User{}, errors.Wrap(err, "begin approval transaction")
	}
	defer tx.Rollback()

	if err := decide(ctx, tx, requestID, models.AccessRequestApproved); err != nil {
		return models.User{}, err
	}

	createQuery := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, school_id, entry_year,
			role, is_ambassador, max_codes_allowed, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + userColumns

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	row := tx.QueryRowContext(ctx, createQuery,
		user.ID,
		models.NormalizeEmail(user.Email),
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.SchoolID,
		user.EntryYear,
		user.Role,
		user.IsAmbassador,
		user.MaxCodesAllowed,
		user.IsActive,
	)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(errors.Cause(err)) {
			return models.User{}, faults.ErrEmailTaken
		}
		return models.User{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.User{}, errors.Wrap(err, "commit approval")
	}
	return created, nil
}

func (r *accessRequestRepository) RejectRequest(ctx context.Context, requestID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin rejection transaction")
	}
	defer tx.Rollback()

	if err := decide(ctx, tx, requestID, models.AccessRequestRejected); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit rejection")
}

func (r *accessRequestRepository) Stats(ctx context.Context) (models.AccessRequestStats, error) {
	const query = `
		SELECT COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COUNT(*) FILTER (WHERE status = 'rejected')
		FROM access_requests`

	var stats models.AccessRequestStats
	err := r.db.QueryRowContext(ctx, query).Scan(&stats.Pending, &stats.Approved, &stats.Rejected)
	if err != nil {
		return models.AccessRequestStats{}, errors.Wrap(err, "access request stats")
	}
	return stats, nil
}
