package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/alumnet/alumnet-api/internal/faults"
	"github.com/alumnet/alumnet-api/internal/models"
)

type UserFilters struct {
	Role         *models.UserRole
	SchoolID     *string
	IsActive     *bool
	IsAmbassador *bool
	Search       string
	Limit        int
	Offset       int
}

type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByID(ctx context.Context, userID string) (models.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (models.User, error)
	ListUsers(ctx context.Context, filters UserFilters) ([]models.User, error)
	CohortSummary(ctx context.Context, schoolID, entryYear string) (models.CohortSummary, error)
	FindCodeRecipient(ctx context.Context, schoolID, entryYear string) (models.User, error)
	SetAmbassador(ctx context.Context, userID string, isAmbassador bool, maxCodes int) (models.User, error)
	SetCodeLimit(ctx context.Context, userID string, limit int) (models.User, error)
	DeactivateUser(ctx context.Context, userID string) error
	Stats(ctx context.Context) (models.UserStats, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, school_id, entry_year,
	role, is_ambassador, max_codes_allowed, is_active, created_at, updated_at, deactivated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.SchoolID,
		&user.EntryYear,
		&user.Role,
		&user.IsAmbassador,
		&user.MaxCodesAllowed,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DeactivatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, faults.ErrNotFound
		}
		return models.User{}, errors.Wrap(err, "scan user")
	}
	return user, nil
}

// isUniqueViolation reports whether err is a postgres unique-constraint error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (u *userRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, school_id, entry_year,
			role, is_ambassador, max_codes_allowed, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + userColumns

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	row := u.db.QueryRowContext(ctx, query,
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
	return created, nil
}

func (u *userRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = $1`
	return scanUser(u.db.QueryRowContext(ctx, query, models.NormalizeEmail(email)))
}

func (u *userRepository) GetUserByID(ctx context.Context, userID string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(u.db.QueryRowContext(ctx, query, userID))
}

func (u *userRepository) AuthenticateUser(ctx context.Context, email, password string) (models.User, error) {
	user, err := u.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, faults.ErrNotFound) {
			return models.User{}, errors.New("invalid credentials")
		}
		return models.User{}, err
	}
	if !user.IsActive {
		return models.User{}, errors.New("user is inactive")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, errors.New("invalid credentials")
	}
	return user, nil
}

func (u *userRepository) ListUsers(ctx context.Context, filters UserFilters) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	var args []interface{}

	add := func(clause string, value interface{}) {
		args = append(args, value)
		query += fmt.Sprintf(" AND "+clause, len(args))
	}

	if filters.Role != nil {
		add("role = $%d", *filters.Role)
	}
	if filters.SchoolID != nil {
		add("school_id = $%d", *filters.SchoolID)
	}
	if filters.IsActive != nil {
		add("is_active = $%d", *filters.IsActive)
	}
	if filters.IsAmbassador != nil {
		add("is_ambassador = $%d", *filters.IsAmbassador)
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		args = append(args, "%"+search+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", n, n, n)
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

	rows, err := u.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (u *userRepository) CohortSummary(ctx context.Context, schoolID, entryYear string) (models.CohortSummary, error) {
	var summary models.CohortSummary

	const countQuery = `
		SELECT COUNT(*) FROM users
		WHERE school_id = $1 AND entry_year = $2 AND is_active`
	if err := u.db.QueryRowContext(ctx, countQuery, schoolID, entryYear).Scan(&summary.MemberCount); err != nil {
		return models.CohortSummary{}, errors.Wrap(err, "count cohort members")
	}
	summary.Exists = summary.MemberCount > 0
	if !summary.Exists {
		return summary, nil
	}

	const ambassadorQuery = `
		SELECT id, first_name, last_name FROM users
		WHERE school_id = $1 AND entry_year = $2 AND is_ambassador AND is_active
		ORDER BY created_at ASC
		LIMIT 1`
	var info models.AmbassadorInfo
	err := u.db.QueryRowContext(ctx, ambassadorQuery, schoolID, entryYear).Scan(&info.ID, &info.FirstName, &info.LastName)
	switch {
	case err == nil:
		summary.HasAmbassador = true
		summary.Ambassador = &info
	case errors.Is(err, sql.ErrNoRows):
		// cohort exists without an ambassador
	default:
		return models.CohortSummary{}, errors.Wrap(err, "find cohort ambassador")
	}
	return summary, nil
}

func (u *userRepository) FindCodeRecipient(ctx context.Context, schoolID, entryYear string) (models.User, error) {
	// Prefer the cohort's ambassador, fall back to its longest-standing member.
	query := `
		SELECT ` + userColumns + ` FROM users
		WHERE school_id = $1 AND entry_year = $2 AND is_active
		ORDER BY is_ambassador DESC, created_at ASC
		LIMIT 1`
	return scanUser(u.db.QueryRowContext(ctx, query, schoolID, entryYear))
}

func (u *userRepository) SetAmbassador(ctx context.Context, userID string, isAmbassador bool, maxCodes int) (models.User, error) {
	query := `
		UPDATE users
		SET is_ambassador = $2, max_codes_allowed = $3, updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(u.db.QueryRowContext(ctx, query, userID, isAmbassador, maxCodes))
}

func (u *userRepository) SetCodeLimit(ctx context.Context, userID string, limit int) (models.User, error) {
	query := `
		UPDATE users
		SET max_codes_allowed = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(u.db.QueryRowContext(ctx, query, userID, limit))
}

func (u *userRepository) DeactivateUser(ctx context.Context, userID string) error {
	const query = `
		UPDATE users
		SET is_active = FALSE, deactivated_at = now(), updated_at = now()
		WHERE id = $1 AND is_active`

	result, err := u.db.ExecContext(ctx, query, userID)
	if err != nil {
		return errors.Wrap(err, "deactivate user")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deactivate user: rows affected")
	}
	if rows == 0 {
		return faults.ErrNotFound
	}
	return nil
}

func (u *userRepository) Stats(ctx context.Context) (models.UserStats, error) {
	const query = `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE role = 'member'),
			COUNT(*) FILTER (WHERE role = 'moderator'),
			COUNT(*) FILTER (WHERE role = 'admin'),
			COUNT(*) FILTER (WHERE is_active),
			COUNT(*) FILTER (WHERE NOT is_active)
		FROM users`

	var stats models.UserStats
	err := u.db.QueryRowContext(ctx, query).Scan(
		&stats.Total,
		&stats.Members,
		&stats.Moderators,
		&stats.Admins,
		&stats.Active,
		&stats.Inactive,
	)
	if err != nil {
		return models.UserStats{}, errors.Wrap(err, "user stats")
	}
	return stats, nil
}
