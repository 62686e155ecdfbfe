package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/alumnet/alumnet-api/internal/faults"
	"github.com/alumnet/alumnet-api/internal/models"
)

type CodeRepository interface {
	CreateCode(ctx context.Context, code models.InvitationCode) (models.InvitationCode, error)

	// CreateCodeForIssuer inserts the code only while the issuer has fewer
	// than maxCodes codes on record, as a single transaction. The returned
	// int is the issuer's total after the insert. At or past the limit it
	// fails with ErrQuotaExceeded and inserts nothing.
	CreateCodeForIssuer(ctx context.Context, code models.InvitationCode, maxCodes int) (models.InvitationCode, int, error)

	GetCodeByToken(ctx context.Context, token string) (models.InvitationCode, error)
	ListCodesByIssuer(ctx context.Context, userID string) ([]models.InvitationCode, error)
	DeactivateCode(ctx context.Context, codeID string) error

	// RedeemForUser creates the account and consumes one use of the code as a
	// single transaction. The increment is conditional on current_uses still
	// being below max_uses, so concurrent redeemers past the quota fail with
	// ErrQuotaExhausted and leave no account behind.
	RedeemForUser(ctx context.Context, codeID string, user models.User) (models.User, error)

	Stats(ctx context.Context) (models.CodeStats, error)
}

type codeRepository struct {
	db *sql.DB
}

func NewCodeRepository(db *sql.DB) CodeRepository {
	return &codeRepository{db: db}
}

const codeColumns = `id, code, is_universal, school_id, entry_year, created_by_user_id,
	max_uses, current_uses, expires_at, is_active, created_at`

func scanCode(row interface{ Scan(...interface{}) error }) (models.InvitationCode, error) {
	var (
		code      models.InvitationCode
		schoolID  sql.NullString
		entryYear sql.NullString
	)
	err := row.Scan(
		&code.ID,
		&code.Code,
		&code.Scope.Universal,
		&schoolID,
		&entryYear,
		&code.CreatedByID,
		&code.MaxUses,
		&code.CurrentUses,
		&code.ExpiresAt,
		&code.IsActive,
		&code.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.InvitationCode{}, faults.ErrNotFound
		}
		return models.InvitationCode{}, errors.Wrap(err, "scan invitation code")
	}
	code.Scope.SchoolID = schoolID.String
	code.Scope.EntryYear = entryYear.String
	return code, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func insertCode(ctx context.Context, q rowQuerier, code models.InvitationCode) (models.InvitationCode, error) {
	query := `
		INSERT INTO invitation_codes (id, code, is_universal, school_id, entry_year,
			created_by_user_id, max_uses, current_uses, expires_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + codeColumns

	if code.ID == "" {
		code.ID = uuid.NewString()
	}
	row := q.QueryRowContext(ctx, query,
		code.ID,
		code.Code,
		code.Scope.Universal,
		nullable(code.Scope.SchoolID),
		nullable(code.Scope.EntryYear),
		code.CreatedByID,
		code.MaxUses,
		code.CurrentUses,
		code.ExpiresAt,
		code.IsActive,
	)
	return scanCode(row)
}

func (r *codeRepository) CreateCode(ctx context.Context, code models.InvitationCode) (models.InvitationCode, error) {
	return insertCode(ctx, r.db, code)
}

func (r *codeRepository) CreateCodeForIssuer(ctx context.Context, code models.InvitationCode, maxCodes int) (models.InvitationCode, int, error) {
	if code.CreatedByID == nil {
		return models.InvitationCode{}, 0, errors.New("issuer-bound code requires an issuer")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.InvitationCode{}, 0, errors.Wrap(err, "begin issuance transaction")
	}
	defer tx.Rollback()

	// The issuer row is locked for the duration of the transaction; the
	// count alone cannot serialize two concurrent inserts, so a plain
	// count-then-insert would race past the allowance.
	var lockedID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, *code.CreatedByID).Scan(&lockedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.InvitationCode{}, 0, faults.ErrNotFound
		}
		return models.InvitationCode{}, 0, errors.Wrap(err, "lock issuer")
	}

	var issued int
	const countQuery = `SELECT COUNT(*) FROM invitation_codes WHERE created_by_user_id = $1`
	if err := tx.QueryRowContext(ctx, countQuery, *code.CreatedByID).Scan(&issued); err != nil {
		return models.InvitationCode{}, 0, errors.Wrap(err, "count issued codes")
	}
	if issued >= maxCodes {
		return models.InvitationCode{}, issued, faults.ErrQuotaExceeded
	}

	created, err := insertCode(ctx, tx, code)
	if err != nil {
		return models.InvitationCode{}, issued, err
	}
	if err := tx.Commit(); err != nil {
		return models.InvitationCode{}, issued, errors.Wrap(err, "commit issuance")
	}
	return created, issued + 1, nil
}

func (r *codeRepository) GetCodeByToken(ctx context.Context, token string) (models.InvitationCode, error) {
	query := `SELECT ` + codeColumns + ` FROM invitation_codes WHERE code = $1`
	return scanCode(r.db.QueryRowContext(ctx, query, token))
}

func (r *codeRepository) ListCodesByIssuer(ctx context.Context, userID string) ([]models.InvitationCode, error) {
	query := `
		SELECT ` + codeColumns + ` FROM invitation_codes
		WHERE created_by_user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list issued codes")
	}
	defer rows.Close()

	var codes []models.InvitationCode
	for rows.Next() {
		code, err := scanCode(rows)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (r *codeRepository) DeactivateCode(ctx context.Context, codeID string) error {
	const query = `UPDATE invitation_codes SET is_active = FALSE WHERE id = $1 AND is_active`

	result, err := r.db.ExecContext(ctx, query, codeID)
	if err != nil {
		return errors.Wrap(err, "deactivate code")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deactivate code: rows affected")
	}
	if rows == 0 {
		return faults.ErrNotFound
	}
	return nil
}

func (r *codeRepository) RedeemForUser(ctx context.Context, codeID string, user models.User) (models.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.User{}, errors.Wrap(err, "begin redemption transaction")
	}
	defer tx.Rollback()

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

	// The guard on current_uses is what serializes concurrent redemptions;
	// an unconditional read-then-write here would race past max_uses.
	const redeemQuery = `
		UPDATE invitation_codes
		SET current_uses = current_uses + 1
		WHERE id = $1 AND is_active AND current_uses < max_uses`

	result, err := tx.ExecContext(ctx, redeemQuery, codeID)
	if err != nil {
		return models.User{}, errors.Wrap(err, "increment code uses")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return models.User{}, errors.Wrap(err, "increment code uses: rows affected")
	}
	if affected == 0 {
		return models.User{}, faults.ErrQuotaExhausted
	}

	if err := tx.Commit(); err != nil {
		return models.User{}, errors.Wrap(err, "commit redemption")
	}
	return created, nil
}

func (r *codeRepository) Stats(ctx context.Context) (models.CodeStats, error) {
	const query = `
		SELECT COUNT(*),
			COALESCE(SUM(current_uses), 0),
			COUNT(*) FILTER (WHERE is_active
				AND current_uses < max_uses
				AND (expires_at IS NULL OR expires_at > now()))
		FROM invitation_codes`

	var stats models.CodeStats
	err := r.db.QueryRowContext(ctx, query).Scan(&stats.TotalGenerated, &stats.TotalUses, &stats.Usable)
	if err != nil {
		return models.CodeStats{}, errors.Wrap(err, "code stats")
	}
	return stats, nil
}
