package repository

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/alumnet/alumnet-api/internal/faults"
	"github.com/alumnet/alumnet-api/internal/models"
)

type SchoolRepository interface {
	GetSchoolByID(ctx context.Context, schoolID string) (models.School, error)
	ListSchools(ctx context.Context) ([]models.School, error)
}

type schoolRepository struct {
	db *sql.DB
}

func NewSchoolRepository(db *sql.DB) SchoolRepository {
	return &schoolRepository{db: db}
}

func (r *schoolRepository) GetSchoolByID(ctx context.Context, schoolID string) (models.School, error) {
	const query = `
		SELECT id, name, city, country, is_active, created_at
		FROM schools
		WHERE id = $1`

	var school models.School
	err := r.db.QueryRowContext(ctx, query, schoolID).Scan(
		&school.ID,
		&school.Name,
		&school.City,
		&school.Country,
		&school.IsActive,
		&school.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.School{}, faults.ErrNotFound
		}
		return models.School{}, errors.Wrap(err, "get school")
	}
	return school, nil
}

func (r *schoolRepository) ListSchools(ctx context.Context) ([]models.School, error) {
	const query = `
		SELECT id, name, city, country, is_active, created_at
		FROM schools
		WHERE is_active
		ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "list schools")
	}
	defer rows.Close()

	var schools []models.School
	for rows.Next() {
		var school models.School
		if err := rows.Scan(&school.ID, &school.Name, &school.City, &school.Country, &school.IsActive, &school.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan school")
		}
		schools = append(schools, school)
	}
	return schools, rows.Err()
}
