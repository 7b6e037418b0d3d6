package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/smartcity-api/internal/domain"
)

const reportColumns = `id::text, description, latitude, longitude, status, image, user_id::text, created_at, updated_at`

type pgReportRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresReportRepository returns a Postgres-backed implementation.
func NewPostgresReportRepository(pool *pgxpool.Pool) ReportRepository {
	return &pgReportRepository{pool: pool}
}

func (r *pgReportRepository) Create(ctx context.Context, report *domain.Report) error {
	if r.pool == nil {
		return ErrStoreUnavailable
	}
	const query = `
        INSERT INTO reports (description, latitude, longitude, status, image, user_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6::uuid, $7)
        RETURNING id::text`

	var userID *string
	if report.UserID != nil {
		if parsed, err := uuid.Parse(*report.UserID); err == nil {
			s := parsed.String()
			userID = &s
		}
	}
	return r.pool.QueryRow(ctx, query,
		report.Description,
		report.Latitude,
		report.Longitude,
		int16(report.Status),
		report.Image,
		userID,
		report.CreatedAt,
	).Scan(&report.ID)
}

func (r *pgReportRepository) List(ctx context.Context, filter ReportFilter) ([]domain.Report, error) {
	if r.pool == nil {
		return nil, ErrStoreUnavailable
	}
	query := `SELECT ` + reportColumns + ` FROM reports`
	args := []any{}
	if filter.UserID != nil {
		parsed, err := uuid.Parse(*filter.UserID)
		if err != nil {
			return []domain.Report{}, nil
		}
		query += ` WHERE user_id=$1::uuid`
		args = append(args, parsed.String())
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *report)
	}
	return result, rows.Err()
}

func (r *pgReportRepository) UpdateStatus(ctx context.Context, id string, status domain.ReportStatus, updatedAt time.Time) (*domain.Report, error) {
	if r.pool == nil {
		return nil, ErrStoreUnavailable
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	query := `
        UPDATE reports SET status=$1, updated_at=$2
        WHERE id=$3::uuid
        RETURNING ` + reportColumns

	report, err := scanReport(r.pool.QueryRow(ctx, query, int16(status), updatedAt, parsed.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return report, nil
}

func (r *pgReportRepository) Delete(ctx context.Context, id string) error {
	if r.pool == nil {
		return ErrStoreUnavailable
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM reports WHERE id=$1::uuid`, parsed.String())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanReport(row pgx.Row) (*domain.Report, error) {
	var (
		report domain.Report
		status int16
	)
	if err := row.Scan(
		&report.ID,
		&report.Description,
		&report.Latitude,
		&report.Longitude,
		&status,
		&report.Image,
		&report.UserID,
		&report.CreatedAt,
		&report.UpdatedAt,
	); err != nil {
		return nil, err
	}
	report.Status = domain.ReportStatus(status)
	return &report, nil
}
