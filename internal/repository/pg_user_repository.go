package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/smartcity-api/internal/domain"
)

const pgUniqueViolation = "23505"

type pgUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository returns a Postgres-backed implementation.
func NewPostgresUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgUserRepository{pool: pool}
}

func (r *pgUserRepository) Create(ctx context.Context, user *domain.User) error {
	if r.pool == nil {
		return ErrStoreUnavailable
	}
	const query = `
        INSERT INTO users (email, password, is_admin, created_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id::text`

	err := r.pool.QueryRow(ctx, query,
		user.Email,
		user.PasswordHash,
		user.IsAdmin,
		user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *pgUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	const query = `
        SELECT id::text, email, password, is_admin, created_at
        FROM users WHERE id=$1::uuid`
	return r.fetchSingle(ctx, query, parsed.String())
}

func (r *pgUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id::text, email, password, is_admin, created_at
        FROM users WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *pgUserRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	if r.pool == nil {
		return nil, ErrStoreUnavailable
	}
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
